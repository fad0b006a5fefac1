package mdview

// ScrollPosition is a position inside the rendered document expressed as a
// block and the fraction of that block's height above the viewport top.
type ScrollPosition struct {
	BlockID  string
	Progress float64
}

// LineMapper translates between block positions and source lines.
// Implementations are provided by the rendering layer; see SourceMap.
type LineMapper interface {
	// LineFromBlock returns the source line shown at progress within blockID.
	LineFromBlock(blockID string, progress float64) (int, bool)
	// PositionFromLine returns the block position of a source line.
	PositionFromLine(line int) (ScrollPosition, bool)
}

// clampProgress limits p to [0,1].
func clampProgress(p float64) float64 {
	if p != p { // NaN
		return 0
	}
	return min(1, max(0, p))
}
