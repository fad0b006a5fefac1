package mdview

// locateTolerance absorbs sub-pixel rounding of scroll offsets reported by
// browsers, so an offset of 99.6 still counts as being at a block top of 100.
const locateTolerance = 0.5

// Locate returns the block spanning the surface's current scroll offset and
// the progress through it. It returns false when the surface has no blocks.
// Offset and blocks are read from one Snapshot when s provides it.
func Locate(s Surface) (ScrollPosition, bool) {
	if sn, ok := s.(Snapshotter); ok {
		g := sn.Snapshot()
		return locateIn(g.Blocks, g.Offset)
	}
	return LocateAt(s, s.ScrollOffset())
}

// LocateAt is Locate for an explicit scroll offset.
// The chosen block is the last one whose top is at or above offset, or the
// first block when the offset lies above all of them.
func LocateAt(s Surface, offset float64) (ScrollPosition, bool) {
	return locateIn(s.Blocks(), offset)
}

func locateIn(blocks []BlockRect, offset float64) (ScrollPosition, bool) {
	if len(blocks) == 0 {
		return ScrollPosition{}, false
	}

	current := blocks[0]
	for _, b := range blocks[1:] {
		if b.Top > offset+locateTolerance {
			break
		}
		current = b
	}

	progress := 0.0
	if current.Height > 0 {
		progress = clampProgress((offset - current.Top) / current.Height)
	}
	return ScrollPosition{BlockID: current.ID, Progress: progress}, true
}

// PositionOf returns the scroll offset that puts progress of blockID at the
// top of the viewport. It returns false when the block is absent or has no
// height yet; callers must treat that as "not ready", never as offset 0.
func PositionOf(s Surface, blockID string, progress float64) (float64, bool) {
	for _, b := range s.Blocks() {
		if b.ID != blockID {
			continue
		}
		if b.Height <= 0 {
			return 0, false
		}
		return b.Top + clampProgress(progress)*b.Height, true
	}
	return 0, false
}
