package mdview

// State is the synchronization state of a Controller.
type State int

const (
	// StateInitial means no target line has been established yet.
	StateInitial State = iota
	// StateRestoring means a target is known but not yet reachable.
	StateRestoring
	// StateTracking means the view is settled and follows user scrolling.
	StateTracking
	// StateLocked means the controller just scrolled and suppresses echoes.
	StateLocked
)

// String returns the upper-case state name.
func (s State) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateRestoring:
		return "RESTORING"
	case StateTracking:
		return "TRACKING"
	case StateLocked:
		return "LOCKED"
	default:
		return "UNKNOWN"
	}
}
