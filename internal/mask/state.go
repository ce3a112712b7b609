package mask

// EditState tracks whether the buffer has unsaved changes.
type EditState int

const (
	// Clean means the last save captured every change.
	Clean EditState = iota
	// Painting means a drag stroke is in progress.
	Painting
	// Dirty means there are changes waiting to be saved.
	Dirty
)

func (s EditState) String() string {
	switch s {
	case Clean:
		return "clean"
	case Painting:
		return "painting"
	case Dirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// MarshalText lets the state appear by name in JSON results.
func (s EditState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// stateMachine holds the current EditState and applies the allowed
// transitions. It is a plain controller field; the Editor lock guards it.
type stateMachine struct {
	state EditState
}

// begin handles pointer-down. Any state moves to Painting.
func (m *stateMachine) begin() {
	m.state = Painting
}

// painting reports whether pointer-move events should queue points.
func (m *stateMachine) painting() bool {
	return m.state == Painting
}

// finish handles pointer-up, leave and out. Only Painting moves to Dirty;
// the return value reports whether that happened.
func (m *stateMachine) finish() bool {
	if m.state != Painting {
		return false
	}
	m.state = Dirty
	return true
}

// touch records a completed click draw or flood. Any state moves to Dirty,
// skipping Painting.
func (m *stateMachine) touch() {
	m.state = Dirty
}

// saved records a successful serialization. Only Dirty moves to Clean, so a
// stroke that started after the save was scheduled is not lost.
func (m *stateMachine) saved() {
	if m.state == Dirty {
		m.state = Clean
	}
}
