package session

// State of the session state machine:
//
//	Uninitialized -> Resolving -> {Authenticated, Anonymous}
//
// Every credential change re-enters Resolving.
type State int

const (
	Uninitialized State = iota
	Resolving
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Settled reports whether s is a terminal state of a resolution.
func (s State) Settled() bool { return s == Authenticated || s == Anonymous }
