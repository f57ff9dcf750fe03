package resolve

// State is the lifecycle position of a resolution cycle.
// Idle -> Resolving -> {Success, NoMatch, Fatal} -> Idle on the next trigger.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateSuccess
	StateNoMatch
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateSuccess:
		return "success"
	case StateNoMatch:
		return "no_match"
	case StateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Terminal reports whether the cycle has finished
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateNoMatch || s == StateFatal
}
