package handshake

// State is the lifecycle position of a single connection attempt.
type State int

const (
	// StateIdle means no attempt is in progress.
	StateIdle State = iota
	// StateGenerating means the ephemeral keypair and connection descriptor
	// are being produced.
	StateGenerating
	// StateWaiting means the subscription is open and the machine is waiting
	// for a qualifying response.
	StateWaiting
	// StateVerifying means an inbound message is being checked and decrypted.
	StateVerifying
	// StateConnected is the terminal success state.
	StateConnected
	// StateFailed is the terminal failure state, reachable from any
	// non-idle state.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateWaiting:
		return "waiting"
	case StateVerifying:
		return "verifying"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the two terminal states.
func (s State) Terminal() bool {
	return s == StateConnected || s == StateFailed
}
