package session

// State is the session lifecycle state. Connection establishment walks
// the states strictly in order; any step's failure jumps to StateError.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConfiguring
	StateVerifying
	StateSubscribing
	StateStarting
	StateStreaming
	StateError
)

var stateNames = map[State]string{
	StateDisconnected: "disconnected",
	StateConnecting:   "connecting",
	StateConfiguring:  "configuring",
	StateVerifying:    "verifying",
	StateSubscribing:  "subscribing",
	StateStarting:     "starting",
	StateStreaming:    "streaming",
	StateError:        "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
