package service

// EngineState is the lifecycle state of a [SyncEngine].
type EngineState int

const (
	StateUninitialized EngineState = iota
	// StateAwaitingAuth means a credential must be supplied before the
	// engine can connect.
	StateAwaitingAuth
	// StateSubscribing means the subscription is open and the first
	// snapshot has not been applied yet.
	StateSubscribing
	StateSynced
	StateFaulted
)

func (s EngineState) String() string {
	switch s {
	case StateAwaitingAuth:
		return "awaiting_auth"
	case StateSubscribing:
		return "subscribing"
	case StateSynced:
		return "synced"
	case StateFaulted:
		return "faulted"
	default:
		return "uninitialized"
	}
}

// Status is a point-in-time summary of the engine.
type Status struct {
	State      string `json:"state"`
	UID        string `json:"uid"`
	Clips      int    `json:"clips"`
	Devices    int    `json:"devices"`
	Licensed   bool   `json:"licensed"`
	Credential string `json:"credential,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}
