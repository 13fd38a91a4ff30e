package ipc

// Message types. Requests flow from the game adapter, replies back to it.
const (
	TypeHello     = "hello"
	TypeAck       = "ack"
	TypeNegotiate = "negotiate"
	TypeDiplomacy = "diplomacy"
	TypeCombat    = "combat"
	TypeActions   = "actions"
	TypeError     = "error"
)

type HelloMessage struct {
	Client  string `json:"client"`
	Version string `json:"version,omitempty"`
}

type AckMessage struct {
	Status   string `json:"status"`
	Doctrine string `json:"doctrine,omitempty"`
}

// ErrorMessage replies to a request whose handler failed.
type ErrorMessage struct {
	RequestType string `json:"requestType"`
	Error       string `json:"error"`
}
