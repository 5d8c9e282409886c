package ws

import (
	"github.com/tiltlab/arlabyrinth/internal/world"
)

// Message type constants of the engine protocol.
const (
	TypeResponse = "response"
	TypeEffect   = "effect"

	StatusOK    = "ok"
	StatusError = "error"
)

// Request is one command sent by the engine.
type Request struct {
	ID      string   `json:"id"`
	Command string   `json:"command"`
	Args    []string `json:"args"`
}

// Response answers a Request with the same ID.
type Response struct {
	Type    string `json:"type"` // always "response"
	ID      string `json:"id"`
	Status  string `json:"status"`
	Command string `json:"command"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// EffectMessage carries one scene mutation to every connected engine.
type EffectMessage struct {
	Type    string       `json:"type"` // always "effect"
	Payload world.Effect `json:"payload"`
}

func newResponse(req Request, result any, err error) Response {
	r := Response{Type: TypeResponse, ID: req.ID, Command: req.Command, Status: StatusOK, Result: result}
	if err != nil {
		r.Status = StatusError
		r.Result = nil
		r.Error = err.Error()
	}
	return r
}
