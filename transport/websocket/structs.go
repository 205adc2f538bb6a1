package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-minimax/internal/entity"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Mode    string        `json:"mode,omitempty"`
	RoundID string        `json:"round_id,omitempty"`
	Row     *int          `json:"row,omitempty"`
	Col     *int          `json:"col,omitempty"`
	Round   *entity.Round `json:"round,omitempty"`
	Error   string        `json:"error,omitempty"`
}
