package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/blinktactoe-backend/internal/entity"
)

const (
	actionConnect      = "connect"
	actionGameTurn     = "game:turn"
	actionGameReset    = "game:reset"
	actionGameSettings = "game:settings"
	actionGameState    = "game:state"
	actionError        = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type TurnPayload struct {
	Cell *int `json:"cell"`
}

type SettingsPayload struct {
	Settings *entity.Settings `json:"settings"`
}

type ResponsePayload struct {
	Game       *entity.Game `json:"game,omitempty"`
	TimeLeftMs int64        `json:"time_left_ms,omitempty"`
	Error      string       `json:"error,omitempty"`
}
