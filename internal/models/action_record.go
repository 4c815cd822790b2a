package models

import "github.com/google/uuid"

// Action types written to the history queue.
const (
	ActionTypeDeal    = "action_deal"
	ActionTypePlay    = "action_play"
	ActionTypeDraw    = "action_draw"
	ActionTypeLeave   = "action_leave"
	ActionTypeEndGame = "action_end_game"
)

// ActionRecord holds the minimal info the historian needs to persist one game event.
type ActionRecord struct {
	GameID        uuid.UUID              `json:"game_id"`
	RoomID        uuid.UUID              `json:"room_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorUserID   uuid.UUID              `json:"actor_user_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"` // epoch millis
}
