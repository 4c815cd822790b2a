package lobby

import "errors"

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrGameStarted       = errors.New("game has already started")
	ErrRoomFull          = errors.New("room is full")
	ErrAlreadyInRoom     = errors.New("already in this room")
	ErrInvalidMaxPlayers = errors.New("max players must be between 2 and 8")
	ErrInvalidRoomName   = errors.New("room name must be 1 to 32 characters")
	ErrInvalidPlayerName = errors.New("player name must be 1 to 32 characters")
)

// clientMessages are the texts shown to players for lobby errors.
var clientMessages = map[error]string{
	ErrRoomNotFound:      "Room not found",
	ErrGameStarted:       "Game has already started",
	ErrRoomFull:          "Room is full",
	ErrAlreadyInRoom:     "You are already in this room",
	ErrInvalidMaxPlayers: "Max players must be between 2 and 8",
	ErrInvalidRoomName:   "Room name must be 1 to 32 characters",
	ErrInvalidPlayerName: "Player name must be 1 to 32 characters",
}

// ClientMessage returns the player-facing text for err.
func ClientMessage(err error) string {
	for target, msg := range clientMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}
