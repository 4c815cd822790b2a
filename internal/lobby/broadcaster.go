// internal/lobby/broadcaster.go
package lobby

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/game"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Outbound event names.
const (
	EventJoinedRoom         = "joinedRoom"
	EventJoinRoomError      = "joinRoomError"
	EventRefreshRooms       = "refreshRooms"
	EventRefreshWaitingRoom = "refreshWaitingRoom"
	EventUpdateGame         = "updateGame"
	EventGameOver           = "gameOver"
	EventGameError          = "gameError"
	EventPlayError          = "playError"
)

// Messenger delivers events to connected players. Implementations must not
// block on slow clients and must not call back into the lobby package.
type Messenger interface {
	SendTo(playerID uuid.UUID, event string, payload interface{}) error
	SendToRoom(roomID uuid.UUID, event string, payload interface{}) error
	SendToAll(event string, payload interface{}) error
	JoinRoom(playerID, roomID uuid.UUID)
	LeaveRoom(playerID, roomID uuid.UUID)
}

// Broadcaster turns room state into outbound events. It only reads state
// handed to it and never mutates rooms.
type Broadcaster struct {
	messenger Messenger
	registry  *Registry
	logger    *logrus.Logger
}

func NewBroadcaster(messenger Messenger, registry *Registry, logger *logrus.Logger) *Broadcaster {
	return &Broadcaster{messenger: messenger, registry: registry, logger: logger}
}

// Subscribe adds the player to the room's delivery group.
func (b *Broadcaster) Subscribe(playerID, roomID uuid.UUID) {
	b.messenger.JoinRoom(playerID, roomID)
}

// Unsubscribe removes the player from the room's delivery group.
func (b *Broadcaster) Unsubscribe(playerID, roomID uuid.UUID) {
	b.messenger.LeaveRoom(playerID, roomID)
}

// RefreshRooms sends the list of joinable rooms to everyone connected.
// Must not be called while holding a room lock.
func (b *Broadcaster) RefreshRooms() {
	b.logErr(b.messenger.SendToAll(EventRefreshRooms, b.registry.OpenRooms()), EventRefreshRooms)
}

func (b *Broadcaster) RefreshWaitingRoom(wr game.WaitingRoom) {
	b.logErr(b.messenger.SendToRoom(wr.ID, EventRefreshWaitingRoom, wr), EventRefreshWaitingRoom)
}

func (b *Broadcaster) JoinedRoom(playerID uuid.UUID, wr game.WaitingRoom) {
	b.logErr(b.messenger.SendTo(playerID, EventJoinedRoom, map[string]interface{}{
		"roomId":   wr.ID,
		"room":     wr,
		"playerId": playerID,
	}), EventJoinedRoom)
}

func (b *Broadcaster) JoinRoomError(playerID uuid.UUID, reason string) {
	b.logErr(b.messenger.SendTo(playerID, EventJoinRoomError, reason), EventJoinRoomError)
}

// UpdateGame sends every player their own projection of the table.
func (b *Broadcaster) UpdateGame(views map[uuid.UUID]game.GameView) {
	var g errgroup.Group
	for id, view := range views {
		g.Go(func() error {
			return b.messenger.SendTo(id, EventUpdateGame, map[string]interface{}{"room": view})
		})
	}
	b.logErr(g.Wait(), EventUpdateGame)
}

// GameOver sends each player their verdict and the winner's name.
func (b *Broadcaster) GameOver(verdicts map[uuid.UUID]game.Verdict, winner string) {
	var g errgroup.Group
	for id, verdict := range verdicts {
		g.Go(func() error {
			return b.messenger.SendTo(id, EventGameOver, map[string]interface{}{
				"result": verdict,
				"winner": winner,
			})
		})
	}
	b.logErr(g.Wait(), EventGameOver)
}

func (b *Broadcaster) GameError(roomID uuid.UUID, message string) {
	b.logErr(b.messenger.SendToRoom(roomID, EventGameError, map[string]string{"message": message}), EventGameError)
}

func (b *Broadcaster) PlayError(playerID uuid.UUID, message string) {
	b.logErr(b.messenger.SendTo(playerID, EventPlayError, map[string]string{"message": message}), EventPlayError)
}

// logErr records delivery failures. A missing recipient is normal during disconnects.
func (b *Broadcaster) logErr(err error, event string) {
	if err != nil {
		b.logger.WithField("event", event).Debugf("delivery failed: %v", err)
	}
}
