// internal/lobby/manager.go
package lobby

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/game"
	"github.com/jason-s-yu/taki/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	minPlayers    = 2
	maxPlayers    = 8
	maxNameLength = 32
)

// Config holds the lifecycle timings and dealing parameters.
type Config struct {
	StartDelay  time.Duration // between the room filling up and the deal
	GracePeriod time.Duration // an empty room survives this long
	HandSize    int
	Deck        game.DeckOptions
}

// DefaultConfig matches the classic table: 100ms start delay, 10s grace, seven cards.
func DefaultConfig() Config {
	return Config{
		StartDelay:  100 * time.Millisecond,
		GracePeriod: 10 * time.Second,
		HandSize:    7,
	}
}

// ActionRecorder receives a record of every accepted game event.
type ActionRecorder interface {
	Record(ctx context.Context, rec models.ActionRecord) error
}

// Manager owns the room lifecycle: create, join, leave, start, deferred
// deletion, and routing player actions into the rules engine.
type Manager struct {
	registry    *Registry
	broadcaster *Broadcaster
	recorder    ActionRecorder
	cfg         Config
	logger      *logrus.Logger
}

// NewManager wires a Manager. recorder may be nil.
func NewManager(registry *Registry, broadcaster *Broadcaster, recorder ActionRecorder, cfg Config, logger *logrus.Logger) *Manager {
	return &Manager{
		registry:    registry,
		broadcaster: broadcaster,
		recorder:    recorder,
		cfg:         cfg,
		logger:      logger,
	}
}

func (m *Manager) Registry() *Registry { return m.registry }

// CreateRoom opens a new room with the creator seated. A creator seated
// elsewhere leaves that room first.
func (m *Manager) CreateRoom(player models.Player, roomName string, max int) (*game.Room, error) {
	player, err := normalizePlayer(player)
	if err != nil {
		m.broadcaster.JoinRoomError(player.ID, ClientMessage(err))
		return nil, err
	}
	roomName = strings.TrimSpace(roomName)
	if roomName == "" || utf8.RuneCountInString(roomName) > maxNameLength {
		m.broadcaster.JoinRoomError(player.ID, ClientMessage(ErrInvalidRoomName))
		return nil, ErrInvalidRoomName
	}
	if max < minPlayers || max > maxPlayers {
		m.broadcaster.JoinRoomError(player.ID, ClientMessage(ErrInvalidMaxPlayers))
		return nil, ErrInvalidMaxPlayers
	}

	m.LeaveRoom(player.ID)

	room := game.NewRoom(roomName, max, m.cfg.Deck, nil)
	room.AddPlayer(player)
	wr := room.WaitingRoom()
	m.registry.Add(room)

	m.logger.WithFields(logrus.Fields{"room": room.ID, "player": player.ID}).Infof("room %q created for %d players", roomName, max)

	m.broadcaster.Subscribe(player.ID, room.ID)
	m.broadcaster.JoinedRoom(player.ID, wr)
	m.broadcaster.RefreshRooms()
	m.broadcaster.RefreshWaitingRoom(wr)
	return room, nil
}

// JoinRoom seats the player in an open room. Filling the last seat schedules
// the deal after the start delay.
func (m *Manager) JoinRoom(roomID uuid.UUID, player models.Player) error {
	err := m.joinRoom(roomID, player)
	if err != nil {
		m.logger.WithFields(logrus.Fields{"room": roomID, "player": player.ID}).Debugf("join rejected: %v", err)
		m.broadcaster.JoinRoomError(player.ID, ClientMessage(err))
	}
	return err
}

func (m *Manager) joinRoom(roomID uuid.UUID, player models.Player) error {
	player, err := normalizePlayer(player)
	if err != nil {
		return err
	}
	room, ok := m.registry.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	// A rejected join must not unseat the player from their current room, so
	// the target is checked before leaving and again once the lock is retaken.
	room.Mu.Lock()
	err = checkJoinable(room, player.ID)
	room.Mu.Unlock()
	if err != nil {
		return err
	}
	if cur, ok := m.registry.FindByPlayer(player.ID); ok && cur.ID != roomID {
		m.LeaveRoom(player.ID)
	}

	room.Mu.Lock()
	if err := checkJoinable(room, player.ID); err != nil {
		room.Mu.Unlock()
		return err
	}

	room.AddPlayer(player)
	if room.CancelDeletion() {
		m.logger.WithField("room", room.ID).Info("pending deletion cancelled")
	}
	if room.IsFull() {
		room.ScheduleStart(m.cfg.StartDelay, func() { m.startGame(roomID) })
	}
	wr := room.WaitingRoom()
	room.Mu.Unlock()

	m.logger.WithFields(logrus.Fields{"room": roomID, "player": player.ID}).Infof("player %q joined (%d/%d)", player.Name, len(wr.Players), wr.MaxPlayers)

	m.broadcaster.Subscribe(player.ID, roomID)
	m.broadcaster.JoinedRoom(player.ID, wr)
	m.broadcaster.RefreshRooms()
	m.broadcaster.RefreshWaitingRoom(wr)
	return nil
}

// LeaveRoom unseats the player from whatever room holds them. An emptied room
// is scheduled for deletion after the grace period.
func (m *Manager) LeaveRoom(playerID uuid.UUID) {
	room, ok := m.registry.FindByPlayer(playerID)
	if !ok {
		return
	}

	room.Mu.Lock()
	if room.Destroyed() || !room.HasPlayer(playerID) {
		room.Mu.Unlock()
		return
	}
	wasPlaying := room.GameStarted
	gameID := room.GameID
	room.RemovePlayer(playerID)

	if wasPlaying {
		m.record(room, playerID, models.ActionTypeLeave, nil)
		if len(room.Players) < minPlayers {
			res := game.Forfeit(room)
			m.finishGame(room, res)
		} else {
			m.broadcaster.UpdateGame(room.Views())
		}
	}

	if !wasPlaying && room.StartPending() {
		room.ClearStart()
		m.logger.WithField("room", room.ID).Info("start cancelled, room no longer full")
	}
	empty := room.IsEmpty()
	if empty {
		if room.ScheduleDeletion(m.cfg.GracePeriod, func(gen uint64) { m.destroyRoom(room.ID, gen) }) {
			m.logger.WithField("room", room.ID).Infof("room empty, deleting in %s", m.cfg.GracePeriod)
		}
	}
	wr := room.WaitingRoom()
	room.Mu.Unlock()

	m.logger.WithFields(logrus.Fields{"room": room.ID, "player": playerID, "game": gameID}).Info("player left")

	m.broadcaster.Unsubscribe(playerID, room.ID)
	if !empty {
		m.broadcaster.RefreshWaitingRoom(wr)
	}
	m.broadcaster.RefreshRooms()
}

// Connect greets a new connection with the room list.
func (m *Manager) Connect(playerID uuid.UUID) {
	m.logger.WithField("player", playerID).Debug("player connected")
	m.broadcaster.RefreshRooms()
}

// Disconnect treats a dropped connection as leaving.
func (m *Manager) Disconnect(playerID uuid.UUID) {
	m.LeaveRoom(playerID)
}

// EnterLobby is sent by clients navigating back to the room list.
func (m *Manager) EnterLobby(playerID uuid.UUID) {
	m.LeaveRoom(playerID)
}

// Play routes one player action into the rules engine. Rejections are reported
// to the actor; actions on missing rooms or unset tables are dropped.
func (m *Manager) Play(roomID, playerID uuid.UUID, action game.Action) error {
	log := m.logger.WithFields(logrus.Fields{"room": roomID, "player": playerID})
	room, ok := m.registry.Get(roomID)
	if !ok {
		log.Debug("action for unknown room ignored")
		return ErrRoomNotFound
	}

	room.Mu.Lock()
	if room.Destroyed() {
		room.Mu.Unlock()
		return ErrRoomNotFound
	}
	res, err := game.Apply(room, playerID, action)
	if err != nil {
		room.Mu.Unlock()
		if game.IsRejection(err) {
			log.Debugf("action rejected: %v", err)
			m.broadcaster.PlayError(playerID, err.Error())
		} else {
			log.Debugf("action ignored: %v", err)
		}
		return err
	}

	if res.Played != nil {
		m.record(room, playerID, models.ActionTypePlay, map[string]interface{}{"card": *res.Played})
	} else {
		m.record(room, playerID, models.ActionTypeDraw, map[string]interface{}{"amount": res.Drawn})
	}
	// dispatch under the lock so per-player updates keep action order
	if res.GameOver() {
		m.finishGame(room, res)
	} else {
		m.broadcaster.UpdateGame(room.Views())
	}
	room.Mu.Unlock()

	if res.GameOver() {
		m.broadcaster.RefreshRooms()
	}
	return nil
}

// finishGame sends the final table, announces the result and returns the room
// to lobby state. Caller holds room.Mu.
func (m *Manager) finishGame(room *game.Room, res game.Result) {
	if res.GameOver() {
		m.record(room, res.Winner.ID, models.ActionTypeEndGame, map[string]interface{}{"winner": res.Winner.ID})
		m.broadcaster.UpdateGame(room.Views())
		m.broadcaster.GameOver(res.Verdicts, res.Winner.Name)
		m.logger.WithFields(logrus.Fields{"room": room.ID, "game": room.GameID}).Infof("game over, winner %q", res.Winner.Name)
	}
	room.ClearTable()
}

// startGame deals a new game once the start delay has passed.
func (m *Manager) startGame(roomID uuid.UUID) {
	room, ok := m.registry.Get(roomID)
	if !ok {
		return
	}
	log := m.logger.WithField("room", roomID)

	room.Mu.Lock()
	room.ClearStart()
	if room.Destroyed() || room.GameStarted || !room.IsFull() {
		room.Mu.Unlock()
		log.Debug("start skipped, room no longer ready")
		return
	}
	if err := room.Deal(m.cfg.HandSize); err != nil {
		wr := room.WaitingRoom()
		room.Mu.Unlock()
		log.Errorf("failed to start game: %v", err)
		m.broadcaster.GameError(roomID, "Failed to start game")
		// clients fall back to the waiting room, from which they can leave
		m.broadcaster.RefreshWaitingRoom(wr)
		return
	}
	ids := make([]string, 0, len(room.Players))
	for _, p := range room.Players {
		ids = append(ids, p.ID.String())
	}
	top, _ := room.TopCard()
	m.record(room, uuid.Nil, models.ActionTypeDeal, map[string]interface{}{"players": ids, "discard": top})
	m.broadcaster.UpdateGame(room.Views())
	gameID := room.GameID
	room.Mu.Unlock()

	log.WithField("game", gameID).Info("game started")
	m.broadcaster.RefreshRooms()
}

// destroyRoom is the deletion timer callback.
func (m *Manager) destroyRoom(roomID uuid.UUID, gen uint64) {
	removed := m.registry.RemoveIf(roomID, func(r *game.Room) bool {
		r.Mu.Lock()
		defer r.Mu.Unlock()
		return r.DeletionDue(gen)
	})
	if !removed {
		return
	}
	m.logger.WithField("room", roomID).Info("room deleted")
	m.broadcaster.RefreshRooms()
}

// record publishes an action asynchronously. Caller holds room.Mu.
func (m *Manager) record(room *game.Room, actor uuid.UUID, actionType string, payload map[string]interface{}) {
	if m.recorder == nil || room.GameID == uuid.Nil {
		return
	}
	rec := models.ActionRecord{
		GameID:        room.GameID,
		RoomID:        room.ID,
		ActionIndex:   room.NextActionIndex(),
		ActorUserID:   actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.recorder.Record(ctx, rec); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.WithField("game", rec.GameID).Warnf("failed to record %s: %v", rec.ActionType, err)
		}
	}()
}

// checkJoinable reports why playerID may not take a seat in room. Caller holds room.Mu.
func checkJoinable(room *game.Room, playerID uuid.UUID) error {
	switch {
	case room.Destroyed():
		return ErrRoomNotFound
	case room.GameStarted:
		return ErrGameStarted
	case room.HasPlayer(playerID):
		return ErrAlreadyInRoom
	case room.IsFull():
		return ErrRoomFull
	}
	return nil
}

func normalizePlayer(p models.Player) (models.Player, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" || utf8.RuneCountInString(p.Name) > maxNameLength {
		return p, ErrInvalidPlayerName
	}
	return p, nil
}
