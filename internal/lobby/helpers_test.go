package lobby

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/models"
	"github.com/sirupsen/logrus"
)

type sentEvent struct {
	Event   string
	Payload interface{}
}

// mockMessenger collects events instead of sending them over WS.
type mockMessenger struct {
	mu       sync.Mutex
	toPlayer map[uuid.UUID][]sentEvent
	toRoom   map[uuid.UUID][]sentEvent
	toAll    []sentEvent
	members  map[uuid.UUID]map[uuid.UUID]bool
}

func newMockMessenger() *mockMessenger {
	return &mockMessenger{
		toPlayer: make(map[uuid.UUID][]sentEvent),
		toRoom:   make(map[uuid.UUID][]sentEvent),
		members:  make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (mm *mockMessenger) SendTo(playerID uuid.UUID, event string, payload interface{}) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.toPlayer[playerID] = append(mm.toPlayer[playerID], sentEvent{event, payload})
	return nil
}

func (mm *mockMessenger) SendToRoom(roomID uuid.UUID, event string, payload interface{}) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.toRoom[roomID] = append(mm.toRoom[roomID], sentEvent{event, payload})
	return nil
}

func (mm *mockMessenger) SendToAll(event string, payload interface{}) error {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.toAll = append(mm.toAll, sentEvent{event, payload})
	return nil
}

func (mm *mockMessenger) JoinRoom(playerID, roomID uuid.UUID) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if mm.members[roomID] == nil {
		mm.members[roomID] = make(map[uuid.UUID]bool)
	}
	mm.members[roomID][playerID] = true
}

func (mm *mockMessenger) LeaveRoom(playerID, roomID uuid.UUID) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	delete(mm.members[roomID], playerID)
}

func (mm *mockMessenger) isMember(playerID, roomID uuid.UUID) bool {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.members[roomID][playerID]
}

// playerEvents returns the events of one type sent to a player.
func (mm *mockMessenger) playerEvents(playerID uuid.UUID, event string) []sentEvent {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	var out []sentEvent
	for _, ev := range mm.toPlayer[playerID] {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func (mm *mockMessenger) lastPlayerEvent(playerID uuid.UUID, event string) *sentEvent {
	evs := mm.playerEvents(playerID, event)
	if len(evs) == 0 {
		return nil
	}
	return &evs[len(evs)-1]
}

func (mm *mockMessenger) roomEvents(roomID uuid.UUID, event string) []sentEvent {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	var out []sentEvent
	for _, ev := range mm.toRoom[roomID] {
		if ev.Event == event {
			out = append(out, ev)
		}
	}
	return out
}

func (mm *mockMessenger) lastBroadcast() *sentEvent {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	if len(mm.toAll) == 0 {
		return nil
	}
	ev := mm.toAll[len(mm.toAll)-1]
	return &ev
}

// fakeRecorder keeps recorded actions in memory.
type fakeRecorder struct {
	mu      sync.Mutex
	records []models.ActionRecord
}

func (fr *fakeRecorder) Record(_ context.Context, rec models.ActionRecord) error {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	fr.records = append(fr.records, rec)
	return nil
}

func (fr *fakeRecorder) types() []string {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	out := make([]string, 0, len(fr.records))
	for _, r := range fr.records {
		out = append(out, r.ActionType)
	}
	return out
}

func testConfig() Config {
	return Config{
		StartDelay:  5 * time.Millisecond,
		GracePeriod: 50 * time.Millisecond,
		HandSize:    7,
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupManager(t *testing.T, cfg Config) (*Manager, *mockMessenger, *fakeRecorder) {
	t.Helper()
	logger := quietLogger()
	reg := NewRegistry()
	mm := newMockMessenger()
	rec := &fakeRecorder{}
	return NewManager(reg, NewBroadcaster(mm, reg, logger), rec, cfg, logger), mm, rec
}

func newPlayer(i int) models.Player {
	return models.Player{ID: uuid.New(), Name: fmt.Sprintf("player-%d", i), Profile: "avatar"}
}
