// internal/handlers/hub.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrNotConnected is returned when a player has no live connection.
var ErrNotConnected = errors.New("player not connected")

const outboxSize = 64

// outMessage is the envelope every server event is wrapped in.
type outMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Client is one live WebSocket connection for a player.
type Client struct {
	PlayerID uuid.UUID
	OutChan  chan []byte
	cancel   context.CancelFunc
}

// Hub tracks live connections and room delivery groups. It implements
// lobby.Messenger.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	rooms   map[uuid.UUID]map[uuid.UUID]struct{} // roomID -> playerIDs
	logger  *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*Client),
		rooms:   make(map[uuid.UUID]map[uuid.UUID]struct{}),
		logger:  logger,
	}
}

// Register attaches a connection to a player. A previous connection for the
// same player (another tab) is cancelled and replaced.
func (h *Hub) Register(playerID uuid.UUID, cancel context.CancelFunc) *Client {
	c := &Client{
		PlayerID: playerID,
		OutChan:  make(chan []byte, outboxSize),
		cancel:   cancel,
	}
	h.mu.Lock()
	old := h.clients[playerID]
	h.clients[playerID] = c
	h.mu.Unlock()

	if old != nil {
		h.logger.WithField("player", playerID).Info("replacing previous connection")
		old.cancel()
	}
	return c
}

// Unregister detaches c. It returns false when c had already been replaced,
// in which case the player is still connected.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.PlayerID] != c {
		return false
	}
	delete(h.clients, c.PlayerID)
	return true
}

func (h *Hub) JoinRoom(playerID, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[uuid.UUID]struct{})
		h.rooms[roomID] = members
	}
	members[playerID] = struct{}{}
}

func (h *Hub) LeaveRoom(playerID, roomID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members := h.rooms[roomID]
	delete(members, playerID)
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) SendTo(playerID uuid.UUID, event string, payload interface{}) error {
	data, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	h.mu.RLock()
	c, ok := h.clients[playerID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotConnected, playerID)
	}
	h.enqueue(c, data)
	return nil
}

func (h *Hub) SendToRoom(roomID uuid.UUID, event string, payload interface{}) error {
	data, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for id := range h.rooms[roomID] {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.enqueue(c, data)
	}
	return nil
}

func (h *Hub) SendToAll(event string, payload interface{}) error {
	data, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		h.enqueue(c, data)
	}
	return nil
}

// enqueue never blocks. A client whose outbox is full is disconnected.
func (h *Hub) enqueue(c *Client, data []byte) {
	select {
	case c.OutChan <- data:
	default:
		h.logger.WithField("player", c.PlayerID).Warn("outbox full, dropping connection")
		c.cancel()
	}
}

func encodeEvent(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", event, err)
	}
	return data, nil
}
