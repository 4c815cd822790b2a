// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/auth"
	"github.com/jason-s-yu/taki/internal/game"
	"github.com/jason-s-yu/taki/internal/lobby"
	"github.com/jason-s-yu/taki/internal/middleware"
	"github.com/jason-s-yu/taki/internal/models"
	"github.com/sirupsen/logrus"
)

const subprotocol = "taki"

// ClientMessage is the envelope for every inbound message.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type createRoomPayload struct {
	PlayerName string `json:"playerName"`
	RoomName   string `json:"roomName"`
	MaxPlayers int    `json:"maxPlayers"`
	Profile    string `json:"profile"`
}

type joinRoomPayload struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Profile    string `json:"profile"`
}

type playCardPayload struct {
	RoomID string      `json:"roomId"`
	Action game.Action `json:"action"`
}

// WSHandler upgrades the connection, resolves the player's identity and runs
// the read loop until the socket closes. Closing the socket leaves any room.
func WSHandler(logger *logrus.Logger, hub *Hub, manager *lobby.Manager, ids *auth.TokenIssuer, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID, err := EnsurePlayerIdentity(w, r, ids)
		if err != nil {
			logger.Errorf("identity failed for %s: %v", r.RemoteAddr, err)
			http.Error(w, "could not establish identity", http.StatusInternalServerError)
			return
		}

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{subprotocol},
			OriginPatterns: origins,
		})
		if err != nil {
			logger.Warnf("websocket accept error: %v", err)
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != subprotocol {
			c.Close(BadSubprotocolError, "client must speak the taki subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		client := hub.Register(playerID, cancel)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		log := logger.WithField("player", playerID)

		go writePump(ctx, c, client, log)
		manager.Connect(playerID)

		readErr := readPump(ctx, c, playerID, hub, manager, log)

		if hub.Unregister(client) {
			manager.Disconnect(playerID)
		} else {
			c.Close(ReplacedError, "connection replaced")
		}
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, readErr)
	}
}

// readPump reads client messages until the connection or ctx ends.
func readPump(ctx context.Context, c *websocket.Conn, playerID uuid.UUID, hub *Hub, manager *lobby.Manager, log *logrus.Entry) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			log.Warnf("ignoring non-text message type %d", typ)
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warnf("invalid json: %v", err)
			sendError(hub, playerID, "Invalid JSON format")
			continue
		}
		handleMessage(msg, playerID, hub, manager, log)
	}
}

// handleMessage routes one inbound message to the lobby manager.
func handleMessage(msg ClientMessage, playerID uuid.UUID, hub *Hub, manager *lobby.Manager, log *logrus.Entry) {
	switch msg.Type {
	case "createRoom":
		var p createRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			hub.SendTo(playerID, lobby.EventJoinRoomError, "Invalid room request")
			return
		}
		manager.CreateRoom(models.Player{ID: playerID, Name: p.PlayerName, Profile: p.Profile}, p.RoomName, p.MaxPlayers)

	case "joinRoom":
		var p joinRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			hub.SendTo(playerID, lobby.EventJoinRoomError, "Invalid room request")
			return
		}
		// an unparsable id falls through to "Room not found"
		roomID, _ := uuid.Parse(p.RoomID)
		manager.JoinRoom(roomID, models.Player{ID: playerID, Name: p.PlayerName, Profile: p.Profile})

	case "playCard":
		var p playCardPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			log.Debugf("bad playCard payload: %v", err)
			hub.SendTo(playerID, lobby.EventPlayError, map[string]string{"message": "Invalid move"})
			return
		}
		roomID, err := uuid.Parse(p.RoomID)
		if err != nil {
			return
		}
		manager.Play(roomID, playerID, p.Action)

	case "enteredLobby":
		manager.EnterLobby(playerID)

	case "ping":
		hub.SendTo(playerID, "pong", nil)

	default:
		sendError(hub, playerID, "Unknown message type: "+msg.Type)
	}
}

func sendError(hub *Hub, playerID uuid.UUID, message string) {
	hub.SendTo(playerID, "error", map[string]string{"message": message})
}

// writePump drains the client's outbox to the socket and keeps it alive with pings.
func writePump(ctx context.Context, c *websocket.Conn, client *Client, log *logrus.Entry) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-client.OutChan:
			writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				log.Warnf("failed to write to websocket: %v", err)
				client.cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Warnf("ping failed, assuming disconnect: %v", err)
				client.cancel()
				return
			}
		}
	}
}
