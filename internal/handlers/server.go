// internal/handlers/server.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/taki/internal/auth"
	"github.com/jason-s-yu/taki/internal/lobby"
	"github.com/jason-s-yu/taki/internal/middleware"
	"github.com/sirupsen/logrus"
)

// GameServer bundles what the HTTP routes need.
type GameServer struct {
	Hub      *Hub
	Manager  *lobby.Manager
	Identity *auth.TokenIssuer
	Origins  []string
	logger   *logrus.Logger
}

func NewGameServer(logger *logrus.Logger, hub *Hub, manager *lobby.Manager, ids *auth.TokenIssuer, origins []string) *GameServer {
	return &GameServer{
		Hub:      hub,
		Manager:  manager,
		Identity: ids,
		Origins:  origins,
		logger:   logger,
	}
}

// Routes returns the full HTTP handler: /ws, /rooms and /health.
func (gs *GameServer) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", WSHandler(gs.logger, gs.Hub, gs.Manager, gs.Identity, gs.Origins))
	mux.HandleFunc("/rooms", ListRoomsHandler(gs.Manager.Registry()))
	mux.HandleFunc("/health", HealthHandler)
	return middleware.LogMiddleware(gs.logger)(middleware.CORSMiddleware(gs.Origins)(mux))
}
