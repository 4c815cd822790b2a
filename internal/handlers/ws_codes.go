// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the game socket.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	ReplacedError       = 3002 // A newer connection for the same player took over.
)
