package models

import "github.com/google/uuid"

// Player is a seated participant. ID comes from the connection's identity token
// and is stable for the lifetime of that token.
type Player struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Profile string    `json:"profile"`
}
