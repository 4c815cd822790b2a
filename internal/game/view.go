// internal/game/view.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/models"
)

// PlayerView is what other seats may see of a player: a hand count, never cards.
type PlayerView struct {
	Name    string    `json:"name"`
	Hand    int       `json:"hand"`
	ID      uuid.UUID `json:"id"`
	Profile string    `json:"profile"`
}

// GameView is the per-recipient snapshot sent as "updateGame".
type GameView struct {
	ID        uuid.UUID     `json:"id"`
	Name      string        `json:"name"`
	MyID      uuid.UUID     `json:"myId"`
	Players   []PlayerView  `json:"players"`
	Discard   *models.Card  `json:"discard"`
	Turn      int           `json:"turn"`
	Direction Direction     `json:"direction"`
	Combo     int           `json:"combo"`
	OpenTaki  bool          `json:"openTaki"`
	Hand      []models.Card `json:"hand"`
}

// RoomSummary is one entry of the public room list.
type RoomSummary struct {
	Name       string    `json:"name"`
	Players    int       `json:"players"`
	MaxPlayers int       `json:"maxPlayers"`
	ID         uuid.UUID `json:"id"`
}

// WaitingRoom is the lobby view of a room before the game starts.
type WaitingRoom struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	MaxPlayers int             `json:"maxPlayers"`
	Players    []models.Player `json:"players"`
}

// ViewFor projects the room for one player. Only that player's hand is included.
func (r *Room) ViewFor(playerID uuid.UUID) GameView {
	players := make([]PlayerView, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, PlayerView{
			Name:    p.Name,
			Hand:    len(r.Hands[p.ID]),
			ID:      p.ID,
			Profile: p.Profile,
		})
	}
	var discard *models.Card
	if top, ok := r.TopCard(); ok {
		discard = &top
	}
	hand := append([]models.Card{}, r.Hands[playerID]...)
	return GameView{
		ID:        r.ID,
		Name:      r.Name,
		MyID:      playerID,
		Players:   players,
		Discard:   discard,
		Turn:      r.Turn,
		Direction: r.Direction,
		Combo:     r.Combo,
		OpenTaki:  r.OpenTaki,
		Hand:      hand,
	}
}

// Views builds a GameView for every seated player.
func (r *Room) Views() map[uuid.UUID]GameView {
	views := make(map[uuid.UUID]GameView, len(r.Players))
	for _, p := range r.Players {
		views[p.ID] = r.ViewFor(p.ID)
	}
	return views
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{Name: r.Name, Players: len(r.Players), MaxPlayers: r.MaxPlayers, ID: r.ID}
}

func (r *Room) WaitingRoom() WaitingRoom {
	return WaitingRoom{
		ID:         r.ID,
		Name:       r.Name,
		MaxPlayers: r.MaxPlayers,
		Players:    append([]models.Player{}, r.Players...),
	}
}
