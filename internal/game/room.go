// internal/game/room.go
package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/models"
)

// Direction is the order in which turns rotate around the table.
type Direction string

const (
	Clockwise        Direction = "clockwise"
	CounterClockwise Direction = "counterClockwise"
)

// Room is one game table: its seats, its piles and the turn state.
// All fields are guarded by Mu; methods expect the caller to hold it.
type Room struct {
	ID         uuid.UUID
	Name       string
	MaxPlayers int

	Players     []models.Player // seating order
	GameStarted bool

	Deck    []models.Card
	Discard []models.Card
	Hands   map[uuid.UUID][]models.Card

	Turn      int
	Direction Direction
	Combo     int
	OpenTaki  bool

	// GameID identifies the current dealt game in the action history.
	GameID      uuid.UUID
	ActionIndex int

	Options   DeckOptions
	cardTotal int
	rng       *rand.Rand

	startTimer  *time.Timer
	deleteTimer *time.Timer
	deleteGen   uint64
	destroyed   bool

	Mu sync.Mutex
}

// NewRoom creates an empty room in lobby state. A nil rng is replaced by a
// time-seeded source.
func NewRoom(name string, maxPlayers int, opts DeckOptions, rng *rand.Rand) *Room {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Room{
		ID:         uuid.New(),
		Name:       name,
		MaxPlayers: maxPlayers,
		Players:    []models.Player{},
		Hands:      make(map[uuid.UUID][]models.Card),
		Direction:  Clockwise,
		Options:    opts,
		rng:        rng,
	}
}

// SeatIndex returns the seat of the given player, or -1.
func (r *Room) SeatIndex(playerID uuid.UUID) int {
	for i, p := range r.Players {
		if p.ID == playerID {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether the player is seated in the room.
func (r *Room) HasPlayer(playerID uuid.UUID) bool {
	return r.SeatIndex(playerID) >= 0
}

func (r *Room) IsFull() bool  { return len(r.Players) >= r.MaxPlayers }
func (r *Room) IsEmpty() bool { return len(r.Players) == 0 }

// AddPlayer seats a player at the end of the table.
func (r *Room) AddPlayer(p models.Player) {
	r.Players = append(r.Players, p)
}

// RemovePlayer unseats a player and returns the seat they held. During a game
// the leaver's hand goes to the bottom of the deck and the turn pointer is
// moved so the seat that would have played next keeps the turn.
func (r *Room) RemovePlayer(playerID uuid.UUID) (int, bool) {
	idx := r.SeatIndex(playerID)
	if idx < 0 {
		return -1, false
	}
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if !r.GameStarted {
		delete(r.Hands, playerID)
		return idx, true
	}

	r.Deck = append(r.Deck, r.Hands[playerID]...)
	delete(r.Hands, playerID)

	n := len(r.Players)
	switch {
	case n == 0:
		r.Turn = 0
	case idx < r.Turn:
		r.Turn--
	case idx == r.Turn:
		// a leaver cannot keep a chain open for the next seat
		r.OpenTaki = false
		if r.Direction == CounterClockwise {
			r.Turn = (idx - 1 + n) % n
		} else {
			r.Turn = idx % n
		}
	}
	return idx, true
}

// CurrentPlayer returns the player whose turn it is. Only valid while a game is running.
func (r *Room) CurrentPlayer() models.Player {
	return r.Players[r.Turn]
}

// TopCard returns the last card of the discard pile.
func (r *Room) TopCard() (models.Card, bool) {
	if len(r.Discard) == 0 {
		return models.Card{}, false
	}
	return r.Discard[len(r.Discard)-1], true
}

// AdvanceTurn moves the turn one seat in the current direction, wrapping around.
func (r *Room) AdvanceTurn() {
	n := len(r.Players)
	if n == 0 {
		return
	}
	if r.Direction == Clockwise {
		r.Turn = (r.Turn + 1) % n
	} else {
		r.Turn = (r.Turn - 1 + n) % n
	}
}

// FlipDirection reverses turn order.
func (r *Room) FlipDirection() {
	if r.Direction == Clockwise {
		r.Direction = CounterClockwise
	} else {
		r.Direction = Clockwise
	}
}

// CardTotal is the number of cards in play for the current game. It starts at
// the deck size and grows only when Draw has to append a fresh deck.
func (r *Room) CardTotal() int {
	return r.cardTotal
}

// CountCards sums the deck, the discard pile and every hand.
func (r *Room) CountCards() int {
	total := len(r.Deck) + len(r.Discard)
	for _, h := range r.Hands {
		total += len(h)
	}
	return total
}

// NextActionIndex returns a monotonically increasing index for the history log.
func (r *Room) NextActionIndex() int {
	r.ActionIndex++
	return r.ActionIndex
}

// ClearTable drops all game state and puts the room back in lobby state.
// Seated players stay.
func (r *Room) ClearTable() {
	r.GameStarted = false
	r.Deck = nil
	r.Discard = nil
	r.Hands = make(map[uuid.UUID][]models.Card)
	r.Turn = 0
	r.Direction = Clockwise
	r.Combo = 0
	r.OpenTaki = false
	r.cardTotal = 0
}

// ScheduleStart arms the start timer unless one is already armed.
func (r *Room) ScheduleStart(d time.Duration, fn func()) bool {
	if r.startTimer != nil {
		return false
	}
	r.startTimer = time.AfterFunc(d, fn)
	return true
}

// StartPending reports whether a start is armed.
func (r *Room) StartPending() bool {
	return r.startTimer != nil
}

// ClearStart disarms the start timer. The start callback calls it once it holds the lock.
func (r *Room) ClearStart() {
	if r.startTimer != nil {
		r.startTimer.Stop()
		r.startTimer = nil
	}
}

// ScheduleDeletion arms the deletion timer unless one is pending. fn receives
// the generation it was armed with; see DeletionDue.
func (r *Room) ScheduleDeletion(d time.Duration, fn func(gen uint64)) bool {
	if r.deleteTimer != nil {
		return false
	}
	r.deleteGen++
	gen := r.deleteGen
	r.deleteTimer = time.AfterFunc(d, func() { fn(gen) })
	return true
}

// DeletionPending reports whether a deletion timer is armed.
func (r *Room) DeletionPending() bool {
	return r.deleteTimer != nil
}

// CancelDeletion disarms a pending deletion. Bumping the generation makes a
// callback that already fired but has not yet taken the lock a no-op.
func (r *Room) CancelDeletion() bool {
	if r.deleteTimer == nil {
		return false
	}
	r.deleteTimer.Stop()
	r.deleteTimer = nil
	r.deleteGen++
	return true
}

// DeletionDue reports whether the deletion armed with gen is still current and
// the room is still empty. On true the room is marked destroyed.
func (r *Room) DeletionDue(gen uint64) bool {
	if r.deleteTimer == nil || r.deleteGen != gen || !r.IsEmpty() {
		return false
	}
	r.deleteTimer = nil
	r.destroyed = true
	return true
}

// Destroyed reports whether the room has been removed from the registry.
func (r *Room) Destroyed() bool {
	return r.destroyed
}
