// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/models"
)

const (
	copiesPerCard    = 2
	changeColorCount = 5
)

// DeckOptions controls optional deck content. The zero value is the canonical deck.
type DeckOptions struct {
	// TakiPerColor adds this many taki cards of each color. With zero, taki
	// chains can never be opened.
	TakiPerColor int
}

// DeckSize returns the number of cards BuildDeckWith(opts) produces.
func DeckSize(opts DeckOptions) int {
	return len(models.Colors)*(len(models.ColoredValues)*copiesPerCard+opts.TakiPerColor) + changeColorCount
}

// BuildDeck returns the canonical 101-card deck in a stable order.
func BuildDeck() []models.Card {
	return BuildDeckWith(DeckOptions{})
}

// BuildDeckWith returns the canonical deck followed by any optional cards.
func BuildDeckWith(opts DeckOptions) []models.Card {
	deck := make([]models.Card, 0, DeckSize(opts))
	for _, color := range models.Colors {
		for _, value := range models.ColoredValues {
			for i := 0; i < copiesPerCard; i++ {
				deck = append(deck, models.Card{Color: color, Value: value})
			}
		}
	}
	for i := 0; i < changeColorCount; i++ {
		deck = append(deck, models.Card{Color: models.ColorNone, Value: models.ValueChangeColor})
	}
	for _, color := range models.Colors {
		for i := 0; i < opts.TakiPerColor; i++ {
			deck = append(deck, models.Card{Color: color, Value: models.ValueTaki})
		}
	}
	return deck
}

// Shuffle permutes deck in place (Fisher-Yates) and returns it.
func Shuffle(deck []models.Card, rng *rand.Rand) []models.Card {
	for i := len(deck) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// Draw moves amount cards from the head of the deck into the player's hand.
// A short deck is first refilled from the discard pile (everything but the top
// card), and if that is still not enough a fresh shuffled deck is appended.
func Draw(r *Room, playerID uuid.UUID, amount int) {
	if amount <= 0 {
		return
	}
	if len(r.Deck) < amount {
		r.recycleDiscard()
	}
	for len(r.Deck) < amount {
		fresh := Shuffle(BuildDeckWith(r.Options), r.rng)
		r.Deck = append(r.Deck, fresh...)
		r.cardTotal += len(fresh)
	}
	drawn := r.Deck[:amount]
	r.Hands[playerID] = append(r.Hands[playerID], drawn...)
	r.Deck = append([]models.Card(nil), r.Deck[amount:]...)
}

// recycleDiscard returns every discard card but the top one to the deck and
// reshuffles. Played change_color cards lose their chosen color.
func (r *Room) recycleDiscard() {
	if len(r.Discard) <= 1 {
		return
	}
	top := r.Discard[len(r.Discard)-1]
	for _, c := range r.Discard[:len(r.Discard)-1] {
		if c.IsColorless() {
			c.Color = models.ColorNone
		}
		r.Deck = append(r.Deck, c)
	}
	r.Discard = []models.Card{top}
	Shuffle(r.Deck, r.rng)
}

// Deal sets up a new game for the seated players: a fresh shuffled deck, the
// first numbered card as the discard seed and handSize cards per seat. On
// error the room is not modified.
func (r *Room) Deal(handSize int) error {
	deck := Shuffle(BuildDeckWith(r.Options), r.rng)

	seed := -1
	for i, c := range deck {
		if c.Value.IsNumbered() {
			seed = i
			break
		}
	}
	if seed < 0 {
		return ErrNoSeedCard
	}
	discard := []models.Card{deck[seed]}
	deck = append(deck[:seed], deck[seed+1:]...)

	need := handSize * len(r.Players)
	if len(deck) < need {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientCards, need, len(deck))
	}

	hands := make(map[uuid.UUID][]models.Card, len(r.Players))
	for _, p := range r.Players {
		hands[p.ID] = append([]models.Card(nil), deck[:handSize]...)
		deck = deck[handSize:]
	}

	r.Deck = append([]models.Card(nil), deck...)
	r.Discard = discard
	r.Hands = hands
	r.Turn = 0
	r.Direction = Clockwise
	r.Combo = 0
	r.OpenTaki = false
	r.GameStarted = true
	r.GameID = uuid.New()
	r.ActionIndex = 0
	r.cardTotal = DeckSize(r.Options)
	return nil
}
