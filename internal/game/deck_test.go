package game

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDeckComposition(t *testing.T) {
	deck := BuildDeck()
	require.Len(t, deck, 101)
	assert.Equal(t, 101, DeckSize(DeckOptions{}))

	counts := make(map[models.Card]int)
	for _, c := range deck {
		counts[c]++
		assert.Equal(t, c.Value == models.ValueChangeColor, c.Color == models.ColorNone, "card %s", c)
	}
	for _, color := range models.Colors {
		for _, value := range models.ColoredValues {
			assert.Equal(t, 2, counts[models.Card{Color: color, Value: value}], "%s %s", color, value)
		}
		assert.Zero(t, counts[models.Card{Color: color, Value: models.ValueTaki}])
	}
	assert.Equal(t, 5, counts[models.Card{Color: models.ColorNone, Value: models.ValueChangeColor}])
}

func TestBuildDeckIsStable(t *testing.T) {
	assert.Equal(t, BuildDeck(), BuildDeck())
	deck := BuildDeck()
	assert.Equal(t, models.Card{Color: models.ColorBlue, Value: models.ValueOne}, deck[0])
	assert.Equal(t, models.Card{Color: models.ColorBlue, Value: models.ValueOne}, deck[1])
	assert.Equal(t, models.Card{Color: models.ColorNone, Value: models.ValueChangeColor}, deck[100])
}

func TestBuildDeckWithTaki(t *testing.T) {
	opts := DeckOptions{TakiPerColor: 2}
	deck := BuildDeckWith(opts)
	require.Len(t, deck, 109)
	assert.Equal(t, 109, DeckSize(opts))
	assert.Equal(t, BuildDeck(), deck[:101], "optional cards go after the canonical deck")
	for _, c := range deck[101:] {
		assert.Equal(t, models.ValueTaki, c.Value)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	deck := BuildDeck()
	shuffled := Shuffle(BuildDeck(), rng)
	require.Len(t, shuffled, len(deck))
	assert.ElementsMatch(t, deck, shuffled)
	assert.NotEqual(t, deck, shuffled)
}

func TestShuffleEdgeSizes(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Empty(t, Shuffle(nil, rng))
	one := []models.Card{{Color: models.ColorRed, Value: models.ValueFive}}
	assert.Equal(t, one, Shuffle(one, rng))
}

func TestDrawFromHead(t *testing.T) {
	r, players := newDealtRoom(t, 2, DeckOptions{})
	p := players[0].ID
	head := append([]models.Card(nil), r.Deck[:3]...)
	before := len(r.Hands[p])

	Draw(r, p, 3)

	assert.Len(t, r.Hands[p], before+3)
	assert.Equal(t, head, r.Hands[p][before:])
	assert.Equal(t, r.CardTotal(), r.CountCards())
}

func TestDrawRecyclesDiscard(t *testing.T) {
	r, players := newDealtRoom(t, 2, DeckOptions{})
	p := players[0].ID

	// move the deck into the discard pile, leaving one card
	top := models.Card{Color: models.ColorYellow, Value: models.ValueSeven}
	r.Discard = append(r.Discard, r.Deck[1:]...)
	r.Discard = append(r.Discard, models.Card{Color: models.ColorRed, Value: models.ValueChangeColor})
	r.Discard = append(r.Discard, top)
	r.Deck = r.Deck[:1]
	r.cardTotal += 2 // the change_color and the top card added above
	require.Equal(t, r.CardTotal(), r.CountCards())

	Draw(r, p, 3)

	assert.Equal(t, []models.Card{top}, r.Discard)
	assert.Equal(t, r.CardTotal(), r.CountCards())
	for _, c := range append(append([]models.Card{}, r.Deck...), r.Hands[p]...) {
		assert.Equal(t, c.Value == models.ValueChangeColor, c.Color == models.ColorNone, "card %s", c)
	}
}

func TestDrawAppendsFreshDeckWhenExhausted(t *testing.T) {
	r, players := newDealtRoom(t, 2, DeckOptions{})
	p := players[1].ID
	r.Deck = nil
	r.cardTotal = r.CountCards()

	Draw(r, p, 2)

	assert.Len(t, r.Hands[p], 9)
	assert.Len(t, r.Deck, 99)
	assert.Equal(t, r.CardTotal(), r.CountCards())
}

func TestDealTwoPlayers(t *testing.T) {
	r, players := newDealtRoom(t, 2, DeckOptions{})

	assert.True(t, r.GameStarted)
	assert.Len(t, r.Deck, 86)
	require.Len(t, r.Discard, 1)
	assert.True(t, r.Discard[0].Value.IsNumbered())
	for _, p := range players {
		assert.Len(t, r.Hands[p.ID], 7)
	}
	assert.Equal(t, 0, r.Turn)
	assert.Equal(t, Clockwise, r.Direction)
	assert.Zero(t, r.Combo)
	assert.False(t, r.OpenTaki)
	assert.NotEqual(t, uuid.Nil, r.GameID)
	assert.Equal(t, 101, r.CountCards())
}

func TestDealInsufficientCards(t *testing.T) {
	r := NewRoom("crowded", 8, DeckOptions{}, rand.New(rand.NewSource(3)))
	for i := 0; i < 8; i++ {
		r.AddPlayer(models.Player{ID: uuid.New(), Name: "p"})
	}
	err := r.Deal(13)
	require.ErrorIs(t, err, ErrInsufficientCards)
	assert.False(t, r.GameStarted)
	assert.Empty(t, r.Deck)
	assert.Empty(t, r.Discard)
}
