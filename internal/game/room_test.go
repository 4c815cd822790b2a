package game

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemovePlayerInLobby(t *testing.T) {
	r := NewRoom("lobby", 3, DeckOptions{}, nil)
	a := models.Player{ID: uuid.New(), Name: "a"}
	b := models.Player{ID: uuid.New(), Name: "b"}
	r.AddPlayer(a)
	r.AddPlayer(b)

	idx, ok := r.RemovePlayer(a.ID)
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, []models.Player{b}, r.Players)

	_, ok = r.RemovePlayer(a.ID)
	assert.False(t, ok)
}

func TestRemovePlayerMidGameKeepsCards(t *testing.T) {
	r, players := newDealtRoom(t, 4, DeckOptions{})
	r.Turn = 2

	_, ok := r.RemovePlayer(players[0].ID)
	require.True(t, ok)

	assert.Equal(t, 101, r.CountCards())
	assert.NotContains(t, r.Hands, players[0].ID)
	assert.Equal(t, 1, r.Turn)
	assert.Equal(t, players[2].ID, r.CurrentPlayer().ID)
}

func TestRemoveCurrentPlayerPassesTurn(t *testing.T) {
	r, players := newDealtRoom(t, 3, DeckOptions{})
	r.Turn = 2
	r.OpenTaki = true

	_, ok := r.RemovePlayer(players[2].ID)
	require.True(t, ok)
	assert.Equal(t, 0, r.Turn, "wraps to the first seat")
	assert.False(t, r.OpenTaki)

	r.Direction = CounterClockwise
	_, ok = r.RemovePlayer(players[0].ID)
	require.True(t, ok)
	assert.Equal(t, 0, r.Turn)
	assert.Equal(t, players[1].ID, r.CurrentPlayer().ID)
}

func TestViewForHidesOtherHands(t *testing.T) {
	r, players := newDealtRoom(t, 3, DeckOptions{})
	view := r.ViewFor(players[1].ID)

	assert.Equal(t, players[1].ID, view.MyID)
	assert.Equal(t, r.Hands[players[1].ID], view.Hand)
	require.Len(t, view.Players, 3)
	for i, pv := range view.Players {
		assert.Equal(t, players[i].ID, pv.ID)
		assert.Equal(t, 7, pv.Hand)
	}
	require.NotNil(t, view.Discard)
	assert.Equal(t, r.Discard[0], *view.Discard)

	// the view owns its hand slice
	view.Hand[0] = models.Card{}
	assert.NotEqual(t, models.Card{}, r.Hands[players[1].ID][0])
}

func TestDeletionGeneration(t *testing.T) {
	r := NewRoom("empty", 2, DeckOptions{}, nil)
	var fired atomic.Int32
	var gotGen atomic.Uint64

	require.True(t, r.ScheduleDeletion(time.Hour, func(gen uint64) {}))
	assert.False(t, r.ScheduleDeletion(time.Hour, func(gen uint64) {}), "only one deletion may be pending")
	assert.True(t, r.CancelDeletion())
	assert.False(t, r.DeletionPending())

	require.True(t, r.ScheduleDeletion(10*time.Millisecond, func(gen uint64) {
		gotGen.Store(gen)
		fired.Add(1)
	}))
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)

	// a stale generation never deletes
	assert.False(t, r.DeletionDue(gotGen.Load()-1))
	assert.True(t, r.DeletionDue(gotGen.Load()))
	assert.True(t, r.Destroyed())
}

func TestDeletionNotDueWhenOccupied(t *testing.T) {
	r := NewRoom("busy", 2, DeckOptions{}, nil)
	require.True(t, r.ScheduleDeletion(time.Hour, func(uint64) {}))
	r.AddPlayer(models.Player{ID: uuid.New()})
	assert.False(t, r.DeletionDue(r.deleteGen))
	assert.False(t, r.Destroyed())
	r.CancelDeletion()
}
