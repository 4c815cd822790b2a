package lobby

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/taki/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsCreationOrder(t *testing.T) {
	reg := NewRegistry()
	rooms := []*game.Room{
		game.NewRoom("a", 2, game.DeckOptions{}, nil),
		game.NewRoom("b", 3, game.DeckOptions{}, nil),
		game.NewRoom("c", 4, game.DeckOptions{}, nil),
	}
	for _, r := range rooms {
		require.True(t, reg.Add(r))
	}
	assert.False(t, reg.Add(rooms[0]), "duplicate ids are ignored")

	rooms[1].GameStarted = true
	open := reg.OpenRooms()
	require.Len(t, open, 2)
	assert.Equal(t, "a", open[0].Name)
	assert.Equal(t, "c", open[1].Name)

	require.True(t, reg.Remove(rooms[0].ID))
	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, rooms[1].ID, list[0].ID)
	assert.Equal(t, rooms[2].ID, list[1].ID)
}

func TestRegistryRemoveIf(t *testing.T) {
	reg := NewRegistry()
	r := game.NewRoom("a", 2, game.DeckOptions{}, nil)
	reg.Add(r)

	assert.False(t, reg.RemoveIf(r.ID, func(*game.Room) bool { return false }))
	assert.Equal(t, 1, reg.Len())
	assert.False(t, reg.RemoveIf(uuid.New(), func(*game.Room) bool { return true }))
	assert.True(t, reg.RemoveIf(r.ID, func(*game.Room) bool { return true }))
	assert.Zero(t, reg.Len())
}

func TestRegistryFindByPlayer(t *testing.T) {
	reg := NewRegistry()
	r := game.NewRoom("a", 2, game.DeckOptions{}, nil)
	p := newPlayer(0)
	r.AddPlayer(p)
	reg.Add(r)
	reg.Add(game.NewRoom("b", 2, game.DeckOptions{}, nil))

	found, ok := reg.FindByPlayer(p.ID)
	require.True(t, ok)
	assert.Equal(t, r.ID, found.ID)

	_, ok = reg.FindByPlayer(uuid.New())
	assert.False(t, ok)
}
