package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *roomRegistry {
	t.Helper()

	reg := newRoomRegistry(&roomConfig{
		maxRounds:        5,
		roundSeconds:     60,
		scoreScale:       1000,
		streetviewRadius: 50000,
		locationRetries:  50,
	}, nil)
	reg.tickEvery = 5 * time.Millisecond

	return reg
}

func TestCreateRoom(t *testing.T) {
	reg := testRegistry(t)

	rm, state := reg.create("creator")

	assert.Regexp(t, `^[a-z0-9]{6}$`, rm.id)
	assert.Equal(t, rm.id, state.RoomID)
	assert.False(t, state.GameStarted)
	assert.False(t, state.IsRoundActive)
	assert.Equal(t, 0, state.RoundNumber)
	assert.Equal(t, 5, state.MaxRounds)

	require.Len(t, state.Players, 1)
	assert.Equal(t, "creator", state.Players[0].ID)
	assert.True(t, state.Players[0].IsHost)
	assert.Zero(t, state.Players[0].TotalScore)

	got, err := reg.get(rm.id)
	require.NoError(t, err)
	assert.Same(t, rm, got)
}

func TestCreateRoomUniqueIDs(t *testing.T) {
	reg := testRegistry(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		rm, _ := reg.create("p")
		assert.False(t, seen[rm.id], "duplicate room id %s", rm.id)
		seen[rm.id] = true
	}
}

func TestGetMissingRoom(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.get("zzzzzz")

	assert.ErrorIs(t, err, errRoomNotFound)
}

func TestReapRemovesOnlyEmptyRooms(t *testing.T) {
	reg := testRegistry(t)

	occupied, _ := reg.create("stays")
	emptied, _ := reg.create("leaves")
	emptied.removePlayer("leaves")

	reg.reap()

	_, err := reg.get(occupied.id)
	assert.NoError(t, err)

	_, err = reg.get(emptied.id)
	assert.ErrorIs(t, err, errRoomNotFound)
}

func TestReapCancelsTimer(t *testing.T) {
	reg := testRegistry(t)

	rm, _ := reg.create("solo")
	require.NoError(t, rm.startRound(context.Background()))

	rm.removePlayer("solo")
	reg.reap()

	rm.mu.Lock()
	defer rm.mu.Unlock()
	assert.Nil(t, rm.ticker)
}
