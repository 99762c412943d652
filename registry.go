/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"sync"
	"time"
)

// roomRegistry holds every live room, keyed by room ID. One instance is
// owned by the game registration and handed to each websocket session, so
// tests can run against an isolated registry.
type roomRegistry struct {
	cfg    *roomConfig
	finder panoramaFinder

	// tickEvery is one countdown unit. Production uses a second; tests
	// shrink it so rounds complete in milliseconds.
	tickEvery time.Duration

	mu    sync.Mutex
	rooms map[string]*room
}

// roomConfig is the slice of Config the rooms care about.
type roomConfig struct {
	maxRounds        int
	roundSeconds     int
	scoreScale       int
	playerTimeout    time.Duration
	streetviewRadius int
	locationRetries  int
}

func newRoomConfig(cfg *Config) *roomConfig {
	return &roomConfig{
		maxRounds:        cfg.maxRounds,
		roundSeconds:     cfg.roundSeconds,
		scoreScale:       cfg.scoreScale,
		playerTimeout:    cfg.playerTimeout,
		streetviewRadius: cfg.streetviewRadius,
		locationRetries:  cfg.locationRetries,
	}
}

func newRoomRegistry(cfg *roomConfig, finder panoramaFinder) *roomRegistry {
	return &roomRegistry{
		cfg:       cfg,
		finder:    finder,
		tickEvery: time.Second,
		rooms:     make(map[string]*room),
	}
}

// create constructs a room containing only its creator, who always starts
// as host, and returns the creator's initial snapshot.
func (reg *roomRegistry) create(playerID string) (*room, gameState) {
	roomID := reg.newRoomID()
	rm := newRoom(reg, roomID)

	rm.players = append(rm.players, &player{
		ID:        playerID,
		IsHost:    true,
		Connected: true,
	})

	reg.mu.Lock()
	reg.rooms[roomID] = rm
	reg.mu.Unlock()

	rm.mu.Lock()
	state := rm.snapshotLocked()
	rm.mu.Unlock()

	return rm, state
}

func (reg *roomRegistry) get(roomID string) (*room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[roomID]
	if !ok {
		return nil, errRoomNotFound
	}
	return rm, nil
}

// newRoomID generates a crypto-random 6-char lowercase alphanumeric room ID
// and ensures it doesn't collide with an existing room.
func (reg *roomRegistry) newRoomID() string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 6)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		reg.mu.Lock()
		_, exists := reg.rooms[id]
		reg.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes every empty room, cancelling its timer first so an orphaned
// tick can never fire against a removed room. It runs inline after each
// disconnect removal; room counts are small enough that a scheduled sweep
// isn't worth the moving parts.
func (reg *roomRegistry) reap() {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for id, rm := range reg.rooms {
		rm.mu.Lock()
		empty := len(rm.players) == 0
		if empty {
			rm.stopTimerLocked()
		}
		rm.mu.Unlock()

		if empty {
			delete(reg.rooms, id)
		}
	}
}

// removeLater waits for the grace period, and if the player has not
// reattached in the meantime, removes them and reaps the room if it is now
// empty.
func (reg *roomRegistry) removeLater(rm *room, playerID string, d time.Duration) {
	time.AfterFunc(d, func() {
		rm.mu.Lock()
		if rm.sessionForLocked(playerID) != nil {
			rm.mu.Unlock()
			return
		}
		rm.mu.Unlock()

		rm.removePlayer(playerID)
		reg.reap()
	})
}
