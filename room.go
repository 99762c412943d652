// Geoparty Room Coordinator
//
// Each room holds the authoritative state for one game: a small group of
// players guessing where in the world a server-chosen coordinate is.
//
// Features:
// - WebSocket protocol with JSON messages (CREATE_ROOM, JOIN_ROOM, ...)
// - Random 6-char room IDs via crypto/rand, with server-side collision check
// - First player to create or re-found a room becomes host
// - Host reassigned to the longest-standing remaining player on disconnect
// - Fixed number of rounds, each with a 60-second countdown
// - Round ends early once every player has guessed
// - Logarithmic distance scoring, zero points beyond 1000 miles
// - Round locations drawn from a fixed set of regions and optionally
//   validated against Street View imagery metadata
// - Full-state snapshot broadcast to the room on every change
// - Empty rooms reaped immediately after the last player leaves
// - Optional reconnect grace period so a page reload can rejoin as the
//   same player
// - In-browser QR button to share the current room, backed by go-qrcode

package main

import (
	"context"
	"sync"
	"time"
)

// player holds the data we store server-side for one participant. Entries
// keep their insertion order, which decides host succession.
type player struct {
	ID         string
	Name       string
	Score      int
	TotalScore int
	HasGuessed bool
	IsHost     bool
	Connected  bool
}

// roundTimer is the cancellation handle for one round's countdown goroutine.
// The room compares handles before acting on a tick, so a timer that was
// replaced or cancelled can never touch a newer round's state.
type roundTimer struct {
	stop chan struct{}
}

type room struct {
	id  string
	reg *roomRegistry

	mu sync.Mutex

	sessions map[*session]bool
	players  []*player

	isRoundActive   bool
	gameStarted     bool
	isGameOver      bool
	roundNumber     int
	timer           int
	currentLocation *Coordinate

	ticker *roundTimer

	maxRounds    int
	roundSeconds int
	scoreScale   int
	tickEvery    time.Duration
}

func newRoom(reg *roomRegistry, roomID string) *room {
	return &room{
		id:           roomID,
		reg:          reg,
		sessions:     make(map[*session]bool),
		players:      make([]*player, 0, 8),
		maxRounds:    reg.cfg.maxRounds,
		roundSeconds: reg.cfg.roundSeconds,
		scoreScale:   reg.cfg.scoreScale,
		tickEvery:    reg.tickEvery,
	}
}

func (r *room) findPlayerLocked(playerID string) *player {
	for _, p := range r.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (r *room) sessionForLocked(playerID string) *session {
	for sess := range r.sessions {
		if sess.playerID == playerID {
			return sess
		}
	}
	return nil
}

func (r *room) allGuessedLocked() bool {
	for _, p := range r.players {
		if !p.HasGuessed {
			return false
		}
	}
	return len(r.players) > 0
}

// ensureHostLocked promotes the longest-standing player if nobody holds the
// host flag, keeping exactly one host in any non-empty room.
func (r *room) ensureHostLocked() {
	for _, p := range r.players {
		if p.IsHost {
			return
		}
	}
	if len(r.players) > 0 {
		r.players[0].IsHost = true
	}
}

func (r *room) snapshotLocked() gameState {
	players := make([]playerState, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, playerState{
			ID:         p.ID,
			Name:       p.Name,
			Score:      p.Score,
			TotalScore: p.TotalScore,
			HasGuessed: p.HasGuessed,
			IsHost:     p.IsHost,
			Connected:  p.Connected,
		})
	}

	return gameState{
		RoomID:          r.id,
		IsRoundActive:   r.isRoundActive,
		GameStarted:     r.gameStarted,
		IsGameOver:      r.isGameOver,
		RoundNumber:     r.roundNumber,
		MaxRounds:       r.maxRounds,
		Timer:           r.timer,
		CurrentLocation: r.currentLocation,
		Players:         players,
	}
}

// broadcastLocked fans the current snapshot out to every connected session.
// Sends are non-blocking; a client whose buffer is full is dropped rather
// than allowed to stall the room.
func (r *room) broadcastLocked() {
	msg := gameStateUpdateMessage{
		Type:      "GAME_STATE_UPDATE",
		GameState: r.snapshotLocked(),
	}

	for sess := range r.sessions {
		select {
		case sess.send <- msg:
		default:
			// A client that cannot drain its buffer is cut loose. Closing
			// the transport lets its read loop run the usual teardown, so
			// the send channel is only ever closed there.
			delete(r.sessions, sess)
			if sess.conn != nil {
				_ = sess.conn.Close()
			}
		}
	}
}

func (r *room) broadcast() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.broadcastLocked()
}

func (r *room) attach(sess *session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[sess] = true
}

// detach unbinds a session from the room and closes its send channel. Runs
// exactly once per session, from the read loop's teardown.
func (r *room) detach(sess *session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, sess)
	close(sess.send)
}

// join inserts a player, or resets an existing entry in place when the same
// ID joins again. The newcomer becomes host iff the room held no players at
// the moment of insertion, which covers re-founding a room whose previous
// occupants all left. The caller broadcasts after sending its own reply.
func (r *room) join(playerID string) (bool, gameState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	isEmpty := len(r.players) == 0

	p := r.findPlayerLocked(playerID)
	if p != nil {
		*p = player{ID: playerID, IsHost: p.IsHost, Connected: true}
	} else {
		p = &player{ID: playerID, IsHost: isEmpty, Connected: true}
		r.players = append(r.players, p)
	}
	r.ensureHostLocked()

	return p.IsHost, r.snapshotLocked()
}

// reattach restores a client's view of the room without mutating game state,
// beyond flagging the player as connected again when a grace period kept
// them around. The session is registered under the same lock so a pending
// grace-period removal cannot fire between the two steps.
func (r *room) reattach(sess *session, playerID string) (gameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.findPlayerLocked(playerID)
	if p == nil {
		return gameState{}, errReconnectFailed
	}
	p.Connected = true
	r.sessions[sess] = true

	return r.snapshotLocked(), nil
}

func (r *room) rename(playerID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.findPlayerLocked(playerID)
	if p == nil {
		return
	}
	p.Name = name

	r.broadcastLocked()
}

// guess scores a player's submission against the round's secret location.
// A second guess in the same round, or a guess outside an active round, is
// silently ignored. Once the last player has guessed the round ends without
// waiting for the next tick.
func (r *room) guess(playerID string, location Coordinate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRoundActive || r.currentLocation == nil {
		return
	}

	p := r.findPlayerLocked(playerID)
	if p == nil || p.HasGuessed {
		return
	}

	roundScore := calculateScore(*r.currentLocation, location, r.scoreScale)
	p.Score = roundScore
	p.TotalScore += roundScore
	p.HasGuessed = true

	if r.allGuessedLocked() {
		r.stopTimerLocked()
		r.isRoundActive = false
	}

	r.broadcastLocked()
}

// startRound begins the next round, or flags the game over once the round
// counter has reached its limit. The location draw happens before the lock
// is taken so a slow imagery lookup never stalls other room operations.
func (r *room) startRound(ctx context.Context) error {
	r.mu.Lock()
	if r.isRoundActive {
		r.mu.Unlock()
		return nil
	}

	if r.roundNumber >= r.maxRounds {
		r.isGameOver = true
		r.broadcastLocked()
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	location, err := pickLocation(ctx, r.reg.finder, r.reg.cfg.streetviewRadius, r.reg.cfg.locationRetries)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRoundActive || r.isGameOver {
		return nil
	}

	// Recheck the round limit: a concurrent start may have run a whole
	// round while this one was waiting on the location draw.
	if r.roundNumber >= r.maxRounds {
		r.isGameOver = true
		r.broadcastLocked()
		return nil
	}

	r.isRoundActive = true
	r.gameStarted = true
	r.roundNumber++
	r.timer = r.roundSeconds
	r.currentLocation = &location
	for _, p := range r.players {
		p.HasGuessed = false
		p.Score = 0
	}

	r.startTimerLocked()
	r.broadcastLocked()

	return nil
}

func (r *room) startTimerLocked() {
	r.stopTimerLocked()

	rt := &roundTimer{stop: make(chan struct{})}
	r.ticker = rt

	go r.runTimer(rt)
}

func (r *room) stopTimerLocked() {
	if r.ticker != nil {
		close(r.ticker.stop)
		r.ticker = nil
	}
}

func (r *room) runTimer(rt *roundTimer) {
	ticker := time.NewTicker(r.tickEvery)
	defer ticker.Stop()

	for {
		select {
		case <-rt.stop:
			return
		case <-ticker.C:
			if !r.tick(rt) {
				return
			}
		}
	}
}

// tick advances the countdown by one step. It doubles as the per-second
// state-sync heartbeat while the round runs. Returns false once this timer
// no longer owns the round.
func (r *room) tick(rt *roundTimer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ticker != rt {
		return false
	}

	r.timer--

	if r.timer <= 0 || r.allGuessedLocked() {
		r.stopTimerLocked()
		r.isRoundActive = false
		r.broadcastLocked()
		return false
	}

	r.broadcastLocked()
	return true
}

// disconnect handles transport loss for a player. With no grace period
// configured the player is removed on the spot; otherwise removal is
// deferred so a quick reconnect can reclaim the seat.
func (r *room) disconnect(playerID string) {
	if r.reg.cfg.playerTimeout > 0 {
		r.mu.Lock()
		if p := r.findPlayerLocked(playerID); p != nil {
			p.Connected = false
			r.broadcastLocked()
		}
		r.mu.Unlock()

		r.reg.removeLater(r, playerID, r.reg.cfg.playerTimeout)
		return
	}

	r.removePlayer(playerID)
	r.reg.reap()
}

// removePlayer drops a player and reassigns the host flag if they held it.
func (r *room) removePlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dst := r.players[:0]
	changed := false

	for _, p := range r.players {
		if p.ID == playerID {
			changed = true
			continue
		}
		dst = append(dst, p)
	}
	r.players = dst

	if !changed {
		return
	}

	if len(r.players) > 0 {
		r.ensureHostLocked()
		r.broadcastLocked()
	}
}
