/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var (
	roomIDPattern = regexp.MustCompile(`^[a-z0-9]{6}$`)
	namePattern   = regexp.MustCompile(`^[a-zA-Z0-9 ]{1,20}$`)
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// session binds one live websocket connection to a player and a room. It
// owns neither: the room and player survive the session, so a later session
// can reattach via the stored identifiers.
type session struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
	room     *room
}

// trySend queues a direct reply without ever blocking the read loop. A
// client that cannot drain its own error replies just misses them.
func (s *session) trySend(msg any) {
	select {
	case s.send <- msg:
	default:
	}
}

func (s *session) writePump() {
	defer s.conn.Close()

	for msg := range s.send {
		if err := s.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (s *session) readPump(cfg *Config, reg *roomRegistry) {
	defer func() {
		_ = s.conn.Close()

		if s.room != nil {
			s.room.detach(s)
			if s.playerID != "" {
				s.room.disconnect(s.playerID)
				logf(cfg, "GAMES: Player %s left room %s", s.playerID, s.room.id)
			}
		} else {
			close(s.send)
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		msg, err := decodeClientMessage(data)
		if err != nil {
			s.trySend(newErrorMessage(errMalformedMessage))
			continue
		}

		switch msg.Type {
		case msgCreateRoom:
			s.handleCreateRoom(cfg, reg)
		case msgJoinRoom:
			s.handleJoinRoom(cfg, reg, msg)
		case msgReconnect:
			s.handleReconnect(cfg, reg, msg)
		case msgStartGame:
			s.handleStartGame(cfg)
		case msgMakeGuess:
			s.handleMakeGuess(msg)
		case msgRenamePlayer:
			s.handleRename(msg)
		}
	}
}

func (s *session) handleCreateRoom(cfg *Config, reg *roomRegistry) {
	if s.room != nil {
		return
	}

	s.playerID = uuid.NewString()
	rm, state := reg.create(s.playerID)
	s.room = rm
	rm.attach(s)

	logf(cfg, "GAMES: Created room %s with host %s", rm.id, s.playerID)

	s.trySend(roomCreatedMessage{
		Type:      "ROOM_CREATED",
		RoomID:    rm.id,
		PlayerID:  s.playerID,
		IsHost:    true,
		GameState: state,
	})
}

func (s *session) handleJoinRoom(cfg *Config, reg *roomRegistry, msg clientMessage) {
	if s.room != nil {
		return
	}

	if !roomIDPattern.MatchString(msg.RoomID) {
		s.trySend(newErrorMessage(errInvalidRoomID))
		return
	}

	rm, err := reg.get(msg.RoomID)
	if err != nil {
		s.trySend(newErrorMessage(err))
		return
	}

	s.playerID = uuid.NewString()
	s.room = rm
	rm.attach(s)

	isHost, state := rm.join(s.playerID)

	logf(cfg, "GAMES: Player %s joined room %s (host: %t)", s.playerID, rm.id, isHost)

	s.trySend(joinedRoomMessage{
		Type:      "JOINED_ROOM",
		PlayerID:  s.playerID,
		IsHost:    isHost,
		GameState: state,
	})

	rm.broadcast()
}

func (s *session) handleReconnect(cfg *Config, reg *roomRegistry, msg clientMessage) {
	if s.room != nil || msg.PlayerID == "" {
		return
	}

	rm, err := reg.get(msg.RoomID)
	if err != nil {
		s.trySend(newErrorMessage(errReconnectFailed))
		return
	}

	s.playerID = msg.PlayerID

	state, err := rm.reattach(s, msg.PlayerID)
	if err != nil {
		s.playerID = ""
		s.trySend(newErrorMessage(err))
		return
	}

	s.room = rm

	logf(cfg, "GAMES: Player %s reconnected to room %s", s.playerID, rm.id)

	s.trySend(reconnectedMessage{
		Type:      "RECONNECTED",
		GameState: state,
	})
}

func (s *session) handleStartGame(cfg *Config) {
	if s.room == nil {
		return
	}

	if err := s.room.startRound(context.Background()); err != nil {
		if errors.Is(err, errNoLocationFound) {
			logf(cfg, "GAMES: Room %s is unplayable, no location found", s.room.id)
		} else {
			logf(cfg, "GAMES: Location lookup failed for room %s: %v", s.room.id, err)
		}
		s.trySend(newErrorMessage(errNoLocationFound))
	}
}

func (s *session) handleMakeGuess(msg clientMessage) {
	if s.room == nil || msg.Location == nil {
		return
	}

	s.room.guess(s.playerID, *msg.Location)
}

func (s *session) handleRename(msg clientMessage) {
	if !namePattern.MatchString(msg.Name) {
		s.trySend(newErrorMessage(errInvalidName))
		return
	}

	if s.room == nil {
		return
	}

	s.room.rename(s.playerID, msg.Name)
}

// serveWSForRegistry upgrades the connection and runs the session pumps
// against the given registry.
func serveWSForRegistry(cfg *Config, reg *roomRegistry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		sess := &session{
			conn: conn,
			send: make(chan any, 8),
		}

		go sess.writePump()
		sess.readPump(cfg, reg)
	}
}

// qrHandler generates a PNG QR code pointing at the given room.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	roomID := ps.ByName("roomid")
	if !roomIDPattern.MatchString(roomID) {
		http.Error(w, "invalid room id", http.StatusBadRequest)
		return
	}

	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /geo/qr/:roomid; the shareable room URL carries the room ID
	// in the fragment, where the client picks it up on load.
	path := strings.TrimSuffix(r.URL.Path, "/qr/"+roomID)

	url := scheme + "://" + r.Host + path + "#" + roomID

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// registerGeoGame sets up routes so that:
//   - $path           → HTML client (create or join via fragment)
//   - $path/ws        → WebSocket carrying the game protocol
//   - $path/qr/:roomid → PNG QR code for sharing a room
func registerGeoGame(cfg *Config, path string, mux *httprouter.Router) {
	var finder panoramaFinder
	if cfg.streetviewKey != "" {
		finder = newStreetviewClient(cfg.streetviewKey)
	}

	reg := newRoomRegistry(newRoomConfig(cfg), finder)

	mux.GET(cfg.prefix+path, getIndexHandler(cfg))

	mux.GET(cfg.prefix+"/assets/geo/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/geo/app.js", getJsHandler(cfg))

	mux.GET(cfg.prefix+path+"/ws", serveWSForRegistry(cfg, reg))

	mux.GET(cfg.prefix+path+"/qr/:roomid", qrHandler)
}
