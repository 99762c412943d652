/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
)

// Client message types.
const (
	msgCreateRoom   = "CREATE_ROOM"
	msgJoinRoom     = "JOIN_ROOM"
	msgReconnect    = "RECONNECT_TO_ROOM"
	msgStartGame    = "START_GAME"
	msgMakeGuess    = "MAKE_GUESS"
	msgRenamePlayer = "RENAME_PLAYER"
)

// Messages coming from clients. A single envelope with a type discriminator;
// each type reads only its own fields.
type clientMessage struct {
	Type     string      `json:"type"`
	RoomID   string      `json:"roomId,omitempty"`   // JOIN_ROOM / RECONNECT_TO_ROOM
	PlayerID string      `json:"playerId,omitempty"` // RECONNECT_TO_ROOM
	Name     string      `json:"name,omitempty"`     // RENAME_PLAYER
	Location *Coordinate `json:"location,omitempty"` // MAKE_GUESS
}

// decodeClientMessage parses an inbound frame and rejects anything that is
// not a known message type, so unknown traffic never reaches room state.
func decodeClientMessage(data []byte) (clientMessage, error) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return clientMessage{}, errMalformedMessage
	}

	switch msg.Type {
	case msgCreateRoom, msgJoinRoom, msgReconnect, msgStartGame, msgMakeGuess, msgRenamePlayer:
		return msg, nil
	default:
		return clientMessage{}, errMalformedMessage
	}
}

// playerState is the per-player slice of a snapshot.
type playerState struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Score      int    `json:"score"`
	TotalScore int    `json:"totalScore"`
	HasGuessed bool   `json:"hasGuessed"`
	IsHost     bool   `json:"isHost"`
	Connected  bool   `json:"connected"`
}

// gameState is the full room snapshot broadcast to every client on each
// change. The secret location is only present once a round has started, and
// after the round ends it doubles as the post-round reveal.
type gameState struct {
	RoomID          string        `json:"roomId"`
	IsRoundActive   bool          `json:"isRoundActive"`
	GameStarted     bool          `json:"gameStarted"`
	IsGameOver      bool          `json:"isGameOver"`
	RoundNumber     int           `json:"roundNumber"`
	MaxRounds       int           `json:"maxRounds"`
	Timer           int           `json:"timer"`
	CurrentLocation *Coordinate   `json:"currentLocation,omitempty"`
	Players         []playerState `json:"players"`
}

// RoomCreatedMessage is the reply to CREATE_ROOM, sent only to the creator.
type roomCreatedMessage struct {
	Type      string    `json:"type"` // "ROOM_CREATED"
	RoomID    string    `json:"roomId"`
	PlayerID  string    `json:"playerId"`
	IsHost    bool      `json:"isHost"`
	GameState gameState `json:"gameState"`
}

// JoinedRoomMessage is the reply to JOIN_ROOM, sent only to the joiner;
// everyone else sees the follow-up GAME_STATE_UPDATE.
type joinedRoomMessage struct {
	Type      string    `json:"type"` // "JOINED_ROOM"
	PlayerID  string    `json:"playerId"`
	IsHost    bool      `json:"isHost"`
	GameState gameState `json:"gameState"`
}

// ReconnectedMessage restores a client's view after a successful
// RECONNECT_TO_ROOM without mutating room state.
type reconnectedMessage struct {
	Type      string    `json:"type"` // "RECONNECTED"
	GameState gameState `json:"gameState"`
}

// GameStateUpdateMessage is the broadcast snapshot.
type gameStateUpdateMessage struct {
	Type      string    `json:"type"` // "GAME_STATE_UPDATE"
	GameState gameState `json:"gameState"`
}

// ErrorMessage reports a recoverable failure to the offending client only.
type errorMessage struct {
	Type    string `json:"type"` // "ERROR"
	Message string `json:"message"`
}

func newErrorMessage(err error) errorMessage {
	return errorMessage{
		Type:    "ERROR",
		Message: err.Error(),
	}
}
