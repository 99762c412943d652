package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &Config{
		maxRounds:        5,
		roundSeconds:     60,
		scoreScale:       1000,
		streetviewRadius: 50000,
		locationRetries:  50,
	}

	mux := httprouter.New()
	registerGeoGame(cfg, "/geo", mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func dialGeo(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/geo/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func readType(t *testing.T, conn *websocket.Conn, msgType string) map[string]any {
	t.Helper()

	msg := readEnvelope(t, conn)
	require.Equal(t, msgType, msg["type"], "unexpected message %v", msg)

	return msg
}

func TestWebSocketCreateAndJoin(t *testing.T) {
	srv := testServer(t)

	host := dialGeo(t, srv)
	require.NoError(t, host.WriteJSON(map[string]any{"type": "CREATE_ROOM"}))

	created := readType(t, host, "ROOM_CREATED")
	roomID, _ := created["roomId"].(string)
	assert.Regexp(t, `^[a-z0-9]{6}$`, roomID)
	assert.Equal(t, true, created["isHost"])
	assert.NotEmpty(t, created["playerId"])

	guest := dialGeo(t, srv)
	require.NoError(t, guest.WriteJSON(map[string]any{"type": "JOIN_ROOM", "roomId": roomID}))

	joined := readType(t, guest, "JOINED_ROOM")
	assert.Equal(t, false, joined["isHost"])

	// The join is broadcast to everyone already in the room.
	update := readType(t, host, "GAME_STATE_UPDATE")
	state, ok := update["gameState"].(map[string]any)
	require.True(t, ok)
	players, ok := state["players"].([]any)
	require.True(t, ok)
	assert.Len(t, players, 2)
}

func TestWebSocketJoinInvalidRoomID(t *testing.T) {
	srv := testServer(t)

	conn := dialGeo(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "JOIN_ROOM", "roomId": "AB12!"}))

	msg := readType(t, conn, "ERROR")
	assert.Equal(t, "Invalid room ID format", msg["message"])
}

func TestWebSocketJoinMissingRoom(t *testing.T) {
	srv := testServer(t)

	conn := dialGeo(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "JOIN_ROOM", "roomId": "zzzzzz"}))

	msg := readType(t, conn, "ERROR")
	assert.Equal(t, "Room not found", msg["message"])
}

func TestWebSocketMalformedMessage(t *testing.T) {
	srv := testServer(t)

	conn := dialGeo(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	msg := readType(t, conn, "ERROR")
	assert.Equal(t, "Invalid message format", msg["message"])

	// The connection survives and still accepts valid traffic.
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "CREATE_ROOM"}))
	readType(t, conn, "ROOM_CREATED")
}

func TestWebSocketRename(t *testing.T) {
	srv := testServer(t)

	conn := dialGeo(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "CREATE_ROOM"}))
	readType(t, conn, "ROOM_CREATED")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "RENAME_PLAYER", "name": "no!good!"}))
	msg := readType(t, conn, "ERROR")
	assert.Equal(t, "Invalid name format", msg["message"])

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "RENAME_PLAYER", "name": "Alice"}))
	update := readType(t, conn, "GAME_STATE_UPDATE")
	state := update["gameState"].(map[string]any)
	players := state["players"].([]any)
	first := players[0].(map[string]any)
	assert.Equal(t, "Alice", first["name"])
}

func TestWebSocketStartGame(t *testing.T) {
	srv := testServer(t)

	conn := dialGeo(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "CREATE_ROOM"}))
	readType(t, conn, "ROOM_CREATED")

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "START_GAME"}))

	update := readType(t, conn, "GAME_STATE_UPDATE")
	state := update["gameState"].(map[string]any)
	assert.Equal(t, true, state["isRoundActive"])
	assert.Equal(t, float64(1), state["roundNumber"])
	assert.Equal(t, float64(60), state["timer"])
	assert.Contains(t, state, "currentLocation")
}

func TestWebSocketReconnect(t *testing.T) {
	srv := testServer(t)

	conn := dialGeo(t, srv)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "CREATE_ROOM"}))
	created := readType(t, conn, "ROOM_CREATED")
	roomID := created["roomId"].(string)
	playerID := created["playerId"].(string)

	// A second transport presenting the stored identifiers reattaches
	// while the first never dropped.
	second := dialGeo(t, srv)
	require.NoError(t, second.WriteJSON(map[string]any{
		"type":     "RECONNECT_TO_ROOM",
		"roomId":   roomID,
		"playerId": playerID,
	}))

	msg := readType(t, second, "RECONNECTED")
	state := msg["gameState"].(map[string]any)
	assert.Equal(t, roomID, state["roomId"])

	// Unknown identifiers fail and require a fresh join.
	third := dialGeo(t, srv)
	require.NoError(t, third.WriteJSON(map[string]any{
		"type":     "RECONNECT_TO_ROOM",
		"roomId":   roomID,
		"playerId": "nobody",
	}))

	errMsg := readType(t, third, "ERROR")
	assert.Equal(t, "Room or player not found", errMsg["message"])
}

func TestGamePageBehindPrefix(t *testing.T) {
	cfg := &Config{
		prefix:           "/app",
		maxRounds:        5,
		roundSeconds:     60,
		scoreScale:       1000,
		streetviewRadius: 50000,
		locationRetries:  50,
	}

	mux := httprouter.New()
	registerGeoGame(cfg, "/geo", mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/app/geo")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Asset references stay relative so the page works under any prefix.
	page := string(body)
	assert.NotContains(t, page, `href="/`)
	assert.NotContains(t, page, `src="/`)

	for _, path := range []string{"/app/assets/geo/app.css", "/app/assets/geo/app.js"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
