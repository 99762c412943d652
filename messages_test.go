package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientMessage(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    clientMessage
		wantErr bool
	}{
		{
			name: "create room",
			data: `{"type":"CREATE_ROOM"}`,
			want: clientMessage{Type: "CREATE_ROOM"},
		},
		{
			name: "join room",
			data: `{"type":"JOIN_ROOM","roomId":"abc123"}`,
			want: clientMessage{Type: "JOIN_ROOM", RoomID: "abc123"},
		},
		{
			name: "reconnect",
			data: `{"type":"RECONNECT_TO_ROOM","roomId":"abc123","playerId":"p1"}`,
			want: clientMessage{Type: "RECONNECT_TO_ROOM", RoomID: "abc123", PlayerID: "p1"},
		},
		{
			name: "guess",
			data: `{"type":"MAKE_GUESS","location":{"lat":51.5,"lng":-0.12}}`,
			want: clientMessage{Type: "MAKE_GUESS", Location: &Coordinate{Lat: 51.5, Lng: -0.12}},
		},
		{
			name: "rename",
			data: `{"type":"RENAME_PLAYER","name":"Alice"}`,
			want: clientMessage{Type: "RENAME_PLAYER", Name: "Alice"},
		},
		{
			name:    "not json",
			data:    `{{{`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			data:    `{"type":"LAUNCH_MISSILES"}`,
			wantErr: true,
		},
		{
			name:    "empty type",
			data:    `{"roomId":"abc123"}`,
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := decodeClientMessage([]byte(tc.data))

			if tc.wantErr {
				assert.ErrorIs(t, err, errMalformedMessage)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, msg)
		})
	}
}
