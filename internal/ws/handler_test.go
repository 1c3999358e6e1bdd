package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/kraken-backend/internal/engine"
	"github.com/DoyleJ11/kraken-backend/internal/hub"
	"github.com/DoyleJ11/kraken-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, opts Options) (*httptest.Server, *hub.Hub) {
	t.Helper()
	h := hub.NewHub(context.Background(), hub.Options{})
	t.Cleanup(h.Shutdown)
	_, err := h.Ensure(context.Background(), "ABC123", engine.NewEmptyState("", engine.DefaultRules))
	require.NoError(t, err)
	srv := httptest.NewServer(Handler(h, opts))
	t.Cleanup(srv.Close)
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func write(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, payload))
}

func TestHandler_SnapshotThenActions(t *testing.T) {
	srv, _ := newServer(t, Options{})
	conn := dial(t, srv, "code=abc123&playerId=p1")

	first := read(t, conn)
	assert.Equal(t, "STATE_UPDATE", first.Type)
	assert.Equal(t, "p1", first.You)
	require.NotNil(t, first.State)

	write(t, conn, types.ClientMessage{Type: "CREATE_LOBBY", Name: "Anne"})
	next := read(t, conn)
	assert.Equal(t, 1, next.Version)
	require.Len(t, next.State.Players, 1)
	assert.Equal(t, "Anne", next.State.Players[0].Name)

	write(t, conn, types.ClientMessage{Type: "START_GAME"})
	rejected := read(t, conn)
	assert.Equal(t, "ERROR", rejected.Type)
	assert.Equal(t, "BelowMinimumPlayers|min:5|count:1", rejected.Message)
}

func TestHandler_RejectsUnknownAndSystemTypes(t *testing.T) {
	srv, _ := newServer(t, Options{})
	conn := dial(t, srv, "code=ABC123")
	read(t, conn)

	write(t, conn, types.ClientMessage{Type: "RITUAL_DEADLINE"})
	msg := read(t, conn)
	assert.Equal(t, "ERROR", msg.Type)
	assert.Equal(t, "UnsupportedCommand|type:RITUAL_DEADLINE", msg.Message)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("{not json")))
	assert.Equal(t, "BadMessage", read(t, conn).Message)
}

func TestHandler_RateLimit(t *testing.T) {
	srv, _ := newServer(t, Options{RateLimit: 0.001, RateBurst: 1})
	conn := dial(t, srv, "code=ABC123&playerId=p1")
	read(t, conn)

	write(t, conn, types.ClientMessage{Type: types.Ping})
	write(t, conn, types.ClientMessage{Type: "CREATE_LOBBY"})
	assert.Equal(t, "RateLimited", read(t, conn).Message)
}

func TestHandler_FirstConnectionCreatesLobby(t *testing.T) {
	srv, h := newServer(t, Options{Rules: engine.Rules{ConversionSeconds: 45, GunsStashSeconds: 30, CultCabinSearchSeconds: 30, GunsPerStash: 3}})
	conn := dial(t, srv, "code=new999&playerId=p1")

	first := read(t, conn)
	require.NotNil(t, first.State)
	assert.Equal(t, "NEW999", first.State.Code)
	assert.False(t, first.State.Created)
	assert.Equal(t, 45, first.State.Rules.ConversionSeconds)

	lb, err := h.Get(context.Background(), "NEW999")
	require.NoError(t, err)
	assert.NotNil(t, lb)
}

func TestHandler_InvalidCode(t *testing.T) {
	srv, _ := newServer(t, Options{})
	for _, code := range []string{"", "ABC", "ABC-12", "ABCDEFG"} {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/?code="+code, nil)
		cancel()
		require.Error(t, err, code)
		require.NotNil(t, resp, code)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, code)
	}
}

func TestToEngineCommand(t *testing.T) {
	cases := []struct {
		name string
		in   types.ClientMessage
		want engine.Command
		ok   bool
	}{
		{
			name: "claim carries position in role",
			in:   types.ClientMessage{Type: "CLAIM_CULT_CABIN_SEARCH_ROLE", Role: "CAPTAIN"},
			want: engine.Command{Type: engine.CmdClaimCultCabinSearch, Role: "CAPTAIN", Position: engine.PositionCaptain},
			ok:   true,
		},
		{
			name: "target response",
			in:   types.ClientMessage{Type: "FLOGGING_CONFIRMATION_RESPONSE", Accept: true},
			want: engine.Command{Type: engine.CmdFloggingResponse, Accept: true},
			ok:   true,
		},
		{
			name: "system command is not accepted from clients",
			in:   types.ClientMessage{Type: "CONNECTION_LOST"},
		},
		{
			name: "unknown",
			in:   types.ClientMessage{Type: "HOIST_SAILS"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toEngineCommand(tc.in)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, got)
			}
		})
	}
}
