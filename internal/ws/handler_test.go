package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/grid-tactics-backend/internal/config"
	"github.com/DoyleJ11/grid-tactics-backend/internal/engine"
	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/hub"
	"github.com/DoyleJ11/grid-tactics-backend/internal/store"
	"github.com/DoyleJ11/grid-tactics-backend/internal/types"
	msg "github.com/DoyleJ11/grid-tactics-backend/pkg/types"
)

func TestToEngineCommand(t *testing.T) {
	pos := &grid.Coordinate{X: 2, Y: 3}
	tests := []struct {
		name string
		in   types.ClientMessage
		want engine.Command
		ok   bool
	}{
		{"move", types.ClientMessage{Type: msg.MovePlayer, Position: pos}, engine.Command{Type: engine.CmdMovePlayer, Destination: *pos}, true},
		{"move without position", types.ClientMessage{Type: msg.MovePlayer}, engine.Command{}, false},
		{"door", types.ClientMessage{Type: msg.UseDoor, Position: pos}, engine.Command{Type: engine.CmdUseDoor, Destination: *pos}, true},
		{"combat", types.ClientMessage{Type: msg.StartCombat, TargetID: "b"}, engine.Command{Type: engine.CmdStartCombat, TargetID: "b"}, true},
		{"combat without target", types.ClientMessage{Type: msg.StartCombat}, engine.Command{}, false},
		{"drop", types.ClientMessage{Type: msg.DropItem, Item: "Armor"}, engine.Command{Type: engine.CmdDropItem, Item: "Armor"}, true},
		{"escape", types.ClientMessage{Type: msg.Escape}, engine.Command{Type: engine.CmdEscape}, true},
		{"roster message", types.ClientMessage{Type: msg.AddBot}, engine.Command{}, false},
		{"server only", types.ClientMessage{Type: string(engine.CmdTurnTimeout)}, engine.Command{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toEngineCommand(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, isRosterMessage(msg.StartGame))
	assert.False(t, isRosterMessage(msg.MovePlayer))
}

func TestAcceptOptions(t *testing.T) {
	opts := acceptOptions([]string{"http://localhost:5173", "https://game.example.com"})
	assert.Equal(t, []string{"localhost:5173", "game.example.com"}, opts.OriginPatterns)
	assert.True(t, acceptOptions([]string{"*"}).InsecureSkipVerify)
	assert.True(t, acceptOptions(nil).InsecureSkipVerify, "no configured origins allows any")
}

func setup(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, hub.Options{Rooms: config.DefaultRooms(), Timing: config.DefaultTiming()})

	reply := make(chan hub.Created, 1)
	h.Inbox() <- hub.CreateLobby{Map: store.BuiltinMaps()[0], Reply: reply}
	created := <-reply
	require.NoError(t, created.Err)

	srv := httptest.NewServer(Handler(h, Options{Rate: config.DefaultRate()}))
	t.Cleanup(srv.Close)
	return srv, created.Lobby.Code()
}

func dial(t *testing.T, srv *httptest.Server, code string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?code=" + code
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// readType reads frames until one of the given type arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for {
		var m map[string]any
		require.NoError(t, wsjson.Read(ctx, conn, &m))
		if m["type"] == typ {
			return m
		}
	}
}

func TestHandler_JoinThenIntents(t *testing.T) {
	srv, code := setup(t)
	conn := dial(t, srv, code)
	ctx := context.Background()

	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: msg.JoinRoom, Name: "Ada"}))
	joined := readType(t, conn, msg.Joined)
	payload := joined["payload"].(map[string]any)
	assert.NotEmpty(t, payload["playerId"])

	// a game intent before the game starts is refused by the room
	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: msg.NextTurn}))
	assert.Equal(t, "no game in progress", readType(t, conn, msg.Error)["error"])

	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: "Dance"}))
	assert.Equal(t, "unknown type", readType(t, conn, msg.Error)["error"])
}

func TestHandler_FirstFrameMustJoin(t *testing.T) {
	srv, code := setup(t)
	conn := dial(t, srv, code)

	require.NoError(t, wsjson.Write(context.Background(), conn, types.ClientMessage{Type: msg.NextTurn}))
	assert.Equal(t, errNotJoined.Error(), readType(t, conn, msg.Error)["error"])
}

func TestHandler_UnknownRoom(t *testing.T) {
	srv, _ := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?code=0000x", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 404, resp.StatusCode)
}
