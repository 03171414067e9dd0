package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"

	"github.com/DoyleJ11/grid-tactics-backend/internal/config"
	"github.com/DoyleJ11/grid-tactics-backend/internal/engine"
	"github.com/DoyleJ11/grid-tactics-backend/internal/hub"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
	"github.com/DoyleJ11/grid-tactics-backend/internal/lobby"
	"github.com/DoyleJ11/grid-tactics-backend/internal/metrics"
	"github.com/DoyleJ11/grid-tactics-backend/internal/types"
	msg "github.com/DoyleJ11/grid-tactics-backend/pkg/types"
)

const (
	outboxSize      = 64
	writeTimeout    = 3 * time.Second
	joinTimeout     = 10 * time.Second
	readIdleTimeout = 10 * time.Minute
)

var errNotJoined = errors.New("first message must be JoinRoom")
var errRoomClosed = errors.New("room closed")

type Options struct {
	AllowedOrigins []string
	Rate           config.RateConfig
	Logger         *zap.Logger
}

// Handler upgrades /ws?code=XXXX. The first frame must be a JoinRoom; every later frame
// is an intent for that room.
func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		reply := make(chan *lobby.Lobby, 1)
		h.Inbox() <- hub.GetLobby{Code: code, Reply: reply}
		lb := <-reply
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, acceptOptions(opts.AllowedOrigins))
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")
		metrics.ConnectionOpened()
		defer metrics.ConnectionClosed()

		clientID := uuid.NewString()
		log := log.With(zap.String("room", code), zap.String("player", clientID))

		out := make(chan types.ServerMessage, outboxSize)
		if err := join(r.Context(), conn, lb, clientID, out); err != nil {
			log.Debug("join refused", zap.Error(err))
			writeJSON(r.Context(), conn, types.ServerMessage{Type: msg.Error, Error: err.Error()})
			conn.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}
		defer post(lb, lobby.Leave{ClientID: clientID})
		log.Info("client connected")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for m := range out {
				writeJSON(writeCtx, conn, m)
			}
			// the room dropped us (kicked, too slow, or closed)
			conn.Close(websocket.StatusNormalClosure, "room closed")
		}()

		limiter := rate.NewLimiter(rate.Limit(opts.Rate.IntentsPerSecond), opts.Rate.Burst)

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readIdleTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read failed", zap.Error(err))
				}
				// lobby.Leave in defer
				return
			}

			if !limiter.Allow() {
				metrics.IntentRejected("rate_limited")
				writeJSON(r.Context(), conn, types.ServerMessage{Type: msg.Error, Error: "too many messages"})
				continue
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeJSON(r.Context(), conn, types.ServerMessage{Type: msg.Error, Error: "bad json"})
				continue
			}

			if cmd, ok := toEngineCommand(cm); ok {
				post(lb, lobby.FromClient{ClientID: clientID, Cmd: cmd})
				continue
			}
			if isRosterMessage(cm.Type) {
				post(lb, lobby.Roster{ClientID: clientID, Msg: cm})
				continue
			}
			writeJSON(r.Context(), conn, types.ServerMessage{Type: msg.Error, Error: "unknown type"})
		}
	}
}

// join waits for the JoinRoom frame and registers the connection with the room.
func join(ctx context.Context, conn *websocket.Conn, lb *lobby.Lobby, clientID string, out chan types.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, joinTimeout)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil || cm.Type != msg.JoinRoom {
		return errNotJoined
	}

	reply := make(chan error, 1)
	select {
	case lb.Inbox() <- lobby.Join{ClientID: clientID, Name: cm.Name, Outbox: out, Reply: reply}:
	case <-lb.Done():
		return errRoomClosed
	}
	select {
	case err := <-reply:
		return err
	case <-lb.Done():
		return errRoomClosed
	}
}

// post gives up once the room has closed.
func post(lb *lobby.Lobby, m lobby.Msg) {
	select {
	case lb.Inbox() <- m:
	case <-lb.Done():
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, m types.ServerMessage) {
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}

func acceptOptions(origins []string) *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{}
	if len(origins) == 0 {
		opts.InsecureSkipVerify = true
		return opts
	}
	for _, o := range origins {
		if o == "*" {
			opts.InsecureSkipVerify = true
			return opts
		}
		host := strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		opts.OriginPatterns = append(opts.OriginPatterns, host)
	}
	return opts
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case msg.MovePlayer, msg.UseDoor, msg.BreakWall:
		if m.Position == nil {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CommandType(m.Type), Destination: *m.Position}, true
	case msg.StartCombat:
		if m.TargetID == "" {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdStartCombat, TargetID: m.TargetID}, true
	case msg.DropItem:
		return engine.Command{Type: engine.CmdDropItem, Item: items.Kind(m.Item)}, true
	case msg.Attack, msg.Escape, msg.ForfeitCombat, msg.NextTurn, msg.PickupItem, msg.ToggleDebug, msg.LeaveGame:
		return engine.Command{Type: engine.CommandType(m.Type)}, true
	default:
		return engine.Command{}, false
	}
}

func isRosterMessage(t string) bool {
	switch t {
	case msg.AddBot, msg.KickPlayer, msg.LockRoom, msg.ChampionSelected, msg.SubmitChampSelect, msg.StartGame:
		return true
	}
	return false
}
