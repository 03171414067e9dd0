package hub

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-backend/internal/config"
	"github.com/DoyleJ11/grid-tactics-backend/internal/countdown"
	"github.com/DoyleJ11/grid-tactics-backend/internal/lobby"
	"github.com/DoyleJ11/grid-tactics-backend/internal/metrics"
	"github.com/DoyleJ11/grid-tactics-backend/internal/store"
)

var ErrNoRoomCodes = errors.New("no free room code")

// randomTries is how many random codes are drawn before falling back to a scan.
const randomTries = 8

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Map   store.Map
	Reply chan Created
}

type Created struct {
	Lobby *lobby.Lobby
	Err   error
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// RemoveLobby frees a code. Rooms send it themselves once they close.
type RemoveLobby struct {
	Code string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Options struct {
	Rooms    config.RoomConfig
	Timing   config.TimingConfig
	Clock    countdown.Clock
	Recorder store.MatchRecorder
	Logger   *zap.Logger
	Rand     *rand.Rand
}

type Hub struct {
	inbox   chan HubMsg
	opts    Options
	log     *zap.Logger
	rng     *rand.Rand
	lobbies map[string]*lobby.Lobby
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, opts Options) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Rooms.CodeLength <= 0 {
		opts.Rooms = config.DefaultRooms()
	}
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		opts:    opts,
		log:     opts.Logger,
		rng:     opts.Rand,
		lobbies: make(map[string]*lobby.Lobby),
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed after ShutdownHub or when the parent context ends.
func (h *Hub) Done() <-chan struct{} { return h.ctx.Done() }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				lb, err := h.create(msg.Map)
				msg.Reply <- Created{Lobby: lb, Err: err}

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case RemoveLobby:
				if _, ok := h.lobbies[msg.Code]; ok {
					delete(h.lobbies, msg.Code)
					metrics.RoomClosed()
					h.log.Info("room code released", zap.String("room", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(mp store.Map) (*lobby.Lobby, error) {
	code, err := h.allocate()
	if err != nil {
		h.log.Warn("room limit reached", zap.Int("rooms", len(h.lobbies)))
		return nil, err
	}
	lb := lobby.NewLobby(h.ctx, lobby.Options{
		Code:     code,
		Map:      mp,
		Timing:   h.opts.Timing,
		Clock:    h.opts.Clock,
		Rand:     rand.New(rand.NewSource(h.rng.Int63())),
		Recorder: h.opts.Recorder,
		Logger:   h.log,
		OnClose:  h.release,
	})
	h.lobbies[code] = lb
	metrics.RoomOpened()
	h.log.Info("room created", zap.String("room", code), zap.String("map", mp.ID))
	return lb, nil
}

// release runs on the closing room's goroutine.
func (h *Hub) release(code string) {
	select {
	case h.inbox <- RemoveLobby{Code: code}:
	case <-h.ctx.Done():
	}
}

// allocate draws a few random codes, then scans the keyspace from a random offset so a
// nearly full hub still finds the last free codes.
func (h *Hub) allocate() (string, error) {
	digits := h.opts.Rooms.CodeLength
	space := 1
	for range digits {
		space *= 10
	}
	if len(h.lobbies) >= min(h.opts.Rooms.MaxRooms, space) {
		return "", ErrNoRoomCodes
	}

	for range randomTries {
		code := fmt.Sprintf("%0*d", digits, h.rng.Intn(space))
		if _, taken := h.lobbies[code]; !taken {
			return code, nil
		}
	}
	start := h.rng.Intn(space)
	for i := range space {
		code := fmt.Sprintf("%0*d", digits, (start+i)%space)
		if _, taken := h.lobbies[code]; !taken {
			return code, nil
		}
	}
	return "", ErrNoRoomCodes
}

func (h *Hub) shutdown() {
	for code, lb := range h.lobbies {
		select {
		case lb.Inbox() <- lobby.Shutdown{}:
		case <-lb.Done():
		}
		metrics.RoomClosed()
		delete(h.lobbies, code)
	}
	h.cancel()
}
