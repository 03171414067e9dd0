package lobby

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-backend/internal/config"
	"github.com/DoyleJ11/grid-tactics-backend/internal/countdown"
	"github.com/DoyleJ11/grid-tactics-backend/internal/engine"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
	"github.com/DoyleJ11/grid-tactics-backend/internal/store"
	"github.com/DoyleJ11/grid-tactics-backend/internal/types"
	msg "github.com/DoyleJ11/grid-tactics-backend/pkg/types"
)

var ErrGameStarted = errors.New("game already started")
var ErrRoomLocked = errors.New("room is locked")
var ErrRoomFull = errors.New("room is full")
var ErrNameTaken = errors.New("name already taken")
var ErrNotLeader = errors.New("only the room leader can do that")
var ErrUnknownMember = errors.New("no such player in this room")
var ErrChampionTaken = errors.New("champion already taken")
var ErrNoChampion = errors.New("pick a champion first")
var ErrAlreadySubmitted = errors.New("champion selection already submitted")
var ErrNotReady = errors.New("room must be locked and every player submitted")
var ErrNotEnoughPlayers = errors.New("at least two players are needed")
var ErrUnevenTeams = errors.New("capture the flag needs an even number of players")
var ErrNotInGame = errors.New("no game in progress")
var ErrBadRequest = errors.New("bad request")

type Phase string

const (
	PhaseWaiting Phase = "Waiting"
	PhaseInGame  Phase = "InGame"
	PhaseEnded   Phase = "Ended"
)

type Msg interface{ isLobbyMsg() }

// FromClient carries a game intent. The lobby stamps PlayerID from ClientID.
type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

// Roster carries a pre-game intent (AddBot, KickPlayer, LockRoom, champion select,
// StartGame).
type Roster struct {
	ClientID string
	Msg      types.ClientMessage
}

func (Roster) isLobbyMsg() {}

type Join struct {
	ClientID string
	Name     string
	Outbox   chan types.ServerMessage // where this client wants to receive messages
	Reply    chan error
}

func (Join) isLobbyMsg() {}

// Leave is sent when a connection goes away; in game it forfeits the player's slot.
type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type timerKind int

const (
	turnTimer timerKind = iota
	combatTimer
	botTimer
	idleTimer
)

type timerFired struct {
	kind timerKind
	gen  uint64
}

func (timerFired) isLobbyMsg() {}

type View struct {
	Version         int
	NumClients      int
	Room            types.Room
	Game            *types.Game
	TurnRemaining   time.Duration
	CombatRemaining time.Duration
}

type Options struct {
	Code     string
	Map      store.Map
	Timing   config.TimingConfig
	Clock    countdown.Clock
	Rand     *rand.Rand
	Recorder store.MatchRecorder
	Logger   *zap.Logger
	// OnClose runs on its own goroutine once the room has shut down.
	OnClose func(code string)
}

type Lobby struct {
	inbox   chan Msg
	opts    Options
	log     *zap.Logger
	rng     *rand.Rand
	version int
	clients map[string]chan types.ServerMessage

	phase      Phase
	members    []*types.Member
	locked     bool
	maxPlayers int

	game      *engine.Game
	startedAt time.Time
	turn      *countdown.Countdown
	combat    *countdown.Countdown
	bot       *countdown.Countdown
	botSteps  int
	idle      *countdown.Countdown

	closing bool
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLobby(parent context.Context, opts Options) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	if opts.Clock == nil {
		opts.Clock = countdown.Real()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	l := &Lobby{
		inbox:      make(chan Msg, 64),
		opts:       opts,
		log:        opts.Logger.With(zap.String("room", opts.Code)),
		rng:        opts.Rand,
		clients:    make(map[string]chan types.ServerMessage),
		phase:      PhaseWaiting,
		maxPlayers: MaxPlayersForSize(opts.Map.Grid().Size),
		ctx:        ctx,
		cancel:     cancel,
	}
	l.turn = countdown.New(opts.Clock, func(gen uint64) { l.post(timerFired{kind: turnTimer, gen: gen}) })
	l.combat = countdown.New(opts.Clock, func(gen uint64) { l.post(timerFired{kind: combatTimer, gen: gen}) })
	l.bot = countdown.New(opts.Clock, func(gen uint64) { l.post(timerFired{kind: botTimer, gen: gen}) })
	l.idle = countdown.New(opts.Clock, func(gen uint64) { l.post(timerFired{kind: idleTimer, gen: gen}) })
	l.armIdle()

	go l.loop()
	return l
}

// MaxPlayersForSize is 2 on small maps, 4 on medium and 6 on large ones.
func MaxPlayersForSize(size int) int {
	switch {
	case size <= items.SizeSmall:
		return 2
	case size <= items.SizeMedium:
		return 4
	default:
		return 6
	}
}

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- l.join(msg)

			case Leave:
				l.leave(msg.ClientID)

			case Roster:
				if err := l.handleRoster(msg.ClientID, msg.Msg); err != nil {
					l.reject(msg.ClientID, err)
				}

			case FromClient:
				l.handleGame(msg.ClientID, msg.Cmd)

			case timerFired:
				l.handleTimer(msg)

			case GetState:
				msg.Reply <- l.view()

			case Shutdown:
				l.shutdown()
				return
			}
			if l.closing {
				l.shutdown()
				return
			}
		}
	}
}

// post is used by timer goroutines; it gives up once the room is gone.
func (l *Lobby) post(m Msg) {
	select {
	case l.inbox <- m:
	case <-l.ctx.Done():
	}
}

func (l *Lobby) shutdown() {
	if l.closed {
		return
	}
	l.closed = true
	l.turn.Stop()
	l.combat.Stop()
	l.bot.Stop()
	l.idle.Stop()
	for id, ch := range l.clients {
		close(ch) // Tell client no more messages
		delete(l.clients, id)
	}
	l.cancel()
	l.log.Info("room closed")
	if l.opts.OnClose != nil {
		go l.opts.OnClose(l.opts.Code)
	}
}

// armIdle closes an empty room after RoomIdleTimeout so its code goes back to the hub.
func (l *Lobby) armIdle() {
	if l.opts.Timing.RoomIdleTimeout > 0 {
		l.idle.Start(l.opts.Timing.RoomIdleTimeout)
	}
}

func (l *Lobby) send(clientID string, m types.ServerMessage) {
	ch, ok := l.clients[clientID]
	if !ok {
		return
	}
	select {
	case ch <- m:
	default:
		// Client is slow/full - drop them.
		close(ch)
		delete(l.clients, clientID)
	}
}

func (l *Lobby) broadcast(m types.ServerMessage) {
	for id := range l.clients {
		l.send(id, m)
	}
}

func (l *Lobby) reject(clientID string, err error) {
	l.log.Debug("intent rejected", zap.String("player", clientID), zap.Error(err))
	l.send(clientID, types.ServerMessage{Type: msg.Error, Error: err.Error()})
}

func (l *Lobby) humans() int {
	n := 0
	for _, m := range l.members {
		if !m.IsBot {
			n++
		}
	}
	return n
}

func (l *Lobby) room() types.Room {
	members := make([]types.Member, 0, len(l.members))
	for _, m := range l.members {
		members = append(members, *m)
	}
	return types.Room{
		Code:       l.opts.Code,
		MapID:      l.opts.Map.ID,
		MapName:    l.opts.Map.Name,
		Mode:       l.opts.Map.Mode,
		Phase:      string(l.phase),
		Locked:     l.locked,
		MaxPlayers: l.maxPlayers,
		Members:    members,
	}
}

func (l *Lobby) gameSnapshot() *types.Game {
	if l.game == nil {
		return nil
	}
	return &types.Game{
		ID:              l.game.ID,
		MapID:           l.game.MapID,
		Mode:            l.game.Mode,
		Grid:            l.game.GridView(),
		Players:         l.game.PlayerViews(),
		Items:           l.game.ItemViews(),
		CurrentPlayerID: l.game.CurrentPlayerID(),
		Debug:           l.game.IsDebugModeActive,
	}
}

func (l *Lobby) view() View {
	return View{
		Version:         l.version,
		NumClients:      len(l.clients),
		Room:            l.room(),
		Game:            l.gameSnapshot(),
		TurnRemaining:   l.turn.Remaining(),
		CombatRemaining: l.combat.Remaining(),
	}
}

// Expose the inbox so tests or WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the room has shut down.
func (l *Lobby) Done() <-chan struct{} { return l.ctx.Done() }

func (l *Lobby) Code() string { return l.opts.Code }
