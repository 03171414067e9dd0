package lobby

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-backend/internal/bot"
	"github.com/DoyleJ11/grid-tactics-backend/internal/engine"
	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/metrics"
	"github.com/DoyleJ11/grid-tactics-backend/internal/store"
	"github.com/DoyleJ11/grid-tactics-backend/internal/types"
	msg "github.com/DoyleJ11/grid-tactics-backend/pkg/types"
)

// maxBotSteps bounds the commands a bot issues in one turn. Zero-cost ice lets a bot
// shuffle forever otherwise.
const maxBotSteps = 30

const recordTimeout = 5 * time.Second

func (l *Lobby) startGame(self *types.Member) error {
	if !self.IsLeader {
		return ErrNotLeader
	}
	if err := l.canStart(); err != nil {
		return err
	}

	g, err := engine.NewGame(engine.GameParams{
		ID:      uuid.NewString(),
		MapID:   l.opts.Map.ID,
		MapName: l.opts.Map.Name,
		Mode:    l.opts.Map.Mode,
		Grid:    l.opts.Map.Grid(),
		Items:   l.opts.Map.Items,
		Players: l.playerInfos(),
	}, l.rng)
	if err != nil {
		l.log.Error("could not create game", zap.Error(err))
		return err
	}

	l.game = g
	l.phase = PhaseInGame
	l.startedAt = l.opts.Clock.Now()
	l.version++
	metrics.GameStarted(string(g.Mode))
	l.log.Info("game started", zap.String("game", g.ID), zap.Int("players", len(g.Players)))

	events := g.Start()
	l.broadcastRoom()
	l.broadcast(types.ServerMessage{Type: msg.GameStarted, Payload: l.gameSnapshot()})
	l.dispatch(events)
	l.afterApply(events)
	return nil
}

func (l *Lobby) handleGame(clientID string, cmd engine.Command) {
	if cmd.Type == engine.CmdLeaveGame {
		l.leave(clientID)
		return
	}
	if l.phase != PhaseInGame {
		l.reject(clientID, ErrNotInGame)
		return
	}
	switch cmd.Type {
	case engine.CmdTurnTimeout, engine.CmdCombatTimeout:
		l.reject(clientID, ErrBadRequest)
		return
	}
	cmd.PlayerID = clientID
	l.apply(cmd, clientID)
}

// apply runs cmd through the engine. Rejections go back to replyTo only; bots and
// timers pass an empty replyTo.
func (l *Lobby) apply(cmd engine.Command, replyTo string) bool {
	events, err := l.game.Apply(cmd)
	if err != nil {
		metrics.IntentRejected(rejectReason(err))
		if replyTo != "" {
			l.reject(replyTo, err)
		} else {
			l.log.Debug("server command rejected",
				zap.String("player", cmd.PlayerID), zap.String("cmd", string(cmd.Type)), zap.Error(err))
		}
		return false
	}
	l.version++
	l.dispatch(events)
	l.afterApply(events)
	return true
}

func (l *Lobby) afterApply(events []engine.Event) {
	if engine.ContainsEvent(events, engine.EvtTurnChanged) {
		l.botSteps = 0
	}
	if l.game.IsOver() {
		l.finishGame()
		return
	}
	l.syncTimers(events)
	l.scheduleBot(events)
}

func (l *Lobby) leave(clientID string) {
	if ch, ok := l.clients[clientID]; ok {
		close(ch)
		delete(l.clients, clientID)
	}
	m := l.member(clientID)
	if m == nil {
		return
	}
	wasLeader := m.IsLeader
	l.removeMember(clientID)
	l.version++
	l.log.Info("player left", zap.String("player", clientID), zap.String("phase", string(l.phase)))

	if l.phase == PhaseInGame {
		if next := l.leader(); wasLeader && next != nil {
			if p := l.game.PlayerByID(next.ID); p != nil {
				p.IsLeader = true
			}
		}
		l.apply(engine.Command{Type: engine.CmdLeaveGame, PlayerID: clientID}, "")
	}
	if l.humans() == 0 {
		l.closing = true
		return
	}
	if l.phase == PhaseWaiting {
		l.broadcastRoom()
	}
}

func (l *Lobby) finishGame() {
	l.turn.Stop()
	l.combat.Stop()
	l.bot.Stop()
	l.phase = PhaseEnded
	winner, team := l.game.Winner()
	metrics.GameEnded(string(l.game.Mode))
	l.log.Info("game ended", zap.String("game", l.game.ID), zap.String("winner", winner), zap.String("team", string(team)))

	if l.opts.Recorder == nil {
		return
	}
	match := store.Match{
		RoomCode:   l.opts.Code,
		MapID:      l.game.MapID,
		Mode:       l.game.Mode,
		WinnerID:   winner,
		WinnerTeam: string(team),
		Players:    l.rosterIDs(),
		StartedAt:  l.startedAt,
		EndedAt:    l.opts.Clock.Now(),
	}
	rec, log := l.opts.Recorder, l.log
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := rec.RecordMatch(ctx, match); err != nil {
			log.Warn("could not record match", zap.Error(err))
		}
	}()
}

func (l *Lobby) rosterIDs() []string {
	ids := make([]string, 0, len(l.game.Players))
	for _, p := range l.game.Players {
		ids = append(ids, p.ID)
	}
	return ids
}

// syncTimers keeps the turn timer paused while a fight or a pending drop is open, and
// restarts the combat timer on every combat turn.
func (l *Lobby) syncTimers(events []engine.Event) {
	if l.game.InCombat() {
		l.turn.Pause()
		if combatTurnChanged(events) {
			l.combat.Start(l.combatDuration())
		}
		l.broadcastTimer(l.combat, true)
		return
	}

	l.combat.Stop()
	_, _, pending := l.game.PendingDrop()
	switch {
	case engine.ContainsEvent(events, engine.EvtTurnChanged):
		l.turn.Start(l.opts.Timing.TurnDuration)
	case pending:
		l.turn.Pause()
	case !l.turn.Running() && !l.turn.Resume():
		// the turn ran out while it was paused or queued behind this command
		l.turn.Start(0)
	}
	l.broadcastTimer(l.turn, false)
}

func combatTurnChanged(events []engine.Event) bool {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtCombatStarted, engine.EvtCombatUpdate, engine.EvtEscapeAttempt:
			return true
		}
	}
	return false
}

func (l *Lobby) combatDuration() time.Duration {
	if p := l.game.CombatTurnPlayer(); p != nil && p.EscapesAttempts >= engine.MaxEscapesAttempts {
		return l.opts.Timing.CombatTurnDurationNoEscape
	}
	return l.opts.Timing.CombatTurnDuration
}

func (l *Lobby) broadcastTimer(c interface {
	Remaining() time.Duration
	Paused() bool
}, combat bool) {
	l.broadcast(types.ServerMessage{Type: msg.TimerUpdated, Payload: types.Timer{
		RemainingMs: c.Remaining().Milliseconds(),
		Combat:      combat,
		Paused:      c.Paused(),
	}})
}

// botActor is the bot that has to act next, if any.
func (l *Lobby) botActor() *engine.Player {
	var p *engine.Player
	if l.game.InCombat() {
		p = l.game.CombatTurnPlayer()
	} else {
		p = l.game.CurrentPlayer()
	}
	if p == nil || !p.IsBot {
		return nil
	}
	return p
}

func (l *Lobby) scheduleBot(events []engine.Event) {
	if l.botActor() == nil {
		l.bot.Stop()
		return
	}
	delay := l.opts.Timing.BotMoveDelay
	switch {
	case l.game.InCombat():
		delay = l.opts.Timing.BotAttackDelay
	case engine.ContainsEvent(events, engine.EvtTurnChanged):
		delay = l.opts.Timing.TurnTransitionDelay
	}
	l.bot.Start(delay)
}

func (l *Lobby) handleTimer(t timerFired) {
	if t.kind == idleTimer {
		if l.idle.Current(t.gen) && len(l.members) == 0 {
			l.log.Info("closing idle room")
			l.closing = true
		}
		return
	}
	if l.phase != PhaseInGame {
		return
	}
	switch t.kind {
	case turnTimer:
		if !l.turn.Current(t.gen) {
			return
		}
		if p := l.game.CurrentPlayer(); p != nil {
			l.log.Debug("turn timed out", zap.String("player", p.ID))
			l.apply(engine.Command{Type: engine.CmdTurnTimeout, PlayerID: p.ID}, "")
		}

	case combatTimer:
		if !l.combat.Current(t.gen) {
			return
		}
		if p := l.game.CombatTurnPlayer(); p != nil {
			l.apply(engine.Command{Type: engine.CmdCombatTimeout, PlayerID: p.ID}, "")
		}

	case botTimer:
		if l.bot.Current(t.gen) {
			l.stepBot()
		}
	}
}

func (l *Lobby) stepBot() {
	actor := l.botActor()
	if actor == nil {
		return
	}
	inCombat := l.game.InCombat()
	if !inCombat && l.botSteps >= maxBotSteps {
		l.apply(engine.Command{Type: engine.CmdNextTurn, PlayerID: actor.ID}, "")
		return
	}
	cmd, ok := bot.Decide(l.game, actor.ID)
	if !ok {
		return
	}
	l.botSteps++
	if l.apply(cmd, "") {
		return
	}
	if inCombat {
		l.apply(engine.Command{Type: engine.CmdAttack, PlayerID: actor.ID}, "")
		return
	}
	l.apply(engine.Command{Type: engine.CmdNextTurn, PlayerID: actor.ID}, "")
}

// dispatch turns engine events into client messages. Snapshot events are sent once per
// batch since each carries the full list.
func (l *Lobby) dispatch(events []engine.Event) {
	sent := map[engine.EventType]bool{}
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtPlayersUpdated, engine.EvtItemsUpdated:
			if sent[ev.Type] {
				continue
			}
			sent[ev.Type] = true
			if ev.Type == engine.EvtPlayersUpdated {
				l.broadcast(types.ServerMessage{Type: msg.PlayersUpdated, Payload: types.Players{Players: l.game.PlayerViews()}})
			} else {
				l.broadcast(types.ServerMessage{Type: msg.UpdateItems, Payload: types.Items{Items: l.game.ItemViews()}})
			}

		case engine.EvtInventoryFull:
			payload := types.InventoryFull{Item: ev.Item}
			if p := l.game.PlayerByID(ev.PlayerID); p != nil {
				payload.Items = slices.Clone(p.Items)
			}
			l.send(ev.PlayerID, types.ServerMessage{Type: msg.InventoryFull, Payload: payload})

		case engine.EvtTurnChanged:
			l.broadcast(types.ServerMessage{Type: msg.TurnChanged, Payload: types.PlayerRef{PlayerID: ev.PlayerID}})

		case engine.EvtGridUpdated:
			l.broadcast(types.ServerMessage{Type: msg.GridUpdated, Payload: types.GridUpdate{Position: ev.Position, Tile: ev.Tile}})

		case engine.EvtPlayerMoved:
			l.broadcast(types.ServerMessage{Type: msg.PlayerMoved, Payload: types.Move{
				PlayerID: ev.PlayerID,
				Path:     append([]grid.Coordinate(nil), ev.Path...),
				Teleport: ev.Teleport,
			}})

		case engine.EvtItemPickedUp, engine.EvtItemDropped:
			name := msg.ItemPickedUp
			if ev.Type == engine.EvtItemDropped {
				name = msg.ItemDropped
			}
			l.broadcast(types.ServerMessage{Type: name, Payload: types.ItemEvent{PlayerID: ev.PlayerID, Item: ev.Item, Position: ev.Position}})

		case engine.EvtCombatStarted, engine.EvtBotStartCombat:
			name := msg.CombatStarted
			if ev.Type == engine.EvtBotStartCombat {
				name = msg.BotStartCombat
			}
			l.broadcast(types.ServerMessage{Type: name, Payload: types.Combat{AttackerID: ev.PlayerID, DefenderID: ev.TargetID}})

		case engine.EvtCombatUpdate:
			l.broadcast(types.ServerMessage{Type: msg.CombatUpdate, Payload: ev.Attack})

		case engine.EvtEscapeAttempt:
			l.broadcast(types.ServerMessage{Type: msg.EscapeAttempt, Payload: types.Escape{PlayerID: ev.PlayerID, Success: ev.Success}})

		case engine.EvtCombatEnded:
			outcome := "win"
			switch {
			case ev.PlayerID == "":
				outcome = "escape"
			case engine.ContainsEvent(events, engine.EvtPlayerLeft):
				outcome = "abandon"
			}
			metrics.CombatFinished(outcome)
			l.broadcast(types.ServerMessage{Type: msg.CombatEnded, Payload: types.CombatEnded{WinnerID: ev.PlayerID, LoserID: ev.TargetID}})

		case engine.EvtDebugToggled:
			l.broadcast(types.ServerMessage{Type: msg.DebugToggled, Payload: types.Debug{Active: ev.Success}})

		case engine.EvtPlayerLeft:
			l.broadcast(types.ServerMessage{Type: msg.PlayerLeft, Payload: types.PlayerRef{PlayerID: ev.PlayerID}})

		case engine.EvtEndTurnRequired:
			l.broadcast(types.ServerMessage{Type: msg.TurnEnded, Payload: types.PlayerRef{PlayerID: ev.PlayerID}})

		case engine.EvtGameEnded:
			l.broadcast(types.ServerMessage{Type: msg.GameEnded, Payload: types.GameEnded{WinnerID: ev.PlayerID, WinnerTeam: ev.Team}})
		}
	}
}

var rejectReasons = []struct {
	err    error
	reason string
}{
	{engine.ErrWrongTurn, "wrong_turn"},
	{engine.ErrUnknownPlayer, "unknown_player"},
	{engine.ErrUnreachable, "unreachable"},
	{engine.ErrNotEnoughSpeed, "not_enough_speed"},
	{engine.ErrNoActionPoints, "no_action_points"},
	{engine.ErrIllegalTarget, "illegal_target"},
	{engine.ErrInCombat, "in_combat"},
	{engine.ErrNotInCombat, "not_in_combat"},
	{engine.ErrNoEscapesLeft, "no_escapes_left"},
	{engine.ErrInventoryFull, "inventory_full"},
	{engine.ErrNoItem, "no_item"},
	{engine.ErrNotLeader, "not_leader"},
	{engine.ErrUnsupportedCommand, "unsupported"},
	{engine.ErrGameOver, "game_over"},
}

// rejectReason keeps the metric label set bounded.
func rejectReason(err error) string {
	for _, r := range rejectReasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "other"
}
