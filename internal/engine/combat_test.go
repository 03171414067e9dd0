package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

func startDuel(t *testing.T, g *Game, a, b *Player) {
	t.Helper()
	_, err := g.Apply(Command{Type: CmdStartCombat, PlayerID: a.ID, TargetID: b.ID})
	require.NoError(t, err)
}

// fight lets whoever holds the combat turn attack until the combat ends.
func fight(t *testing.T, g *Game) []Event {
	t.Helper()
	var all []Event
	for i := 0; i < 200 && g.InCombat(); i++ {
		p := g.CombatTurnPlayer()
		require.NotNil(t, p)
		events, err := g.Apply(Command{Type: CmdAttack, PlayerID: p.ID})
		require.NoError(t, err)
		all = append(all, events...)
	}
	require.False(t, g.InCombat(), "combat did not terminate")
	return all
}

func TestStartCombat_Validation(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(2, 0))

	_, err := g.Apply(Command{Type: CmdStartCombat, PlayerID: a.ID, TargetID: b.ID})
	assert.ErrorIs(t, err, ErrIllegalTarget, "not adjacent")
	_, err = g.Apply(Command{Type: CmdStartCombat, PlayerID: a.ID, TargetID: a.ID})
	assert.ErrorIs(t, err, ErrIllegalTarget)

	b.Position = at(1, 0)
	a.ActionPoints = 0
	_, err = g.Apply(Command{Type: CmdStartCombat, PlayerID: a.ID, TargetID: b.ID})
	assert.ErrorIs(t, err, ErrNoActionPoints)
	assert.False(t, g.InCombat())
}

func TestStartCombat_FasterFighterOpens(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(1, 0))
	b.MaxSpeed = a.MaxSpeed + 1

	events, err := g.Apply(Command{Type: CmdStartCombat, PlayerID: a.ID, TargetID: b.ID})
	require.NoError(t, err)
	assert.True(t, ContainsEvent(events, EvtCombatStarted))
	assert.True(t, a.IsInCombat)
	assert.True(t, b.IsInCombat)
	assert.Same(t, b, g.CombatTurnPlayer())
	assert.Equal(t, 0, a.ActionPoints)

	_, err = g.Apply(Command{Type: CmdAttack, PlayerID: a.ID})
	assert.ErrorIs(t, err, ErrWrongTurn)
	_, err = g.Apply(Command{Type: CmdMovePlayer, PlayerID: a.ID, Destination: at(0, 1)})
	assert.ErrorIs(t, err, ErrInCombat)
}

func TestStartCombat_InitiatorOpensOnTie(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(1, 0))
	startDuel(t, g, a, b)
	assert.Same(t, a, g.CombatTurnPlayer())
}

func TestCombat_DebugRollsAlwaysHit(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(1, 0))
	g.IsDebugModeActive = true
	startDuel(t, g, a, b)

	events, err := g.Apply(Command{Type: CmdAttack, PlayerID: a.ID})
	require.NoError(t, err)
	upd, ok := FindEvent(events, EvtCombatUpdate)
	require.True(t, ok)
	assert.Equal(t, &AttackResult{
		AttackerID:   a.ID,
		DefenderID:   b.ID,
		AttackRoll:   a.AttackDice,
		DefenseRoll:  1,
		AttackTotal:  a.AttackPower + a.AttackDice,
		DefenseTotal: b.DefensePower + 1,
		Damage:       1,
	}, upd.Attack)
	assert.Equal(t, b.MaxHealthPower-1, b.HealthPower)
	assert.Same(t, b, g.CombatTurnPlayer())
}

func TestCombat_IcePenalty(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(1, 0))
	g.IsDebugModeActive = true
	g.Grid.At(at(0, 0)).Material = grid.MaterialIce
	startDuel(t, g, a, b)

	events, err := g.Apply(Command{Type: CmdAttack, PlayerID: a.ID})
	require.NoError(t, err)
	upd, _ := FindEvent(events, EvtCombatUpdate)
	assert.Equal(t, a.AttackPower+a.AttackDice-IcePenalty, upd.Attack.AttackTotal)
}

func TestCombat_WinnerAndLoserResolution(t *testing.T) {
	g, a, b := duel(t, at(2, 2), at(2, 3))
	a.SpawnPointPosition, b.SpawnPointPosition = at(0, 0), at(4, 4)
	b.Items = []items.Kind{items.Pickaxe}
	ApplyPassiveItemEffect(b, items.Pickaxe)
	g.IsDebugModeActive = true
	startDuel(t, g, a, b)

	events := fight(t, g)
	ended, ok := FindEvent(events, EvtCombatEnded)
	require.True(t, ok)
	assert.Equal(t, a.ID, ended.PlayerID)
	assert.Equal(t, b.ID, ended.TargetID)

	assert.Equal(t, 1, a.NbFightsWon)
	assert.Equal(t, 0, b.NbFightsWon)
	assert.Equal(t, a.MaxHealthPower, a.HealthPower)
	assert.Equal(t, b.MaxHealthPower, b.HealthPower)
	assert.Equal(t, at(4, 4), b.Position)
	assert.Empty(t, b.Items)
	assert.Equal(t, []items.Placement{{Position: at(4, 3), Kind: items.Pickaxe}}, g.Items)
	for _, p := range []*Player{a, b} {
		assert.False(t, p.IsInCombat)
		assert.False(t, p.IsCombatTurn)
		assert.Zero(t, p.EscapesAttempts)
	}
	assert.Equal(t, a.ID, g.CurrentPlayerID())
}

func TestCombat_BombSendsWinnerHome(t *testing.T) {
	g, a, b := duel(t, at(2, 2), at(2, 3))
	a.SpawnPointPosition, b.SpawnPointPosition = at(0, 0), at(4, 4)
	b.Items = []items.Kind{items.Bomb}
	g.Items = []items.Placement{{Position: at(0, 0), Kind: items.Armor}}
	g.IsDebugModeActive = true
	startDuel(t, g, a, b)

	fight(t, g)
	assert.Equal(t, at(1, 0), a.Position, "closest free tile to the winner's spawn")
	assert.Equal(t, at(4, 4), b.Position)
	assert.Contains(t, g.Items, items.Placement{Position: at(4, 3), Kind: items.Bomb})
}

func TestCombat_BombIdleWhenHolderWins(t *testing.T) {
	g, a, b := duel(t, at(2, 2), at(2, 3))
	a.Items = []items.Kind{items.Bomb}
	g.IsDebugModeActive = true
	startDuel(t, g, a, b)

	fight(t, g)
	assert.Equal(t, at(2, 2), a.Position)
	assert.Equal(t, []items.Kind{items.Bomb}, a.Items)
}

func TestCombat_GladiatorHelmRestoresActionPoints(t *testing.T) {
	g, a, b := duel(t, at(2, 2), at(2, 3))
	a.Items = []items.Kind{items.GladiatorHelm}
	g.IsDebugModeActive = true
	startDuel(t, g, a, b)
	require.Equal(t, 0, a.ActionPoints)

	fight(t, g)
	assert.Equal(t, a.MaxActionPoints, a.ActionPoints)
}

func TestCombat_ShieldBelowThreshold(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(1, 0))
	b.Items = []items.Kind{items.Shield}
	b.HealthPower = ShieldHealthThreshold + 1
	g.IsDebugModeActive = true
	startDuel(t, g, a, b)
	assert.Zero(t, b.Buffs.DefenseBuff)

	_, err := g.Apply(Command{Type: CmdAttack, PlayerID: a.ID})
	require.NoError(t, err)
	assert.Equal(t, ShieldHealthThreshold, b.HealthPower)
	assert.Equal(t, 2, b.Buffs.DefenseBuff)

	_, err = g.Apply(Command{Type: CmdForfeitCombat, PlayerID: b.ID})
	require.NoError(t, err)
	assert.Zero(t, b.Buffs.DefenseBuff)
	assert.False(t, b.HasActive(items.Shield))
}

func TestCombat_EscapeAttemptsBounded(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(1, 0))
	startDuel(t, g, a, b)
	a.EscapesAttempts = MaxEscapesAttempts
	before := g.PlayerViews()

	_, err := g.Apply(Command{Type: CmdEscape, PlayerID: a.ID})
	assert.ErrorIs(t, err, ErrNoEscapesLeft)
	assert.Equal(t, before, g.PlayerViews())
}

func TestCombat_EscapeEndsWithoutWinner(t *testing.T) {
	for seed := int64(0); seed < 20; seed++ {
		g := newTestGame(t, GameParams{Grid: testGrid(arena...), Players: playerInfos(2)}, seed)
		a, b := g.CurrentPlayer(), g.Players[1]
		a.Position, b.Position = at(0, 0), at(1, 0)
		startDuel(t, g, a, b)

		events, err := g.Apply(Command{Type: CmdEscape, PlayerID: a.ID})
		require.NoError(t, err)
		attempt, ok := FindEvent(events, EvtEscapeAttempt)
		require.True(t, ok)
		assert.Equal(t, 1, a.EscapesAttempts+boolToInt(attempt.Success))
		if !attempt.Success {
			assert.Same(t, b, g.CombatTurnPlayer())
			continue
		}
		assert.False(t, g.InCombat())
		assert.Zero(t, a.NbFightsWon+b.NbFightsWon)
		assert.Equal(t, at(0, 0), a.Position)
		assert.Equal(t, at(1, 0), b.Position)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestCombat_ForfeitByTurnHolderEndsTurn(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(1, 0))
	startDuel(t, g, a, b)

	events, err := g.Apply(Command{Type: CmdForfeitCombat, PlayerID: a.ID})
	require.NoError(t, err)
	assert.True(t, ContainsEvent(events, EvtTurnChanged))
	assert.Equal(t, 1, b.NbFightsWon)
	assert.Equal(t, b.ID, g.CurrentPlayerID())
}

func TestCombat_ThirdWinEndsClassicGame(t *testing.T) {
	g, a, b := duel(t, at(0, 0), at(1, 0))
	a.NbFightsWon = WinningFightsCount - 1
	startDuel(t, g, a, b)

	events, err := g.Apply(Command{Type: CmdForfeitCombat, PlayerID: b.ID})
	require.NoError(t, err)
	ended, ok := FindEvent(events, EvtGameEnded)
	require.True(t, ok)
	assert.Equal(t, a.ID, ended.PlayerID)
	assert.True(t, g.IsOver())
}

func TestCombat_CaptureTheFlagIgnoresWinCount(t *testing.T) {
	g := newTestGame(t, GameParams{
		Grid:    testGrid(arena...),
		Players: playerInfos(2),
		Mode:    items.ModeCaptureTheFlag,
		Items:   []items.Placement{{Position: at(2, 2), Kind: items.Flag}},
	}, 1)
	a, b := g.CurrentPlayer(), g.Players[1]
	a.Position, b.Position = at(0, 0), at(1, 0)
	a.NbFightsWon = WinningFightsCount - 1
	startDuel(t, g, a, b)

	_, err := g.Apply(Command{Type: CmdForfeitCombat, PlayerID: b.ID})
	require.NoError(t, err)
	assert.False(t, g.IsOver())
	assert.Equal(t, WinningFightsCount, a.NbFightsWon)
}

func TestCombat_AlwaysTerminates(t *testing.T) {
	for seed := int64(0); seed < 30; seed++ {
		g := newTestGame(t, GameParams{Grid: testGrid(arena...), Players: playerInfos(2)}, seed)
		a, b := g.CurrentPlayer(), g.Players[1]
		a.Position, b.Position = at(0, 0), at(1, 0)
		startDuel(t, g, a, b)

		fight(t, g)
		assert.Equal(t, 1, a.NbFightsWon+b.NbFightsWon)
		for _, p := range g.Players {
			assert.Equal(t, p.MaxHealthPower, p.HealthPower)
			assert.False(t, p.IsInCombat)
		}
	}
}

func TestCombat_LeavingFighterForfeitsSilently(t *testing.T) {
	g := newTestGame(t, GameParams{Grid: testGrid(arena...), Players: playerInfos(3)}, 2)
	a, b := g.CurrentPlayer(), g.Players[1]
	a.Position, b.Position = at(2, 2), at(2, 3)
	startDuel(t, g, a, b)

	events, err := g.Apply(Command{Type: CmdLeaveGame, PlayerID: b.ID})
	require.NoError(t, err)
	assert.True(t, ContainsEvent(events, EvtCombatEnded))
	assert.False(t, g.InCombat())
	assert.False(t, a.IsInCombat)
	assert.Equal(t, at(2, 2), a.Position)
	assert.Equal(t, 0, a.NbFightsWon)
	assert.Equal(t, a.ID, g.CurrentPlayerID())
}
