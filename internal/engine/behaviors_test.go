package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

func TestPassiveEffects_SymmetricAndIdempotent(t *testing.T) {
	kinds := []items.Kind{items.Armor, items.SwiftnessBoots, items.Pickaxe, items.Flag}
	starts := []struct {
		name  string
		tweak func(p *Player)
	}{
		{"fresh", func(p *Player) {}},
		{"exhausted", func(p *Player) { p.Speed = 0 }},
		{"wounded", func(p *Player) { p.HealthPower = 0 }},
	}

	for _, kind := range kinds {
		for _, st := range starts {
			t.Run(string(kind)+"/"+st.name, func(t *testing.T) {
				p := newPlayer(PlayerInfo{ID: "p1"})
				st.tweak(p)
				before := p.Clone()

				assert.True(t, ApplyPassiveItemEffect(p, kind))
				afterOnce := p.Clone()
				assert.False(t, ApplyPassiveItemEffect(p, kind))
				assert.Equal(t, afterOnce, p.Clone())

				assert.True(t, RemovePassiveItemEffect(p, kind))
				assert.False(t, RemovePassiveItemEffect(p, kind))
				assert.Equal(t, before, p.Clone())
			})
		}
	}
}

func TestPassiveEffects_Values(t *testing.T) {
	p := newPlayer(PlayerInfo{ID: "p1", Bonus: BonusSpeed})

	ApplyPassiveItemEffect(p, items.Armor)
	assert.Equal(t, 2, p.Buffs.DefenseBuff)
	assert.Equal(t, 5, p.MaxSpeed)

	ApplyPassiveItemEffect(p, items.SwiftnessBoots)
	assert.Equal(t, 7, p.MaxSpeed)
	assert.Equal(t, 3, p.MaxHealthPower)
	assert.Equal(t, 3, p.HealthPower)

	ApplyPassiveItemEffect(p, items.Flag)
	assert.True(t, p.HasFlag)
	RemovePassiveItemEffect(p, items.Flag)
	assert.False(t, p.HasFlag)
}

func TestPassiveEffects_NoneForCombatItems(t *testing.T) {
	p := newPlayer(PlayerInfo{ID: "p1"})
	for _, kind := range []items.Kind{items.Shield, items.GladiatorHelm, items.Bomb} {
		assert.False(t, ApplyPassiveItemEffect(p, kind))
		assert.False(t, RemovePassiveItemEffect(p, kind))
	}
	assert.Empty(t, p.ActiveBuffs)
}

func TestCombatEffects_ShieldReevaluation(t *testing.T) {
	p := newPlayer(PlayerInfo{ID: "p1"})
	p.Items = []items.Kind{items.Shield}

	ApplyCombatItemEffects(p)
	assert.Zero(t, p.Buffs.DefenseBuff)

	p.HealthPower = ShieldHealthThreshold
	ApplyCombatItemEffects(p)
	ApplyCombatItemEffects(p)
	assert.Equal(t, 2, p.Buffs.DefenseBuff)

	RemoveCombatItemEffects(p)
	RemoveCombatItemEffects(p)
	assert.Zero(t, p.Buffs.DefenseBuff)
}
