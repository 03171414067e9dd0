package engine

import (
	"maps"
	"slices"

	"github.com/DoyleJ11/grid-tactics-backend/internal/grid"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
)

type Team string

const (
	TeamNone Team = "None"
	TeamRed  Team = "Red"
	TeamBlue Team = "Blue"
)

type BotProfile string

const (
	ProfileNone       BotProfile = ""
	ProfileAggressive BotProfile = "Aggressive"
	ProfileDefensive  BotProfile = "Defensive"
)

// Bonus is the stat a champion gets the +2 bonus on.
type Bonus string

const (
	BonusHealth Bonus = "Health"
	BonusSpeed  Bonus = "Speed"
)

// DiceChoice is the stat that rolls the d6; the other one rolls a d4.
type DiceChoice string

const (
	DiceAttack  DiceChoice = "Attack"
	DiceDefense DiceChoice = "Defense"
)

const (
	BaseStat        = 4
	StatBonus       = 2
	BigDice         = 6
	SmallDice       = 4
	BaseActionPoint = 1
)

// PlayerInfo is what the lobby hands over once champion selection is submitted.
type PlayerInfo struct {
	ID            string     `json:"_id"`
	Name          string     `json:"name"`
	ChampionName  string     `json:"championName"`
	ChampionIndex int        `json:"championIndex"`
	Bonus         Bonus      `json:"bonus"`
	Dice          DiceChoice `json:"dice"`
	IsBot         bool       `json:"isBot"`
	Profile       BotProfile `json:"profile,omitempty"`
	IsLeader      bool       `json:"isLeader"`
}

type Buffs struct {
	AttackBuff  int `json:"attackBuff"`
	DefenseBuff int `json:"defenseBuff"`
}

type Player struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	ChampionName string     `json:"championName"`
	IsBot        bool       `json:"isBot"`
	Profile      BotProfile `json:"profile,omitempty"`
	IsLeader     bool       `json:"isLeader"`

	HealthPower     int `json:"healthPower"`
	MaxHealthPower  int `json:"maxHealthPower"`
	AttackPower     int `json:"attackPower"`
	DefensePower    int `json:"defensePower"`
	AttackDice      int `json:"attackDice"`
	DefenseDice     int `json:"defenseDice"`
	Speed           int `json:"speed"`
	MaxSpeed        int `json:"maxSpeed"`
	ActionPoints    int `json:"actionPoints"`
	MaxActionPoints int `json:"maxActionPoints"`

	Position           grid.Coordinate `json:"position"`
	SpawnPointPosition grid.Coordinate `json:"spawnPointPosition"`

	IsTurn          bool `json:"isTurn"`
	IsConnected     bool `json:"isConnected"`
	IsCombatTurn    bool `json:"isCombatTurn"`
	IsInCombat      bool `json:"isInCombat"`
	EscapesAttempts int  `json:"escapesAttempts"`
	NbFightsWon     int  `json:"nbFightsWon"`

	Team    Team `json:"team"`
	HasFlag bool `json:"hasFlag"`

	Items       []items.Kind          `json:"items"`
	Buffs       Buffs                 `json:"buffs"`
	ActiveBuffs map[items.Kind]Effect `json:"activeBuffs"`
}

func newPlayer(info PlayerInfo) *Player {
	p := &Player{
		ID:              info.ID,
		Name:            info.Name,
		ChampionName:    info.ChampionName,
		IsBot:           info.IsBot,
		Profile:         info.Profile,
		IsLeader:        info.IsLeader,
		HealthPower:     BaseStat,
		MaxHealthPower:  BaseStat,
		AttackPower:     BaseStat,
		DefensePower:    BaseStat,
		AttackDice:      SmallDice,
		DefenseDice:     SmallDice,
		Speed:           BaseStat,
		MaxSpeed:        BaseStat,
		ActionPoints:    BaseActionPoint,
		MaxActionPoints: BaseActionPoint,
		IsConnected:     true,
		Team:            TeamNone,
		Items:           []items.Kind{},
		ActiveBuffs:     map[items.Kind]Effect{},
	}
	switch info.Bonus {
	case BonusSpeed:
		p.Speed += StatBonus
		p.MaxSpeed += StatBonus
	default:
		p.HealthPower += StatBonus
		p.MaxHealthPower += StatBonus
	}
	switch info.Dice {
	case DiceDefense:
		p.DefenseDice = BigDice
	default:
		p.AttackDice = BigDice
	}
	return p
}

// Clone returns a deep copy safe to hand to another goroutine.
func (p *Player) Clone() Player {
	c := *p
	c.Items = slices.Clone(p.Items)
	c.ActiveBuffs = maps.Clone(p.ActiveBuffs)
	if c.Items == nil {
		c.Items = []items.Kind{}
	}
	if c.ActiveBuffs == nil {
		c.ActiveBuffs = map[items.Kind]Effect{}
	}
	return c
}

func (p *Player) HasItem(k items.Kind) bool {
	return slices.Contains(p.Items, k)
}

func (p *Player) HasActive(k items.Kind) bool {
	_, ok := p.ActiveBuffs[k]
	return ok
}

func (p *Player) removeItem(k items.Kind) bool {
	i := slices.Index(p.Items, k)
	if i < 0 {
		return false
	}
	p.Items = slices.Delete(p.Items, i, i+1)
	return true
}

func (p *Player) clampStats() {
	p.MaxHealthPower = max(p.MaxHealthPower, 0)
	p.HealthPower = min(max(p.HealthPower, 0), p.MaxHealthPower)
	p.MaxSpeed = max(p.MaxSpeed, 0)
	p.Speed = max(p.Speed, 0)
	p.ActionPoints = min(max(p.ActionPoints, 0), p.MaxActionPoints)
}
