package lobby

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-backend/internal/engine"
	"github.com/DoyleJ11/grid-tactics-backend/internal/items"
	"github.com/DoyleJ11/grid-tactics-backend/internal/types"
	msg "github.com/DoyleJ11/grid-tactics-backend/pkg/types"
)

// ChampionCount is the size of the champion roster clients pick from.
const ChampionCount = 12

func (l *Lobby) join(j Join) error {
	if l.phase != PhaseWaiting {
		return ErrGameStarted
	}
	if l.locked {
		return ErrRoomLocked
	}
	if len(l.members) >= l.maxPlayers {
		return ErrRoomFull
	}
	name := strings.TrimSpace(j.Name)
	if name == "" {
		name = fmt.Sprintf("Player %d", len(l.members)+1)
	}
	if l.nameTaken(name) {
		return ErrNameTaken
	}

	l.members = append(l.members, &types.Member{
		ID:            j.ClientID,
		Name:          name,
		IsLeader:      len(l.members) == 0,
		ChampionIndex: -1,
	})
	l.clients[j.ClientID] = j.Outbox
	l.idle.Stop()
	l.lockIfFull()
	l.version++
	l.log.Info("player joined", zap.String("player", j.ClientID), zap.String("name", name))

	l.send(j.ClientID, types.ServerMessage{Type: msg.Joined, Payload: types.Joined{PlayerID: j.ClientID, Room: l.room()}})
	l.broadcastRoom()
	return nil
}

func (l *Lobby) handleRoster(clientID string, cm types.ClientMessage) error {
	if l.phase != PhaseWaiting {
		return ErrGameStarted
	}
	self := l.member(clientID)
	if self == nil {
		return ErrUnknownMember
	}

	var err error
	switch cm.Type {
	case msg.AddBot:
		err = l.addBot(self, cm)
	case msg.KickPlayer:
		err = l.kick(self, cm.TargetID)
	case msg.LockRoom:
		err = l.toggleLock(self)
	case msg.ChampionSelected:
		err = l.selectChampion(self, cm)
	case msg.SubmitChampSelect:
		err = l.submit(self, cm)
	case msg.StartGame:
		err = l.startGame(self)
	default:
		err = fmt.Errorf("%w: unknown message type %q", ErrBadRequest, cm.Type)
	}
	if err != nil {
		return err
	}
	if l.phase == PhaseWaiting {
		l.version++
		l.broadcastRoom()
	}
	return nil
}

func (l *Lobby) addBot(self *types.Member, cm types.ClientMessage) error {
	if !self.IsLeader {
		return ErrNotLeader
	}
	if len(l.members) >= l.maxPlayers {
		return ErrRoomFull
	}
	profile := engine.ProfileAggressive
	switch engine.BotProfile(cm.Profile) {
	case engine.ProfileDefensive:
		profile = engine.ProfileDefensive
	case engine.ProfileAggressive, engine.ProfileNone:
	default:
		return fmt.Errorf("%w: unknown bot profile %q", ErrBadRequest, cm.Profile)
	}

	bonus, dice := engine.BonusHealth, engine.DiceAttack
	if l.rng.Intn(2) == 1 {
		bonus = engine.BonusSpeed
	}
	if l.rng.Intn(2) == 1 {
		dice = engine.DiceDefense
	}
	name := cm.Name
	for n := 1; name == "" || l.nameTaken(name); n++ {
		name = fmt.Sprintf("Bot %d", n)
	}

	bot := &types.Member{
		ID:            uuid.NewString(),
		Name:          name,
		IsBot:         true,
		Profile:       profile,
		ChampionIndex: l.freeChampion(),
		ChampionName:  "Bot",
		Bonus:         bonus,
		Dice:          dice,
		Submitted:     true,
	}
	l.members = append(l.members, bot)
	l.lockIfFull()
	l.log.Info("bot added", zap.String("player", bot.ID), zap.String("profile", string(profile)))
	return nil
}

func (l *Lobby) kick(self *types.Member, targetID string) error {
	if !self.IsLeader {
		return ErrNotLeader
	}
	if targetID == self.ID {
		return fmt.Errorf("%w: the leader cannot kick themselves", ErrBadRequest)
	}
	target := l.member(targetID)
	if target == nil {
		return ErrUnknownMember
	}
	l.removeMember(targetID)
	if !target.IsBot {
		l.send(targetID, types.ServerMessage{Type: msg.Kicked, Payload: types.Kicked{Reason: "kicked by the room leader"}})
		if ch, ok := l.clients[targetID]; ok {
			close(ch)
			delete(l.clients, targetID)
		}
	}
	l.log.Info("player kicked", zap.String("player", targetID))
	return nil
}

// toggleLock flips the lock. A full room stays locked.
func (l *Lobby) toggleLock(self *types.Member) error {
	if !self.IsLeader {
		return ErrNotLeader
	}
	if l.locked && len(l.members) >= l.maxPlayers {
		return ErrRoomFull
	}
	l.locked = !l.locked
	return nil
}

func (l *Lobby) selectChampion(self *types.Member, cm types.ClientMessage) error {
	if self.Submitted {
		return ErrAlreadySubmitted
	}
	if cm.ChampionIndex == nil || *cm.ChampionIndex < 0 || *cm.ChampionIndex >= ChampionCount {
		return fmt.Errorf("%w: champion index must be in [0, %d)", ErrBadRequest, ChampionCount)
	}
	idx := *cm.ChampionIndex
	for _, m := range l.members {
		if m != self && m.ChampionIndex == idx {
			return ErrChampionTaken
		}
	}
	self.ChampionIndex = idx
	self.ChampionName = cm.ChampionName
	return nil
}

func (l *Lobby) submit(self *types.Member, cm types.ClientMessage) error {
	if self.Submitted {
		return ErrAlreadySubmitted
	}
	if self.ChampionIndex < 0 {
		return ErrNoChampion
	}
	bonus := engine.BonusHealth
	switch engine.Bonus(cm.Bonus) {
	case engine.BonusSpeed:
		bonus = engine.BonusSpeed
	case engine.BonusHealth, "":
	default:
		return fmt.Errorf("%w: unknown bonus %q", ErrBadRequest, cm.Bonus)
	}
	dice := engine.DiceAttack
	switch engine.DiceChoice(cm.Dice) {
	case engine.DiceDefense:
		dice = engine.DiceDefense
	case engine.DiceAttack, "":
	default:
		return fmt.Errorf("%w: unknown dice %q", ErrBadRequest, cm.Dice)
	}
	self.Bonus = bonus
	self.Dice = dice
	self.Submitted = true
	return nil
}

func (l *Lobby) canStart() error {
	if !l.locked {
		return ErrNotReady
	}
	if len(l.members) < 2 {
		return ErrNotEnoughPlayers
	}
	for _, m := range l.members {
		if !m.Submitted {
			return ErrNotReady
		}
	}
	if l.opts.Map.Mode == items.ModeCaptureTheFlag && len(l.members)%2 != 0 {
		return ErrUnevenTeams
	}
	return nil
}

func (l *Lobby) member(id string) *types.Member {
	for _, m := range l.members {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// removeMember drops id from the roster and hands the lead to the next human in join
// order when needed.
func (l *Lobby) removeMember(id string) *types.Member {
	for i, m := range l.members {
		if m.ID != id {
			continue
		}
		l.members = append(l.members[:i], l.members[i+1:]...)
		if len(l.members) == 0 {
			l.armIdle()
		}
		if m.IsLeader {
			m.IsLeader = false
			for _, next := range l.members {
				if !next.IsBot {
					next.IsLeader = true
					break
				}
			}
		}
		return m
	}
	return nil
}

func (l *Lobby) leader() *types.Member {
	for _, m := range l.members {
		if m.IsLeader {
			return m
		}
	}
	return nil
}

func (l *Lobby) nameTaken(name string) bool {
	for _, m := range l.members {
		if strings.EqualFold(m.Name, name) {
			return true
		}
	}
	return false
}

func (l *Lobby) freeChampion() int {
	taken := map[int]bool{}
	for _, m := range l.members {
		taken[m.ChampionIndex] = true
	}
	idx := 0
	for taken[idx] {
		idx++
	}
	return idx
}

func (l *Lobby) lockIfFull() {
	if len(l.members) >= l.maxPlayers {
		l.locked = true
	}
}

func (l *Lobby) broadcastRoom() {
	l.broadcast(types.ServerMessage{Type: msg.RoomUpdated, Payload: l.room()})
}

func (l *Lobby) playerInfos() []engine.PlayerInfo {
	infos := make([]engine.PlayerInfo, 0, len(l.members))
	for _, m := range l.members {
		infos = append(infos, engine.PlayerInfo{
			ID:            m.ID,
			Name:          m.Name,
			ChampionName:  m.ChampionName,
			ChampionIndex: m.ChampionIndex,
			Bonus:         m.Bonus,
			Dice:          m.Dice,
			IsBot:         m.IsBot,
			Profile:       m.Profile,
			IsLeader:      m.IsLeader,
		})
	}
	return infos
}
