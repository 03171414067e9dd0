package types

// Server -> Client
const (
	RoomUpdated  = "RoomUpdated"  // code, mapId, mode, locked, maxPlayers, members
	Joined       = "Joined"       // playerId, room
	Kicked       = "Kicked"       // reason
	GameStarted  = "GameStarted"  // game snapshot
	TimerUpdated = "TimerUpdated" // remainingMs, combat, paused

	PlayersUpdated = "PlayersUpdated"  // players
	TurnChanged    = "TurnChanged"     // playerId
	GridUpdated    = "GridUpdated"     // position, tile
	UpdateItems    = "UpdateItems"     // items
	InventoryFull  = "InventoryFull"   // item, items (sent to the holder only)
	PlayerMoved    = "MovePlayer"      // playerId, path, teleport
	ItemPickedUp   = "ItemPickedUp"    // playerId, item
	ItemDropped    = "ItemDropped"     // playerId, item, position
	CombatStarted  = "CombatStarted"   // attackerId, defenderId
	BotStartCombat = "BotStartCombat"  // attackerId, defenderId
	CombatUpdate   = "CombatUpdate"    // attack result
	EscapeAttempt  = "EscapeAttempt"   // playerId, success
	CombatEnded    = "CombatEnded"     // winnerId, loserId (empty on escape)
	DebugToggled   = "DebugToggled"    // active
	PlayerLeft     = "PlayerLeft"      // playerId
	TurnEnded      = "EndTurnRequired" // playerId
	GameEnded      = "GameEnded"       // winnerId, winnerTeam

	Error = "Error" // error
)
