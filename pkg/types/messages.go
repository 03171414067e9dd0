// Package types names the messages exchanged over the room websocket. Every frame is a
// JSON object whose "type" field holds one of these names.
package types

// Client -> Server
const (
	JoinRoom          = "JoinRoom"          // name
	AddBot            = "AddBot"            // profile: "Aggressive" | "Defensive"
	KickPlayer        = "KickPlayer"        // targetId
	LockRoom          = "LockRoom"          // {}
	ChampionSelected  = "ChampionSelected"  // championIndex, championName
	SubmitChampSelect = "SubmitChampSelect" // bonus: "Health" | "Speed", dice: "Attack" | "Defense"
	StartGame         = "StartGame"         // {}

	MovePlayer    = "MovePlayer"    // position
	UseDoor       = "UseDoor"       // position
	BreakWall     = "BreakWall"     // position
	StartCombat   = "StartCombat"   // targetId
	Attack        = "Attack"        // {}
	Escape        = "Escape"        // {}
	ForfeitCombat = "ForfeitCombat" // {}
	NextTurn      = "NextTurn"      // {}
	PickupItem    = "PickupItem"    // {}
	DropItem      = "DropItem"      // item
	ToggleDebug   = "ToggleDebug"   // {}
	LeaveGame     = "LeaveGame"     // {}
)
