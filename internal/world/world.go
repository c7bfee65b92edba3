// Package world defines the contracts the siege engine expects from the
// hosting game world: scenes, actor handles, the player audience and a
// few ambience hooks. The engine never reaches past these interfaces.
package world

import "github.com/Wishmaster117/mod-city-siege/internal/model"

// Faction identifies a player faction or the neutral stance.
type Faction int32

const (
	FactionNeutral Faction = iota
	FactionAlliance
	FactionHorde
)

// Opposing returns the enemy faction. Neutral opposes itself.
func (f Faction) Opposing() Faction {
	switch f {
	case FactionAlliance:
		return FactionHorde
	case FactionHorde:
		return FactionAlliance
	default:
		return FactionNeutral
	}
}

// String returns a human-readable faction name.
func (f Faction) String() string {
	switch f {
	case FactionAlliance:
		return "Alliance"
	case FactionHorde:
		return "Horde"
	default:
		return "Neutral"
	}
}

// Actor is a handle to a live unit owned by the host world. Handles may
// go stale when the unit despawns; the engine re-resolves identities
// through Scene.ActorByID every tick and never caches liveness.
type Actor interface {
	ID() int64
	TemplateID() int32
	Name() string
	IsAlive() bool
	// HealthPercent is in [0, 100].
	HealthPercent() float64
	Position() model.Point
	InCombat() bool
	IsMoving() bool

	// MoveTo orders movement toward target and reports whether the
	// order was accepted.
	MoveTo(target model.Point) bool
	Speak(line string)
	SetFaction(f Faction)
	SetAggressive(aggressive bool)
	SetLevel(level int32)
	SetScale(scale float64)
	// Revive restores a dead unit in place. Used for the objective
	// actor after a lost defense.
	Revive()
	Despawn()
}

// Scene is one region of the world where a siege plays out.
type Scene interface {
	// GroundHeight resolves terrain height at (x, y) searching downward
	// from zHint. ok is false where no ground could be sampled.
	GroundHeight(x, y, zHint float64) (z float64, ok bool)

	// SpawnActor creates a unit of the given template at pos. Returns
	// nil when the host rejects the placement.
	SpawnActor(templateID int32, pos model.Point) Actor

	// ActorByID resolves a previously spawned unit. Returns nil when
	// the unit no longer exists.
	ActorByID(id int64) Actor

	// FindActorsByTemplate lists units of the template within radius
	// of center.
	FindActorsByTemplate(templateID int32, center model.Point, radius float64) []Actor
}

// Locator resolves scenes by region.
type Locator interface {
	// FindScene returns nil for unknown regions.
	FindScene(regionID int32) Scene
}

// Audience delivers text and sound to players.
type Audience interface {
	// Broadcast sends msg to every connected player.
	Broadcast(msg string)
	// BroadcastNear sends msg to players within radius of center in the
	// region. radius <= 0 falls back to a global broadcast.
	BroadcastNear(regionID int32, center model.Point, radius float64, msg string)
	// PlayMusic plays a sound cue to players within radius of center.
	PlayMusic(regionID int32, center model.Point, radius float64, musicID int32)
}

// WeatherState is a weather type plus intensity grade in [0, 1].
type WeatherState struct {
	Type  int32
	Grade float64
}

// Ambience lets the engine override zone weather for dramatic effect.
type Ambience interface {
	SetWeather(regionID int32, center model.Point, w WeatherState)
}

// Rewarder distributes victory rewards. Returns the number of players
// rewarded.
type Rewarder interface {
	DistributeRewards(regionID int32, center model.Point, radius float64, winner Faction, minLevel int32, honor uint32, goldBase, goldPerLevel uint32) int
}
