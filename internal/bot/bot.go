// Package bot abstracts an optional player-bot subsystem. When the host
// has no such subsystem the Noop integration keeps the siege engine
// fully functional with NPC-only armies.
package bot

import (
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

// Actor is a controllable player-bot. Unlike NPC handles, a bot keeps
// its identity across death and resurrection.
type Actor interface {
	ID() int64
	Name() string
	Faction() world.Faction
	Level() int32
	IsAlive() bool
	// Busy reports the bot is unavailable for recruitment: in combat,
	// grouped with a real player or inside an instance.
	Busy() bool
	Position() model.Point
	RegionID() int32

	Teleport(regionID int32, pos model.Point)
	Revive()

	PvP() bool
	SetPvP(enabled bool)

	HasStrategy(name string) bool
	AddStrategy(name string)
	RemoveStrategy(name string)

	// SetTravelTarget orders long-range travel toward pos.
	SetTravelTarget(pos model.Point)
	IsTraveling() bool
}

// Integration is the host-provided bot roster.
type Integration interface {
	// Eligible lists alive, non-busy bots of the faction at or above
	// minLevel.
	Eligible(faction world.Faction, minLevel int32) []Actor
	// ActorByID returns nil for unknown or logged-out bots.
	ActorByID(id int64) Actor
}

// Noop is the Integration used when no bot subsystem is present.
type Noop struct{}

// Eligible always returns an empty roster.
func (Noop) Eligible(world.Faction, int32) []Actor { return nil }

// ActorByID always returns nil.
func (Noop) ActorByID(int64) Actor { return nil }
