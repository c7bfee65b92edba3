// Package testutil provides hand-built fakes for the world and bot
// contracts, with scripted failure modes for edge-case tests.
package testutil

import (
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

// FakeActor is a scriptable world.Actor.
type FakeActor struct {
	IDVal      int64
	Template   int32
	NameVal    string
	Alive      bool
	Health     float64
	Pos        model.Point
	Combat     bool
	Moving     bool
	FactionVal world.Faction
	Aggressive bool
	Level      int32
	Scale      float64

	// RefuseMove makes MoveTo report failure.
	RefuseMove bool

	Spoken     []string
	MoveOrders []model.Point
	Despawned  bool
	Revived    bool
}

func (a *FakeActor) ID() int64              { return a.IDVal }
func (a *FakeActor) TemplateID() int32      { return a.Template }
func (a *FakeActor) Name() string           { return a.NameVal }
func (a *FakeActor) IsAlive() bool          { return a.Alive && !a.Despawned }
func (a *FakeActor) HealthPercent() float64 { return a.Health }
func (a *FakeActor) Position() model.Point  { return a.Pos }
func (a *FakeActor) InCombat() bool         { return a.Combat }
func (a *FakeActor) IsMoving() bool         { return a.Moving }

func (a *FakeActor) MoveTo(target model.Point) bool {
	if a.RefuseMove {
		return false
	}
	a.MoveOrders = append(a.MoveOrders, target)
	return true
}

func (a *FakeActor) Speak(line string)          { a.Spoken = append(a.Spoken, line) }
func (a *FakeActor) SetFaction(f world.Faction) { a.FactionVal = f }
func (a *FakeActor) SetAggressive(v bool)       { a.Aggressive = v }
func (a *FakeActor) SetLevel(level int32)       { a.Level = level }
func (a *FakeActor) SetScale(scale float64)     { a.Scale = scale }

func (a *FakeActor) Revive() {
	a.Alive = true
	a.Health = 100
	a.Revived = true
}

func (a *FakeActor) Despawn() { a.Despawned = true }

// Kill marks the actor dead.
func (a *FakeActor) Kill() {
	a.Alive = false
	a.Health = 0
}

// LastOrder returns the most recent move order.
func (a *FakeActor) LastOrder() (model.Point, bool) {
	if len(a.MoveOrders) == 0 {
		return model.Point{}, false
	}
	return a.MoveOrders[len(a.MoveOrders)-1], true
}

// FakeScene is a scriptable world.Scene.
type FakeScene struct {
	NextID int64
	Actors map[int64]*FakeActor

	// FailTemplates rejects spawns of these templates.
	FailTemplates map[int32]bool
	// FailNextSpawns rejects the next N spawn attempts.
	FailNextSpawns int
	// NoGround makes GroundHeight fail everywhere.
	NoGround bool
	// GroundZ is the sampled terrain height when set.
	GroundZ *float64

	Spawned []*FakeActor
}

// NewFakeScene creates an empty scene.
func NewFakeScene() *FakeScene {
	return &FakeScene{Actors: make(map[int64]*FakeActor)}
}

// Place adds a pre-existing actor, e.g. the city leader.
func (s *FakeScene) Place(a *FakeActor) *FakeActor {
	if a.IDVal == 0 {
		s.NextID++
		a.IDVal = s.NextID
	}
	s.Actors[a.IDVal] = a
	return a
}

func (s *FakeScene) GroundHeight(x, y, zHint float64) (float64, bool) {
	if s.NoGround {
		return 0, false
	}
	if s.GroundZ != nil {
		return *s.GroundZ, true
	}
	return zHint, true
}

func (s *FakeScene) SpawnActor(templateID int32, pos model.Point) world.Actor {
	if s.FailNextSpawns > 0 {
		s.FailNextSpawns--
		return nil
	}
	if s.FailTemplates[templateID] {
		return nil
	}
	s.NextID++
	a := &FakeActor{
		IDVal:    s.NextID,
		Template: templateID,
		NameVal:  "unit",
		Alive:    true,
		Health:   100,
		Pos:      pos,
		Scale:    1,
	}
	s.Actors[a.IDVal] = a
	s.Spawned = append(s.Spawned, a)
	return a
}

func (s *FakeScene) ActorByID(id int64) world.Actor {
	a, ok := s.Actors[id]
	if !ok || a.Despawned {
		return nil
	}
	return a
}

func (s *FakeScene) FindActorsByTemplate(templateID int32, center model.Point, radius float64) []world.Actor {
	var found []world.Actor
	for _, a := range s.Actors {
		if a.Despawned || a.Template != templateID {
			continue
		}
		if a.Pos.Distance(center) <= radius {
			found = append(found, a)
		}
	}
	return found
}

// FindScene implements world.Locator, returning the scene itself for
// every region.
func (s *FakeScene) FindScene(regionID int32) world.Scene { return s }

// FakeAudience records broadcasts and music cues.
type FakeAudience struct {
	Broadcasts []string
	Music      []int32
}

func (a *FakeAudience) Broadcast(msg string) { a.Broadcasts = append(a.Broadcasts, msg) }

func (a *FakeAudience) BroadcastNear(regionID int32, center model.Point, radius float64, msg string) {
	a.Broadcasts = append(a.Broadcasts, msg)
}

func (a *FakeAudience) PlayMusic(regionID int32, center model.Point, radius float64, musicID int32) {
	a.Music = append(a.Music, musicID)
}

// FakeAmbience records weather overrides.
type FakeAmbience struct {
	Changes []world.WeatherState
}

func (a *FakeAmbience) SetWeather(regionID int32, center model.Point, w world.WeatherState) {
	a.Changes = append(a.Changes, w)
}

// FakeRewarder records reward distributions.
type FakeRewarder struct {
	// Players is the count every distribution reports.
	Players int

	Calls   int
	Winners []world.Faction
}

func (r *FakeRewarder) DistributeRewards(regionID int32, center model.Point, radius float64, winner world.Faction, minLevel int32, honor uint32, goldBase, goldPerLevel uint32) int {
	r.Calls++
	r.Winners = append(r.Winners, winner)
	return r.Players
}
