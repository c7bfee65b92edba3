package world

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Wishmaster117/mod-city-siege/internal/model"
)

// simMoveSpeed is the flat movement speed of simulated units, units/s.
const simMoveSpeed = 7.0

// Sim is an in-memory world: flat terrain, linear movement, log-only
// audience. It backs the standalone binary and integration-style
// tests; a real server embeds the module through the same interfaces.
type Sim struct {
	mu     sync.RWMutex
	scenes map[int32]*SimScene
	nextID atomic.Int64
}

// NewSim creates a simulated world with one scene per region.
func NewSim(regionIDs ...int32) *Sim {
	s := &Sim{scenes: make(map[int32]*SimScene)}
	for _, id := range regionIDs {
		s.scenes[id] = &SimScene{sim: s, regionID: id, actors: make(map[int64]*SimActor)}
	}
	return s
}

// FindScene implements Locator.
func (s *Sim) FindScene(regionID int32) Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scene, ok := s.scenes[regionID]
	if !ok {
		return nil
	}
	return scene
}

// SimSceneByRegion returns the concrete scene for seeding and tests.
func (s *Sim) SimSceneByRegion(regionID int32) *SimScene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scenes[regionID]
}

// Step advances every unit's movement by dt.
func (s *Sim) Step(dt time.Duration) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, scene := range s.scenes {
		scene.step(dt)
	}
}

// Broadcast implements Audience by logging.
func (s *Sim) Broadcast(msg string) {
	slog.Info("broadcast", "msg", msg)
}

// BroadcastNear implements Audience by logging.
func (s *Sim) BroadcastNear(regionID int32, center model.Point, radius float64, msg string) {
	slog.Info("broadcast", "region", regionID, "radius", radius, "msg", msg)
}

// PlayMusic implements Audience by logging.
func (s *Sim) PlayMusic(regionID int32, center model.Point, radius float64, musicID int32) {
	slog.Info("music", "region", regionID, "music", musicID)
}

// SetWeather implements Ambience by logging.
func (s *Sim) SetWeather(regionID int32, center model.Point, w WeatherState) {
	slog.Info("weather", "region", regionID, "type", w.Type, "grade", w.Grade)
}

// DistributeRewards implements Rewarder by logging. The simulation has
// no players, so nobody is paid.
func (s *Sim) DistributeRewards(regionID int32, center model.Point, radius float64, winner Faction, minLevel int32, honor uint32, goldBase, goldPerLevel uint32) int {
	slog.Info("rewards", "region", regionID, "winner", winner.String(), "honor", honor, "gold_base", goldBase)
	return 0
}

// SimScene is one simulated region.
type SimScene struct {
	sim      *Sim
	regionID int32

	mu     sync.RWMutex
	actors map[int64]*SimActor
}

// GroundHeight reports flat terrain at the hint height.
func (sc *SimScene) GroundHeight(x, y, zHint float64) (float64, bool) {
	return zHint, true
}

// SpawnActor implements Scene.
func (sc *SimScene) SpawnActor(templateID int32, pos model.Point) Actor {
	return sc.SpawnNamed(templateID, pos, fmt.Sprintf("unit-%d", templateID))
}

// SpawnNamed spawns a unit with a display name, used to seed city
// leaders.
func (sc *SimScene) SpawnNamed(templateID int32, pos model.Point, name string) *SimActor {
	a := &SimActor{
		id:       sc.sim.nextID.Add(1),
		template: templateID,
		name:     name,
		scene:    sc,
		alive:    true,
		health:   100,
		pos:      pos,
		scale:    1,
	}
	sc.mu.Lock()
	sc.actors[a.id] = a
	sc.mu.Unlock()
	return a
}

// ActorByID implements Scene.
func (sc *SimScene) ActorByID(id int64) Actor {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	a, ok := sc.actors[id]
	if !ok {
		return nil
	}
	return a
}

// FindActorsByTemplate implements Scene.
func (sc *SimScene) FindActorsByTemplate(templateID int32, center model.Point, radius float64) []Actor {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	var found []Actor
	for _, a := range sc.actors {
		if a.TemplateID() == templateID && a.Position().Distance(center) <= radius {
			found = append(found, a)
		}
	}
	return found
}

func (sc *SimScene) step(dt time.Duration) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	for _, a := range sc.actors {
		a.step(dt)
	}
}

func (sc *SimScene) remove(id int64) {
	sc.mu.Lock()
	delete(sc.actors, id)
	sc.mu.Unlock()
}

// SimActor is a simulated unit with linear movement.
type SimActor struct {
	id       int64
	template int32
	scene    *SimScene

	mu         sync.Mutex
	name       string
	alive      bool
	health     float64
	pos        model.Point
	dest       *model.Point
	level      int32
	scale      float64
	faction    Faction
	aggressive bool
	inCombat   bool
}

// ID implements Actor.
func (a *SimActor) ID() int64 { return a.id }

// TemplateID implements Actor.
func (a *SimActor) TemplateID() int32 { return a.template }

// Name implements Actor.
func (a *SimActor) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// IsAlive implements Actor.
func (a *SimActor) IsAlive() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.alive
}

// HealthPercent implements Actor.
func (a *SimActor) HealthPercent() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.health
}

// Position implements Actor.
func (a *SimActor) Position() model.Point {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

// InCombat implements Actor.
func (a *SimActor) InCombat() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inCombat
}

// IsMoving implements Actor.
func (a *SimActor) IsMoving() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dest != nil
}

// MoveTo implements Actor.
func (a *SimActor) MoveTo(target model.Point) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.alive {
		return false
	}
	a.dest = &target
	return true
}

// Speak implements Actor by logging the line.
func (a *SimActor) Speak(line string) {
	slog.Info("yell", "actor", a.Name(), "line", line)
}

// SetFaction implements Actor.
func (a *SimActor) SetFaction(f Faction) {
	a.mu.Lock()
	a.faction = f
	a.mu.Unlock()
}

// Faction returns the current faction, for tests.
func (a *SimActor) Faction() Faction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.faction
}

// SetAggressive implements Actor.
func (a *SimActor) SetAggressive(aggressive bool) {
	a.mu.Lock()
	a.aggressive = aggressive
	a.mu.Unlock()
}

// SetLevel implements Actor.
func (a *SimActor) SetLevel(level int32) {
	a.mu.Lock()
	a.level = level
	a.mu.Unlock()
}

// SetScale implements Actor.
func (a *SimActor) SetScale(scale float64) {
	a.mu.Lock()
	a.scale = scale
	a.mu.Unlock()
}

// Revive implements Actor.
func (a *SimActor) Revive() {
	a.mu.Lock()
	a.alive = true
	a.health = 100
	a.mu.Unlock()
}

// Despawn implements Actor.
func (a *SimActor) Despawn() {
	a.scene.remove(a.id)
}

// Kill marks the unit dead, for tests and scripted scenarios.
func (a *SimActor) Kill() {
	a.mu.Lock()
	a.alive = false
	a.health = 0
	a.dest = nil
	a.mu.Unlock()
}

func (a *SimActor) step(dt time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.alive || a.dest == nil {
		return
	}

	dist := a.pos.Distance(*a.dest)
	stride := simMoveSpeed * dt.Seconds()
	if dist <= stride {
		a.pos = *a.dest
		a.dest = nil
		return
	}
	frac := stride / dist
	a.pos.X += (a.dest.X - a.pos.X) * frac
	a.pos.Y += (a.dest.Y - a.pos.Y) * frac
	a.pos.Z += (a.dest.Z - a.pos.Z) * frac
}
