package siege

import (
	"log/slog"
	"math"
	"time"

	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

// Behavior strategy names on the bot AI. The roaming strategies are
// suspended for the duration of the siege and restored on release.
const (
	strategyPvP    = "pvp"
	strategyTravel = "travel"
)

var roamingStrategies = []string{"new rpg", "rpg"}

// botReturnState remembers how to put a recruited bot back the way it
// was before the siege.
type botReturnState struct {
	id       int64
	regionID int32
	pos      model.Point
	pvp      bool
	// roaming is the suspended roaming strategy, empty if none.
	roaming  string
	released bool
}

// botDeath is one bot awaiting resurrection.
type botDeath struct {
	id     int64
	diedAt time.Time
}

// recruitBots drafts up to max eligible bots of the faction, teleports
// them to the anchor with a small scatter and records their return
// state. The recruited bots are registered in the directory under the
// given role.
func (e *Event) recruitBots(faction world.Faction, role model.Role, anchor model.Point, max int) []int64 {
	if !e.cfg.Bots.Enabled || max <= 0 {
		return nil
	}

	candidates := e.deps.Bots.Eligible(faction, e.cfg.Bots.MinLevel)
	var drafted []int64
	for _, b := range candidates {
		if len(drafted) >= max {
			break
		}

		state := botReturnState{
			id:       b.ID(),
			regionID: b.RegionID(),
			pos:      b.Position(),
			pvp:      b.PvP(),
		}
		for _, name := range roamingStrategies {
			if b.HasStrategy(name) {
				state.roaming = name
				b.RemoveStrategy(name)
				break
			}
		}
		e.botReturns = append(e.botReturns, state)

		b.Teleport(e.city.RegionID, e.scatter(anchor))
		if err := e.dir.Register(b.ID(), model.TierMinion, role); err != nil {
			slog.Error("bot registration failed", "city", e.city.Name, "bot", b.Name(), "error", err)
			continue
		}
		drafted = append(drafted, b.ID())

		slog.Debug("bot recruited",
			"city", e.city.Name, "bot", b.Name(), "role", role.String())
	}

	if len(drafted) > 0 {
		slog.Info("bots recruited",
			"city", e.city.Name, "role", role.String(), "count", len(drafted))
	}
	return drafted
}

// activateBots switches recruited bots to fight mode at combat start:
// PvP on, travel strategy for pathfinding, first travel target.
func (e *Event) activateBots() {
	for _, id := range e.allBotIDs() {
		b := e.deps.Bots.ActorByID(id)
		if b == nil {
			continue
		}
		b.SetPvP(true)
		if !b.HasStrategy(strategyPvP) {
			b.AddStrategy(strategyPvP)
		}
		if !b.HasStrategy(strategyTravel) {
			b.AddStrategy(strategyTravel)
		}
		if entry, ok := e.dir.Get(id); ok {
			b.SetTravelTarget(e.city.Target(entry.Progress))
		}
	}
}

// trackBotDeaths queues newly dead bots for resurrection.
func (e *Event) trackBotDeaths(now time.Time) {
	if !e.cfg.Bots.Enabled {
		return
	}
	for _, id := range e.allBotIDs() {
		b := e.deps.Bots.ActorByID(id)
		if b == nil || b.IsAlive() {
			continue
		}
		if _, queued := e.botDeathsQueued[id]; queued {
			continue
		}
		e.botDeathsQueued[id] = struct{}{}
		e.botDeaths = append(e.botDeaths, botDeath{id: id, diedAt: now})
	}
}

// processBotRespawns resurrects bots whose delay elapsed: revive,
// teleport back to the side anchor, reset path progress and reissue
// the travel target. Bots keep their identity across death.
func (e *Event) processBotRespawns(now time.Time) {
	delay := time.Duration(e.cfg.Bots.RespawnDelaySeconds) * time.Second
	remaining := e.botDeaths[:0]
	for _, d := range e.botDeaths {
		if now.Sub(d.diedAt) < delay {
			remaining = append(remaining, d)
			continue
		}
		b := e.deps.Bots.ActorByID(d.id)
		entry, tracked := e.dir.Get(d.id)
		if b == nil || !tracked {
			delete(e.botDeathsQueued, d.id)
			continue
		}

		b.Revive()
		b.Teleport(e.city.RegionID, e.scatter(e.city.Anchor(entry.Role())))
		if err := e.dir.Reset(d.id); err == nil {
			if fresh, ok := e.dir.Get(d.id); ok {
				b.SetTravelTarget(e.city.Target(fresh.Progress))
			}
		}
		delete(e.botDeathsQueued, d.id)

		slog.Debug("bot resurrected", "city", e.city.Name, "bot", b.Name())
	}
	e.botDeaths = remaining
}

// releaseBots restores every recruited bot to its saved pre-siege
// state. Safe to call more than once: each bot is released exactly
// once.
func (e *Event) releaseBots() {
	released := 0
	for i := range e.botReturns {
		state := &e.botReturns[i]
		if state.released {
			continue
		}
		state.released = true
		e.dir.Remove(state.id)

		b := e.deps.Bots.ActorByID(state.id)
		if b == nil {
			continue
		}
		if !b.IsAlive() {
			b.Revive()
		}
		b.SetPvP(state.pvp)
		b.RemoveStrategy(strategyTravel)
		if state.roaming != "" && !b.HasStrategy(state.roaming) {
			b.AddStrategy(state.roaming)
		}
		b.Teleport(state.regionID, state.pos)
		released++
	}

	if released > 0 {
		slog.Info("bots released", "city", e.city.Name, "count", released)
	}
}

func (e *Event) allBotIDs() []int64 {
	ids := make([]int64, 0, len(e.attackerBots)+len(e.defenderBots))
	ids = append(ids, e.attackerBots...)
	ids = append(ids, e.defenderBots...)
	return ids
}

// scatter spreads teleport destinations so a squad does not land on a
// single point.
func (e *Event) scatter(anchor model.Point) model.Point {
	angle := e.rng.Float64() * 2 * math.Pi
	dist := e.rng.Float64() * arrivalThreshold
	anchor.X += dist * math.Cos(angle)
	anchor.Y += dist * math.Sin(angle)
	return anchor
}
