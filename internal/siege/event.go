package siege

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/Wishmaster117/mod-city-siege/internal/bot"
	"github.com/Wishmaster117/mod-city-siege/internal/config"
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

// Phase is the lifecycle stage of a siege event. Transitions are
// linear: Narrative → Combat → Ended.
type Phase int32

const (
	PhaseNarrative Phase = iota
	PhaseCombat
	PhaseEnded
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseNarrative:
		return "narrative"
	case PhaseCombat:
		return "combat"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Outcome records who won a finished siege.
type Outcome int32

const (
	OutcomeNone Outcome = iota
	OutcomeAttackerVictory
	OutcomeDefenderVictory
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeAttackerVictory:
		return "attackers"
	case OutcomeDefenderVictory:
		return "defenders"
	default:
		return "undecided"
	}
}

// Cadence constants for periodic combat chatter.
const (
	statusInterval = 5 * time.Minute
	// purgeGrace keeps a finished event queryable before the
	// orchestrator drops it.
	purgeGrace = time.Minute

	// objectiveSearchRadius bounds the leader lookup around the
	// objective anchor.
	objectiveSearchRadius = 100.0
)

// Deps are the world collaborators one event works against.
type Deps struct {
	Scene    world.Scene
	Audience world.Audience
	Ambience world.Ambience
	Rewarder world.Rewarder
	Bots     bot.Integration
}

// Event is one running siege. It is driven by Tick from a single
// goroutine; only Phase and Winner are safe to read concurrently.
type Event struct {
	city *City
	cfg  *config.Config
	deps Deps
	rng  *rand.Rand

	phase   atomic.Int32
	outcome atomic.Int32

	startedAt      time.Time
	combatDeadline time.Time
	endsAt         time.Time
	endedAt        time.Time

	dir     *Directory
	spawner *Spawner
	driver  *Driver
	respawn *Scheduler

	// natives holds the NPC identities of both sides. Respawns swap
	// the dead identity for the replacement.
	natives map[int64]struct{}

	objectiveID      int64
	objectiveName    string
	objectiveMissing bool

	script     *Script
	taunts     []string
	lastYell   time.Time
	lastStatus time.Time

	announced75 bool
	announced50 bool
	announced25 bool

	weatherOverridden bool

	attackerBots    []int64
	defenderBots    []int64
	botReturns      []botReturnState
	botDeaths       []botDeath
	botDeathsQueued map[int64]struct{}
}

// NewEvent opens a siege against the city: announces the coming
// battle, applies the ambience override, spawns both armies in the
// passive narrative stance and recruits bots. Combat starts once the
// narrative delay expires.
func NewEvent(city *City, cfg *config.Config, deps Deps, rng *rand.Rand, now time.Time) *Event {
	e := &Event{
		city:            city,
		cfg:             cfg,
		deps:            deps,
		rng:             rng,
		startedAt:       now,
		combatDeadline:  now.Add(cfg.NarrativeDelay()),
		endsAt:          now.Add(cfg.EventDuration()),
		natives:         make(map[int64]struct{}),
		botDeathsQueued: make(map[int64]struct{}),
		lastYell:        now,
	}
	e.dir = NewDirectory(len(city.Waypoints))
	e.spawner = NewSpawner(deps.Scene, e.dir, cfg, rng)
	e.driver = NewDriver(city, e.dir, rng)
	e.respawn = NewScheduler(cfg.Respawn)

	e.resolveObjective()
	e.applyWeather()
	e.playMusic(cfg.Music.Narrative)

	e.announce(e.expand(cfg.Messages.SiegeStart))
	e.announce(e.expand(fmt.Sprintf(
		"[City Siege] An army is forming outside {CITYNAME}! The assault begins in %d seconds!",
		cfg.NarrativeDelaySeconds)))

	e.spawnArmies()
	e.chooseScript()

	e.defenderBots = e.recruitBots(city.Faction, model.RoleDefender, city.Objective, cfg.Bots.MaxDefenders)
	e.attackerBots = e.recruitBots(city.AttackerFaction(), model.RoleAttacker, city.Rally, cfg.Bots.MaxAttackers)

	slog.Info("siege started",
		"city", city.Name,
		"attackers", city.AttackerFaction().String(),
		"waypoints", len(city.Waypoints),
		"objective", e.objectiveName,
		"duration", cfg.EventDuration())
	return e
}

// City returns the besieged city.
func (e *Event) City() *City { return e.city }

// Phase returns the current lifecycle stage.
func (e *Event) Phase() Phase { return Phase(e.phase.Load()) }

// Winner returns the outcome, OutcomeNone while the siege runs.
func (e *Event) Winner() Outcome { return Outcome(e.outcome.Load()) }

// Remaining returns the time left until the defenders win by timeout.
func (e *Event) Remaining(now time.Time) time.Duration {
	if r := e.endsAt.Sub(now); r > 0 {
		return r
	}
	return 0
}

// Expired reports whether the finished event has outlived its grace
// window and can be purged.
func (e *Event) Expired(now time.Time) bool {
	return e.Phase() == PhaseEnded && now.Sub(e.endedAt) >= purgeGrace
}

// Tick advances the event. now is injected so tests control time.
func (e *Event) Tick(now time.Time) {
	switch e.Phase() {
	case PhaseNarrative:
		e.tickNarrative(now)
	case PhaseCombat:
		e.tickCombat(now)
	}
}

// Finish ends the event with the given outcome, exactly once: the
// ambience is reverted, NPC armies despawn, bots return to their saved
// state and the winners collect their reward.
func (e *Event) Finish(now time.Time, outcome Outcome) {
	if prev := Phase(e.phase.Swap(int32(PhaseEnded))); prev == PhaseEnded {
		return
	}
	e.outcome.Store(int32(outcome))
	e.endedAt = now

	e.restoreWeather()
	e.announce(e.expand(e.cfg.Messages.SiegeEnd))
	switch outcome {
	case OutcomeDefenderVictory:
		e.playMusic(e.cfg.Music.Victory)
		e.announce(e.expand("[City Siege] The defenders of {CITYNAME} have repelled the invasion!"))
	case OutcomeAttackerVictory:
		e.playMusic(e.cfg.Music.Defeat)
		e.announce(e.expand("[City Siege] {CITYNAME} has fallen to the attackers!"))
	}

	e.distributeRewards(outcome)
	e.despawnNatives()
	e.releaseBots()
	e.respawnObjective(outcome)

	slog.Info("siege ended",
		"city", e.city.Name,
		"winner", outcome.String(),
		"elapsed", now.Sub(e.startedAt))
}

func (e *Event) tickNarrative(now time.Time) {
	e.announceCountdown(now)

	if now.Sub(e.lastYell) >= e.cfg.YellInterval() {
		if line, ok := e.script.Next(); ok {
			if speaker := e.randomTopTier(); speaker != nil {
				speaker.Speak(line)
			}
			e.lastYell = now
		}
	}

	if !now.Before(e.combatDeadline) {
		e.enterCombat(now)
	}
}

// announceCountdown fires the 75/50/25% warnings, each exactly once
// and always in descending order.
func (e *Event) announceCountdown(now time.Time) {
	delay := e.cfg.NarrativeDelay()
	if delay <= 0 {
		return
	}
	frac := float64(e.combatDeadline.Sub(now)) / float64(delay)
	seconds := int(e.combatDeadline.Sub(now).Round(time.Second).Seconds())

	switch {
	case !e.announced75 && frac <= 0.75:
		e.announced75 = true
		e.announce(e.expand(fmt.Sprintf("[City Siege] The assault on {CITYNAME} begins in %d seconds!", seconds)))
	case !e.announced50 && frac <= 0.50:
		e.announced50 = true
		e.announce(e.expand(fmt.Sprintf("[City Siege] The assault on {CITYNAME} begins in %d seconds!", seconds)))
	case !e.announced25 && frac <= 0.25:
		e.announced25 = true
		e.announce(e.expand(fmt.Sprintf("[City Siege] The assault on {CITYNAME} begins in %d seconds! Prepare yourselves!", seconds)))
	}
}

// enterCombat flips both armies hostile, starts the march and unleashes
// the bots.
func (e *Event) enterCombat(now time.Time) {
	if !e.phase.CompareAndSwap(int32(PhaseNarrative), int32(PhaseCombat)) {
		return
	}

	e.announce(e.expand("[City Siege] The battle for {CITYNAME} has begun!"))
	e.playMusic(e.cfg.Music.Combat)

	for id := range e.natives {
		actor := e.deps.Scene.ActorByID(id)
		if actor == nil {
			continue
		}
		entry, ok := e.dir.Get(id)
		if !ok {
			continue
		}
		e.makeHostile(actor, entry.Role())
	}

	e.driver.FirstOrders(e.movers())
	e.activateBots()

	e.lastYell = now
	e.lastStatus = now

	slog.Info("siege combat began", "city", e.city.Name)
}

// tickCombat runs one combat step in fixed order: march, respawns,
// death bookkeeping, chatter, status, win check.
func (e *Event) tickCombat(now time.Time) {
	e.driver.Tick(e.movers())

	e.respawn.ProcessDue(now, e.respawnNative)
	e.processBotRespawns(now)

	e.recordNativeDeaths(now)
	e.trackBotDeaths(now)

	if now.Sub(e.lastYell) >= e.cfg.YellInterval() {
		if speaker := e.randomTopTier(); speaker != nil && len(e.taunts) > 0 {
			speaker.Speak(e.taunts[e.rng.IntN(len(e.taunts))])
		}
		e.lastYell = now
	}

	if now.Sub(e.lastStatus) >= statusInterval {
		e.announceStatus(now)
		e.lastStatus = now
	}

	// The one objective-alive check deciding the siege.
	if obj := e.objectiveActor(); obj == nil || !obj.IsAlive() {
		e.Finish(now, OutcomeAttackerVictory)
		return
	}
	if !now.Before(e.endsAt) {
		e.Finish(now, OutcomeDefenderVictory)
	}
}

// movers collects the live marching force: every NPC of both sides
// plus every recruited bot, freshly resolved so stale handles never
// leak across ticks.
func (e *Event) movers() []Mover {
	movers := make([]Mover, 0, len(e.natives)+len(e.attackerBots)+len(e.defenderBots))
	for id := range e.natives {
		if a := e.deps.Scene.ActorByID(id); a != nil {
			movers = append(movers, npcMover{a})
		}
	}
	for _, id := range e.allBotIDs() {
		if b := e.deps.Bots.ActorByID(id); b != nil {
			movers = append(movers, botMover{b})
		}
	}
	return movers
}

// recordNativeDeaths queues every newly dead or vanished NPC for
// respawn. RecordDeath is idempotent so re-reporting is harmless.
func (e *Event) recordNativeDeaths(now time.Time) {
	for id := range e.natives {
		actor := e.deps.Scene.ActorByID(id)
		if actor != nil && actor.IsAlive() {
			continue
		}
		entry, ok := e.dir.Get(id)
		if !ok {
			continue
		}
		if e.respawn.RecordDeath(id, entry.Tier, entry.Role(), now) {
			slog.Debug("siege unit died",
				"city", e.city.Name, "tier", entry.Tier.String(), "id", id)
		}
	}
}

// respawnNative replaces one dead NPC: spawn at the tier anchor,
// transfer the directory slot, flip hostile and restart the march.
func (e *Event) respawnNative(deadID int64, tier model.Tier, role model.Role) (int64, bool) {
	actor := e.spawner.SpawnReplacement(e.city, deadID, tier, role)
	if actor == nil {
		return 0, false
	}
	delete(e.natives, deadID)
	e.natives[actor.ID()] = struct{}{}

	e.makeHostile(actor, role)
	if entry, ok := e.dir.Get(actor.ID()); ok {
		actor.MoveTo(e.driver.jitter(e.city.Target(entry.Progress)))
	}
	return actor.ID(), true
}

func (e *Event) makeHostile(actor world.Actor, role model.Role) {
	if role == model.RoleDefender {
		actor.SetFaction(e.city.Faction)
	} else {
		actor.SetFaction(e.city.AttackerFaction())
	}
	actor.SetAggressive(true)
}

func (e *Event) announceStatus(now time.Time) {
	minutes := int(e.Remaining(now).Round(time.Minute).Minutes())
	msg := fmt.Sprintf("[City Siege] The siege of %s rages on! %d minutes remain.", e.city.Name, minutes)
	if obj := e.objectiveActor(); obj != nil && obj.IsAlive() {
		msg = fmt.Sprintf("%s %s stands at %.0f%% health.", msg, e.objectiveName, obj.HealthPercent())
	}
	e.announce(msg)
}

// resolveObjective locates the city leader near the objective anchor
// and caches its identity and display name. A missing leader forfeits
// the defense at the first combat check.
func (e *Event) resolveObjective() {
	candidates := e.deps.Scene.FindActorsByTemplate(e.city.ObjectiveTemplate, e.city.Objective, objectiveSearchRadius)
	for _, c := range candidates {
		if c.IsAlive() {
			e.objectiveID = c.ID()
			e.objectiveName = c.Name()
			return
		}
	}
	e.objectiveMissing = true
	e.objectiveName = "the leader"
	slog.Error("siege objective not found",
		"city", e.city.Name, "template", e.city.ObjectiveTemplate)
}

// objectiveActor resolves the live objective handle, nil when the
// leader is missing or already despawned.
func (e *Event) objectiveActor() world.Actor {
	if e.objectiveMissing {
		return nil
	}
	return e.deps.Scene.ActorByID(e.objectiveID)
}

func (e *Event) spawnArmies() {
	for _, a := range e.spawner.SpawnAttackers(e.city) {
		e.natives[a.ID()] = struct{}{}
		if entry, ok := e.dir.Get(a.ID()); ok && entry.Tier == model.TierLeader {
			a.Speak(e.cfg.Dialogue.LeaderSpawnYell)
		}
	}
	if e.cfg.Spawns.DefendCity {
		for _, a := range e.spawner.SpawnDefenders(e.city) {
			e.natives[a.ID()] = struct{}{}
		}
	}
}

// chooseScript picks one narrative script at random for the attacking
// faction and binds the placeholders.
func (e *Event) chooseScript() {
	raw := e.cfg.Dialogue.AllianceScripts
	if e.city.AttackerFaction() == world.FactionHorde {
		raw = e.cfg.Dialogue.HordeScripts
	}

	vars := map[string]string{
		"LEADER":   e.objectiveName,
		"CITY":     e.city.Name,
		"CITYNAME": e.city.Name,
	}
	e.taunts = SplitLines(e.cfg.Dialogue.CombatYells)
	for i, t := range e.taunts {
		e.taunts[i] = ExpandPlaceholders(t, vars)
	}

	scripts := SplitScripts(raw)
	if len(scripts) == 0 {
		e.script = NewScript(nil)
		return
	}
	lines := scripts[e.rng.IntN(len(scripts))]
	expanded := make([]string, len(lines))
	for i, line := range lines {
		expanded[i] = ExpandPlaceholders(line, vars)
	}
	e.script = NewScript(expanded)
}

// randomTopTier picks a random live leader or mini-boss to deliver a
// line, nil when none survive.
func (e *Event) randomTopTier() world.Actor {
	var pool []world.Actor
	for id := range e.natives {
		entry, ok := e.dir.Get(id)
		if !ok || !entry.Tier.TopTier() {
			continue
		}
		if a := e.deps.Scene.ActorByID(id); a != nil && a.IsAlive() {
			pool = append(pool, a)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[e.rng.IntN(len(pool))]
}

func (e *Event) applyWeather() {
	if !e.cfg.Weather.Enabled {
		return
	}
	e.deps.Ambience.SetWeather(e.city.RegionID, e.city.Center, world.WeatherState{
		Type:  e.cfg.Weather.Type,
		Grade: e.cfg.Weather.Grade,
	})
	e.weatherOverridden = true
}

// restoreWeather reverts the override exactly once.
func (e *Event) restoreWeather() {
	if !e.weatherOverridden {
		return
	}
	e.weatherOverridden = false
	e.deps.Ambience.SetWeather(e.city.RegionID, e.city.Center, world.WeatherState{})
}

func (e *Event) playMusic(musicID int32) {
	if !e.cfg.Music.Enabled || musicID <= 0 {
		return
	}
	e.deps.Audience.PlayMusic(e.city.RegionID, e.city.Center, e.cfg.AnnounceRadius, musicID)
}

// distributeRewards pays the winning faction's players near the city.
// A forfeited defense pays nobody.
func (e *Event) distributeRewards(outcome Outcome) {
	if !e.cfg.Rewards.Enabled || outcome == OutcomeNone {
		return
	}
	if outcome == OutcomeAttackerVictory && e.objectiveMissing {
		return
	}
	winner := e.city.Faction
	if outcome == OutcomeAttackerVictory {
		winner = e.city.AttackerFaction()
	}
	rewarded := e.deps.Rewarder.DistributeRewards(
		e.city.RegionID, e.city.Center, e.cfg.AnnounceRadius,
		winner, e.cfg.MinimumLevel,
		e.cfg.Rewards.Honor, e.cfg.Rewards.GoldBase, e.cfg.Rewards.GoldPerLevel)
	if rewarded > 0 {
		e.announce(e.expand(e.cfg.Messages.Reward))
		slog.Info("siege rewards distributed",
			"city", e.city.Name, "winner", winner.String(), "players", rewarded)
	}
}

func (e *Event) despawnNatives() {
	for id := range e.natives {
		if a := e.deps.Scene.ActorByID(id); a != nil {
			a.Despawn()
		}
		e.dir.Remove(id)
	}
	clear(e.natives)
}

// respawnObjective asks the host to bring the city leader back after a
// lost defense.
func (e *Event) respawnObjective(outcome Outcome) {
	if outcome != OutcomeAttackerVictory || e.objectiveMissing {
		return
	}
	if obj := e.deps.Scene.ActorByID(e.objectiveID); obj != nil && !obj.IsAlive() {
		obj.Revive()
	}
}

func (e *Event) announce(msg string) {
	if e.cfg.AnnounceRadius > 0 {
		e.deps.Audience.BroadcastNear(e.city.RegionID, e.city.Center, e.cfg.AnnounceRadius, msg)
		return
	}
	e.deps.Audience.Broadcast(msg)
}

func (e *Event) expand(msg string) string {
	return ExpandPlaceholders(msg, map[string]string{
		"CITYNAME": e.city.Name,
		"CITY":     e.city.Name,
		"LEADER":   e.objectiveName,
	})
}
