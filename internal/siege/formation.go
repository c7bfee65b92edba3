package siege

import (
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/Wishmaster117/mod-city-siege/internal/config"
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

// Formation geometry. The attacking wave forms concentric rings around
// the rally point: the leader in the middle, lower tiers on wider
// rings. Defenders form a single ring around the objective.
const (
	formationBaseRadius  = 35.0
	leaderRingRadius     = 3.0
	miniBossRadiusFactor = 0.3
	eliteRadiusFactor    = 0.6
	defenderRingRadius   = 10.0

	// groundClamp lifts spawns slightly above the sampled terrain so
	// units do not clip into the ground.
	groundClamp = 0.5
)

// Spawner places siege waves into a scene and registers every spawned
// identity in the directory.
type Spawner struct {
	scene world.Scene
	dir   *Directory
	cfg   *config.Config
	rng   *rand.Rand
}

// NewSpawner creates a spawner bound to one scene and directory.
func NewSpawner(scene world.Scene, dir *Directory, cfg *config.Config, rng *rand.Rand) *Spawner {
	return &Spawner{scene: scene, dir: dir, cfg: cfg, rng: rng}
}

type ringSpec struct {
	tier     model.Tier
	template int32
	count    int
	level    int32
	scale    float64
	radius   float64
}

// SpawnAttackers places the full attacking wave around the rally point
// and returns the spawned handles. Individual placement failures are
// logged and skipped; the wave fights with whoever made it in.
func (s *Spawner) SpawnAttackers(city *City) []world.Actor {
	side := s.templates(city.AttackerFaction())
	specs := []ringSpec{
		{model.TierLeader, s.leaderTemplate(side), s.cfg.Spawns.Leaders, s.cfg.Levels.Leader, s.cfg.Scales.Leader, leaderRingRadius},
		{model.TierMiniBoss, side.MiniBoss, s.cfg.Spawns.MiniBosses, s.cfg.Levels.MiniBoss, s.cfg.Scales.MiniBoss, formationBaseRadius * miniBossRadiusFactor},
		{model.TierElite, side.Elite, s.cfg.Spawns.Elites, s.cfg.Levels.Elite, 0, formationBaseRadius * eliteRadiusFactor},
		{model.TierMinion, side.Minion, s.cfg.Spawns.Minions, s.cfg.Levels.Minion, 0, formationBaseRadius},
	}

	var actors []world.Actor
	for _, spec := range specs {
		actors = append(actors, s.spawnRing(city, city.Rally, model.RoleAttacker, spec)...)
	}
	return actors
}

// SpawnDefenders places the defender ring around the objective.
func (s *Spawner) SpawnDefenders(city *City) []world.Actor {
	side := s.templates(city.Faction)
	spec := ringSpec{
		tier:     model.TierDefender,
		template: side.Defender,
		count:    s.cfg.Spawns.Defenders,
		level:    s.cfg.Levels.Defender,
		radius:   defenderRingRadius,
	}
	return s.spawnRing(city, city.Objective, model.RoleDefender, spec)
}

// SpawnReplacement places a single unit of the tier at its role's
// anchor and reassigns the dead identity's slot to it. Returns nil
// when the host rejects the placement; the caller retries later.
func (s *Spawner) SpawnReplacement(city *City, deadID int64, tier model.Tier, role model.Role) world.Actor {
	anchor := city.Anchor(role)
	pos := s.groundAt(anchor)

	actor := s.scene.SpawnActor(s.templateFor(city, tier, role), pos)
	if actor == nil {
		return nil
	}
	s.applyStats(actor, tier)

	if err := s.dir.Reassign(deadID, actor.ID()); err != nil {
		slog.Error("respawn reassign failed",
			"city", city.Name, "tier", tier.String(), "error", err)
		actor.Despawn()
		return nil
	}

	slog.Debug("siege unit respawned",
		"city", city.Name, "tier", tier.String(), "role", role.String(), "id", actor.ID())
	return actor
}

func (s *Spawner) spawnRing(city *City, anchor model.Point, role model.Role, spec ringSpec) []world.Actor {
	if spec.count <= 0 {
		return nil
	}

	actors := make([]world.Actor, 0, spec.count)
	angleStep := 2 * math.Pi / float64(spec.count)
	for i := 0; i < spec.count; i++ {
		angle := angleStep * float64(i)
		pos := s.groundAt(model.Point{
			X: anchor.X + spec.radius*math.Cos(angle),
			Y: anchor.Y + spec.radius*math.Sin(angle),
			Z: anchor.Z,
		})

		actor := s.scene.SpawnActor(spec.template, pos)
		if actor == nil {
			slog.Warn("siege spawn rejected",
				"city", city.Name, "tier", spec.tier.String(), "template", spec.template)
			continue
		}
		s.applyStats(actor, spec.tier)

		if err := s.dir.Register(actor.ID(), spec.tier, role); err != nil {
			slog.Error("siege spawn registration failed",
				"city", city.Name, "id", actor.ID(), "error", err)
			actor.Despawn()
			continue
		}
		actors = append(actors, actor)
	}

	slog.Debug("siege ring spawned",
		"city", city.Name, "tier", spec.tier.String(), "role", role.String(),
		"requested", spec.count, "spawned", len(actors))
	return actors
}

// applyStats sets tier level and scale and puts the unit into the
// passive narrative stance. Combat entry flips factions later.
func (s *Spawner) applyStats(actor world.Actor, tier model.Tier) {
	switch tier {
	case model.TierLeader:
		actor.SetLevel(s.cfg.Levels.Leader)
		if s.cfg.Scales.Leader > 0 {
			actor.SetScale(s.cfg.Scales.Leader)
		}
	case model.TierMiniBoss:
		actor.SetLevel(s.cfg.Levels.MiniBoss)
		if s.cfg.Scales.MiniBoss > 0 {
			actor.SetScale(s.cfg.Scales.MiniBoss)
		}
	case model.TierElite:
		actor.SetLevel(s.cfg.Levels.Elite)
	case model.TierMinion:
		actor.SetLevel(s.cfg.Levels.Minion)
	case model.TierDefender:
		actor.SetLevel(s.cfg.Levels.Defender)
	}
	actor.SetFaction(world.FactionNeutral)
	actor.SetAggressive(false)
}

// groundAt snaps a position to the terrain when the scene can sample
// it, keeping the authored height otherwise.
func (s *Spawner) groundAt(p model.Point) model.Point {
	if z, ok := s.scene.GroundHeight(p.X, p.Y, p.Z+50); ok {
		p.Z = z + groundClamp
	}
	return p
}

func (s *Spawner) templates(f world.Faction) config.SideTemplates {
	if f == world.FactionHorde {
		return s.cfg.Templates.Horde
	}
	return s.cfg.Templates.Alliance
}

// leaderTemplate draws the attacking warlord from the faction pool.
func (s *Spawner) leaderTemplate(side config.SideTemplates) int32 {
	if len(side.Leaders) == 0 {
		return side.MiniBoss
	}
	return side.Leaders[s.rng.IntN(len(side.Leaders))]
}

func (s *Spawner) templateFor(city *City, tier model.Tier, role model.Role) int32 {
	if role == model.RoleDefender {
		return s.templates(city.Faction).Defender
	}
	side := s.templates(city.AttackerFaction())
	switch tier {
	case model.TierLeader:
		return s.leaderTemplate(side)
	case model.TierMiniBoss:
		return side.MiniBoss
	case model.TierElite:
		return side.Elite
	default:
		return side.Minion
	}
}
