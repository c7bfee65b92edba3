package siege

import (
	"time"

	"github.com/Wishmaster117/mod-city-siege/internal/config"
	"github.com/Wishmaster117/mod-city-siege/internal/model"
)

// deathRecord is one pending respawn.
type deathRecord struct {
	id     int64
	tier   model.Tier
	role   model.Role
	diedAt time.Time
}

// RespawnFunc spawns the replacement for a dead actor and transfers its
// directory slot. A nil return means the spawn failed; the record stays
// queued and is retried on the next tick.
type RespawnFunc func(deadID int64, tier model.Tier, role model.Role) (newID int64, ok bool)

// Scheduler queues dead siege units and respawns them at their tier
// anchor once the tier delay has passed. Like the directory it is
// single-writer: only the event loop touches it.
type Scheduler struct {
	cfg     config.RespawnTimes
	pending []deathRecord
	queued  map[int64]struct{}
}

// NewScheduler creates a scheduler using the configured tier delays.
func NewScheduler(cfg config.RespawnTimes) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		queued: make(map[int64]struct{}),
	}
}

// RecordDeath queues a dead actor for respawn. Recording the same
// identity again before it respawns is a no-op, so the caller may
// report deaths every tick without double-queueing.
func (s *Scheduler) RecordDeath(id int64, tier model.Tier, role model.Role, now time.Time) bool {
	if !s.cfg.Enabled {
		return false
	}
	if _, dup := s.queued[id]; dup {
		return false
	}
	s.queued[id] = struct{}{}
	s.pending = append(s.pending, deathRecord{id: id, tier: tier, role: role, diedAt: now})
	return true
}

// ProcessDue respawns every record whose delay has elapsed, calling
// respawn for each. Failed respawns stay queued and are retried next
// tick. Returns the number of successful respawns.
func (s *Scheduler) ProcessDue(now time.Time, respawn RespawnFunc) int {
	respawned := 0
	remaining := s.pending[:0]
	for _, rec := range s.pending {
		if now.Sub(rec.diedAt) < s.Delay(rec.tier) {
			remaining = append(remaining, rec)
			continue
		}
		if _, ok := respawn(rec.id, rec.tier, rec.role); !ok {
			remaining = append(remaining, rec)
			continue
		}
		delete(s.queued, rec.id)
		respawned++
	}
	s.pending = remaining
	return respawned
}

// Pending reports whether the identity is queued for respawn.
func (s *Scheduler) Pending(id int64) bool {
	_, ok := s.queued[id]
	return ok
}

// Len returns the number of queued respawns.
func (s *Scheduler) Len() int { return len(s.pending) }

// Delay returns the respawn delay for a tier.
func (s *Scheduler) Delay(tier model.Tier) time.Duration {
	var seconds int
	switch tier {
	case model.TierLeader:
		seconds = s.cfg.LeaderSeconds
	case model.TierMiniBoss:
		seconds = s.cfg.MiniBossSeconds
	case model.TierElite:
		seconds = s.cfg.EliteSeconds
	case model.TierDefender:
		seconds = s.cfg.DefenderSeconds
	default:
		seconds = s.cfg.MinionSeconds
	}
	return time.Duration(seconds) * time.Second
}
