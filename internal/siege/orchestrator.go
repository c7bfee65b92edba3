package siege

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Wishmaster117/mod-city-siege/internal/bot"
	"github.com/Wishmaster117/mod-city-siege/internal/config"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

var (
	// ErrSiegeDisabled is returned when the module is switched off.
	ErrSiegeDisabled = errors.New("city siege is disabled")
	// ErrCityNotFound is returned for names outside the catalog.
	ErrCityNotFound = errors.New("city not found")
	// ErrCityDisabled is returned for cities excluded from sieges.
	ErrCityDisabled = errors.New("city is disabled")
	// ErrAlreadyUnderSiege is returned when the single-siege policy
	// rejects a second event.
	ErrAlreadyUnderSiege = errors.New("city is already under siege")
	// ErrNoActiveSiege is returned by stop when nothing runs.
	ErrNoActiveSiege = errors.New("no active siege")
	// ErrNoEligibleCity is returned when every city is disabled or
	// already besieged.
	ErrNoEligibleCity = errors.New("no eligible city")
	// ErrSceneUnavailable is returned when the city's region cannot
	// be resolved.
	ErrSceneUnavailable = errors.New("scene unavailable")
)

// Collaborators are the host-world services the orchestrator hands to
// every event it starts.
type Collaborators struct {
	Locator  world.Locator
	Audience world.Audience
	Ambience world.Ambience
	Rewarder world.Rewarder
	Bots     bot.Integration
}

// EventStatus is a point-in-time snapshot for status queries.
type EventStatus struct {
	City      string
	Phase     Phase
	Winner    Outcome
	Remaining time.Duration
}

// Orchestrator owns the siege schedule: it starts events on a random
// recurrence timer, ticks them, purges them after their grace window
// and exposes the manual controls the admin surface maps onto.
//
// Events are only ever touched while the mutex is held: Tick, the
// manual controls and status queries all serialize on it, so they may
// run on different goroutines.
type Orchestrator struct {
	mu     sync.RWMutex
	cfg    *config.Config
	cities []*City
	collab Collaborators
	rng    *rand.Rand

	active      []*Event
	nextSiegeAt time.Time
}

// Option tweaks orchestrator construction.
type Option func(*Orchestrator)

// WithRand injects a deterministic random source for tests.
func WithRand(rng *rand.Rand) Option {
	return func(o *Orchestrator) { o.rng = rng }
}

// New creates an orchestrator over the configured city catalog. The
// first automatic siege is scheduled on the first Tick.
func New(cfg *config.Config, collab Collaborators, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:    cfg,
		cities: CitiesFromConfig(cfg),
		collab: collab,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(o)
	}

	if collab.Bots == nil {
		o.collab.Bots = bot.Noop{}
	}

	slog.Info("city siege orchestrator ready",
		"enabled", cfg.Enabled,
		"cities", len(o.cities),
		"recurrence_min", cfg.TimerMin(),
		"recurrence_max", cfg.TimerMax())
	return o
}

// Tick advances every active event, purges finished ones and starts
// the next scheduled siege when its timer fires.
func (o *Orchestrator) Tick(now time.Time) {
	o.mu.Lock()
	for _, e := range o.active {
		e.Tick(now)
	}
	o.purgeLocked(now)

	if !o.cfg.Enabled {
		o.mu.Unlock()
		return
	}
	if o.nextSiegeAt.IsZero() {
		o.scheduleNextLocked(now)
	}
	due := !now.Before(o.nextSiegeAt)
	if due {
		o.scheduleNextLocked(now)
	}
	o.mu.Unlock()

	if due {
		if _, err := o.StartSiege(now, ""); err != nil {
			slog.Warn("scheduled siege skipped", "error", err)
		}
	}
}

// StartSiege begins a siege immediately. An empty cityName picks a
// random eligible city. A city under siege can never be besieged
// again until that siege ends; unless AllowMultipleCities is set, any
// running siege blocks new ones everywhere.
func (o *Orchestrator) StartSiege(now time.Time, cityName string) (*Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.cfg.Enabled {
		return nil, ErrSiegeDisabled
	}

	var city *City
	if cityName == "" {
		eligible := o.eligibleLocked()
		if len(eligible) == 0 {
			return nil, ErrNoEligibleCity
		}
		city = eligible[o.rng.IntN(len(eligible))]
	} else {
		city = o.cityByNameLocked(cityName)
		if city == nil {
			return nil, fmt.Errorf("%w: %q", ErrCityNotFound, cityName)
		}
		if !city.Enabled {
			return nil, fmt.Errorf("%w: %s", ErrCityDisabled, city.Name)
		}
		if o.eventForLocked(city.Name) != nil {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyUnderSiege, city.Name)
		}
		if !o.cfg.AllowMultipleCities && o.anyRunningLocked() {
			return nil, fmt.Errorf("%w: another siege is already running", ErrAlreadyUnderSiege)
		}
	}

	scene := o.collab.Locator.FindScene(city.RegionID)
	if scene == nil {
		return nil, fmt.Errorf("%w: region %d", ErrSceneUnavailable, city.RegionID)
	}

	// Each event carries its own rand so the tick goroutine never
	// shares a source with the control surface.
	eventRNG := rand.New(rand.NewPCG(o.rng.Uint64(), o.rng.Uint64()))
	event := NewEvent(city, o.cfg, Deps{
		Scene:    scene,
		Audience: o.collab.Audience,
		Ambience: o.collab.Ambience,
		Rewarder: o.collab.Rewarder,
		Bots:     o.collab.Bots,
	}, eventRNG, now)
	o.active = append(o.active, event)
	return event, nil
}

// StopSiege force-ends a siege as an attacker victory override. An
// empty cityName stops the only active siege and errors when several
// run at once.
func (o *Orchestrator) StopSiege(now time.Time, cityName string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	event, err := o.findRunningLocked(cityName)
	if err != nil {
		return err
	}
	event.Finish(now, OutcomeAttackerVictory)
	return nil
}

// Cleanup immediately ends every active siege with no winner and drops
// the events without waiting for the grace window.
func (o *Orchestrator) Cleanup(now time.Time) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	events := o.active
	o.active = nil
	for _, e := range events {
		e.Finish(now, OutcomeNone)
	}
	if len(events) > 0 {
		slog.Info("sieges cleaned up", "count", len(events))
	}
	return len(events)
}

// Reconfigure swaps in a new validated config and rebuilds the city
// catalog. Running events keep the snapshot they started with.
func (o *Orchestrator) Reconfigure(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.mu.Lock()
	o.cfg = cfg
	o.cities = CitiesFromConfig(cfg)
	o.mu.Unlock()

	slog.Info("config reloaded", "cities", len(cfg.Cities))
	return nil
}

// Status snapshots every active event.
func (o *Orchestrator) Status(now time.Time) []EventStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	statuses := make([]EventStatus, 0, len(o.active))
	for _, e := range o.active {
		statuses = append(statuses, EventStatus{
			City:      e.City().Name,
			Phase:     e.Phase(),
			Winner:    e.Winner(),
			Remaining: e.Remaining(now),
		})
	}
	return statuses
}

// NextSiegeAt returns when the next automatic siege fires. Zero until
// the first Tick.
func (o *Orchestrator) NextSiegeAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.nextSiegeAt
}

// CityByName resolves a catalog city, nil for unknown names.
func (o *Orchestrator) CityByName(name string) *City {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cityByNameLocked(name)
}

func (o *Orchestrator) findRunningLocked(cityName string) (*Event, error) {
	var running []*Event
	for _, e := range o.active {
		if e.Phase() != PhaseEnded {
			running = append(running, e)
		}
	}
	if cityName == "" {
		switch len(running) {
		case 0:
			return nil, ErrNoActiveSiege
		case 1:
			return running[0], nil
		default:
			return nil, fmt.Errorf("%w: %d sieges active, name one", ErrAlreadyUnderSiege, len(running))
		}
	}
	if event := o.eventForLocked(cityName); event != nil {
		return event, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoActiveSiege, cityName)
}

// purgeLocked drops finished events past their grace window.
func (o *Orchestrator) purgeLocked(now time.Time) {
	kept := o.active[:0]
	for _, e := range o.active {
		if e.Expired(now) {
			slog.Debug("siege event purged", "city", e.City().Name)
			continue
		}
		kept = append(kept, e)
	}
	o.active = kept
}

// scheduleNextLocked draws the next recurrence delay uniformly from
// the configured window.
func (o *Orchestrator) scheduleNextLocked(now time.Time) {
	window := o.cfg.TimerMax() - o.cfg.TimerMin()
	delay := o.cfg.TimerMin()
	if window > 0 {
		delay += time.Duration(o.rng.Int64N(int64(window)))
	}
	o.nextSiegeAt = now.Add(delay)
	slog.Info("next siege scheduled", "at", o.nextSiegeAt, "in", delay)
}

func (o *Orchestrator) eligibleLocked() []*City {
	if !o.cfg.AllowMultipleCities && o.anyRunningLocked() {
		return nil
	}
	var eligible []*City
	for _, c := range o.cities {
		if !c.Enabled || o.eventForLocked(c.Name) != nil {
			continue
		}
		eligible = append(eligible, c)
	}
	return eligible
}

func (o *Orchestrator) anyRunningLocked() bool {
	for _, e := range o.active {
		if e.Phase() != PhaseEnded {
			return true
		}
	}
	return false
}

func (o *Orchestrator) eventForLocked(cityName string) *Event {
	for _, e := range o.active {
		if e.Phase() != PhaseEnded && strings.EqualFold(e.City().Name, cityName) {
			return e
		}
	}
	return nil
}

func (o *Orchestrator) cityByNameLocked(name string) *City {
	for _, c := range o.cities {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}
