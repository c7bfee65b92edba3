package siege

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wishmaster117/mod-city-siege/internal/bot"
	"github.com/Wishmaster117/mod-city-siege/internal/config"
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/testutil"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

type eventFixture struct {
	cfg    *config.Config
	city   *City
	scene  *testutil.FakeScene
	aud    *testutil.FakeAudience
	amb    *testutil.FakeAmbience
	rew    *testutil.FakeRewarder
	leader *testutil.FakeActor
	event  *Event
	t0     time.Time
}

// newEventFixture opens a siege against a small city with the leader
// standing at the objective. withLeader=false simulates a missing
// objective actor.
func newEventFixture(t *testing.T, cfg *config.Config, withLeader bool, bots bot.Integration, waypoints ...model.Point) *eventFixture {
	t.Helper()

	city := waypointCity(waypoints...)
	scene := testutil.NewFakeScene()

	var leader *testutil.FakeActor
	if withLeader {
		leader = scene.Place(&testutil.FakeActor{
			Template: city.ObjectiveTemplate,
			NameVal:  "King Testus",
			Alive:    true,
			Health:   100,
			Pos:      city.Objective,
		})
	}
	if bots == nil {
		bots = bot.Noop{}
	}

	f := &eventFixture{
		cfg:    cfg,
		city:   city,
		scene:  scene,
		aud:    &testutil.FakeAudience{},
		amb:    &testutil.FakeAmbience{},
		rew:    &testutil.FakeRewarder{Players: 3},
		leader: leader,
		t0:     time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
	f.event = NewEvent(city, cfg, Deps{
		Scene:    scene,
		Audience: f.aud,
		Ambience: f.amb,
		Rewarder: f.rew,
		Bots:     bots,
	}, testRand(), f.t0)
	return f
}

// enterCombatAt fast-forwards through the narrative phase.
func (f *eventFixture) enterCombatAt(t *testing.T) time.Time {
	t.Helper()
	now := f.t0.Add(f.cfg.NarrativeDelay())
	f.event.Tick(now)
	require.Equal(t, PhaseCombat, f.event.Phase())
	return now
}

func (f *eventFixture) broadcastsContaining(sub string) int {
	count := 0
	for _, msg := range f.aud.Broadcasts {
		if strings.Contains(msg, sub) {
			count++
		}
	}
	return count
}

func TestNewEventOpensNarrativePhase(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)

	assert.Equal(t, PhaseNarrative, f.event.Phase())
	assert.Equal(t, OutcomeNone, f.event.Winner())

	// Both armies are up and passive.
	assert.Len(t, f.scene.Spawned, 9, "7 attackers + 2 defenders")
	for _, a := range f.scene.Spawned {
		assert.Equal(t, world.FactionNeutral, a.FactionVal)
		assert.False(t, a.Aggressive)
	}

	// Start announcement and pre-warning went out.
	assert.Equal(t, 1, f.broadcastsContaining("is under attack"))
	assert.Equal(t, 1, f.broadcastsContaining("The assault begins in 100 seconds"))

	// Weather override applied once, narrative music playing.
	require.Len(t, f.amb.Changes, 1)
	assert.Equal(t, f.cfg.Weather.Type, f.amb.Changes[0].Type)
	require.Len(t, f.aud.Music, 1)
	assert.Equal(t, f.cfg.Music.Narrative, f.aud.Music[0])

	// The warlord announced itself.
	yelled := false
	for _, a := range f.scene.Spawned {
		for _, line := range a.Spoken {
			if line == f.cfg.Dialogue.LeaderSpawnYell {
				yelled = true
			}
		}
	}
	assert.True(t, yelled, "leader spawn yell")
}

func TestCountdownAnnouncementsFireOnceDescending(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)

	// 75% mark: 100s delay, crossed at t0+25s.
	f.event.Tick(f.t0.Add(30 * time.Second))
	assert.Equal(t, 1, f.broadcastsContaining("assault on Testholm begins in 70 seconds"))

	// Same tick time again: no duplicate.
	f.event.Tick(f.t0.Add(31 * time.Second))
	assert.Equal(t, 1, f.broadcastsContaining("assault on Testholm"))

	// Jumping past both remaining marks fires them in descending
	// order, one per tick.
	f.event.Tick(f.t0.Add(80 * time.Second))
	assert.Equal(t, 1, f.broadcastsContaining("assault on Testholm begins in 20 seconds"))
	f.event.Tick(f.t0.Add(81 * time.Second))
	assert.Equal(t, 1, f.broadcastsContaining("begins in 19 seconds! Prepare"))
	f.event.Tick(f.t0.Add(82 * time.Second))
	assert.Equal(t, 3, f.broadcastsContaining("assault on Testholm"), "each milestone fires exactly once")
}

func TestNarrativeScriptPlaysSequentially(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)

	f.event.Tick(f.t0.Add(10 * time.Second))
	f.event.Tick(f.t0.Add(20 * time.Second))

	var lines []string
	for _, a := range f.scene.Spawned {
		entry, ok := f.event.dir.Get(a.IDVal)
		if !ok || !entry.Tier.TopTier() {
			continue
		}
		lines = append(lines, a.Spoken...)
	}

	scripted := 0
	for _, line := range lines {
		if line == f.cfg.Dialogue.LeaderSpawnYell {
			continue
		}
		scripted++
		assert.NotContains(t, line, "{LEADER}", "placeholders are bound")
		assert.NotContains(t, line, "{CITY}")
	}
	assert.Equal(t, 2, scripted, "one line per yell interval")
}

func TestCombatTransitionFlipsFactions(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil, model.NewPoint(0, 0, 10))
	f.enterCombatAt(t)

	assert.Equal(t, 1, f.broadcastsContaining("has begun"))
	require.Len(t, f.aud.Music, 2)
	assert.Equal(t, f.cfg.Music.Combat, f.aud.Music[1])

	for _, a := range f.scene.Spawned {
		entry, ok := f.event.dir.Get(a.IDVal)
		require.True(t, ok)
		if entry.Role() == model.RoleDefender {
			assert.Equal(t, world.FactionAlliance, a.FactionVal)
		} else {
			assert.Equal(t, world.FactionHorde, a.FactionVal)
		}
		assert.True(t, a.Aggressive)
		assert.NotEmpty(t, a.MoveOrders, "every unit got its first move order")
	}
}

func TestPhasesAreAcyclic(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	now := f.enterCombatAt(t)

	f.event.Finish(now, OutcomeDefenderVictory)
	require.Equal(t, PhaseEnded, f.event.Phase())

	// Neither ticking nor finishing again moves the event.
	f.event.Tick(now.Add(time.Second))
	f.event.Finish(now.Add(time.Second), OutcomeAttackerVictory)
	assert.Equal(t, PhaseEnded, f.event.Phase())
	assert.Equal(t, OutcomeDefenderVictory, f.event.Winner(), "the first outcome sticks")
}

func TestAttackerVictoryOnObjectiveDeath(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	now := f.enterCombatAt(t)

	f.leader.Kill()
	f.event.Tick(now.Add(time.Second))

	assert.Equal(t, PhaseEnded, f.event.Phase())
	assert.Equal(t, OutcomeAttackerVictory, f.event.Winner())
	assert.Equal(t, 1, f.broadcastsContaining("has fallen to the attackers"))

	// Attackers collect, the leader is brought back for next time.
	require.Equal(t, 1, f.rew.Calls)
	assert.Equal(t, world.FactionHorde, f.rew.Winners[0])
	assert.True(t, f.leader.Revived)

	// Armies are gone, weather reverted exactly once.
	for _, a := range f.scene.Spawned {
		assert.True(t, a.Despawned)
	}
	assert.Len(t, f.amb.Changes, 2)
	assert.Equal(t, world.WeatherState{}, f.amb.Changes[1])
}

func TestDefenderVictoryOnTimeout(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	f.enterCombatAt(t)

	f.event.Tick(f.t0.Add(f.cfg.EventDuration()))

	assert.Equal(t, PhaseEnded, f.event.Phase())
	assert.Equal(t, OutcomeDefenderVictory, f.event.Winner())
	assert.Equal(t, 1, f.broadcastsContaining("repelled the invasion"))
	require.Equal(t, 1, f.rew.Calls)
	assert.Equal(t, world.FactionAlliance, f.rew.Winners[0])
	assert.Equal(t, 1, f.broadcastsContaining("You have been rewarded"))
}

func TestMissingObjectiveForfeitsDefense(t *testing.T) {
	f := newEventFixture(t, testConfig(), false, nil)
	now := f.enterCombatAt(t)

	// The very first combat check decides the siege.
	f.event.Tick(now.Add(time.Second))

	assert.Equal(t, PhaseEnded, f.event.Phase())
	assert.Equal(t, OutcomeAttackerVictory, f.event.Winner())
	assert.Equal(t, 0, f.rew.Calls, "a forfeit pays nobody")
}

func TestStatusBroadcastEveryFiveMinutes(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	now := f.enterCombatAt(t)

	f.leader.Health = 64
	f.event.Tick(now.Add(statusInterval))
	assert.Equal(t, 1, f.broadcastsContaining("rages on"))
	assert.Equal(t, 1, f.broadcastsContaining("64% health"))

	// No repeat until the next interval.
	f.event.Tick(now.Add(statusInterval + time.Second))
	assert.Equal(t, 1, f.broadcastsContaining("rages on"))
	f.event.Tick(now.Add(2*statusInterval + time.Second))
	assert.Equal(t, 2, f.broadcastsContaining("rages on"))
}

func TestCombatTauntsUseThePool(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	now := f.enterCombatAt(t)

	f.event.Tick(now.Add(f.cfg.YellInterval()))

	taunts := SplitLines(f.cfg.Dialogue.CombatYells)
	found := false
	for _, a := range f.scene.Spawned {
		for _, line := range a.Spoken {
			for _, taunt := range taunts {
				if line == taunt {
					found = true
				}
			}
		}
	}
	assert.True(t, found, "a top-tier attacker delivered a taunt")
}

func TestDeadUnitRespawnsWithNewIdentity(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	now := f.enterCombatAt(t)

	// Kill one minion.
	var victim *testutil.FakeActor
	for _, a := range f.scene.Spawned {
		entry, ok := f.event.dir.Get(a.IDVal)
		if ok && entry.Tier == model.TierMinion {
			victim = a
			break
		}
	}
	require.NotNil(t, victim)
	victim.Kill()

	// Death is recorded, nothing respawns before the tier delay.
	f.event.Tick(now.Add(time.Second))
	assert.True(t, f.event.respawn.Pending(victim.IDVal))
	spawnedBefore := len(f.scene.Spawned)

	// After 60s the replacement marches again under a fresh identity.
	delay := time.Duration(f.cfg.Respawn.MinionSeconds) * time.Second
	f.event.Tick(now.Add(delay + 2*time.Second))

	require.Len(t, f.scene.Spawned, spawnedBefore+1)
	replacement := f.scene.Spawned[len(f.scene.Spawned)-1]
	assert.NotEqual(t, victim.IDVal, replacement.IDVal)

	_, oldTracked := f.event.dir.Get(victim.IDVal)
	assert.False(t, oldTracked)
	entry, ok := f.event.dir.Get(replacement.IDVal)
	require.True(t, ok)
	assert.Equal(t, model.TierMinion, entry.Tier)
	assert.Equal(t, world.FactionHorde, replacement.FactionVal, "replacements spawn hostile")
	assert.True(t, replacement.Aggressive)
	assert.NotEmpty(t, replacement.MoveOrders, "the march restarts immediately")
	assert.InDelta(t, f.city.Rally.X, replacement.Pos.X, 1e-9)
}

func TestFinishWithoutOutcomeStaysQuiet(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	now := f.t0.Add(time.Minute)

	f.event.Finish(now, OutcomeNone)

	assert.Equal(t, PhaseEnded, f.event.Phase())
	assert.Equal(t, 0, f.rew.Calls)
	assert.Equal(t, 0, f.broadcastsContaining("repelled"))
	assert.Equal(t, 0, f.broadcastsContaining("fallen"))
	assert.Equal(t, 1, f.broadcastsContaining("has ended"))
}

func TestEventExpiresAfterGrace(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	now := f.t0.Add(time.Minute)

	assert.False(t, f.event.Expired(now))
	f.event.Finish(now, OutcomeDefenderVictory)
	assert.False(t, f.event.Expired(now.Add(purgeGrace-time.Second)))
	assert.True(t, f.event.Expired(now.Add(purgeGrace)))
}

func TestRemainingClampsAtZero(t *testing.T) {
	f := newEventFixture(t, testConfig(), true, nil)
	assert.Equal(t, f.cfg.EventDuration(), f.event.Remaining(f.t0))
	assert.Equal(t, time.Duration(0), f.event.Remaining(f.t0.Add(2*f.cfg.EventDuration())))
}
