package siege

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Wishmaster117/mod-city-siege/internal/config"
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/testutil"
)

func orcConfig() *config.Config {
	cfg := testConfig()
	cfg.Cities = []config.City{
		{
			Name: "Testholm", Enabled: true, RegionID: 0, Faction: "alliance",
			Center:            model.NewPoint(0, 0, 10),
			Rally:             model.NewPoint(-100, 0, 10),
			Objective:         model.NewPoint(100, 0, 10),
			ObjectiveTemplate: 1000,
		},
		{
			Name: "Eastkeep", Enabled: true, RegionID: 0, Faction: "horde",
			Center:            model.NewPoint(1000, 0, 10),
			Rally:             model.NewPoint(900, 0, 10),
			Objective:         model.NewPoint(1100, 0, 10),
			ObjectiveTemplate: 2000,
		},
		{
			Name: "Ruinsford", Enabled: false, RegionID: 0, Faction: "horde",
			Center:            model.NewPoint(2000, 0, 10),
			Rally:             model.NewPoint(1900, 0, 10),
			Objective:         model.NewPoint(2100, 0, 10),
			ObjectiveTemplate: 3000,
		},
	}
	return cfg
}

func newTestOrchestrator(cfg *config.Config) (*Orchestrator, *testutil.FakeScene) {
	scene := testutil.NewFakeScene()
	for _, c := range cfg.Cities {
		scene.Place(&testutil.FakeActor{
			Template: c.ObjectiveTemplate,
			NameVal:  c.Name + " Leader",
			Alive:    true,
			Health:   100,
			Pos:      c.Objective,
		})
	}
	orc := New(cfg, Collaborators{
		Locator:  scene,
		Audience: &testutil.FakeAudience{},
		Ambience: &testutil.FakeAmbience{},
		Rewarder: &testutil.FakeRewarder{},
	}, WithRand(testRand()))
	return orc, scene
}

func TestStartSiegeByName(t *testing.T) {
	orc, _ := newTestOrchestrator(orcConfig())
	t0 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	event, err := orc.StartSiege(t0, "testholm")
	require.NoError(t, err, "city lookup is case-insensitive")
	assert.Equal(t, "Testholm", event.City().Name)

	statuses := orc.Status(t0)
	require.Len(t, statuses, 1)
	assert.Equal(t, PhaseNarrative, statuses[0].Phase)
}

func TestStartSiegeRejections(t *testing.T) {
	cfg := orcConfig()
	orc, _ := newTestOrchestrator(cfg)
	t0 := time.Now()

	_, err := orc.StartSiege(t0, "Atlantis")
	assert.ErrorIs(t, err, ErrCityNotFound)

	_, err = orc.StartSiege(t0, "Ruinsford")
	assert.ErrorIs(t, err, ErrCityDisabled)

	_, err = orc.StartSiege(t0, "Testholm")
	require.NoError(t, err)
	_, err = orc.StartSiege(t0, "Testholm")
	assert.ErrorIs(t, err, ErrAlreadyUnderSiege)
}

func TestStartSiegeDisabledModule(t *testing.T) {
	cfg := orcConfig()
	cfg.Enabled = false
	orc, _ := newTestOrchestrator(cfg)

	_, err := orc.StartSiege(time.Now(), "Testholm")
	assert.ErrorIs(t, err, ErrSiegeDisabled)
}

func TestSingleSiegePolicyIsGlobal(t *testing.T) {
	orc, _ := newTestOrchestrator(orcConfig())
	t0 := time.Now()

	_, err := orc.StartSiege(t0, "Testholm")
	require.NoError(t, err)

	// While any siege runs, nothing else starts anywhere.
	_, err = orc.StartSiege(t0, "Eastkeep")
	assert.ErrorIs(t, err, ErrAlreadyUnderSiege)
	_, err = orc.StartSiege(t0, "")
	assert.ErrorIs(t, err, ErrNoEligibleCity)

	// Once it ends, the next siege may begin.
	require.NoError(t, orc.StopSiege(t0.Add(time.Minute), "Testholm"))
	_, err = orc.StartSiege(t0.Add(time.Minute), "Eastkeep")
	assert.NoError(t, err)
}

func TestAllowMultipleCities(t *testing.T) {
	cfg := orcConfig()
	cfg.AllowMultipleCities = true
	orc, _ := newTestOrchestrator(cfg)
	t0 := time.Now()

	first, err := orc.StartSiege(t0, "")
	require.NoError(t, err)
	second, err := orc.StartSiege(t0, "")
	require.NoError(t, err, "parallel sieges allowed")
	assert.NotEqual(t, first.City().Name, second.City().Name)

	// A besieged city stays off limits even with the policy relaxed.
	_, err = orc.StartSiege(t0, first.City().Name)
	assert.ErrorIs(t, err, ErrAlreadyUnderSiege)
	_, err = orc.StartSiege(t0, "")
	assert.ErrorIs(t, err, ErrNoEligibleCity, "both enabled cities are busy")
}

func TestStopSiegeIsAttackerOverride(t *testing.T) {
	orc, _ := newTestOrchestrator(orcConfig())
	t0 := time.Now()

	event, err := orc.StartSiege(t0, "Testholm")
	require.NoError(t, err)

	require.NoError(t, orc.StopSiege(t0.Add(time.Minute), ""))
	assert.Equal(t, PhaseEnded, event.Phase())
	assert.Equal(t, OutcomeAttackerVictory, event.Winner())

	assert.ErrorIs(t, orc.StopSiege(t0, "Eastkeep"), ErrNoActiveSiege)
}

func TestStopSiegeWithoutActive(t *testing.T) {
	orc, _ := newTestOrchestrator(orcConfig())
	assert.ErrorIs(t, orc.StopSiege(time.Now(), ""), ErrNoActiveSiege)
}

func TestCleanupEndsEverything(t *testing.T) {
	cfg := orcConfig()
	cfg.AllowMultipleCities = true
	orc, _ := newTestOrchestrator(cfg)
	t0 := time.Now()

	_, err := orc.StartSiege(t0, "Testholm")
	require.NoError(t, err)
	_, err = orc.StartSiege(t0, "Eastkeep")
	require.NoError(t, err)

	assert.Equal(t, 2, orc.Cleanup(t0.Add(time.Minute)))
	assert.Empty(t, orc.Status(t0))
	assert.Equal(t, 0, orc.Cleanup(t0))
}

func TestTickPurgesExpiredEvents(t *testing.T) {
	orc, _ := newTestOrchestrator(orcConfig())
	t0 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	event, err := orc.StartSiege(t0, "Testholm")
	require.NoError(t, err)
	event.Finish(t0.Add(time.Minute), OutcomeDefenderVictory)

	orc.Tick(t0.Add(time.Minute + 30*time.Second))
	assert.Len(t, orc.Status(t0), 1, "finished events linger through the grace window")

	orc.Tick(t0.Add(2*time.Minute + time.Second))
	assert.Empty(t, orc.Status(t0))
}

func TestTickSchedulesAndStartsSieges(t *testing.T) {
	cfg := orcConfig()
	orc, _ := newTestOrchestrator(cfg)
	t0 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	orc.Tick(t0)
	next := orc.NextSiegeAt()
	require.False(t, next.IsZero())
	assert.False(t, next.Before(t0.Add(cfg.TimerMin())))
	assert.False(t, next.After(t0.Add(cfg.TimerMax())))
	assert.Empty(t, orc.Status(t0), "nothing starts before the timer fires")

	orc.Tick(next)
	assert.Len(t, orc.Status(next), 1, "the scheduled siege started")

	rescheduled := orc.NextSiegeAt()
	assert.True(t, rescheduled.After(next), "the timer rearms")
}

func TestTickDisabledNeverSchedules(t *testing.T) {
	cfg := orcConfig()
	cfg.Enabled = false
	orc, _ := newTestOrchestrator(cfg)

	orc.Tick(time.Now())
	assert.True(t, orc.NextSiegeAt().IsZero())
}

func TestManualControlsSafeAlongsideTicks(t *testing.T) {
	orc, _ := newTestOrchestrator(orcConfig())
	t0 := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	_, err := orc.StartSiege(t0, "Testholm")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 300; i++ {
			orc.Tick(t0.Add(time.Duration(i) * time.Second))
		}
	}()

	// Hammer the control surface while the tick loop runs. Rejections
	// are expected; the point is that nothing trips the race detector.
	for i := 0; i < 100; i++ {
		now := t0.Add(time.Duration(i) * time.Second)
		_ = orc.StopSiege(now, "")
		_, _ = orc.StartSiege(now, "Testholm")
		orc.Status(now)
		orc.Cleanup(now)
	}
	wg.Wait()
}

func TestReconfigureSwapsCatalog(t *testing.T) {
	orc, _ := newTestOrchestrator(orcConfig())

	fresh := orcConfig()
	fresh.Cities = fresh.Cities[:1]
	require.NoError(t, orc.Reconfigure(fresh))

	assert.NotNil(t, orc.CityByName("Testholm"))
	assert.Nil(t, orc.CityByName("Eastkeep"))

	bad := orcConfig()
	bad.Cities[0].Name = ""
	assert.ErrorIs(t, orc.Reconfigure(bad), config.ErrInvalidConfig)
}

func TestCityByName(t *testing.T) {
	orc, _ := newTestOrchestrator(orcConfig())
	require.NotNil(t, orc.CityByName("EASTKEEP"))
	assert.Nil(t, orc.CityByName("Nowhere"))
}
