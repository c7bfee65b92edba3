// Package config loads the city siege configuration from yaml with
// sensible defaults for every option, so the module runs without any
// config file at all.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Wishmaster117/mod-city-siege/internal/model"
)

// ErrInvalidConfig wraps all validation failures.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the full module configuration.
type Config struct {
	Enabled  bool   `yaml:"enabled"`
	LogLevel string `yaml:"log_level"`

	// Recurrence window between automatic sieges, in minutes.
	TimerMinMinutes int `yaml:"timer_min_minutes"`
	TimerMaxMinutes int `yaml:"timer_max_minutes"`

	EventDurationMinutes  int `yaml:"event_duration_minutes"`
	NarrativeDelaySeconds int `yaml:"narrative_delay_seconds"`
	YellIntervalSeconds   int `yaml:"yell_interval_seconds"`

	AllowMultipleCities bool `yaml:"allow_multiple_cities"`

	// AnnounceRadius scopes broadcasts around the city center.
	// 0 means server-wide.
	AnnounceRadius float64 `yaml:"announce_radius"`
	MinimumLevel   int32   `yaml:"minimum_level"`

	Spawns    SpawnCounts  `yaml:"spawns"`
	Levels    TierLevels   `yaml:"levels"`
	Scales    TierScales   `yaml:"scales"`
	Respawn   RespawnTimes `yaml:"respawn"`
	Rewards   Rewards      `yaml:"rewards"`
	Messages  Messages     `yaml:"messages"`
	Dialogue  Dialogue     `yaml:"dialogue"`
	Bots      Bots         `yaml:"bots"`
	Weather   Weather      `yaml:"weather"`
	Music     Music        `yaml:"music"`
	Templates Templates    `yaml:"templates"`

	Cities []City `yaml:"cities"`
}

// SpawnCounts sets how many units of each tier a wave contains.
type SpawnCounts struct {
	Minions    int  `yaml:"minions"`
	Elites     int  `yaml:"elites"`
	MiniBosses int  `yaml:"mini_bosses"`
	Leaders    int  `yaml:"leaders"`
	Defenders  int  `yaml:"defenders"`
	DefendCity bool `yaml:"defend_city"`
}

// TierLevels sets the unit level applied per tier.
type TierLevels struct {
	Leader   int32 `yaml:"leader"`
	MiniBoss int32 `yaml:"mini_boss"`
	Elite    int32 `yaml:"elite"`
	Minion   int32 `yaml:"minion"`
	Defender int32 `yaml:"defender"`
}

// TierScales sets visual model scale per tier. Zero keeps the template
// scale.
type TierScales struct {
	Leader   float64 `yaml:"leader"`
	MiniBoss float64 `yaml:"mini_boss"`
}

// RespawnTimes sets the per-tier respawn delays, in seconds.
type RespawnTimes struct {
	Enabled         bool `yaml:"enabled"`
	LeaderSeconds   int  `yaml:"leader_seconds"`
	MiniBossSeconds int  `yaml:"mini_boss_seconds"`
	EliteSeconds    int  `yaml:"elite_seconds"`
	MinionSeconds   int  `yaml:"minion_seconds"`
	DefenderSeconds int  `yaml:"defender_seconds"`
}

// Rewards configures the victory payout.
type Rewards struct {
	Enabled      bool   `yaml:"enabled"`
	Honor        uint32 `yaml:"honor"`
	GoldBase     uint32 `yaml:"gold_base"`
	GoldPerLevel uint32 `yaml:"gold_per_level"`
}

// Messages are the broadcast templates. {CITYNAME} expands to the
// besieged city.
type Messages struct {
	SiegeStart string `yaml:"siege_start"`
	SiegeEnd   string `yaml:"siege_end"`
	Reward     string `yaml:"reward"`
}

// Dialogue holds the narrative scripts and combat yells. Scripts are
// separated by '|', lines within a script by ';'. Lines may use the
// {LEADER} and {CITY} placeholders.
type Dialogue struct {
	LeaderSpawnYell string `yaml:"leader_spawn_yell"`
	CombatYells     string `yaml:"combat_yells"`
	AllianceScripts string `yaml:"alliance_scripts"`
	HordeScripts    string `yaml:"horde_scripts"`
}

// Bots configures optional player-bot participation.
type Bots struct {
	Enabled             bool  `yaml:"enabled"`
	MinLevel            int32 `yaml:"min_level"`
	MaxDefenders        int   `yaml:"max_defenders"`
	MaxAttackers        int   `yaml:"max_attackers"`
	RespawnDelaySeconds int   `yaml:"respawn_delay_seconds"`
}

// Weather configures the siege weather override.
type Weather struct {
	Enabled bool    `yaml:"enabled"`
	Type    int32   `yaml:"type"`
	Grade   float64 `yaml:"grade"`
}

// Music configures the phase music cues. Zero disables a cue.
type Music struct {
	Enabled   bool  `yaml:"enabled"`
	Narrative int32 `yaml:"narrative"`
	Combat    int32 `yaml:"combat"`
	Victory   int32 `yaml:"victory"`
	Defeat    int32 `yaml:"defeat"`
}

// SideTemplates lists the creature templates one faction fields.
// Leaders is the pool the attacking warlord is drawn from at random.
type SideTemplates struct {
	Minion   int32   `yaml:"minion"`
	Elite    int32   `yaml:"elite"`
	MiniBoss int32   `yaml:"mini_boss"`
	Defender int32   `yaml:"defender"`
	Leaders  []int32 `yaml:"leaders"`
}

// Templates groups the tier templates per faction.
type Templates struct {
	Alliance SideTemplates `yaml:"alliance"`
	Horde    SideTemplates `yaml:"horde"`
}

// City describes one siegeable city.
type City struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
	// RegionID is the map the city lives on.
	RegionID int32 `yaml:"region_id"`
	// Faction owning the city: "alliance" or "horde".
	Faction string `yaml:"faction"`

	// Center anchors announcements, rewards and ambience.
	Center model.Point `yaml:"center"`
	// Rally is where the attacking wave forms up.
	Rally model.Point `yaml:"rally"`
	// Objective is where the city leader stands.
	Objective model.Point `yaml:"objective"`
	// ObjectiveTemplate identifies the city leader to kill.
	ObjectiveTemplate int32 `yaml:"objective_template"`

	// Waypoints lead from the rally point to the objective.
	Waypoints []model.Point `yaml:"waypoints"`
}

// TimerMin returns the lower recurrence bound.
func (c *Config) TimerMin() time.Duration {
	return time.Duration(c.TimerMinMinutes) * time.Minute
}

// TimerMax returns the upper recurrence bound.
func (c *Config) TimerMax() time.Duration {
	return time.Duration(c.TimerMaxMinutes) * time.Minute
}

// EventDuration returns how long a siege runs before defenders win.
func (c *Config) EventDuration() time.Duration {
	return time.Duration(c.EventDurationMinutes) * time.Minute
}

// NarrativeDelay returns the roleplay phase length.
func (c *Config) NarrativeDelay() time.Duration {
	return time.Duration(c.NarrativeDelaySeconds) * time.Second
}

// YellInterval returns the pause between scripted lines and taunts.
func (c *Config) YellInterval() time.Duration {
	return time.Duration(c.YellIntervalSeconds) * time.Second
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks the config for contradictions.
func (c *Config) Validate() error {
	if c.TimerMinMinutes <= 0 || c.TimerMaxMinutes < c.TimerMinMinutes {
		return fmt.Errorf("%w: timer window [%d, %d] minutes", ErrInvalidConfig, c.TimerMinMinutes, c.TimerMaxMinutes)
	}
	if c.EventDurationMinutes <= 0 {
		return fmt.Errorf("%w: event duration %d minutes", ErrInvalidConfig, c.EventDurationMinutes)
	}
	if c.NarrativeDelaySeconds < 0 || c.YellIntervalSeconds <= 0 {
		return fmt.Errorf("%w: narrative delay %ds, yell interval %ds", ErrInvalidConfig, c.NarrativeDelaySeconds, c.YellIntervalSeconds)
	}
	seen := make(map[string]struct{}, len(c.Cities))
	for i := range c.Cities {
		city := &c.Cities[i]
		if city.Name == "" {
			return fmt.Errorf("%w: city %d has no name", ErrInvalidConfig, i)
		}
		key := strings.ToLower(city.Name)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%w: duplicate city %q", ErrInvalidConfig, city.Name)
		}
		seen[key] = struct{}{}
		switch strings.ToLower(city.Faction) {
		case "alliance", "horde":
		default:
			return fmt.Errorf("%w: city %q faction %q", ErrInvalidConfig, city.Name, city.Faction)
		}
		if city.ObjectiveTemplate <= 0 {
			return fmt.Errorf("%w: city %q has no objective template", ErrInvalidConfig, city.Name)
		}
	}
	return nil
}

// Load reads the config at path on top of the defaults. A missing file
// is not an error: defaults are returned so the module can run without
// any configuration.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("config file not found, using defaults", "path", path)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Info("config loaded", "path", path, "cities", len(cfg.Cities))
	return cfg, nil
}

// Default returns the stock configuration with all eight capitals.
func Default() *Config {
	return &Config{
		Enabled:  true,
		LogLevel: "info",

		TimerMinMinutes:       120,
		TimerMaxMinutes:       240,
		EventDurationMinutes:  30,
		NarrativeDelaySeconds: 150,
		YellIntervalSeconds:   30,

		AllowMultipleCities: false,
		AnnounceRadius:      1500,
		MinimumLevel:        1,

		Spawns: SpawnCounts{
			Minions:    15,
			Elites:     5,
			MiniBosses: 2,
			Leaders:    1,
			Defenders:  10,
			DefendCity: true,
		},
		Levels: TierLevels{
			Leader:   80,
			MiniBoss: 80,
			Elite:    75,
			Minion:   70,
			Defender: 70,
		},
		Scales: TierScales{
			Leader:   1.6,
			MiniBoss: 1.3,
		},
		Respawn: RespawnTimes{
			Enabled:         true,
			LeaderSeconds:   300,
			MiniBossSeconds: 180,
			EliteSeconds:    120,
			MinionSeconds:   60,
			DefenderSeconds: 45,
		},
		Rewards: Rewards{
			Enabled:      true,
			Honor:        100,
			GoldBase:     5000,
			GoldPerLevel: 5000,
		},
		Messages: Messages{
			SiegeStart: "[City Siege] The city of {CITYNAME} is under attack! Defenders are needed!",
			SiegeEnd:   "[City Siege] The siege of {CITYNAME} has ended!",
			Reward:     "[City Siege] You have been rewarded for defending {CITYNAME}!",
		},
		Dialogue: Dialogue{
			LeaderSpawnYell: "This city will fall before our might!",
			CombatYells:     "Your defenses crumble!;This city will burn!;Face your doom!;None can stand against us!;Your leaders will fall!",
			AllianceScripts: defaultAllianceScripts,
			HordeScripts:    defaultHordeScripts,
		},
		Bots: Bots{
			Enabled:             false,
			MinLevel:            70,
			MaxDefenders:        20,
			MaxAttackers:        20,
			RespawnDelaySeconds: 30,
		},
		Weather: Weather{
			Enabled: true,
			Type:    4, // medium rain
			Grade:   0.8,
		},
		Music: Music{
			Enabled:   true,
			Narrative: 11803,
			Combat:    11804,
			Victory:   16039,
			Defeat:    14127,
		},
		Templates: Templates{
			Alliance: SideTemplates{
				Minion:   17919,
				Elite:    17920,
				MiniBoss: 17921,
				Defender: 17919,
				Leaders:  []int32{29611, 2784, 7999, 17468},
			},
			Horde: SideTemplates{
				Minion:   17932,
				Elite:    17933,
				MiniBoss: 17934,
				Defender: 17932,
				Leaders:  []int32{4949, 3057, 10181, 16802},
			},
		},
		Cities: defaultCities(),
	}
}

func defaultCities() []City {
	return []City{
		{
			Name: "Stormwind", Enabled: true, RegionID: 0, Faction: "alliance",
			Center:            model.NewPoint(-8913.23, 554.633, 93.7944),
			Rally:             model.NewPoint(-9161.16, 353.365, 88.117),
			Objective:         model.NewPoint(-8442.578, 334.6064, 122.476685),
			ObjectiveTemplate: 29611,
		},
		{
			Name: "Ironforge", Enabled: true, RegionID: 0, Faction: "alliance",
			Center:            model.NewPoint(-4981.25, -881.542, 501.660),
			Rally:             model.NewPoint(-5174.09, -594.361, 397.853),
			Objective:         model.NewPoint(-4981.25, -881.542, 501.660),
			ObjectiveTemplate: 2784,
		},
		{
			Name: "Darnassus", Enabled: true, RegionID: 1, Faction: "alliance",
			Center:            model.NewPoint(9947.52, 2482.73, 1316.21),
			Rally:             model.NewPoint(9887.36, 1856.49, 1317.14),
			Objective:         model.NewPoint(9947.52, 2482.73, 1316.21),
			ObjectiveTemplate: 7999,
		},
		{
			Name: "Exodar", Enabled: true, RegionID: 530, Faction: "alliance",
			Center:            model.NewPoint(-3864.92, -11643.7, -137.644),
			Rally:             model.NewPoint(-4080.80, -12193.2, 1.712),
			Objective:         model.NewPoint(-3864.92, -11643.7, -137.644),
			ObjectiveTemplate: 17468,
		},
		{
			Name: "Orgrimmar", Enabled: true, RegionID: 1, Faction: "horde",
			Center:            model.NewPoint(1633.75, -4439.39, 15.4396),
			Rally:             model.NewPoint(1114.96, -4374.63, 25.813),
			Objective:         model.NewPoint(1633.75, -4439.39, 15.4396),
			ObjectiveTemplate: 4949,
		},
		{
			Name: "Undercity", Enabled: true, RegionID: 0, Faction: "horde",
			Center:            model.NewPoint(1633.75, 240.167, -43.1034),
			Rally:             model.NewPoint(1982.26, 226.674, 35.951),
			Objective:         model.NewPoint(1633.75, 240.167, -43.1034),
			ObjectiveTemplate: 10181,
		},
		{
			Name: "ThunderBluff", Enabled: true, RegionID: 1, Faction: "horde",
			Center:            model.NewPoint(-1043.11, 285.809, 135.165),
			Rally:             model.NewPoint(-1558.61, -5.071, 5.384),
			Objective:         model.NewPoint(-1043.11, 285.809, 135.165),
			ObjectiveTemplate: 3057,
		},
		{
			Name: "Silvermoon", Enabled: true, RegionID: 530, Faction: "horde",
			Center:            model.NewPoint(9338.74, -7277.27, 13.7014),
			Rally:             model.NewPoint(9230.47, -6962.67, 5.004),
			Objective:         model.NewPoint(9338.74, -7277.27, 13.7014),
			ObjectiveTemplate: 16802,
		},
	}
}

const defaultAllianceScripts = "Citizens of {CITY}, your time has come! We march under the banner of the Alliance!;" +
	"{LEADER}, your people cry out for mercy, but you have shown none to ours!;" +
	"We have crossed mountains and seas to bring justice to {CITY}. Surrender now, or face annihilation!;" +
	"The Light guides our blades, and the might of Stormwind stands behind us. Your defenses will crumble!;" +
	"This ends today! {LEADER}, come forth and face the Alliance, or watch {CITY} burn!|" +
	"The Alliance has gathered its greatest heroes for this assault on {CITY}. You cannot stand against us!;" +
	"{LEADER}, your leadership has made the Horde enemies it cannot defeat! We will tear down these walls!;" +
	"Too long have you raided our villages and slaughtered our people. Today, we bring the war to {CITY}!;" +
	"Your shamans' magic cannot protect you. Our priests and paladins have blessed this army!;" +
	"Prepare to face the wrath of the Alliance! {LEADER}, your reign over {CITY} ends here and now!|" +
	"By order of King Varian Wrynn, {CITY} is to be taken! Resistance is futile!;" +
	"{LEADER}! Come forth and face us, or hide like a coward while your people suffer!;" +
	"The Horde's reign of terror ends here at {CITY}. We will show no mercy to those who threaten peace!;" +
	"Our siege engines are ready. The walls of {CITY} mean nothing to the might of the Alliance!;" +
	"For every innocent killed by Horde aggression, {LEADER}, you will pay with your life!"

const defaultHordeScripts = "The Horde has come to claim {CITY}! Your precious Alliance ends today!;" +
	"{LEADER}, you have oppressed our people for the last time! Come out and face your fate!;" +
	"We are not savages - we are warriors! And today, we show {CITY} what true strength means!;" +
	"Your guards are weak. Your walls are weak. {LEADER} hides in the throne room while we stand at the gates!;" +
	"Blood and honor! Today we prove that the Horde is the superior force in Azeroth!|" +
	"Citizens of {CITY}, flee while you can! We have come for your leaders, not for you!;" +
	"{LEADER}! Your reign of tyranny over {CITY} ends today! The throne will belong to the Horde!;" +
	"You call us monsters, but it is YOU who started this war! We finish it today at {CITY}!;" +
	"The spirits of our ancestors guide us. No amount of Light magic will save {CITY} from our wrath!;" +
	"Lok'tar Ogar! {LEADER}, today you fall, and the Horde claims {CITY}!|" +
	"The Warchief has sent his finest warriors to end Alliance tyranny at {CITY} once and for all!;" +
	"Your pitiful city guard cannot stop the Horde war machine! {LEADER}, your time has come!;" +
	"We march for honor! We march for glory! We march to prove that the Horde will take {CITY}!;" +
	"Every siege tower, every warrior, every drop of blood spilled today at {CITY} - it all leads to YOUR defeat!;" +
	"{LEADER}, the Alliance has grown soft under your leadership. Today at {CITY}, the Horde reminds you why you should fear us!"
