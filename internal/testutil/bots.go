package testutil

import (
	"github.com/Wishmaster117/mod-city-siege/internal/bot"
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

// FakeBot is a scriptable bot.Actor.
type FakeBot struct {
	IDVal      int64
	NameVal    string
	FactionVal world.Faction
	LevelVal   int32
	Alive      bool
	BusyVal    bool
	Pos        model.Point
	Region     int32
	PvPVal     bool
	Traveling  bool

	Strategies map[string]bool

	Teleports     []model.Point
	TravelTargets []model.Point
	Revives       int
}

// NewFakeBot creates an idle, alive bot.
func NewFakeBot(id int64, faction world.Faction, level int32) *FakeBot {
	return &FakeBot{
		IDVal:      id,
		NameVal:    "bot",
		FactionVal: faction,
		LevelVal:   level,
		Alive:      true,
		Strategies: make(map[string]bool),
	}
}

func (b *FakeBot) ID() int64              { return b.IDVal }
func (b *FakeBot) Name() string           { return b.NameVal }
func (b *FakeBot) Faction() world.Faction { return b.FactionVal }
func (b *FakeBot) Level() int32           { return b.LevelVal }
func (b *FakeBot) IsAlive() bool          { return b.Alive }
func (b *FakeBot) Busy() bool             { return b.BusyVal }
func (b *FakeBot) Position() model.Point  { return b.Pos }
func (b *FakeBot) RegionID() int32        { return b.Region }

func (b *FakeBot) Teleport(regionID int32, pos model.Point) {
	b.Region = regionID
	b.Pos = pos
	b.Teleports = append(b.Teleports, pos)
}

func (b *FakeBot) Revive() {
	b.Alive = true
	b.Revives++
}

func (b *FakeBot) PvP() bool           { return b.PvPVal }
func (b *FakeBot) SetPvP(enabled bool) { b.PvPVal = enabled }

func (b *FakeBot) HasStrategy(name string) bool { return b.Strategies[name] }
func (b *FakeBot) AddStrategy(name string)      { b.Strategies[name] = true }
func (b *FakeBot) RemoveStrategy(name string)   { delete(b.Strategies, name) }

func (b *FakeBot) SetTravelTarget(pos model.Point) {
	b.TravelTargets = append(b.TravelTargets, pos)
}

func (b *FakeBot) IsTraveling() bool { return b.Traveling }

// FakeBots is a fixed bot roster implementing bot.Integration.
type FakeBots struct {
	Roster []*FakeBot
}

func (f *FakeBots) Eligible(faction world.Faction, minLevel int32) []bot.Actor {
	var out []bot.Actor
	for _, b := range f.Roster {
		if b.FactionVal == faction && b.LevelVal >= minLevel && b.Alive && !b.BusyVal {
			out = append(out, b)
		}
	}
	return out
}

func (f *FakeBots) ActorByID(id int64) bot.Actor {
	for _, b := range f.Roster {
		if b.IDVal == id {
			return b
		}
	}
	return nil
}
