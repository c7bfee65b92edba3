package siege

import (
	"math"
	"math/rand/v2"

	"github.com/Wishmaster117/mod-city-siege/internal/bot"
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

// Movement tuning shared by NPCs and bots.
const (
	// arrivalThreshold is how close an actor must be to its target
	// before it advances to the next leg.
	arrivalThreshold = 10.0
	// moveJitterRadius spreads move orders around the target so a
	// wave does not stack on a single point.
	moveJitterRadius = 5.0
)

// Mover is the minimal capability the driver needs from anything it
// marches down the path. NPC handles and player-bots both satisfy it
// through thin adapters.
type Mover interface {
	ID() int64
	IsAlive() bool
	Position() model.Point
	// Busy reports the mover cannot accept a new order right now
	// (already moving, or fighting).
	Busy() bool
	OrderMove(target model.Point)
}

// Driver walks every registered mover along the city path: far from
// the current target it issues a move order, close enough it advances
// the directory progress and immediately orders the next leg.
type Driver struct {
	city *City
	dir  *Directory
	rng  *rand.Rand
}

// NewDriver creates a driver for one city's path.
func NewDriver(city *City, dir *Directory, rng *rand.Rand) *Driver {
	return &Driver{city: city, dir: dir, rng: rng}
}

// Tick advances all movers one step. Dead, unregistered and busy
// movers are skipped; their progress stays where it was.
func (d *Driver) Tick(movers []Mover) {
	for _, m := range movers {
		d.drive(m)
	}
}

func (d *Driver) drive(m Mover) {
	if !m.IsAlive() || m.Busy() {
		return
	}
	entry, ok := d.dir.Get(m.ID())
	if !ok {
		return
	}

	target := d.city.Target(entry.Progress)
	if m.Position().Distance(target) > arrivalThreshold {
		m.OrderMove(d.jitter(target))
		return
	}

	// Arrived. Advance and immediately head for the next leg so the
	// march never stalls a tick at each waypoint.
	next, advanced := d.dir.Advance(m.ID())
	if !advanced {
		return
	}
	m.OrderMove(d.jitter(d.city.Target(next)))
}

// FirstOrders issues the opening move order for every mover, used at
// combat start.
func (d *Driver) FirstOrders(movers []Mover) {
	for _, m := range movers {
		if !m.IsAlive() {
			continue
		}
		entry, ok := d.dir.Get(m.ID())
		if !ok {
			continue
		}
		m.OrderMove(d.jitter(d.city.Target(entry.Progress)))
	}
}

// jitter offsets the target in the XY plane by up to moveJitterRadius,
// keeping the authored height so hills and ramps stay walkable.
func (d *Driver) jitter(target model.Point) model.Point {
	angle := d.rng.Float64() * 2 * math.Pi
	dist := d.rng.Float64() * moveJitterRadius
	target.X += dist * math.Cos(angle)
	target.Y += dist * math.Sin(angle)
	return target
}

// npcMover adapts a world actor handle to the Mover interface.
type npcMover struct {
	a world.Actor
}

func (m npcMover) ID() int64             { return m.a.ID() }
func (m npcMover) IsAlive() bool         { return m.a.IsAlive() }
func (m npcMover) Position() model.Point { return m.a.Position() }
func (m npcMover) Busy() bool            { return m.a.InCombat() || m.a.IsMoving() }
func (m npcMover) OrderMove(target model.Point) {
	m.a.MoveTo(target)
}

// botMover adapts a player-bot. Bots fight on their own AI, so only
// active travel blocks new orders.
type botMover struct {
	b bot.Actor
}

func (m botMover) ID() int64             { return m.b.ID() }
func (m botMover) IsAlive() bool         { return m.b.IsAlive() }
func (m botMover) Position() model.Point { return m.b.Position() }
func (m botMover) Busy() bool            { return m.b.IsTraveling() }
func (m botMover) OrderMove(target model.Point) {
	m.b.SetTravelTarget(target)
}
