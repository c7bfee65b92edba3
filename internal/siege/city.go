// Package siege implements recurring city siege events: an attacking
// army spawns outside a capital, marches a waypoint path to the city
// leader and fights until the leader falls or the clock runs out.
package siege

import (
	"strings"

	"github.com/Wishmaster117/mod-city-siege/internal/config"
	"github.com/Wishmaster117/mod-city-siege/internal/model"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

// City is one siegeable capital.
type City struct {
	Name     string
	Enabled  bool
	RegionID int32
	// Faction owns and defends the city.
	Faction world.Faction

	// Center anchors announcements, rewards and ambience.
	Center model.Point
	// Rally is where the attacking wave forms up.
	Rally model.Point
	// Objective is where the city leader stands.
	Objective model.Point
	// ObjectiveTemplate identifies the city leader to kill.
	ObjectiveTemplate int32

	// Waypoints lead from the rally point to the objective. May be
	// empty: attackers then march straight at the objective.
	Waypoints []model.Point
}

// AttackerFaction returns the faction assaulting the city.
func (c *City) AttackerFaction() world.Faction {
	return c.Faction.Opposing()
}

// Anchor returns the spawn anchor for a role: the rally point for
// attackers, the objective for defenders.
func (c *City) Anchor(role model.Role) model.Point {
	if role == model.RoleDefender {
		return c.Objective
	}
	return c.Rally
}

// CitiesFromConfig builds the city catalog from config blocks.
func CitiesFromConfig(cfg *config.Config) []*City {
	cities := make([]*City, 0, len(cfg.Cities))
	for i := range cfg.Cities {
		cc := &cfg.Cities[i]
		faction := world.FactionAlliance
		if strings.EqualFold(cc.Faction, "horde") {
			faction = world.FactionHorde
		}
		cities = append(cities, &City{
			Name:              cc.Name,
			Enabled:           cc.Enabled,
			RegionID:          cc.RegionID,
			Faction:           faction,
			Center:            cc.Center,
			Rally:             cc.Rally,
			Objective:         cc.Objective,
			ObjectiveTemplate: cc.ObjectiveTemplate,
			Waypoints:         cc.Waypoints,
		})
	}
	return cities
}
