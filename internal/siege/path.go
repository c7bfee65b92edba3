package siege

import (
	"github.com/Wishmaster117/mod-city-siege/internal/model"
)

// Progress tracks how far an actor has come along the city path.
// Attackers count up from waypoint 0 toward the objective; defenders
// count down from the last waypoint toward the rally point. For a path
// of n waypoints the attacker terminal index is n (the objective) and
// the defender terminal index is 0 (the rally point).
type Progress struct {
	Role  model.Role
	Index int
}

// StartProgress returns the initial progress for a role on a path of
// waypointCount waypoints.
func StartProgress(role model.Role, waypointCount int) Progress {
	if role == model.RoleDefender {
		return Progress{Role: role, Index: waypointCount}
	}
	return Progress{Role: role, Index: 0}
}

// AtTerminal reports whether the progress already points past the last
// leg of the march.
func (p Progress) AtTerminal(waypointCount int) bool {
	if p.Role == model.RoleDefender {
		return p.Index <= 0
	}
	return p.Index >= waypointCount
}

// Advance moves one leg forward in the role's travel direction,
// clamping at the terminal index. ok is false when the progress was
// already terminal and nothing changed.
func (p Progress) Advance(waypointCount int) (next Progress, ok bool) {
	if p.AtTerminal(waypointCount) {
		return p, false
	}
	if p.Role == model.RoleDefender {
		p.Index--
	} else {
		p.Index++
	}
	return p, true
}

// Target resolves the position the progress currently points at:
// an intermediate waypoint, or the role's final destination (objective
// for attackers, rally point for defenders).
func (c *City) Target(p Progress) model.Point {
	n := len(c.Waypoints)
	if p.Role == model.RoleDefender {
		// Defender index i targets waypoint i-1; index 0 targets rally.
		if p.Index <= 0 || p.Index > n {
			return c.Rally
		}
		return c.Waypoints[p.Index-1]
	}
	if p.Index < 0 || p.Index >= n {
		return c.Objective
	}
	return c.Waypoints[p.Index]
}
