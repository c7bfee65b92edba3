package model

// Tier classifies siege actors by their place in the attack formation.
type Tier int32

const (
	TierMinion Tier = iota
	TierElite
	TierMiniBoss
	TierLeader
	TierDefender
)

// String returns a human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierMinion:
		return "minion"
	case TierElite:
		return "elite"
	case TierMiniBoss:
		return "mini-boss"
	case TierLeader:
		return "leader"
	case TierDefender:
		return "defender"
	default:
		return "unknown"
	}
}

// TopTier reports whether the tier may deliver narrative lines and taunts.
func (t Tier) TopTier() bool {
	return t == TierLeader || t == TierMiniBoss
}

// Role is the side an actor fights for and determines its travel
// direction along the city waypoint path.
type Role int32

const (
	// RoleAttacker marches from the rally point toward the objective.
	RoleAttacker Role = iota
	// RoleDefender marches from the objective back toward the rally point.
	RoleDefender
)

// String returns a human-readable role name.
func (r Role) String() string {
	if r == RoleDefender {
		return "defender"
	}
	return "attacker"
}
