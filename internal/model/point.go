package model

import "math"

// Point is a position in the game world. Value type, passed by value.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// NewPoint creates a Point with the given coordinates.
func NewPoint(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// Distance returns the full 3D distance to another point.
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Distance2D returns the distance to another point in the XY plane.
func (p Point) Distance2D(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// WithZ returns a new Point with the Z coordinate replaced.
func (p Point) WithZ(z float64) Point {
	p.Z = z
	return p
}

// IsZero reports whether all coordinates are zero.
// Zero waypoints in config are treated as unset.
func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0
}
