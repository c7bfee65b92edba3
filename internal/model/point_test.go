package model

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	a := NewPoint(0, 0, 0)
	b := NewPoint(3, 4, 12)

	if got := a.Distance(b); math.Abs(got-13) > 1e-9 {
		t.Errorf("Distance = %v, want 13", got)
	}
	if got := a.Distance2D(b); math.Abs(got-5) > 1e-9 {
		t.Errorf("Distance2D = %v, want 5", got)
	}
}

func TestWithZ(t *testing.T) {
	p := NewPoint(1, 2, 3).WithZ(9)
	if p.Z != 9 || p.X != 1 || p.Y != 2 {
		t.Errorf("WithZ = %+v", p)
	}
}

func TestIsZero(t *testing.T) {
	if !(Point{}).IsZero() {
		t.Error("zero point should report IsZero")
	}
	if NewPoint(0, 0, 1).IsZero() {
		t.Error("non-zero point should not report IsZero")
	}
}
