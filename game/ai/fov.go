package ai

import "math"

// Supported FOV half-angle classes, in degrees.
const (
	HalfAngle0   = 0
	HalfAngle60  = 60
	HalfAngle90  = 90
	HalfAngle120 = 120
	HalfAngle180 = 180
)

type sinCos struct{ sin, cos float64 }

var halfAngleTable = map[int]sinCos{
	HalfAngle0:   {0, 1},
	HalfAngle60:  {math.Sqrt(3) / 2, 0.5},
	HalfAngle90:  {1, 0},
	HalfAngle120: {math.Sqrt(3) / 2, -0.5},
	HalfAngle180: {0, -1},
}

// FOV is a top-down view cone around a forward direction.
type FOV struct {
	halfAngle int
	sc        sinCos
	left      Vec3
	right     Vec3
}

// NewFOV builds a cone for the given half-angle class. Unsupported classes
// fall back to 90 degrees.
func NewFOV(forward Vec3, halfAngle int) *FOV {
	sc, ok := halfAngleTable[halfAngle]
	if !ok {
		halfAngle = HalfAngle90
		sc = halfAngleTable[HalfAngle90]
	}
	f := &FOV{halfAngle: halfAngle, sc: sc}
	f.UpdateVectors(forward)
	return f
}

// HalfAngle returns the effective half-angle class in degrees.
func (f *FOV) HalfAngle() int { return f.halfAngle }

// Boundaries returns the two boundary directions.
func (f *FOV) Boundaries() (left, right Vec3) { return f.left, f.right }

// UpdateVectors recomputes the boundary vectors for a new forward direction.
func (f *FOV) UpdateVectors(forward Vec3) {
	fw := forward.Flat().Norm()
	f.left = fw.RotateY(-f.sc.sin, f.sc.cos)
	f.right = fw.RotateY(f.sc.sin, f.sc.cos)
}

// InView reports whether candidate lies inside the cone around forward.
// Both vectors are compared on the ground plane.
func (f *FOV) InView(forward, candidate Vec3) bool {
	fw := forward.Flat()
	a := Angle(fw, candidate.Flat())
	if f.halfAngle == HalfAngle0 {
		// acos loses precision next to 1; anything below this is the forward ray.
		return a < 1e-7
	}
	return a <= Angle(fw, f.left) || a <= Angle(fw, f.right)
}
