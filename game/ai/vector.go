package ai

import "math"

// Vec3 is a world-space point or direction. Y is up; the ground plane is X/Z.
type Vec3 struct{ X, Y, Z float64 }

func (a Vec3) Add(b Vec3) Vec3        { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }
func (a Vec3) Sub(b Vec3) Vec3        { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }
func (a Vec3) Scale(s float64) Vec3   { return Vec3{a.X * s, a.Y * s, a.Z * s} }
func (a Vec3) Dot(b Vec3) float64     { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }
func (a Vec3) LenSqr() float64        { return a.Dot(a) }
func (a Vec3) Len() float64           { return math.Sqrt(a.LenSqr()) }
func (a Vec3) IsZero() bool           { return a == Vec3{} }
func (a Vec3) DistSqr(b Vec3) float64 { return a.Sub(b).LenSqr() }

// Norm returns the unit vector, or the zero vector for zero input.
func (a Vec3) Norm() Vec3 {
	l := a.Len()
	if l == 0 {
		return Vec3{}
	}
	return a.Scale(1 / l)
}

// Flat drops the vertical component.
func (a Vec3) Flat() Vec3 { return Vec3{X: a.X, Z: a.Z} }

// IsFinite reports whether no component is NaN or infinite.
func (a Vec3) IsFinite() bool {
	for _, v := range [3]float64{a.X, a.Y, a.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// RotateY rotates the vector around the vertical axis by the angle whose
// sine and cosine are given. Positive angles turn clockwise seen from above.
func (a Vec3) RotateY(sin, cos float64) Vec3 {
	return Vec3{
		X: a.X*cos + a.Z*sin,
		Y: a.Y,
		Z: -a.X*sin + a.Z*cos,
	}
}

// Angle returns the unsigned angle between a and b in radians.
// Zero-length vectors yield 0.
func Angle(a, b Vec3) float64 {
	den := math.Sqrt(a.LenSqr() * b.LenSqr())
	if den < 1e-15 {
		return 0
	}
	c := a.Dot(b) / den
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}
