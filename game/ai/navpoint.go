package ai

import "math"

const (
	// FleeDivisor shrinks RoamDist into the flee search radius.
	FleeDivisor = 2
	// fleeSpread is the half-width, in radians, of the cone flee points are
	// drawn from around the escape direction.
	fleeSpread = math.Pi / 3
)

// findRoamPoint picks a walkable point within RoamDist of the agent.
// It returns the zero vector and false when none is found.
func findRoamPoint(a *Agent, ctx *Context) (Vec3, bool) {
	r := a.Params.RoamDist
	if r <= 0 {
		return Vec3{}, false
	}
	theta := ctx.rng.Float64() * 2 * math.Pi
	d := r * math.Sqrt(ctx.rng.Float64())
	offset := Vec3{X: math.Sin(theta) * d, Z: math.Cos(theta) * d}
	return validatePoint(a, ctx, a.Position.Add(offset), r)
}

// findFleePoint picks a walkable point away from the target, or away from
// the current facing when there is no target.
func findFleePoint(a *Agent, ctx *Context) (Vec3, bool) {
	r := a.Params.RoamDist / FleeDivisor
	if r <= 0 {
		return Vec3{}, false
	}
	var away Vec3
	if a.Target != nil {
		away = a.Position.Sub(a.Target.Position()).Flat().Norm()
	}
	if away.IsZero() {
		away = a.Forward.Flat().Scale(-1).Norm()
	}
	if away.IsZero() {
		away = Vec3{Z: -1}
	}
	spread := (ctx.rng.Float64()*2 - 1) * fleeSpread
	dir := away.RotateY(math.Sin(spread), math.Cos(spread))
	d := r * (0.5 + 0.5*ctx.rng.Float64())
	return validatePoint(a, ctx, a.Position.Add(dir.Scale(d)), r)
}

// validatePoint snaps a candidate to the walkable surface. Non-finite
// results and slopes steeper than the navigator allows are rejected.
func validatePoint(a *Agent, ctx *Context, candidate Vec3, radius float64) (Vec3, bool) {
	if ctx.perception == nil {
		ctx.warnMissing(a, "perception")
		return Vec3{}, false
	}
	p, ok := ctx.perception.SampleWalkable(candidate, radius)
	if !ok || !p.IsFinite() || p.IsZero() {
		return Vec3{}, false
	}
	if a.Nav != nil && a.Nav.MaxSlope() > 0 {
		run := math.Sqrt(p.Sub(a.Position).Flat().LenSqr())
		rise := math.Abs(p.Y - a.Position.Y)
		if run > 0 && math.Atan2(rise, run)*180/math.Pi > a.Nav.MaxSlope() {
			return Vec3{}, false
		}
	}
	return p, true
}
