package ai

import "math"

const (
	// stallGrace is how long a node waits before treating a standing agent
	// on a partial path as stuck.
	stallGrace   = 0.5
	stallDistSqr = 1e-6
	// sameDestSqr avoids re-planning toward a goal that barely moved.
	sameDestSqr = 0.01
)

// moveTo routes the agent toward p at the given speed. It reports false when
// the agent has no navigation or the request was refused.
func moveTo(a *Agent, ctx *Context, p Vec3, speed float64) bool {
	if a.Nav == nil {
		ctx.warnMissing(a, "navigation")
		return false
	}
	a.Nav.SetSpeed(speed)
	setBool(a, ctx, AnimBoolMoving, true)
	if a.Nav.HasPath() && a.Nav.Destination().DistSqr(p) < sameDestSqr {
		return true
	}
	return a.Nav.SetDestination(p)
}

// attackSpeed slows movement while the attack clip plays.
func attackSpeed(a *Agent, ctx *Context, base float64) float64 {
	if ctx.attackAnimPlaying() {
		return base * a.Params.AttackMoveFactor
	}
	return base
}

func stopMoving(a *Agent, ctx *Context) {
	if a.Nav != nil && a.Nav.HasPath() {
		a.Nav.ResetPath()
	}
	setBool(a, ctx, AnimBoolMoving, false)
}

// clearDestination drops a reached or abandoned move goal.
func clearDestination(a *Agent, ctx *Context) {
	a.Destination = Vec3{}
	ctx.DistMoveSqr = 0
	stopMoving(a, ctx)
}

// pathBroken reports an invalid route, or a partial one the agent has
// stopped making progress on.
func pathBroken(a *Agent, ctx *Context) bool {
	if a.Nav == nil {
		return false
	}
	switch a.Nav.PathStatus() {
	case PathInvalid:
		return true
	case PathPartial:
		return ctx.TimerAction > stallGrace && a.Position.DistSqr(ctx.PrevPosition) < stallDistSqr
	}
	return false
}

func setBool(a *Agent, ctx *Context, name string, v bool) {
	if a.Anim == nil {
		ctx.warnMissing(a, "animation")
		return
	}
	a.Anim.SetBool(name, v)
}

func setTrigger(a *Agent, ctx *Context, name string) {
	if a.Anim == nil {
		ctx.warnMissing(a, "animation")
		return
	}
	a.Anim.SetTrigger(name)
}

// faceTowards turns the agent toward p at RotSpeed and reports whether it
// now faces p within RotAngle.
func faceTowards(a *Agent, ctx *Context, p Vec3) bool {
	dir := p.Sub(a.Position).Flat()
	if dir.IsZero() {
		return true
	}
	if a.Nav != nil {
		a.Nav.SetUpdateRotation(false)
	}
	cur := a.Forward.Flat().Norm()
	if cur.IsZero() {
		cur = Vec3{Z: 1}
	}
	ang := Angle(cur, dir) * 180 / math.Pi
	if ang <= a.Params.RotAngle {
		return true
	}
	step := a.Params.RotSpeed * ctx.Delta
	if step >= ang {
		a.Forward = dir.Norm()
	} else {
		// Turn toward the side dir lies on.
		cross := cur.Z*dir.X - cur.X*dir.Z
		rad := step * math.Pi / 180
		s, c := math.Sin(rad), math.Cos(rad)
		if cross < 0 {
			s = -s
		}
		a.Forward = cur.RotateY(s, c).Norm()
	}
	if a.FOV != nil {
		a.FOV.UpdateVectors(a.Forward)
	}
	return Angle(a.Forward, dir)*180/math.Pi <= a.Params.RotAngle
}
