package ai

import "go.uber.org/zap"

// Aggro charges a seen target at full speed.
func tickAggro(a *Agent, ctx *Context) Status {
	if !a.HasTarget() {
		return StatusFailure
	}
	if e, ok := a.Target.(Entity); ok && e.IsDead() {
		stopMoving(a, ctx)
		return StatusFailure
	}
	p := a.Params
	if ctx.DistTargetSqr <= p.AtkDist*p.AtkDist {
		return StatusSuccess
	}
	if !ctx.SeeTarget && ctx.DistTargetSqr > p.AwareMax*p.AwareMax {
		stopMoving(a, ctx)
		return StatusFailure
	}
	if !moveTo(a, ctx, a.Target.Position(), attackSpeed(a, ctx, p.RunSpeed)) {
		return StatusFailure
	}
	if pathBroken(a, ctx) {
		ctx.PathFailed = true
		stopMoving(a, ctx)
		return StatusFailure
	}
	return StatusRunning
}

// Attack winds up, strikes once, recovers, and repeats while in range.
func tickAttack(a *Agent, ctx *Context) Status {
	target, ok := a.TargetEntity()
	if !ok {
		stopMoving(a, ctx)
		return StatusFailure
	}
	p := a.Params
	if ctx.DistTargetSqr > p.AtkDist*p.AtkDist {
		return StatusFailure
	}
	if a.Nav != nil && a.Nav.HasPath() && a.Nav.PathStatus() == PathInvalid {
		ctx.PathFailed = true
		stopMoving(a, ctx)
		return StatusFailure
	}

	faceTowards(a, ctx, target.Position())
	if ctx.DistTargetSqr > p.StopDist*p.StopDist {
		moveTo(a, ctx, target.Position(), attackSpeed(a, ctx, p.RunSpeed))
	} else {
		stopMoving(a, ctx)
	}

	switch {
	case ctx.ActionReady && ctx.TimerAction >= p.AtkInit:
		target.ApplyDamage(p.AtkKind, p.AtkDamage, a.AsObject())
		ctx.ActionReady = false
		ctx.TimerAction = 0
		setTrigger(a, ctx, AnimTrigAttack)
		ctx.play(a, SoundAttack)
		ctx.logger.Debug("attack landed",
			zap.Int64("agent_id", a.ID),
			zap.Int64("target_id", target.ObjectID()),
			zap.Float64("damage", p.AtkDamage))
	case !ctx.ActionReady && ctx.TimerAction >= p.AtkEnd:
		ctx.ActionReady = true
		ctx.TimerAction = 0
		setTrigger(a, ctx, AnimTrigAtkInit)
	}
	return StatusRunning
}

// Flee runs to a point away from the threat.
func tickFlee(a *Agent, ctx *Context) Status {
	if ctx.ActionReady {
		ctx.ActionReady = false
		p, ok := findFleePoint(a, ctx)
		if !ok {
			return StatusFailure
		}
		if !moveTo(a, ctx, p, a.Params.RunSpeed) {
			return StatusFailure
		}
		a.Destination = p
		ctx.DistMoveSqr = a.Position.DistSqr(p)
		ctx.fleeFromTarget = a.HasTarget()
		ctx.play(a, SoundFlee)
	}
	if ctx.fleeFromTarget && !a.HasTarget() {
		clearDestination(a, ctx)
		return StatusFailure
	}
	if a.Destination.IsZero() {
		return StatusFailure
	}
	if ctx.DistMoveSqr <= a.Params.StopDist*a.Params.StopDist {
		clearDestination(a, ctx)
		return StatusSuccess
	}
	if a.Nav != nil && a.Nav.PathStatus() == PathInvalid {
		clearDestination(a, ctx)
		return StatusFailure
	}
	return StatusRunning
}
