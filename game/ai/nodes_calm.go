package ai

import "go.uber.org/zap"

// Idle waits in place and periodically picks a roam point.
func tickIdle(a *Agent, ctx *Context) Status {
	if a.HasTarget() && ctx.SeeTarget {
		return StatusFailure
	}
	if !a.Destination.IsZero() {
		// Someone handed us a goal; let the policy move us.
		return StatusFailure
	}
	setBool(a, ctx, AnimBoolMoving, false)

	if ctx.TimerAction < a.Params.RoamTime {
		return StatusRunning
	}
	ctx.TimerAction = 0
	p, ok := findRoamPoint(a, ctx)
	if !ok {
		return StatusRunning
	}
	if !moveTo(a, ctx, p, a.Params.WalkSpeed) {
		return StatusRunning
	}
	a.Destination = p
	return StatusSuccess
}

// Moving walks to a non-target destination.
func tickMoving(a *Agent, ctx *Context) Status {
	if a.HasTarget() && ctx.SeeTarget {
		return StatusFailure
	}
	if a.Destination.IsZero() {
		return StatusFailure
	}
	if ctx.DistMoveSqr <= a.Params.StopDist*a.Params.StopDist {
		clearDestination(a, ctx)
		return StatusSuccess
	}
	if !moveTo(a, ctx, a.Destination, a.Params.WalkSpeed) {
		// Refused goals are dropped so the policy does not re-enter Moving.
		clearDestination(a, ctx)
		return StatusFailure
	}
	if pathBroken(a, ctx) {
		ctx.PathFailed = true
		clearDestination(a, ctx)
		return StatusFailure
	}
	return StatusRunning
}

// Asleep holds while the stats say so.
func tickAsleep(a *Agent, ctx *Context) Status {
	if a.Stats == nil || !a.Stats.IsAsleep() {
		setBool(a, ctx, AnimBoolAsleep, false)
		return StatusFailure
	}
	stopMoving(a, ctx)
	setBool(a, ctx, AnimBoolAsleep, true)
	return StatusRunning
}

// Dead holds until revived.
func tickDead(a *Agent, ctx *Context) Status {
	if a.Stats == nil || !a.Stats.IsDead() {
		setBool(a, ctx, AnimBoolDead, false)
		return StatusFailure
	}
	if a.Nav != nil && a.Nav.HasPath() {
		a.Nav.ResetPath()
	}
	setBool(a, ctx, AnimBoolDead, true)
	return StatusRunning
}

// None is the placeholder node.
func tickNone(a *Agent, ctx *Context) Status {
	ctx.logger.Debug("none node ticked", zap.Int64("agent_id", a.ID), zap.String("agent", a.Name))
	setTrigger(a, ctx, AnimTrigIdle)
	return StatusSuccess
}
