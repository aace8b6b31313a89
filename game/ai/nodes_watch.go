package ai

// Alert turns to watch a distant target while patience lasts.
func tickAlert(a *Agent, ctx *Context) Status {
	if !a.HasTarget() || !ctx.SeeTarget {
		return StatusFailure
	}
	if a.Stats != nil && a.Stats.IsWounded() {
		return StatusFailure
	}
	if ctx.ActionReady {
		ctx.ActionReady = false
		ctx.play(a, SoundAlert)
	}
	stopMoving(a, ctx)
	faceTowards(a, ctx, a.Target.Position())

	p := a.Params
	if ctx.DistTargetSqr <= p.AwareMed*p.AwareMed {
		if p.Predator {
			return StatusSuccess
		}
		return StatusFailure
	}
	if ctx.TimerAction >= p.PatienceTime {
		ctx.TimerAction = 0
		if ctx.rng.Float64() < p.PatienceChance {
			// Out of patience: stop watching until the target comes closer
			// or leaves.
			ctx.Patient = false
			ctx.SeeTarget = false
			return StatusFailure
		}
	}
	return StatusRunning
}

// Wary backs away from a target it will not engage.
func tickWary(a *Agent, ctx *Context) Status {
	if !a.HasTarget() {
		return StatusFailure
	}
	if ctx.ActionReady {
		ctx.ActionReady = false
		p, ok := findFleePoint(a, ctx)
		if !ok || !moveTo(a, ctx, p, a.Params.WalkSpeed) {
			// Nowhere to back off to; hold ground and keep an eye on it.
			faceTowards(a, ctx, a.Target.Position())
			return StatusSuccess
		}
		a.Destination = p
		return StatusRunning
	}
	if a.Destination.IsZero() {
		return StatusSuccess
	}
	if ctx.DistMoveSqr <= a.Params.StopDist*a.Params.StopDist {
		clearDestination(a, ctx)
		faceTowards(a, ctx, a.Target.Position())
		return StatusSuccess
	}
	if pathBroken(a, ctx) {
		ctx.PathFailed = true
		clearDestination(a, ctx)
		return StatusFailure
	}
	return StatusRunning
}

// Hunt stalks a seen target at walking pace.
func tickHunt(a *Agent, ctx *Context) Status {
	if !a.HasTarget() || !ctx.SeeTarget {
		return StatusFailure
	}
	if e, ok := a.Target.(Entity); ok && e.IsDead() {
		return StatusFailure
	}
	p := a.Params
	if ctx.DistTargetSqr > p.AwareMax*p.AwareMax {
		return StatusFailure
	}
	if ctx.DistTargetSqr <= p.AwareClose*p.AwareClose {
		stopMoving(a, ctx)
		return StatusSuccess
	}
	if !moveTo(a, ctx, a.Target.Position(), p.WalkSpeed) {
		return StatusFailure
	}
	if pathBroken(a, ctx) {
		ctx.PathFailed = true
		return StatusFailure
	}
	return StatusRunning
}
