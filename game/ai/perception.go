package ai

import (
	"math"
	"reflect"
)

// destroyable is implemented by host entities that can outlive their
// removal from the world.
type destroyable interface {
	Destroyed() bool
}

// isStale reports a track entry whose entity no longer exists.
func isStale(e Entity) bool {
	if e == nil {
		return true
	}
	if v := reflect.ValueOf(e); v.Kind() == reflect.Ptr && v.IsNil() {
		return true
	}
	if d, ok := e.(destroyable); ok && d.Destroyed() {
		return true
	}
	return false
}

// canSee tests the view cone and line of sight toward pos. With
// RetargetOnProximity, anything within AwareClose skips the cone.
func canSee(a *Agent, ctx *Context, pos Vec3, distSqr float64) bool {
	if ctx.perception == nil {
		ctx.warnMissing(a, "perception")
		return false
	}
	p := a.Params
	inCone := a.FOV == nil || a.FOV.InView(a.Forward, pos.Sub(a.Position))
	if !inCone && p.RetargetOnProximity && distSqr <= p.AwareClose*p.AwareClose {
		inCone = true
	}
	return inCone && ctx.perception.LineOfSight(a.Position, pos, MaskAll)
}

// checkEnvironment runs the area scan and then processes the track list.
func checkEnvironment(a *Agent, ctx *Context) {
	if ctx.perception == nil {
		ctx.warnMissing(a, "perception")
		return
	}
	areaScan(a, ctx)
	processTracks(a, ctx)
}

// areaScan adds newly sensed living entities to the track list.
func areaScan(a *Agent, ctx *Context) {
	for _, o := range ctx.perception.OverlapQuery(a.Position, a.Params.AwareMax, a.Params.Mask) {
		if o == nil {
			continue
		}
		e, ok := o.(Entity)
		if !ok || isStale(e) {
			continue
		}
		if e.ObjectID() == a.ID || e.IsDead() || e.IsInvisible() || a.IsTracking(e) {
			continue
		}
		a.Tracks = append(a.Tracks, e)
	}
}

// processTracks prunes the track list and retargets to the nearest visible
// entry. Removals are collected first and applied after the scan.
func processTracks(a *Agent, ctx *Context) {
	maxSqr := a.Params.AwareMax * a.Params.AwareMax
	if a.FOV != nil {
		a.FOV.UpdateVectors(a.Forward)
	}

	reset := false
	a.removeList = a.removeList[:0]
	var nearest Entity
	nearestSqr := math.Inf(1)

	for _, e := range a.Tracks {
		if isStale(e) {
			reset = true
			continue
		}
		pos := e.Position()
		d := a.Position.DistSqr(pos)
		if d > maxSqr || e.IsDead() || e.IsInvisible() {
			a.removeList = append(a.removeList, e)
			continue
		}
		if !canSee(a, ctx, pos, d) {
			continue
		}
		if d < nearestSqr {
			nearest, nearestSqr = e, d
		}
	}

	if reset {
		a.Tracks = a.Tracks[:0]
	} else {
		for _, r := range a.removeList {
			a.Tracks = removeTrack(a.Tracks, r)
		}
	}
	if a.Target != nil && targetPruned(a) {
		a.Target = nil
		ctx.SeeTarget = false
		ctx.DistTargetSqr = 0
	}
	for i := range a.removeList {
		a.removeList[i] = nil
	}
	a.removeList = a.removeList[:0]

	if nearest == nil {
		return
	}
	if a.Target == nil || a.Target.ObjectID() != nearest.ObjectID() {
		a.Target = nearest
		ctx.DistTargetSqr = nearestSqr
	}
	ctx.SeeTarget = true
}

// targetPruned reports whether the current target left awareness in this
// pass. A target that was never tracked, e.g. a provoking attacker, is
// dropped once it dies or vanishes.
func targetPruned(a *Agent) bool {
	e, ok := a.Target.(Entity)
	if !ok {
		return false
	}
	if isStale(e) || e.IsDead() || e.IsInvisible() {
		return true
	}
	for _, r := range a.removeList {
		if r.ObjectID() == e.ObjectID() {
			return true
		}
	}
	return false
}

func removeTrack(tracks []Entity, e Entity) []Entity {
	for i, t := range tracks {
		if t != nil && t.ObjectID() == e.ObjectID() {
			return append(tracks[:i], tracks[i+1:]...)
		}
	}
	return tracks
}
