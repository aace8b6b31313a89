package ai

// nextBehavior picks the node to switch to after the active node stopped
// running. ok is false when no rule applies and the active node stays.
func (t *Tree) nextBehavior(a *Agent) (next Behavior, ok bool) {
	c := t.ctx
	p := a.Params

	if c.Active == BehaviorFlee {
		if c.Status == StatusSuccess && a.Stats != nil {
			// Escaped: recover fully.
			a.Stats.HealToMax()
		}
		// The escape consumes PathFailed. Waiting for the Idle or Moving entry
		// would route this very decision back into Flee.
		c.PathFailed = false
	}

	if c.PathFailed {
		return BehaviorFlee, true
	}

	seen := a.HasTarget() && c.SeeTarget
	d := c.DistTargetSqr

	if a.Stats != nil && a.Stats.IsWounded() {
		if !seen {
			return BehaviorFlee, true
		}
		if d <= p.AtkDist*p.AtkDist {
			if _, living := a.TargetEntity(); living {
				return BehaviorAttack, true
			}
			return BehaviorFlee, true
		}
		if p.standsGround() {
			return BehaviorAggro, true
		}
		return BehaviorFlee, true
	}

	if !seen {
		if !a.Destination.IsZero() {
			return BehaviorMoving, true
		}
		return BehaviorIdle, true
	}

	return selectBand(a, c.Patient, d)
}

// selectBand maps a seen target's squared distance onto a behavior.
func selectBand(a *Agent, patient bool, d float64) (Behavior, bool) {
	p := a.Params
	med, near, atk := p.AwareMed*p.AwareMed, p.AwareClose*p.AwareClose, p.AtkDist*p.AtkDist
	switch {
	case d > med:
		if patient {
			return BehaviorAlert, true
		}
		return BehaviorNone, false
	case d > near:
		if p.engages() {
			return BehaviorHunt, true
		}
		return BehaviorWary, true
	case d > atk:
		if p.engages() {
			return BehaviorAggro, true
		}
		return BehaviorFlee, true
	default:
		if _, living := a.TargetEntity(); living {
			return BehaviorAttack, true
		}
		return BehaviorNone, false
	}
}
