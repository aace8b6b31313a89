package ai

import "go.uber.org/zap"

// Deps are the shared collaborators a tree is built with.
type Deps struct {
	Perception Perceiver
	Audio      AudioPlayer
	Observer   Observer
	Rand       Random
	Logger     *zap.Logger
}

// Tree drives one agent: it owns the agent's Context and decides, tick by
// tick, which behavior node is active.
type Tree struct {
	ctx      *Context
	observer Observer
	logger   *zap.Logger
}

// NewTree creates a tree whose active node is Idle.
func NewTree(deps Deps) *Tree {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tree{
		ctx:      newContext(deps.Perception, deps.Audio, deps.Rand, logger),
		observer: deps.Observer,
		logger:   logger,
	}
}

// Context exposes the agent's tree state for inspection.
func (t *Tree) Context() *Context { return t.ctx }

// Active returns the active behavior.
func (t *Tree) Active() Behavior { return t.ctx.Active }

// Invoke runs one tick of dt seconds for the agent.
func (t *Tree) Invoke(a *Agent, dt float64) {
	c := t.ctx
	if a == nil {
		return
	}
	c.Delta = dt
	c.TimerRoot += dt
	c.TimerAction += dt
	c.TimerCheck += dt

	t.refreshDistances(a)
	if a.Anim != nil {
		c.AnimState = a.Anim.CurrentStateName(0)
	} else {
		c.AnimState = ""
	}
	defer func() { c.PrevPosition = a.Position }()

	if t.rootChecks(a) {
		return
	}

	if c.TimerRoot >= a.Params.AlertCheckInterval {
		t.refreshSight(a)
		c.TimerRoot = 0
	}
	if c.TimerCheck >= a.Params.ScanInterval {
		checkEnvironment(a, c)
		c.TimerCheck = 0
		t.refreshDistances(a)
	}

	c.Status = c.Active.Tick(a, c)
	if c.Status == StatusRunning {
		return
	}
	if next, ok := t.nextBehavior(a); ok {
		t.ChangeBranch(a, next)
	}
}

// CheckEnvironment runs a perception scan outside the regular schedule.
func (t *Tree) CheckEnvironment(a *Agent) {
	checkEnvironment(a, t.ctx)
	t.refreshDistances(a)
}

// ChangeBranch makes next the active node.
func (t *Tree) ChangeBranch(a *Agent, next Behavior) {
	c := t.ctx
	prev, prevStatus := c.Active, c.Status

	c.TimerAction = 0
	c.TimerCheck = 0
	if a.Nav != nil {
		a.Nav.SetUpdateRotation(true)
	}
	if next == BehaviorIdle || next == BehaviorMoving {
		c.PathFailed = false
	}
	c.ActionReady = true
	c.Active = next
	c.Status = StatusRunning
	c.NodeName = next.String()

	t.logger.Debug("behavior changed",
		zap.Int64("agent_id", a.ID),
		zap.String("agent", a.Name),
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
		zap.String("status", prevStatus.String()))

	if t.observer != nil {
		tr := Transition{AgentID: a.ID, Agent: a.Name, From: prev, To: next, Status: prevStatus}
		if a.Target != nil {
			tr.TargetID = a.Target.ObjectID()
		}
		t.observer.OnTransition(tr)
	}
}

// rootChecks applies the death and sleep overrides. It reports true when
// the tick was consumed by a forced transition.
func (t *Tree) rootChecks(a *Agent) bool {
	c := t.ctx
	if a.Stats != nil {
		switch {
		case a.Stats.IsDead():
			if c.Active != BehaviorDead {
				c.Status = StatusFailure
				c.play(a, SoundDie)
				t.ChangeBranch(a, BehaviorDead)
				return true
			}
			return false
		case a.Stats.IsAsleep():
			if c.Active != BehaviorAsleep {
				c.Status = StatusFailure
				t.ChangeBranch(a, BehaviorAsleep)
				return true
			}
			return false
		}
	}
	if !a.HasTarget() {
		c.Patient = true
	}
	return false
}

// refreshSight re-tests line of sight to the current target.
func (t *Tree) refreshSight(a *Agent) {
	c := t.ctx
	if !a.HasTarget() {
		c.SeeTarget = false
		return
	}
	// The host turns agents between scans.
	if a.FOV != nil {
		a.FOV.UpdateVectors(a.Forward)
	}
	if canSee(a, c, a.Target.Position(), c.DistTargetSqr) {
		c.SeeTarget = true
		a.IgnoreSightCheck = false
		return
	}
	c.SeeTarget = a.IgnoreSightCheck
}

func (t *Tree) refreshDistances(a *Agent) {
	c := t.ctx
	if a.Target != nil {
		c.DistTargetSqr = a.Position.DistSqr(a.Target.Position())
	} else {
		c.DistTargetSqr = 0
	}
	if !a.Destination.IsZero() {
		c.DistMoveSqr = a.Position.DistSqr(a.Destination)
	} else {
		c.DistMoveSqr = 0
	}
}
