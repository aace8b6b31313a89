package ai

// Agent is the NPC a tree decides for. The host owns it; the tree only
// reads and steers it through the handles below.
type Agent struct {
	ID       int64
	Name     string
	Position Vec3
	Forward  Vec3
	// Destination is the current non-target move goal; zero means none.
	Destination Vec3
	Target      Object
	// Body is the host entity this agent drives, handed to victims as the
	// attacker.
	Body Object

	Params Parameters
	Stats  Stats
	Nav    Navigator
	Anim   Animator
	FOV    *FOV

	// Tracks are the nearby living entities this agent is aware of.
	Tracks     []Entity
	removeList []Entity

	// IgnoreSightCheck makes the next sight refresh count as seen even
	// without line of sight, e.g. after being hit by an unseen attacker.
	IgnoreSightCheck bool
}

// NewAgent creates an agent facing +Z with the given parameters.
func NewAgent(id int64, name string, params Parameters, stats Stats) *Agent {
	fwd := Vec3{Z: 1}
	return &Agent{
		ID:      id,
		Name:    name,
		Forward: fwd,
		Params:  params,
		Stats:   stats,
		FOV:     NewFOV(fwd, params.FOVHalfAngle),
	}
}

type agentRef struct{ a *Agent }

func (r agentRef) ObjectID() int64 { return r.a.ID }
func (r agentRef) Position() Vec3  { return r.a.Position }

// AsObject returns the host body of the agent, or a thin reference to the
// agent itself when no body is attached.
func (a *Agent) AsObject() Object {
	if a.Body != nil {
		return a.Body
	}
	return agentRef{a}
}

// HasTarget reports whether a target is set.
func (a *Agent) HasTarget() bool { return a.Target != nil }

// TargetEntity returns the target's Entity capability when it is alive.
func (a *Agent) TargetEntity() (Entity, bool) {
	if a.Target == nil {
		return nil, false
	}
	e, ok := a.Target.(Entity)
	if !ok || e.IsDead() {
		return nil, false
	}
	return e, true
}

// Provoke makes attacker the target and trusts the hit as a sighting.
func (a *Agent) Provoke(attacker Object) {
	if attacker == nil || attacker.ObjectID() == a.ID {
		return
	}
	if a.Target == nil || a.Target.ObjectID() != attacker.ObjectID() {
		a.Target = attacker
	}
	a.IgnoreSightCheck = true
}

// IsTracking reports whether e is already on the track list.
func (a *Agent) IsTracking(e Entity) bool {
	for _, t := range a.Tracks {
		if t != nil && t.ObjectID() == e.ObjectID() {
			return true
		}
	}
	return false
}

// SetParams swaps the temperament and rebuilds the view cone.
func (a *Agent) SetParams(p Parameters) {
	a.Params = p
	a.FOV = NewFOV(a.Forward, p.FOVHalfAngle)
}
