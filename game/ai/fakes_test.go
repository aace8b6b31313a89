package ai

import "go.uber.org/zap"

// ---- Test doubles for the collaborators ----

type fakeStats struct {
	dead, asleep, wounded bool
	healed                int
}

func (s *fakeStats) IsDead() bool    { return s.dead }
func (s *fakeStats) IsAsleep() bool  { return s.asleep }
func (s *fakeStats) IsWounded() bool { return s.wounded }
func (s *fakeStats) HealToMax()      { s.healed++; s.wounded = false }

type damageCall struct {
	kind     DamageKind
	amount   float64
	attacker int64
}

type fakeEntity struct {
	id                    int64
	pos                   Vec3
	dead, invisible, gone bool
	hits                  []damageCall
}

func (e *fakeEntity) ObjectID() int64   { return e.id }
func (e *fakeEntity) Position() Vec3    { return e.pos }
func (e *fakeEntity) IsDead() bool      { return e.dead }
func (e *fakeEntity) IsInvisible() bool { return e.invisible }
func (e *fakeEntity) Destroyed() bool   { return e.gone }
func (e *fakeEntity) ApplyDamage(kind DamageKind, amount float64, attacker Object) {
	e.hits = append(e.hits, damageCall{kind: kind, amount: amount, attacker: attacker.ObjectID()})
}

// rock is a targetable object that is not alive.
type rock struct {
	id  int64
	pos Vec3
}

func (r *rock) ObjectID() int64 { return r.id }
func (r *rock) Position() Vec3  { return r.pos }

type fakeNav struct {
	dest       Vec3
	hasPath    bool
	status     PathStatus
	speed      float64
	updateRot  bool
	maxSlope   float64
	refuse     bool
	setCalls   int
	resetCalls int
}

func (n *fakeNav) SetDestination(p Vec3) bool {
	n.setCalls++
	if n.refuse {
		return false
	}
	n.dest = p
	n.hasPath = true
	return true
}
func (n *fakeNav) Destination() Vec3         { return n.dest }
func (n *fakeNav) HasPath() bool             { return n.hasPath }
func (n *fakeNav) PathStatus() PathStatus    { return n.status }
func (n *fakeNav) ResetPath()                { n.resetCalls++; n.hasPath = false; n.dest = Vec3{} }
func (n *fakeNav) Speed() float64            { return n.speed }
func (n *fakeNav) SetSpeed(v float64)        { n.speed = v }
func (n *fakeNav) SetUpdateRotation(on bool) { n.updateRot = on }
func (n *fakeNav) StoppingDistance() float64 { return 0.1 }
func (n *fakeNav) MaxSlope() float64         { return n.maxSlope }

type fakePerception struct {
	nearby  []Object
	blocked bool
	// sample overrides SampleWalkable; nil echoes the candidate.
	sample func(p Vec3, r float64) (Vec3, bool)
}

func (f *fakePerception) OverlapQuery(origin Vec3, radius float64, mask Mask) []Object {
	var out []Object
	for _, o := range f.nearby {
		if o == nil || o.Position().DistSqr(origin) <= radius*radius {
			out = append(out, o)
		}
	}
	return out
}
func (f *fakePerception) LineOfSight(origin, target Vec3, mask Mask) bool { return !f.blocked }
func (f *fakePerception) SampleWalkable(p Vec3, r float64) (Vec3, bool) {
	if f.sample != nil {
		return f.sample(p, r)
	}
	return p, true
}

type fakeAnim struct {
	state    string
	triggers []string
	bools    map[string]bool
}

func newFakeAnim() *fakeAnim { return &fakeAnim{state: "Idle", bools: map[string]bool{}} }

func (f *fakeAnim) CurrentStateName(layer int) string { return f.state }
func (f *fakeAnim) SetTrigger(name string)            { f.triggers = append(f.triggers, name) }
func (f *fakeAnim) ResetTrigger(name string)          {}
func (f *fakeAnim) SetBool(name string, v bool)       { f.bools[name] = v }

type fakeAudio struct{ played []Sound }

func (f *fakeAudio) Play(agentID int64, s Sound) { f.played = append(f.played, s) }

func (f *fakeAudio) count(s Sound) int {
	n := 0
	for _, p := range f.played {
		if p == s {
			n++
		}
	}
	return n
}

type fakeObserver struct{ seen []Transition }

func (f *fakeObserver) OnTransition(t Transition) { f.seen = append(f.seen, t) }

// fixedRand returns the queued values in order, then repeats the last one.
type fixedRand struct{ vals []float64 }

func (r *fixedRand) Float64() float64 {
	if len(r.vals) == 0 {
		return 0.5
	}
	v := r.vals[0]
	if len(r.vals) > 1 {
		r.vals = r.vals[1:]
	}
	return v
}

// ---- Fixture ----

type fixture struct {
	agent *Agent
	tree  *Tree
	stats *fakeStats
	nav   *fakeNav
	anim  *fakeAnim
	sense *fakePerception
	audio *fakeAudio
	obs   *fakeObserver
	rng   *fixedRand
}

// newFixture builds an agent at the origin facing +Z with every collaborator
// faked. Sight refresh and scans run every tick unless the test changes the
// intervals.
func newFixture(mutate ...func(*Parameters)) *fixture {
	p := DefaultParameters()
	p.AlertCheckInterval = 0
	p.ScanInterval = 1000
	for _, m := range mutate {
		m(&p)
	}
	f := &fixture{
		stats: &fakeStats{},
		nav:   &fakeNav{},
		anim:  newFakeAnim(),
		sense: &fakePerception{},
		audio: &fakeAudio{},
		obs:   &fakeObserver{},
		rng:   &fixedRand{},
	}
	f.agent = NewAgent(1, "wolf", p, f.stats)
	f.agent.Position = Vec3{X: 0.5, Z: 0.5}
	f.agent.Nav = f.nav
	f.agent.Anim = f.anim
	f.tree = NewTree(Deps{
		Perception: f.sense,
		Audio:      f.audio,
		Observer:   f.obs,
		Rand:       f.rng,
		Logger:     zap.NewNop(),
	})
	return f
}

func (f *fixture) ctx() *Context { return f.tree.Context() }

func (f *fixture) tick(dt float64) { f.tree.Invoke(f.agent, dt) }

// force makes b the active node without going through the policy.
func (f *fixture) force(b Behavior) {
	f.tree.ChangeBranch(f.agent, b)
	f.obs.seen = nil
}

// target places a living entity at distance d straight ahead.
func (f *fixture) target(d float64) *fakeEntity {
	e := &fakeEntity{id: 99, pos: f.agent.Position.Add(Vec3{Z: d})}
	f.agent.Target = e
	return e
}
