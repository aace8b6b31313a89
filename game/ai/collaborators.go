package ai

// Object is anything an agent can target.
type Object interface {
	ObjectID() int64
	Position() Vec3
}

// Entity is an Object that is alive and can be damaged.
type Entity interface {
	Object
	IsDead() bool
	IsInvisible() bool
	ApplyDamage(kind DamageKind, amount float64, attacker Object)
}

// Stats is the agent's own vital state.
type Stats interface {
	IsDead() bool
	IsAsleep() bool
	IsWounded() bool
	HealToMax()
}

// PathStatus is the navigation collaborator's verdict on the current route.
type PathStatus int

const (
	PathValid PathStatus = iota
	PathPartial
	PathInvalid
)

func (s PathStatus) String() string {
	switch s {
	case PathValid:
		return "valid"
	case PathPartial:
		return "partial"
	}
	return "invalid"
}

// Navigator routes one agent toward a point.
type Navigator interface {
	SetDestination(p Vec3) bool
	Destination() Vec3
	HasPath() bool
	PathStatus() PathStatus
	ResetPath()
	Speed() float64
	SetSpeed(v float64)
	SetUpdateRotation(on bool)
	StoppingDistance() float64
	// MaxSlope is the steepest walkable incline in degrees.
	MaxSlope() float64
}

// Perceiver answers spatial queries against the shared world.
type Perceiver interface {
	OverlapQuery(origin Vec3, radius float64, mask Mask) []Object
	LineOfSight(origin, target Vec3, mask Mask) bool
	SampleWalkable(p Vec3, radius float64) (Vec3, bool)
}

// Animator drives the agent's animation controller.
type Animator interface {
	CurrentStateName(layer int) string
	SetTrigger(name string)
	ResetTrigger(name string)
	SetBool(name string, v bool)
}

// Sound is a category of one-shot audio cue.
type Sound int

const (
	SoundIdle Sound = iota
	SoundAlert
	SoundAttack
	SoundFlee
	SoundDie
)

func (s Sound) String() string {
	switch s {
	case SoundIdle:
		return "idle"
	case SoundAlert:
		return "alert"
	case SoundAttack:
		return "attack"
	case SoundFlee:
		return "flee"
	case SoundDie:
		return "die"
	}
	return "unknown"
}

// AudioPlayer plays sound cues on behalf of an agent.
type AudioPlayer interface {
	Play(agentID int64, s Sound)
}

// Transition describes one active-node change.
type Transition struct {
	AgentID  int64
	Agent    string
	From     Behavior
	To       Behavior
	Status   Status // status reported by From
	TargetID int64
}

// Observer is told about every node change, for display and auditing.
type Observer interface {
	OnTransition(t Transition)
}

// Animation parameter and state names shared with the host's controller.
const (
	AnimStateAttack = "Attack"
	AnimTrigAttack  = "Attack"
	AnimTrigAtkInit = "AtkInit"
	AnimTrigIdle    = "Idle"
	AnimBoolMoving  = "Moving"
	AnimBoolAsleep  = "Asleep"
	AnimBoolDead    = "Dead"
)
