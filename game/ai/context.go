package ai

import (
	"math/rand"

	"go.uber.org/zap"
)

// Random is the source of the random draws nodes make.
type Random interface {
	Float64() float64
}

// Context is the per-agent state of a behavior tree. It is owned by exactly
// one Tree and mutated only by the driver and the active node.
type Context struct {
	Active Behavior
	Status Status
	// NodeName is the display name of the active node.
	NodeName string

	// Seconds since each timer's last reset.
	TimerRoot   float64
	TimerAction float64
	TimerCheck  float64

	ActionReady bool

	DistTargetSqr float64
	DistMoveSqr   float64
	PrevPosition  Vec3

	PathFailed bool
	AnimState  string
	SeeTarget  bool
	Patient    bool

	// Delta is the length of the tick being evaluated.
	Delta float64

	perception Perceiver
	audio      AudioPlayer
	rng        Random
	logger     *zap.Logger

	fleeFromTarget bool
	warned         map[string]bool
}

func newContext(perception Perceiver, audio AudioPlayer, rng Random, logger *zap.Logger) *Context {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Active:      BehaviorIdle,
		Status:      StatusRunning,
		NodeName:    BehaviorIdle.String(),
		ActionReady: true,
		Patient:     true,
		perception:  perception,
		audio:       audio,
		rng:         rng,
		logger:      logger,
		warned:      make(map[string]bool),
	}
}

// warnMissing logs a missing collaborator once per context.
func (c *Context) warnMissing(a *Agent, capability string) {
	if c.warned[capability] {
		return
	}
	c.warned[capability] = true
	c.logger.Warn("agent is missing a capability; action skipped",
		zap.Int64("agent_id", a.ID),
		zap.String("agent", a.Name),
		zap.String("capability", capability),
		zap.String("node", c.Active.String()))
}

func (c *Context) play(a *Agent, s Sound) {
	if c.audio == nil {
		return
	}
	c.audio.Play(a.ID, s)
}

func (c *Context) attackAnimPlaying() bool { return c.AnimState == AnimStateAttack }
