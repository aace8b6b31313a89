package world

import (
	"sync"

	"github.com/kasuganosora/npcbrain/game/ai"
	"go.uber.org/zap"
)

// attackClip is how long the attack state shows after the trigger, in seconds.
const attackClip = 0.5

// animator is a minimal animation state machine standing in for a renderer.
type animator struct {
	attackLeft float64
	bools      map[string]bool
	last       string
}

func newAnimator() *animator {
	return &animator{bools: make(map[string]bool)}
}

// CurrentStateName reports the state shown on layer 0. Other layers are idle.
func (an *animator) CurrentStateName(layer int) string {
	if layer != 0 {
		return "Idle"
	}
	switch {
	case an.bools[ai.AnimBoolDead]:
		return "Dead"
	case an.bools[ai.AnimBoolAsleep]:
		return "Asleep"
	case an.attackLeft > 0:
		return ai.AnimStateAttack
	case an.bools[ai.AnimBoolMoving]:
		return "Walk"
	}
	return "Idle"
}

func (an *animator) SetTrigger(name string) {
	an.last = name
	if name == ai.AnimTrigAttack {
		an.attackLeft = attackClip
	}
}

func (an *animator) ResetTrigger(name string) {
	if name == ai.AnimTrigAttack {
		an.attackLeft = 0
	}
}

func (an *animator) SetBool(name string, v bool) { an.bools[name] = v }

func (an *animator) advance(dt float64) {
	if an.attackLeft > 0 {
		an.attackLeft -= dt
	}
}

// soundBoard plays sounds by logging them and keeps a count per sound.
type soundBoard struct {
	mu     sync.Mutex
	counts map[ai.Sound]int
	logger *zap.Logger
}

func newSoundBoard(logger *zap.Logger) *soundBoard {
	return &soundBoard{counts: make(map[ai.Sound]int), logger: logger}
}

func (sb *soundBoard) Play(agentID int64, s ai.Sound) {
	sb.mu.Lock()
	sb.counts[s]++
	sb.mu.Unlock()
	sb.logger.Debug("sound played", zap.Int64("agent_id", agentID), zap.String("sound", s.String()))
}

// Counts returns plays so far keyed by sound name.
func (sb *soundBoard) Counts() map[string]int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	out := make(map[string]int, len(sb.counts))
	for s, n := range sb.counts {
		out[s.String()] = n
	}
	return out
}
