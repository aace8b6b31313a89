package ai

import "strings"

// Behavior identifies one of the stateless behavior nodes. The zero value is
// None. All per-agent state lives in Context, so a Behavior can be shared by
// every agent.
type Behavior uint8

const (
	BehaviorNone Behavior = iota
	BehaviorIdle
	BehaviorMoving
	BehaviorAlert
	BehaviorWary
	BehaviorHunt
	BehaviorAggro
	BehaviorAttack
	BehaviorFlee
	BehaviorAsleep
	BehaviorDead
)

var behaviorNames = [...]string{
	BehaviorNone:   "None",
	BehaviorIdle:   "Idle",
	BehaviorMoving: "Moving",
	BehaviorAlert:  "Alert",
	BehaviorWary:   "Wary",
	BehaviorHunt:   "Hunt",
	BehaviorAggro:  "Aggro",
	BehaviorAttack: "Attack",
	BehaviorFlee:   "Flee",
	BehaviorAsleep: "Asleep",
	BehaviorDead:   "Dead",
}

func (b Behavior) String() string {
	if int(b) < len(behaviorNames) {
		return behaviorNames[b]
	}
	return behaviorNames[BehaviorNone]
}

// ParseBehavior resolves a display name; unknown names map to None.
func ParseBehavior(name string) Behavior {
	for i, n := range behaviorNames {
		if strings.EqualFold(n, name) {
			return Behavior(i)
		}
	}
	return BehaviorNone
}

// Tick runs the behavior for one agent.
func (b Behavior) Tick(a *Agent, ctx *Context) Status {
	switch b {
	case BehaviorIdle:
		return tickIdle(a, ctx)
	case BehaviorMoving:
		return tickMoving(a, ctx)
	case BehaviorAlert:
		return tickAlert(a, ctx)
	case BehaviorWary:
		return tickWary(a, ctx)
	case BehaviorHunt:
		return tickHunt(a, ctx)
	case BehaviorAggro:
		return tickAggro(a, ctx)
	case BehaviorAttack:
		return tickAttack(a, ctx)
	case BehaviorFlee:
		return tickFlee(a, ctx)
	case BehaviorAsleep:
		return tickAsleep(a, ctx)
	case BehaviorDead:
		return tickDead(a, ctx)
	default:
		return tickNone(a, ctx)
	}
}
