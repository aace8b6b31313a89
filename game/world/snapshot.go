package world

import "fmt"

// AgentSnapshot is the externally visible state of one creature.
type AgentSnapshot struct {
	ID      int64   `json:"id"`
	Species string  `json:"species"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	FacingX float64 `json:"facing_x"`
	FacingZ float64 `json:"facing_z"`

	Node        string  `json:"node"`
	Status      string  `json:"status"`
	TargetID    int64   `json:"target_id,omitempty"`
	SeeTarget   bool    `json:"see_target"`
	Patient     bool    `json:"patient"`
	PathFailed  bool    `json:"path_failed"`
	TimerAction float64 `json:"timer_action"`
	Tracks      int     `json:"tracks"`
	Anim        string  `json:"anim"`

	HP      float64 `json:"hp"`
	MaxHP   float64 `json:"max_hp"`
	Armor   float64 `json:"armor"`
	Stamina float64 `json:"stamina"`
	Wounded bool    `json:"wounded"`
	Asleep  bool    `json:"asleep"`
	Dead    bool    `json:"dead"`
}

// ArenaStats summarises the simulation for health checks.
type ArenaStats struct {
	Ticks     uint64         `json:"ticks"`
	SimTime   float64        `json:"sim_time"`
	Creatures int            `json:"creatures"`
	Alive     int            `json:"alive"`
	Sounds    map[string]int `json:"sounds"`
}

func snapshotOf(c *Creature) AgentSnapshot {
	ag, ctx := c.agent, c.tree.Context()
	s := AgentSnapshot{
		ID:          c.id,
		Species:     c.species,
		X:           ag.Position.X,
		Y:           ag.Position.Y,
		Z:           ag.Position.Z,
		FacingX:     ag.Forward.X,
		FacingZ:     ag.Forward.Z,
		Node:        ctx.NodeName,
		Status:      ctx.Status.String(),
		SeeTarget:   ctx.SeeTarget,
		Patient:     ctx.Patient,
		PathFailed:  ctx.PathFailed,
		TimerAction: ctx.TimerAction,
		Tracks:      len(ag.Tracks),
		Anim:        c.anim.CurrentStateName(0),
		HP:          c.hp,
		MaxHP:       c.maxHP,
		Armor:       c.armor,
		Stamina:     c.stamina,
		Wounded:     c.IsWounded(),
		Asleep:      c.asleep,
		Dead:        c.IsDead(),
	}
	if ag.Target != nil {
		s.TargetID = ag.Target.ObjectID()
	}
	return s
}

// Snapshot returns the state of one creature.
func (a *Arena) Snapshot(id int64) (AgentSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	c, ok := a.creatures[id]
	if !ok {
		return AgentSnapshot{}, fmt.Errorf("snapshot %d: %w", id, ErrAgentNotFound)
	}
	return snapshotOf(c), nil
}

// Snapshots returns every creature in tick order.
func (a *Arena) Snapshots() []AgentSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AgentSnapshot, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, snapshotOf(a.creatures[id]))
	}
	return out
}

// Stats returns counters for the arena.
func (a *Arena) Stats() ArenaStats {
	a.mu.RLock()
	st := ArenaStats{Ticks: a.ticks, SimTime: a.simTime, Creatures: len(a.creatures)}
	for _, c := range a.creatures {
		if !c.IsDead() {
			st.Alive++
		}
	}
	a.mu.RUnlock()
	st.Sounds = a.sounds.Counts()
	return st
}
