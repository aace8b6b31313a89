package world

import (
	"fmt"
	"sync"
	"time"

	"github.com/kasuganosora/npcbrain/config"
	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/kasuganosora/npcbrain/scheduler"
	"go.uber.org/zap"
)

type spawnSlot struct {
	species string
	point   config.SpawnPoint
	alive   map[int64]bool
}

// Spawner keeps the bestiary's spawn points populated and respawns
// creatures some time after they die.
type Spawner struct {
	arena    *Arena
	sched    *scheduler.Scheduler
	mu       sync.Mutex
	bestiary *config.Bestiary
	slots    []*spawnSlot
	byAgent  map[int64]int // creature id -> slot index
	logger   *zap.Logger
}

// NewSpawner creates a Spawner and subscribes it to deaths in arena.
func NewSpawner(arena *Arena, sched *scheduler.Scheduler, b *config.Bestiary, logger *zap.Logger) *Spawner {
	sp := &Spawner{
		arena:    arena,
		sched:    sched,
		bestiary: b,
		byAgent:  make(map[int64]int),
		logger:   logger,
	}
	arena.OnDeath(sp.handleDeath)
	return sp
}

// SpawnAll builds the spawn slots from the bestiary and fills them.
func (sp *Spawner) SpawnAll() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.slots = sp.slots[:0]
	for _, s := range sp.bestiary.Species {
		for _, p := range s.Spawns {
			sp.slots = append(sp.slots, &spawnSlot{species: s.Name, point: p, alive: make(map[int64]bool)})
		}
	}
	for i := range sp.slots {
		sp.fill(i)
	}
}

// CheckRespawns tops up every slot that is below its count.
// Should be called periodically from the scheduler.
func (sp *Spawner) CheckRespawns() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	for i := range sp.slots {
		sp.fill(i)
	}
}

func (sp *Spawner) fill(idx int) {
	slot := sp.slots[idx]
	s, err := sp.bestiary.Lookup(slot.species)
	if err != nil {
		sp.logger.Warn("spawn slot skipped", zap.String("species", slot.species), zap.Error(err))
		return
	}
	for k := len(slot.alive); k < slot.point.Count; k++ {
		pos := ai.Vec3{X: slot.point.X + float64(k), Z: slot.point.Z}
		c, err := sp.arena.Spawn(s, pos)
		if err != nil {
			sp.logger.Warn("spawn failed", zap.String("species", s.Name), zap.Error(err))
			return
		}
		slot.alive[c.ID()] = true
		sp.byAgent[c.ID()] = idx
	}
}

func (sp *Spawner) handleDeath(c *Creature) {
	sp.mu.Lock()
	idx, ok := sp.byAgent[c.ID()]
	var delay float64
	if ok {
		delay = sp.slots[idx].point.RespawnS
	}
	sp.mu.Unlock()
	if !ok || delay <= 0 {
		return
	}
	id := c.ID()
	sp.sched.AddDelay(fmt.Sprintf("respawn:%d", id), time.Duration(delay*float64(time.Second)), func() {
		sp.respawn(id)
	})
}

// respawn clears the corpse and refills its slot.
func (sp *Spawner) respawn(id int64) {
	if err := sp.arena.Remove(id); err != nil {
		sp.logger.Debug("corpse already gone", zap.Int64("agent_id", id))
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	idx, ok := sp.byAgent[id]
	if !ok {
		return
	}
	delete(sp.byAgent, id)
	delete(sp.slots[idx].alive, id)
	sp.fill(idx)
}

// SetBestiary swaps in a reloaded catalogue and retunes live creatures.
func (sp *Spawner) SetBestiary(b *config.Bestiary) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.bestiary = b
	for _, s := range b.Species {
		n := sp.arena.UpdateSpecies(s)
		sp.logger.Info("species updated", zap.String("species", s.Name), zap.Int("creatures", n))
	}
}

// Population returns how many creatures, dead or alive, the spawner owns.
func (sp *Spawner) Population() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return len(sp.byAgent)
}
