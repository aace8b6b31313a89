package world

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/kasuganosora/npcbrain/config"
	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/kasuganosora/npcbrain/game/nav"
	"go.uber.org/zap"
)

const (
	defaultTickInterval = 50 * time.Millisecond // 20 TPS
	// navStopping is how close a navigator gets to its last waypoint.
	navStopping = 0.05
	// spawnSnap is how far a spawn point may be moved to reach open ground.
	spawnSnap = 2.0
)

// ErrAgentNotFound is returned for unknown or removed creature ids.
var ErrAgentNotFound = errors.New("agent not found")

// ArenaConfig configures an Arena.
type ArenaConfig struct {
	Grid         *nav.Grid
	TickInterval time.Duration
	Seed         int64
	// MaxSlope limits how steep a climb navigators plan over, in degrees.
	MaxSlope float64
	Observer ai.Observer
}

// Arena is one simulated map with its own game loop. It hosts creatures,
// drives their behavior trees and answers their perception queries.
type Arena struct {
	mu        sync.RWMutex
	grid      *nav.Grid
	creatures map[int64]*Creature
	order     []int64 // tick order, oldest first
	nextID    int64
	ticks     uint64
	simTime   float64

	interval time.Duration
	maxSlope float64
	rng      *rand.Rand
	sounds   *soundBoard
	observer ai.Observer
	onDeath  []func(*Creature)

	stopCh chan struct{}
	logger *zap.Logger
}

// NewArena creates an Arena but does not start the game loop.
func NewArena(cfg ArenaConfig, logger *zap.Logger) *Arena {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Grid == nil {
		cfg.Grid = nav.NewGrid(32, 32)
	}
	return &Arena{
		grid:      cfg.Grid,
		creatures: make(map[int64]*Creature),
		interval:  cfg.TickInterval,
		maxSlope:  cfg.MaxSlope,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		sounds:    newSoundBoard(logger),
		observer:  cfg.Observer,
		stopCh:    make(chan struct{}),
		logger:    logger,
	}
}

// Run starts the fixed-step game loop. Call in a goroutine.
func (a *Arena) Run() {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	dt := a.interval.Seconds()
	for {
		select {
		case <-ticker.C:
			a.Tick(dt)
		case <-a.stopCh:
			return
		}
	}
}

// Stop signals the game loop to exit.
func (a *Arena) Stop() {
	select {
	case <-a.stopCh:
	default:
		close(a.stopCh)
	}
}

// StopChan returns a channel that is closed when the arena is stopped.
func (a *Arena) StopChan() <-chan struct{} {
	return a.stopCh
}

// OnDeath registers fn to run, outside the arena lock, once per death.
func (a *Arena) OnDeath(fn func(*Creature)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onDeath = append(a.onDeath, fn)
}

// Tick advances the simulation by dt seconds: every tree decides, then
// every navigator moves its creature.
func (a *Arena) Tick(dt float64) {
	a.mu.Lock()
	a.ticks++
	a.simTime += dt
	for _, id := range a.order {
		c := a.creatures[id]
		c.tree.Invoke(c.agent, dt)
		a.step(c, dt)
	}
	var died []*Creature
	for _, id := range a.order {
		c := a.creatures[id]
		if c.IsDead() && !c.deathSeen {
			c.deathSeen = true
			died = append(died, c)
		}
	}
	hooks := append([]func(*Creature){}, a.onDeath...)
	a.mu.Unlock()

	for _, c := range died {
		a.logger.Info("creature died", zap.Int64("agent_id", c.id), zap.String("species", c.species))
		for _, fn := range hooks {
			fn(c)
		}
	}
}

func (a *Arena) step(c *Creature, dt float64) {
	speed := c.nav.Speed()
	pos, heading := c.nav.Step(c.agent.Position, dt)
	c.agent.Position = pos
	moving := !heading.IsZero()
	if moving && c.nav.UpdateRotation() {
		c.agent.Forward = heading
	}
	if !moving {
		speed = 0
	}
	c.exertion(speed, dt)
	c.anim.advance(dt)
}

// ---- ai.Perceiver (called from Tick with the lock held) ----

// OverlapQuery returns live creatures within radius of origin whose faction
// intersects mask.
func (a *Arena) OverlapQuery(origin ai.Vec3, radius float64, mask ai.Mask) []ai.Object {
	r2 := radius * radius
	var out []ai.Object
	for _, id := range a.order {
		c := a.creatures[id]
		if c.destroyed || c.faction&mask == 0 {
			continue
		}
		if c.Position().DistSqr(origin) <= r2 {
			out = append(out, c)
		}
	}
	return out
}

// LineOfSight walks the tiles between origin and target on the ground
// plane. Solid tiles block every layer, so mask is not consulted.
func (a *Arena) LineOfSight(origin, target ai.Vec3, _ ai.Mask) bool {
	start, end := a.grid.TileAt(origin), a.grid.TileAt(target)
	dx, dz := target.X-origin.X, target.Z-origin.Z

	stepX, tMaxX, tDeltaX := traverseAxis(origin.X, dx, start.X)
	stepZ, tMaxZ, tDeltaZ := traverseAxis(origin.Z, dz, start.Y)

	x, z := start.X, start.Y
	n := abs(end.X-start.X) + abs(end.Y-start.Y)
	for i := 0; i < n; i++ {
		switch {
		case x == end.X:
			z += stepZ
		case z == end.Y:
			x += stepX
		case tMaxX < tMaxZ:
			tMaxX += tDeltaX
			x += stepX
		default:
			tMaxZ += tDeltaZ
			z += stepZ
		}
		if !a.grid.Walkable(x, z) {
			return false
		}
	}
	return true
}

// traverseAxis sets up one axis of a grid ray walk starting at p in the
// given cell and moving d over the whole ray.
func traverseAxis(p, d float64, cell int) (step int, tMax, tDelta float64) {
	switch {
	case d > 0:
		return 1, (float64(cell) + 1 - p) / d, 1 / d
	case d < 0:
		return -1, (p - float64(cell)) / -d, 1 / -d
	}
	return 0, math.Inf(1), math.Inf(1)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// SampleWalkable snaps p to the centre of the nearest open tile within r.
func (a *Arena) SampleWalkable(p ai.Vec3, r float64) (ai.Vec3, bool) {
	t, ok := a.grid.Nearest(p, r)
	if !ok {
		return ai.Vec3{}, false
	}
	return a.grid.Center(t), true
}

// ---- Creature management ----

// Spawn adds a creature of species sp at pos, moved to the nearest open
// tile if needed.
func (a *Arena) Spawn(sp config.Species, pos ai.Vec3) (*Creature, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spawnLocked(sp, pos)
}

func (a *Arena) spawnLocked(sp config.Species, pos ai.Vec3) (*Creature, error) {
	t, ok := a.grid.Nearest(pos, spawnSnap)
	if !ok {
		return nil, fmt.Errorf("world: spawn %s at (%.1f, %.1f): no open ground", sp.Name, pos.X, pos.Z)
	}
	if tile := a.grid.TileAt(pos); tile != t {
		pos = a.grid.Center(t)
	} else {
		pos.Y = a.grid.Elevation(t.X, t.Y)
	}

	a.nextID++
	id := a.nextID
	c := newCreature(id, sp, pos)
	c.nav = nav.NewNavigator(a.grid, pos, navStopping, a.maxSlope)
	c.agent.Nav = c.nav
	c.tree = ai.NewTree(ai.Deps{
		Perception: a,
		Audio:      a.sounds,
		Observer:   a.observer,
		Rand:       a.rng,
		Logger:     a.logger,
	})
	a.creatures[id] = c
	a.order = append(a.order, id)

	a.logger.Info("creature spawned",
		zap.Int64("agent_id", id),
		zap.String("species", sp.Name),
		zap.Float64("x", pos.X),
		zap.Float64("z", pos.Z))
	return c, nil
}

// Remove takes a creature out of the arena. Others still tracking it see
// it as destroyed on their next scan.
func (a *Arena) Remove(id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.creatures[id]
	if !ok {
		return fmt.Errorf("remove %d: %w", id, ErrAgentNotFound)
	}
	c.destroyed = true
	c.nav.ResetPath()
	delete(a.creatures, id)
	for i, oid := range a.order {
		if oid == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return nil
}

// Damage applies a hit to a creature. attackerID 0 means an unknown source,
// which does not provoke.
func (a *Arena) Damage(id int64, kind ai.DamageKind, amount float64, attackerID int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.creatures[id]
	if !ok {
		return fmt.Errorf("damage %d: %w", id, ErrAgentNotFound)
	}
	var attacker ai.Object
	if attackerID != 0 {
		att, ok := a.creatures[attackerID]
		if !ok {
			return fmt.Errorf("attacker %d: %w", attackerID, ErrAgentNotFound)
		}
		attacker = att
	}
	c.ApplyDamage(kind, amount, attacker)
	return nil
}

// SetAsleep puts a creature to sleep or wakes it.
func (a *Arena) SetAsleep(id int64, asleep bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.creatures[id]
	if !ok {
		return fmt.Errorf("sleep %d: %w", id, ErrAgentNotFound)
	}
	c.asleep = asleep
	return nil
}

// UpdateSpecies applies a changed species definition to its live creatures
// and returns how many were updated.
func (a *Arena) UpdateSpecies(sp config.Species) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.creatures {
		if c.species == sp.Name {
			c.applySpecies(sp, false)
			n++
		}
	}
	return n
}

// WithCreature runs fn on a creature under the arena lock.
func (a *Arena) WithCreature(id int64, fn func(*Creature)) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.creatures[id]
	if !ok {
		return fmt.Errorf("creature %d: %w", id, ErrAgentNotFound)
	}
	fn(c)
	return nil
}

// Grid returns the arena's navigation grid.
func (a *Arena) Grid() *nav.Grid { return a.grid }
