package world

import (
	"math"

	"github.com/kasuganosora/npcbrain/config"
	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/kasuganosora/npcbrain/game/nav"
)

// Stamina drains while a creature runs and refills while it walks or rests.
const (
	staminaDrain = 10.0
	staminaRegen = 5.0
)

// Creature is a live NPC body in an Arena. All fields are guarded by the
// owning arena's lock.
type Creature struct {
	id      int64
	species string
	faction ai.Mask

	hp, maxHP           float64
	armor, maxArmor     float64
	stamina, maxStamina float64
	woundedRatio        float64

	asleep    bool
	invisible bool
	destroyed bool
	// deathSeen is set once the arena has reported the death.
	deathSeen bool

	agent *ai.Agent
	tree  *ai.Tree
	nav   *nav.Navigator
	anim  *animator
}

func newCreature(id int64, sp config.Species, pos ai.Vec3) *Creature {
	c := &Creature{
		id:      id,
		species: sp.Name,
		anim:    newAnimator(),
	}
	c.applySpecies(sp, true)
	c.agent = ai.NewAgent(id, sp.Name, sp.Params, c)
	c.agent.Position = pos
	c.agent.Body = c
	c.agent.Anim = c.anim
	return c
}

// applySpecies copies the body settings of sp; fill restores the pools.
func (c *Creature) applySpecies(sp config.Species, fill bool) {
	c.faction = sp.Faction
	c.maxHP = sp.HP
	c.maxArmor = sp.Armor
	c.maxStamina = sp.Stamina
	c.woundedRatio = sp.WoundedRatio
	if fill {
		c.hp, c.armor, c.stamina = c.maxHP, c.maxArmor, c.maxStamina
		return
	}
	c.hp = math.Min(c.hp, c.maxHP)
	c.armor = math.Min(c.armor, c.maxArmor)
	c.stamina = math.Min(c.stamina, c.maxStamina)
	if c.agent != nil {
		c.agent.SetParams(sp.Params)
	}
}

func (c *Creature) ID() int64         { return c.id }
func (c *Creature) Species() string   { return c.species }
func (c *Creature) Agent() *ai.Agent  { return c.agent }
func (c *Creature) Tree() *ai.Tree    { return c.tree }
func (c *Creature) ObjectID() int64   { return c.id }
func (c *Creature) Position() ai.Vec3 { return c.agent.Position }
func (c *Creature) IsDead() bool      { return c.hp <= 0 }
func (c *Creature) IsAsleep() bool    { return c.asleep }
func (c *Creature) IsInvisible() bool { return c.invisible }
func (c *Creature) Destroyed() bool   { return c.destroyed }
func (c *Creature) HP() float64       { return c.hp }
func (c *Creature) Faction() ai.Mask  { return c.faction }

// IsWounded reports HP at or below the species' wounded ratio.
func (c *Creature) IsWounded() bool {
	return !c.IsDead() && c.hp <= c.maxHP*c.woundedRatio
}

// HealToMax refills every pool.
func (c *Creature) HealToMax() {
	if c.IsDead() {
		return
	}
	c.hp, c.armor, c.stamina = c.maxHP, c.maxArmor, c.maxStamina
}

// ApplyDamage lands a hit. Armor soaks physical and bite damage before HP;
// magic goes straight through. A known attacker provokes the creature.
func (c *Creature) ApplyDamage(kind ai.DamageKind, amount float64, attacker ai.Object) {
	if c.IsDead() || amount <= 0 {
		return
	}
	if kind != ai.DamageMagic {
		soak := math.Min(c.armor, amount)
		c.armor -= soak
		amount -= soak
	}
	c.hp = math.Max(0, c.hp-amount)
	// Waking up is the least a hit does.
	c.asleep = false
	if attacker != nil && !c.IsDead() {
		c.agent.Provoke(attacker)
	}
}

// exertion updates stamina for a tick spent at speed.
func (c *Creature) exertion(speed, dt float64) {
	if speed > c.agent.Params.WalkSpeed {
		c.stamina = math.Max(0, c.stamina-staminaDrain*dt)
		return
	}
	c.stamina = math.Min(c.maxStamina, c.stamina+staminaRegen*dt)
}
