package ai

import (
	"fmt"
	"strconv"
)

// Mask selects which perception layers a query sees.
type Mask uint32

// MaskAll matches every layer.
const MaskAll Mask = 0xFFFFFFFF

// DamageKind classifies an attack for the receiving entity.
type DamageKind int

const (
	DamagePhysical DamageKind = iota
	DamageBite
	DamageMagic
)

var damageKindNames = [...]string{"physical", "bite", "magic"}

func (k DamageKind) String() string {
	if k < 0 || int(k) >= len(damageKindNames) {
		return "unknown"
	}
	return damageKindNames[k]
}

// ParseDamageKind maps a name from String back to its kind. An empty name
// is physical.
func ParseDamageKind(s string) (DamageKind, bool) {
	if s == "" {
		return DamagePhysical, true
	}
	for i, n := range damageKindNames {
		if n == s {
			return DamageKind(i), true
		}
	}
	return 0, false
}

// UnmarshalText accepts a kind name or its number, so catalogues can say
// atk_kind: bite.
func (k *DamageKind) UnmarshalText(text []byte) error {
	if v, ok := ParseDamageKind(string(text)); ok {
		*k = v
		return nil
	}
	n, err := strconv.Atoi(string(text))
	if err != nil || n < 0 || n >= len(damageKindNames) {
		return fmt.Errorf("unknown damage kind %q", text)
	}
	*k = DamageKind(n)
	return nil
}

// Parameters are the temperament and threshold settings of one agent.
// Distances are in world units, times in seconds, angles in degrees.
type Parameters struct {
	AtkDist    float64 `yaml:"atk_dist" mapstructure:"atk_dist"`
	StopDist   float64 `yaml:"stop_dist" mapstructure:"stop_dist"`
	AwareMax   float64 `yaml:"aware_max" mapstructure:"aware_max"`
	AwareMed   float64 `yaml:"aware_med" mapstructure:"aware_med"`
	AwareClose float64 `yaml:"aware_close" mapstructure:"aware_close"`

	AlertCheckInterval float64 `yaml:"alert_check_interval" mapstructure:"alert_check_interval"`
	ScanInterval       float64 `yaml:"scan_interval" mapstructure:"scan_interval"`

	WalkSpeed        float64 `yaml:"walk_speed" mapstructure:"walk_speed"`
	RunSpeed         float64 `yaml:"run_speed" mapstructure:"run_speed"`
	AttackMoveFactor float64 `yaml:"attack_move_factor" mapstructure:"attack_move_factor"`
	RotSpeed         float64 `yaml:"rot_speed" mapstructure:"rot_speed"`
	RotAngle         float64 `yaml:"rot_angle" mapstructure:"rot_angle"`

	PatienceTime float64 `yaml:"patience_time" mapstructure:"patience_time"`
	// PatienceChance is the probability that an expired patience window is spent.
	PatienceChance float64 `yaml:"patience_chance" mapstructure:"patience_chance"`
	RoamDist       float64 `yaml:"roam_dist" mapstructure:"roam_dist"`
	RoamTime       float64 `yaml:"roam_time" mapstructure:"roam_time"`

	AtkInit   float64    `yaml:"atk_init" mapstructure:"atk_init"`
	AtkEnd    float64    `yaml:"atk_end" mapstructure:"atk_end"`
	AtkDamage float64    `yaml:"atk_damage" mapstructure:"atk_damage"`
	AtkKind   DamageKind `yaml:"atk_kind" mapstructure:"atk_kind"`

	FOVHalfAngle int  `yaml:"fov_half_angle" mapstructure:"fov_half_angle"`
	Mask         Mask `yaml:"mask" mapstructure:"mask"`

	Predator            bool `yaml:"predator" mapstructure:"predator"`
	Territorial         bool `yaml:"territorial" mapstructure:"territorial"`
	Flighty             bool `yaml:"flighty" mapstructure:"flighty"`
	RetargetOnProximity bool `yaml:"retarget_on_proximity" mapstructure:"retarget_on_proximity"`
}

// DefaultParameters returns a neutral, non-predatory temperament.
func DefaultParameters() Parameters {
	return Parameters{
		AtkDist:            1.5,
		StopDist:           0.5,
		AwareMax:           20,
		AwareMed:           12,
		AwareClose:         6,
		AlertCheckInterval: 0.25,
		ScanInterval:       0.5,
		WalkSpeed:          1.5,
		RunSpeed:           4,
		AttackMoveFactor:   0.3,
		RotSpeed:           240,
		RotAngle:           10,
		PatienceTime:       3,
		PatienceChance:     0.5,
		RoamDist:           8,
		RoamTime:           5,
		AtkInit:            0.4,
		AtkEnd:             0.8,
		AtkDamage:          10,
		AtkKind:            DamagePhysical,
		FOVHalfAngle:       HalfAngle90,
		Mask:               MaskAll,
	}
}

// engages reports whether the temperament closes in on a seen target.
func (p Parameters) engages() bool { return p.Predator || p.Territorial }

// standsGround reports whether a wounded agent fights back instead of fleeing.
func (p Parameters) standsGround() bool { return p.Territorial || (p.Predator && !p.Flighty) }
