package config

import (
	"path/filepath"
	"testing"

	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBestiary = `
species:
  - name: wolf
    hp: 60
    armor: 5
    faction: 2
    params:
      predator: true
      run_speed: 5
    spawns:
      - {x: 4.5, z: 4.5, count: 2, respawn_s: 10}
  - name: deer
    params:
      flighty: true
      fov_half_angle: 120
`

func TestParseBestiary_DefaultsFillGaps(t *testing.T) {
	b, err := ParseBestiary([]byte(sampleBestiary))
	require.NoError(t, err)
	require.Len(t, b.Species, 2)

	wolf := b.Species[0]
	assert.Equal(t, 60.0, wolf.HP)
	assert.Equal(t, ai.Mask(2), wolf.Faction)
	assert.True(t, wolf.Params.Predator)
	assert.Equal(t, 5.0, wolf.Params.RunSpeed)
	assert.Equal(t, ai.DefaultParameters().WalkSpeed, wolf.Params.WalkSpeed, "untouched keys keep defaults")
	require.Len(t, wolf.Spawns, 1)
	assert.Equal(t, 2, wolf.Spawns[0].Count)

	deer := b.Species[1]
	assert.Equal(t, 100.0, deer.HP)
	assert.Equal(t, 0.3, deer.WoundedRatio)
	assert.Equal(t, ai.Mask(1), deer.Faction)
	assert.Equal(t, ai.HalfAngle120, deer.Params.FOVHalfAngle)
	assert.Equal(t, ai.MaskAll, deer.Params.Mask)
}

func TestBestiary_Lookup(t *testing.T) {
	b, err := ParseBestiary([]byte(sampleBestiary))
	require.NoError(t, err)

	s, err := b.Lookup("deer")
	require.NoError(t, err)
	assert.True(t, s.Params.Flighty)

	_, err = b.Lookup("dragon")
	assert.ErrorIs(t, err, ErrUnknownSpecies)
}

func TestParseBestiary_Invalid(t *testing.T) {
	cases := map[string]string{
		"syntax":    "species: [",
		"empty":     "species: []",
		"no name":   "species:\n  - hp: 3\n",
		"bad hp":    "species:\n  - name: a\n    hp: -1\n",
		"bad ratio": "species:\n  - name: a\n    wounded_ratio: 2\n",
		"duplicate": "species:\n  - name: a\n  - name: a\n",
		"spawn":     "species:\n  - name: a\n    spawns: [{count: -1}]\n",
	}
	for name, body := range cases {
		_, err := ParseBestiary([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestLoadBestiary_File(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "bestiary.yaml", sampleBestiary)
	b, err := LoadBestiary(p)
	require.NoError(t, err)
	assert.Len(t, b.Species, 2)

	_, err = LoadBestiary(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestParseBestiary_AttackKind(t *testing.T) {
	body := "species:\n  - name: viper\n    params: {atk_kind: bite}\n  - name: imp\n    params: {atk_kind: 2}\n"
	b, err := ParseBestiary([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, ai.DamageBite, b.Species[0].Params.AtkKind)
	assert.Equal(t, ai.DamageMagic, b.Species[1].Params.AtkKind)

	_, err = ParseBestiary([]byte("species:\n  - name: a\n    params: {atk_kind: fire}\n"))
	assert.Error(t, err)
}
