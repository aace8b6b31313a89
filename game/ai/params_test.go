package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDamageKind(t *testing.T) {
	for _, k := range []DamageKind{DamagePhysical, DamageBite, DamageMagic} {
		got, ok := ParseDamageKind(k.String())
		assert.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}

	got, ok := ParseDamageKind("")
	assert.True(t, ok)
	assert.Equal(t, DamagePhysical, got)

	_, ok = ParseDamageKind("fire")
	assert.False(t, ok)
	assert.Equal(t, "unknown", DamageKind(9).String())
}
