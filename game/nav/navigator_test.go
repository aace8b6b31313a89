package nav

import (
	"testing"

	"github.com/kasuganosora/npcbrain/game/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ai.Navigator = (*Navigator)(nil)

func corridor(t *testing.T) *Grid {
	t.Helper()
	g, err := ParseGrid([]string{
		"......",
		"....#.",
		"....#.",
	})
	require.NoError(t, err)
	return g
}

func TestNavigator_ValidRouteEndsOnPoint(t *testing.T) {
	n := NewNavigator(corridor(t), ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 0)
	dest := ai.Vec3{X: 3.2, Z: 2.7}
	require.True(t, n.SetDestination(dest))
	assert.True(t, n.HasPath())
	assert.Equal(t, ai.PathValid, n.PathStatus())
	assert.Equal(t, dest, n.Destination())

	wps := n.Waypoints()
	require.NotEmpty(t, wps)
	assert.Equal(t, dest, wps[len(wps)-1])
}

func TestNavigator_SameTile(t *testing.T) {
	n := NewNavigator(corridor(t), ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 0)
	require.True(t, n.SetDestination(ai.Vec3{X: 0.9, Z: 0.1}))
	assert.Equal(t, []ai.Vec3{{X: 0.9, Z: 0.1}}, n.Waypoints())
}

func TestNavigator_PartialRoute(t *testing.T) {
	g, err := ParseGrid([]string{
		"...#.",
		"...#.",
	})
	require.NoError(t, err)
	n := NewNavigator(g, ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 0)
	require.True(t, n.SetDestination(ai.Vec3{X: 4.5, Z: 0.5}))
	assert.Equal(t, ai.PathPartial, n.PathStatus())
	wps := n.Waypoints()
	require.NotEmpty(t, wps)
	assert.Equal(t, ai.Vec3{X: 2.5, Z: 0.5}, wps[len(wps)-1])
}

func TestNavigator_InvalidWhenBoxedIn(t *testing.T) {
	g, err := ParseGrid([]string{
		".#.",
		"##.",
	})
	require.NoError(t, err)
	n := NewNavigator(g, ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 0)
	require.True(t, n.SetDestination(ai.Vec3{X: 2.5, Z: 1.5}))
	assert.Equal(t, ai.PathInvalid, n.PathStatus())
	assert.True(t, n.HasPath())

	pos, heading := n.Step(ai.Vec3{X: 0.5, Z: 0.5}, 1)
	assert.Equal(t, ai.Vec3{X: 0.5, Z: 0.5}, pos)
	assert.True(t, heading.IsZero())
	assert.True(t, n.HasPath(), "an invalid route stays reported")
}

func TestNavigator_RejectsOffGrid(t *testing.T) {
	n := NewNavigator(corridor(t), ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 0)
	assert.False(t, n.SetDestination(ai.Vec3{X: -3, Z: 0.5}))
	assert.False(t, n.HasPath())

	var none Navigator
	assert.False(t, none.SetDestination(ai.Vec3{X: 1, Z: 1}))
}

func TestNavigator_StepAdvancesAtSpeed(t *testing.T) {
	n := NewNavigator(NewGrid(10, 1), ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 0)
	n.SetSpeed(2)
	require.True(t, n.SetDestination(ai.Vec3{X: 8.5, Z: 0.5}))

	pos := ai.Vec3{X: 0.5, Z: 0.5}
	pos, heading := n.Step(pos, 0.5)
	assert.InDelta(t, 1.5, pos.X, 1e-9)
	assert.InDelta(t, 1, heading.X, 1e-9)

	for i := 0; i < 10; i++ {
		pos, _ = n.Step(pos, 0.5)
	}
	assert.InDelta(t, 8.5, pos.X, 1e-9)
	assert.False(t, n.HasPath(), "arrived")

	pos2, heading := n.Step(pos, 0.5)
	assert.Equal(t, pos, pos2)
	assert.True(t, heading.IsZero())
}

func TestNavigator_StepFollowsCorners(t *testing.T) {
	g := corridor(t)
	n := NewNavigator(g, ai.Vec3{X: 3.5, Z: 2.5}, 0.05, 0)
	n.SetSpeed(1)
	require.True(t, n.SetDestination(ai.Vec3{X: 5.5, Z: 2.5}))

	pos := ai.Vec3{X: 3.5, Z: 2.5}
	for i := 0; i < 40 && n.HasPath(); i++ {
		pos, _ = n.Step(pos, 0.25)
		tile := g.TileAt(pos)
		assert.True(t, g.Walkable(tile.X, tile.Y), "walked into %v", tile)
	}
	assert.False(t, n.HasPath())
	assert.InDelta(t, 5.5, pos.X, 0.06)
	assert.InDelta(t, 2.5, pos.Z, 0.06)
}

func TestNavigator_ZeroSpeedStandsStill(t *testing.T) {
	n := NewNavigator(NewGrid(5, 1), ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 0)
	require.True(t, n.SetDestination(ai.Vec3{X: 4.5, Z: 0.5}))
	pos, _ := n.Step(ai.Vec3{X: 0.5, Z: 0.5}, 1)
	assert.Equal(t, 0.5, pos.X)
	assert.True(t, n.HasPath())
}

func TestNavigator_ResetAndWarp(t *testing.T) {
	n := NewNavigator(NewGrid(5, 5), ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 0)
	require.True(t, n.SetDestination(ai.Vec3{X: 4.5, Z: 4.5}))
	n.ResetPath()
	assert.False(t, n.HasPath())
	assert.Empty(t, n.Waypoints())
	assert.True(t, n.Destination().IsZero())

	n.Warp(ai.Vec3{X: 4.5, Z: 0.5})
	require.True(t, n.SetDestination(ai.Vec3{X: 4.5, Z: 1.5}))
	assert.Len(t, n.Waypoints(), 1)
}

func TestNavigator_SlopeLimitBlocksCliffs(t *testing.T) {
	g, err := ParseGrid([]string{
		".9.",
		"...",
	})
	require.NoError(t, err)
	n := NewNavigator(g, ai.Vec3{X: 0.5, Z: 0.5}, 0.1, 45)
	assert.Equal(t, 45.0, n.MaxSlope())
	require.True(t, n.SetDestination(ai.Vec3{X: 2.5, Z: 0.5}))
	assert.Equal(t, ai.PathValid, n.PathStatus())
	for _, wp := range n.Waypoints() {
		assert.NotEqual(t, 9.0, wp.Y, "route avoids the raised tile")
	}
}

func TestNavigator_RotationFlag(t *testing.T) {
	n := NewNavigator(NewGrid(2, 2), ai.Vec3{}, 0.1, 0)
	assert.True(t, n.UpdateRotation())
	n.SetUpdateRotation(false)
	assert.False(t, n.UpdateRotation())
	assert.Equal(t, 0.1, n.StoppingDistance())
}
