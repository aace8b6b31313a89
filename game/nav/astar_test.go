package nav

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAStar_SameTile(t *testing.T) {
	g := NewGrid(5, 5)
	path := AStar(g, Tile{2, 2}, Tile{2, 2})
	require.NotNil(t, path)
	assert.Empty(t, path)
}

func TestAStar_StraightLine(t *testing.T) {
	g := NewGrid(5, 1)
	path := AStar(g, Tile{0, 0}, Tile{4, 0})
	assert.Equal(t, []Tile{{1, 0}, {2, 0}, {3, 0}, {4, 0}}, path)
}

func TestAStar_AroundWall(t *testing.T) {
	g, err := ParseGrid([]string{
		".....",
		".###.",
		".....",
	})
	require.NoError(t, err)

	path := AStar(g, Tile{2, 0}, Tile{2, 2})
	require.NotNil(t, path)
	assert.Len(t, path, 6)
	assert.Equal(t, Tile{2, 2}, path[len(path)-1])
	prev := Tile{2, 0}
	for _, p := range path {
		assert.True(t, g.Walkable(p.X, p.Y), "path crosses %v", p)
		assert.Equal(t, 1, manhattan(prev, p), "steps are adjacent")
		prev = p
	}
}

func TestAStar_NoPath(t *testing.T) {
	g, err := ParseGrid([]string{
		"..#..",
		"..#..",
	})
	require.NoError(t, err)
	assert.Nil(t, AStar(g, Tile{0, 0}, Tile{4, 1}))
	assert.Nil(t, AStar(nil, Tile{0, 0}, Tile{1, 0}))
	assert.Nil(t, AStar(g, Tile{2, 0}, Tile{0, 0}), "start inside a wall")
}

func TestAStar_OneWay(t *testing.T) {
	g := NewGrid(3, 1)
	g.SetPass(1, 0, DirRight, false)
	assert.Nil(t, AStar(g, Tile{0, 0}, Tile{2, 0}))
	assert.NotNil(t, AStar(g, Tile{2, 0}, Tile{0, 0}))
}

func TestSearch_PartialTowardGoal(t *testing.T) {
	g, err := ParseGrid([]string{
		"...#.",
		"...#.",
	})
	require.NoError(t, err)
	path, reached := search(g, Tile{0, 0}, Tile{4, 0}, math.Inf(1))
	assert.False(t, reached)
	require.NotEmpty(t, path)
	assert.Equal(t, 2, path[len(path)-1].X, "stops next to the wall")
}

func TestSearch_RiseLimit(t *testing.T) {
	g, err := ParseGrid([]string{
		".5.",
	})
	require.NoError(t, err)
	_, reached := search(g, Tile{0, 0}, Tile{2, 0}, 1)
	assert.False(t, reached, "cliff in the way")
	_, reached = search(g, Tile{0, 0}, Tile{2, 0}, 10)
	assert.True(t, reached)
}
