package nav

import (
	"fmt"
	"math"

	"github.com/kasuganosora/npcbrain/game/ai"
)

// Dir is one of the four exits of a tile.
type Dir int

const (
	DirDown Dir = iota // +Z
	DirLeft            // -X
	DirRight           // +X
	DirUp              // -Z
)

var dirOffsets = [4]Tile{{0, 1}, {-1, 0}, {1, 0}, {0, -1}}

// Offset returns the tile step for d.
func (d Dir) Offset() Tile { return dirOffsets[d] }

// Tile is a grid coordinate. X maps to world X and Y to world Z.
type Tile struct {
	X, Y int
}

// Grid stores passability for each tile in 4 directions plus a per-tile
// elevation. Tiles are one world unit square.
type Grid struct {
	Width  int
	Height int
	// pass[y][x][dir]
	pass      [][][4]bool
	blocked   [][]bool
	elevation [][]float64
}

// NewGrid creates a grid with every tile open.
func NewGrid(w, h int) *Grid {
	g := &Grid{Width: w, Height: h}
	g.pass = make([][][4]bool, h)
	g.blocked = make([][]bool, h)
	g.elevation = make([][]float64, h)
	for y := 0; y < h; y++ {
		g.pass[y] = make([][4]bool, w)
		g.blocked[y] = make([]bool, w)
		g.elevation[y] = make([]float64, w)
		for x := range g.pass[y] {
			g.pass[y][x] = [4]bool{true, true, true, true}
		}
	}
	return g
}

// ParseGrid builds a grid from rows of '.' (open) and '#' (blocked).
// Digits 1-9 are open tiles raised to that elevation.
func ParseGrid(rows []string) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("nav: empty layout")
	}
	w := len(rows[0])
	g := NewGrid(w, len(rows))
	for y, row := range rows {
		if len(row) != w {
			return nil, fmt.Errorf("nav: row %d has width %d, want %d", y, len(row), w)
		}
		for x, c := range row {
			switch {
			case c == '.':
			case c == '#':
				g.SetBlocked(x, y, true)
			case c >= '1' && c <= '9':
				g.SetElevation(x, y, float64(c-'0'))
			default:
				return nil, fmt.Errorf("nav: unknown tile %q at %d,%d", c, x, y)
			}
		}
	}
	return g, nil
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// SetBlocked marks a whole tile as solid or open.
func (g *Grid) SetBlocked(x, y int, blocked bool) {
	if !g.InBounds(x, y) {
		return
	}
	g.blocked[y][x] = blocked
}

// SetPass sets whether the tile can be left in direction d.
func (g *Grid) SetPass(x, y int, d Dir, passable bool) {
	if !g.InBounds(x, y) {
		return
	}
	g.pass[y][x][d] = passable
}

func (g *Grid) SetElevation(x, y int, h float64) {
	if !g.InBounds(x, y) {
		return
	}
	g.elevation[y][x] = h
}

// Elevation returns the tile height, or 0 out of bounds.
func (g *Grid) Elevation(x, y int) float64 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.elevation[y][x]
}

// Walkable reports whether (x, y) is inside the grid and not solid.
func (g *Grid) Walkable(x, y int) bool {
	return g.InBounds(x, y) && !g.blocked[y][x]
}

// CanPass reports whether movement from (x, y) in direction d is allowed.
func (g *Grid) CanPass(x, y int, d Dir) bool {
	if !g.Walkable(x, y) || !g.pass[y][x][d] {
		return false
	}
	o := d.Offset()
	return g.Walkable(x+o.X, y+o.Y)
}

// TileAt returns the tile containing world position p.
func (g *Grid) TileAt(p ai.Vec3) Tile {
	return Tile{X: int(math.Floor(p.X)), Y: int(math.Floor(p.Z))}
}

// Center returns the world position of the middle of t, on its surface.
func (g *Grid) Center(t Tile) ai.Vec3 {
	return ai.Vec3{X: float64(t.X) + 0.5, Y: g.Elevation(t.X, t.Y), Z: float64(t.Y) + 0.5}
}

// Nearest returns the walkable tile closest to p within radius tiles.
func (g *Grid) Nearest(p ai.Vec3, radius float64) (Tile, bool) {
	origin := g.TileAt(p)
	if g.Walkable(origin.X, origin.Y) {
		return origin, true
	}
	r := int(math.Ceil(radius))
	best, found := Tile{}, false
	bestSqr := math.Inf(1)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			t := Tile{origin.X + dx, origin.Y + dy}
			if !g.Walkable(t.X, t.Y) {
				continue
			}
			d := g.Center(t).Flat().DistSqr(p.Flat())
			if d <= radius*radius && d < bestSqr {
				best, bestSqr, found = t, d, true
			}
		}
	}
	return best, found
}
