package nav

import (
	"container/heap"
	"math"
)

type node struct {
	pt     Tile
	g, f   int
	parent *node
}

type openSet []*node

func (q openSet) Len() int { return len(q) }
func (q openSet) Less(i, j int) bool {
	if q[i].f == q[j].f {
		return q[i].g > q[j].g
	}
	return q[i].f < q[j].f
}
func (q openSet) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *openSet) Push(x any)   { *q = append(*q, x.(*node)) }
func (q *openSet) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

func manhattan(a, b Tile) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// AStar finds the shortest passable path from `from` to `to`.
// Returns the path excluding the start and including the end, an empty
// path when from == to, and nil if no path exists.
func AStar(g *Grid, from, to Tile) []Tile {
	path, reached := search(g, from, to, math.Inf(1))
	if !reached {
		return nil
	}
	return path
}

// search runs A* with a limit on the height change between neighbouring
// tiles. When the goal cannot be reached it returns the path to the explored
// tile nearest the goal and reached=false.
func search(g *Grid, from, to Tile, maxRise float64) (path []Tile, reached bool) {
	if g == nil || !g.Walkable(from.X, from.Y) {
		return nil, false
	}
	if from == to {
		return []Tile{}, true
	}

	closed := make(map[Tile]bool)
	gScore := map[Tile]int{from: 0}
	start := &node{pt: from, f: manhattan(from, to)}
	best := start

	open := &openSet{start}
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.pt] {
			continue
		}
		closed[cur.pt] = true

		if cur.pt == to {
			return unwind(cur), true
		}
		if h, bh := manhattan(cur.pt, to), manhattan(best.pt, to); h < bh || (h == bh && cur.g < best.g) {
			best = cur
		}

		for d := DirDown; d <= DirUp; d++ {
			o := d.Offset()
			np := Tile{cur.pt.X + o.X, cur.pt.Y + o.Y}
			if closed[np] || !g.CanPass(cur.pt.X, cur.pt.Y, d) {
				continue
			}
			if math.Abs(g.Elevation(np.X, np.Y)-g.Elevation(cur.pt.X, cur.pt.Y)) > maxRise {
				continue
			}
			ng := cur.g + 1
			if prev, ok := gScore[np]; !ok || ng < prev {
				gScore[np] = ng
				heap.Push(open, &node{pt: np, g: ng, f: ng + manhattan(np, to), parent: cur})
			}
		}
	}
	return unwind(best), false
}

func unwind(n *node) []Tile {
	path := []Tile{}
	for ; n.parent != nil; n = n.parent {
		path = append(path, n.pt)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
