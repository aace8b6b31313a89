package nav

import (
	"math"

	"github.com/kasuganosora/npcbrain/game/ai"
)

// Navigator steers one agent across a Grid. It satisfies ai.Navigator; the
// host calls Step every tick to advance the agent along the planned route.
type Navigator struct {
	grid     *Grid
	stopping float64
	maxSlope float64

	pos            ai.Vec3
	speed          float64
	updateRotation bool

	dest      ai.Vec3
	hasPath   bool
	status    ai.PathStatus
	waypoints []ai.Vec3
}

// NewNavigator creates a navigator at pos. maxSlope is in degrees; zero
// means no limit.
func NewNavigator(g *Grid, pos ai.Vec3, stopping, maxSlope float64) *Navigator {
	return &Navigator{
		grid:           g,
		pos:            pos,
		stopping:       stopping,
		maxSlope:       maxSlope,
		updateRotation: true,
	}
}

// Warp moves the navigator to pos and drops the current route.
func (n *Navigator) Warp(pos ai.Vec3) {
	n.pos = pos
	n.ResetPath()
}

// SetDestination plans a route to p. An unreachable goal yields a partial
// route toward the nearest reachable tile; an agent that cannot move at all
// gets an invalid path. It returns false only when p is off the grid.
func (n *Navigator) SetDestination(p ai.Vec3) bool {
	if n.grid == nil || !p.IsFinite() {
		return false
	}
	goal := n.grid.TileAt(p)
	if !n.grid.InBounds(goal.X, goal.Y) {
		return false
	}
	from := n.grid.TileAt(n.pos)
	n.dest = p
	n.hasPath = true

	tiles, reached := search(n.grid, from, goal, n.maxRise())
	switch {
	case reached:
		n.status = ai.PathValid
	case len(tiles) > 0:
		n.status = ai.PathPartial
	default:
		n.status = ai.PathInvalid
		n.waypoints = nil
		return true
	}

	n.waypoints = n.waypoints[:0]
	for _, t := range tiles {
		n.waypoints = append(n.waypoints, n.grid.Center(t))
	}
	if reached {
		// Finish on the exact point rather than the tile centre.
		end := ai.Vec3{X: p.X, Y: n.grid.Elevation(goal.X, goal.Y), Z: p.Z}
		if len(n.waypoints) > 0 {
			n.waypoints[len(n.waypoints)-1] = end
		} else {
			n.waypoints = append(n.waypoints, end)
		}
	}
	return true
}

func (n *Navigator) maxRise() float64 {
	if n.maxSlope <= 0 || n.maxSlope >= 90 {
		return math.Inf(1)
	}
	return math.Tan(n.maxSlope * math.Pi / 180)
}

func (n *Navigator) Destination() ai.Vec3      { return n.dest }
func (n *Navigator) HasPath() bool             { return n.hasPath }
func (n *Navigator) PathStatus() ai.PathStatus { return n.status }
func (n *Navigator) Speed() float64            { return n.speed }
func (n *Navigator) SetSpeed(v float64)        { n.speed = v }
func (n *Navigator) SetUpdateRotation(on bool) { n.updateRotation = on }
func (n *Navigator) UpdateRotation() bool      { return n.updateRotation }
func (n *Navigator) StoppingDistance() float64 { return n.stopping }
func (n *Navigator) MaxSlope() float64         { return n.maxSlope }
func (n *Navigator) Waypoints() []ai.Vec3      { return n.waypoints }

// ResetPath clears the route; the agent stops where it is.
func (n *Navigator) ResetPath() {
	n.hasPath = false
	n.status = ai.PathValid
	n.waypoints = n.waypoints[:0]
	n.dest = ai.Vec3{}
}

// Step advances pos along the route by Speed()*dt and returns the new
// position and the direction travelled (zero when standing).
func (n *Navigator) Step(pos ai.Vec3, dt float64) (next, heading ai.Vec3) {
	n.pos = pos
	budget := n.speed * dt
	if !n.hasPath || budget <= 0 {
		return pos, ai.Vec3{}
	}
	for budget > 0 && len(n.waypoints) > 0 {
		wp := n.waypoints[0]
		last := len(n.waypoints) == 1
		delta := wp.Sub(n.pos).Flat()
		dist := delta.Len()
		if last && dist <= n.stopping {
			n.waypoints = n.waypoints[:0]
			break
		}
		if dist > 0 {
			heading = delta.Scale(1 / dist)
		}
		if budget < dist {
			n.pos = n.pos.Add(heading.Scale(budget))
			break
		}
		n.pos = ai.Vec3{X: wp.X, Y: n.pos.Y, Z: wp.Z}
		budget -= dist
		n.waypoints = n.waypoints[1:]
	}
	t := n.grid.TileAt(n.pos)
	n.pos.Y = n.grid.Elevation(t.X, t.Y)
	if len(n.waypoints) == 0 && n.status != ai.PathInvalid {
		n.hasPath = false
	}
	return n.pos, heading
}
