package layout

import (
	"context"
	"math"
	"time"

	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/observability"
)

// Settings configures ForceAtlas2.
type Settings struct {
	Gravity                        float64
	AdjustSizes                    bool
	SlowDown                       float64
	StrongGravityMode              bool
	ScalingRatio                   float64
	LinLogMode                     bool
	OutboundAttractionDistribution bool
}

// DefaultSettings returns the settings used by the interactive view.
func DefaultSettings() Settings {
	return Settings{
		Gravity:                        0.5,
		AdjustSizes:                    true,
		SlowDown:                       10,
		StrongGravityMode:              true,
		ScalingRatio:                   2,
		LinLogMode:                     true,
		OutboundAttractionDistribution: true,
	}
}

// DefaultIterations is the number of iterations Run performs for one-shot
// layouts.
const DefaultIterations = 500

const maxForce = 10.0

type fa2Node struct {
	x, y         float64
	dx, dy       float64
	oldDx, oldDy float64
	mass         float64
	size         float64
	convergence  float64
}

// ForceAtlas2 holds the state of a ForceAtlas2 simulation over a snapshot of
// a graph's structure. It is not safe for concurrent use.
type ForceAtlas2 struct {
	settings     Settings
	ids          []string
	nodes        []fa2Node
	edges        [][2]int
	outboundComp float64
}

// NewForceAtlas2 snapshots the structure and current positions of g.
func NewForceAtlas2(g *graph.Graph, s Settings) *ForceAtlas2 {
	if s.SlowDown <= 0 {
		s.SlowDown = 1
	}
	if s.ScalingRatio <= 0 {
		s.ScalingRatio = 1
	}

	nodes := g.Nodes()
	fa := &ForceAtlas2{
		settings: s,
		ids:      make([]string, len(nodes)),
		nodes:    make([]fa2Node, len(nodes)),
	}
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		fa.ids[i] = n.ID
		index[n.ID] = i
		fa.nodes[i] = fa2Node{
			x:           n.X,
			y:           n.Y,
			size:        n.Size,
			mass:        1 + float64(g.Degree(n.ID)),
			convergence: 1,
		}
	}
	for _, e := range g.Edges() {
		// Self-loops exert no force.
		if e.Source == e.Target {
			continue
		}
		fa.edges = append(fa.edges, [2]int{index[e.Source], index[e.Target]})
	}

	if s.OutboundAttractionDistribution && len(fa.nodes) > 0 {
		var total float64
		for _, n := range fa.nodes {
			total += n.mass
		}
		fa.outboundComp = total / float64(len(fa.nodes))
	}
	return fa
}

// Positions returns the current simulated positions.
func (fa *ForceAtlas2) Positions() map[string]graph.Point {
	out := make(map[string]graph.Point, len(fa.ids))
	for i, id := range fa.ids {
		out[id] = graph.Point{X: fa.nodes[i].x, Y: fa.nodes[i].y}
	}
	return out
}

// Step runs one iteration.
func (fa *ForceAtlas2) Step() {
	for i := range fa.nodes {
		n := &fa.nodes[i]
		n.oldDx, n.oldDy = n.dx, n.dy
		n.dx, n.dy = 0, 0
	}
	fa.repulse()
	fa.gravitate()
	fa.attract()
	fa.apply()
}

func (fa *ForceAtlas2) repulse() {
	coefficient := fa.settings.ScalingRatio
	for i := range fa.nodes {
		n1 := &fa.nodes[i]
		for j := i + 1; j < len(fa.nodes); j++ {
			n2 := &fa.nodes[j]
			xDist, yDist := n1.x-n2.x, n1.y-n2.y

			var factor float64
			if fa.settings.AdjustSizes {
				distance := math.Sqrt(xDist*xDist+yDist*yDist) - n1.size - n2.size
				switch {
				case distance > 0:
					factor = coefficient * n1.mass * n2.mass / (distance * distance)
				case distance < 0:
					factor = 100 * coefficient * n1.mass * n2.mass
				}
			} else {
				distance := xDist*xDist + yDist*yDist
				if distance > 0 {
					factor = coefficient * n1.mass * n2.mass / distance
				}
			}

			n1.dx += xDist * factor
			n1.dy += yDist * factor
			n2.dx -= xDist * factor
			n2.dy -= yDist * factor
		}
	}
}

func (fa *ForceAtlas2) gravitate() {
	coefficient := fa.settings.ScalingRatio
	g := fa.settings.Gravity
	for i := range fa.nodes {
		n := &fa.nodes[i]
		distance := math.Sqrt(n.x*n.x + n.y*n.y)

		var factor float64
		if fa.settings.StrongGravityMode {
			factor = coefficient * n.mass * g
		} else if distance > 0 {
			factor = coefficient * n.mass * g / distance
		}
		n.dx -= n.x * factor
		n.dy -= n.y * factor
	}
}

func (fa *ForceAtlas2) attract() {
	coefficient := 1.0
	if fa.settings.OutboundAttractionDistribution {
		coefficient = fa.outboundComp
	}

	for _, e := range fa.edges {
		n1, n2 := &fa.nodes[e[0]], &fa.nodes[e[1]]
		xDist, yDist := n1.x-n2.x, n1.y-n2.y
		distance := math.Sqrt(xDist*xDist + yDist*yDist)
		if fa.settings.AdjustSizes {
			distance -= n1.size + n2.size
		}
		if distance <= 0 {
			continue
		}

		var factor float64
		switch {
		case fa.settings.LinLogMode && fa.settings.OutboundAttractionDistribution:
			factor = -coefficient * math.Log(1+distance) / distance / n1.mass
		case fa.settings.LinLogMode:
			factor = -coefficient * math.Log(1+distance) / distance
		case fa.settings.OutboundAttractionDistribution:
			factor = -coefficient / n1.mass
		default:
			factor = -coefficient
		}

		n1.dx += xDist * factor
		n1.dy += yDist * factor
		n2.dx -= xDist * factor
		n2.dy -= yDist * factor
	}
}

func (fa *ForceAtlas2) apply() {
	slowDown := fa.settings.SlowDown
	for i := range fa.nodes {
		n := &fa.nodes[i]

		if fa.settings.AdjustSizes {
			if force := math.Sqrt(n.dx*n.dx + n.dy*n.dy); force > maxForce {
				n.dx *= maxForce / force
				n.dy *= maxForce / force
			}
		}

		swinging := n.mass * math.Sqrt((n.oldDx-n.dx)*(n.oldDx-n.dx)+(n.oldDy-n.dy)*(n.oldDy-n.dy))
		traction := math.Sqrt((n.oldDx+n.dx)*(n.oldDx+n.dx)+(n.oldDy+n.dy)*(n.oldDy+n.dy)) / 2

		var speed float64
		if fa.settings.AdjustSizes {
			speed = 0.1 * math.Log(1+traction) / (1 + math.Sqrt(swinging))
		} else {
			speed = n.convergence * math.Log(1+traction) / (1 + math.Sqrt(swinging))
			n.convergence = math.Min(1, math.Sqrt(speed*(n.dx*n.dx+n.dy*n.dy)/(1+math.Sqrt(swinging))))
		}

		n.x += n.dx * (speed / slowDown)
		n.y += n.dy * (speed / slowDown)
	}
}

// Run performs iterations of ForceAtlas2 on g and writes the resulting
// positions back. It stops early when ctx is cancelled, keeping the positions
// reached so far.
func Run(ctx context.Context, g *graph.Graph, s Settings, iterations int) error {
	hooks := observability.Graph()
	hooks.OnLayoutStart(ctx, string(ModeForceAtlas), g.NodeCount())
	start := time.Now()

	fa := NewForceAtlas2(g, s)
	var err error
	for range iterations {
		if err = ctx.Err(); err != nil {
			break
		}
		fa.Step()
	}
	g.SetPositions(fa.Positions())

	hooks.OnLayoutComplete(ctx, string(ModeForceAtlas), time.Since(start), err)
	return err
}
