package layout

import (
	"math"
	"strings"

	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/graph"
)

// Mode selects a layout.
type Mode string

const (
	ModeCircular   Mode = "circular"
	ModeForceAtlas Mode = "forceatlas"
)

// ParseMode converts a layout name. Matching is case-insensitive and accepts
// "force" and "forceatlas2" as aliases of forceatlas.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "circular", "circle":
		return ModeCircular, nil
	case "forceatlas", "forceatlas2", "force":
		return ModeForceAtlas, nil
	}
	return "", errors.New(errors.ErrCodeInvalidLayout,
		"unknown layout %q (want circular or forceatlas)", s)
}

func (m Mode) String() string { return string(m) }

// Circular layout defaults.
const (
	DefaultCenter = 0.5
	DefaultScale  = 1.0
)

// CircularPositions computes circular positions for ids, in order.
func CircularPositions(ids []string, center, scale float64) map[string]graph.Point {
	out := make(map[string]graph.Point, len(ids))
	n := float64(len(ids))
	for i, id := range ids {
		angle := 2 * math.Pi * float64(i) / n
		out[id] = graph.Point{
			X: center + scale*math.Cos(angle),
			Y: center + scale*math.Sin(angle),
		}
	}
	return out
}

// Circular assigns circular positions to every node of g using the default
// center and scale.
func Circular(g *graph.Graph) {
	g.SetPositions(CircularPositions(g.NodeIDs(), DefaultCenter, DefaultScale))
}
