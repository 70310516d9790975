// Package filter describes which part of a search result is rendered.
//
// The UI exposes two switches and two condition toggles. Their combination
// resolves to exactly one [Mode]:
//
//   - [ModeInfluence] when Switch2 is on ("influence only"),
//   - [ModeDirectional] when either CollaboratedWith or Influenced is on,
//   - [ModeFull] otherwise.
//
// Switch2 takes priority over the condition toggles. Switch1 is carried for
// wire compatibility and has no filtering effect.
package filter

import (
	"fmt"
	"strings"

	"github.com/matzehuels/influencegraph/pkg/errors"
)

// Mode is a resolved filtering strategy.
type Mode int

const (
	// ModeFull renders every node and every edge between known nodes.
	ModeFull Mode = iota
	// ModeInfluence renders influence-typed edges touching the focus node.
	ModeInfluence
	// ModeDirectional renders collaboration edges out of the focus and
	// influence edges into it, reversing influence edges the focus originates.
	ModeDirectional
)

var modeNames = map[Mode]string{
	ModeFull:        "full",
	ModeInfluence:   "influence",
	ModeDirectional: "directional",
}

// Modes lists every mode in declaration order.
var Modes = []Mode{ModeFull, ModeInfluence, ModeDirectional}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Filtered reports whether the mode restricts the graph to the focus
// neighbourhood.
func (m Mode) Filtered() bool { return m != ModeFull }

// ParseMode converts a mode name. Matching is case-insensitive.
func ParseMode(s string) (Mode, error) {
	for m, name := range modeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return m, nil
		}
	}
	return ModeFull, errors.New(errors.ErrCodeInvalidFilter,
		"unknown filter mode %q (want full, influence or directional)", s)
}

// Layout types accepted in [Filters.LayoutType].
const (
	LayoutCircular   = "circular"
	LayoutForceAtlas = "forceatlas"
)

// Filters is the UI filter state. JSON tags match the browser wire shape.
type Filters struct {
	Switch1          bool   `json:"switch1"`
	Switch2          bool   `json:"switch2"`
	CollaboratedWith bool   `json:"collaboratedWith"`
	Influenced       bool   `json:"influenced"`
	LayoutType       string `json:"layoutType"`
}

// Default returns the initial UI state.
func Default() Filters {
	return Filters{Switch1: true, LayoutType: LayoutForceAtlas}
}

// Mode resolves the toggles to a single strategy.
func (f Filters) Mode() Mode {
	switch {
	case f.Switch2:
		return ModeInfluence
	case f.CollaboratedWith || f.Influenced:
		return ModeDirectional
	default:
		return ModeFull
	}
}

// WithMode returns a copy of f whose toggles resolve to m. Directional mode
// enables both conditions unless one of them is already set.
func (f Filters) WithMode(m Mode) Filters {
	switch m {
	case ModeInfluence:
		f.Switch2 = true
	case ModeDirectional:
		f.Switch2 = false
		if !f.CollaboratedWith && !f.Influenced {
			f.CollaboratedWith, f.Influenced = true, true
		}
	default:
		f.Switch2, f.CollaboratedWith, f.Influenced = false, false, false
	}
	return f
}

// Validate checks the layout type. An empty layout type is allowed and
// means the default.
func (f Filters) Validate() error {
	switch f.LayoutType {
	case "", LayoutCircular, LayoutForceAtlas:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidLayout,
		"unknown layout type %q (want circular or forceatlas)", f.LayoutType)
}

func (f Filters) String() string {
	return fmt.Sprintf("mode=%s collaboratedWith=%t influenced=%t layout=%s",
		f.Mode(), f.CollaboratedWith, f.Influenced, f.LayoutType)
}
