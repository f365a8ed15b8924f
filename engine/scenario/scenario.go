// Package scenario loads demo event-graph fixtures from YAML, so the demo
// binary and the test suite can share one source of worked examples
// instead of each hand-writing its own literal event graph.
package scenario

import (
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/haldane-rts/chronos/engine/console"
	"github.com/haldane-rts/chronos/engine/fixed"
)

// Step is one scripted action against a named curve at a point in
// simulation time.
type Step struct {
	// At is the simulation time, in seconds, the action takes effect.
	At float64 `yaml:"at"`
	// Curve names the console-registered curve the action applies to.
	Curve string `yaml:"curve"`
	// Action is one of "set" (write Value at At), "sync" (copy From's
	// keyframes at or after At into Curve), or "advance" (drive the loop
	// to At with no curve write; Curve is ignored).
	Action string `yaml:"action"`
	// Value is the raw string passed to the curve's Set, for "set" steps.
	Value string `yaml:"value"`
	// From names the source curve for "sync" steps.
	From string `yaml:"from"`
}

// Scenario is a named, ordered sequence of Steps.
type Scenario struct {
	Name  string `yaml:"name"`
	Desc  string `yaml:"description"`
	Steps []Step `yaml:"steps"`
}

// Document is the top-level shape of a scenario YAML file: a list of named
// scenarios.
type Document struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// Load parses a scenario document from YAML.
func Load(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("scenario: parse: %w", err)
	}
	return doc, nil
}

// Run replays s against reg, a registry of console.Curve values keyed by
// name, advancing target's clock/loop pairing via advanceTo for every
// "advance" step and every implicit advance a "set" step's At implies.
func (s Scenario) Run(reg map[string]console.Curve, advanceTo func(t fixed.Time) error) error {
	for i, step := range s.Steps {
		t := fixed.FromFloat(step.At)
		switch step.Action {
		case "advance":
			if err := advanceTo(t); err != nil {
				return fmt.Errorf("scenario %q: step %d: advance: %w", s.Name, i, err)
			}
		case "set":
			curve, ok := reg[step.Curve]
			if !ok {
				return fmt.Errorf("scenario %q: step %d: unknown curve %q", s.Name, i, step.Curve)
			}
			if err := curve.Set(t, step.Value); err != nil {
				return fmt.Errorf("scenario %q: step %d: set %s: %w", s.Name, i, step.Curve, err)
			}
			if err := advanceTo(t); err != nil {
				return fmt.Errorf("scenario %q: step %d: advance: %w", s.Name, i, err)
			}
		case "sync":
			dst, ok := reg[step.Curve]
			if !ok {
				return fmt.Errorf("scenario %q: step %d: unknown curve %q", s.Name, i, step.Curve)
			}
			src, ok := reg[step.From]
			if !ok {
				return fmt.Errorf("scenario %q: step %d: unknown curve %q", s.Name, i, step.From)
			}
			if err := dst.Sync(src, t); err != nil {
				return fmt.Errorf("scenario %q: step %d: sync %s from %s: %w", s.Name, i, step.Curve, step.From, err)
			}
			if err := advanceTo(t); err != nil {
				return fmt.Errorf("scenario %q: step %d: advance: %w", s.Name, i, err)
			}
		default:
			return fmt.Errorf("scenario %q: step %d: unknown action %q", s.Name, i, step.Action)
		}
	}
	return nil
}
