// Package rules loads the declarative correction tables: aliases, line rules,
// termini, thresholds, closures and map styles.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/aggregate"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/reconcile"
)

//go:embed rules.yaml
var defaultDocument []byte

// Default returns the embedded tables.
func Default() (*Tables, error) {
	return Parse(defaultDocument)
}

// Load reads the tables from path, or the embedded defaults when path is empty.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a rules document.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if err := validator.New().Struct(t); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	for _, c := range t.ParkRide.Closures {
		if c.FromHour != nil && c.ToHour != nil && *c.FromHour > *c.ToHour {
			return nil, fmt.Errorf("invalid rules: closure %q hours %d > %d", c.Entity, *c.FromHour, *c.ToHour)
		}
	}
	return &t, nil
}

func aliases(subs []Substitution) reconcile.Aliases {
	out := make(reconcile.Aliases, len(subs))
	for i, s := range subs {
		out[i] = reconcile.Alias{From: s.From, To: s.To}
	}
	return out
}

func (t *Tables) StopAliasTable() reconcile.Aliases { return aliases(t.StopAliases) }

func (t *Tables) TerminusAliasTable() reconcile.Aliases { return aliases(t.TerminusAliases) }

func (t *Tables) LineRuleTable() reconcile.LineRules {
	out := make(reconcile.LineRules, len(t.LineRules))
	for i, r := range t.LineRules {
		out[i] = reconcile.LineRule{Line: r.Line, DirectionContains: r.DirectionContains, Corrected: r.Corrected}
	}
	return out
}

// PassageCleanup assembles the tram passage corrections.
func (t *Tables) PassageCleanup() reconcile.PassageCleanup {
	c := reconcile.PassageCleanup{
		Rules:       t.LineRuleTable(),
		StripSuffix: t.Passages.StripSuffix,
		Lines:       append([]string(nil), t.Passages.Lines...),
	}
	for _, d := range t.Passages.Drop {
		c.Drop = append(c.Drop, reconcile.LineDirection{Line: d.Line, Direction: d.Direction})
	}
	return c
}

// TerminusMatcher snaps names onto the canonical termini.
func (t *Tables) TerminusMatcher() reconcile.Matcher {
	return reconcile.Matcher{Threshold: t.Thresholds.Terminus}
}

// StationMatcher compares stop names with a tram direction.
func (t *Tables) StationMatcher() reconcile.Matcher {
	return reconcile.Matcher{Threshold: t.Thresholds.StationDirection}
}

func (t *Tables) ClosureTable() aggregate.Closures {
	out := make(aggregate.Closures, len(t.ParkRide.Closures))
	for i, c := range t.ParkRide.Closures {
		out[i] = aggregate.Closure{
			Entity:            c.Entity,
			Weekdays:          append([]string(nil), c.Weekdays...),
			FromHour:          c.FromHour,
			ToHour:            c.ToHour,
			WhenNoneAvailable: c.WhenNoneAvailable,
		}
	}
	return out
}

// ParkName applies the park name rewrites in order.
func (t *Tables) ParkName(name string) string {
	for _, r := range t.ParkRide.NameRewrites {
		name = strings.ReplaceAll(name, r.From, r.To)
	}
	return strings.TrimSpace(name)
}

// ParkExcluded reports parks that never publish usable data.
func (t *Tables) ParkExcluded(name string) bool {
	for _, e := range t.ParkRide.Excluded {
		if e == name {
			return true
		}
	}
	return false
}

// Family returns the map style of a transport family.
func (t *Tables) Family(code string) (Family, bool) {
	for _, f := range t.Network {
		if f.Code == code {
			return f, true
		}
	}
	return Family{}, false
}
