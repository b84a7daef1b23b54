package reconcile

import (
	"fmt"
	"strings"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
)

// LineRule rewrites the line code of a passage whose line starts with Line and
// whose direction contains DirectionContains.
type LineRule struct {
	Line              string
	DirectionContains string
	Corrected         string
}

// LineRules is evaluated in order, first match wins.
type LineRules []LineRule

func (r LineRules) Correct(line, direction string) string {
	for _, rule := range r {
		if strings.HasPrefix(line, rule.Line) && strings.Contains(direction, rule.DirectionContains) {
			return rule.Corrected
		}
	}
	return line
}

// LineDirection names a (line, direction) pair.
type LineDirection struct {
	Line      string
	Direction string
}

// PassageCleanup holds the corrections applied to raw tram passages.
type PassageCleanup struct {
	Rules LineRules
	// StripSuffix is removed from line codes ("T1A" is served as "T1").
	StripSuffix string
	// Drop lists pairs the feed reports but no tram serves.
	Drop []LineDirection
	// Lines keeps only these codes when non-empty.
	Lines []string
}

// Clean corrects line codes, trims directions and filters out the rows that do not
// belong on the tram view. The input is not modified.
func (c PassageCleanup) Clean(passages []models.Passage) []models.Passage {
	keep := make(map[string]bool, len(c.Lines))
	for _, l := range c.Lines {
		keep[l] = true
	}
	drop := make(map[LineDirection]bool, len(c.Drop))
	for _, d := range c.Drop {
		drop[d] = true
	}

	out := make([]models.Passage, 0, len(passages))
	for _, p := range passages {
		p.Line = c.Rules.Correct(p.Line, p.Direction)
		p.Direction = strings.TrimSpace(p.Direction)
		if c.StripSuffix != "" {
			p.Line = strings.TrimSuffix(p.Line, c.StripSuffix)
		}
		if drop[LineDirection{Line: p.Line, Direction: p.Direction}] {
			continue
		}
		if len(keep) > 0 && !keep[p.Line] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// PassageKey identifies one line, direction and stop.
func PassageKey(p models.Passage) string {
	return fmt.Sprintf("%s - %s - %d", p.Line, p.Direction, p.StopID)
}

// EarliestPassage orders passages of the same key by passing time.
func EarliestPassage(a, b models.Passage) bool {
	return a.PassingAt.Before(b.PassingAt)
}
