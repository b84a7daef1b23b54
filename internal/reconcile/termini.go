package reconcile

import "github.com/02loveslollipop/lyon-transit-viewer/internal/models"

// HarmonizeTermini expands aliases in the origin and destination of every trace and
// snaps each destination onto the closest canonical terminus accepted by m.
func HarmonizeTermini(traces []models.LineTrace, termini []string, m Matcher, aliases Aliases) ([]models.LineTrace, []*JoinAmbiguity, error) {
	out := make([]models.LineTrace, len(traces))
	var ambiguities []*JoinAmbiguity
	for i, tr := range traces {
		tr.Origin = aliases.Apply(tr.Origin)
		tr.Destination = aliases.Apply(tr.Destination)

		match, ok, err := m.Best(tr.Destination, termini)
		if err != nil {
			return nil, ambiguities, err
		}
		if ok {
			tr.Destination = match.Candidate
			if match.Ambiguity != nil {
				ambiguities = append(ambiguities, match.Ambiguity)
			}
		}
		out[i] = tr
	}
	return out, ambiguities, nil
}
