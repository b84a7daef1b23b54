package models

import "time"

// LastReading is the most recent archived reading of one station or park, used to
// skip unchanged snapshots.
type LastReading struct {
	Capacity  int
	Available int
	TS        time.Time
}

// Changed reports whether a new reading differs from the archived one.
func (l LastReading) Changed(capacity, available int) bool {
	return l.Capacity != capacity || l.Available != available
}
