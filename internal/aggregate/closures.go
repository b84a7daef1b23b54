package aggregate

// Closure marks readings taken while a facility is closed. Empty fields match
// anything.
type Closure struct {
	Entity   string
	Weekdays []string
	FromHour *int
	ToHour   *int
	// WhenNoneAvailable restricts the rule to readings with no free place.
	WhenNoneAvailable bool
}

// Closures is a closure table. A reading matching any entry counts as 0.
type Closures []Closure

func (c Closure) matches(o Observation) bool {
	if c.Entity != "" && c.Entity != o.Entity {
		return false
	}
	if len(c.Weekdays) > 0 {
		day := WeekdayLabel(o.At.Weekday())
		found := false
		for _, w := range c.Weekdays {
			if w == day {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	h := o.At.Hour()
	if c.FromHour != nil && h < *c.FromHour {
		return false
	}
	if c.ToHour != nil && h > *c.ToHour {
		return false
	}
	if c.WhenNoneAvailable && (o.Available == nil || *o.Available != 0) {
		return false
	}
	return true
}

// Closed reports whether o falls under a closure rule.
func (cs Closures) Closed(o Observation) bool {
	for _, c := range cs {
		if c.matches(o) {
			return true
		}
	}
	return false
}
