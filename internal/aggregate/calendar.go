package aggregate

import "time"

// Weekdays lists the French day labels, Monday first.
var Weekdays = []string{"Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi", "Dimanche"}

const (
	PeriodMorning   = "Matin"
	PeriodAfternoon = "Apres_midi"
)

// WeekdayLabel returns the French label of d.
func WeekdayLabel(d time.Weekday) string {
	return Weekdays[weekdayIndex(d)]
}

// ParseWeekday accepts a French label.
func ParseWeekday(label string) (time.Weekday, bool) {
	for i, l := range Weekdays {
		if l == label {
			return time.Weekday((i + 1) % 7), true
		}
	}
	return 0, false
}

// PeriodOf splits the day at noon.
func PeriodOf(hour int) string {
	if hour < 12 {
		return PeriodMorning
	}
	return PeriodAfternoon
}

// weekdayIndex numbers days from Monday = 0.
func weekdayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

func labelIndex(label string) int {
	for i, l := range Weekdays {
		if l == label {
			return i
		}
	}
	return len(Weekdays)
}

func periodIndex(p string) int {
	switch p {
	case PeriodMorning:
		return 0
	case PeriodAfternoon:
		return 1
	}
	return 2
}
