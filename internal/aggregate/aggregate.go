// Package aggregate turns timestamped readings into per-entity, per-day and
// per-hour occupancy metrics.
package aggregate

import (
	"errors"
	"math"
	"sort"
	"time"
)

// ErrDataUnavailable is returned when a group has no usable value.
var ErrDataUnavailable = errors.New("data unavailable")

// Observation is one reading. Value is nil when the reading carries no rate.
type Observation struct {
	Entity    string
	Area      string
	At        time.Time
	Value     *float64
	Available *int
}

// OccupancyRate returns the share of occupied places in percent, or nil when the
// capacity is not positive.
func OccupancyRate(capacity, available int) *float64 {
	if capacity <= 0 {
		return nil
	}
	r := float64(capacity-available) / float64(capacity) * 100
	return &r
}

// Dimension is one axis of a group key.
type Dimension int

const (
	DimEntity Dimension = iota
	DimArea
	DimWeekday
	DimHour
	DimPeriod
)

// Group is a group key. Only the requested dimensions are set.
type Group struct {
	Entity  string `json:"entity,omitempty"`
	Area    string `json:"area,omitempty"`
	Weekday string `json:"weekday,omitempty"`
	Hour    int    `json:"hour"`
	Period  string `json:"period,omitempty"`
}

// Metric is the aggregated value of one group. Value is nil when undefined.
type Metric struct {
	Group  Group    `json:"group"`
	Value  *float64 `json:"value"`
	Count  int      `json:"count"`
	Closed int      `json:"closed"`
}

// MetricFunc reduces the values of a non-empty group.
type MetricFunc func(values []float64) float64

func Mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func Max(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Max(m, v)
	}
	return m
}

func Min(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m
}

// Spec configures Aggregate.
type Spec struct {
	Dimensions []Dimension
	// Metric defaults to Mean.
	Metric MetricFunc
	// Rate clamps every result into [0, 100].
	Rate     bool
	Closures Closures
}

// Aggregate groups observations by the requested dimensions and reduces each group.
// Closure rules override matching observations with 0 first. The output is sorted
// by the dimension tuple, weekdays from Monday.
func Aggregate(observations []Observation, spec Spec) []Metric {
	metric := spec.Metric
	if metric == nil {
		metric = Mean
	}

	type acc struct {
		values []float64
		closed int
	}
	groups := map[Group]*acc{}
	for _, o := range observations {
		g := groupOf(o, spec.Dimensions)
		a, ok := groups[g]
		if !ok {
			a = &acc{}
			groups[g] = a
		}
		if spec.Closures.Closed(o) {
			a.values = append(a.values, 0)
			a.closed++
			continue
		}
		if o.Value == nil || math.IsNaN(*o.Value) {
			continue
		}
		a.values = append(a.values, *o.Value)
	}

	out := make([]Metric, 0, len(groups))
	for g, a := range groups {
		m := Metric{Group: g, Count: len(a.values), Closed: a.closed}
		if len(a.values) > 0 {
			v := metric(a.values)
			if spec.Rate {
				v = Clamp(v)
			}
			m.Value = &v
		}
		out = append(out, m)
	}
	SortMetrics(out, spec.Dimensions)
	return out
}

// Clamp bounds a rate into [0, 100].
func Clamp(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}

func groupOf(o Observation, dims []Dimension) Group {
	var g Group
	for _, d := range dims {
		switch d {
		case DimEntity:
			g.Entity = o.Entity
		case DimArea:
			g.Area = o.Area
		case DimWeekday:
			g.Weekday = WeekdayLabel(o.At.Weekday())
		case DimHour:
			g.Hour = o.At.Hour()
		case DimPeriod:
			g.Period = PeriodOf(o.At.Hour())
		}
	}
	return g
}

// SortMetrics orders metrics by the dimension tuple.
func SortMetrics(metrics []Metric, dims []Dimension) {
	sort.SliceStable(metrics, func(i, j int) bool {
		a, b := metrics[i].Group, metrics[j].Group
		for _, d := range dims {
			switch d {
			case DimEntity:
				if a.Entity != b.Entity {
					return a.Entity < b.Entity
				}
			case DimArea:
				if a.Area != b.Area {
					return a.Area < b.Area
				}
			case DimWeekday:
				if a.Weekday != b.Weekday {
					return labelIndex(a.Weekday) < labelIndex(b.Weekday)
				}
			case DimHour:
				if a.Hour != b.Hour {
					return a.Hour < b.Hour
				}
			case DimPeriod:
				if a.Period != b.Period {
					return periodIndex(a.Period) < periodIndex(b.Period)
				}
			}
		}
		return false
	})
}

// FillHours adds a nil metric for every hour 0..23 missing from each series. A
// series is the set of metrics sharing every dimension but the hour.
func FillHours(metrics []Metric, dims []Dimension) []Metric {
	seen := map[Group]bool{}
	var series []Group
	for _, m := range metrics {
		seen[m.Group] = true
		s := m.Group
		s.Hour = 0
		if !containsGroup(series, s) {
			series = append(series, s)
		}
	}
	out := append([]Metric(nil), metrics...)
	for _, s := range series {
		for h := 0; h < 24; h++ {
			g := s
			g.Hour = h
			if !seen[g] {
				out = append(out, Metric{Group: g})
			}
		}
	}
	SortMetrics(out, dims)
	return out
}

func containsGroup(groups []Group, g Group) bool {
	for _, x := range groups {
		if x == g {
			return true
		}
	}
	return false
}

// CheckAvailable returns ErrDataUnavailable when no metric has a positive value.
func CheckAvailable(metrics []Metric) error {
	for _, m := range metrics {
		if m.Value != nil && *m.Value > 0 {
			return nil
		}
	}
	return ErrDataUnavailable
}
