package views

import (
	"sort"
	"strconv"
	"strings"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/aggregate"
)

// Axis describes one chart axis. Range is fixed so animated frames share a scale.
type Axis struct {
	Title      string     `json:"title"`
	Range      [2]float64 `json:"range"`
	Dtick      float64    `json:"dtick,omitempty"`
	Categories []string   `json:"categories,omitempty"`
}

// Point is one value of a series. Y is nil where no reading exists.
type Point struct {
	X any      `json:"x"`
	Y *float64 `json:"y"`
}

type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Points []Point `json:"points"`
}

// Frame is one step of an animated chart, named after the hour it shows.
type Frame struct {
	Name   string   `json:"name"`
	Series []Series `json:"series"`
}

// ChartSpec is a renderer-agnostic chart description.
type ChartSpec struct {
	Title  string   `json:"title"`
	Kind   string   `json:"kind"`
	X      Axis     `json:"x"`
	Y      Axis     `json:"y"`
	Series []Series `json:"series,omitempty"`
	Frames []Frame  `json:"frames,omitempty"`
}

var (
	rateAxis = Axis{Title: "Remplissage (%)", Range: [2]float64{0, 100}}
	hourAxis = Axis{Title: "Heure", Range: [2]float64{0, 23}, Dtick: 1}
)

func onDay(obs []aggregate.Observation, day string) ([]aggregate.Observation, error) {
	if _, ok := aggregate.ParseWeekday(day); !ok {
		return nil, ErrUnknownDay
	}
	var out []aggregate.Observation
	for _, o := range obs {
		if aggregate.WeekdayLabel(o.At.Weekday()) == day {
			out = append(out, o)
		}
	}
	return out, nil
}

func filter(obs []aggregate.Observation, keep func(aggregate.Observation) bool) []aggregate.Observation {
	var out []aggregate.Observation
	for _, o := range obs {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// animatedBars builds one frame per hour with one bar per category.
func animatedBars(title string, metrics []aggregate.Metric, category func(aggregate.Group) string) ChartSpec {
	spec := ChartSpec{Title: title, Kind: "bar", Y: rateAxis}
	cats := map[string]bool{}
	index := map[int]int{}
	for _, m := range metrics {
		c := category(m.Group)
		if !cats[c] {
			cats[c] = true
			spec.X.Categories = append(spec.X.Categories, c)
		}
		i, ok := index[m.Group.Hour]
		if !ok {
			i = len(spec.Frames)
			index[m.Group.Hour] = i
			spec.Frames = append(spec.Frames, Frame{Name: strconv.Itoa(m.Group.Hour), Series: []Series{{}}})
		}
		s := &spec.Frames[i].Series[0]
		s.Points = append(s.Points, Point{X: c, Y: m.Value})
	}
	sort.Strings(spec.X.Categories)
	spec.X.Range = [2]float64{-0.5, float64(len(spec.X.Categories)) - 0.5}
	return spec
}

// hourLine builds a single series over hours 0..23.
func hourLine(title, name string, metrics []aggregate.Metric) ChartSpec {
	filled := aggregate.FillHours(metrics, []aggregate.Dimension{aggregate.DimHour})
	s := Series{Name: name, Color: highlightColor}
	for _, m := range filled {
		s.Points = append(s.Points, Point{X: m.Group.Hour, Y: m.Value})
	}
	return ChartSpec{Title: title, Kind: "line", X: hourAxis, Y: rateAxis, Series: []Series{s}}
}

var (
	byHourEntity = []aggregate.Dimension{aggregate.DimHour, aggregate.DimEntity}
	byHourArea   = []aggregate.Dimension{aggregate.DimHour, aggregate.DimArea}
	byHour       = []aggregate.Dimension{aggregate.DimHour}
)

// ParkRideAll animates the mean occupancy of every park through the hours of day.
// A day without readings has no chart.
func ParkRideAll(obs []aggregate.Observation, day string, closures aggregate.Closures) (ChartSpec, error) {
	dayObs, err := onDay(obs, day)
	if err != nil {
		return ChartSpec{}, err
	}
	if len(dayObs) == 0 {
		return ChartSpec{}, aggregate.ErrDataUnavailable
	}
	metrics := aggregate.Aggregate(dayObs, aggregate.Spec{Dimensions: byHourEntity, Rate: true, Closures: closures})
	title := "Évolution du remplissage (%) des parcs relais un " + strings.ToLower(day)
	return animatedBars(title, metrics, func(g aggregate.Group) string { return g.Entity }), nil
}

// ParkRide plots one park over the hours of day. A park whose readings are all
// empty or closed has no chart.
func ParkRide(obs []aggregate.Observation, park, day string, closures aggregate.Closures) (ChartSpec, error) {
	if _, ok := aggregate.ParseWeekday(day); !ok {
		return ChartSpec{}, ErrUnknownDay
	}
	parkObs := filter(obs, func(o aggregate.Observation) bool { return o.Entity == park })
	all := aggregate.Aggregate(parkObs, aggregate.Spec{
		Dimensions: []aggregate.Dimension{aggregate.DimWeekday, aggregate.DimHour},
		Rate:       true,
		Closures:   closures,
	})
	if err := aggregate.CheckAvailable(all); err != nil {
		return ChartSpec{}, err
	}

	dayObs, _ := onDay(parkObs, day)
	metrics := aggregate.Aggregate(dayObs, aggregate.Spec{Dimensions: byHour, Rate: true, Closures: closures})
	title := "Évolution du remplissage (%) du parc relais " + park + " un " + strings.ToLower(day)
	return hourLine(title, park, metrics), nil
}

// BikeCommunes animates the mean station occupancy of every commune.
func BikeCommunes(obs []aggregate.Observation, day string) (ChartSpec, error) {
	dayObs, err := onDay(obs, day)
	if err != nil {
		return ChartSpec{}, err
	}
	if len(dayObs) == 0 {
		return ChartSpec{}, aggregate.ErrDataUnavailable
	}
	metrics := aggregate.Aggregate(dayObs, aggregate.Spec{Dimensions: byHourArea, Rate: true})
	title := "Évolution du remplissage (%) des stations Vélo'v, un " + strings.ToLower(day)
	return animatedBars(title, metrics, func(g aggregate.Group) string { return g.Area }), nil
}

// BikeCommune animates the stations of one commune.
func BikeCommune(obs []aggregate.Observation, day, commune string) (ChartSpec, error) {
	dayObs, err := onDay(obs, day)
	if err != nil {
		return ChartSpec{}, err
	}
	dayObs = filter(dayObs, func(o aggregate.Observation) bool { return o.Area == commune })
	if len(dayObs) == 0 {
		return ChartSpec{}, aggregate.ErrDataUnavailable
	}
	metrics := aggregate.Aggregate(dayObs, aggregate.Spec{Dimensions: byHourEntity, Rate: true})
	title := "Évolution du remplissage (%) des stations Vélo'v de " + commune + " un " + strings.ToLower(day)
	return animatedBars(title, metrics, func(g aggregate.Group) string { return g.Entity }), nil
}

// BikeStation plots one station over the hours of day.
func BikeStation(obs []aggregate.Observation, day, commune, station string) (ChartSpec, error) {
	dayObs, err := onDay(obs, day)
	if err != nil {
		return ChartSpec{}, err
	}
	dayObs = filter(dayObs, func(o aggregate.Observation) bool { return o.Area == commune && o.Entity == station })
	if len(dayObs) == 0 {
		return ChartSpec{}, aggregate.ErrDataUnavailable
	}
	metrics := aggregate.Aggregate(dayObs, aggregate.Spec{Dimensions: byHour, Rate: true})
	title := "Évolution du remplissage (%) de la station Vélo'v " + station + " un " + strings.ToLower(day)
	return hourLine(title, station, metrics), nil
}

// Choices lists the distinct entities and areas of the observations, sorted.
type Choices struct {
	Entities []string            `json:"entities,omitempty"`
	Areas    []string            `json:"areas,omitempty"`
	ByArea   map[string][]string `json:"by_area,omitempty"`
}

func NewChoices(obs []aggregate.Observation) Choices {
	entities := map[string]bool{}
	byArea := map[string]map[string]bool{}
	for _, o := range obs {
		entities[o.Entity] = true
		if o.Area == "" {
			continue
		}
		if byArea[o.Area] == nil {
			byArea[o.Area] = map[string]bool{}
		}
		byArea[o.Area][o.Entity] = true
	}
	c := Choices{Entities: sortedKeys(entities)}
	if len(byArea) > 0 {
		c.ByArea = map[string][]string{}
		for area, names := range byArea {
			c.Areas = append(c.Areas, area)
			c.ByArea[area] = sortedKeys(names)
		}
		sort.Strings(c.Areas)
	}
	return c
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
