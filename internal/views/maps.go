// Package views shapes reconciled data into what the dashboard draws: GeoJSON map
// layers and chart specifications.
package views

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/geo"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/pipeline"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
)

var (
	ErrUnknownLine = errors.New("unknown tram line")
	ErrUnknownDay  = errors.New("unknown weekday")
)

// Guillotière, the default map centre.
var cityCenter = orb.Point{4.842535168843551, 45.75540611072912}

const highlightColor = "#FF4B4B"

// Layer is one toggleable group of features.
type Layer struct {
	Name     string                     `json:"name"`
	Color    string                     `json:"color,omitempty"`
	Weight   int                        `json:"weight,omitempty"`
	Hidden   bool                       `json:"hidden"`
	Features *geojson.FeatureCollection `json:"features"`
}

// Map is a presentation-ready map: centre in [lng, lat], zoom level and layers.
type Map struct {
	Center      orb.Point  `json:"center"`
	Zoom        int        `json:"zoom"`
	RadiusM     float64    `json:"radius_m,omitempty"`
	RefreshedAt *time.Time `json:"refreshed_at,omitempty"`
	Layers      []Layer    `json:"layers"`
}

// Bike marker states.
const (
	MarkerClosed  = "closed"
	MarkerUnknown = "unknown"
	MarkerEmpty   = "empty"
	MarkerLow     = "low"
	MarkerOK      = "ok"
)

var markerColors = map[string]string{
	MarkerClosed:  "gray",
	MarkerUnknown: "gray",
	MarkerEmpty:   "red",
	MarkerLow:     "orange",
	MarkerOK:      "darkblue",
}

func plural(n int, one, many string) string {
	if n > 1 {
		return fmt.Sprintf("%d %s", n, many)
	}
	return fmt.Sprintf("%d %s", n, one)
}

// BikeMarker classifies a station for the availability map.
func BikeMarker(st models.BikeStation, lowBikes int) string {
	switch {
	case st.Status == models.StatusClosed:
		return MarkerClosed
	case !st.Available:
		return MarkerUnknown
	case st.AvailableBikes == 0:
		return MarkerEmpty
	case st.AvailableBikes <= lowBikes:
		return MarkerLow
	default:
		return MarkerOK
	}
}

// BikeMap places every station with its marker state and popup lines.
func BikeMap(view *pipeline.BikeView, lowBikes int) *Map {
	fc := geojson.NewFeatureCollection()
	for _, st := range view.Stations {
		title := st.Name
		if title == "" {
			title = st.Address
		}
		marker := BikeMarker(st, lowBikes)
		var lines []string
		switch marker {
		case MarkerClosed:
			lines = []string{"STATION FERMÉE"}
		case MarkerUnknown:
			lines = []string{"Données non disponibles"}
		default:
			lines = []string{
				plural(st.AvailableBikes, "vélo disponible", "vélos disponibles"),
				plural(st.AvailableBikeStands, "place disponible", "places disponibles"),
			}
		}

		f := geojson.NewFeature(orb.Point{st.Lng, st.Lat})
		f.Properties["title"] = title
		f.Properties["lines"] = lines
		f.Properties["marker"] = marker
		f.Properties["color"] = markerColors[marker]
		f.Properties["available_bikes"] = st.AvailableBikes
		f.Properties["available_bike_stands"] = st.AvailableBikeStands
		if st.Number != nil {
			f.Properties["number"] = *st.Number
		}
		fc.Append(f)
	}

	at := view.At
	return &Map{
		Center:      orb.Point{4.84367508189202, 45.7548790164649},
		Zoom:        14,
		RefreshedAt: &at,
		Layers:      []Layer{{Name: "Vélo'v", Features: fc}},
	}
}

// NetworkMap draws one feature per line code, grouped by transport family in the
// order of the style table.
func NetworkMap(traces []models.LineTrace, tables *rules.Tables) *Map {
	m := &Map{Center: cityCenter, Zoom: 13}
	for _, fam := range tables.Network {
		fc := geojson.NewFeatureCollection()
		seen := map[string]bool{}
		for _, tr := range traces {
			if tr.Family != fam.Code || seen[tr.Code] || tr.Geometry == nil {
				continue
			}
			seen[tr.Code] = true
			f := geojson.NewFeature(tr.Geometry)
			f.Properties["code_ligne"] = tr.Code
			f.Properties["ligne"] = tr.Line
			f.Properties["nom_origine"] = tr.Origin
			f.Properties["nom_destination"] = tr.Destination
			fc.Append(f)
		}
		m.Layers = append(m.Layers, Layer{Name: fam.Label, Color: fam.Color, Weight: fam.Weight, Hidden: fam.Hidden, Features: fc})
	}
	return m
}

// TramChoices lists the lines of the snapshot and the termini served by each.
type TramChoices struct {
	Lines   []string            `json:"lines"`
	Termini map[string][]string `json:"termini"`
}

func NewTramChoices(view *pipeline.TramView) TramChoices {
	termini := map[string]map[string]bool{}
	for _, p := range view.Passages {
		if termini[p.Line] == nil {
			termini[p.Line] = map[string]bool{}
		}
		termini[p.Line][p.Direction] = true
	}
	c := TramChoices{Termini: map[string][]string{}}
	for line, dirs := range termini {
		c.Lines = append(c.Lines, line)
		for d := range dirs {
			c.Termini[line] = append(c.Termini[line], d)
		}
		sort.Strings(c.Termini[line])
	}
	sort.Strings(c.Lines)
	return c
}

// TramMap shows the next passages of one line towards terminus. Stops are kept when
// the passage heads to terminus or when the stop itself is close enough to the
// terminus name. Stops resembling any known direction are labelled.
func TramMap(view *pipeline.TramView, traces []models.LineTrace, line, terminus string, tables *rules.Tables) (*Map, error) {
	station := tables.StationMatcher()
	label := tables.TerminusMatcher()

	var directions []string
	seenDir := map[string]bool{}
	known := false
	for _, p := range view.Passages {
		if p.Line == line {
			known = true
		}
		if !seenDir[p.Direction] {
			seenDir[p.Direction] = true
			directions = append(directions, p.Direction)
		}
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLine, line)
	}

	refreshed := view.At.Format("15:04:05")
	stops := geojson.NewFeatureCollection()
	var points []orb.Point
	for _, p := range view.Passages {
		if p.Line != line || !p.Located {
			continue
		}
		if p.Direction != terminus && !station.Accepts(p.StopName, terminus) {
			continue
		}
		pt := orb.Point{p.Lng, p.Lat}
		points = append(points, pt)

		f := geojson.NewFeature(pt)
		f.Properties["title"] = p.StopName
		f.Properties["lines"] = []string{
			"En direction de " + terminus,
			"Prochain passage : " + p.Delay,
			"Dernière actualisation à " + refreshed,
		}
		f.Properties["delaipassage"] = p.Delay
		f.Properties["heurepassage"] = p.PassingAt
		isTerminus := false
		for _, d := range directions {
			if label.Accepts(p.StopName, d) {
				isTerminus = true
				break
			}
		}
		f.Properties["terminus_label"] = isTerminus
		stops.Append(f)
	}

	trace := geojson.NewFeatureCollection()
	center, ok := orb.Point{}, false
	for _, tr := range traces {
		if tr.Line == line && tr.Geometry != nil {
			f := geojson.NewFeature(tr.Geometry)
			f.Properties["ligne"] = tr.Line
			trace.Append(f)
			center, ok = geo.Centroid(tr.Geometry)
			break
		}
	}
	if !ok {
		center, ok = geo.Centroid(orb.MultiPoint(points))
	}
	if !ok {
		center = cityCenter
	}

	at := view.At
	return &Map{
		Center:      center,
		Zoom:        14,
		RadiusM:     geo.MaxDistance(center, points),
		RefreshedAt: &at,
		Layers: []Layer{
			{Name: "Tracé " + line, Color: highlightColor, Weight: 3, Features: trace},
			{Name: "Stations", Color: highlightColor, Features: stops},
		},
	}, nil
}
