package views

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/aggregate"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/pipeline"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
)

func tables(t *testing.T) *rules.Tables {
	t.Helper()
	tb, err := rules.Default()
	require.NoError(t, err)
	return tb
}

func TestBikeMarker(t *testing.T) {
	tests := []struct {
		name string
		st   models.BikeStation
		want string
	}{
		{name: "closed", st: models.BikeStation{Status: models.StatusClosed, Available: true, AvailableBikes: 9}, want: MarkerClosed},
		{name: "no data", st: models.BikeStation{Status: models.StatusOpen}, want: MarkerUnknown},
		{name: "empty", st: models.BikeStation{Status: models.StatusOpen, Available: true}, want: MarkerEmpty},
		{name: "low", st: models.BikeStation{Status: models.StatusOpen, Available: true, AvailableBikes: 3}, want: MarkerLow},
		{name: "ok", st: models.BikeStation{Status: models.StatusOpen, Available: true, AvailableBikes: 4}, want: MarkerOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BikeMarker(tt.st, 3))
		})
	}
}

func TestBikeMap(t *testing.T) {
	view := &pipeline.BikeView{
		At: time.Date(2022, 2, 10, 14, 30, 0, 0, time.UTC),
		Stations: []models.BikeStation{
			{Name: "Confluent", Status: models.StatusOpen, Available: true, AvailableBikes: 1, AvailableBikeStands: 9, Lat: 45.74, Lng: 4.81},
			{Address: "Rue Garibaldi", Status: models.StatusClosed, Lat: 45.76, Lng: 4.85},
		},
	}
	m := BikeMap(view, 3)
	require.Len(t, m.Layers, 1)
	fc := m.Layers[0].Features
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, orb.Point{4.81, 45.74}, first.Geometry)
	assert.Equal(t, MarkerLow, first.Properties["marker"])
	assert.Equal(t, []string{"1 vélo disponible", "9 places disponibles"}, first.Properties["lines"])

	second := fc.Features[1]
	assert.Equal(t, "Rue Garibaldi", second.Properties["title"])
	assert.Equal(t, []string{"STATION FERMÉE"}, second.Properties["lines"])

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"type":"FeatureCollection"`)
}

func TestNetworkMap(t *testing.T) {
	line := orb.LineString{{4.81, 45.74}, {4.86, 45.78}}
	traces := []models.LineTrace{
		{Code: "C3", Family: "BUS", Geometry: line},
		{Code: "T1", Family: "TRA", Geometry: line},
		{Code: "T1", Family: "TRA", Geometry: line},
		{Code: "A", Family: "MET", Geometry: line},
		{Code: "X", Family: "BAT", Geometry: line},
	}
	m := NetworkMap(traces, tables(t))
	require.Len(t, m.Layers, 4)

	assert.Equal(t, "Bus", m.Layers[0].Name)
	assert.True(t, m.Layers[0].Hidden)
	assert.Equal(t, 1, m.Layers[0].Weight)
	assert.Len(t, m.Layers[1].Features.Features, 1)
	assert.Equal(t, "#0075bf", m.Layers[1].Color)
	assert.Len(t, m.Layers[2].Features.Features, 1)
	assert.Empty(t, m.Layers[3].Features.Features)
}

func tramView() *pipeline.TramView {
	at := time.Date(2022, 2, 10, 14, 30, 5, 0, time.UTC)
	mk := func(line, dir, stop, delay string, lng, lat float64, located bool) pipeline.TramPassage {
		return pipeline.TramPassage{
			Passage:  models.Passage{Line: line, Direction: dir, Delay: delay, Timestamp: at},
			StopName: stop, Lng: lng, Lat: lat, Located: located,
		}
	}
	return &pipeline.TramView{
		At: at,
		Passages: []pipeline.TramPassage{
			mk("T1", "IUT Feyssine", "Perrache", "3 min", 4.826, 45.748, true),
			mk("T1", "IUT Feyssine", "IUT Feyssine", "0 min", 4.870, 45.787, true),
			mk("T1", "Debourg", "Debourg", "5 min", 4.832, 45.731, true),
			mk("T1", "Debourg", "Perrache", "9 min", 4.826, 45.748, true),
			mk("T1", "IUT Feyssine", "Inconnue", "1 min", 0, 0, false),
			mk("T2", "Saint-Priest Bel Air", "Perrache", "4 min", 4.826, 45.748, true),
		},
	}
}

func TestTramChoices(t *testing.T) {
	c := NewTramChoices(tramView())
	assert.Equal(t, []string{"T1", "T2"}, c.Lines)
	assert.Equal(t, []string{"Debourg", "IUT Feyssine"}, c.Termini["T1"])
}

func TestTramMap(t *testing.T) {
	traces := []models.LineTrace{
		{Line: "T2", Geometry: orb.LineString{{4.9, 45.7}, {4.95, 45.7}}},
		{Line: "T1", Geometry: orb.LineString{{4.82, 45.73}, {4.88, 45.79}}},
	}
	m, err := TramMap(tramView(), traces, "T1", "IUT Feyssine", tables(t))
	require.NoError(t, err)
	require.Len(t, m.Layers, 2)

	assert.Len(t, m.Layers[0].Features.Features, 1)
	assert.InDelta(t, 4.85, m.Center.Lon(), 1e-3)
	assert.Greater(t, m.RadiusM, 0.0)

	stops := m.Layers[1].Features.Features
	require.Len(t, stops, 2)
	assert.Equal(t, "Perrache", stops[0].Properties["title"])
	assert.Equal(t, false, stops[0].Properties["terminus_label"])
	assert.Equal(t, true, stops[1].Properties["terminus_label"])
	assert.Contains(t, stops[0].Properties["lines"], "Dernière actualisation à 14:30:05")

	_, err = TramMap(tramView(), traces, "T9", "Nulle part", tables(t))
	assert.ErrorIs(t, err, ErrUnknownLine)
}

func ptr(v float64) *float64 { return &v }

// 2022-03-05 is a Saturday.
func obsAt(entity, area string, day, hour int, value float64, available int) aggregate.Observation {
	return aggregate.Observation{
		Entity: entity, Area: area, At: time.Date(2022, 3, day, hour, 0, 0, 0, time.UTC),
		Value: ptr(value), Available: &available,
	}
}

func TestParkRideCharts(t *testing.T) {
	tb := tables(t)
	obs := []aggregate.Observation{
		obsAt("Vaise", "", 5, 8, 40, 10),
		obsAt("Vaise", "", 5, 9, 60, 10),
		obsAt("Meyzieu les Panettes", "", 5, 8, 90, 10),
		obsAt("Meyzieu les Panettes", "", 7, 8, 90, 10),
		obsAt("Porte des Alpes", "", 7, 8, 0, 0),
	}

	all, err := ParkRideAll(obs, "Samedi", tb.ClosureTable())
	require.NoError(t, err)
	assert.Equal(t, "bar", all.Kind)
	assert.Equal(t, [2]float64{0, 100}, all.Y.Range)
	require.Len(t, all.Frames, 2)
	assert.Equal(t, "8", all.Frames[0].Name)
	points := all.Frames[0].Series[0].Points
	require.Len(t, points, 2)
	assert.Equal(t, "Meyzieu les Panettes", points[0].X)
	assert.Equal(t, 0.0, *points[0].Y)

	one, err := ParkRide(obs, "Vaise", "Samedi", tb.ClosureTable())
	require.NoError(t, err)
	assert.Equal(t, "line", one.Kind)
	assert.Equal(t, [2]float64{0, 23}, one.X.Range)
	require.Len(t, one.Series[0].Points, 24)
	assert.Nil(t, one.Series[0].Points[7].Y)
	assert.Equal(t, 40.0, *one.Series[0].Points[8].Y)

	_, err = ParkRide(obs, "Porte des Alpes", "Lundi", tb.ClosureTable())
	assert.ErrorIs(t, err, aggregate.ErrDataUnavailable)

	_, err = ParkRideAll(obs, "Saturday", nil)
	assert.ErrorIs(t, err, ErrUnknownDay)
}

func TestBikeCharts(t *testing.T) {
	obs := []aggregate.Observation{
		obsAt("Mairie du 4e", "Lyon 4 ème", 8, 8, 20, 8),
		obsAt("Mairie du 4e", "Lyon 4 ème", 8, 8, 40, 6),
		obsAt("Gros Caillou", "Lyon 4 ème", 8, 9, 120, 0),
		obsAt("Confluent", "Lyon 2 ème", 8, 8, 100, 0),
		obsAt("Confluent", "Lyon 2 ème", 9, 8, 10, 9),
	}

	communes, err := BikeCommunes(obs, "Mardi")
	require.NoError(t, err)
	assert.Equal(t, []string{"Lyon 2 ème", "Lyon 4 ème"}, communes.X.Categories)
	require.Len(t, communes.Frames, 2)

	commune, err := BikeCommune(obs, "Mardi", "Lyon 4 ème")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gros Caillou", "Mairie du 4e"}, commune.X.Categories)
	assert.Equal(t, 100.0, *commune.Frames[1].Series[0].Points[0].Y)

	station, err := BikeStation(obs, "Mardi", "Lyon 4 ème", "Mairie du 4e")
	require.NoError(t, err)
	assert.Equal(t, 30.0, *station.Series[0].Points[8].Y)

	_, err = BikeStation(obs, "Mardi", "Lyon 4 ème", "Confluent")
	assert.ErrorIs(t, err, aggregate.ErrDataUnavailable)

	c := NewChoices(obs)
	assert.Equal(t, []string{"Lyon 2 ème", "Lyon 4 ème"}, c.Areas)
	assert.Equal(t, []string{"Gros Caillou", "Mairie du 4e"}, c.ByArea["Lyon 4 ème"])
}

func TestAllEntityChartsOnEmptyDay(t *testing.T) {
	// Only a Monday reading.
	obs := []aggregate.Observation{obsAt("Vaise", "Lyon 9 ème", 7, 8, 40, 10)}

	_, err := ParkRideAll(obs, "Dimanche", tables(t).ClosureTable())
	assert.ErrorIs(t, err, aggregate.ErrDataUnavailable)

	_, err = BikeCommunes(obs, "Dimanche")
	assert.ErrorIs(t, err, aggregate.ErrDataUnavailable)

	_, err = BikeCommune(obs, "Dimanche", "Lyon 9 ème")
	assert.ErrorIs(t, err, aggregate.ErrDataUnavailable)

	chart, err := BikeCommunes(obs, "Lundi")
	require.NoError(t, err)
	assert.Len(t, chart.Frames, 1)
}
