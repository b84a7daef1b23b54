// Package pipeline runs fetch, normalize, reconcile and aggregate for each view of
// the dashboard. Each view fails on its own.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/aggregate"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/corpus"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/normalize"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/reconcile"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
)

// Fetcher retrieves the raw records of one endpoint. *feed.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, ep feed.Endpoint) ([]feed.Record, error)
}

// Transport family codes used when a trace layer does not carry one.
const (
	FamilyTram  = "TRA"
	FamilyBus   = "BUS"
	FamilyMetro = "MET"
)

type Pipeline struct {
	Fetcher Fetcher
	Catalog feed.Catalog
	Tables  *rules.Tables
	Corpus  corpus.Source
	Now     func() time.Time
}

func New(fetcher Fetcher, catalog feed.Catalog, tables *rules.Tables, source corpus.Source) *Pipeline {
	return &Pipeline{Fetcher: fetcher, Catalog: catalog, Tables: tables, Corpus: source, Now: time.Now}
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

func logReport(r normalize.Report) {
	log.Printf("%s: %d records, %d kept, %d dropped", r.Feed, r.Total, r.Kept, r.Dropped)
	for i, issue := range r.Issues {
		if i == 3 {
			log.Printf("%s: %d more issues", r.Feed, len(r.Issues)-i)
			break
		}
		log.Printf("%s: %v", r.Feed, issue)
	}
}

// BikeView is the realtime Vélo'v snapshot.
type BikeView struct {
	At       time.Time
	Stations []models.BikeStation
	Report   normalize.Report
}

func (p *Pipeline) BikeAvailability(ctx context.Context) (*BikeView, error) {
	at := p.now()
	records, err := p.Fetcher.Fetch(ctx, p.Catalog.Bikes)
	if err != nil {
		return nil, fmt.Errorf("bike availability: %w", err)
	}
	stations, report, err := normalize.BikeStations(records, at)
	if err != nil {
		return nil, fmt.Errorf("bike availability: %w", err)
	}
	logReport(report)
	return &BikeView{At: normalize.RequestTime(at), Stations: stations, Report: report}, nil
}

// TramPassage is a cleaned arrival prediction joined with its stop.
type TramPassage struct {
	models.Passage
	StopName string  `json:"nom"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Located  bool    `json:"located"`
}

// TramView is the realtime tram snapshot.
type TramView struct {
	At       time.Time
	Passages []TramPassage
	Join     reconcile.JoinReport
}

// TramPassages fetches predictions and stops, corrects line codes, joins every
// passage to its stop by id and keeps the next passage per line, direction and stop.
func (p *Pipeline) TramPassages(ctx context.Context) (*TramView, error) {
	at := p.now()
	records, err := p.Fetcher.Fetch(ctx, p.Catalog.Passages)
	if err != nil {
		return nil, fmt.Errorf("tram passages: %w", err)
	}
	passages, report, err := normalize.Passages(records, at)
	if err != nil {
		return nil, fmt.Errorf("tram passages: %w", err)
	}
	logReport(report)
	passages = p.Tables.PassageCleanup().Clean(passages)

	stopRecords, err := p.Fetcher.Fetch(ctx, p.Catalog.Stops)
	if err != nil {
		return nil, fmt.Errorf("tram stops: %w", err)
	}
	stops, report, err := normalize.Stops(stopRecords)
	if err != nil {
		return nil, fmt.Errorf("tram stops: %w", err)
	}
	logReport(report)
	aliases := p.Tables.StopAliasTable()
	for i := range stops {
		stops[i].Name = aliases.Apply(stops[i].Name)
	}

	table, err := reconcile.Join(passages, stops, reconcile.JoinSpec[models.Passage, models.Stop]{
		ByID:      true,
		LeftID:    func(p models.Passage) int64 { return p.StopID },
		RightID:   func(s models.Stop) int64 { return s.ID },
		RightName: func(s models.Stop) string { return s.Name },
		Unmatched: reconcile.KeepUnmatched,
	})
	if err != nil {
		return nil, fmt.Errorf("tram passages: %w", err)
	}
	log.Printf("tram passages: %d joined to a stop, %d without stop", table.Report.Matched, table.Report.UnmatchedKept)

	rows := make([]TramPassage, 0, len(table.Rows))
	for _, r := range table.Rows {
		tp := TramPassage{Passage: r.Left}
		if r.Right != nil {
			tp.StopName, tp.Lat, tp.Lng, tp.Located = r.Right.Name, r.Right.Lat, r.Right.Lng, true
		}
		rows = append(rows, tp)
	}
	rows = reconcile.Dedup(rows,
		func(tp TramPassage) string { return reconcile.PassageKey(tp.Passage) },
		func(a, b TramPassage) bool { return reconcile.EarliestPassage(a.Passage, b.Passage) })

	return &TramView{At: normalize.RequestTime(at), Passages: rows, Join: table.Report}, nil
}

func (p *Pipeline) traces(ctx context.Context, ep feed.Endpoint, family string) ([]models.LineTrace, error) {
	records, err := p.Fetcher.Fetch(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("%s traces: %w", ep.Name, err)
	}
	traces, report, err := normalize.LineTraces(records)
	if err != nil {
		return nil, fmt.Errorf("%s traces: %w", ep.Name, err)
	}
	logReport(report)
	for i := range traces {
		if traces[i].Family == "" {
			traces[i].Family = family
		}
	}
	return traces, nil
}

// TramTraces returns the tram lines with origin and destination names harmonized
// onto the canonical termini.
func (p *Pipeline) TramTraces(ctx context.Context) ([]models.LineTrace, error) {
	traces, err := p.traces(ctx, p.Catalog.TramTraces, FamilyTram)
	if err != nil {
		return nil, err
	}
	out, ambiguities, err := reconcile.HarmonizeTermini(traces, p.Tables.Termini, p.Tables.TerminusMatcher(), p.Tables.TerminusAliasTable())
	if err != nil {
		return nil, fmt.Errorf("tram traces: %w", err)
	}
	for _, a := range ambiguities {
		log.Printf("tram traces: %v, kept %q", a, a.Chosen)
	}
	return out, nil
}

// NetworkTraces returns the bus, tram, metro and funicular lines.
func (p *Pipeline) NetworkTraces(ctx context.Context) ([]models.LineTrace, error) {
	var all []models.LineTrace
	for _, src := range []struct {
		ep     feed.Endpoint
		family string
	}{
		{p.Catalog.BusTraces, FamilyBus},
		{p.Catalog.TramTraces, FamilyTram},
		{p.Catalog.MetroTraces, FamilyMetro},
	} {
		traces, err := p.traces(ctx, src.ep, src.family)
		if err != nil {
			return nil, err
		}
		all = append(all, traces...)
	}
	return all, nil
}

// ParkRideHistory turns the park-and-ride history into occupancy observations.
func (p *Pipeline) ParkRideHistory(ctx context.Context) ([]aggregate.Observation, error) {
	readings, err := p.Corpus.ParkRides(ctx)
	if err != nil {
		return nil, fmt.Errorf("park-and-ride history: %w", err)
	}
	obs := make([]aggregate.Observation, len(readings))
	for i, r := range readings {
		available := r.Available
		obs[i] = aggregate.Observation{
			Entity:    r.Name,
			At:        r.Timestamp,
			Value:     aggregate.OccupancyRate(r.Capacity, r.Available),
			Available: &available,
		}
	}
	return obs, nil
}

// BikeHistory turns the Vélo'v history into occupancy observations per station
// and commune.
func (p *Pipeline) BikeHistory(ctx context.Context) ([]aggregate.Observation, error) {
	readings, err := p.Corpus.Bikes(ctx)
	if err != nil {
		return nil, fmt.Errorf("bike history: %w", err)
	}
	obs := make([]aggregate.Observation, len(readings))
	for i, r := range readings {
		available := r.AvailableBikeStands
		obs[i] = aggregate.Observation{
			Entity:    r.Name,
			Area:      r.Commune,
			At:        r.Timestamp,
			Value:     aggregate.OccupancyRate(r.BikeStands, r.AvailableBikeStands),
			Available: &available,
		}
	}
	return obs, nil
}
