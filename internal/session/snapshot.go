// Package session keeps what one dashboard visitor has seen: each view is fetched
// once and reused until the visitor asks for a refresh.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/aggregate"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/pipeline"
)

// Loader produces the views. *pipeline.Pipeline implements it.
type Loader interface {
	BikeAvailability(ctx context.Context) (*pipeline.BikeView, error)
	TramPassages(ctx context.Context) (*pipeline.TramView, error)
	TramTraces(ctx context.Context) ([]models.LineTrace, error)
	NetworkTraces(ctx context.Context) ([]models.LineTrace, error)
	ParkRideHistory(ctx context.Context) ([]aggregate.Observation, error)
	BikeHistory(ctx context.Context) ([]aggregate.Observation, error)
}

// View names one cached dataset of a snapshot.
type View string

const (
	ViewBikes        View = "bikes"
	ViewTramPassages View = "tram_passages"
	ViewTramTraces   View = "tram_traces"
	ViewNetwork      View = "network"
	ViewParkHistory  View = "park_ride_history"
	ViewBikeHistory  View = "bike_history"
)

type slot[T any] struct {
	mu    sync.Mutex
	value T
	ok    bool
}

// get returns the cached value or loads it. Failed loads are not cached. Only
// callers of the same slot wait on each other.
func (s *slot[T]) get(load func() (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ok {
		return s.value, nil
	}
	v, err := load()
	if err != nil {
		return v, err
	}
	s.value, s.ok = v, true
	return v, nil
}

func (s *slot[T]) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value, s.ok = zero, false
}

// Snapshot is the read-only data of one session. Two requests of the same session
// may run at once; each view has its own lock so a slow feed only delays its view.
type Snapshot struct {
	ID      string
	Created time.Time

	loader Loader

	bikes       slot[*pipeline.BikeView]
	trams       slot[*pipeline.TramView]
	tramTraces  slot[[]models.LineTrace]
	network     slot[[]models.LineTrace]
	parkHistory slot[[]aggregate.Observation]
	bikeHistory slot[[]aggregate.Observation]
}

func NewSnapshot(id string, loader Loader) *Snapshot {
	return &Snapshot{ID: id, Created: time.Now(), loader: loader}
}

func (s *Snapshot) Bikes(ctx context.Context) (*pipeline.BikeView, error) {
	return s.bikes.get(func() (*pipeline.BikeView, error) { return s.loader.BikeAvailability(ctx) })
}

func (s *Snapshot) Trams(ctx context.Context) (*pipeline.TramView, error) {
	return s.trams.get(func() (*pipeline.TramView, error) { return s.loader.TramPassages(ctx) })
}

func (s *Snapshot) TramTraces(ctx context.Context) ([]models.LineTrace, error) {
	return s.tramTraces.get(func() ([]models.LineTrace, error) { return s.loader.TramTraces(ctx) })
}

func (s *Snapshot) Network(ctx context.Context) ([]models.LineTrace, error) {
	return s.network.get(func() ([]models.LineTrace, error) { return s.loader.NetworkTraces(ctx) })
}

func (s *Snapshot) ParkRideHistory(ctx context.Context) ([]aggregate.Observation, error) {
	return s.parkHistory.get(func() ([]aggregate.Observation, error) { return s.loader.ParkRideHistory(ctx) })
}

func (s *Snapshot) BikeHistory(ctx context.Context) ([]aggregate.Observation, error) {
	return s.bikeHistory.get(func() ([]aggregate.Observation, error) { return s.loader.BikeHistory(ctx) })
}

// Invalidate drops the cached views so the next access fetches them again. It waits
// for a load of the same view in progress.
func (s *Snapshot) Invalidate(views ...View) {
	for _, v := range views {
		switch v {
		case ViewBikes:
			s.bikes.reset()
		case ViewTramPassages:
			s.trams.reset()
		case ViewTramTraces:
			s.tramTraces.reset()
		case ViewNetwork:
			s.network.reset()
		case ViewParkHistory:
			s.parkHistory.reset()
		case ViewBikeHistory:
			s.bikeHistory.reset()
		}
	}
}
