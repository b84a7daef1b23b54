package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/corpus"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/normalize"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
)

// Store reads the readings archived by the watcher. It implements corpus.Source.
type Store struct {
	pool   *pgxpool.Pool
	tables *rules.Tables
}

var _ corpus.Source = (*Store)(nil)

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string, tables *rules.Tables) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, tables: tables}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the connection. /healthz reports its result.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const parkRideReadingsSQL = `
    SELECT ts, park_id, name, capacity, available, lat, lng
    FROM transit.park_ride_readings
    ORDER BY ts, park_id
`

// ParkRides returns every archived park-and-ride reading, names cleaned with the
// rule tables.
func (s *Store) ParkRides(ctx context.Context) ([]models.ParkRideReading, error) {
	rows, err := s.pool.Query(ctx, parkRideReadingsSQL)
	if err != nil {
		return nil, fmt.Errorf("query park-and-ride readings: %w", err)
	}
	readings, err := pgx.CollectRows(rows, scanParkRide)
	if err != nil {
		return nil, fmt.Errorf("scan park-and-ride readings: %w", err)
	}
	return corpus.CleanParkRides(readings, s.tables), nil
}

func scanParkRide(row pgx.CollectableRow) (models.ParkRideReading, error) {
	var r models.ParkRideReading
	var ts time.Time
	var lat, lng *float64
	if err := row.Scan(&ts, &r.ID, &r.Name, &r.Capacity, &r.Available, &lat, &lng); err != nil {
		return r, err
	}
	r.Timestamp = ts.In(normalize.Paris)
	r.Lat, r.Lng = deref(lat), deref(lng)
	return r, nil
}

const bikeReadingsSQL = `
    SELECT ts, number, name, commune, bike_stands, available_bike_stands, lat, lng
    FROM transit.bike_readings
    ORDER BY ts, number
`

// Bikes returns every archived Vélo'v reading.
func (s *Store) Bikes(ctx context.Context) ([]models.BikeReading, error) {
	rows, err := s.pool.Query(ctx, bikeReadingsSQL)
	if err != nil {
		return nil, fmt.Errorf("query bike readings: %w", err)
	}
	readings, err := pgx.CollectRows(rows, scanBike)
	if err != nil {
		return nil, fmt.Errorf("scan bike readings: %w", err)
	}
	return readings, nil
}

func scanBike(row pgx.CollectableRow) (models.BikeReading, error) {
	var r models.BikeReading
	var ts time.Time
	var commune *string
	var lat, lng *float64
	if err := row.Scan(&ts, &r.Number, &r.Name, &commune, &r.BikeStands, &r.AvailableBikeStands, &lat, &lng); err != nil {
		return r, err
	}
	r.Timestamp = ts.In(normalize.Paris)
	if commune != nil {
		r.Commune = *commune
	}
	r.Lat, r.Lng = deref(lat), deref(lng)
	return r, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
