package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	watchermodels "github.com/02loveslollipop/lyon-transit-viewer/services/watcher/internal/models"
)

// Schema creates the archive tables when missing.
const Schema = `
CREATE SCHEMA IF NOT EXISTS transit;

CREATE TABLE IF NOT EXISTS transit.bike_readings (
    number                integer          NOT NULL,
    ts                    timestamptz      NOT NULL,
    name                  text             NOT NULL,
    commune               text,
    bike_stands           integer          NOT NULL,
    available_bike_stands integer          NOT NULL,
    lat                   double precision,
    lng                   double precision,
    created_at            timestamptz      NOT NULL DEFAULT NOW(),
    PRIMARY KEY (number, ts)
);

CREATE TABLE IF NOT EXISTS transit.park_ride_readings (
    park_id    bigint           NOT NULL,
    ts         timestamptz      NOT NULL,
    name       text             NOT NULL,
    capacity   integer          NOT NULL,
    available  integer          NOT NULL,
    lat        double precision,
    lng        double precision,
    created_at timestamptz      NOT NULL DEFAULT NOW(),
    PRIMARY KEY (park_id, ts)
);`

// EnsureSchema applies Schema.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create archive schema: %w", err)
	}
	return nil
}

func fetchLast(ctx context.Context, pool *pgxpool.Pool, query string, ids []int64) (map[int64]watchermodels.LastReading, error) {
	result := make(map[int64]watchermodels.LastReading, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var last watchermodels.LastReading
		var ts time.Time
		if err := rows.Scan(&id, &last.Capacity, &last.Available, &ts); err != nil {
			return nil, err
		}
		last.TS = ts
		result[id] = last
	}

	return result, rows.Err()
}

// FetchLastBikeReadings loads the most recent archived reading per station.
func FetchLastBikeReadings(ctx context.Context, pool *pgxpool.Pool, numbers []int64) (map[int64]watchermodels.LastReading, error) {
	return fetchLast(ctx, pool, `
SELECT DISTINCT ON (number) number::bigint, bike_stands, available_bike_stands, ts
FROM transit.bike_readings
WHERE number = ANY($1)
ORDER BY number, ts DESC`, numbers)
}

// FetchLastParkRideReadings loads the most recent archived reading per park.
func FetchLastParkRideReadings(ctx context.Context, pool *pgxpool.Pool, ids []int64) (map[int64]watchermodels.LastReading, error) {
	return fetchLast(ctx, pool, `
SELECT DISTINCT ON (park_id) park_id, capacity, available, ts
FROM transit.park_ride_readings
WHERE park_id = ANY($1)
ORDER BY park_id, ts DESC`, ids)
}

func sendBatch(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch) error {
	res := pool.SendBatch(ctx, batch)
	defer res.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := res.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertBikeReadings writes new station readings.
func InsertBikeReadings(ctx context.Context, pool *pgxpool.Pool, readings []models.BikeReading) error {
	if len(readings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO transit.bike_readings (number, ts, name, commune, bike_stands, available_bike_stands, lat, lng)
VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8)
ON CONFLICT (number, ts) DO UPDATE
SET bike_stands = EXCLUDED.bike_stands,
    available_bike_stands = EXCLUDED.available_bike_stands`

	for _, r := range readings {
		batch.Queue(query, r.Number, r.Timestamp, r.Name, r.Commune, r.BikeStands, r.AvailableBikeStands, r.Lat, r.Lng)
	}
	return sendBatch(ctx, pool, batch)
}

// InsertParkRideReadings writes new park-and-ride readings.
func InsertParkRideReadings(ctx context.Context, pool *pgxpool.Pool, readings []models.ParkRideReading) error {
	if len(readings) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `INSERT INTO transit.park_ride_readings (park_id, ts, name, capacity, available, lat, lng)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (park_id, ts) DO UPDATE
SET capacity = EXCLUDED.capacity,
    available = EXCLUDED.available`

	for _, r := range readings {
		batch.Queue(query, r.ID, r.Timestamp, r.Name, r.Capacity, r.Available, r.Lat, r.Lng)
	}
	return sendBatch(ctx, pool, batch)
}
