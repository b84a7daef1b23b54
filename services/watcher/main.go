package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/normalize"
	"github.com/02loveslollipop/lyon-transit-viewer/services/watcher/internal/config"
	"github.com/02loveslollipop/lyon-transit-viewer/services/watcher/internal/db"
	watchermodels "github.com/02loveslollipop/lyon-transit-viewer/services/watcher/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/services/watcher/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("watcher failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.RequestTimeout+10*time.Second)
	defer cancel()

	client := feed.NewClient(&http.Client{Timeout: cfg.RequestTimeout}, feed.WithRetry(cfg.Retry))
	retrieval := time.Now()

	bikes, bikeErr := fetchBikes(ctx, client, cfg.Catalog.Bikes, retrieval)
	parks, parkErr := fetchParkRides(ctx, client, cfg.Catalog.ParkRides, retrieval)
	if bikeErr != nil && parkErr != nil {
		return errors.Join(bikeErr, parkErr)
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if !cfg.DryRun {
			if err := db.EnsureSchema(ctx, pool); err != nil {
				return err
			}
		}
	}

	lastBikes := map[int64]watchermodels.LastReading{}
	lastParks := map[int64]watchermodels.LastReading{}
	if pool != nil {
		if lastBikes, err = db.FetchLastBikeReadings(ctx, pool, utils.BikeNumbers(bikes)); err != nil {
			return err
		}
		if lastParks, err = db.FetchLastParkRideReadings(ctx, pool, utils.ParkIDs(parks)); err != nil {
			return err
		}
	}

	pendingBikes := utils.FilterNewBikeReadings(bikes, lastBikes, cfg.MinInterval)
	pendingParks := utils.FilterNewParkRideReadings(parks, lastParks, cfg.MinInterval)

	if len(pendingBikes) == 0 && len(pendingParks) == 0 {
		log.Printf("no new readings to insert (retrieval=%s)", retrieval.Format(time.RFC3339))
		return errors.Join(bikeErr, parkErr)
	}

	log.Printf("prepared %d bike and %d park-and-ride readings (dry-run=%v)", len(pendingBikes), len(pendingParks), cfg.DryRun)

	if cfg.DryRun {
		for _, r := range pendingBikes {
			log.Printf("dry-run: would insert station=%d ts=%s %s", r.Number, r.Timestamp.Format(time.RFC3339), utils.OccupancyString(r.BikeStands, r.AvailableBikeStands))
		}
		for _, r := range pendingParks {
			log.Printf("dry-run: would insert park=%d (%s) ts=%s %s", r.ID, r.Name, r.Timestamp.Format(time.RFC3339), utils.OccupancyString(r.Capacity, r.Available))
		}
		return errors.Join(bikeErr, parkErr)
	}

	if err := db.InsertBikeReadings(ctx, pool, pendingBikes); err != nil {
		return err
	}
	if err := db.InsertParkRideReadings(ctx, pool, pendingParks); err != nil {
		return err
	}

	log.Printf("inserted %d bike and %d park-and-ride readings", len(pendingBikes), len(pendingParks))
	return errors.Join(bikeErr, parkErr)
}

func fetchBikes(ctx context.Context, client *feed.Client, ep feed.Endpoint, at time.Time) ([]models.BikeReading, error) {
	records, err := client.Fetch(ctx, ep)
	if err != nil {
		log.Printf("fetch %s: %v", ep.Name, err)
		return nil, err
	}
	stations, report, err := normalize.BikeStations(records, at)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", ep.Name, err)
	}
	rows := utils.BuildBikeReadings(stations)
	log.Printf("fetched %d stations (%d dropped, %d archivable)", report.Total, report.Dropped, len(rows))
	return rows, nil
}

func fetchParkRides(ctx context.Context, client *feed.Client, ep feed.Endpoint, at time.Time) ([]models.ParkRideReading, error) {
	records, err := client.Fetch(ctx, ep)
	if err != nil {
		log.Printf("fetch %s: %v", ep.Name, err)
		return nil, err
	}
	readings, report, err := normalize.ParkRides(records, at)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", ep.Name, err)
	}
	rows := utils.BuildParkRideReadings(readings)
	log.Printf("fetched %d parks (%d dropped, %d archivable)", report.Total, report.Dropped, len(rows))
	return rows, nil
}
