package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/corpus"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/pipeline"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/session"
	"github.com/02loveslollipop/lyon-transit-viewer/services/api/config"
	"github.com/02loveslollipop/lyon-transit-viewer/services/api/db"
	httpserver "github.com/02loveslollipop/lyon-transit-viewer/services/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tables, err := rules.Load(cfg.RulesPath)
	if err != nil {
		log.Fatalf("rules error: %v", err)
	}

	var (
		source   corpus.Source
		database httpserver.Pinger
	)
	if cfg.DatabaseURL != "" {
		store, err := db.New(ctx, cfg.DatabaseURL, tables)
		if err != nil {
			log.Fatalf("db connection error: %v", err)
		}
		defer store.Close()
		source = store
		database = store
		log.Printf("historical readings from the archive database")
	} else {
		source = corpus.NewFileSource(cfg.ParkRideCSV, cfg.BikeHistoryCSV, tables)
		log.Printf("historical readings from %s and %s", cfg.ParkRideCSV, cfg.BikeHistoryCSV)
	}

	opts := []feed.Option{feed.WithRetry(cfg.Retry)}
	if cfg.Credentials.Username != "" {
		opts = append(opts, feed.WithCredentials(cfg.Credentials))
	} else {
		log.Printf("GRANDLYON_USERNAME not set: tram passages will be unavailable")
	}
	client := feed.NewClient(&http.Client{Timeout: cfg.FetchTimeout}, opts...)

	p := pipeline.New(client, cfg.Catalog, tables, source)
	sessions := session.NewStore(p, cfg.SessionCapacity, cfg.SessionTTL)

	srv := httpserver.New(cfg, sessions, tables, database)
	log.Printf("REST API listening on %s", cfg.ListenAddr())

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
