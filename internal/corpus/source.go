package corpus

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
)

// Source provides the historical readings behind the trend charts.
type Source interface {
	ParkRides(ctx context.Context) ([]models.ParkRideReading, error)
	Bikes(ctx context.Context) ([]models.BikeReading, error)
}

// FileSource reads the history from CSV exports. Every call reads the file again;
// callers keep the result for as long as they need it.
type FileSource struct {
	ParkRidePath string
	BikePath     string
	Tables       *rules.Tables
}

func NewFileSource(parkRidePath, bikePath string, tables *rules.Tables) *FileSource {
	return &FileSource{ParkRidePath: parkRidePath, BikePath: bikePath, Tables: tables}
}

func (s *FileSource) ParkRides(ctx context.Context) ([]models.ParkRideReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.ParkRidePath)
	if err != nil {
		return nil, fmt.Errorf("open park-and-ride history: %w", err)
	}
	defer f.Close()

	readings, report, err := ReadParkRides(f, s.Tables)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d park-and-ride readings from %s (%d rows dropped)", len(readings), s.ParkRidePath, report.Dropped)
	return readings, nil
}

func (s *FileSource) Bikes(ctx context.Context) ([]models.BikeReading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.BikePath)
	if err != nil {
		return nil, fmt.Errorf("open bike history: %w", err)
	}
	defer f.Close()

	readings, report, err := ReadBikes(f)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d bike readings from %s (%d rows dropped)", len(readings), s.BikePath, report.Dropped)
	return readings, nil
}
