// Package corpus reads the historical park-and-ride and Vélo'v readings.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/normalize"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
)

var optionalInt = normalize.Default(nil, normalize.Int)

var parkRideSchema = normalize.Schema{
	Feed: "parcs_relais.csv",
	Fields: []normalize.Field{
		{Source: "timestamp", Target: "timestamp", Required: true, Coerce: normalize.Time},
		{Source: "id", Target: "id", Coerce: optionalInt},
		{Source: "nom", Target: "nom", Required: true, Coerce: normalize.TrimmedString},
		{Source: "capacite", Target: "capacite", Required: true, Coerce: normalize.Int},
		{Source: "nb_tot_place_dispo", Target: "nb_tot_place_dispo", Required: true, Coerce: normalize.Int},
		{Source: "lat", Target: "lat", Coerce: normalize.Default(nil, normalize.Latitude)},
		{Source: "lon", Target: "lng", Coerce: normalize.Default(nil, normalize.Longitude)},
	},
}

var bikeSchema = normalize.Schema{
	Feed: "velov_concat.csv",
	Fields: []normalize.Field{
		{Source: "timestamp", Target: "timestamp", Required: true, Coerce: normalize.Time},
		{Source: "number", Target: "number", Coerce: optionalInt},
		{Source: "name", Target: "name", Required: true, Coerce: normalize.TrimmedString},
		{Source: "commune", Target: "commune", Required: true, Coerce: normalize.TrimmedString},
		{Source: "bike_stands", Target: "bike_stands", Required: true, Coerce: normalize.Int},
		{Source: "available_bike_stands", Target: "available_bike_stands", Required: true, Coerce: normalize.Int},
		{Source: "lat", Target: "lat", Coerce: normalize.Default(nil, normalize.Latitude)},
		{Source: "lng", Target: "lng", Coerce: normalize.Default(nil, normalize.Longitude)},
	},
}

// readCSV turns a headed CSV into records keyed by column name. Every required
// column of schema must appear in the header.
func readCSV(r io.Reader, schema normalize.Schema) ([]feed.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", schema.Feed)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", schema.Feed, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, f := range schema.Fields {
		if f.Required && !present[f.Source] {
			return nil, &normalize.SchemaViolation{Feed: schema.Feed, Field: f.Source, Row: -1}
		}
	}

	var records []feed.Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", schema.Feed, err)
		}
		rec := make(feed.Record, len(header))
		for i, h := range header {
			if h == "" || i >= len(row) {
				continue
			}
			rec[h] = row[i]
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadParkRides reads the park-and-ride history. Names are cleaned with the rewrite
// table and parks listed as excluded are skipped.
func ReadParkRides(r io.Reader, tables *rules.Tables) ([]models.ParkRideReading, normalize.Report, error) {
	records, err := readCSV(r, parkRideSchema)
	if err != nil {
		return nil, normalize.Report{Feed: parkRideSchema.Feed}, err
	}
	batch, err := normalize.Apply(records, parkRideSchema)
	if err != nil {
		return nil, batch.Report, err
	}

	out := make([]models.ParkRideReading, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		out = append(out, models.ParkRideReading{
			Timestamp: row.Time("timestamp"),
			ID:        row.Int("id"),
			Name:      row.String("nom"),
			Capacity:  int(row.Int("capacite")),
			Available: int(row.Int("nb_tot_place_dispo")),
			Lat:       row.Float("lat"),
			Lng:       row.Float("lng"),
		})
	}
	return CleanParkRides(out, tables), batch.Report, nil
}

// CleanParkRides rewrites park names with the rule tables and drops excluded parks.
// The input slice is reused.
func CleanParkRides(readings []models.ParkRideReading, tables *rules.Tables) []models.ParkRideReading {
	out := readings[:0]
	for _, r := range readings {
		r.Name = tables.ParkName(r.Name)
		if tables.ParkExcluded(r.Name) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ReadBikes reads the Vélo'v history.
func ReadBikes(r io.Reader) ([]models.BikeReading, normalize.Report, error) {
	records, err := readCSV(r, bikeSchema)
	if err != nil {
		return nil, normalize.Report{Feed: bikeSchema.Feed}, err
	}
	batch, err := normalize.Apply(records, bikeSchema)
	if err != nil {
		return nil, batch.Report, err
	}

	out := make([]models.BikeReading, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		out = append(out, models.BikeReading{
			Timestamp:           row.Time("timestamp"),
			Number:              int(row.Int("number")),
			Name:                row.String("name"),
			Commune:             row.String("commune"),
			BikeStands:          int(row.Int("bike_stands")),
			AvailableBikeStands: int(row.Int("available_bike_stands")),
			Lat:                 row.Float("lat"),
			Lng:                 row.Float("lng"),
		})
	}
	return out, batch.Report, nil
}
