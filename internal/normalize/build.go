package normalize

import (
	"time"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
)

// BikeStations normalizes the Vélo'v feed and stamps every station with the request time.
func BikeStations(records []feed.Record, at time.Time) ([]models.BikeStation, Report, error) {
	batch, err := Apply(records, BikeStationSchema)
	if err != nil {
		return nil, batch.Report, err
	}
	ts := RequestTime(at)
	out := make([]models.BikeStation, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		st := models.BikeStation{
			Timestamp:           ts,
			Name:                row.String("name"),
			Address:             row.String("address"),
			Commune:             row.String("commune"),
			Available:           row.Bool("availability"),
			Status:              models.StationStatus(row.String("status")),
			BikeStands:          int(row.Int("bike_stands")),
			AvailableBikeStands: int(row.Int("available_bike_stands")),
			AvailableBikes:      int(row.Int("available_bikes")),
			Lat:                 row.Float("lat"),
			Lng:                 row.Float("lng"),
		}
		if n := row.IntPtr("number"); n != nil {
			num := int(*n)
			st.Number = &num
		}
		out = append(out, st)
	}
	return out, batch.Report, nil
}

// Passages normalizes the tram arrival predictions.
func Passages(records []feed.Record, at time.Time) ([]models.Passage, Report, error) {
	batch, err := Apply(records, PassageSchema)
	if err != nil {
		return nil, batch.Report, err
	}
	ts := RequestTime(at)
	out := make([]models.Passage, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		out = append(out, models.Passage{
			Timestamp: ts,
			Line:      row.String("ligne"),
			StopID:    row.Int("id"),
			Direction: row.String("direction"),
			Delay:     row.String("delaipassage"),
			PassingAt: row.Time("heurepassage"),
		})
	}
	return out, batch.Report, nil
}

func Stops(records []feed.Record) ([]models.Stop, Report, error) {
	batch, err := Apply(records, StopSchema)
	if err != nil {
		return nil, batch.Report, err
	}
	out := make([]models.Stop, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		p := row.Point("position")
		out = append(out, models.Stop{
			ID:      row.Int("id"),
			Name:    row.String("nom"),
			Service: row.String("desserte"),
			Lat:     p.Lat(),
			Lng:     p.Lon(),
		})
	}
	return out, batch.Report, nil
}

func LineTraces(records []feed.Record) ([]models.LineTrace, Report, error) {
	batch, err := Apply(records, LineTraceSchema)
	if err != nil {
		return nil, batch.Report, err
	}
	out := make([]models.LineTrace, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		out = append(out, models.LineTrace{
			Code:        row.String("code_ligne"),
			Line:        row.String("ligne"),
			Family:      row.String("famille_transport"),
			Direction:   row.String("sens"),
			Origin:      row.String("nom_origine"),
			Destination: row.String("nom_destination"),
			Geometry:    row.Geometry("geometry"),
		})
	}
	return out, batch.Report, nil
}

// ParkRides normalizes the realtime park-and-ride layer. Readings without a
// last_update value are stamped with at.
func ParkRides(records []feed.Record, at time.Time) ([]models.ParkRideReading, Report, error) {
	batch, err := Apply(records, ParkRideSchema)
	if err != nil {
		return nil, batch.Report, err
	}
	ts := RequestTime(at)
	out := make([]models.ParkRideReading, 0, len(batch.Rows))
	for _, row := range batch.Rows {
		p := row.Point("position")
		r := models.ParkRideReading{
			Timestamp: ts,
			ID:        row.Int("id"),
			Name:      row.String("nom"),
			Capacity:  int(row.Int("capacite")),
			Available: int(row.Int("nb_tot_place_dispo")),
			Lat:       p.Lat(),
			Lng:       p.Lon(),
		}
		if t := row.Time("last_update"); !t.IsZero() {
			r.Timestamp = t.Truncate(time.Second)
		}
		out = append(out, r)
	}
	return out, batch.Report, nil
}
