package utils

import (
	"fmt"
	"time"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/geo"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	watchermodels "github.com/02loveslollipop/lyon-transit-viewer/services/watcher/internal/models"
)

// BuildBikeReadings converts realtime stations into archive rows. Stations without
// a number, without data or with invalid coordinates are skipped.
func BuildBikeReadings(stations []models.BikeStation) []models.BikeReading {
	rows := make([]models.BikeReading, 0, len(stations))
	for _, st := range stations {
		if st.Number == nil || !st.Available || !geo.Valid(st.Lat, st.Lng) {
			continue
		}
		rows = append(rows, models.BikeReading{
			Timestamp:           st.Timestamp,
			Number:              *st.Number,
			Name:                st.Name,
			Commune:             st.Commune,
			BikeStands:          st.BikeStands,
			AvailableBikeStands: st.AvailableBikeStands,
			Lat:                 st.Lat,
			Lng:                 st.Lng,
		})
	}
	return rows
}

// BuildParkRideReadings keeps the park readings that can be archived: a known id
// and a positive capacity.
func BuildParkRideReadings(readings []models.ParkRideReading) []models.ParkRideReading {
	rows := make([]models.ParkRideReading, 0, len(readings))
	for _, r := range readings {
		if r.ID == 0 || r.Capacity <= 0 {
			continue
		}
		rows = append(rows, r)
	}
	return rows
}

// BikeNumbers extracts station numbers.
func BikeNumbers(rows []models.BikeReading) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, int64(row.Number))
	}
	return ids
}

// ParkIDs extracts park identifiers.
func ParkIDs(rows []models.ParkRideReading) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

// isNew keeps a reading when nothing is archived for it, when the minimum interval
// has elapsed, or when its occupancy changed.
func isNew(prev watchermodels.LastReading, ok bool, ts time.Time, capacity, available int, minInterval time.Duration) bool {
	if !ok {
		return true
	}
	if !ts.After(prev.TS) {
		return false
	}
	return ts.Sub(prev.TS) >= minInterval || prev.Changed(capacity, available)
}

// FilterNewBikeReadings selects bike readings that should be inserted.
func FilterNewBikeReadings(
	candidates []models.BikeReading,
	last map[int64]watchermodels.LastReading,
	minInterval time.Duration,
) []models.BikeReading {
	out := make([]models.BikeReading, 0, len(candidates))
	for _, cand := range candidates {
		prev, ok := last[int64(cand.Number)]
		if isNew(prev, ok, cand.Timestamp, cand.BikeStands, cand.AvailableBikeStands, minInterval) {
			out = append(out, cand)
		}
	}
	return out
}

// FilterNewParkRideReadings selects park readings that should be inserted.
func FilterNewParkRideReadings(
	candidates []models.ParkRideReading,
	last map[int64]watchermodels.LastReading,
	minInterval time.Duration,
) []models.ParkRideReading {
	out := make([]models.ParkRideReading, 0, len(candidates))
	for _, cand := range candidates {
		prev, ok := last[cand.ID]
		if isNew(prev, ok, cand.Timestamp, cand.Capacity, cand.Available, minInterval) {
			out = append(out, cand)
		}
	}
	return out
}

// OccupancyString prints a reading for dry-run logs.
func OccupancyString(capacity, available int) string {
	if capacity <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%d/%d free (%.1f%% full)", available, capacity, float64(capacity-available)/float64(capacity)*100)
}
