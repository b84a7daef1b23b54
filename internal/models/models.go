package models

import (
	"time"

	"github.com/paulmach/orb"
)

// StationStatus is the normalized operating status of a bike-share station.
type StationStatus string

const (
	StatusOpen    StationStatus = "OPEN"
	StatusClosed  StationStatus = "CLOSED"
	StatusUnknown StationStatus = "UNKNOWN"
)

// BikeStation is one row of the realtime Vélo'v availability feed.
type BikeStation struct {
	Timestamp           time.Time     `json:"timestamp"`
	Number              *int          `json:"number,omitempty"`
	Name                string        `json:"name"`
	Address             string        `json:"address"`
	Commune             string        `json:"commune,omitempty"`
	Available           bool          `json:"availability"`
	Status              StationStatus `json:"status"`
	BikeStands          int           `json:"bike_stands"`
	AvailableBikeStands int           `json:"available_bike_stands"`
	AvailableBikes      int           `json:"available_bikes"`
	Lat                 float64       `json:"lat"`
	Lng                 float64       `json:"lng"`
}

// Passage is a tram arrival prediction at a stop.
type Passage struct {
	Timestamp time.Time `json:"timestamp"`
	Line      string    `json:"ligne"`
	StopID    int64     `json:"id"`
	Direction string    `json:"direction"`
	Delay     string    `json:"delaipassage"`
	PassingAt time.Time `json:"heurepassage"`
}

// Stop is a network stop point with its position.
type Stop struct {
	ID      int64   `json:"id"`
	Name    string  `json:"nom"`
	Service string  `json:"desserte,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// LineTrace is one segment geometry of a transit line.
type LineTrace struct {
	Code        string       `json:"code_ligne"`
	Line        string       `json:"ligne"`
	Family      string       `json:"famille_transport"`
	Direction   string       `json:"sens,omitempty"`
	Origin      string       `json:"nom_origine"`
	Destination string       `json:"nom_destination"`
	Geometry    orb.Geometry `json:"-"`
}

// ParkRideReading is one occupancy reading of a park-and-ride facility.
type ParkRideReading struct {
	Timestamp time.Time `json:"timestamp"`
	ID        int64     `json:"id"`
	Name      string    `json:"nom"`
	Capacity  int       `json:"capacite"`
	Available int       `json:"nb_tot_place_dispo"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
}

// BikeReading is one archived availability reading of a bike-share station.
type BikeReading struct {
	Timestamp           time.Time `json:"timestamp"`
	Number              int       `json:"number"`
	Name                string    `json:"name"`
	Commune             string    `json:"commune"`
	BikeStands          int       `json:"bike_stands"`
	AvailableBikeStands int       `json:"available_bike_stands"`
	Lat                 float64   `json:"lat"`
	Lng                 float64   `json:"lng"`
}
