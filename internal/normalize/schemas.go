package normalize

import (
	"strings"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
)

// availabilityFlag reads the Vélo'v availability colour. Blank and "Gris" mean no data.
func availabilityFlag(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	s, err := TrimmedString(v)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(s.(string)) {
	case "", "gris", "false", "0":
		return false, nil
	default:
		return true, nil
	}
}

var stationStatus = Enum(map[string]string{
	"OPEN":   string(models.StatusOpen),
	"CLOSED": string(models.StatusClosed),
}, string(models.StatusUnknown))

// BikeStationSchema describes the realtime Vélo'v feed.
var BikeStationSchema = Schema{
	Feed: "velov",
	Fields: []Field{
		{Source: "number", Target: "number", Coerce: Int},
		{Source: "name", Target: "name", Coerce: Default("", TrimmedString)},
		{Source: "address", Target: "address", Coerce: Default("", TrimmedString)},
		{Source: "commune", Target: "commune", Coerce: Default("", TrimmedString)},
		{Source: "availability", Target: "availability", Coerce: Default(false, availabilityFlag)},
		{Source: "status", Target: "status", Coerce: Default(string(models.StatusUnknown), stationStatus)},
		{Source: "bike_stands", Target: "bike_stands", Required: true, Coerce: Int},
		{Source: "available_bike_stands", Target: "available_bike_stands", Required: true, Coerce: Int},
		{Source: "available_bikes", Target: "available_bikes", Required: true, Coerce: Int},
		{Source: "lat", Target: "lat", Required: true, Coerce: Latitude},
		{Source: "lng", Target: "lng", Required: true, Coerce: Longitude},
	},
}

// PassageSchema describes the tram arrival predictions feed.
var PassageSchema = Schema{
	Feed: "passages",
	Fields: []Field{
		{Source: "ligne", Target: "ligne", Required: true, Coerce: TrimmedString},
		{Source: "id", Target: "id", Required: true, Coerce: Int},
		{Source: "direction", Target: "direction", Required: true, Coerce: TrimmedString},
		{Source: "delaipassage", Target: "delaipassage", Coerce: Default("", Remap(map[string]string{"Proche": "0 min"}))},
		{Source: "heurepassage", Target: "heurepassage", Required: true, Coerce: Time},
	},
}

// StopSchema describes the stop points GeoJSON layer.
var StopSchema = Schema{
	Feed: "stops",
	Fields: []Field{
		{Source: "properties.id", Target: "id", Required: true, Coerce: Int},
		{Source: "properties.nom", Target: "nom", Required: true, Coerce: TrimmedString},
		{Source: "properties.desserte", Target: "desserte", Coerce: Default("", TrimmedString)},
		{Source: "geometry.coordinates", Target: "position", Required: true, Coerce: Position},
	},
}

// LineTraceSchema describes the tram, bus and metro line geometries.
var LineTraceSchema = Schema{
	Feed: "traces",
	Fields: []Field{
		{Source: "properties.code_ligne", Target: "code_ligne", Required: true, Coerce: TrimmedString},
		{Source: "properties.ligne", Target: "ligne", Required: true, Coerce: TrimmedString},
		{Source: "properties.famille_transport", Target: "famille_transport", Coerce: Default("", TrimmedString)},
		{Source: "properties.sens", Target: "sens", Coerce: Default("", TrimmedString)},
		{Source: "properties.nom_origine", Target: "nom_origine", Coerce: Default("", TrimmedString)},
		{Source: "properties.nom_destination", Target: "nom_destination", Coerce: Default("", TrimmedString)},
		{Source: "geometry", Target: "geometry", Required: true, Coerce: Geometry},
	},
}

// ParkRideSchema describes the realtime park-and-ride occupancy layer.
var ParkRideSchema = Schema{
	Feed: "park_ride",
	Fields: []Field{
		{Source: "properties.id", Target: "id", Required: true, Coerce: Int},
		{Source: "properties.nom", Target: "nom", Required: true, Coerce: TrimmedString},
		{Source: "properties.capacite", Target: "capacite", Required: true, Coerce: Int},
		{Source: "properties.nb_tot_place_dispo", Target: "nb_tot_place_dispo", Required: true, Coerce: Int},
		{Source: "properties.last_update", Target: "last_update", Coerce: Time},
		{Source: "geometry.coordinates", Target: "position", Required: true, Coerce: Position},
	},
}
