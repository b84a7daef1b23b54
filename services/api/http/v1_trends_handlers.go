package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/views"
)

const weekdays = "Lundi Mardi Mercredi Jeudi Vendredi Samedi Dimanche"

type parkRideQuery struct {
	Day  string `form:"day" binding:"required,oneof=Lundi Mardi Mercredi Jeudi Vendredi Samedi Dimanche"`
	Park string `form:"park"`
}

type bikeTrendQuery struct {
	Day     string `form:"day" binding:"required,oneof=Lundi Mardi Mercredi Jeudi Vendredi Samedi Dimanche"`
	Commune string `form:"commune"`
	Station string `form:"station"`
}

func badQuery(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "days": weekdays})
}

// handleV1ParkRideTrends returns the occupancy chart of every park, or of one park
// GET /api/v1/trends/park-ride?day=Samedi&park=Vaise
func (s *Server) handleV1ParkRideTrends(c *gin.Context) {
	var q parkRideQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badQuery(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	obs, err := snapshotOf(c).ParkRideHistory(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	closures := s.tables.ClosureTable()
	var chart views.ChartSpec
	if q.Park == "" {
		chart, err = views.ParkRideAll(obs, q.Day, closures)
	} else {
		chart, err = views.ParkRide(obs, q.Park, q.Day, closures)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": chart,
		"meta": gin.H{
			"day":          q.Day,
			"park":         q.Park,
			"observations": len(obs),
			"choices":      views.NewChoices(obs),
		},
	})
}

// handleV1BikeTrends returns the occupancy chart of every commune, of the stations
// of one commune, or of one station
// GET /api/v1/trends/bikes?day=Mardi&commune=Lyon%204%20%C3%A8me&station=Mairie%20du%204e
func (s *Server) handleV1BikeTrends(c *gin.Context) {
	var q bikeTrendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badQuery(c, err)
		return
	}
	if q.Station != "" && q.Commune == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "station requires commune"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	obs, err := snapshotOf(c).BikeHistory(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	var chart views.ChartSpec
	switch {
	case q.Station != "":
		chart, err = views.BikeStation(obs, q.Day, q.Commune, q.Station)
	case q.Commune != "":
		chart, err = views.BikeCommune(obs, q.Day, q.Commune)
	default:
		chart, err = views.BikeCommunes(obs, q.Day)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": chart,
		"meta": gin.H{
			"day":          q.Day,
			"commune":      q.Commune,
			"station":      q.Station,
			"observations": len(obs),
			"choices":      views.NewChoices(obs),
		},
	})
}
