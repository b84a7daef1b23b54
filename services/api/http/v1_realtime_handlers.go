package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/session"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/views"
)

// handleV1RealtimeBikes returns the Vélo'v availability map
// GET /api/v1/realtime/bikes
func (s *Server) handleV1RealtimeBikes(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.FetchTimeout+5*time.Second)
	defer cancel()

	view, err := snapshotOf(c).Bikes(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": views.BikeMap(view, s.tables.Bikes.LowBikes),
		"meta": gin.H{
			"count":        len(view.Stations),
			"dropped":      view.Report.Dropped,
			"refreshed_at": view.At.Format(time.RFC3339),
		},
	})
}

type tramQuery struct {
	Line     string `form:"line" binding:"omitempty,max=8"`
	Terminus string `form:"terminus" binding:"omitempty,max=128"`
}

// handleV1RealtimeTrams returns the lines and termini of the snapshot and, when a
// line is selected, its next passages towards the terminus (first one by default)
// GET /api/v1/realtime/trams?line=T1&terminus=IUT%20Feyssine
func (s *Server) handleV1RealtimeTrams(c *gin.Context) {
	var q tramQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.renderTrams(c, snapshotOf(c), q)
}

// handleV1RefreshTrams drops the cached passages and traces of the session, then
// answers like handleV1RealtimeTrams
// POST /api/v1/realtime/trams/refresh
func (s *Server) handleV1RefreshTrams(c *gin.Context) {
	var q tramQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snap := snapshotOf(c)
	snap.Invalidate(session.ViewTramPassages, session.ViewTramTraces)
	s.renderTrams(c, snap, q)
}

func (s *Server) renderTrams(c *gin.Context, snap *session.Snapshot, q tramQuery) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*s.cfg.FetchTimeout+5*time.Second)
	defer cancel()

	view, err := snap.Trams(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	choices := views.NewTramChoices(view)
	meta := gin.H{
		"count":        len(view.Passages),
		"unmatched":    view.Join.UnmatchedKept,
		"refreshed_at": view.At.Format(time.RFC3339),
	}

	if q.Line == "" {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"choices": choices}, "meta": meta})
		return
	}

	terminus := q.Terminus
	if terminus == "" && len(choices.Termini[q.Line]) > 0 {
		terminus = choices.Termini[q.Line][0]
	}

	traces, err := snap.TramTraces(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	m, err := views.TramMap(view, traces, q.Line, terminus, s.tables)
	if err != nil {
		respondError(c, err)
		return
	}

	meta["line"] = q.Line
	meta["terminus"] = terminus
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"choices": choices, "map": m},
		"meta": meta,
	})
}
