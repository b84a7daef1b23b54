package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/views"
)

// handleV1Network returns the bus, tram and metro line traces
// GET /api/v1/network
func (s *Server) handleV1Network(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*s.cfg.FetchTimeout+5*time.Second)
	defer cancel()

	traces, err := snapshotOf(c).Network(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	m := views.NetworkMap(traces, s.tables)
	layers := gin.H{}
	for _, l := range m.Layers {
		layers[l.Name] = len(l.Features.Features)
	}
	c.JSON(http.StatusOK, gin.H{
		"data": m,
		"meta": gin.H{
			"count":  len(traces),
			"layers": layers,
		},
	})
}
