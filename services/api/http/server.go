package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/aggregate"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/session"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/views"
	"github.com/02loveslollipop/lyon-transit-viewer/services/api/config"
)

const (
	sessionHeader = "X-Session-ID"
	sessionKey    = "session"

	// Placeholder shown instead of a chart when a selection has no usable data.
	dataUnavailableText = "Données non disponibles"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg      config.Config
	sessions *session.Store
	tables   *rules.Tables
	database Pinger
	engine   *gin.Engine
}

// New constructs a server with routes and middleware. database may be nil when
// the historical readings come from files.
func New(cfg config.Config, sessions *session.Store, tables *rules.Tables, database Pinger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	if cfg.BearerToken != "" {
		engine.Use(bearerAuthMiddleware(cfg.BearerToken))
	}

	server := &Server{cfg: cfg, sessions: sessions, tables: tables, database: database, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.health)

	s.registerV1Routes()
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{"status": "ok", "sessions": s.sessions.Len()}
	if s.database == nil {
		c.JSON(http.StatusOK, body)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.database.Ping(ctx); err != nil {
		body["status"] = "degraded"
		body["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["database"] = "ok"
	c.JSON(http.StatusOK, body)
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Next()
			return
		}
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+sessionHeader)
		c.Header("Access-Control-Expose-Headers", sessionHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func apiVersionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-API-Version", "v1")
		c.Next()
	}
}

// sessionMiddleware attaches the visitor's snapshot to the request. Unknown or
// missing ids get a new session whose id is echoed back.
func sessionMiddleware(store *session.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, created := store.Get(c.GetHeader(sessionHeader))
		c.Header(sessionHeader, snap.ID)
		c.Set(sessionKey, snap)
		if created {
			c.Header("X-Session-Created", "true")
		}
		c.Next()
	}
}

func snapshotOf(c *gin.Context) *session.Snapshot {
	return c.MustGet(sessionKey).(*session.Snapshot)
}

// respondError maps pipeline and view errors onto HTTP answers. A selection
// without data is not an error: it answers the placeholder payload.
func respondError(c *gin.Context, err error) {
	var fetchErr *feed.FetchError
	switch {
	case errors.Is(err, aggregate.ErrDataUnavailable):
		c.JSON(http.StatusOK, gin.H{
			"data": nil,
			"meta": gin.H{"available": false, "message": dataUnavailableText},
		})
	case errors.Is(err, views.ErrUnknownDay):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, views.ErrUnknownLine):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case feed.IsAuth(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "kind": "auth"})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "kind": "fetch"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
