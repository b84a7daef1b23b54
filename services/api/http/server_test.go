package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/lyon-transit-viewer/internal/aggregate"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/feed"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/models"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/pipeline"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/rules"
	"github.com/02loveslollipop/lyon-transit-viewer/internal/session"
	"github.com/02loveslollipop/lyon-transit-viewer/services/api/config"
)

var at = time.Date(2022, 3, 5, 14, 30, 0, 0, time.UTC)

type fakeLoader struct {
	passagesErr error
	tramLoads   int
}

func (f *fakeLoader) BikeAvailability(context.Context) (*pipeline.BikeView, error) {
	return &pipeline.BikeView{At: at, Stations: []models.BikeStation{
		{Name: "Confluent", Status: models.StatusOpen, Available: true, AvailableBikes: 5, Lat: 45.74, Lng: 4.81},
	}}, nil
}

func (f *fakeLoader) TramPassages(context.Context) (*pipeline.TramView, error) {
	f.tramLoads++
	if f.passagesErr != nil {
		return nil, f.passagesErr
	}
	return &pipeline.TramView{At: at, Passages: []pipeline.TramPassage{
		{
			Passage:  models.Passage{Line: "T1", Direction: "IUT Feyssine", Delay: "2 min", Timestamp: at},
			StopName: "Perrache", Lat: 45.748, Lng: 4.826, Located: true,
		},
	}}, nil
}

func (f *fakeLoader) TramTraces(context.Context) ([]models.LineTrace, error) {
	return []models.LineTrace{{Line: "T1", Code: "T1", Family: "TRA", Geometry: orb.LineString{{4.82, 45.74}, {4.87, 45.78}}}}, nil
}

func (f *fakeLoader) NetworkTraces(ctx context.Context) ([]models.LineTrace, error) {
	return f.TramTraces(ctx)
}

func rate(v float64) *float64 { return &v }

func (f *fakeLoader) ParkRideHistory(context.Context) ([]aggregate.Observation, error) {
	free := 10
	return []aggregate.Observation{
		{Entity: "Vaise", At: at, Value: rate(40), Available: &free},
		{Entity: "Meyzieu les Panettes", At: at, Value: rate(80), Available: &free},
	}, nil
}

func (f *fakeLoader) BikeHistory(context.Context) ([]aggregate.Observation, error) {
	free := 4
	return []aggregate.Observation{
		{Entity: "Confluent", Area: "Lyon 2 ème", At: at, Value: rate(60), Available: &free},
	}, nil
}

func newTestServer(t *testing.T, loader session.Loader, cfg config.Config) *Server {
	t.Helper()
	return newTestServerWithDatabase(t, loader, cfg, nil)
}

func newTestServerWithDatabase(t *testing.T, loader session.Loader, cfg config.Config, database Pinger) *Server {
	t.Helper()
	tables, err := rules.Default()
	require.NoError(t, err)
	if cfg.FetchTimeout == 0 {
		cfg.FetchTimeout = time.Second
	}
	return New(cfg, session.NewStore(loader, 10, time.Minute), tables, database)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error string          `json:"error"`
	Kind  string          `json:"kind"`
}

func do(t *testing.T, srv *Server, method, target, sessionID string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{}, config.Config{BearerToken: "secret"})
	rec, _ := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestHealthzChecksDatabase(t *testing.T) {
	srv := newTestServerWithDatabase(t, &fakeLoader{}, config.Config{}, fakePinger{})
	rec, _ := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	srv = newTestServerWithDatabase(t, &fakeLoader{}, config.Config{}, fakePinger{err: errors.New("connection refused")})
	rec, _ = do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestBearerToken(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{}, config.Config{BearerToken: "secret"})
	rec, _ := do(t, srv, http.MethodGet, "/api/v1/realtime/bikes", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/realtime/bikes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionIsCreatedAndReused(t *testing.T) {
	loader := &fakeLoader{}
	srv := newTestServer(t, loader, config.Config{})

	rec, _ := do(t, srv, http.MethodGet, "/api/v1/realtime/trams", "")
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Header().Get(sessionHeader)
	require.NotEmpty(t, id)
	assert.Equal(t, "v1", rec.Header().Get("X-API-Version"))

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/realtime/trams", id)
	assert.Equal(t, id, rec.Header().Get(sessionHeader))
	assert.Equal(t, 1, loader.tramLoads)

	rec, _ = do(t, srv, http.MethodPost, "/api/v1/realtime/trams/refresh", id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, loader.tramLoads)
}

func TestRealtimeBikes(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{}, config.Config{})
	rec, env := do(t, srv, http.MethodGet, "/api/v1/realtime/bikes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, env.Meta["count"])
	assert.Contains(t, string(env.Data), `"marker":"ok"`)
}

func TestRealtimeTrams(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{}, config.Config{})

	rec, env := do(t, srv, http.MethodGet, "/api/v1/realtime/trams?line=T1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "IUT Feyssine", env.Meta["terminus"])
	assert.Contains(t, string(env.Data), `"title":"Perrache"`)

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/realtime/trams?line=T9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedFailuresAreReportedPerView(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind string
	}{
		{name: "credentials", err: &feed.AuthError{Feed: "passages", Status: http.StatusUnauthorized}, kind: "auth"},
		{name: "upstream", err: &feed.FetchError{Feed: "passages", Status: http.StatusServiceUnavailable}, kind: "fetch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeLoader{passagesErr: tt.err}, config.Config{})

			rec, env := do(t, srv, http.MethodGet, "/api/v1/realtime/trams", "")
			assert.Equal(t, http.StatusBadGateway, rec.Code)
			assert.Equal(t, tt.kind, env.Kind)

			rec, _ = do(t, srv, http.MethodGet, "/api/v1/realtime/bikes", "")
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestNetwork(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{}, config.Config{})
	rec, env := do(t, srv, http.MethodGet, "/api/v1/network", "")
	require.Equal(t, http.StatusOK, rec.Code)
	layers, ok := env.Meta["layers"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, layers["Tramway"])
	assert.EqualValues(t, 0, layers["Bus"])
}

func TestParkRideTrends(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{}, config.Config{})

	rec, env := do(t, srv, http.MethodGet, "/api/v1/trends/park-ride?day=Samedi", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"kind":"bar"`)

	rec, env = do(t, srv, http.MethodGet, "/api/v1/trends/park-ride?day=Samedi&park=Meyzieu+les+Panettes", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(env.Data))
	assert.Equal(t, dataUnavailableText, env.Meta["message"])

	rec, env = do(t, srv, http.MethodGet, "/api/v1/trends/park-ride?day=Dimanche", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", string(env.Data))
	assert.Equal(t, false, env.Meta["available"])

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/trends/park-ride?day=Saturday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBikeTrends(t *testing.T) {
	srv := newTestServer(t, &fakeLoader{}, config.Config{})

	q := url.Values{"day": {"Samedi"}, "commune": {"Lyon 2 ème"}, "station": {"Confluent"}}
	rec, env := do(t, srv, http.MethodGet, "/api/v1/trends/bikes?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"kind":"line"`)

	q.Set("station", "Inconnue")
	rec, env = do(t, srv, http.MethodGet, "/api/v1/trends/bikes?"+q.Encode(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, env.Meta["available"])

	rec, _ = do(t, srv, http.MethodGet, "/api/v1/trends/bikes?day=Samedi&station=Confluent", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
