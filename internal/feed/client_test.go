package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const velovPayload = `{
  "fields": ["number", "name"],
  "nb_results": 2,
  "values": [
    {"number": 2010, "name": "Confluent", "lat": "45.743", "lng": "4.815", "bike_stands": 10},
    {"number": 10063, "name": "Mairie du 4e", "lat": "45.777", "lng": "4.828", "bike_stands": 18}
  ]
}`

const stopsPayload = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {"type": "Point", "coordinates": [4.8357, 45.7597]},
      "properties": {"id": "30126", "nom": "St Priest Bel Air", "desserte": "T2:A"}
    }
  ]
}`

func TestFetchValuesEnvelope(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		fmt.Fprint(w, velovPayload)
	}))
	defer srv.Close()

	client := NewClient(srv.Client())
	records, err := client.Fetch(context.Background(), Endpoint{
		Name: "velov", URL: srv.URL + "/all.json", Envelope: EnvelopeValues, Paginate: true,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "maxfeatures=-1&start=1", query)
	assert.Equal(t, "Confluent", records[0]["name"])
	assert.Equal(t, json.Number("2010"), records[0]["number"])
}

func TestFetchFeaturesAreFlattened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, stopsPayload)
	}))
	defer srv.Close()

	records, err := NewClient(srv.Client()).Fetch(context.Background(), Endpoint{
		Name: "stops", URL: srv.URL, Envelope: EnvelopeFeatures,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "St Priest Bel Air", rec["properties.nom"])
	assert.Equal(t, "30126", rec["properties.id"])
	assert.Equal(t, "Point", rec["geometry.type"])
	assert.True(t, rec.Has("geometry.coordinates"))

	raw, ok := rec["geometry"].(json.RawMessage)
	require.True(t, ok)
	assert.JSONEq(t, `{"type": "Point", "coordinates": [4.8357, 45.7597]}`, string(raw))
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		auth   bool
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, err error) {
				var fetchErr *FetchError
				require.ErrorAs(t, err, &fetchErr)
				assert.Equal(t, http.StatusServiceUnavailable, fetchErr.Status)
			},
		},
		{
			name:   "rejected credentials",
			status: http.StatusUnauthorized,
			auth:   true,
			check: func(t *testing.T, err error) {
				var authErr *AuthError
				require.ErrorAs(t, err, &authErr)
				assert.Equal(t, http.StatusUnauthorized, authErr.Status)
				assert.True(t, IsAuth(err))
			},
		},
		{
			name:   "missing envelope",
			status: http.StatusOK,
			body:   `{"nb_results": 0}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedEnvelope)
			},
		},
		{
			name:   "envelope is not an array",
			status: http.StatusOK,
			body:   `{"values": {"a": 1}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedEnvelope)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   `<html>maintenance</html>`,
			check: func(t *testing.T, err error) {
				var fetchErr *FetchError
				require.ErrorAs(t, err, &fetchErr)
				assert.ErrorIs(t, err, ErrMalformedEnvelope)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			client := NewClient(srv.Client(), WithCredentials(Credentials{Username: "u", Password: "p"}))
			_, err := client.Fetch(context.Background(), Endpoint{
				Name: "feed", URL: srv.URL, Envelope: EnvelopeValues, Auth: tt.auth,
			})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestFetchSendsBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "lyon" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"values": []}`)
	}))
	defer srv.Close()

	ep := Endpoint{Name: "passages", URL: srv.URL, Envelope: EnvelopeValues, Auth: true}

	records, err := NewClient(srv.Client(), WithCredentials(Credentials{Username: "lyon", Password: "secret"})).
		Fetch(context.Background(), ep)
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = NewClient(srv.Client(), WithCredentials(Credentials{Username: "lyon", Password: "wrong"})).
		Fetch(context.Background(), ep)
	assert.True(t, IsAuth(err))
}

func TestFetchWithoutCredentialsNeverCallsServer(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client()).Fetch(context.Background(), Endpoint{
		Name: "passages", URL: srv.URL, Envelope: EnvelopeValues, Auth: true,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFetchRetryPolicy(t *testing.T) {
	newServer := func(failures int32, calls *int32) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(calls, 1) <= failures {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, velovPayload)
		}))
	}
	ep := Endpoint{Name: "velov", Envelope: EnvelopeValues}

	t.Run("no retry by default", func(t *testing.T) {
		var calls int32
		srv := newServer(1, &calls)
		defer srv.Close()
		ep.URL = srv.URL

		_, err := NewClient(srv.Client()).Fetch(context.Background(), ep)
		require.Error(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls int32
		srv := newServer(2, &calls)
		defer srv.Close()
		ep.URL = srv.URL

		client := NewClient(srv.Client(), WithRetry(RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond}))
		records, err := client.Fetch(context.Background(), ep)
		require.NoError(t, err)
		assert.Len(t, records, 2)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("auth errors are permanent", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		client := NewClient(srv.Client(),
			WithCredentials(Credentials{Username: "u", Password: "p"}),
			WithRetry(RetryPolicy{MaxRetries: 3, InitialInterval: time.Millisecond}))
		_, err := client.Fetch(context.Background(), Endpoint{Name: "passages", URL: srv.URL, Envelope: EnvelopeValues, Auth: true})

		var authErr *AuthError
		require.True(t, errors.As(err, &authErr))
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})
}

func TestFetchPaginates(t *testing.T) {
	total := 5
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		max, _ := strconv.Atoi(r.URL.Query().Get("maxfeatures"))
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		values := []map[string]int{}
		for i := start; i < start+max && i <= total; i++ {
			values = append(values, map[string]int{"number": i})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": values})
	}))
	defer srv.Close()

	records, err := NewClient(srv.Client()).Fetch(context.Background(), Endpoint{
		Name: "velov", URL: srv.URL, Envelope: EnvelopeValues, Paginate: true, PageSize: 2,
	})
	require.NoError(t, err)
	require.Len(t, records, total)
	assert.Equal(t, json.Number("5"), records[4]["number"])
}

func TestCatalogOverrides(t *testing.T) {
	env := map[string]string{"VELOV_URL": "http://localhost/velov.json"}
	c := DefaultCatalog().WithOverrides(func(k string) string { return env[k] })

	assert.Equal(t, "http://localhost/velov.json", c.Bikes.URL)
	assert.Equal(t, DefaultCatalog().Stops.URL, c.Stops.URL)
	assert.True(t, c.Passages.Auth)
}
