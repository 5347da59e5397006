package overpass_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hussainzaidi99/OSMAPI/internal/adapters/overpass"
	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
)

const twoWays = `{"elements":[
  {"type":"way","id":1,"geometry":[{"lat":1,"lon":1},{"lat":1,"lon":2},{"lat":2,"lon":2},{"lat":1,"lon":1}]},
  {"type":"way","id":2,"geometry":[{"lat":5,"lon":5},{"lat":5,"lon":6},{"lat":6,"lon":6},{"lat":6,"lon":5},{"lat":5,"lon":5}]},
  {"type":"way","id":3,"geometry":[{"lat":9,"lon":9},{"lat":9,"lon":8},{"lat":8,"lon":8},{"lat":8,"lon":9},{"lat":9,"lon":9}]}
]}`

func TestClient_PicksMostVertices(t *testing.T) {
	var queries []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		queries = append(queries, r.PostForm.Get("data"))
		_, _ = w.Write([]byte(twoWays))
	}))
	defer srv.Close()

	c := overpass.New(srv.URL, nil, 5*time.Second)
	assert.Equal(t, domain.SourceOverpass, c.Name())

	fp, err := c.Footprint(context.Background(), domain.GeoPoint{Lat: 43.263, Lon: -2.935})
	require.NoError(t, err)

	require.Len(t, queries, 1)
	assert.Contains(t, queries[0], "way(around:5,43.2630000,-2.9350000)")
	assert.Contains(t, queries[0], `["building"]`)
	assert.Contains(t, queries[0], "out geom;")

	// ways 2 and 3 tie on vertex count; the first one wins
	require.Len(t, fp, 5)
	assert.Equal(t, 5.0, fp[0].Lat)
}

func TestClient_WidensRadius(t *testing.T) {
	var radii []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		q := r.PostForm.Get("data")
		radii = append(radii, q[strings.Index(q, "around:"):strings.Index(q, ",")])
		if strings.Contains(q, "around:30,") {
			_, _ = w.Write([]byte(twoWays))
			return
		}
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	fp, err := overpass.New(srv.URL, []int{5, 15, 30}, time.Second).
		Footprint(context.Background(), domain.GeoPoint{Lat: 1, Lon: 1})
	require.NoError(t, err)
	assert.Len(t, fp, 5)
	assert.Equal(t, []string{"around:5", "around:15", "around:30"}, radii)
}

func TestClient_NothingFound(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"elements":[{"type":"way","id":7}]}`))
	}))
	defer srv.Close()

	fp, err := overpass.New(srv.URL, []int{5, 15}, time.Second).
		Footprint(context.Background(), domain.GeoPoint{})
	require.NoError(t, err)
	assert.Nil(t, fp)
	assert.Equal(t, 2, calls)
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := overpass.New(srv.URL, nil, time.Second).Footprint(context.Background(), domain.GeoPoint{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
