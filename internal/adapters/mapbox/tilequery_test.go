package mapbox_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hussainzaidi99/OSMAPI/internal/adapters/mapbox"
	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
)

const polygonResponse = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "id": 1,
    "geometry": {
      "type": "Polygon",
      "coordinates": [[[-2.9351, 43.2629], [-2.9349, 43.2629], [-2.9349, 43.2631], [-2.9351, 43.2631], [-2.9351, 43.2629]]]
    },
    "properties": {"tilequery": {"distance": 0, "geometry": "polygon", "layer": "building"}}
  }]
}`

const multiPolygonResponse = `{
  "type": "FeatureCollection",
  "features": [{
    "type": "Feature",
    "geometry": {
      "type": "MultiPolygon",
      "coordinates": [
        [[[1, 2], [3, 2], [3, 4], [1, 2]]],
        [[[10, 20], [30, 20], [30, 40], [10, 20]]]
      ]
    },
    "properties": {}
  }]
}`

const pointResponse = `{
  "type": "FeatureCollection",
  "features": [{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 2]}, "properties": {}}]
}`

func serve(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTilequery_Polygon(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(polygonResponse))
	}))
	defer srv.Close()

	tq, err := mapbox.New("tok", srv.URL, 10, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceMapbox, tq.Name())

	fp, err := tq.Footprint(context.Background(), domain.GeoPoint{Lat: 43.263, Lon: -2.935})
	require.NoError(t, err)

	assert.Equal(t, "/v4/mapbox.mapbox-streets-v8/tilequery/-2.935,43.263.json", gotPath)
	assert.Contains(t, gotQuery, "layers=building")
	assert.Contains(t, gotQuery, "radius=10")
	assert.Contains(t, gotQuery, "limit=1")
	assert.Contains(t, gotQuery, "access_token=tok")

	require.Len(t, fp, 5)
	assert.Equal(t, 43.2629, fp[0].Lat)
	assert.Equal(t, -2.9351, fp[0].Lon)
}

func TestTilequery_MultiPolygonUsesFirstOuterRing(t *testing.T) {
	srv := serve(t, multiPolygonResponse, http.StatusOK)
	tq, err := mapbox.New("tok", srv.URL, 0, time.Second)
	require.NoError(t, err)

	fp, err := tq.Footprint(context.Background(), domain.GeoPoint{})
	require.NoError(t, err)
	require.Len(t, fp, 4)
	assert.Equal(t, 2.0, fp[0].Lat)
	assert.Equal(t, 1.0, fp[0].Lon)
}

func TestTilequery_Absent(t *testing.T) {
	cases := map[string]string{
		"no features": `{"type":"FeatureCollection","features":[]}`,
		"point":       pointResponse,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := serve(t, body, http.StatusOK)
			tq, err := mapbox.New("tok", srv.URL, 0, time.Second)
			require.NoError(t, err)

			fp, err := tq.Footprint(context.Background(), domain.GeoPoint{})
			require.NoError(t, err)
			assert.Nil(t, fp)
		})
	}
}

func TestTilequery_HTTPError(t *testing.T) {
	srv := serve(t, `{"message":"Not Authorized - Invalid Token"}`, http.StatusUnauthorized)
	tq, err := mapbox.New("tok", srv.URL, 0, time.Second)
	require.NoError(t, err)

	_, err = tq.Footprint(context.Background(), domain.GeoPoint{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNew_RequiresToken(t *testing.T) {
	_, err := mapbox.New("", "", 0, time.Second)
	assert.ErrorIs(t, err, mapbox.ErrMissingToken)
}
