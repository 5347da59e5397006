package mapbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

const (
	DefaultBaseURL = "https://api.mapbox.com"
	DefaultRadius  = 10
	tileset        = "mapbox.mapbox-streets-v8"
)

// ErrMissingToken is returned by New when no access token is configured.
var ErrMissingToken = errors.New("mapbox: access token is required")

// Tilequery implements ports.FootprintProvider with the Mapbox Tilequery API
// against the building layer of Mapbox Streets.
type Tilequery struct {
	client  *http.Client
	baseURL string
	token   string
	radius  int
}

// New creates a Tilequery client. radius is the search radius in meters.
func New(token, baseURL string, radius int, timeout time.Duration) (*Tilequery, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Tilequery{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		radius:  radius,
	}, nil
}

func (t *Tilequery) Name() string { return domain.SourceMapbox }

// Footprint returns the outer ring of the closest building polygon, or nil when
// the tileset has no building within the radius.
func (t *Tilequery) Footprint(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error) {
	q := url.Values{}
	q.Set("layers", "building")
	q.Set("radius", strconv.Itoa(t.radius))
	q.Set("limit", "1")
	q.Set("access_token", t.token)

	u := fmt.Sprintf("%s/v4/%s/tilequery/%s,%s.json?%s", t.baseURL, tileset,
		strconv.FormatFloat(p.Lon, 'f', -1, 64), strconv.FormatFloat(p.Lat, 'f', -1, 64), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tilequery request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tilequery: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tilequery: HTTP %d", resp.StatusCode)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode tilequery: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, nil
	}

	switch g := fc.Features[0].Geometry.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			return nil, nil
		}
		return ringToFootprint(g[0]), nil
	case orb.MultiPolygon:
		if len(g) == 0 || len(g[0]) == 0 {
			return nil, nil
		}
		return ringToFootprint(g[0][0]), nil
	default:
		// building centroids come back as points
		return nil, nil
	}
}

func ringToFootprint(r orb.Ring) geospatial.Footprint {
	fp := make(geospatial.Footprint, 0, len(r))
	for _, pt := range r {
		fp = append(fp, geospatial.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()})
	}
	return fp
}
