package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

const DefaultURL = "https://overpass-api.de/api/interpreter"

// DefaultRadii are tried in order until a building way is found.
var DefaultRadii = []int{5, 15, 30}

type node struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type element struct {
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Geometry []node `json:"geometry"`
}

type response struct {
	Elements []element `json:"elements"`
}

// Client implements ports.FootprintProvider against an Overpass API endpoint
// serving OpenStreetMap building ways.
type Client struct {
	client   *http.Client
	endpoint string
	radii    []int
}

// New creates an Overpass client. Empty endpoint or radii use the defaults.
func New(endpoint string, radii []int, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if len(radii) == 0 {
		radii = DefaultRadii
	}
	return &Client{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
		radii:    radii,
	}
}

func (c *Client) Name() string { return domain.SourceOverpass }

// Footprint searches increasing radii around p and returns the geometry of the
// building way with the most vertices at the first radius that has any.
func (c *Client) Footprint(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error) {
	for _, r := range c.radii {
		elems, err := c.query(ctx, buildQuery(p, r))
		if err != nil {
			return nil, err
		}
		elems = lo.Filter(elems, func(e element, _ int) bool { return len(e.Geometry) > 0 })
		if len(elems) == 0 {
			continue
		}

		best := lo.MaxBy(elems, func(a, b element) bool {
			return len(a.Geometry) > len(b.Geometry)
		})
		return lo.Map(best.Geometry, func(n node, _ int) geospatial.GeoPoint {
			return geospatial.GeoPoint{Lat: n.Lat, Lon: n.Lon}
		}), nil
	}
	return nil, nil
}

func buildQuery(p domain.GeoPoint, radius int) string {
	return fmt.Sprintf(`[out:json][timeout:25];way(around:%d,%.7f,%.7f)["building"];out geom;`,
		radius, p.Lat, p.Lon)
}

func (c *Client) query(ctx context.Context, q string) ([]element, error) {
	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("overpass: HTTP %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode overpass: %w", err)
	}
	return out.Elements, nil
}
