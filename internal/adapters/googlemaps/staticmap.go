package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// DefaultBaseURL is the public Maps Static API host.
const DefaultBaseURL = "https://maps.googleapis.com"

// ErrMissingKey is returned by New when no API key is configured.
var ErrMissingKey = errors.New("googlemaps: api key is required")

// StaticMap implements ports.ImageryProvider with the Maps Static API.
type StaticMap struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// New creates a StaticMap client. baseURL defaults to DefaultBaseURL.
func New(apiKey, baseURL string, timeout time.Duration) (*StaticMap, error) {
	if apiKey == "" {
		return nil, ErrMissingKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &StaticMap{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}, nil
}

// Fetch downloads a satellite image centred on the frame.
func (s *StaticMap) Fetch(ctx context.Context, frame geospatial.Frame) (image.Image, error) {
	q := url.Values{}
	// full precision keeps the image centred exactly where the overlay is projected
	q.Set("center", strconv.FormatFloat(frame.Center.Lat, 'f', -1, 64)+","+strconv.FormatFloat(frame.Center.Lon, 'f', -1, 64))
	q.Set("zoom", strconv.Itoa(frame.Zoom))
	q.Set("size", fmt.Sprintf("%dx%d", frame.Width, frame.Height))
	q.Set("maptype", "satellite")
	q.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/maps/api/staticmap?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("static map request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("static map: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode static map: %w", err)
	}

	b := img.Bounds()
	if b.Dx() != frame.Width || b.Dy() != frame.Height {
		return nil, fmt.Errorf("static map: got %s %dx%d, want %dx%d", format, b.Dx(), b.Dy(), frame.Width, frame.Height)
	}
	return img, nil
}
