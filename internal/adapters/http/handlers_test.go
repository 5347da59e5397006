package http_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/hussainzaidi99/OSMAPI/internal/adapters/http"
	"github.com/hussainzaidi99/OSMAPI/internal/adapters/imagery"
	"github.com/hussainzaidi99/OSMAPI/internal/adapters/render"
	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/core/ports"
	"github.com/hussainzaidi99/OSMAPI/internal/core/usecases"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// ---- Mocks ----

type mockFootprints struct {
	fn func(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error)
}

func (m *mockFootprints) Name() string { return domain.SourceOverpass }

func (m *mockFootprints) Footprint(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error) {
	if m.fn != nil {
		return m.fn(ctx, p)
	}
	return nil, nil
}

type failingImagery struct{}

func (failingImagery) Fetch(ctx context.Context, f geospatial.Frame) (image.Image, error) {
	return nil, errors.New("HTTP 403")
}

type mockPinger struct{ err error }

func (m mockPinger) Ping(ctx context.Context) error { return m.err }

// rectangle returns a closed ring of an axis-aligned building of the given
// size in meters centred on c.
func rectangle(c domain.GeoPoint, lengthM, widthM float64) geospatial.Footprint {
	dLat := widthM / 2 / geospatial.MetersPerDegree
	dLon := lengthM / 2 / (geospatial.MetersPerDegree * math.Cos(c.Lat*math.Pi/180))
	return geospatial.Footprint{
		{Lat: c.Lat - dLat, Lon: c.Lon - dLon},
		{Lat: c.Lat - dLat, Lon: c.Lon + dLon},
		{Lat: c.Lat + dLat, Lon: c.Lon + dLon},
		{Lat: c.Lat + dLat, Lon: c.Lon - dLon},
		{Lat: c.Lat - dLat, Lon: c.Lon - dLon},
	}
}

func newService(img ports.ImageryProvider, fp ports.FootprintProvider) *usecases.MeasureService {
	opts := usecases.DefaultMeasureOptions()
	opts.Width, opts.Height = 200, 200
	loc := usecases.NewFootprintLocator([]ports.FootprintProvider{fp}, nil, 0)
	return usecases.NewMeasureService(img, loc, render.NewOverlay(render.DefaultStyle()), nil, opts)
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Measure: newService(imagery.NewBlank(), &mockFootprints{
			fn: func(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error) {
				return rectangle(p, 18, 12), nil
			},
		}),
		Version: "test",
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func decodeError(t *testing.T, body io.Reader) handler.APIError {
	t.Helper()
	var apiErr handler.APIError
	if err := json.Unmarshal(readBody(t, body), &apiErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return apiErr
}

// ---- /v1/measure ----

func TestMeasure_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/measure?lat=43.263&lng=-2.935", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body handler.MeasureResponse
	if err := json.Unmarshal(readBody(t, resp.Body), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if body.LengthM == nil || body.WidthM == nil {
		t.Fatal("expected length and width")
	}
	if math.Abs(*body.LengthM-18) > 0.3 || math.Abs(*body.WidthM-12) > 0.3 {
		t.Errorf("expected ~18 x 12 m, got %.2f x %.2f", *body.LengthM, *body.WidthM)
	}
	if math.Abs(*body.LengthFt-*body.LengthM*domain.FeetPerMeter) > 0.06 {
		t.Errorf("length_ft %.1f does not match length_m %.2f", *body.LengthFt, *body.LengthM)
	}
	if *body.LengthM != math.Round(*body.LengthM*100)/100 {
		t.Errorf("length_m not rounded to 2 places: %v", *body.LengthM)
	}
	if *body.LengthFt != math.Round(*body.LengthFt*10)/10 {
		t.Errorf("length_ft not rounded to 1 place: %v", *body.LengthFt)
	}
	if body.Source != "overpass" || body.Model != "great_circle" || body.Fallback {
		t.Errorf("unexpected metadata: %+v", body)
	}
	if len(body.Rect) != 4 {
		t.Errorf("expected 4 rect corners, got %d", len(body.Rect))
	}
	if body.Zoom != 20 {
		t.Errorf("expected zoom 20, got %d", body.Zoom)
	}

	png, err := base64.StdEncoding.DecodeString(body.ImageBase64)
	if err != nil {
		t.Fatalf("image_base64: %v", err)
	}
	if !strings.HasPrefix(string(png), "\x89PNG") {
		t.Error("image is not a PNG")
	}

	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected Cache-Control no-store, got %q", cc)
	}
	if resp.Header.Get("ETag") != "" {
		t.Error("measurements must not carry an ETag")
	}
}

func TestMeasure_ModelParam(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/measure?lat=43.263&lng=-2.935&model=local_scale", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body handler.MeasureResponse
	json.Unmarshal(readBody(t, resp.Body), &body)
	if body.Model != "local_scale" {
		t.Errorf("expected local_scale, got %s", body.Model)
	}
}

func TestMeasure_LonAlias(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/measure?lat=43.263&lon=-2.935", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMeasure_Fallback(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Measure = newService(imagery.NewBlank(), &mockFootprints{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/measure?lat=43.263&lng=-2.935", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.Unmarshal(readBody(t, resp.Body), &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, k := range []string{"length_m", "width_m", "length_ft", "width_ft", "rect"} {
		v, ok := raw[k]
		if !ok {
			t.Errorf("expected key %s to be present", k)
		}
		if v != nil {
			t.Errorf("expected %s to be null, got %v", k, v)
		}
	}
	if raw["fallback"] != true {
		t.Errorf("expected fallback true, got %v", raw["fallback"])
	}
	if raw["source"] != "none" {
		t.Errorf("expected source none, got %v", raw["source"])
	}
	if box, _ := raw["fallback_box"].([]any); len(box) != 4 {
		t.Errorf("expected 4 fallback corners, got %v", raw["fallback_box"])
	}
	if s, _ := raw["image_base64"].(string); s == "" {
		t.Error("expected image_base64")
	}
}

func TestMeasure_BadParams(t *testing.T) {
	app := setupApp(makeDeps())

	tests := []struct {
		name string
		url  string
	}{
		{"missing both", "/v1/measure"},
		{"missing lng", "/v1/measure?lat=43.2"},
		{"not a number", "/v1/measure?lat=abc&lng=1"},
		{"lat out of range", "/v1/measure?lat=95&lng=1"},
		{"lng out of range", "/v1/measure?lat=1&lng=181"},
		{"unknown model", "/v1/measure?lat=1&lng=1&model=flat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := app.Test(httptest.NewRequest("GET", tt.url, nil), -1)
			if resp.StatusCode != 400 {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
			if apiErr := decodeError(t, resp.Body); apiErr.Code != "bad_request" {
				t.Errorf("expected bad_request, got %s", apiErr.Code)
			}
		})
	}
}

func TestMeasure_ImageryFailure(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Measure = newService(failingImagery{}, &mockFootprints{})
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/measure?lat=1&lng=1", nil), -1)
	if resp.StatusCode != 502 {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
	apiErr := decodeError(t, resp.Body)
	if apiErr.Code != "upstream_error" {
		t.Errorf("expected upstream_error, got %s", apiErr.Code)
	}
	if apiErr.RequestID == "" {
		t.Error("expected request_id in error body")
	}
}

func TestMeasureImage(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/measure/image?lat=43.263&lng=-2.935", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("expected image/png, got %q", ct)
	}
	if src := resp.Header.Get("X-Footprint-Source"); src != "overpass" {
		t.Errorf("expected source header overpass, got %q", src)
	}
	if b := readBody(t, resp.Body); !strings.HasPrefix(string(b), "\x89PNG") {
		t.Error("body is not a PNG")
	}
}

// ---- legacy /measure ----

func TestLegacyMeasure_Deprecated(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/measure?lat=43.263&lng=-2.935", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header")
	}
	if link := resp.Header.Get("Link"); !strings.Contains(link, "/v1/measure") {
		t.Errorf("expected successor link, got %q", link)
	}

	var body map[string]any
	json.Unmarshal(readBody(t, resp.Body), &body)
	for _, k := range []string{"length_m", "width_m", "length_ft", "width_ft", "image_base64"} {
		if _, ok := body[k]; !ok {
			t.Errorf("legacy response missing %s", k)
		}
	}
}

func TestLegacyMeasure_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/measure", nil), -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestV1Measure_NotDeprecated(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/measure?lat=1&lng=1", nil), -1)
	if resp.Header.Get("Deprecation") != "" {
		t.Error("/v1/measure must not be marked deprecated")
	}
}

// ---- GraphQL ----

func TestGraphQL_Measure(t *testing.T) {
	app := setupApp(makeDeps())

	q := `{"query":"{ measure(lat: 43.263, lng: -2.935, model: \"local_scale\") { length_m width_m source model fallback rect { x y } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(q))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		Data struct {
			Measure struct {
				LengthM  *float64 `json:"length_m"`
				WidthM   *float64 `json:"width_m"`
				Source   string   `json:"source"`
				Model    string   `json:"model"`
				Fallback bool     `json:"fallback"`
				Rect     []struct {
					X float64 `json:"x"`
					Y float64 `json:"y"`
				} `json:"rect"`
			} `json:"measure"`
		} `json:"data"`
		Errors []map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", out.Errors)
	}
	m := out.Data.Measure
	if m.LengthM == nil || math.Abs(*m.LengthM-18) > 0.3 {
		t.Errorf("expected length ~18, got %v", m.LengthM)
	}
	if m.Source != "overpass" || m.Model != "local_scale" || m.Fallback {
		t.Errorf("unexpected measure: %+v", m)
	}
	if len(m.Rect) != 4 {
		t.Errorf("expected 4 corners, got %d", len(m.Rect))
	}
}

func TestGraphQL_BadModel(t *testing.T) {
	app := setupApp(makeDeps())

	q := `{"query":"{ measure(lat: 1, lng: 1, model: \"flat\") { length_m } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(q))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)

	var out struct {
		Errors []map[string]any `json:"errors"`
	}
	json.Unmarshal(readBody(t, resp.Body), &out)
	if len(out.Errors) == 0 {
		t.Error("expected a GraphQL error for an unknown model")
	}
}

func TestGraphQL_EmptyQuery(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- health, ready, misc ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	json.Unmarshal(readBody(t, resp.Body), &body)
	if body["status"] != "healthy" || body["version"] != "test" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestReady_OptionalBackends(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	json.Unmarshal(readBody(t, resp.Body), &body)
	if body.Checks["database"] != "not configured" || body.Checks["cache"] != "not configured" {
		t.Errorf("unexpected checks: %v", body.Checks)
	}
}

func TestReady_BackendDown(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.DB = mockPinger{}
		d.Cache = mockPinger{err: errors.New("connection refused")}
	})
	app := setupApp(deps)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	json.Unmarshal(readBody(t, resp.Body), &body)
	if body.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %q", body.Checks["database"])
	}
	if !strings.HasPrefix(body.Checks["cache"], "error:") {
		t.Errorf("expected cache error, got %q", body.Checks["cache"])
	}
}

func TestSecurityHeaders(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing X-Content-Type-Options")
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id")
	}
}

func TestNotFound(t *testing.T) {
	app := setupApp(makeDeps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/stops", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if apiErr := decodeError(t, resp.Body); apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupApp(makeDeps())

	app.Test(httptest.NewRequest("GET", "/v1/measure?lat=43.263&lng=-2.935", nil), -1)
	resp, _ := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp.Body)), "osmapi_measure_requests_total") {
		t.Error("expected measurement counter in /metrics output")
	}
}

func TestDocs(t *testing.T) {
	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.DocsPath = findOpenAPISpec(t)
	}))

	resp, _ := app.Test(httptest.NewRequest("GET", "/docs", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(readBody(t, resp.Body)), "/v1/measure") {
		t.Error("served document does not describe /v1/measure")
	}
	if etag := resp.Header.Get("ETag"); etag == "" {
		t.Error("expected ETag on docs")
	}
}
