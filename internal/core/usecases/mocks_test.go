package usecases_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// --- Mock FootprintProvider ---

type mockFootprintProvider struct {
	name  string
	calls int
	fn    func(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error)
}

func (m *mockFootprintProvider) Name() string { return m.name }

func (m *mockFootprintProvider) Footprint(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error) {
	m.calls++
	if m.fn != nil {
		return m.fn(ctx, p)
	}
	return nil, nil
}

// --- Mock ImageryProvider ---

type mockImagery struct {
	err error
}

func (m *mockImagery) Fetch(ctx context.Context, frame geospatial.Frame) (image.Image, error) {
	if m.err != nil {
		return nil, m.err
	}
	img := image.NewRGBA(image.Rect(0, 0, frame.Width, frame.Height))
	img.Set(0, 0, color.White)
	return img, nil
}

// --- Mock OverlayRenderer ---

type mockRenderer struct {
	got *geospatial.Estimate
	err error
}

func (m *mockRenderer) Render(base image.Image, est *geospatial.Estimate) ([]byte, error) {
	m.got = est
	if m.err != nil {
		return nil, m.err
	}
	return []byte("\x89PNG"), nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.MeasurementEvent
	err    error
}

func (m *mockPublisher) PublishMeasurement(ctx context.Context, ev *domain.MeasurementEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// squareAround returns a closed ring of a square with the given half size in
// meters, centred on c.
func squareAround(c domain.GeoPoint, halfM float64) geospatial.Footprint {
	box, err := geospatial.FallbackBox(c, halfM)
	if err != nil {
		panic(err)
	}
	return geospatial.Footprint{box[0], box[1], box[2], box[3], box[0]}
}
