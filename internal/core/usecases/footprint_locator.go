package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/core/ports"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/metrics"
)

// FootprintLocator walks the configured footprint providers in order and
// returns the first outline found.
type FootprintLocator struct {
	providers []ports.FootprintProvider
	cache     ports.CacheService
	cacheTTL  int
}

// NewFootprintLocator creates a locator. cache may be nil; ttlSeconds <= 0
// disables caching as well.
func NewFootprintLocator(providers []ports.FootprintProvider, cache ports.CacheService, ttlSeconds int) *FootprintLocator {
	return &FootprintLocator{providers: providers, cache: cache, cacheTTL: ttlSeconds}
}

// Locate returns the first usable footprint any provider has for p. Provider
// failures are logged and the next provider is tried; only context cancellation
// is returned as an error. A ring with fewer than three distinct vertices also
// moves on to the next provider and is returned only when nothing better turns
// up. An empty result means no provider knows the building.
func (l *FootprintLocator) Locate(ctx context.Context, p domain.GeoPoint) (domain.Footprint, error) {
	var degenerate *domain.Footprint
	for _, prov := range l.providers {
		if err := ctx.Err(); err != nil {
			return domain.Footprint{}, err
		}

		ring, err := l.lookup(ctx, prov, p)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Footprint{}, ctx.Err()
			}
			metrics.ProviderErrors.WithLabelValues(prov.Name()).Inc()
			slog.WarnContext(ctx, "footprint provider failed, trying next",
				"provider", prov.Name(), "point", p.String(), "error", err)
			continue
		}
		if len(ring) == 0 {
			metrics.ProviderMisses.WithLabelValues(prov.Name()).Inc()
			continue
		}
		if ring.Distinct() < 3 {
			slog.DebugContext(ctx, "degenerate footprint, trying next provider",
				"provider", prov.Name(), "point", p.String(), "vertices", len(ring))
			if degenerate == nil {
				degenerate = &domain.Footprint{Source: prov.Name(), Ring: ring}
			}
			continue
		}
		return domain.Footprint{Source: prov.Name(), Ring: ring}, nil
	}
	if degenerate != nil {
		return *degenerate, nil
	}
	return domain.Footprint{Source: domain.SourceNone}, nil
}

func (l *FootprintLocator) lookup(ctx context.Context, prov ports.FootprintProvider, p domain.GeoPoint) (geospatial.Footprint, error) {
	cacheKey := fmt.Sprintf("footprint:%s:%.6f:%.6f", prov.Name(), p.Lat, p.Lon)
	useCache := l.cache != nil && l.cacheTTL > 0

	if useCache {
		if data, err := l.cache.Get(ctx, cacheKey); err == nil {
			var ring geospatial.Footprint
			if err := json.Unmarshal(data, &ring); err == nil {
				metrics.CacheHits.WithLabelValues("footprint").Inc()
				return ring, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("footprint").Inc()
	}

	start := time.Now()
	ring, err := prov.Footprint(ctx, p)
	metrics.ProviderFetchDuration.WithLabelValues(prov.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	// misses are cached too so an unknown spot is not re-queried every time
	if useCache {
		if ring == nil {
			ring = geospatial.Footprint{}
		}
		if data, err := json.Marshal(ring); err == nil {
			_ = l.cache.Set(ctx, cacheKey, data, l.cacheTTL)
		}
	}

	return ring, nil
}
