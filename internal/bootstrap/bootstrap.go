// Package bootstrap builds the measurement service and its backends from
// configuration. It is shared by the API server and the measure CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hussainzaidi99/OSMAPI/internal/adapters/googlemaps"
	"github.com/hussainzaidi99/OSMAPI/internal/adapters/imagery"
	"github.com/hussainzaidi99/OSMAPI/internal/adapters/mapbox"
	natsadapter "github.com/hussainzaidi99/OSMAPI/internal/adapters/nats"
	"github.com/hussainzaidi99/OSMAPI/internal/adapters/overpass"
	"github.com/hussainzaidi99/OSMAPI/internal/adapters/postgres"
	"github.com/hussainzaidi99/OSMAPI/internal/adapters/render"
	"github.com/hussainzaidi99/OSMAPI/internal/adapters/valkey"
	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/core/ports"
	"github.com/hussainzaidi99/OSMAPI/internal/core/usecases"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/config"
)

// Resources holds the optional backends opened for the service. Nil fields
// were not configured or could not be reached.
type Resources struct {
	DB        *postgres.DB
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher
}

// Close releases every opened backend.
func (r *Resources) Close() {
	if r.Publisher != nil {
		r.Publisher.Close()
	}
	if r.Cache != nil {
		r.Cache.Close()
	}
	if r.DB != nil {
		r.DB.Close()
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// NewImagery returns the configured imagery provider.
func NewImagery(cfg config.ImageryConfig) (ports.ImageryProvider, error) {
	switch cfg.Provider {
	case "google":
		return googlemaps.New(cfg.GoogleAPIKey, cfg.BaseURL, seconds(cfg.Timeout))
	case "blank":
		return imagery.NewBlank(), nil
	default:
		return nil, fmt.Errorf("unknown imagery provider %q", cfg.Provider)
	}
}

// NewFootprintProviders returns the providers in configured order. db may be
// nil unless postgis is listed.
func NewFootprintProviders(cfg *config.Config, db *postgres.DB) ([]ports.FootprintProvider, error) {
	fc := cfg.Footprints
	timeout := seconds(fc.Timeout)

	providers := make([]ports.FootprintProvider, 0, len(fc.Providers))
	for _, name := range fc.Providers {
		switch name {
		case domain.SourcePostGIS:
			if db == nil {
				return nil, fmt.Errorf("footprint provider postgis needs the database")
			}
			providers = append(providers, postgres.NewFootprintRepo(db, cfg.Database.SearchRadius))
		case domain.SourceMapbox:
			tq, err := mapbox.New(fc.MapboxToken, fc.MapboxURL, fc.MapboxRadius, timeout)
			if err != nil {
				return nil, err
			}
			providers = append(providers, tq)
		case domain.SourceOverpass:
			providers = append(providers, overpass.New(fc.OverpassURL, fc.OverpassRadii, timeout))
		default:
			return nil, fmt.Errorf("unknown footprint provider %q", name)
		}
	}
	return providers, nil
}

// MeasureOptions maps the measure section onto the service options.
func MeasureOptions(cfg config.MeasureConfig) usecases.MeasureOptions {
	return usecases.MeasureOptions{
		Zoom:              cfg.Zoom,
		Width:             cfg.ImageWidth,
		Height:            cfg.ImageHeight,
		Model:             cfg.Model(),
		FallbackHalfSizeM: cfg.FallbackHalfSizeM,
		LabelOffsetPx:     cfg.LabelOffsetPx,
	}
}

// NewMeasureService opens the configured backends and wires the service.
// The database is required when enabled; cache and NATS failures only
// disable those features.
func NewMeasureService(ctx context.Context, cfg *config.Config) (*usecases.MeasureService, *Resources, error) {
	res := &Resources{}

	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		res.DB = db
	}

	img, err := NewImagery(cfg.Imagery)
	if err != nil {
		res.Close()
		return nil, nil, err
	}

	providers, err := NewFootprintProviders(cfg, res.DB)
	if err != nil {
		res.Close()
		return nil, nil, err
	}

	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable, footprint cache disabled", "error", err)
		} else {
			res.Cache = c
			cache = c
		}
	}

	var events ports.EventPublisher
	if cfg.NATS.URL != "" {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable, measurement events disabled", "error", err)
		} else {
			res.Publisher = p
			events = p
		}
	}

	locator := usecases.NewFootprintLocator(providers, cache, cfg.Footprints.CacheTTL)
	svc := usecases.NewMeasureService(img, locator, render.NewOverlay(render.DefaultStyle()), events, MeasureOptions(cfg.Measure))

	slog.Info("measure service ready",
		"imagery", cfg.Imagery.Provider,
		"footprints", cfg.Footprints.Providers,
		"model", cfg.Measure.Model().String(),
		"cache", res.Cache != nil,
		"events", res.Publisher != nil,
	)
	return svc, res, nil
}
