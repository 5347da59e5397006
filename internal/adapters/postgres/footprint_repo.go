package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/geospatial"
)

// DefaultSearchRadius is the distance in meters within which a stored outline
// counts as the building at the query point.
const DefaultSearchRadius = 25.0

// Building is one row of the buildings table.
type Building struct {
	ExternalID string
	Source     string
	Outline    orb.Polygon
}

// FootprintRepo implements ports.FootprintProvider over PostGIS.
type FootprintRepo struct {
	db     *DB
	radius float64
}

// NewFootprintRepo creates a new FootprintRepo.
func NewFootprintRepo(db *DB, searchRadius float64) *FootprintRepo {
	if searchRadius <= 0 {
		searchRadius = DefaultSearchRadius
	}
	return &FootprintRepo{db: db, radius: searchRadius}
}

func (r *FootprintRepo) Name() string { return domain.SourcePostGIS }

// Footprint returns the exterior ring of the outline nearest to p within the
// search radius, or nil when none is stored there.
func (r *FootprintRepo) Footprint(ctx context.Context, p domain.GeoPoint) (geospatial.Footprint, error) {
	var raw []byte
	err := r.db.Pool.QueryRow(ctx, `
		SELECT ST_AsBinary(outline::geometry)
		FROM buildings
		WHERE ST_DWithin(outline, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY outline <-> ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography
		LIMIT 1
	`, p.Lon, p.Lat, r.radius).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query outline: %w", err)
	}
	return decodeOutline(raw)
}

// UpsertBatch inserts or replaces outlines using pgx.Batch.
func (r *FootprintRepo) UpsertBatch(ctx context.Context, buildings []Building) error {
	batch := &pgx.Batch{}
	for _, b := range buildings {
		data, err := wkb.Marshal(b.Outline)
		if err != nil {
			return fmt.Errorf("encode %s: %w", b.ExternalID, err)
		}
		batch.Queue(`
			INSERT INTO buildings (external_id, source, outline)
			VALUES ($1, $2, ST_SetSRID(ST_GeomFromWKB($3), 4326)::geography)
			ON CONFLICT (source, external_id) DO UPDATE
			SET outline = EXCLUDED.outline, updated_at = NOW()
		`, b.ExternalID, b.Source, data)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range buildings {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

func decodeOutline(raw []byte) (geospatial.Footprint, error) {
	g, err := wkb.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}

	var ring orb.Ring
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			ring = g[0]
		}
	case orb.MultiPolygon:
		if len(g) > 0 && len(g[0]) > 0 {
			ring = g[0][0]
		}
	default:
		return nil, fmt.Errorf("decode outline: unexpected geometry %s", g.GeoJSONType())
	}

	fp := make(geospatial.Footprint, 0, len(ring))
	for _, pt := range ring {
		fp = append(fp, geospatial.GeoPoint{Lat: pt.Lat(), Lon: pt.Lon()})
	}
	return fp, nil
}
