// Command ingestor loads building outlines from a GeoJSON FeatureCollection
// into the buildings table used by the postgis footprint provider.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/samber/lo"
	"github.com/spf13/pflag"

	"github.com/hussainzaidi99/OSMAPI/internal/adapters/postgres"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/config"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/logging"
)

const (
	maxDownload = 512 << 20
	usage       = "usage: ingestor [--source name] [--batch n] <file.geojson|url>"
)

func main() {
	source := pflag.String("source", "import", "source label stored with each building")
	batchSize := pflag.Int("batch", 500, "rows per insert batch")
	pflag.Parse()

	if pflag.NArg() != 1 {
		log.Fatal(usage)
	}
	if err := checkBatchSize(*batchSize); err != nil {
		log.Fatalf("%v\n%s", err, usage)
	}
	input := pflag.Arg(0)

	cfg, err := config.LoadDatabase("osmapi-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	data, err := readInput(ctx, input)
	if err != nil {
		log.Fatalf("read %s: %v", input, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		log.Fatalf("parse %s: %v", input, err)
	}

	buildings, skipped := buildingsFromCollection(fc, *source)
	slog.Info("parsed features", "input", input, "buildings", len(buildings), "skipped", skipped)

	repo := postgres.NewFootprintRepo(db, cfg.Database.SearchRadius)
	stored := 0
	for _, chunk := range lo.Chunk(buildings, *batchSize) {
		if err := repo.UpsertBatch(ctx, chunk); err != nil {
			log.Fatalf("upsert after %d rows: %v", stored, err)
		}
		stored += len(chunk)
		slog.Debug("batch stored", "rows", stored)
	}

	slog.Info("ingestion complete", "stored", stored, "source", *source)
}

func checkBatchSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("--batch must be positive, got %d", n)
	}
	return nil
}

func readInput(ctx context.Context, input string) ([]byte, error) {
	if !strings.HasPrefix(input, "http://") && !strings.HasPrefix(input, "https://") {
		return os.ReadFile(input)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, input)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxDownload))
}

// buildingsFromCollection keeps polygonal features. A multipolygon is stored
// as its largest part. Features without an id get one from their position in
// the collection.
func buildingsFromCollection(fc *geojson.FeatureCollection, source string) ([]postgres.Building, int) {
	out := make([]postgres.Building, 0, len(fc.Features))
	skipped := 0
	for i, f := range fc.Features {
		poly, ok := outline(f.Geometry)
		if !ok {
			skipped++
			continue
		}
		out = append(out, postgres.Building{
			ExternalID: featureID(f, i),
			Source:     source,
			Outline:    poly,
		})
	}
	return out, skipped
}

func outline(g orb.Geometry) (orb.Polygon, bool) {
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) == 0 || len(g[0]) < 4 {
			return nil, false
		}
		return g, true
	case orb.MultiPolygon:
		parts := lo.Filter(g, func(p orb.Polygon, _ int) bool {
			return len(p) > 0 && len(p[0]) >= 4
		})
		if len(parts) == 0 {
			return nil, false
		}
		return lo.MaxBy(parts, func(a, b orb.Polygon) bool {
			return planar.Area(a) > planar.Area(b)
		}), true
	default:
		return nil, false
	}
}

func featureID(f *geojson.Feature, index int) string {
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	for _, key := range []string{"id", "@id", "osm_id"} {
		if v, ok := f.Properties[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("feature-%d", index)
}
