// Command measure runs a single footprint measurement from the shell and
// prints the result as JSON. The annotated image is written with --out.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/hussainzaidi99/OSMAPI/internal/adapters/http"
	"github.com/hussainzaidi99/OSMAPI/internal/bootstrap"
	"github.com/hussainzaidi99/OSMAPI/internal/core/domain"
	"github.com/hussainzaidi99/OSMAPI/internal/core/usecases"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/config"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "measure:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("measure", pflag.ContinueOnError)
	lat := fs.Float64("lat", 0, "latitude in degrees")
	lng := fs.Float64("lng", 0, "longitude in degrees")
	out := fs.StringP("out", "o", "", "write the annotated PNG to this file")

	// Config overrides, bound by key.
	fs.String("measure.distance_model", "", "great_circle or local_scale")
	fs.Int("measure.zoom", 0, "imagery zoom level")
	fs.String("imagery.provider", "", "google or blank")
	fs.StringSlice("footprints.providers", nil, "footprint providers in lookup order")
	fs.String("log.level", "", "debug, info, warn or error")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return err
	}
	if !fs.Changed("lat") || !fs.Changed("lng") {
		return fmt.Errorf("--lat and --lng are required")
	}

	cfg, err := config.LoadWithFlags("osmapi-measure", fs)
	if err != nil {
		return err
	}
	logging.SetupStderr(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, res, err := bootstrap.NewMeasureService(ctx, cfg)
	if err != nil {
		return err
	}
	defer res.Close()

	result, err := svc.Measure(ctx, usecases.MeasureRequest{
		Point: domain.GeoPoint{Lat: *lat, Lon: *lng},
	})
	if err != nil {
		return err
	}

	if *out != "" {
		if err := os.WriteFile(*out, result.Image, 0o644); err != nil {
			return fmt.Errorf("write image: %w", err)
		}
		slog.Info("image written", "path", *out, "bytes", len(result.Image))
	}

	resp := http.NewMeasureResponse(result)
	resp.ImageBase64 = ""

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
