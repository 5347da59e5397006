package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hussainzaidi99/OSMAPI/internal/adapters/postgres"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/config"
	"github.com/hussainzaidi99/OSMAPI/internal/pkg/logging"
)

var upFiles = []string{
	"001_init_extensions.sql",
	"002_buildings.sql",
}

const downFile = "down.sql"

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down> [dir]")
	}
	dir := "migrations"
	if len(os.Args) > 2 {
		dir = os.Args[2]
	}

	cfg, err := config.LoadDatabase("osmapi-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		for _, f := range upFiles {
			apply(ctx, db, filepath.Join(dir, f))
		}
		slog.Info("all migrations applied")
	case "down":
		apply(ctx, db, filepath.Join(dir, downFile))
		slog.Info("schema dropped")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func apply(ctx context.Context, db *postgres.DB, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read %s: %v", path, err)
	}
	if _, err := db.Pool.Exec(ctx, string(data)); err != nil {
		log.Fatalf("exec %s: %v", path, err)
	}
	slog.Info("applied", "file", path)
}
