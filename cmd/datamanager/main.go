// Command datamanager writes the bundled sample datasets as Parquet snapshots
// so the dashboard starts with data.
package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairy-dashboard/internal/config"
	"github.com/mamadbah2/dairy-dashboard/internal/dataset/sample"
	"github.com/mamadbah2/dairy-dashboard/internal/repository/snapshot"
	"github.com/mamadbah2/dairy-dashboard/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	dir := flag.String("dir", cfg.Data.ProcessedDir, "directory for the parquet snapshots")
	flag.Parse()

	log := logger.Must(logger.New(cfg.Server.LogMode))
	defer func() { _ = log.Sync() }()

	ds, err := sample.Datasets()
	if err != nil {
		log.Fatal("failed to decode sample datasets", zap.Error(err))
	}

	repo, err := snapshot.NewParquetRepository(*dir, log.Named("repo.snapshot"))
	if err != nil {
		log.Fatal("failed to init snapshot repository", zap.Error(err))
	}

	if err := repo.Save(context.Background(), ds); err != nil {
		log.Fatal("failed to write snapshots", zap.Error(err))
	}

	log.Info("sample datasets written",
		zap.String("dir", *dir),
		zap.Int("farmers", ds.Farmers.Len()),
		zap.Int("bmcs", ds.Centers.Len()),
		zap.Int("field_teams", ds.FieldTeams.Len()))
}
