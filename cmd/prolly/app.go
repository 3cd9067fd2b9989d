package main

import (
	"context"
	"fmt"
	"log/slog"

	"prolly/internal/blobstore"
	"prolly/internal/config"
	"prolly/internal/service"
	"prolly/internal/store"
)

// app is the set of open handles one command runs against.
type app struct {
	store    *store.Store
	blobs    *blobstore.Store
	services *service.Services
}

func withApp(cfg *config.Config, fn func(*app) error) error {
	logger := slog.Default()

	st, err := store.Open(cfg.DBPath, store.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	defer st.Close()

	cas, err := blobstore.NewLocalCAS(cfg.BlobRoot)
	if err != nil {
		return fmt.Errorf("open blob root %s: %w", cfg.BlobRoot, err)
	}
	blobs := blobstore.New(st, cas,
		blobstore.WithSweepWorkers(cfg.Blobs.SweepWorkers),
		blobstore.WithSweepBatchSize(cfg.Blobs.SweepBatchSize),
		blobstore.WithLogger(logger),
	)

	return fn(&app{
		store:    st,
		blobs:    blobs,
		services: service.New(st, blobs, logger),
	})
}

// mutate retries fn while the database reports a transient conflict.
func mutate(ctx context.Context, fn func() error) error {
	return service.RetryTransient(ctx, service.DefaultRetryAttempts, fn)
}
