package storage

import (
	"context"
	"fmt"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/storage/archive"
	"github.com/micromet/fvspart/internal/storage/csvout"
	"github.com/micromet/fvspart/internal/storage/timescaledb"
	"github.com/micromet/fvspart/pkg/config"
)

// RecordStorer stores one interval result synchronously. Batch runs use
// this instead of the channel-fed engines so every record is flushed
// before the process exits.
type RecordStorer interface {
	StoreRecord(r database.PartitionRecord) error
}

// NewStorers builds the configured storage backends for synchronous use.
// The returned close function flushes and closes file-backed backends.
func NewStorers(ctx context.Context, c *config.ConfigData) ([]RecordStorer, func() error, error) {
	var storers []RecordStorer
	var closers []func() error

	closeAll := func() error {
		var firstErr error
		for _, cl := range closers {
			if err := cl(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	if c.Storage.TimescaleDB != nil && c.Storage.TimescaleDB.ConnectionString != "" {
		engine, err := timescaledb.New(ctx, c.Storage.TimescaleDB.ConnectionString)
		if err != nil {
			return nil, closeAll, fmt.Errorf("could not set up TimescaleDB storage: %w", err)
		}
		storers = append(storers, engine)
	}

	if c.Outputs.ResultsCSV != "" {
		engine, err := csvout.New(c.Outputs.ResultsCSV)
		if err != nil {
			return nil, closeAll, fmt.Errorf("could not set up CSV storage: %w", err)
		}
		storers = append(storers, engine)
		closers = append(closers, engine.Close)
	}

	if c.Outputs.Archive != "" {
		engine, err := archive.NewWriter(c.Outputs.Archive)
		if err != nil {
			return nil, closeAll, fmt.Errorf("could not set up archive storage: %w", err)
		}
		storers = append(storers, engine)
		closers = append(closers, engine.Close)
	}

	return storers, closeAll, nil
}
