package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/log"
	"github.com/micromet/fvspart/internal/storage/archive"
	"github.com/micromet/fvspart/internal/storage/csvout"
	"github.com/micromet/fvspart/internal/storage/timescaledb"
	"github.com/micromet/fvspart/pkg/config"
)

// Manager holds our active storage backends
type Manager struct {
	Engines     []StorageEngine
	Distributor chan database.PartitionRecord
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing records to the engine
type StorageEngine struct {
	Engine StorageEngineInterface
	C      chan<- database.PartitionRecord
}

// NewManager creates a Manager object, populated with all configured
// storage engines
func NewManager(ctx context.Context, wg *sync.WaitGroup, c *config.ConfigData) (*Manager, error) {
	m := &Manager{}

	// Initialize our channel for passing records to the distributor
	m.Distributor = make(chan database.PartitionRecord, 20)

	// Start our distributor to fan received records out to storage backends
	go m.startDistributor(ctx, wg)

	// Check the configuration for supported storage backends and enable
	// them if found

	if c.Storage.TimescaleDB != nil && c.Storage.TimescaleDB.ConnectionString != "" {
		engine, err := timescaledb.New(ctx, c.Storage.TimescaleDB.ConnectionString)
		if err != nil {
			return m, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		m.addEngine(ctx, wg, engine)
	}

	if c.Outputs.ResultsCSV != "" {
		engine, err := csvout.New(c.Outputs.ResultsCSV)
		if err != nil {
			return m, fmt.Errorf("could not add CSV storage backend: %w", err)
		}
		m.addEngine(ctx, wg, engine)
	}

	if c.Outputs.Archive != "" {
		engine, err := archive.NewWriter(c.Outputs.Archive)
		if err != nil {
			return m, fmt.Errorf("could not add archive storage backend: %w", err)
		}
		m.addEngine(ctx, wg, engine)
	}

	return m, nil
}

func (m *Manager) addEngine(ctx context.Context, wg *sync.WaitGroup, engine StorageEngineInterface) {
	se := StorageEngine{Engine: engine}
	se.C = engine.StartStorageEngine(ctx, wg)
	m.Engines = append(m.Engines, se)
}

// startDistributor receives records from the partitioning pipeline and fans
// them out to the various storage backends
func (m *Manager) startDistributor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-m.Distributor:
			for _, e := range m.Engines {
				e.C <- r
			}
		case <-ctx.Done():
			log.Info("cancellation request received.  Cancelling record distributor.")
			return
		}
	}
}
