// Package timescaledb stores partitioning results in a TimescaleDB or
// plain Postgres database.
package timescaledb

import (
	"context"
	"sync"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/log"
)

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	client *database.Client
}

// StartStorageEngine creates a goroutine loop to receive records and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- database.PartitionRecord {
	log.Info("starting TimescaleDB storage engine...")
	recordChan := make(chan database.PartitionRecord, 10)
	go t.processRecords(ctx, wg, recordChan)
	return recordChan
}

func (t *Storage) processRecords(ctx context.Context, wg *sync.WaitGroup, rchan <-chan database.PartitionRecord) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := t.StoreRecord(r); err != nil {
				log.Error("could not store partition record:", err)
			}
		case <-ctx.Done():
			log.Info("cancellation request received.  Cancelling records processor.")
			return
		}
	}
}

// StoreRecord stores one interval result in TimescaleDB
func (t *Storage) StoreRecord(r database.PartitionRecord) error {
	return t.client.InsertRecords([]database.PartitionRecord{r})
}

// Client exposes the underlying database client for query use
func (t *Storage) Client() *database.Client {
	return t.client
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, connectionString string) (*Storage, error) {
	t := Storage{
		client: database.NewClient(connectionString, log.GetSugaredLogger()),
	}

	if err := t.client.Connect(); err != nil {
		return &Storage{}, err
	}

	log.Info("migrating partition_records table...")
	if err := t.client.Migrate(); err != nil {
		log.Warn("warning: could not migrate partition_records table")
		return &Storage{}, err
	}

	return &t, nil
}
