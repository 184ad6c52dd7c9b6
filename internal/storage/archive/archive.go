// Package archive persists partitioning results as a stream of msgpack
// records, one per interval.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/log"
)

// Writer appends msgpack-encoded records to an archive file
type Writer struct {
	file    *os.File
	encoder *msgpack.Encoder
	mu      sync.Mutex
}

// NewWriter sets up a new archive storage backend
func NewWriter(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open archive %s: %w", path, err)
	}

	return &Writer{
		file:    f,
		encoder: msgpack.NewEncoder(f),
	}, nil
}

// StartStorageEngine creates a goroutine loop to receive records and append
// them to the archive
func (w *Writer) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- database.PartitionRecord {
	log.Info("starting archive storage engine...")
	recordChan := make(chan database.PartitionRecord, 10)
	go w.processRecords(ctx, wg, recordChan)
	return recordChan
}

func (w *Writer) processRecords(ctx context.Context, wg *sync.WaitGroup, rchan <-chan database.PartitionRecord) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := w.StoreRecord(r); err != nil {
				log.Error("could not append record to archive:", err)
			}
		case <-ctx.Done():
			w.Close()
			log.Info("cancellation request received.  Cancelling archive writer.")
			return
		}
	}
}

// StoreRecord appends one interval result to the archive
func (w *Writer) StoreRecord(r database.PartitionRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.encoder.Encode(&r)
}

// Close closes the underlying file
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Read decodes every record in an archive stream
func Read(r io.Reader) ([]database.PartitionRecord, error) {
	decoder := msgpack.NewDecoder(r)

	var records []database.PartitionRecord
	for {
		var rec database.PartitionRecord
		err := decoder.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("could not decode archive record: %w", err)
		}
		records = append(records, rec)
	}
}

// ReadFile decodes every record in an archive file
func ReadFile(path string) ([]database.PartitionRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
