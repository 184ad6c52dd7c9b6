// Package csvout appends partitioning results to a CSV file.
package csvout

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/log"
)

var header = []string{
	"run_id", "site", "interval_start", "interval_end", "source_file",
	"cov_wq", "cov_wc", "var_q", "var_c", "corr_qc", "wue",
	"corr_cp_cr", "var_cp", "sig_cr", "root_branch",
	"fq", "fqt", "fqe", "fc", "fcp", "fcr",
	"valid", "message", "wave_lvl_low", "wave_lvl_high", "daytime",
}

// Storage writes records to a CSV results file
type Storage struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// New sets up a new CSV storage backend. The header row is written only
// when the file is created fresh.
func New(path string) (*Storage, error) {
	info, statErr := os.Stat(path)
	fresh := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("could not open results CSV %s: %w", path, err)
	}

	s := &Storage{
		file:   f,
		writer: csv.NewWriter(f),
	}

	if fresh {
		if err := s.writer.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("could not write CSV header: %w", err)
		}
		s.writer.Flush()
	}

	return s, nil
}

// StartStorageEngine creates a goroutine loop to receive records and append
// them to the results CSV
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- database.PartitionRecord {
	log.Info("starting CSV storage engine...")
	recordChan := make(chan database.PartitionRecord, 10)
	go s.processRecords(ctx, wg, recordChan)
	return recordChan
}

func (s *Storage) processRecords(ctx context.Context, wg *sync.WaitGroup, rchan <-chan database.PartitionRecord) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-rchan:
			if err := s.StoreRecord(r); err != nil {
				log.Error("could not append record to results CSV:", err)
			}
		case <-ctx.Done():
			s.Close()
			log.Info("cancellation request received.  Cancelling CSV writer.")
			return
		}
	}
}

// StoreRecord appends one interval result row
func (s *Storage) StoreRecord(r database.PartitionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := []string{
		r.RunID, r.Site,
		r.Start.UTC().Format(time.RFC3339), r.End.UTC().Format(time.RFC3339),
		r.SourceFile,
		fm(r.CovWQ), fm(r.CovWC), fm(r.VarQ), fm(r.VarC), fm(r.CorrQC), fm(r.WUE),
		fm(r.CorrCpCr), fm(r.VarCp), fm(r.SigCr), r.RootBranch,
		fm(r.Fq), fm(r.Fqt), fm(r.Fqe), fm(r.Fc), fm(r.Fcp), fm(r.Fcr),
		strconv.FormatBool(r.Valid), r.Message,
		strconv.Itoa(r.WaveLvlLow), strconv.Itoa(r.WaveLvlHigh),
		strconv.FormatBool(r.Daytime),
	}
	if err := s.writer.Write(row); err != nil {
		return err
	}
	s.writer.Flush()
	return s.writer.Error()
}

// Close flushes buffered rows and closes the file
func (s *Storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Flush()
	return s.file.Close()
}

func fm(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
