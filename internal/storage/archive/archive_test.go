package archive

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/micromet/fvspart/internal/database"
)

func sampleRecord(runID string, start time.Time) database.PartitionRecord {
	return database.PartitionRecord{
		RunID:    runID,
		Site:     "maize-field-07",
		Start:    start,
		End:      start.Add(30 * time.Minute),
		CovWQ:    2e-3,
		CovWC:    -4e-6,
		VarQ:     1e-6,
		VarC:     1e-10,
		CorrQC:   -0.6,
		WUE:      -10e-3,
		CorrCpCr: -0.8,
		VarCp:    2.2222222222222221e-10,
		SigCr:    1.639783183499846e-05,
		Fq:       2e-3,
		Fqt:      1.8e-3,
		Fqe:      2e-4,
		Fc:       -4e-6,
		Fcp:      -6e-6,
		Fcr:      2e-6,
		Valid:    true,
		Daytime:  true,
	}
}

func TestWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.msgpack")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	start := time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)
	want := []database.PartitionRecord{
		sampleRecord("run-1", start),
		sampleRecord("run-1", start.Add(30*time.Minute)),
		sampleRecord("run-1", start.Add(60*time.Minute)),
	}
	for _, r := range want {
		if err := w.StoreRecord(r); err != nil {
			t.Fatalf("StoreRecord: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("read %d records, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].RunID != want[i].RunID || !got[i].Start.Equal(want[i].Start) {
			t.Errorf("record %d identity mismatch: got %s@%v", i, got[i].RunID, got[i].Start)
		}
		if got[i].Fqt != want[i].Fqt || got[i].Fcr != want[i].Fcr {
			t.Errorf("record %d fluxes mismatch: got Fqt=%v Fcr=%v", i, got[i].Fqt, got[i].Fcr)
		}
		if got[i].Valid != want[i].Valid || got[i].Daytime != want[i].Daytime {
			t.Errorf("record %d flags mismatch", i)
		}
	}
}

func TestAppendAcrossWriters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.msgpack")
	start := time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		w, err := NewWriter(path)
		if err != nil {
			t.Fatalf("NewWriter: %v", err)
		}
		if err := w.StoreRecord(sampleRecord("run-1", start.Add(time.Duration(i)*30*time.Minute))); err != nil {
			t.Fatalf("StoreRecord: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d records, want 2", len(got))
	}
}

func TestNaNFluxesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.msgpack")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	rec := sampleRecord("run-2", time.Date(2024, 7, 14, 22, 0, 0, 0, time.UTC))
	rec.Valid = false
	rec.Message = "trial root did not satisfy equations"
	rec.Fqt = math.NaN()
	rec.Fqe = math.NaN()
	rec.Fcp = math.NaN()
	rec.Fcr = math.NaN()

	if err := w.StoreRecord(rec); err != nil {
		t.Fatalf("StoreRecord: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("read %d records, want 1", len(got))
	}
	if !math.IsNaN(got[0].Fqt) || !math.IsNaN(got[0].Fcr) {
		t.Errorf("NaN fluxes did not survive round trip: %+v", got[0])
	}
	if got[0].Message == "" {
		t.Error("message lost in round trip")
	}
}
