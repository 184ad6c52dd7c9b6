package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/log"
	"github.com/micromet/fvspart/pkg/config"
)

func TestMain(m *testing.M) {
	if err := log.Init(false); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func record(runID string, start time.Time, fqt float64) database.PartitionRecord {
	return database.PartitionRecord{
		RunID:   runID,
		Site:    "maize-field-07",
		Start:   start,
		End:     start.Add(30 * time.Minute),
		Fqt:     fqt,
		Valid:   true,
		Daytime: true,
	}
}

func newTestController(t *testing.T, source ResultSource) *Controller {
	t.Helper()
	var wg sync.WaitGroup
	ctrl, err := NewController(context.Background(), &wg, &config.RESTServerData{Port: 8090}, source)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl
}

func TestHealthz(t *testing.T) {
	ctrl := newTestController(t, NewMemorySource(4))

	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("body = %v", body)
	}
}

func TestLatestResults(t *testing.T) {
	source := NewMemorySource(4)
	start := time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)
	source.Add(record("run-1", start, 1.1e-3))
	source.Add(record("run-2", start, 1.8e-3))
	source.Add(record("run-2", start.Add(30*time.Minute), 1.9e-3))

	ctrl := newTestController(t, source)
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/results", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		RunID     string                     `json:"run_id"`
		Intervals int                        `json:"intervals"`
		Records   []database.PartitionRecord `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID != "run-2" || resp.Intervals != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Records) != 2 || resp.Records[1].Fqt != 1.9e-3 {
		t.Errorf("records = %+v", resp.Records)
	}
}

func TestResultsByRunID(t *testing.T) {
	source := NewMemorySource(4)
	start := time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)
	source.Add(record("run-1", start, 1.1e-3))
	source.Add(record("run-2", start, 1.8e-3))

	ctrl := newTestController(t, source)
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/results/run-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		RunID   string                     `json:"run_id"`
		Records []database.PartitionRecord `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID != "run-1" || len(resp.Records) != 1 || resp.Records[0].Fqt != 1.1e-3 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestResultsMsgpackFormat(t *testing.T) {
	source := NewMemorySource(4)
	source.Add(record("run-1", time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC), 1.1e-3))

	ctrl := newTestController(t, source)
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/results?format=msgpack", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Errorf("content type = %q", ct)
	}

	var resp map[string]interface{}
	dec := msgpack.NewDecoder(rec.Body)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("msgpack decode: %v", err)
	}
	if resp["run_id"] != "run-1" {
		t.Errorf("resp = %v", resp)
	}
}

func TestUnknownRunIs404(t *testing.T) {
	ctrl := newTestController(t, NewMemorySource(4))
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/results/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestEmptySourceLatestIs404(t *testing.T) {
	ctrl := newTestController(t, NewMemorySource(4))
	rec := httptest.NewRecorder()
	ctrl.Server.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/results", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMemorySourceEviction(t *testing.T) {
	source := NewMemorySource(2)
	start := time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)
	source.Add(record("run-1", start, 1e-3))
	source.Add(record("run-2", start, 1e-3))
	source.Add(record("run-3", start, 1e-3))

	if recs, _ := source.RecordsForRun("run-1"); len(recs) != 0 {
		t.Errorf("run-1 should have been evicted, got %d records", len(recs))
	}
	latest, _ := source.LatestRunID()
	if latest != "run-3" {
		t.Errorf("latest = %q", latest)
	}
}
