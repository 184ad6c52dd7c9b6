// Package server exposes partitioning results over a small REST API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/log"
	"github.com/micromet/fvspart/pkg/config"
	"github.com/micromet/fvspart/pkg/responseformat"
)

// ResultSource provides stored partitioning results to the API
type ResultSource interface {
	LatestRunID() (string, error)
	RecordsForRun(runID string) ([]database.PartitionRecord, error)
}

// Controller is the REST results server
type Controller struct {
	ctx       context.Context
	wg        *sync.WaitGroup
	cfg       *config.RESTServerData
	source    ResultSource
	formatter *responseformat.Formatter
	Server    http.Server
}

// NewController sets up a REST results server
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.RESTServerData, source ResultSource) (*Controller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if source == nil {
		return nil, fmt.Errorf("a result source is required")
	}

	ctrl := &Controller{
		ctx:       ctx,
		wg:        wg,
		cfg:       cfg,
		source:    source,
		formatter: responseformat.NewFormatter(),
	}

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", cfg.ListenAddr, cfg.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 5 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST results server...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", c.handleHealth)
	router.HandleFunc("/results", c.handleLatestResults)
	router.HandleFunc("/results/{runID}", c.handleRunResults)

	return router
}

func (c *Controller) handleHealth(w http.ResponseWriter, r *http.Request) {
	c.formatter.WriteResponse(w, r, map[string]string{"status": "ok"}, nil)
}

func (c *Controller) handleLatestResults(w http.ResponseWriter, r *http.Request) {
	runID, err := c.source.LatestRunID()
	if err != nil {
		log.Errorf("could not look up latest run: %v", err)
		c.formatter.WriteError(w, r, http.StatusInternalServerError, "could not look up latest run")
		return
	}
	if runID == "" {
		c.formatter.WriteError(w, r, http.StatusNotFound, "no results stored yet")
		return
	}
	c.writeRun(w, r, runID)
}

func (c *Controller) handleRunResults(w http.ResponseWriter, r *http.Request) {
	c.writeRun(w, r, mux.Vars(r)["runID"])
}

func (c *Controller) writeRun(w http.ResponseWriter, r *http.Request, runID string) {
	records, err := c.source.RecordsForRun(runID)
	if err != nil {
		log.Errorf("could not fetch records for run %v: %v", runID, err)
		c.formatter.WriteError(w, r, http.StatusInternalServerError, "could not fetch run results")
		return
	}
	if len(records) == 0 {
		c.formatter.WriteError(w, r, http.StatusNotFound, "run not found")
		return
	}

	resp := runResponse{
		RunID:     runID,
		Intervals: len(records),
		Records:   records,
	}
	c.formatter.WriteResponse(w, r, resp, nil)
}

type runResponse struct {
	RunID     string                     `json:"run_id"`
	Intervals int                        `json:"intervals"`
	Records   []database.PartitionRecord `json:"records"`
}
