package app

import (
	"context"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/ingest"
	"github.com/micromet/fvspart/internal/log"
	"github.com/micromet/fvspart/internal/server"
	"github.com/micromet/fvspart/internal/storage"
	"github.com/micromet/fvspart/pkg/config"
	"github.com/micromet/fvspart/pkg/fvs"
	"github.com/micromet/fvspart/pkg/solar"
)

// runDaemon ingests live samples, partitions each completed interval
// window, and serves results until shutdown.
func (a *App) runDaemon(ctx context.Context, cfg *config.ConfigData) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Initialize the storage manager
	manager, err := storage.NewManager(ctx, &wg, cfg)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	memory := server.NewMemorySource(8)

	n, err := samplesPerInterval(cfg)
	if err != nil {
		return err
	}

	assembler := ingest.NewAssembler(n, func(win ingest.Window) {
		rec := partitionWindow(cfg, runID, win)
		memory.Add(rec)
		select {
		case manager.Distributor <- rec:
		case <-ctx.Done():
		}
	})

	// Start the configured ingest transports
	if cfg.Ingest.Port != 0 {
		tcp := ingest.NewTCPServer(cfg.Ingest.ListenAddr, cfg.Ingest.Port, assembler)
		tcp.Start(ctx, &wg)
	}
	if cfg.Ingest.SerialDevice != "" {
		serial := ingest.NewSerialSource(ctx, &wg, cfg.Ingest.SerialDevice, cfg.Ingest.Baud, assembler)
		serial.Start()
	}

	// Start the results API if configured
	if cfg.Server != nil {
		var source server.ResultSource = memory
		if cfg.Storage.TimescaleDB != nil && cfg.Storage.TimescaleDB.ConnectionString != "" {
			client := database.NewClient(cfg.Storage.TimescaleDB.ConnectionString, a.logger)
			if err := client.Connect(); err == nil {
				source = client
			} else {
				log.Warn("results API falling back to in-memory source:", err)
			}
		}
		ctrl, err := server.NewController(ctx, &wg, cfg.Server, source)
		if err != nil {
			return err
		}
		if err := ctrl.StartController(); err != nil {
			return err
		}
	}

	log.Infof("daemon started; run %v, %d samples per interval", runID, n)

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}

// partitionWindow partitions one live-ingest window. Live samples carry
// no temperature or pressure channel, so no density corrections or
// cleansing are applied; instruments streaming here are expected to emit
// corrected densities.
func partitionWindow(cfg *config.ConfigData, runID string, win ingest.Window) database.PartitionRecord {
	rec := database.PartitionRecord{
		RunID: runID,
		Site:  cfg.Site.Name,
		Start: win.Start,
		End:   win.End,
		WUE:   cfg.Partition.WUE,
	}

	mid := win.Start.Add(win.End.Sub(win.Start) / 2)
	rec.Daytime = solar.IsDaytime(cfg.Site.Latitude, cfg.Site.Longitude, mid)

	if !rec.Daytime && cfg.Partition.SkipNighttime {
		rec.Valid = false
		rec.Message = "nighttime interval; net fluxes recorded unpartitioned"
		wqc := fvs.NewWQC(win.W, win.Q, win.C)
		rec.CovWQ, rec.CovWC = wqc.WQ, wqc.WC
		rec.VarQ, rec.VarC = wqc.VarQ, wqc.VarC
		rec.CorrQC = wqc.CorrQC
		rec.Fq, rec.Fc = wqc.WQ, wqc.WC
		nan := math.NaN()
		rec.CorrCpCr, rec.VarCp, rec.SigCr = nan, nan, nan
		rec.Fqt, rec.Fqe, rec.Fcp, rec.Fcr = nan, nan, nan, nan
		return rec
	}

	res := fvs.PartitionProgressive(win.W, win.Q, win.C, cfg.Partition.WUE, cfg.Partition.AdjustFluxes)

	rec.CovWQ, rec.CovWC = res.WQC.WQ, res.WQC.WC
	rec.VarQ, rec.VarC = res.WQC.VarQ, res.WQC.VarC
	rec.CorrQC = res.WQC.CorrQC

	rec.CorrCpCr = res.Root.CorrCpCr
	rec.VarCp = res.Root.VarCp
	rec.SigCr = res.Root.SigCr
	rec.RootBranch = res.Root.Branch.String()

	rec.Fq, rec.Fqt, rec.Fqe = res.Fluxes.Fq, res.Fluxes.Fqt, res.Fluxes.Fqe
	rec.Fc, rec.Fcp, rec.Fcr = res.Fluxes.Fc, res.Fluxes.Fcp, res.Fluxes.Fcr

	rec.Valid = res.Valid
	rec.Message = res.Message
	rec.WaveLvlLow, rec.WaveLvlHigh = res.WaveLvl[0], res.WaveLvl[1]

	return rec
}
