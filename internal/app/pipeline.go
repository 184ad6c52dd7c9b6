package app

import (
	"math"
	"strconv"
	"time"

	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/hfdata"
	"github.com/micromet/fvspart/pkg/config"
	"github.com/micromet/fvspart/pkg/fvs"
	"github.com/micromet/fvspart/pkg/solar"
)

// readerOptions translates the input configuration into reader options
func readerOptions(cfg *config.ConfigData) (hfdata.ReaderOptions, error) {
	opts := hfdata.DefaultReaderOptions()

	if cfg.Input.Delimiter != "" {
		opts.Comma = rune(cfg.Input.Delimiter[0])
	}
	opts.SkipRows = cfg.Input.SkipRows

	for i, name := range hfdata.VarNames {
		if col, ok := cfg.Input.Cols[name]; ok {
			opts.Cols[i] = col
		}
	}

	for _, f := range cfg.Input.Flags {
		col, err := strconv.Atoi(f.Col)
		if err != nil {
			return opts, err
		}
		opts.Flags = append(opts.Flags, hfdata.FlagColumn{Col: col, GoodValue: f.GoodValue})
	}

	if len(cfg.Input.Converters) > 0 {
		opts.Converters = make(map[string]hfdata.Converter, len(cfg.Input.Converters))
		for name, cv := range cfg.Input.Converters {
			gain := cv.Gain
			if gain == 0 {
				gain = 1
			}
			opts.Converters[name] = hfdata.Converter{Gain: gain, Offset: cv.Offset}
		}
	}

	return opts, nil
}

func boundsFromConfig(cfg *config.ConfigData) map[string]hfdata.Bounds {
	if len(cfg.Input.Bounds) == 0 {
		return nil
	}
	bounds := make(map[string]hfdata.Bounds, len(cfg.Input.Bounds))
	for name, b := range cfg.Input.Bounds {
		bounds[name] = hfdata.Bounds{Lower: b.Lower, Upper: b.Upper}
	}
	return bounds
}

// processInterval cleanses one interval window, classifies it day/night,
// and runs the progressive partitioning. It always returns a record; on
// failure the record carries the reason and NaN partition fields.
func processInterval(cfg *config.ConfigData, win *hfdata.Data, rec database.PartitionRecord) database.PartitionRecord {
	rec.WUE = cfg.Partition.WUE

	mid := rec.Start.Add(rec.End.Sub(rec.Start) / 2)
	rec.Daytime = solar.IsDaytime(cfg.Site.Latitude, cfg.Site.Longitude, mid)

	nan := math.NaN()
	wipePartition := func() {
		rec.CorrCpCr, rec.VarCp, rec.SigCr = nan, nan, nan
		rec.Fqt, rec.Fqe, rec.Fcp, rec.Fcr = nan, nan, nan, nan
	}

	if err := win.Cleanse(boundsFromConfig(cfg), cfg.Input.RdTol, cfg.Input.AdTol); err != nil {
		rec.Valid = false
		rec.Message = err.Error()
		rec.Fq, rec.Fc = nan, nan
		wipePartition()
		return rec
	}
	win.CorrectExternal()
	win.TruncatePow2()

	sum := win.Summarize()
	rec.CovWQ, rec.CovWC = sum.CovWQ, sum.CovWC
	rec.VarQ, rec.VarC = sum.VarVapor, sum.VarCO2
	rec.CorrQC = sum.CorrQC
	rec.Fq, rec.Fc = sum.CovWQ, sum.CovWC

	if !rec.Daytime && cfg.Partition.SkipNighttime {
		rec.Valid = false
		rec.Message = "nighttime interval; net fluxes recorded unpartitioned"
		wipePartition()
		return rec
	}

	res := fvs.PartitionProgressive(win.W, win.Q, win.C, cfg.Partition.WUE, cfg.Partition.AdjustFluxes)

	// Report the covariance summary of the accepted filter level
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

	// Without an acceptable partition the component fluxes are NaN; the
	// measured net fluxes are still kept unless configured otherwise.
	if !res.Valid && !cfg.Partition.WipeIfInvalid {
		rec.Fq, rec.Fc = sum.CovWQ, sum.CovWC
	}

	return rec
}

// samplesPerInterval derives the window length in records from the
// sampling frequency and averaging interval.
func samplesPerInterval(cfg *config.ConfigData) (int, error) {
	interval, err := cfg.Input.IntervalDuration()
	if err != nil {
		return 0, err
	}
	hz := cfg.Input.Hz
	if hz <= 0 {
		hz = 10
	}
	return int(interval.Seconds() * hz), nil
}

// intervalBounds gives the wall-clock span of the i-th window in a file
func intervalBounds(fileStart time.Time, interval time.Duration, i int) (time.Time, time.Time) {
	start := fileStart.Add(time.Duration(i) * interval)
	return start, start.Add(interval)
}
