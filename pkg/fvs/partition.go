package fvs

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/micromet/fvspart/pkg/lowcut"
)

// NewWQC computes the covariance summary of raw (or filtered) w, q, c
// series. The three series must have equal length.
func NewWQC(w, q, c []float64) WQC {
	varQ := stat.Variance(q, nil)
	varC := stat.Variance(c, nil)
	return WQC{
		WQ:     stat.Covariance(w, q, nil),
		WC:     stat.Covariance(w, c, nil),
		VarQ:   varQ,
		VarC:   varC,
		CorrQC: stat.Covariance(q, c, nil) / math.Sqrt(varQ*varC),
	}
}

// Partition solves the flux partition for one averaging window described
// by its covariance summary. When wipeIfInvalid is true and the
// directional checks fail, the returned fluxes are all NaN instead of
// the offending values.
func Partition(d WQC, wue float64, wipeIfInvalid bool) Result {
	root := FindRoot(d, wue)
	if !root.Valid {
		return Result{
			WQC:     d,
			Root:    root,
			Fluxes:  NewMassFluxes(),
			Valid:   false,
			Message: root.Message,
		}
	}
	fluxes := massFluxes(root.VarCp, root.CorrCpCr, d, wue, root.Branch)
	valid, mssg := isValidPartition(fluxes)
	if !valid && wipeIfInvalid {
		fluxes = NewMassFluxes()
	}
	return Result{
		WQC:     d,
		Root:    root,
		Fluxes:  fluxes,
		Valid:   valid,
		Message: mssg,
	}
}

// PartitionSeries solves the flux partition for one window of raw
// high-frequency series data.
func PartitionSeries(w, q, c []float64, wue float64, wipeIfInvalid bool) Result {
	return Partition(NewWQC(w, q, c), wue, wipeIfInvalid)
}

// PartitionProgressive solves the flux partition for one window,
// progressively removing low-frequency (large-scale) content from the
// series until a physically valid partition is found or the
// decomposition is exhausted.
//
// The first filter pass removes only the series means, so the first
// attempt is effectively the unfiltered solve. Levels are tried in
// increasing order and iteration stops at the first valid partition, so
// the result is always the least-filtered valid answer. When
// adjustFluxesToTotals is true, partitioned fluxes from a filtered solve
// are rescaled so the totals match the covariances of the original
// unfiltered data.
//
// If no decomposition level yields a valid partition, the result of the
// last attempt is returned with Valid false, its diagnostic message, and
// all mass fluxes NaN. WaveLvl reports the decomposition window used as
// (low, high) level indices.
func PartitionProgressive(w, q, c []float64, wue float64, adjustFluxesToTotals bool) Result {
	maxLvl := lowcut.Levels(lowcut.MaxPow2(len(w)))
	fqTot := stat.Covariance(w, q, nil)
	fcTot := stat.Covariance(w, c, nil)

	n := lowcut.MaxPow2(len(w))
	itW := lowcut.Series(w[:n])
	itQ := lowcut.Series(q[:n])
	itC := lowcut.Series(c[:n])

	var res Result
	var waveLvl [2]int
	for cnt := 0; ; cnt++ {
		lw, ok := itW.Next()
		if !ok {
			break
		}
		lq, _ := itQ.Next()
		lc, _ := itC.Next()

		waveLvl = [2]int{maxLvl - cnt, maxLvl}
		res = PartitionSeries(lw, lq, lc, wue, false)

		if res.Root.Valid {
			if adjustFluxesToTotals {
				res.Fluxes = adjustFluxes(res.Fluxes, wue, fqTot, fcTot)
				res.Valid, res.Message = isValidPartition(res.Fluxes)
			}
			if res.Valid {
				break
			}
		}
	}

	res.WaveLvl = waveLvl
	if !res.Root.Valid {
		res.Valid = false
		res.Message = res.Root.Message
	}
	if !res.Valid {
		res.Fluxes = NewMassFluxes()
	}
	return res
}
