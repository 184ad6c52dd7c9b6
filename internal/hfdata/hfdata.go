// Package hfdata handles high-frequency eddy covariance time series data.
//
// Variable naming follows the usual micrometeorological notation, SI
// units throughout:
//
//	u, v, w = wind velocities (m/s)
//	q = water vapor mass concentration (kg/m^3)
//	c = carbon dioxide mass concentration (kg/m^3)
//	T = air temperature (K)
//	P = total air pressure (Pa)
package hfdata

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/micromet/fvspart/internal/constants"
	"github.com/micromet/fvspart/pkg/lowcut"
)

// VarNames lists the seven data variables in canonical order.
var VarNames = []string{"u", "v", "w", "q", "c", "T", "P"}

// Default cleansing tolerances, used when the caller passes a
// non-positive value.
const (
	DefaultRdTol = 0.5
	DefaultAdTol = 1024
)

// Data holds one window of high-frequency records in columnar form.
// mask[i] is true when record i failed a read, flag, or bounds check.
type Data struct {
	U, V, W, Q, C, T, P []float64

	mask      []bool
	corrected bool
	phys      constants.Physical
}

// TooFewDataError reports that a window was read but rejected because the
// longest contiguous run of valid records was too short.
type TooFewDataError struct {
	DataFrac float64
	RdTol    float64
	RunLen   int
	AdTol    int
}

func (e *TooFewDataError) Error() string {
	return fmt.Sprintf(
		"data read but rejected because the longest continuous run of valid "+
			"records was too short on a relative (%.4g < rd_tol = %.4g) and/or "+
			"absolute basis (run length %d < ad_tol = %d)",
		e.DataFrac, e.RdTol, e.RunLen, e.AdTol)
}

// New wraps columnar series data. All slices must have equal length.
func New(u, v, w, q, c, T, p []float64, mask []bool, phys constants.Physical) *Data {
	if mask == nil {
		mask = make([]bool, len(w))
	}
	return &Data{U: u, V: v, W: w, Q: q, C: c, T: T, P: p, mask: mask, phys: phys}
}

// Len returns the number of records currently held.
func (d *Data) Len() int { return len(d.W) }

func (d *Data) columns() [][]float64 {
	return [][]float64{d.U, d.V, d.W, d.Q, d.C, d.T, d.P}
}

// Bounds prescribes the legal range for one variable; records outside it
// are rejected during Cleanse.
type Bounds struct {
	Lower float64
	Upper float64
}

// Cleanse rejects bad records and keeps only the longest contiguous run
// of good data. A record is bad when any variable is NaN, its flag
// column marked it, or a variable violates its prescribed bounds. The
// window is rejected outright (TooFewDataError) when the surviving run
// is shorter than rdTol as a fraction of the total or shorter than adTol
// records. Non-positive tolerances fall back to DefaultRdTol and
// DefaultAdTol.
func (d *Data) Cleanse(bounds map[string]Bounds, rdTol float64, adTol int) error {
	if rdTol <= 0 {
		rdTol = DefaultRdTol
	}
	if adTol <= 0 {
		adTol = DefaultAdTol
	}
	n := d.Len()
	for i := 0; i < n; i++ {
		if d.mask[i] {
			continue
		}
		for _, col := range d.columns() {
			if math.IsNaN(col[i]) {
				d.mask[i] = true
				break
			}
		}
	}
	for name, b := range bounds {
		col := d.column(name)
		if col == nil {
			return fmt.Errorf("hfdata: unknown bounds variable %q", name)
		}
		for i := 0; i < n; i++ {
			if col[i] < b.Lower || col[i] > b.Upper {
				d.mask[i] = true
			}
		}
	}

	start, length := longestRun(d.mask)
	frac := 0.0
	if n > 0 {
		frac = float64(length) / float64(n)
	}
	if frac < rdTol || length < adTol {
		return &TooFewDataError{DataFrac: frac, RdTol: rdTol, RunLen: length, AdTol: adTol}
	}

	d.slice(start, start+length)
	return nil
}

func (d *Data) column(name string) []float64 {
	switch name {
	case "u":
		return d.U
	case "v":
		return d.V
	case "w":
		return d.W
	case "q":
		return d.Q
	case "c":
		return d.C
	case "T":
		return d.T
	case "P":
		return d.P
	}
	return nil
}

func (d *Data) slice(lo, hi int) {
	d.U = d.U[lo:hi]
	d.V = d.V[lo:hi]
	d.W = d.W[lo:hi]
	d.Q = d.Q[lo:hi]
	d.C = d.C[lo:hi]
	d.T = d.T[lo:hi]
	d.P = d.P[lo:hi]
	d.mask = d.mask[lo:hi]
}

// longestRun finds the longest stretch of false values in mask.
func longestRun(mask []bool) (start, length int) {
	curStart, curLen := 0, 0
	for i, bad := range mask {
		if bad {
			curLen = 0
			continue
		}
		if curLen == 0 {
			curStart = i
		}
		curLen++
		if curLen > length {
			start, length = curStart, curLen
		}
	}
	return start, length
}

// CorrectExternal adjusts the q and c series for external density
// fluctuations associated with air temperature and vapor density (the
// WPL terms). Applied at most once per window.
func (d *Data) CorrectExternal() {
	if d.corrected {
		return
	}
	aveVapor := stat.Mean(d.Q, nil)
	aveCO2 := stat.Mean(d.C, nil)
	aveT := stat.Mean(d.T, nil)

	pDryAir := stat.Mean(d.P, nil) - aveVapor*d.phys.Rs.Vapor*aveT
	rhoTotAir := aveVapor + pDryAir/d.phys.Rs.DryAir/aveT

	specificVapor := aveVapor / rhoTotAir
	specificCO2 := aveCO2 / rhoTotAir
	mu := d.phys.MW.DryAir / d.phys.MW.Vapor
	muq := mu * specificVapor
	muc := mu * specificCO2

	for i := range d.Q {
		devVapor := d.Q[i] - aveVapor
		devT := d.T[i] - aveT
		d.Q[i] += muq*devVapor + (1+muq)*aveVapor*devT/aveT
		d.C[i] += muc*devVapor + (1+muq)*aveCO2*devT/aveT
	}
	d.corrected = true
}

// TruncatePow2 shortens the window to the largest power-of-two length,
// as required by the multiresolution filter.
func (d *Data) TruncatePow2() {
	n := lowcut.MaxPow2(d.Len())
	d.slice(0, n)
}

// Split carves the window into consecutive sub-windows of n records. A
// trailing remainder shorter than n is dropped. The sub-windows share the
// underlying arrays with d.
func (d *Data) Split(n int) []*Data {
	if n < 1 || d.Len() < n {
		return nil
	}
	var out []*Data
	for lo := 0; lo+n <= d.Len(); lo += n {
		hi := lo + n
		out = append(out, &Data{
			U: d.U[lo:hi], V: d.V[lo:hi], W: d.W[lo:hi],
			Q: d.Q[lo:hi], C: d.C[lo:hi], T: d.T[lo:hi], P: d.P[lo:hi],
			mask:      d.mask[lo:hi],
			corrected: d.corrected,
			phys:      d.phys,
		})
	}
	return out
}
