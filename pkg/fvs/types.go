// Package fvs partitions eddy-covariance water vapor and CO2 fluxes into
// stomatal and non-stomatal components using flux-variance similarity.
//
// The method assumes transpiration and photosynthesis are coupled through
// a fixed leaf-level water-use efficiency (wue < 0, kg CO2 / kg H2O).
// Given the covariance structure of vertical wind (w, m/s), water vapor
// density (q, kg/m^3), and CO2 density (c, kg/m^3), the two governing
// similarity equations are solved for the correlation between the
// non-stomatal and stomatal CO2 fluctuations and the variance of the
// stomatal fluctuation, from which the flux split follows in closed form.
package fvs

import "math"

// WQC holds the covariance structure of one (w, q, c) averaging window:
// the minimal sufficient statistics the root solver needs. It may be
// computed from raw series, from filtered series, or supplied directly
// from pre-aggregated interval statistics. All values are SI.
type WQC struct {
	WQ     float64 // covariance(w, q), kg/m^2/s
	WC     float64 // covariance(w, c), kg/m^2/s
	VarQ   float64 // variance(q), (kg/m^3)^2
	VarC   float64 // variance(c), (kg/m^3)^2
	CorrQC float64 // correlation(q, c)
}

// Branch identifies which root of the CO2 flux-ratio quadratic satisfied
// the governing equations.
type Branch int

const (
	// BranchNone indicates no branch satisfied the equations.
	BranchNone Branch = iota
	// BranchMinus is the '-' root of the quadratic.
	BranchMinus
	// BranchPlus is the '+' root of the quadratic.
	BranchPlus
)

func (b Branch) String() string {
	switch b {
	case BranchMinus:
		return "minus"
	case BranchPlus:
		return "plus"
	default:
		return "none"
	}
}

// RootSolution is the outcome of one root-finding attempt. When Valid is
// false the payload fields are NaN (Branch is BranchNone) and Message
// describes the failure.
type RootSolution struct {
	CorrCpCr float64 // correlation between non-stomatal and stomatal CO2 fluctuations, in (-1, 0)
	VarCp    float64 // variance of the stomatal CO2 fluctuation, > 0, (kg/m^3)^2
	SigCr    float64 // standard deviation of the non-stomatal CO2 fluctuation, kg/m^3
	Branch   Branch
	Valid    bool
	Message  string
}

// MassFluxes holds the six flux densities of a partition, kg/m^2/s.
// Sign convention is micrometeorological: uptake by the surface is
// negative, release is positive. A physically valid partition has
// Fqt > 0, Fqe > 0, Fcp < 0, Fcr > 0.
type MassFluxes struct {
	Fq  float64 // net water vapor flux
	Fqt float64 // transpiration (stomatal water) flux
	Fqe float64 // evaporation (non-stomatal water) flux
	Fc  float64 // net CO2 flux
	Fcp float64 // photosynthesis (stomatal CO2) flux
	Fcr float64 // respiration (non-stomatal CO2) flux
}

// NewMassFluxes returns a MassFluxes with every field set to NaN, the
// value used for failed or wiped partitions.
func NewMassFluxes() MassFluxes {
	nan := math.NaN()
	return MassFluxes{Fq: nan, Fqt: nan, Fqe: nan, Fc: nan, Fcp: nan, Fcr: nan}
}

// Result is the outcome of one partitioning attempt. Valid reports
// whether the partition passed the directional (sign) checks; when it is
// false, Message lists every violated constraint and Fluxes may be NaN.
// WaveLvl reports the wavelet decomposition window used by the
// progressive solver as (low, high) level indices; it is (0, 0) for
// single-window solves.
type Result struct {
	WQC     WQC
	Root    RootSolution
	Fluxes  MassFluxes
	Valid   bool
	Message string
	WaveLvl [2]int
}
