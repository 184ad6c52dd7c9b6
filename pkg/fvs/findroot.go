package fvs

import "math"

// residualTol is the absolute tolerance used when checking a candidate
// root against the two governing equations.
const residualTol = 1e-12

// FindRoot solves for (corr_cp_cr, var_cp) given the covariance structure
// of a (w, q, c) window and the leaf-level water-use efficiency
// (wue < 0, kg CO2 / kg H2O; not validated here — a non-negative value
// yields NaN results that fail the validity checks downstream).
//
// The solution comes from an algebraic rearrangement of the governing
// equations. Because the rearrangement squares terms, it can produce
// extraneous roots, so a candidate passing the necessary bounds checks
// (var_cp > 0, -1 < corr_cp_cr < 0) is accepted only after one of the
// two CO2 quadratic branches reproduces both original equations to
// within residualTol.
func FindRoot(d WQC, wue float64) RootSolution {
	// Scale dimensional quantities to comparable magnitudes before doing
	// the algebra: H2O kg->g, CO2 kg->mg.
	varQ := d.VarQ * 1e6
	varC := d.VarC * 1e12
	wq := d.WQ * 1e3
	wc := d.WC * 1e6
	corrQC := d.CorrQC
	wue = wue * 1e3

	sdQ := math.Sqrt(varQ)
	sdC := math.Sqrt(varC)

	numer := -2*corrQC*sdC*sdQ*wq*wc + varC*wq*wq + varQ*wc*wc
	numer *= -(corrQC*corrQC - 1) * varC * varQ * wue * wue
	denom := -corrQC*sdC*sdQ*(wc+wq*wue) + varC*wq + varQ*wc*wue
	denom *= denom
	varCp := numer / denom

	numer = -(corrQC*corrQC - 1) * varC * varQ * (wc - wq*wue) * (wc - wq*wue)
	denom = -2*corrQC*sdC*sdQ*wc*wq + varC*wq*wq + varQ*wc*wc
	denom *= -2*corrQC*sdC*sdQ*wue + varC + varQ*wue*wue
	rhoSq := numer / denom

	// The '+' root of the correlation is never physical.
	corrCpCr := -math.Sqrt(rhoSq)

	valid, mssg := isValidRoot(corrCpCr, varCp)

	branch := BranchNone
	sigCr := math.NaN()
	if valid {
		valid = false
		mssg = "trial root did not satisfy equations"
		scaled := WQC{WQ: wq, WC: wc, VarQ: varQ, VarC: varC, CorrQC: corrQC}

		r0a, r0b := residuals(corrCpCr, varCp, scaled, wue, BranchMinus)
		r1a, r1b := residuals(corrCpCr, varCp, scaled, wue, BranchPlus)

		if math.Abs(r0a) < residualTol && math.Abs(r0b) < residualTol {
			branch = BranchMinus
			valid = true
			mssg = ""
		}
		if math.Abs(r1a) < residualTol && math.Abs(r1b) < residualTol {
			if branch != BranchNone {
				// Algebraically only one branch can satisfy both
				// equations; hitting this means a solver defect, not bad
				// input.
				panic("fvs: both CO2 solution branches satisfied the governing equations")
			}
			branch = BranchPlus
			valid = true
			mssg = ""
		}

		if valid {
			wcrOvWcp := co2Ratio(varCp, corrCpCr, scaled, branch)
			sigCr = wcrOvWcp * math.Sqrt(varCp) / corrCpCr
		}
	}

	// Rescale back to SI.
	return RootSolution{
		CorrCpCr: corrCpCr,
		VarCp:    varCp * 1e-12,
		SigCr:    sigCr * 1e-6,
		Branch:   branch,
		Valid:    valid,
		Message:  mssg,
	}
}

// residuals evaluates the two (unsquared) governing equations at a
// candidate root, returning how far each is from zero.
func residuals(corrCpCr, varCp float64, d WQC, wue float64, b Branch) (float64, float64) {
	wcrOvWcp := co2Ratio(varCp, corrCpCr, d, b)
	wqeOvWqt := h2oRatio(varCp, corrCpCr, d, wue)

	lhs := wue * d.WQ / d.WC * (wcrOvWcp + 1)
	rhs := wqeOvWqt + 1
	resid1 := lhs - rhs

	lhs = wue * d.CorrQC * math.Sqrt(d.VarC*d.VarQ) / varCp
	rhs = 1 + wqeOvWqt + wcrOvWcp + wqeOvWqt*wcrOvWcp/(corrCpCr*corrCpCr)
	resid2 := lhs - rhs
	return resid1, resid2
}

// isValidRoot applies the necessary (but not sufficient) bounds on a
// candidate root.
func isValidRoot(corrCpCr, varCp float64) (bool, string) {
	valid := true
	mssg := ""
	if !(varCp > 0) {
		valid = false
		mssg += "var_cp <= 0; "
	}
	if !(corrCpCr > -1 && corrCpCr < 0) {
		valid = false
		mssg += "corr_cp_cr outside (-1, 0); "
	}
	return valid, mssg
}
