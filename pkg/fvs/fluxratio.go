package fvs

import "math"

// fluxRatio solves the flux-ratio quadratic for the nonstomatal:stomatal
// ratio of one species. num is var_c for CO2 or wue^2*var_q for water;
// sign selects the quadratic root (+1 or -1). Returns NaN when the
// discriminant is negative, meaning the quadratic has no real solution at
// this operating point. That is an expected outcome, not an error: the
// caller lets the NaN propagate into the sign checks.
func fluxRatio(varCp, corrCpCr, num, sign float64) float64 {
	r2 := corrCpCr * corrCpCr
	disc := 1 - 1/r2 + num/varCp/r2
	if disc < 0 {
		return math.NaN()
	}
	return r2 * (sign*math.Sqrt(disc) - 1)
}

// co2Ratio returns wcr/wcp for the given quadratic branch.
func co2Ratio(varCp, corrCpCr float64, d WQC, b Branch) float64 {
	sign := -1.0
	if b == BranchPlus {
		sign = 1.0
	}
	return fluxRatio(varCp, corrCpCr, d.VarC, sign)
}

// h2oRatio returns wqe/wqt. Only the '+' root is physical: the '-' root
// cannot yield the positive ratio the model requires.
func h2oRatio(varCp, corrCpCr float64, d WQC, wue float64) float64 {
	return fluxRatio(varCp, corrCpCr, wue*wue*d.VarQ, 1.0)
}
