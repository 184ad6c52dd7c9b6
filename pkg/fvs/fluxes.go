package fvs

// massFluxes reconstructs the six flux components from a valid root.
//
// When the CO2 ratio approaches -1 the division blows up to Inf/NaN;
// that is left unguarded on purpose and rejected by the sign checks in
// isValidPartition.
func massFluxes(varCp, corrCpCr float64, d WQC, wue float64, b Branch) MassFluxes {
	wcrOvWcp := co2Ratio(varCp, corrCpCr, d, b)
	wcp := d.WC / (wcrOvWcp + 1)
	wcr := d.WC - wcp
	wqt := wcp / wue
	wqe := d.WQ - wqt
	return MassFluxes{Fq: d.WQ, Fqt: wqt, Fqe: wqe, Fc: d.WC, Fcp: wcp, Fcr: wcr}
}

// isValidPartition checks the directional (sign) constraints the physical
// model requires. Every violated constraint is reported, not just the
// first.
func isValidPartition(f MassFluxes) (bool, string) {
	valid := true
	mssg := ""
	if !(f.Fqt > 0) {
		valid = false
		mssg += "Fqt <= 0; "
	}
	if !(f.Fqe > 0) {
		valid = false
		mssg += "Fqe <= 0; "
	}
	if !(f.Fcp < 0) {
		valid = false
		mssg += "Fcp >= 0; "
	}
	if !(f.Fcr > 0) {
		valid = false
		mssg += "Fcr <= 0; "
	}
	return valid, mssg
}

// adjustFluxes rescales partitioned fluxes obtained from filtered data so
// the totals match the unfiltered net fluxes fqTot and fcTot. The water
// discrepancy is distributed between evaporation and transpiration in
// proportion to their filtered-data magnitudes; the CO2 side is then
// recomputed from the adjusted transpiration because wue is treated as
// authoritative.
func adjustFluxes(f MassFluxes, wue, fqTot, fcTot float64) MassFluxes {
	fqDiff := fqTot - (f.Fqe + f.Fqt)
	fqe := f.Fqe + fqDiff*(f.Fqe/(f.Fqt+f.Fqe))
	fqt := fqTot - fqe
	fcp := wue * fqt
	fcr := fcTot - fcp
	return MassFluxes{Fq: fqTot, Fqt: fqt, Fqe: fqe, Fc: fcTot, Fcp: fcp, Fcr: fcr}
}
