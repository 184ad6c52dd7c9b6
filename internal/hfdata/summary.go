package hfdata

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary holds interval-averaged statistics of a high-frequency window.
type Summary struct {
	T         float64 // mean air temperature, K
	P         float64 // mean pressure, Pa
	Pvap      float64 // mean vapor partial pressure, Pa
	Ustar     float64 // friction velocity, m/s
	WindW     float64 // mean vertical wind, m/s
	VarW      float64 // vertical wind variance, (m/s)^2
	RhoVapor  float64 // mean vapor density, kg/m^3
	VarVapor  float64 // vapor density variance
	RhoCO2    float64 // mean CO2 density, kg/m^3
	VarCO2    float64 // CO2 density variance
	CorrQC    float64 // correlation(q, c)
	H         float64 // sensible heat flux, W/m^2
	CovWQ     float64 // covariance(w, q), kg/m^2/s
	CovWC     float64 // covariance(w, c), kg/m^2/s
	CovWT     float64 // covariance(w, T), K m/s
	RhoDryAir float64 // mean dry air density, kg/m^3
	RhoTotAir float64 // mean total air density, kg/m^3
	N         int     // number of records
}

// Summarize computes the interval statistics of the window.
func (d *Data) Summarize() Summary {
	aveW := stat.Mean(d.W, nil)
	aveQ := stat.Mean(d.Q, nil)
	aveC := stat.Mean(d.C, nil)
	aveT := stat.Mean(d.T, nil)
	aveP := stat.Mean(d.P, nil)

	varW := stat.Variance(d.W, nil)
	varQ := stat.Variance(d.Q, nil)
	varC := stat.Variance(d.C, nil)

	covWU := stat.Covariance(d.W, d.U, nil)
	covWV := stat.Covariance(d.W, d.V, nil)
	covWQ := stat.Covariance(d.W, d.Q, nil)
	covWC := stat.Covariance(d.W, d.C, nil)
	covWT := stat.Covariance(d.W, d.T, nil)
	covQC := stat.Covariance(d.Q, d.C, nil)

	pVap := aveQ * d.phys.Rs.Vapor * aveT
	rhoDryAir := (aveP - pVap) / d.phys.Rs.DryAir / aveT
	rhoTotAir := rhoDryAir + aveQ
	cp := d.phys.Cp.DryAir * (1 + 0.84*aveQ/rhoTotAir)

	return Summary{
		T:         aveT,
		P:         aveP,
		Pvap:      pVap,
		Ustar:     math.Pow(covWU*covWU+covWV*covWV, 0.25),
		WindW:     aveW,
		VarW:      varW,
		RhoVapor:  aveQ,
		VarVapor:  varQ,
		RhoCO2:    aveC,
		VarCO2:    varC,
		CorrQC:    covQC / math.Sqrt(varQ*varC),
		H:         rhoTotAir * cp * covWT,
		CovWQ:     covWQ,
		CovWC:     covWC,
		CovWT:     covWT,
		RhoDryAir: rhoDryAir,
		RhoTotAir: rhoTotAir,
		N:         d.Len(),
	}
}
