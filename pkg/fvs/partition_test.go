package fvs

import (
	"math"
	"strings"
	"testing"
)

// lcgSeries generates deterministic pseudo-turbulent (w, q, c) series for
// tests. q is transported upward with w (qsign > 0) and c downward, the
// typical daytime configuration; qsign = -1 flips the water flux so no
// valid partition exists at any scale.
func lcgSeries(seed int64, n int, qsign float64) (w, q, c []float64) {
	x := seed
	next := func() float64 {
		x = (1103515245*x + 12345) % 2147483648
		return float64(x)/2147483648.0 - 0.5
	}
	w = make([]float64, n)
	q = make([]float64, n)
	c = make([]float64, n)
	for i := 0; i < n; i++ {
		ww := next()
		rq := next()
		rc := next()
		w[i] = ww
		q[i] = 1e-2 + qsign*2e-3*ww + 1e-3*rq
		c[i] = 7e-4 - 5e-6*ww + 3e-6*rc - 2e-6*rq
	}
	return w, q, c
}

func TestPartitionValid(t *testing.T) {
	d := WQC{WQ: 1.0e-4, WC: -1.0e-6, VarQ: 1.0e-7, VarC: 1.0e-11, CorrQC: -0.7}
	res := Partition(d, -12e-3, false)
	if !res.Valid {
		t.Fatalf("Valid = false (%q), want true", res.Message)
	}
	want := MassFluxes{
		Fq:  1.0e-4,
		Fqt: 9.090909090909088e-05,
		Fqe: 9.090909090909128e-06,
		Fc:  -1.0e-6,
		Fcp: -1.0909090909090906e-06,
		Fcr: 9.09090909090906e-08,
	}
	checkFluxes(t, res.Fluxes, want, 1e-9)
	if !(res.Fluxes.Fqt > 0 && res.Fluxes.Fqe > 0 && res.Fluxes.Fcp < 0 && res.Fluxes.Fcr > 0) {
		t.Errorf("valid partition violates sign constraints: %+v", res.Fluxes)
	}
}

func TestPartitionPositiveWueIsInvalid(t *testing.T) {
	// A positive wue breaks the sign convention. The root solve still
	// produces numbers, but the reconstructed fluxes point the wrong way
	// and the partition must come back invalid.
	d := WQC{WQ: 2e-3, WC: -4e-6, VarQ: 1e-6, VarC: 1e-10, CorrQC: -0.6}
	res := Partition(d, 10e-3, false)
	if res.Valid {
		t.Fatalf("Valid = true for wue > 0, want false")
	}
	if !strings.Contains(res.Message, "Fcp") && !strings.Contains(res.Message, "Fcr") {
		t.Errorf("Message = %q, want a violated sign constraint named", res.Message)
	}
}

func TestPartitionAccumulatesAllViolations(t *testing.T) {
	// The analytic-root summary yields Fqe < 0: every violated constraint
	// must be named, and only the violated ones.
	d := WQC{WQ: 2e-3, WC: -4e-6, VarQ: 1e-6, VarC: 1e-10, CorrQC: -0.6}
	res := Partition(d, -10e-3, false)
	if res.Valid {
		t.Fatalf("Valid = true, want false")
	}
	if !strings.Contains(res.Message, "Fqe <= 0") {
		t.Errorf("Message = %q, want it to name Fqe <= 0", res.Message)
	}
	if strings.Contains(res.Message, "Fqt") || strings.Contains(res.Message, "Fcp") || strings.Contains(res.Message, "Fcr") {
		t.Errorf("Message = %q, names constraints that were not violated", res.Message)
	}
	// Without wipeIfInvalid the fluxes are reported as computed.
	if math.IsNaN(res.Fluxes.Fqt) {
		t.Error("Fluxes wiped without wipeIfInvalid")
	}
}

func TestPartitionWipeIfInvalid(t *testing.T) {
	d := WQC{WQ: 2e-3, WC: -4e-6, VarQ: 1e-6, VarC: 1e-10, CorrQC: -0.6}
	res := Partition(d, -10e-3, true)
	if res.Valid {
		t.Fatalf("Valid = true, want false")
	}
	for name, v := range map[string]float64{
		"Fq": res.Fluxes.Fq, "Fqt": res.Fluxes.Fqt, "Fqe": res.Fluxes.Fqe,
		"Fc": res.Fluxes.Fc, "Fcp": res.Fluxes.Fcp, "Fcr": res.Fluxes.Fcr,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v after wipe, want NaN", name, v)
		}
	}
}

func TestPartitionSeries(t *testing.T) {
	w, q, c := lcgSeries(1, 1024, 1)
	res := PartitionSeries(w, q, c, -8e-3, false)
	if !res.Valid {
		t.Fatalf("Valid = false (%q), want true", res.Message)
	}
	if res.Root.Branch != BranchPlus {
		t.Errorf("Branch = %v, want BranchPlus", res.Root.Branch)
	}
	if relDiff(res.Root.CorrCpCr, -0.947909027932895) > 1e-6 {
		t.Errorf("CorrCpCr = %v, want approx -0.9479090279", res.Root.CorrCpCr)
	}
	want := MassFluxes{
		Fq:  0.00017127960391162834,
		Fqt: 0.00012233312580936783,
		Fqe: 4.8946478102260515e-05,
		Fc:  -4.2509616702660243e-07,
		Fcp: -9.786650064749425e-07,
		Fcr: 5.535688394483401e-07,
	}
	checkFluxes(t, res.Fluxes, want, 1e-6)
}

func TestPartitionSeriesIdempotent(t *testing.T) {
	w, q, c := lcgSeries(1, 1024, 1)
	a := PartitionSeries(w, q, c, -8e-3, false)
	b := PartitionSeries(w, q, c, -8e-3, false)
	if a != b {
		t.Errorf("repeated PartitionSeries calls disagree:\n%+v\n%+v", a, b)
	}
}

// driftedSeries layers a large-scale plateau drift onto q so the
// unfiltered covariances are contaminated; the drift is constant over
// blocks of 256 samples, so two low-cut passes remove it entirely.
func driftedSeries(t *testing.T) (w, q, c []float64) {
	t.Helper()
	w, q, c = lcgSeries(3, 1024, 1)
	for i := range q {
		if (i/256)%2 == 0 {
			q[i] += 5e-3
		} else {
			q[i] -= 5e-3
		}
	}
	return w, q, c
}

func TestPartitionProgressive(t *testing.T) {
	w, q, c := driftedSeries(t)
	res := PartitionProgressive(w, q, c, -8e-3, true)
	if !res.Valid {
		t.Fatalf("Valid = false (%q), want true", res.Message)
	}
	if res.WaveLvl != [2]int{8, 10} {
		t.Errorf("WaveLvl = %v, want [8 10]", res.WaveLvl)
	}
	want := MassFluxes{
		Fq:  0.00012021325044109186,
		Fqt: 9.079366975282617e-05,
		Fqe: 2.94195806882657e-05,
		Fc:  -4.309465053994937e-07,
		Fcp: -7.263493580226094e-07,
		Fcr: 2.9540285262311564e-07,
	}
	checkFluxes(t, res.Fluxes, want, 1e-6)
}

// Adjusted fluxes must conserve the original unfiltered totals even
// though the accepted solve ran on filtered data.
func TestPartitionProgressiveConservesTotals(t *testing.T) {
	w, q, c := driftedSeries(t)
	fqTot := covariance(w, q)
	fcTot := covariance(w, c)

	res := PartitionProgressive(w, q, c, -8e-3, true)
	if !res.Valid {
		t.Fatalf("Valid = false (%q), want true", res.Message)
	}
	if relDiff(res.Fluxes.Fqt+res.Fluxes.Fqe, fqTot) > 1e-12 {
		t.Errorf("Fqt+Fqe = %v, want %v", res.Fluxes.Fqt+res.Fluxes.Fqe, fqTot)
	}
	if relDiff(res.Fluxes.Fcp+res.Fluxes.Fcr, fcTot) > 1e-12 {
		t.Errorf("Fcp+Fcr = %v, want %v", res.Fluxes.Fcp+res.Fluxes.Fcr, fcTot)
	}
}

func TestPartitionProgressiveUnadjusted(t *testing.T) {
	w, q, c := driftedSeries(t)
	res := PartitionProgressive(w, q, c, -8e-3, false)
	if !res.Valid {
		t.Fatalf("Valid = false (%q), want true", res.Message)
	}
	if res.WaveLvl != [2]int{8, 10} {
		t.Errorf("WaveLvl = %v, want [8 10]", res.WaveLvl)
	}
	// Unadjusted fluxes reflect the filtered covariances, not the totals.
	want := MassFluxes{
		Fq:  0.000172110149727801,
		Fqt: 0.0001299899307119467,
		Fqe: 4.212021901585429e-05,
		Fc:  -4.295147659112476e-07,
		Fcp: -1.0399194456955736e-06,
		Fcr: 6.104046797843261e-07,
	}
	checkFluxes(t, res.Fluxes, want, 1e-6)
}

// An uncontaminated series that solves at the first pass must report the
// full decomposition window: the loop may not look past the first valid
// level.
func TestPartitionProgressiveStopsAtFirstValidLevel(t *testing.T) {
	w, q, c := lcgSeries(1, 1024, 1)
	res := PartitionProgressive(w, q, c, -8e-3, true)
	if !res.Valid {
		t.Fatalf("Valid = false (%q), want true", res.Message)
	}
	if res.WaveLvl != [2]int{10, 10} {
		t.Errorf("WaveLvl = %v, want [10 10]", res.WaveLvl)
	}
}

func TestPartitionProgressiveExhaustion(t *testing.T) {
	// Downward water flux: Fqt + Fqe can never both be positive, so no
	// decomposition level validates.
	w, q, c := lcgSeries(5, 1024, -1)
	res := PartitionProgressive(w, q, c, -8e-3, true)
	if res.Valid {
		t.Fatalf("Valid = true, want false")
	}
	if res.WaveLvl != [2]int{0, 10} {
		t.Errorf("WaveLvl = %v, want [0 10] (decomposition exhausted)", res.WaveLvl)
	}
	if res.Message == "" {
		t.Error("Message is empty for exhausted decomposition")
	}
	for name, v := range map[string]float64{
		"Fq": res.Fluxes.Fq, "Fqt": res.Fluxes.Fqt, "Fqe": res.Fluxes.Fqe,
		"Fc": res.Fluxes.Fc, "Fcp": res.Fluxes.Fcp, "Fcr": res.Fluxes.Fcr,
	} {
		if !math.IsNaN(v) {
			t.Errorf("%s = %v after exhaustion, want NaN", name, v)
		}
	}
}

func checkFluxes(t *testing.T, got, want MassFluxes, tol float64) {
	t.Helper()
	check := func(name string, g, w float64) {
		if relDiff(g, w) > tol {
			t.Errorf("%s = %v, want %v", name, g, w)
		}
	}
	check("Fq", got.Fq, want.Fq)
	check("Fqt", got.Fqt, want.Fqt)
	check("Fqe", got.Fqe, want.Fqe)
	check("Fc", got.Fc, want.Fc)
	check("Fcp", got.Fcp, want.Fcp)
	check("Fcr", got.Fcr, want.Fcr)
}

// covariance is a plain two-pass sample covariance used to cross-check
// conservation against the library path.
func covariance(x, y []float64) float64 {
	mx, my := 0.0, 0.0
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(len(x))
	my /= float64(len(y))
	sum := 0.0
	for i := range x {
		sum += (x[i] - mx) * (y[i] - my)
	}
	return sum / float64(len(x)-1)
}
