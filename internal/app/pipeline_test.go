package app

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/micromet/fvspart/internal/constants"
	"github.com/micromet/fvspart/internal/database"
	"github.com/micromet/fvspart/internal/hfdata"
	"github.com/micromet/fvspart/pkg/config"
)

func TestReaderOptions(t *testing.T) {
	cfg := &config.ConfigData{
		Input: config.InputData{
			Delimiter: ";",
			SkipRows:  4,
			Cols:      map[string]int{"w": 1, "q": 2, "c": 3},
			Flags:     map[string]config.FlagData{"diag": {Col: "9", GoodValue: "0"}},
			Converters: map[string]config.ConverterData{
				"q": {Gain: 1e-3},
				"T": {Offset: 273.15},
			},
		},
	}

	opts, err := readerOptions(cfg)
	if err != nil {
		t.Fatalf("readerOptions: %v", err)
	}
	if opts.Comma != ';' {
		t.Errorf("comma = %q", opts.Comma)
	}
	if opts.SkipRows != 4 {
		t.Errorf("skip rows = %d", opts.SkipRows)
	}
	// w is index 2 in canonical order u,v,w,q,c,T,P
	if opts.Cols[2] != 1 || opts.Cols[3] != 2 || opts.Cols[4] != 3 {
		t.Errorf("cols = %v", opts.Cols)
	}
	// unconfigured columns keep the defaults
	if opts.Cols[0] != 2 {
		t.Errorf("u col = %d, want default 2", opts.Cols[0])
	}
	if len(opts.Flags) != 1 || opts.Flags[0].Col != 9 {
		t.Errorf("flags = %+v", opts.Flags)
	}
	if opts.Converters["q"].Gain != 1e-3 {
		t.Errorf("q gain = %v", opts.Converters["q"].Gain)
	}
	// offset-only converters default to unit gain
	if opts.Converters["T"].Gain != 1 || opts.Converters["T"].Offset != 273.15 {
		t.Errorf("T converter = %+v", opts.Converters["T"])
	}
}

func TestReaderOptionsBadFlagColumn(t *testing.T) {
	cfg := &config.ConfigData{
		Input: config.InputData{
			Flags: map[string]config.FlagData{"diag": {Col: "nine", GoodValue: "0"}},
		},
	}
	if _, err := readerOptions(cfg); err == nil {
		t.Fatal("expected error for non-numeric flag column")
	}
}

func TestSamplesPerInterval(t *testing.T) {
	cfg := &config.ConfigData{Input: config.InputData{Hz: 20, Interval: "30m"}}
	n, err := samplesPerInterval(cfg)
	if err != nil {
		t.Fatalf("samplesPerInterval: %v", err)
	}
	if n != 36000 {
		t.Errorf("n = %d, want 36000", n)
	}

	// defaults: 10 Hz, 30 minute interval
	n, err = samplesPerInterval(&config.ConfigData{})
	if err != nil {
		t.Fatalf("samplesPerInterval: %v", err)
	}
	if n != 18000 {
		t.Errorf("n = %d, want 18000", n)
	}
}

func TestFileStartTime(t *testing.T) {
	cfg := &config.ConfigData{Input: config.InputData{TimeLayout: "20060102_1504"}}
	got := fileStartTime(cfg, "/data/ec/TOA5_site7_20240714_1000.dat")
	want := time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestIntervalBounds(t *testing.T) {
	fileStart := time.Date(2024, 7, 14, 10, 0, 0, 0, time.UTC)
	start, end := intervalBounds(fileStart, 30*time.Minute, 2)
	if !start.Equal(fileStart.Add(time.Hour)) || !end.Equal(fileStart.Add(90*time.Minute)) {
		t.Errorf("bounds = %v .. %v", start, end)
	}
}

// lcgSeries matches the generator used by the partitioning tests
func lcgSeries(seed int64, n int, qsign float64) (w, q, c []float64) {
	x := seed
	next := func() float64 {
		x = (1103515245*x + 12345) % (1 << 31)
		return float64(x)/float64(int64(1)<<31) - 0.5
	}
	w = make([]float64, n)
	q = make([]float64, n)
	c = make([]float64, n)
	for i := 0; i < n; i++ {
		e1, e2, e3 := next(), next(), next()
		w[i] = 0.4 * e1
		q[i] = 9.5e-3 + qsign*1e-3*e1 + 2e-4*e2
		c[i] = 6.8e-4 - 1.2e-5*e1 + 2e-6*e3
	}
	return w, q, c
}

func testWindow(n int) *hfdata.Data {
	w, q, c := lcgSeries(1, n, 1)
	u := make([]float64, n)
	v := make([]float64, n)
	T := make([]float64, n)
	p := make([]float64, n)
	for i := 0; i < n; i++ {
		u[i] = 1.3
		v[i] = 0.2
		T[i] = 298.15
		p[i] = 101325
	}
	return hfdata.New(u, v, w, q, c, T, p, nil, constants.DefaultPhysical())
}

func baseConfig() *config.ConfigData {
	return &config.ConfigData{
		Site:      config.SiteData{Name: "maize-field-07", Latitude: 40, Longitude: -105},
		Partition: config.PartitionData{WUE: -8e-3, AdjustFluxes: true, SkipNighttime: true},
	}
}

func TestProcessIntervalNighttimeSkip(t *testing.T) {
	cfg := baseConfig()
	// 07:00 UTC is the middle of the night at 40N 105W
	rec := database.PartitionRecord{
		Start: time.Date(2024, 7, 14, 6, 45, 0, 0, time.UTC),
		End:   time.Date(2024, 7, 14, 7, 15, 0, 0, time.UTC),
	}

	got := processInterval(cfg, testWindow(1024), rec)
	if got.Daytime {
		t.Fatal("interval misclassified as daytime")
	}
	if got.Valid {
		t.Error("nighttime record should not claim a valid partition")
	}
	if !strings.Contains(got.Message, "nighttime") {
		t.Errorf("message = %q", got.Message)
	}
	if got.Fq != got.CovWQ || got.Fc != got.CovWC {
		t.Error("net fluxes should equal the covariances")
	}
	if !math.IsNaN(got.Fqt) || !math.IsNaN(got.Fcr) {
		t.Error("partition components should be NaN when skipped")
	}
}

func TestProcessIntervalDaytime(t *testing.T) {
	cfg := baseConfig()
	rec := database.PartitionRecord{
		Start: time.Date(2024, 7, 14, 18, 45, 0, 0, time.UTC),
		End:   time.Date(2024, 7, 14, 19, 15, 0, 0, time.UTC),
	}

	got := processInterval(cfg, testWindow(1024), rec)
	if !got.Daytime {
		t.Fatal("interval misclassified as nighttime")
	}
	if got.WUE != -8e-3 {
		t.Errorf("wue = %v", got.WUE)
	}
	switch got.RootBranch {
	case "minus", "plus", "none":
	default:
		t.Errorf("root branch = %q", got.RootBranch)
	}
	if !got.Valid && got.Message == "" {
		t.Error("invalid partition must carry a message")
	}
	if got.Valid && (math.IsNaN(got.Fqt) || math.IsNaN(got.Fcp)) {
		t.Error("valid partition must carry finite component fluxes")
	}
}

func TestProcessIntervalCleanseRejection(t *testing.T) {
	cfg := baseConfig()
	cfg.Input.RdTol = 0.99
	win := testWindow(1024)
	win.Q[512] = math.NaN()

	rec := database.PartitionRecord{
		Start: time.Date(2024, 7, 14, 18, 45, 0, 0, time.UTC),
		End:   time.Date(2024, 7, 14, 19, 15, 0, 0, time.UTC),
	}

	got := processInterval(cfg, win, rec)
	if got.Valid {
		t.Error("rejected window should not be valid")
	}
	if !strings.Contains(got.Message, "rejected") {
		t.Errorf("message = %q", got.Message)
	}
	if !math.IsNaN(got.Fq) || !math.IsNaN(got.Fqt) {
		t.Error("fluxes should be NaN for a rejected window")
	}
}
