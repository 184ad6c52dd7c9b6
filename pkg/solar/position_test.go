package solar

import (
	"math"
	"testing"
	"time"
)

func TestCalculatePosition(t *testing.T) {
	tests := []struct {
		name       string
		lat, lon   float64
		t          time.Time
		elevMinDeg float64
		elevMaxDeg float64
	}{
		{
			name: "equator near equinox noon, sun near zenith",
			lat:  0.0, lon: 0.0,
			t:          time.Date(2021, 3, 20, 12, 0, 0, 0, time.UTC),
			elevMinDeg: 85, elevMaxDeg: 90.6,
		},
		{
			name: "mid-latitude summer noon",
			lat:  45.0, lon: 0.0,
			t:          time.Date(2021, 6, 21, 12, 0, 0, 0, time.UTC),
			elevMinDeg: 65, elevMaxDeg: 72,
		},
		{
			name: "mid-latitude midnight, sun well below horizon",
			lat:  45.0, lon: 0.0,
			t:          time.Date(2021, 6, 21, 0, 0, 0, 0, time.UTC),
			elevMinDeg: -30, elevMaxDeg: -15,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CalculatePosition(tt.lat, tt.lon, tt.t)
			if p.ElevationDeg < tt.elevMinDeg || p.ElevationDeg > tt.elevMaxDeg {
				t.Errorf("ElevationDeg = %v, want in [%v, %v]", p.ElevationDeg, tt.elevMinDeg, tt.elevMaxDeg)
			}
			if math.Abs(p.DeclinationDeg) > 23.5 {
				t.Errorf("DeclinationDeg = %v, outside physical range", p.DeclinationDeg)
			}
		})
	}
}

func TestIsDaytime(t *testing.T) {
	lat, lon := 40.0, -105.0 // mountain-plains flux site
	// 19:00 UTC is about local noon; 07:00 UTC is about 1 AM local.
	noonLocal := time.Date(2021, 7, 1, 19, 0, 0, 0, time.UTC)
	midnightLocal := time.Date(2021, 7, 1, 7, 0, 0, 0, time.UTC)
	if !IsDaytime(lat, lon, noonLocal) {
		t.Error("IsDaytime = false at local noon in July")
	}
	if IsDaytime(lat, lon, midnightLocal) {
		t.Error("IsDaytime = true at local 1 AM")
	}
}
