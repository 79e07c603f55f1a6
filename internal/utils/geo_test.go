package utils

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "Same point",
			lat1: 25.03, lon1: 121.53,
			lat2: 25.03, lon2: 121.53,
			want:      0,
			tolerance: 1e-9,
		},
		{
			name: "Taipei to Kaohsiung",
			lat1: 25.033, lon1: 121.5654,
			lat2: 22.6273, lon2: 120.3014,
			want:      296,
			tolerance: 3,
		},
		{
			name: "Short hop within a district",
			lat1: 25.0330, lon1: 121.5300,
			lat2: 25.0420, lon2: 121.5430,
			want:      1.66,
			tolerance: 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f ± %f", got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestHaversineKmSymmetry(t *testing.T) {
	a := HaversineKm(25.03, 121.53, 24.14, 120.68)
	b := HaversineKm(24.14, 120.68, 25.03, 121.53)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", a, b)
	}
}
