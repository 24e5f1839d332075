package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBRRate(t *testing.T) {
	tests := []struct {
		name    string
		a, b, r int
		want    float64
	}{
		{name: "typical day", a: 950, b: 30, r: 20, want: 5.00},
		{name: "all A", a: 1000, b: 0, r: 0, want: 0},
		{name: "all rejected", a: 0, b: 0, r: 50, want: 100},
		{name: "zero graded units", a: 0, b: 0, r: 0, want: 0},
		{name: "rounds half away from zero", a: 1597, b: 2, r: 2, want: 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BRRate(tt.a, tt.b, tt.r))
		})
	}
}

func TestYieldRate(t *testing.T) {
	assert.Equal(t, 95.00, YieldRate(950, 30, 20))
	assert.Equal(t, 0.0, YieldRate(0, 0, 0))
}

func TestBRRateAndYieldRateAreComplementary(t *testing.T) {
	tests := []struct {
		a, b, r int
	}{
		{950, 30, 20},
		{1, 1, 1},
		{333, 333, 334},
	}
	for _, tt := range tests {
		sum := BRRate(tt.a, tt.b, tt.r) + YieldRate(tt.a, tt.b, tt.r)
		assert.InDelta(t, 100, sum, 0.011, "BR + yield should cover all graded units")
	}
}

func TestDefectRate(t *testing.T) {
	assert.Equal(t, 12.50, DefectRate(25, 200))
	assert.Equal(t, 0.0, DefectRate(0, 0), "zero inspections never divides by zero")
	assert.Equal(t, 150.0, DefectRate(3, 2), "multiple defects per inspection can exceed 100")
}
