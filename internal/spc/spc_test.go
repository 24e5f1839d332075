package spc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeControlLimits(t *testing.T) {
	t.Run("empty series", func(t *testing.T) {
		limits := ComputeControlLimits(nil)
		assert.Zero(t, limits.Mean)
		assert.Zero(t, limits.UCL)
		assert.Zero(t, limits.LCL)
	})

	t.Run("constant series collapses to the mean", func(t *testing.T) {
		limits := ComputeControlLimits([]float64{5, 5, 5, 5})
		assert.Equal(t, 5.0, limits.Mean)
		assert.Equal(t, 0.0, limits.Sigma)
		assert.Equal(t, 5.0, limits.UCL)
		assert.Equal(t, 5.0, limits.LCL)
	})

	t.Run("three sigma band", func(t *testing.T) {
		limits := ComputeControlLimits([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		assert.Equal(t, 5.0, limits.Mean)
		assert.Equal(t, 2.0, limits.Sigma)
		assert.Equal(t, 11.0, limits.UCL)
		assert.Equal(t, 0.0, limits.LCL, "LCL is floored at zero for rate data")
	})
}

func TestProcessCapability(t *testing.T) {
	t.Run("centered process", func(t *testing.T) {
		// Mean 10, population sigma 0.1, limits 9.5..10.5: Cp = Cpk =
		// 1/0.6 rounded.
		series := []float64{9.9, 10.1, 9.9, 10.1, 9.9, 10.1, 9.9, 10.1}
		cap := ProcessCapability(series, 9.5, 10.5)
		assert.Equal(t, 1.67, cap.Cp)
		assert.Equal(t, 1.67, cap.Cpk)
		assert.Equal(t, "good", cap.Interpretation)
	})

	t.Run("zero variance reports insufficient data", func(t *testing.T) {
		cap := ProcessCapability([]float64{10, 10, 10}, 9.5, 10.5)
		assert.Zero(t, cap.Cp)
		assert.Zero(t, cap.Cpk)
		assert.Equal(t, "insufficient data", cap.Interpretation)
	})

	t.Run("empty series reports insufficient data", func(t *testing.T) {
		cap := ProcessCapability(nil, 9.5, 10.5)
		assert.Equal(t, "insufficient data", cap.Interpretation)
	})

	t.Run("off-center process has Cpk below Cp", func(t *testing.T) {
		series := []float64{10.3, 10.5, 10.3, 10.5, 10.3, 10.5}
		cap := ProcessCapability(series, 9.5, 10.5)
		assert.Less(t, cap.Cpk, cap.Cp)
	})
}

func TestInterpretCpk(t *testing.T) {
	assert.Equal(t, "excellent", interpretCpk(2.1))
	assert.Equal(t, "excellent", interpretCpk(2.0))
	assert.Equal(t, "good", interpretCpk(1.5))
	assert.Equal(t, "adequate", interpretCpk(1.0))
	assert.Equal(t, "poor", interpretCpk(0.9))
}

func TestComputeXBarR(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("fewer than two days yields empty chart", func(t *testing.T) {
		chart := ComputeXBarR([]Measurement{
			{Day: day(1), Value: 9.5},
			{Day: day(1), Value: 9.7},
		})
		assert.Empty(t, chart.XBar)
		assert.Empty(t, chart.R)
	})

	t.Run("daily subgroups", func(t *testing.T) {
		chart := ComputeXBarR([]Measurement{
			{Day: day(1), Value: 9.4}, {Day: day(1), Value: 9.6},
			{Day: day(2), Value: 9.5}, {Day: day(2), Value: 9.9},
			{Day: day(3), Value: 9.6}, {Day: day(3), Value: 9.8},
		})

		require.Len(t, chart.XBar, 3)
		require.Len(t, chart.R, 3)
		assert.Equal(t, 2, chart.SubgroupSize)

		assert.InDelta(t, 9.5, chart.XBar[0].Value, 1e-9)
		assert.InDelta(t, 0.2, chart.R[0].Value, 1e-9)
		assert.InDelta(t, 9.633, chart.XBarCenter, 0.001)
		assert.InDelta(t, 0.267, chart.RCenter, 0.001)

		// n=2 constants: A2=1.880, D3=0, D4=3.267.
		assert.InDelta(t, chart.XBarCenter+1.880*chart.RCenter, chart.XBarUCL, 1e-9)
		assert.InDelta(t, chart.XBarCenter-1.880*chart.RCenter, chart.XBarLCL, 1e-9)
		assert.InDelta(t, 3.267*chart.RCenter, chart.RUCL, 1e-9)
		assert.Zero(t, chart.RLCL)
	})
}
