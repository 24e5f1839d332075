package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateSpike(t *testing.T) {
	// Stable around 2.1, then a jump well above the trailing UCL.
	series := []float64{2.0, 2.1, 2.0, 2.2, 2.1, 2.3, 4.0}

	t.Run("below the absolute threshold stays medium", func(t *testing.T) {
		d := NewDetector(8.0, nil)
		anomalies := d.Evaluate("br_rate", "L1", series)
		require.Len(t, anomalies, 1)

		a := anomalies[0]
		assert.Equal(t, KindSpike, a.Kind)
		assert.Equal(t, SeverityMedium, a.Severity)
		assert.Equal(t, 0.7, a.Confidence)
		assert.Equal(t, "br_rate", a.Metric)
		assert.Equal(t, "L1", a.LineCode)
		assert.Equal(t, 4.0, a.CurrentValue)
		assert.InDelta(t, 2.12, a.ExpectedValue, 0.001)
		assert.NotEmpty(t, a.Causes)
		assert.NotEmpty(t, a.Actions)
	})

	t.Run("above the absolute threshold escalates to high", func(t *testing.T) {
		d := NewDetector(3.0, nil)
		anomalies := d.Evaluate("br_rate", "L1", series)
		require.Len(t, anomalies, 1)
		assert.Equal(t, SeverityHigh, anomalies[0].Severity)
		assert.Equal(t, 0.9, anomalies[0].Confidence)
	})
}

func TestEvaluateDrift(t *testing.T) {
	// Slowly rising for a full week, but each step within the control
	// band, so only the drift rule fires.
	series := []float64{2.0, 2.1, 2.1, 2.2, 2.3, 2.4, 2.5}

	d := NewDetector(8.0, nil)
	anomalies := d.Evaluate("br_rate", "L2", series)
	require.Len(t, anomalies, 1)

	a := anomalies[0]
	assert.Equal(t, KindDrift, a.Kind)
	assert.Equal(t, SeverityMedium, a.Severity)
	assert.Equal(t, 0.6, a.Confidence)
	assert.Equal(t, 2.5, a.CurrentValue)
}

func TestEvaluateShortSeries(t *testing.T) {
	d := NewDetector(8.0, nil)
	assert.Nil(t, d.Evaluate("br_rate", "L1", []float64{2.0, 2.1, 9.0}))
}

func TestEvaluateStableSeries(t *testing.T) {
	d := NewDetector(8.0, nil)
	series := []float64{2.0, 2.1, 2.0, 2.2, 2.1, 2.0, 2.1}
	assert.Empty(t, d.Evaluate("br_rate", "L1", series))
}

func TestEvaluateConstantSeriesNeverSpikes(t *testing.T) {
	// Zero variance means no usable control limits; the drift rule still
	// requires the latest value to exceed the mean, which it cannot.
	d := NewDetector(8.0, nil)
	series := []float64{3.0, 3.0, 3.0, 3.0, 3.0, 3.0, 3.0}
	assert.Empty(t, d.Evaluate("br_rate", "L1", series))
}

func TestIsDrift(t *testing.T) {
	assert.True(t, isDrift([]float64{1, 1, 2, 2, 3, 3, 4}))
	assert.False(t, isDrift([]float64{1, 2, 3, 4, 5, 6, 5}), "a dip breaks the run")
	assert.False(t, isDrift([]float64{1, 2, 3}), "short series")
}
