package defects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPareto(t *testing.T) {
	byType := []Breakdown{
		{Key: "D01", Name: "Blister", Count: 60},
		{Key: "D07", Name: "Bead Damage", Count: 25},
		{Key: "D03", Name: "Light Tire", Count: 10},
		{Key: "D09", Name: "Foreign Material", Count: 5},
	}

	entries := BuildPareto(byType, 100)
	require.Len(t, entries, 4)

	assert.Equal(t, 60.0, entries[0].Percentage)
	assert.Equal(t, 60.0, entries[0].CumulativePct)
	assert.Equal(t, 85.0, entries[1].CumulativePct)
	assert.Equal(t, 95.0, entries[2].CumulativePct)
	assert.Equal(t, 100.0, entries[3].CumulativePct, "last entry always closes at 100")

	// The vital few are the entries needed to cover the first 80% of
	// defects: here D01 plus the entry that crosses the line.
	assert.True(t, entries[0].VitalFew)
	assert.True(t, entries[1].VitalFew)
	assert.False(t, entries[2].VitalFew)
	assert.False(t, entries[3].VitalFew)
}

func TestBuildParetoEmptyWindow(t *testing.T) {
	assert.Nil(t, BuildPareto(nil, 0))
}

func TestSortBreakdowns(t *testing.T) {
	b := []Breakdown{
		{Key: "D05", Count: 3},
		{Key: "D02", Count: 7},
		{Key: "D01", Count: 3},
	}
	sortBreakdowns(b)

	assert.Equal(t, "D02", b[0].Key)
	assert.Equal(t, "D01", b[1].Key, "equal counts tie-break on key")
	assert.Equal(t, "D05", b[2].Key)
}

func TestPct(t *testing.T) {
	assert.Equal(t, 12.5, pct(1, 8))
	assert.Equal(t, 33.33, pct(1, 3))
	assert.Equal(t, 0.0, pct(5, 0), "zero total never divides by zero")
}
