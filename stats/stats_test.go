package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 0.001)
}

func TestMedian(t *testing.T) {
	assert.Zero(t, Median(nil))
	assert.InDelta(t, 2.0, Median([]float64{3, 1, 2}), 0.001)
	assert.InDelta(t, 2.5, Median([]float64{4, 1, 2, 3}), 0.001)

	// The input slice is not reordered.
	xs := []float64{3, 1, 2}
	Median(xs)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

func TestStddev(t *testing.T) {
	assert.Zero(t, Stddev(nil))
	assert.Zero(t, Stddev([]float64{5}))
	// Sample stddev of {2,4,4,4,5,5,7,9} is ~2.138.
	assert.InDelta(t, 2.138, Stddev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 0.001)
	assert.Zero(t, Stddev([]float64{3, 3, 3}))
}

func TestMinMax(t *testing.T) {
	assert.Zero(t, Max(nil))
	assert.Zero(t, Min(nil))
	assert.InDelta(t, 9.0, Max([]float64{3, 9, 1}), 0.001)
	assert.InDelta(t, 1.0, Min([]float64{3, 9, 1}), 0.001)
}
