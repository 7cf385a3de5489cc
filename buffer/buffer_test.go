package buffer

import (
	"math"
	"testing"

	"github.com/gr-butler/windsensor/env"
	"github.com/stretchr/testify/assert"
)

// 3 seconds of speed at the conversion cadence
var threeSeconds = env.GustSamples

func TestFirstReadingFillsHistory(t *testing.T) {
	speed := NewBuffer(threeSeconds)
	speed.AddItem(4.5)

	a, mn, mx, s := speed.GetAverageMinMaxSum()
	assert.Equal(t, Average(4.5), a)
	assert.Equal(t, Minimum(4.5), mn)
	assert.Equal(t, Maximum(4.5), mx)
	assert.Equal(t, Sum(4.5*float64(threeSeconds)), s)
	assert.Equal(t, 4.5, speed.GetLast())
}

func TestSpeedHistoryDropsOldest(t *testing.T) {
	speed := NewBuffer(6)
	for i := 0; i < 6; i++ {
		speed.AddItem(2)
	}
	speed.AddItem(8)
	speed.AddItem(8)

	a, mn, mx, s := speed.GetAverageMinMaxSum()
	assert.Equal(t, Average(4), a)
	assert.Equal(t, Minimum(2), mn)
	assert.Equal(t, Maximum(8), mx)
	assert.Equal(t, Sum(24), s)
}

func TestSumMinMaxLast(t *testing.T) {
	speed := NewBuffer(6)
	for _, v := range []float64{1, 3, 5, 7, 9, 11} {
		speed.AddItem(v)
	}

	s, mn, mx := speed.SumMinMaxLast(2)
	assert.Equal(t, Sum(20), s)
	assert.Equal(t, Minimum(9), mn)
	assert.Equal(t, Maximum(11), mx)

	// at least the newest reading, at most the whole history
	s, _, _ = speed.SumMinMaxLast(0)
	assert.Equal(t, Sum(11), s)
	s, mn, mx = speed.SumMinMaxLast(60)
	assert.Equal(t, Sum(36), s)
	assert.Equal(t, Minimum(1), mn)
	assert.Equal(t, Maximum(11), mx)

	// window across the end of the slice
	speed.AddItem(13)
	s, mn, mx = speed.SumMinMaxLast(3)
	assert.Equal(t, Sum(33), s)
	assert.Equal(t, Minimum(9), mn)
	assert.Equal(t, Maximum(13), mx)
}

func TestAverageLast(t *testing.T) {
	speed := NewBuffer(6)
	for _, v := range []float64{1, 3, 5, 7, 9, 11} {
		speed.AddItem(v)
	}
	assert.Equal(t, Average(10), speed.AverageLast(2))
	assert.Equal(t, Average(8), speed.AverageLast(4))
	assert.Equal(t, Average(6), speed.AverageLast(100))
}

func TestGustIsHighestRollingMean(t *testing.T) {
	speed := NewBuffer(2 * threeSeconds)
	for i := 0; i < 2*threeSeconds; i++ {
		speed.AddItem(3)
	}
	for i := 0; i < threeSeconds; i++ {
		speed.AddItem(9)
	}

	assert.Equal(t, Average(9), speed.MaxRollingAverage(threeSeconds))
	a, _, _, _ := speed.GetAverageMinMaxSum()
	assert.Equal(t, Average(6), a)
	// longer than the history is the plain mean
	assert.Equal(t, Average(6), speed.MaxRollingAverage(10*threeSeconds))
}

func TestShortGustAcrossWrap(t *testing.T) {
	speed := NewBuffer(6)
	for _, v := range []float64{1, 1, 4, 7, 1, 1} {
		speed.AddItem(v)
	}
	assert.Equal(t, Average(4), speed.MaxRollingAverage(3))
	assert.Equal(t, Average(7), speed.MaxRollingAverage(1))
}

func TestDirectionColumnsAcrossNorth(t *testing.T) {
	// 350 and 10 deg average to north, not south
	sin := NewBuffer(4)
	cos := NewBuffer(4)
	for _, deg := range []float64{350, 10, 350, 10} {
		rad := deg * math.Pi / 180
		sin.AddItem(math.Sin(rad))
		cos.AddItem(math.Cos(rad))
	}
	s, _, _, _ := sin.GetAverageMinMaxSum()
	c, _, _, _ := cos.GetAverageMinMaxSum()
	assert.InDelta(t, 0, float64(s), 1e-12)
	assert.InDelta(t, math.Cos(10*math.Pi/180), float64(c), 1e-12)
}

func TestGetRawDataIsACopy(t *testing.T) {
	speed := NewBuffer(3)
	speed.AddItem(2)
	d, size, pos := speed.GetRawData()
	d[0] = 99
	assert.Equal(t, Size(3), size)
	assert.Equal(t, Position(1), pos)
	assert.Equal(t, 2.0, speed.GetLast())
	a, _, _, _ := speed.GetAverageMinMaxSum()
	assert.Equal(t, Average(2), a)
}
