package pulse

import (
	"testing"

	"github.com/gr-butler/windsensor/buffer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanIsArithmeticMeanOfLastWindow(t *testing.T) {
	for window := 1; window <= 10; window++ {
		c := NewCapture(window)
		a := NewAverager(c)
		var all []float64
		for i := 0; i < 23; i++ {
			rot := float64(100 + 7*i)
			c.Record(rot, rot/4)
			all = append(all, rot)
		}
		require.True(t, a.Run(window))

		last := all[len(all)-window:]
		sum := 0.0
		for _, v := range last {
			sum += v
		}
		got := a.Latest()
		assert.InDelta(t, sum/float64(window), got.RotationMs, 1e-9, "window %v", window)
		assert.InDelta(t, sum/float64(window)/4, got.DirectionMs, 1e-9, "window %v", window)
	}
}

func TestMeanWrapFold(t *testing.T) {
	// one rotation takes 360ms so ms read as degrees
	samples := []buffer.RawSample{
		WrapSample(360, 350),
		WrapSample(360, 10),
	}
	avg := Mean(samples)
	assert.Equal(t, -10.0, samples[0].DirectionMs)
	// either side of the seam averages to 0, not 180
	assert.Equal(t, 0.0, avg.DirectionMs)

	samples = []buffer.RawSample{
		WrapSample(360, 300),
		WrapSample(360, 320),
	}
	avg = Mean(samples)
	assert.Equal(t, 310.0, avg.DirectionMs)
	raw := avg.DirectionMs / avg.RotationMs * 360
	assert.GreaterOrEqual(t, raw, 0.0)
	assert.Less(t, raw, 360.0)
}

func TestMeanZeroRotationFloor(t *testing.T) {
	avg := Mean([]buffer.RawSample{{}, {}})
	assert.Equal(t, MinRotationMs, avg.RotationMs)
	assert.Equal(t, 0.0, avg.DirectionMs)
}

func TestAveragerHoldsDuringWarmUp(t *testing.T) {
	c := NewCapture(3)
	a := NewAverager(c)
	c.Record(100, 10)
	c.Record(100, 10)
	require.False(t, a.Run(3))
	assert.Equal(t, AveragedSample{}, a.Latest())

	c.Record(100, 10)
	require.True(t, a.Run(3))
	assert.Equal(t, AveragedSample{RotationMs: 100, DirectionMs: 10}, a.Latest())

	// growing the window warms up again and keeps the last value
	c.Record(200, 20)
	require.False(t, a.Run(5))
	assert.Equal(t, AveragedSample{RotationMs: 100, DirectionMs: 10}, a.Latest())
}

func TestAveragerClampsWindow(t *testing.T) {
	c := NewCapture(1)
	a := NewAverager(c)
	for i := 0; i < 10; i++ {
		c.Record(50, 5)
	}
	// 0 is clamped to 1 rather than rejected
	require.True(t, a.Run(0))
	assert.Equal(t, AveragedSample{RotationMs: 50, DirectionMs: 5}, a.Latest())

	// 40 clamps to 10, which needs a fresh window of samples
	require.False(t, a.Run(40))
	for i := 0; i < 10; i++ {
		c.Record(60, 6)
	}
	require.True(t, a.Run(40))
	assert.Equal(t, AveragedSample{RotationMs: 60, DirectionMs: 6}, a.Latest())
}
