package sensors

import (
	"context"
	"testing"
	"time"

	"github.com/gr-butler/windsensor/buffer"
	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/pulse"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestTickSourceCarriesRemainder(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ts := NewTickSource(clock)

	clock.Advance(250 * time.Microsecond)
	assert.Equal(t, uint64(2), ts.Elapsed())
	clock.Advance(50 * time.Microsecond)
	// 50us left over plus 50us
	assert.Equal(t, uint64(1), ts.Elapsed())
	assert.Equal(t, uint64(0), ts.Elapsed())
	clock.Advance(time.Second)
	assert.Equal(t, uint64(10000), ts.Elapsed())
}

func TestAnemometerEdgesTimeRotation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := pulse.NewCapture(1)
	a := &Anemometer{capture: c, ticks: NewTickSource(clock)}

	a.edge(c.RotationEdge)
	clock.Advance(30 * time.Millisecond)
	a.edge(c.DirectionEdge)
	clock.Advance(70 * time.Millisecond)
	a.edge(c.RotationEdge)
	// time between the stop and the next start is not counted
	clock.Advance(400 * time.Millisecond)
	a.edge(c.RotationEdge)

	var dst [env.MaxWindow]buffer.RawSample
	n, filled := c.Snapshot(dst[:])
	require.Equal(t, 1, n)
	require.True(t, filled)
	assert.Equal(t, 100.0, dst[0].RotationMs)
	assert.Equal(t, 30.0, dst[0].DirectionMs)
	assert.Equal(t, 1, c.DirectionPulses())
}

func TestAnemometerRunWithPins(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rot := &gpiotest.Pin{N: "ROT", Num: 27, Fn: "In/High", EdgesChan: make(chan gpio.Level, 4), Clock: clock}
	dir := &gpiotest.Pin{N: "DIR", Num: 22, Fn: "In/High", EdgesChan: make(chan gpio.Level, 4), Clock: clock}
	c := pulse.NewCapture(1)

	a, err := NewAnemometer(c, rot, dir, clock, env.Args{})
	require.NoError(t, err)
	assert.Equal(t, gpio.PullUp, rot.Pull())
	assert.Equal(t, gpio.PullUp, dir.Pull())

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		clock.Advance(edgeTimeout)
	}()
	a.Run(ctx)

	rot.EdgesChan <- gpio.Low
	require.Eventually(t, func() bool { return c.RotationCount() == 1 }, time.Second, time.Millisecond)

	clock.Advance(100 * time.Millisecond)
	rot.EdgesChan <- gpio.Low
	rot.EdgesChan <- gpio.Low
	require.Eventually(t, func() bool { return c.RotationCount() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 100.0, c.LastRotationMs())
}

func TestNewAnemometerNeedsRotationPin(t *testing.T) {
	_, err := NewAnemometer(pulse.NewCapture(1), nil, nil, clockwork.NewFakeClock(), env.Args{})
	assert.Error(t, err)
}
