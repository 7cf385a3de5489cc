package led

import (
	"context"
	"testing"
	"time"

	"github.com/gr-butler/windsensor/env"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func TestOnOff(t *testing.T) {
	pin := &gpiotest.Pin{N: "LED"}
	l := NewLED("activity", pin, clockwork.NewFakeClock())

	l.On()
	assert.True(t, l.IsOn())
	assert.Equal(t, gpio.High, pin.Read())
	l.Off()
	assert.False(t, l.IsOn())
	assert.Equal(t, gpio.Low, pin.Read())
}

func TestFlash(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pin := &gpiotest.Pin{N: "LED"}
	l := NewLED("activity", pin, clock)

	done := make(chan struct{})
	go func() {
		l.Flash()
		close(done)
	}()
	clock.BlockUntil(1)
	assert.Equal(t, gpio.High, pin.Read())

	// a second request while flashing is dropped
	l.Flash()

	clock.Advance(env.LEDFlashDuration)
	<-done
	assert.Equal(t, gpio.Low, pin.Read())
}

func TestRunServesBlink(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pin := &gpiotest.Pin{N: "LED"}
	l := NewLED("activity", pin, clock)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(stopped)
	}()

	l.Blink()
	clock.BlockUntil(1)
	assert.Equal(t, gpio.High, pin.Read())
	clock.Advance(env.LEDFlashDuration)
	require.Eventually(t, func() bool { return pin.Read() == gpio.Low }, time.Second, time.Millisecond)

	cancel()
	<-stopped
	assert.False(t, l.IsOn())
}

func TestMissingPinIsHarmless(t *testing.T) {
	l := NewLED("none", nil, clockwork.NewFakeClock())
	l.On()
	l.Flash()
	l.Flicker(3)
	assert.True(t, l.IsOn())
}
