package led

import (
	"context"
	"sync"

	"github.com/gr-butler/windsensor/env"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

type LED struct {
	Name  string
	lock  sync.Mutex
	on    bool
	blink chan struct{}
	pin   gpio.PinOut
	clock clockwork.Clock
}

func NewLED(name string, pin gpio.PinOut, clock clockwork.Clock) *LED {
	return &LED{
		Name:  name,
		blink: make(chan struct{}, 1),
		pin:   pin,
		clock: clock,
	}
}

// ByName looks the pin up in the GPIO registry. A missing pin is not fatal,
// the LED just does nothing.
func ByName(name, gpioName string, clock clockwork.Clock) *LED {
	logger.Infof("Creating new LED on pin [%v] called [%v]", gpioName, name)
	p := gpioreg.ByName(gpioName)
	if p == nil {
		logger.Errorf("Failed to find %v pin", gpioName)
		return NewLED(name, nil, clock)
	}
	return NewLED(name, p, clock)
}

// Run serves Blink requests until ctx is done.
func (l *LED) Run(ctx context.Context) {
	for {
		select {
		case <-l.blink:
			l.Flash()
		case <-ctx.Done():
			l.Off()
			return
		}
	}
}

// Blink asks Run for a flash. Requests made while one is pending are dropped.
func (l *LED) Blink() {
	select {
	case l.blink <- struct{}{}:
	default:
	}
}

func (l *LED) On() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = true
	l.out(gpio.High)
}

func (l *LED) Off() {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.on = false
	l.out(gpio.Low)
}

func (l *LED) Flash() {
	if l.pin == nil {
		return
	}
	if !l.lock.TryLock() {
		// a flash is already showing, no point queuing another
		return
	}
	defer l.lock.Unlock()
	// if the LED is currently off, then flash on
	if !l.on {
		l.out(gpio.High)
		l.clock.Sleep(env.LEDFlashDuration)
		l.out(gpio.Low)
	} else {
		// 'off' flash
		l.out(gpio.Low)
		l.clock.Sleep(env.LEDFlashDuration)
		l.out(gpio.High)
	}
}

func (l *LED) Flicker(pulses int) {
	if l.pin == nil {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if pulses < 1 || pulses > 100 {
		// reject daft or excessive requests
		return
	}
	for i := 0; i < pulses; i++ {
		l.out(gpio.High)
		l.clock.Sleep(env.LEDFlashDuration)
		l.out(gpio.Low)
		l.clock.Sleep(env.LEDFlashDuration)
	}
}

func (l *LED) IsOn() bool {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.on
}

func (l *LED) out(level gpio.Level) {
	if l.pin == nil {
		return
	}
	if err := l.pin.Out(level); err != nil {
		logger.Debugf("LED [%v] write failed [%v]", l.Name, err)
	}
}
