package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gr-butler/windsensor/buffer"
	"github.com/gr-butler/windsensor/config"
	"github.com/gr-butler/windsensor/data"
	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/led"
	"github.com/gr-butler/windsensor/nmea"
	"github.com/gr-butler/windsensor/pulse"
	"github.com/gr-butler/windsensor/sensors"
	"github.com/gr-butler/windsensor/simulation"
	"github.com/gr-butler/windsensor/wind"
	"github.com/jonboulle/clockwork"

	logger "github.com/sirupsen/logrus"
)

/*
The station runs the measuring core on fixed periods:

	averaging   50ms  copy the sample window and publish the mean timings
	conversion 500ms  turn the means into a snapshot (demo: simulate first)
	send         1s   NMEA, MQTT and websocket output of the latest snapshot
	slow         3s   stationary check and status line

Each loop waits a full period after its work, so a slow cycle delays the
next one instead of being skipped.
*/

type windstation struct {
	args     env.Args
	cfg      config.Config
	clock    clockwork.Clock
	settings *config.Holder
	store    *config.Store

	capture  *pulse.Capture
	averager *pulse.Averager
	engine   *wind.Engine // profile fixed at start, matches the opened sensors
	latest   *wind.Store
	history  *data.WindHistory

	sim      *simulation.Generator // demo mode
	sensors  *sensors.Sensors      // nil in demo mode
	activity *led.LED

	stationary    atomic.Bool
	lastRotations uint64

	nmea *nmea.Writer
	mqtt publisher
	hub  *hub
}

func newWindStation(cfg config.Config, args env.Args, clock clockwork.Clock) *windstation {
	capture := pulse.NewCapture(cfg.Average)
	return &windstation{
		args:     args,
		cfg:      cfg,
		clock:    clock,
		settings: config.NewHolder(cfg.Settings),
		capture:  capture,
		averager: pulse.NewAverager(capture),
		engine:   wind.NewEngine(cfg.Profile()),
		latest:   &wind.Store{},
		history:  data.NewWindHistory(env.HistoryLength),
		activity: led.NewLED("activity", nil, clock),
		hub:      newHub(),
	}
}

func (w *windstation) Start(ctx context.Context) {
	go w.every(ctx, env.AveragePeriod, w.average)
	go w.every(ctx, env.WindPeriod, func(now time.Time) { w.convert(now) })
	go w.every(ctx, env.SendPeriod, w.send)
	go w.every(ctx, env.SlowPeriod, w.slow)
	go w.samples(ctx)
}

func (w *windstation) every(ctx context.Context, period time.Duration, fn func(time.Time)) {
	t := w.clock.NewTimer(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.Chan():
			fn(now)
			t.Reset(period)
		}
	}
}

func (w *windstation) average(time.Time) {
	w.averager.Run(w.settings.Get().Average)
}

// convert runs one conversion cycle and publishes the result.
func (w *windstation) convert(now time.Time) wind.Snapshot {
	s := w.settings.Get()
	if w.sim != nil {
		window, _ := buffer.ClampWindow(s.Average)
		w.sim.Fill(w.capture, window)
		w.averager.Run(s.Average)
	}

	snap := w.engine.Convert(wind.Input{
		Averaged:       w.averager.Latest(),
		LastRotationMs: w.capture.LastRotationMs(),
		Angle:          w.sensors.ReadAngle(),
		Stationary:     w.stationary.Load(),
		Calibration:    s.Calibration(),
		Environment:    w.environment(),
		Time:           now,
	})
	if w.sensors != nil {
		snap.DeviceTempC = w.sensors.Atmosphere.DeviceTemperature()
	}

	w.latest.Publish(snap)
	w.history.Add(snap)
	w.updateGauges(snap)

	if env.Bool(w.args.Speedon) {
		logger.Infof("Speed [%.2f]Hz [%.2f]m/s [%.2f]kn bft [%v]", snap.SpeedHz, snap.SpeedMps, snap.SpeedKn, snap.SpeedBft)
	}
	if env.Bool(w.args.Diron) {
		logger.Infof("Dir raw [%.1f] corrected [%.1f] %v resolution [%.3f]", snap.RawDirection, snap.Direction, wind.CardinalPoint(snap.Direction), snap.Resolution)
	}
	return snap
}

func (w *windstation) environment() *wind.Environment {
	if w.sim != nil {
		e := w.sim.Environment()
		return &e
	}
	if w.sensors == nil || !w.engine.Profile().Environment {
		return nil
	}
	return w.sensors.Atmosphere.Environment()
}

// slow decides whether the wheel has stopped: no new rotation sample in a
// whole slow period.
func (w *windstation) slow(time.Time) {
	count := w.capture.RotationCount()
	w.stationary.Store(count == w.lastRotations)
	w.lastRotations = count

	snap := w.latest.Latest()
	logger.Debugf("Wind [%.1f]deg [%.2f]m/s rotations [%v] stationary [%v]", snap.Direction, snap.SpeedMps, count, w.stationary.Load())
}

// samples flashes the activity LED for every stored rotation sample.
func (w *windstation) samples(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.capture.Ready():
			w.activity.Blink()
			Prom_rotations.Set(float64(w.capture.RotationCount()))
		}
	}
}

func (w *windstation) updateGauges(s wind.Snapshot) {
	Prom_windDirection.Set(s.Direction)
	Prom_windDirection180.Set(s.Direction180)
	Prom_windspeed.Set(s.SpeedMps)
	Prom_windspeedKn.Set(s.SpeedKn)
	Prom_beaufort.Set(float64(s.SpeedBft))
	Prom_windHz.Set(s.SpeedHz)
	Prom_dirResolution.Set(s.Resolution)
	Prom_windgust.Set(w.history.Summarise(env.GustSamples).GustMps)
	if s.Environment != nil {
		Prom_temperature.Set(s.Environment.AirTemperatureC)
		Prom_humidity.Set(s.Environment.Humidity)
		Prom_atmPresure.Set(s.Environment.PressurehPa)
	}
}
