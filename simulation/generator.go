package simulation

import (
	"math"
	"math/rand"

	"github.com/gr-butler/windsensor/wind"
)

/*
Demo data

A pointer sweep over Steps conversion cycles: the speed ramps from 1 to 39
m/s and the direction from 0 to 360 deg, each with up to Noise extra and
cut to whole units. The
values are turned back into rotation and direction times and recorded like
real pulses, so averaging and conversion run unchanged.
*/

const (
	Steps        = 600
	DefaultNoise = 0.4
	maxSpeedMps  = 38
)

// Recorder takes rotation/direction time pairs in ms.
type Recorder interface {
	Record(time1, time2 float64)
}

type Generator struct {
	rng    *rand.Rand
	noise  float64
	radius float64
	tick   int
}

// NewGenerator uses rng for the noise, noise is the largest relative error
// (0.4 for 40%, 0 for a clean ramp).
func NewGenerator(rng *rand.Rand, noise float64) *Generator {
	return &Generator{
		rng:    rng,
		noise:  noise,
		radius: wind.RadiusWiFi,
	}
}

// Profile is the sensor the demo data pretends to come from.
func (g *Generator) Profile() wind.Profile {
	return wind.ProfileFor(wind.WiFi1000)
}

func (g *Generator) Seek(tick int) {
	g.tick = tick
}

func (g *Generator) Tick() int {
	return g.tick
}

// Fill records window samples for the current step and moves to the next.
func (g *Generator) Fill(r Recorder, window int) {
	step := g.tick % Steps
	for i := 0; i < window; i++ {
		// whole m/s and degrees, noise included
		speed := math.Trunc(g.addNoise(float64(step*maxSpeedMps/Steps + 1)))
		dir := math.Trunc(g.addNoise(float64(step * 360 / Steps)))
		r.Record(RotationTime(speed, g.radius), DirectionTime(speed, dir, g.radius))
	}
	g.tick++
}

func (g *Generator) addNoise(v float64) float64 {
	if g.noise == 0 {
		return v
	}
	return v + v*g.noise*float64(g.rng.Intn(10))/10
}

// RotationTime is the inverse of the speed formula: t1 = 2*pi*1000*r / (v*lambda).
func RotationTime(speedMps, radius float64) float64 {
	return 2 * math.Pi * 1000 * radius / (speedMps * wind.Lambda)
}

// DirectionTime is the time after the rotation pulse at which a vane at dir
// degrees passes the direction sensor.
func DirectionTime(speedMps, dir, radius float64) float64 {
	return RotationTime(speedMps, radius) * dir / 360
}

// Environment returns plausible BME280 readings.
func (g *Generator) Environment() wind.Environment {
	e := wind.Environment{
		AirTemperatureC: float64(g.rng.Intn(20)+210) / 10,
		PressurehPa:     float64(g.rng.Intn(1100)+9000) / 10,
		Humidity:        float64(g.rng.Intn(100)+700) / 10,
	}
	e.DewPointC = wind.DewPoint(e.AirTemperatureC, e.Humidity)
	return e
}
