package sensors

import (
	"context"
	"fmt"

	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/pulse"
	"github.com/gr-butler/windsensor/wind"
	"github.com/jonboulle/clockwork"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

/*
 * Sensors owns the hardware of one wind sensor: the pulse lines, the angle
 * chip for the magnetic variants and the environment sensors.
 */

type Sensors struct {
	Bus        i2c.BusCloser
	Anemometer *Anemometer
	Angle      AngleSensor // nil for pulse timing variants
	Atmosphere *Atmosphere
}

// Open initialises the host and the devices the profile needs.
func Open(p wind.Profile, c *pulse.Capture, clock clockwork.Clock, args env.Args) (*Sensors, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	bus, err := i2creg.Open(env.String(args.Bus))
	if err != nil {
		return nil, fmt.Errorf("open I²C [%v]: %w", env.String(args.Bus), err)
	}
	s := &Sensors{Bus: bus}

	rotation := gpioreg.ByName(env.RotationSensorIn)
	if rotation == nil {
		_ = bus.Close()
		return nil, fmt.Errorf("failed to find %v - rotation pin", env.RotationSensorIn)
	}
	direction := gpioreg.ByName(env.DirectionSensorIn)
	if p.Source != wind.PulseTiming {
		direction = nil
	} else if direction == nil {
		_ = bus.Close()
		return nil, fmt.Errorf("failed to find %v - direction pin", env.DirectionSensorIn)
	}

	s.Anemometer, err = NewAnemometer(c, rotation, direction, clock, args)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	s.Angle, err = NewAngleSensor(p.Chip, bus, args)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}

	s.Atmosphere = NewAtmosphere(bus, p.Environment, args)
	logger.Infof("Sensors initialized for [%v]", p.Variant)
	return s, nil
}

// NewAngleSensor opens the chip a profile names; NoChip gives nil.
func NewAngleSensor(chip wind.AngleChip, bus i2c.Bus, args env.Args) (AngleSensor, error) {
	switch chip {
	case wind.AS5600:
		a, err := NewAS5600(bus, args)
		if err != nil {
			return nil, err
		}
		return a, nil
	case wind.MT6701:
		m, err := NewMT6701(bus, args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, nil
	}
}

func (s *Sensors) Start(ctx context.Context) {
	s.Anemometer.Run(ctx)
}

// ReadAngle is safe on a nil receiver or a missing chip.
func (s *Sensors) ReadAngle() wind.AngleReading {
	if s == nil || s.Angle == nil {
		return wind.AngleReading{}
	}
	return s.Angle.Read()
}

func (s *Sensors) Close() error {
	return s.Bus.Close()
}
