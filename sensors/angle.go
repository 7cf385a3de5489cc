package sensors

import (
	"fmt"

	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/wind"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
)

// AngleSensor is a magnetic angle chip on the vane shaft.
type AngleSensor interface {
	Read() wind.AngleReading
}

const (
	as5600Status    = 0x0B
	as5600RawAngle  = 0x0C
	as5600Magnitude = 0x1B
	as5600MagnetOK  = 0x20
	as5600Degrees   = 0.087 // 4096 steps

	mt6701Angle = 0x03
	mt6701Steps = 16384
)

type AS5600 struct {
	dev  *i2c.Dev
	args env.Args
}

// NewAS5600 probes the chip status; a missing magnet is only logged.
func NewAS5600(bus i2c.Bus, args env.Args) (*AS5600, error) {
	a := &AS5600{dev: &i2c.Dev{Addr: env.AS5600Addr, Bus: bus}, args: args}
	logger.Infof("Starting AS5600 angle sensor I2C [%x]", env.AS5600Addr)
	status := make([]byte, 1)
	if err := a.dev.Tx([]byte{as5600Status}, status); err != nil {
		return nil, fmt.Errorf("AS5600 did not respond: %w", err)
	}
	if status[0]&as5600MagnetOK == 0 {
		logger.Warnf("AS5600 reports no magnet [%b]", status[0])
	}
	return a, nil
}

func (a *AS5600) Read() wind.AngleReading {
	raw, err := a.read12(as5600RawAngle)
	if err != nil {
		logger.Debugf("Error reading AS5600 angle [%v]", err)
		return wind.AngleReading{}
	}
	mag, err := a.read12(as5600Magnitude)
	if err != nil {
		logger.Debugf("Error reading AS5600 magnitude [%v]", err)
		mag = 0
	}
	r := wind.AngleReading{Ready: true, DegreesRaw: float64(raw) * as5600Degrees, Magnitude: float64(mag)}
	if env.Bool(a.args.Diron) {
		logger.Infof("AS5600 raw [%v] deg [%.1f] magnitude [%v]", raw, r.DegreesRaw, mag)
	}
	return r
}

func (a *AS5600) read12(reg byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := a.dev.Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}
	return uint16(buf[0]&0x0F)<<8 | uint16(buf[1]), nil
}

// MT6701 gives a 14 bit angle and no field strength.
type MT6701 struct {
	dev  *i2c.Dev
	args env.Args
}

func NewMT6701(bus i2c.Bus, args env.Args) (*MT6701, error) {
	m := &MT6701{dev: &i2c.Dev{Addr: env.MT6701Addr, Bus: bus}, args: args}
	logger.Infof("Starting MT6701 angle sensor I2C [%x]", env.MT6701Addr)
	if _, err := m.raw(); err != nil {
		return nil, fmt.Errorf("MT6701 did not respond: %w", err)
	}
	return m, nil
}

func (m *MT6701) Read() wind.AngleReading {
	raw, err := m.raw()
	if err != nil {
		logger.Debugf("Error reading MT6701 angle [%v]", err)
		return wind.AngleReading{}
	}
	r := wind.AngleReading{Ready: true, DegreesRaw: float64(raw) * 360 / mt6701Steps}
	if env.Bool(m.args.Diron) {
		logger.Infof("MT6701 raw [%v] deg [%.2f]", raw, r.DegreesRaw)
	}
	return r
}

// angle bits 13..6 in the first register, 5..0 in the top of the second
func (m *MT6701) raw() (uint16, error) {
	buf := make([]byte, 2)
	if err := m.dev.Tx([]byte{mt6701Angle}, buf); err != nil {
		return 0, err
	}
	return uint16(buf[0])<<6 | uint16(buf[1]>>2), nil
}
