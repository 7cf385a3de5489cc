package sensors

import (
	"fmt"
	"math"

	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/wind"
	logger "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/devices/v3/mcp9808"
)

// The board sensor sits next to the electronics and reads high.
const selfHeatingC = 6.0

type senser interface {
	Sense(e *physic.Env) error
}

// Atmosphere reads the air sensor in the vane head (BME280) and the board
// temperature (MCP9808). Either may be missing.
type Atmosphere struct {
	air   senser
	board senser
	args  env.Args
}

func NewAtmosphere(bus i2c.Bus, withAir bool, args env.Args) *Atmosphere {
	a := &Atmosphere{args: args}

	logger.Infof("Starting MCP9808 Temperature Sensor [%x]", env.MCP9808Addr)
	board, err := mcp9808.New(bus, &mcp9808.Opts{Addr: int(env.MCP9808Addr), Res: mcp9808.High})
	if err != nil {
		logger.Errorf("Failed to open MCP9808 sensor [%v]", err)
	} else {
		a.board = board
	}

	if withAir {
		logger.Infof("Starting BME280 reader [%x]", env.BME280Addr)
		bme, err := bmxx80.NewI2C(bus, env.BME280Addr, &bmxx80.DefaultOpts)
		if err != nil {
			logger.Errorf("Failed to initialize BME280 [%v]", err)
		} else {
			a.air = bme
		}
	}
	return a
}

// Environment returns nil when there is no air sensor or it failed to read.
func (a *Atmosphere) Environment() *wind.Environment {
	if a == nil || a.air == nil {
		return nil
	}
	em := physic.Env{}
	if err := a.air.Sense(&em); err != nil {
		logger.Errorf("BME280 read failed [%v]", err)
		return nil
	}
	e := envFromPhysic(em)
	return &e
}

// DeviceTemperature is the compensated board temperature, 0 when unknown.
func (a *Atmosphere) DeviceTemperature() float64 {
	if a == nil || a.board == nil {
		return 0
	}
	em := physic.Env{}
	if err := a.board.Sense(&em); err != nil {
		logger.Errorf("MCP9808 read failed [%v]", err)
		return 0
	}
	return round(em.Temperature.Celsius()-selfHeatingC, 10)
}

func envFromPhysic(em physic.Env) wind.Environment {
	temp := round(em.Temperature.Celsius(), 10)
	humidity := round(float64(em.Humidity)/float64(physic.PercentRH), 10)
	pressure := round(float64(em.Pressure)/float64(100*physic.Pascal), 100)
	return wind.Environment{
		AirTemperatureC: temp,
		PressurehPa:     pressure,
		Humidity:        humidity,
		DewPointC:       round(wind.DewPoint(temp, humidity), 10),
	}
}

func round(v, scale float64) float64 {
	return math.Round(v*scale) / scale
}

func (a *Atmosphere) String() string {
	return fmt.Sprintf("atmosphere(air=%v, board=%v)", a.air != nil, a.board != nil)
}
