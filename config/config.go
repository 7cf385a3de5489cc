package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/wind"
	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Settings are the values the measuring core reads every cycle. They are
// also what the configuration store persists.
type Settings struct {
	SensorType      string  `yaml:"sensor_type" json:"sensor_type"`
	Average         int     `yaml:"average" json:"average"`
	Offset          float64 `yaml:"offset" json:"offset"`
	CalSlope        float64 `yaml:"cal_slope" json:"cal_slope"`
	CalOffset       float64 `yaml:"cal_offset" json:"cal_offset"`
	MaxDirDeviation float64 `yaml:"max_dir_deviation" json:"max_dir_deviation"`
	SpeedUnit       string  `yaml:"speed_unit" json:"speed_unit"`
	Demo            bool    `yaml:"demo" json:"demo"`
}

type NMEAConfig struct {
	SerialPort string `yaml:"serial_port"`
	BaudRate   uint   `yaml:"baud_rate"`
	Talker     string `yaml:"talker"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
}

type HTTPConfig struct {
	Listen string `yaml:"listen"`
}

type DatabaseConfig struct {
	DSN     string `yaml:"dsn"`
	Station string `yaml:"station"`
}

type WOWConfig struct {
	SiteID   string  `yaml:"site_id"`
	Pin      string  `yaml:"pin"`
	Enabled  bool    `yaml:"enabled"`
	Altitude float64 `yaml:"altitude"` // m above sea level, for the sea level pressure
}

type Config struct {
	Settings `yaml:",inline"`
	NMEA     NMEAConfig     `yaml:"nmea"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	WOW      WOWConfig      `yaml:"wow"`
}

func DefaultSettings() Settings {
	return Settings{
		SensorType:      wind.WiFi1000.String(),
		Average:         3,
		CalSlope:        1,
		MaxDirDeviation: 360,
		SpeedUnit:       string(wind.Knots),
	}
}

func Default() Config {
	return Config{
		Settings: DefaultSettings(),
		NMEA:     NMEAConfig{BaudRate: 4800, Talker: "WI"},
		MQTT:     MQTTConfig{Topic: "windsensor/wind"},
		HTTP:     HTTPConfig{Listen: ":80"},
		Database: DatabaseConfig{Station: "windsensor"},
	}
}

// Load reads a YAML file over the defaults; an empty path gives the
// defaults. Environment overrides are applied afterwards.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.applyEnv(os.LookupEnv)
	cfg.Settings = cfg.Settings.sanitize()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := lookup(key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				logger.Warnf("Ignoring %v [%v]: %v", key, v, err)
				return
			}
			*dst = f
		}
	}
	str("WINDSENSOR_SENSOR_TYPE", &c.SensorType)
	if v, ok := lookup("WINDSENSOR_AVERAGE"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Average = n
		} else {
			logger.Warnf("Ignoring WINDSENSOR_AVERAGE [%v]: %v", v, err)
		}
	}
	num("WINDSENSOR_OFFSET", &c.Offset)
	num("WINDSENSOR_CAL_SLOPE", &c.CalSlope)
	num("WINDSENSOR_CAL_OFFSET", &c.CalOffset)
	num("WINDSENSOR_MAX_DIR_DEVIATION", &c.MaxDirDeviation)
	str("WINDSENSOR_SPEED_UNIT", &c.SpeedUnit)
	str("WINDSENSOR_MQTT_BROKER", &c.MQTT.Broker)
	str("WINDSENSOR_DB_DSN", &c.Database.DSN)
	str("WINDSENSOR_SERIAL_PORT", &c.NMEA.SerialPort)
	str("WOWSITEID", &c.WOW.SiteID)
	str("WOWPIN", &c.WOW.Pin)
}

func (s Settings) Profile() wind.Profile {
	v, ok := wind.ParseVariant(s.SensorType)
	if !ok {
		logger.Warnf("Unknown sensor type [%v], using [%v]", s.SensorType, v)
	}
	return wind.ProfileFor(v)
}

func (s Settings) Unit() wind.SpeedUnit {
	u, ok := wind.ParseSpeedUnit(s.SpeedUnit)
	if !ok {
		logger.Warnf("Unknown speed unit [%v], using [%v]", s.SpeedUnit, u)
	}
	return u
}

func (s Settings) Calibration() wind.Calibration {
	return wind.Calibration{
		OffsetDeg:       s.Offset,
		Slope:           s.CalSlope,
		Offset:          s.CalOffset,
		MaxDeviationDeg: s.MaxDirDeviation,
	}
}

// Check reports the first setting the station cannot run with.
func (s Settings) Check() error {
	if _, ok := wind.ParseVariant(s.SensorType); !ok {
		return fmt.Errorf("unknown sensor_type [%v]", s.SensorType)
	}
	if _, ok := wind.ParseSpeedUnit(s.SpeedUnit); !ok {
		return fmt.Errorf("unknown speed_unit [%v]", s.SpeedUnit)
	}
	if s.Average < env.MinWindow || s.Average > env.MaxWindow {
		return fmt.Errorf("average [%v] out of range [%v..%v]", s.Average, env.MinWindow, env.MaxWindow)
	}
	if s.Offset < -360 || s.Offset > 360 {
		return fmt.Errorf("offset [%v] out of range [-360..360]", s.Offset)
	}
	if s.MaxDirDeviation < 0 {
		return fmt.Errorf("max_dir_deviation [%v] is negative", s.MaxDirDeviation)
	}
	return nil
}

// sanitize fixes the values a file or environment can get wrong without
// stopping the station.
func (s Settings) sanitize() Settings {
	if s.Offset < -360 || s.Offset > 360 {
		offset := wind.NormalizeOffset(s.Offset)
		logger.Warnf("Offset [%v] out of range, using [%v]", s.Offset, offset)
		s.Offset = offset
	}
	if s.MaxDirDeviation < 0 {
		logger.Warnf("Negative max_dir_deviation [%v], direction rate limit off", s.MaxDirDeviation)
		s.MaxDirDeviation = 0
	}
	return s
}

// Holder hands out one consistent copy of the settings per cycle.
type Holder struct {
	lock     sync.RWMutex
	settings Settings
}

func NewHolder(s Settings) *Holder {
	return &Holder{settings: s}
}

func (h *Holder) Get() Settings {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return h.settings
}

func (h *Holder) Set(s Settings) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.settings = s
}
