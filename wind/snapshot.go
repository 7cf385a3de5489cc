package wind

import (
	"strings"
	"sync"
	"time"
)

type SpeedUnit string

const (
	MetresPerSecond SpeedUnit = "mps"
	KmPerHour       SpeedUnit = "kph"
	Knots           SpeedUnit = "kn"
	Beaufort        SpeedUnit = "bft"
)

// ParseSpeedUnit accepts the short names above plus the usual spellings.
func ParseSpeedUnit(s string) (SpeedUnit, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mps", "m/s", "ms":
		return MetresPerSecond, true
	case "kph", "km/h", "kmh":
		return KmPerHour, true
	case "kn", "kt", "kts", "knots":
		return Knots, true
	case "bft", "beaufort":
		return Beaufort, true
	}
	return Knots, false
}

// Environment holds the BME280 readings of sensors that carry one.
type Environment struct {
	AirTemperatureC float64 `json:"air_temperature_C"`
	PressurehPa     float64 `json:"pressure_hPa"`
	Humidity        float64 `json:"humidity_RH"`
	DewPointC       float64 `json:"dew_point_C"`
}

// Snapshot is one complete conversion result.
type Snapshot struct {
	Time         time.Time    `json:"time"`
	Sensor       string       `json:"sensor"`
	RawDirection float64      `json:"raw_wind_dir"`
	Direction    float64      `json:"wind_dir"`
	Direction180 float64      `json:"wind_dir_180"`
	Resolution   float64      `json:"dir_resolution"`
	SpeedHz      float64      `json:"wind_speed_hz"`
	SpeedMps     float64      `json:"wind_speed_mps"`
	SpeedKph     float64      `json:"wind_speed_kph"`
	SpeedKn      float64      `json:"wind_speed_kn"`
	SpeedBft     int          `json:"wind_speed_bft"`
	AngleDeg     float64      `json:"mag_angle"`
	Magnitude    float64      `json:"mag_magnitude"`
	Environment  *Environment `json:"environment,omitempty"`
	DeviceTempC  float64      `json:"device_temp,omitempty"`
}

// Speed returns the wind speed in the requested unit.
func (s Snapshot) Speed(unit SpeedUnit) float64 {
	switch unit {
	case MetresPerSecond:
		return s.SpeedMps
	case KmPerHour:
		return s.SpeedKph
	case Beaufort:
		return float64(s.SpeedBft)
	default:
		return s.SpeedKn
	}
}

// Store publishes snapshots as a whole; readers get a copy of either the
// previous or the new one.
type Store struct {
	lock   sync.RWMutex
	latest Snapshot
	seq    uint64
}

func (st *Store) Publish(s Snapshot) {
	if s.Environment != nil {
		e := *s.Environment
		s.Environment = &e
	}
	st.lock.Lock()
	defer st.lock.Unlock()
	st.latest = s
	st.seq++
}

func (st *Store) Latest() Snapshot {
	st.lock.RLock()
	defer st.lock.RUnlock()
	s := st.latest
	if s.Environment != nil {
		e := *s.Environment
		s.Environment = &e
	}
	return s
}

// Sequence counts publications, 0 means nothing was published yet.
func (st *Store) Sequence() uint64 {
	st.lock.RLock()
	defer st.lock.RUnlock()
	return st.seq
}
