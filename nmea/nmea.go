package nmea

import (
	"fmt"
	"io"
	"strings"
	"sync"

	gonmea "github.com/adrianmo/go-nmea"
	"github.com/gr-butler/windsensor/wind"
	serial "github.com/jacobsa/go-serial/serial"
	logger "github.com/sirupsen/logrus"
)

// NMEA 0183 output of the wind data: MWV (relative wind) every send cycle
// and XDR (transducers) when the sensor carries an air sensor.

func sentence(talker, body string) string {
	raw := talker + body
	return fmt.Sprintf("$%s*%s", raw, gonmea.Checksum(raw))
}

// speedField picks the MWV unit letter. Beaufort has no letter, so it goes
// out as knots.
func speedField(s wind.Snapshot, unit wind.SpeedUnit) (float64, string) {
	switch unit {
	case wind.MetresPerSecond:
		return s.SpeedMps, "M"
	case wind.KmPerHour:
		return s.SpeedKph, "K"
	default:
		return s.SpeedKn, "N"
	}
}

// MWV formats the relative wind sentence.
func MWV(talker string, s wind.Snapshot, unit wind.SpeedUnit) string {
	speed, letter := speedField(s, unit)
	return sentence(talker, fmt.Sprintf("MWV,%.1f,R,%.1f,%s,A", s.Direction, speed, letter))
}

// XDR formats air temperature, pressure (bar), humidity and dew point.
func XDR(talker string, e wind.Environment) string {
	fields := []string{
		fmt.Sprintf("C,%.1f,C,AirTemp", e.AirTemperatureC),
		fmt.Sprintf("P,%.5f,B,Barometer", e.PressurehPa/1000),
		fmt.Sprintf("H,%.1f,P,Humidity", e.Humidity),
		fmt.Sprintf("C,%.1f,C,DewPoint", e.DewPointC),
	}
	return sentence(talker, "XDR,"+strings.Join(fields, ","))
}

type Writer struct {
	lock   sync.Mutex
	out    io.Writer
	talker string
}

func NewWriter(out io.Writer, talker string) *Writer {
	if talker == "" {
		talker = "WI"
	}
	return &Writer{out: out, talker: talker}
}

// Send writes the sentences for one snapshot, each terminated by CR LF.
func (w *Writer) Send(s wind.Snapshot, unit wind.SpeedUnit) error {
	lines := []string{MWV(w.talker, s, unit)}
	if s.Environment != nil {
		lines = append(lines, XDR(w.talker, *s.Environment))
	}
	w.lock.Lock()
	defer w.lock.Unlock()
	for _, l := range lines {
		if _, err := io.WriteString(w.out, l+"\r\n"); err != nil {
			return fmt.Errorf("write nmea: %w", err)
		}
	}
	return nil
}

// OpenSerial opens the NMEA port 8N1.
func OpenSerial(port string, baud uint) (io.ReadWriteCloser, error) {
	opts := serial.OpenOptions{
		PortName:        port,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}
	p, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open serial %v: %w", port, err)
	}
	logger.Infof("NMEA serial port opened on [%v] at [%v] baud", port, baud)
	return p, nil
}
