package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"github.com/gr-butler/windsensor/config"
	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/wind"

	logger "github.com/sirupsen/logrus"
)

const (
	publishTimeout = time.Second * 2

	Rd     = 287.1
	g      = 9.807 // gravity
	kelvin = 273.1
)

// publisher is the part of the MQTT client the station uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

func newMQTTClient(cfg config.MQTTConfig) (mqtt.Client, error) {
	id := cfg.ClientID
	if id == "" {
		id = "windsensor-" + uuid.NewString()
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(id).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect %v: %w", cfg.Broker, token.Error())
	}
	logger.Infof("Connected to MQTT broker [%v] as [%v]", cfg.Broker, id)
	return client, nil
}

// send pushes the latest snapshot to every output. Nothing is sent before
// the first conversion.
func (w *windstation) send(time.Time) {
	if w.latest.Sequence() == 0 {
		return
	}
	snap := w.latest.Latest()
	unit := w.settings.Get().Unit()

	if w.nmea != nil {
		if err := w.nmea.Send(snap, unit); err != nil {
			logger.Errorf("NMEA send failed [%v]", err)
		}
	}
	if w.mqtt != nil {
		if err := w.publish(snap); err != nil {
			logger.Errorf("MQTT publish failed [%v]", err)
		}
	}
	w.hub.broadcast(w.payload(snap))
}

func (w *windstation) publish(s wind.Snapshot) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	token := w.mqtt.Publish(w.cfg.MQTT.Topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %v timed out", w.cfg.MQTT.Topic)
	}
	return token.Error()
}

/*

https://wow.metoffice.gov.uk/support/dataformats

 WOW expects an HTTP GET or POST to http://wow.metoffice.gov.uk/automaticreading?
 followed by key/value pairs. Every upload carries siteid, siteAuthenticationKey,
 dateutc (YYYY-mm-DD HH:mm:ss, UTC) and softwaretype plus at least one reading.

KEY				Description															UNIT

baromin 		Barometric Pressure 												Inch of Mercury
dewptf 			Outdoor Dewpoint 													Fahrenheit
humidity 		Outdoor Humidity 													0-100 %
tempf 			Outdoor Temperature 												Fahrenheit
winddir 		Instantaneous Wind Direction 										Degrees (0-360)
windspeedmph 	Instantaneous Wind Speed 											Miles per Hour
windgustmph 	Current Wind Gust (using software specific time period) 			Miles per Hour

*/

const wowURL = "http://wow.metoffice.gov.uk/automaticreading?"

type wowData struct {
	SiteId       string  `url:"siteid,omitempty"`
	AuthKey      string  `url:"siteAuthenticationKey,omitempty"`
	DateString   string  `url:"dateutc,omitempty"`
	SoftwareType string  `url:"softwaretype,omitempty"`
	WindDir      float64 `url:"winddir"`
	WindSpeedMph float64 `url:"windspeedmph"`
	WindGustMph  float64 `url:"windgustmph"`
	PressureIn   float64 `url:"baromin,omitempty"`
	Humidity     float64 `url:"humidity,omitempty"`
	TempF        float64 `url:"tempf,omitempty"`
	DewPointF    float64 `url:"dewptf,omitempty"`
}

// MetofficeProcessor sends the data to WOW every ReportFreqMin minutes, on
// the hour then 15, 30 and 45 past.
func (w *windstation) MetofficeProcessor(ctx context.Context) {
	if w.cfg.WOW.SiteID == "" || w.cfg.WOW.Pin == "" {
		logger.Error("SiteId and or pin not set! WOWSITEID and WOWPIN must be set.")
		return
	}
	client := &http.Client{Timeout: time.Second * 30}
	t := w.clock.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.Chan():
			if now.Minute()%env.ReportFreqMin != 0 {
				continue
			}
			logger.Info("Sending data to met office")
			if err := w.uploadWOW(ctx, client, wowURL, now); err != nil {
				logger.Errorf("Failed to send data [%v]", err)
			}
		}
	}
}

func (w *windstation) uploadWOW(ctx context.Context, client *http.Client, baseURL string, now time.Time) error {
	vals, err := query.Values(w.prepData(now))
	if err != nil {
		return fmt.Errorf("encode wow data: %w", err)
	}
	logger.Debugf("Data: [%v]", vals)

	// Metoffice accepts a GET
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+vals.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("wow request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wow returned HTTP [%v]", resp.Status)
	}
	return nil
}

// build the upload from the 10 minute history
func (w *windstation) prepData(now time.Time) *wowData {
	sum := w.history.Summarise(env.GustSamples)
	wd := &wowData{
		SiteId:  w.cfg.WOW.SiteID,
		AuthKey: w.cfg.WOW.Pin,
		// go magic date is Mon Jan 2 15:04:05 MST 2006
		DateString:   now.UTC().Format("2006-01-02 15:04:05"),
		SoftwareType: version,
		WindDir:      round1(sum.Direction),
		WindSpeedMph: round1(sum.MeanMps * env.MpsToMph),
		WindGustMph:  round1(sum.GustMps * env.MpsToMph),
	}

	if e := w.latest.Latest().Environment; e != nil {
		wd.TempF = round1(ctof(e.AirTemperatureC))
		wd.DewPointF = round1(ctof(e.DewPointC))
		wd.Humidity = e.Humidity
		wd.PressureIn = math.Round(seaLevel(e.PressurehPa, e.AirTemperatureC, w.cfg.WOW.Altitude)*env.HPaToInHg*100) / 100
	}
	return wd
}

/*
seaLevel reduces the station pressure:
  - convert the temperature to Kelvin
  - scale height H = Rd*T/g, Rd = 287.1 J/(kg K), g = 9.807 m/s2
  - psl = p0 * exp(z0/H), z0 the altitude of the observation
*/
func seaLevel(hPa, tempC, altitude float64) float64 {
	H := (Rd * (tempC + kelvin)) / g
	return hPa * math.Exp(altitude/H)
}

func ctof(c float64) float64 {
	//(0°C × 9/5) + 32 = 32°F
	return ((c * 9 / 5) + 32)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
