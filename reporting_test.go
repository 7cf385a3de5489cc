package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gr-butler/windsensor/nmea"
	"github.com/gr-butler/windsensor/wind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	lock     sync.Mutex
	messages []message
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.messages = append(f.messages, message{topic: topic, payload: payload.([]byte)})
	return &mqtt.DummyToken{}
}

func TestSendWaitsForFirstConversion(t *testing.T) {
	w, _ := newTestStation(t)
	pub := &fakePublisher{}
	w.mqtt = pub
	var out bytes.Buffer
	w.nmea = nmea.NewWriter(&out, "WI")

	w.send(time.Time{})
	assert.Empty(t, pub.messages)
	assert.Zero(t, out.Len())
}

func TestSendPublishesAndWritesNMEA(t *testing.T) {
	w, clock := newTestStation(t)
	pub := &fakePublisher{}
	w.mqtt = pub
	var out bytes.Buffer
	w.nmea = nmea.NewWriter(&out, "WI")

	record(w, 3, 500, 250)
	w.convert(clock.Now())
	w.send(clock.Now())

	require.Len(t, pub.messages, 1)
	assert.Equal(t, "windsensor/wind", pub.messages[0].topic)
	var got wind.Snapshot
	require.NoError(t, json.Unmarshal(pub.messages[0].payload, &got))
	assert.InDelta(t, 180.0, got.Direction, 1e-9)

	assert.True(t, strings.HasPrefix(out.String(), "$WIMWV,180.0,R,"), out.String())
	assert.Contains(t, out.String(), ",N,A*")
}

func TestUploadWOW(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		assert.Equal(t, "/automaticreading", r.URL.Path)
	}))
	defer srv.Close()

	w, clock := newTestStation(t)
	w.cfg.WOW.SiteID = "1234"
	w.cfg.WOW.Pin = "5678"
	record(w, 3, 500, 250)
	w.convert(clock.Now())

	now := time.Date(2024, 3, 1, 10, 15, 0, 0, time.UTC)
	require.NoError(t, w.uploadWOW(context.Background(), srv.Client(), srv.URL+"/automaticreading?", now))

	assert.Equal(t, "1234", got.Get("siteid"))
	assert.Equal(t, "5678", got.Get("siteAuthenticationKey"))
	assert.Equal(t, "2024-03-01 10:15:00", got.Get("dateutc"))
	assert.Equal(t, version, got.Get("softwaretype"))
	assert.Equal(t, "180", got.Get("winddir"))
	assert.Equal(t, "0.6", got.Get("windspeedmph"))
	assert.Equal(t, "0.6", got.Get("windgustmph"))
	// no air sensor, no atmosphere fields
	assert.Empty(t, got.Get("tempf"))
}

func TestUploadWOWReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	w, _ := newTestStation(t)
	err := w.uploadWOW(context.Background(), srv.Client(), srv.URL+"/?", time.Now())
	assert.Error(t, err)
}

func TestPrepDataEnvironment(t *testing.T) {
	w, _ := newTestStation(t)
	w.latest.Publish(wind.Snapshot{
		Direction:   90,
		SpeedMps:    10,
		Environment: &wind.Environment{AirTemperatureC: 20, PressurehPa: 1000, Humidity: 55, DewPointC: 10},
	})
	w.history.Add(w.latest.Latest())

	wd := w.prepData(time.Now())
	assert.Equal(t, 68.0, wd.TempF)
	assert.Equal(t, 50.0, wd.DewPointF)
	assert.Equal(t, 55.0, wd.Humidity)
	assert.Equal(t, 29.53, wd.PressureIn)
	assert.Equal(t, 22.4, wd.WindSpeedMph)
	assert.Equal(t, 90.0, wd.WindDir)
}

func TestSeaLevel(t *testing.T) {
	assert.Equal(t, 1000.0, seaLevel(1000, 15, 0))
	H := Rd * (15 + kelvin) / g
	assert.InDelta(t, 1000*math.Exp(100/H), seaLevel(1000, 15, 100), 1e-9)
	assert.Greater(t, seaLevel(1000, 15, 100), 1011.0)
}
