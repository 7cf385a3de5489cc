package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gr-butler/windsensor/env"
	"github.com/gr-butler/windsensor/wind"

	logger "github.com/sirupsen/logrus"
)

const writeWait = time.Second * 5

type webdata struct {
	TimeNow   string         `json:"time"`
	Version   string         `json:"version"`
	Unit      wind.SpeedUnit `json:"unit"`
	Speed     float64        `json:"wind_speed"`
	Cardinal  string         `json:"wind_dir_cardinal"`
	MeanMps   float64        `json:"wind_speed_avg_mps"`
	GustMps   float64        `json:"wind_gust_mps"`
	MeanDir   float64        `json:"wind_dir_avg"`
	Rotations uint64         `json:"rotations"`
	Wind      wind.Snapshot  `json:"wind"`
}

func (w *windstation) payload(s wind.Snapshot) webdata {
	unit := w.settings.Get().Unit()
	sum := w.history.Summarise(env.GustSamples)
	return webdata{
		TimeNow:   s.Time.Format(time.RFC822),
		Version:   version,
		Unit:      unit,
		Speed:     s.Speed(unit),
		Cardinal:  wind.CardinalPoint(s.Direction),
		MeanMps:   sum.MeanMps,
		GustMps:   sum.GustMps,
		MeanDir:   sum.Direction,
		Rotations: w.capture.RotationCount(),
		Wind:      s,
	}
}

func (w *windstation) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", w.handler)
	mux.HandleFunc("/ws", w.wsHandler)
	mux.HandleFunc("/settings", w.settingsHandler)
	return mux
}

func (w *windstation) handler(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, w.payload(w.latest.Latest()))
}

func (w *windstation) settingsHandler(rw http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(rw, w.settings.Get())
	case http.MethodPut, http.MethodPost:
		s := w.settings.Get()
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		if err := s.Check(); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}
		if s.SensorType != w.settings.Get().SensorType {
			logger.Warnf("Sensor type [%v] takes effect after a restart", s.SensorType)
		}
		w.settings.Set(s)
		logger.Infof("Settings updated [%+v]", s)
		if w.store != nil {
			if err := w.store.Save(r.Context(), s); err != nil {
				logger.Errorf("Failed to save settings [%v]", err)
				http.Error(rw, err.Error(), http.StatusInternalServerError)
				return
			}
		}
		writeJSON(rw, s)
	default:
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func writeJSON(rw http.ResponseWriter, v interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	js, err := json.Marshal(v)
	if err != nil {
		logger.Errorf("JSON error [%v]", err)
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = rw.Write(js) // not much we can do if this fails
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsHandler streams every sent snapshot to the client until it goes away.
func (w *windstation) wsHandler(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		logger.Errorf("Websocket upgrade failed [%v]", err)
		return
	}
	defer conn.Close()

	ch := w.hub.subscribe()
	defer w.hub.unsubscribe(ch)

	// the reader only notices the close
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case d := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(d); err != nil {
				logger.Debugf("Websocket write failed [%v]", err)
				return
			}
		}
	}
}

// hub fans the send cycle out to websocket clients. A slow client misses
// updates rather than holding up the others.
type hub struct {
	lock    sync.Mutex
	clients map[chan webdata]struct{}
}

func newHub() *hub {
	return &hub{clients: make(map[chan webdata]struct{})}
}

func (h *hub) subscribe() chan webdata {
	h.lock.Lock()
	defer h.lock.Unlock()
	ch := make(chan webdata, 1)
	h.clients[ch] = struct{}{}
	return ch
}

func (h *hub) unsubscribe(ch chan webdata) {
	h.lock.Lock()
	defer h.lock.Unlock()
	delete(h.clients, ch)
}

func (h *hub) count() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

func (h *hub) broadcast(d webdata) {
	h.lock.Lock()
	defer h.lock.Unlock()
	for ch := range h.clients {
		select {
		case ch <- d:
		default:
		}
	}
}
