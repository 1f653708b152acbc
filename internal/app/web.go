// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/inertial_compass/internal/compass"
	"github.com/relabs-tech/inertial_compass/internal/config"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// webServer keeps the latest view, pushes every new one to websocket
// clients and forwards their commands.
type webServer struct {
	mu       sync.RWMutex
	lastView compass.View
	haveView bool

	clientsMu sync.Mutex
	clients   map[*websocket.Conn]bool

	metrics *viewMetrics
	command func(Command) error
}

func newWebServer(reg prometheus.Registerer, command func(Command) error) *webServer {
	return &webServer{
		clients: make(map[*websocket.Conn]bool),
		metrics: newViewMetrics(reg),
		command: command,
	}
}

// updateView stores v and broadcasts it.
func (s *webServer) updateView(v compass.View) {
	s.mu.Lock()
	s.lastView = v
	s.haveView = true
	s.metrics.observe(v)
	s.mu.Unlock()

	s.clientsMu.Lock()
	for c := range s.clients {
		if err := c.WriteJSON(v); err != nil {
			log.Printf("web: websocket write error: %v", err)
			c.Close()
			delete(s.clients, c)
		}
	}
	s.clientsMu.Unlock()
}

func (s *webServer) handleCompass(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.haveView {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.lastView); err != nil {
		log.Printf("web: json encode error: %v", err)
	}
}

func (s *webServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var c Command
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		http.Error(w, "bad command", http.StatusBadRequest)
		return
	}
	if _, ok := commandEvent(c.Command); !ok {
		http.Error(w, fmt.Sprintf("unknown command %q", c.Command), http.StatusBadRequest)
		return
	}
	if err := s.command(c); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *webServer) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade error: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.mu.RLock()
	if s.haveView {
		if err := conn.WriteJSON(s.lastView); err != nil {
			log.Printf("web: websocket write error: %v", err)
		}
	}
	s.mu.RUnlock()
	s.clients[conn] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		s.clientsMu.Unlock()
		conn.Close()
	}()

	for {
		var c Command
		if err := conn.ReadJSON(&c); err != nil {
			return
		}
		if _, ok := commandEvent(c.Command); !ok {
			log.Printf("web: unknown websocket command %q", c.Command)
			continue
		}
		if err := s.command(c); err != nil {
			log.Printf("web: command %q: %v", c.Command, err)
		}
	}
}

// routes builds the HTTP handler; static files are served from dir.
func (s *webServer) routes(reg prometheus.Gatherer, dir string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/compass", s.handleCompass)
	mux.HandleFunc("/api/command", s.handleCommand)
	mux.HandleFunc("/ws", s.handleWS)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/", http.FileServer(http.Dir(dir)))
	return mux
}

// RunWeb serves the compass view over HTTP and websocket and forwards
// browser commands to the compass process over MQTT.
func RunWeb() error {
	cfg := config.Get()

	bus, err := dialBus(cfg.MQTTBroker, cfg.MQTTClientIDWeb)
	if err != nil {
		return err
	}
	defer bus.Close()

	reg := prometheus.NewRegistry()
	srv := newWebServer(reg, func(c Command) error {
		return bus.PublishJSON(cfg.TopicCommand, false, c)
	})

	if err := bus.Subscribe(cfg.TopicView, func(payload []byte) {
		var v compass.View
		if err := json.Unmarshal(payload, &v); err != nil {
			log.Printf("web: view unmarshal error: %v", err)
			return
		}
		srv.updateView(v)
	}); err != nil {
		return err
	}
	log.Printf("web: subscribed to MQTT topic %s", cfg.TopicView)

	addr := fmt.Sprintf(":%d", cfg.WebServerPort)
	log.Printf("web: server listening on %s", addr)
	return http.ListenAndServe(addr, srv.routes(reg, "web"))
}
