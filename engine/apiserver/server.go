package apiserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics are the Prometheus counters/gauges the server publishes
// alongside the match event stream.
type Metrics struct {
	MatchesStarted  prometheus.Counter
	MatchesFinished prometheus.Counter
	ActiveStreams   prometheus.Gauge
}

// NewMetrics registers a fresh set of collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MatchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_matches_started_total",
			Help: "Number of matches started.",
		}),
		MatchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_matches_finished_total",
			Help: "Number of matches finished.",
		}),
		ActiveStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arena_active_event_streams",
			Help: "Number of open websocket event-stream subscribers.",
		}),
	}
	reg.MustRegister(m.MatchesStarted, m.MatchesFinished, m.ActiveStreams)
	return m
}

// Server wires a Registry up to an HTTP API: a JSON listing endpoint,
// a per-match websocket event stream, and a Prometheus /metrics
// endpoint.
type Server struct {
	router   chi.Router
	registry *Registry
	metrics  *Metrics
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	streams map[string][]chan EventFrame
}

// NewServer builds the chi router serving registry's matches, logging
// via log and tracking open event streams in metrics (whose collectors
// NewMetrics has already registered).
func NewServer(registry *Registry, metrics *Metrics, log zerolog.Logger) *Server {
	s := &Server{
		registry: registry,
		metrics:  metrics,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		streams: make(map[string][]chan EventFrame),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		MaxAge:         300,
	}))

	r.Get("/matches", s.handleListMatches)
	r.Get("/matches/{id}", s.handleGetMatch)
	r.Get("/matches/{id}/stream", s.handleStream)
	r.Handle("/metrics", promhttp.Handler())

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.registry.List()); err != nil {
		s.log.Error().Err(err).Msg("encode match list")
	}
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, ok := s.registry.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		s.log.Error().Err(err).Msg("encode match summary")
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.registry.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("match", id).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := make(chan EventFrame, 64)
	s.mu.Lock()
	s.streams[id] = append(s.streams[id], ch)
	s.mu.Unlock()
	s.metrics.ActiveStreams.Inc()
	defer s.metrics.ActiveStreams.Dec()

	for frame := range ch {
		w, err := conn.NextWriter(websocket.BinaryMessage)
		if err != nil {
			return
		}
		if err := frame.Encode(w); err != nil {
			w.Close()
			return
		}
		w.Close()
	}
}

// Publish fans f out to every subscriber currently watching matchID.
func (s *Server) Publish(matchID string, f EventFrame) {
	s.mu.Lock()
	subs := s.streams[matchID]
	s.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- f:
		default:
		}
	}
}
