// Package web provides the HTTP status server for the wwvb-sensor
// daemon: an HTML status page, a JSON endpoint, Prometheus metrics and
// a websocket feed of live decoder state.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/wwvb-sensor/internal/status"
)

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	metrics    *Metrics
	live       *LiveHub
}

// New creates a Server that reads state from the given tracker. Each
// server carries its own metrics registry, so several can coexist in
// one process.
func New(addr string, tracker *status.Tracker) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		tracker: tracker,
		metrics: NewMetrics(reg),
		live:    NewLiveHub(),
	}
	registerLiveGauge(reg, s.live)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/live", s.live.HandleLive)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Metrics returns the metric set the run loop feeds.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Live returns the websocket hub the run loop broadcasts on.
func (s *Server) Live() *LiveHub {
	return s.live
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
