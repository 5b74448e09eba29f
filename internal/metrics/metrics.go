// Package metrics exposes optional Prometheus instrumentation for the
// engine's transfer counters. It is purely observational — nothing in
// internal/frame depends on it — and the HTTP endpoint it can be
// mounted on only binds when a caller explicitly asks for it (spec's
// logging/metrics collaborators are opt-in, never required).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BytesTransferred counts total bytes moved across all frames.
	BytesTransferred = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nettf_bytes_transferred_total",
		Help: "Total bytes sent or received across all frames.",
	})
	// FramesTotal counts completed frames by kind and outcome.
	FramesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nettf_frames_total",
		Help: "Total frames processed, labeled by frame kind and outcome.",
	}, []string{"kind", "outcome"})
	// ChunkSizeCurrent reports the adaptive chunker's last-observed
	// chunk size for the in-flight transfer.
	ChunkSizeCurrent = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nettf_chunk_size_bytes",
		Help: "Current adaptive chunk size in bytes.",
	})
	// ActiveConnections reports whether a transfer is in flight (0 or 1,
	// since the server handles one connection at a time).
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nettf_active_connections",
		Help: "1 while a transfer connection is being serviced, else 0.",
	})
)

func init() {
	prometheus.MustRegister(BytesTransferred, FramesTotal, ChunkSizeCurrent, ActiveConnections)
}

// Handler returns the /metrics HTTP handler for callers that want to
// mount it on their own server.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve starts a dedicated metrics HTTP server on addr. It is meant to
// be run in its own goroutine; callers that do not pass --metrics-addr
// never call this, so the engine stays metrics-free by default.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
