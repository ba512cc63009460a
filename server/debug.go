package server

import (
	"expvar"
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// ServeDebug exposes /metrics, /debug/pprof/*, and /debug/vars on addr, the
// same grouping distribution/cmd/registry/main.go's debugServer wires up
// behind a single net/http.ListenAndServe call, but on a private mux here
// instead of the default one so the relay's own packet listener can never
// be reached through it.
func ServeDebug(addr string, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	log.WithField("addr", addr).Info("debug server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("debug server stopped")
	}
}
