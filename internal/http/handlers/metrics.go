package handlers

import (
	"net/http"
)

// MetricsExport serves the Prometheus registry.
func (a *App) MetricsExport(w http.ResponseWriter, r *http.Request) {
	if a.Metrics == nil {
		http.NotFound(w, r)
		return
	}
	a.Metrics.Handler().ServeHTTP(w, r)
}
