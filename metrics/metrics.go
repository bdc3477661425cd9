// Package metrics exposes the tool's operational counters for Prometheus
// scraping at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Uploads counts accepted file uploads by kind (mmi, table, barcode,
	// error, sql).
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mmiclean_uploads_total",
		Help: "Accepted file uploads by kind.",
	}, []string{"kind"})

	// Analyses counts analysis runs by subsystem (cleanup, analytics).
	Analyses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mmiclean_analyses_total",
		Help: "Analysis runs by subsystem.",
	}, []string{"subsystem"})

	// ChangeDecisions counts operator approve/reject decisions.
	ChangeDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mmiclean_change_decisions_total",
		Help: "Operator change decisions by outcome.",
	}, []string{"decision"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
