// Package metrics defines the Prometheus collectors of the voucher backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestDuration tracks API latency per matched route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "voucher_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
			},
		},
		[]string{"method", "route", "status"},
	)

	// Mutations counts writes by resource, operation and outcome.
	Mutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucher_mutations_total",
			Help: "Write operations by resource, operation and result",
		},
		[]string{"resource", "op", "result"}, // result: success or failure
	)

	// VouchersExpired counts vouchers moved to expired by the sweeper.
	VouchersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voucher_expired_total",
		Help: "Vouchers expired by the background sweeper",
	})

	// Deliveries counts voucher messages sent to customers.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voucher_deliveries_total",
			Help: "Voucher deliveries by channel and result",
		},
		[]string{"channel", "result"},
	)

	// EventsDropped counts audit events discarded because the publish buffer
	// was full or the broker rejected them.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voucher_events_dropped_total",
		Help: "Audit events that were not published",
	})
)

func result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordMutation counts one write.
func RecordMutation(resource, op string, err error) {
	Mutations.WithLabelValues(resource, op, result(err)).Inc()
}

// RecordDelivery counts one delivery attempt.
func RecordDelivery(channel string, err error) {
	Deliveries.WithLabelValues(channel, result(err)).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware observes request latency labelled by the chi route pattern, so
// path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
