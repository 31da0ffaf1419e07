// Package metrics holds the Prometheus collectors exported by the perception server.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "perception"

// ReportsTotal counts report requests by outcome: released, insufficient or error.
var ReportsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_total",
		Help:      "Total number of subject report requests by outcome",
	},
	[]string{"kind", "outcome"},
)

// ExcerptsTotal counts excerpt requests by outcome: released, withheld or error.
var ExcerptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "excerpts_total",
		Help:      "Total number of free-text excerpt requests by outcome",
	},
	[]string{"outcome"},
)

// SubmissionsTotal counts feedback submissions: accepted, invalid or error.
var SubmissionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Total number of feedback submissions by result",
	},
	[]string{"result"},
)

var ModerationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderations_total",
		Help:      "Total number of moderation decisions by resulting status",
	},
	[]string{"status"},
)

// CacheOperations counts report cache lookups: hit, miss or error.
var CacheOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_operations_total",
		Help:      "Total number of report cache lookups by result",
	},
	[]string{"result"},
)

var ModerationBacklog = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "moderation_backlog",
		Help:      "Number of feedback submissions waiting for moderation",
	},
)

var GRPCRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "grpc_request_duration_seconds",
		Help:      "Duration of gRPC requests in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	},
	[]string{"method", "code"},
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// UnaryServerInterceptor records GRPCRequestDuration for every unary call.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		GRPCRequestDuration.
			WithLabelValues(info.FullMethod, status.Code(err).String()).
			Observe(time.Since(start).Seconds())
		return resp, err
	}
}
