package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"

	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

var (
	loginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_logins_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)

	refreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_refresh_total",
			Help: "Credential refresh attempts by result.",
		},
		[]string{"result"},
	)

	authzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Permission guard decisions by outcome and reason.",
		},
		[]string{"decision", "reason"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

func ObserveRefresh(result string) {
	refreshTotal.WithLabelValues(result).Inc()
}

func ObserveDecision(decision, reason string) {
	authzDecisionsTotal.WithLabelValues(decision, reason).Inc()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request latency labelled by the matched route template,
// so path parameters do not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
