package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	Enrollments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "educorp_enrollments_total",
			Help: "Enrollments created",
		},
	)

	LessonsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "educorp_lessons_completed_total",
			Help: "Lesson completions that changed a progress row",
		},
	)

	AssessmentsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "educorp_assessments_scored_total",
			Help: "Scored assessment attempts by resulting learning style",
		},
		[]string{"style"},
	)

	GatewayErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "educorp_gateway_errors_total",
			Help: "Document store calls that failed",
		},
		[]string{"op"},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(Enrollments)
		prometheus.MustRegister(LessonsCompleted)
		prometheus.MustRegister(AssessmentsScored)
		prometheus.MustRegister(GatewayErrors)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
