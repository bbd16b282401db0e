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

	LLMRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Total number of LLM generation requests",
		},
		[]string{"model", "purpose", "status"},
	)

	// 生成学习计划通常需要数十秒
	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Duration of LLM generation requests",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"model", "purpose"},
	)

	LLMTokens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Tokens consumed by LLM requests",
		},
		[]string{"model", "direction"},
	)

	QuizSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Quiz submissions by trigger and outcome",
		},
		[]string{"trigger", "status"},
	)

	QuizActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_active_sessions",
			Help: "Quiz sessions currently held in memory",
		},
	)

	QuizEventSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_event_subscribers",
			Help: "Open quiz event websocket connections",
		},
	)

	SpeechRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speech_requests_total",
			Help: "Speech synthesis requests by outcome",
		},
		[]string{"status"},
	)
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(LLMRequestCounter)
		prometheus.MustRegister(LLMRequestDuration)
		prometheus.MustRegister(LLMTokens)
		prometheus.MustRegister(QuizSubmissions)
		prometheus.MustRegister(QuizActiveSessions)
		prometheus.MustRegister(QuizEventSubscribers)
		prometheus.MustRegister(SpeechRequests)
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
