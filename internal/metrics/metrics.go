// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry *prometheus.Registry

	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
	MessagesSent prometheus.Counter
	PushEvents   *prometheus.CounterVec
	Sockets      prometheus.Gauge
	Rooms        prometheus.Gauge
	TypingMarks  prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gigchat", Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gigchat", Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gigchat", Name: "messages_sent_total",
			Help: "Messages stored by the send endpoint.",
		}),
		PushEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gigchat", Name: "push_events_total",
			Help: "Events delivered to WebSocket subscribers by type.",
		}, []string{"type"}),
		Sockets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gigchat", Name: "websocket_connections",
			Help: "Open WebSocket connections.",
		}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gigchat", Name: "push_rooms",
			Help: "Threads with at least one subscriber.",
		}),
		TypingMarks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gigchat", Name: "typing_signals_total",
			Help: "Typing signals accepted.",
		}),
	}
	m.Registry.MustRegister(
		m.Requests, m.Latency, m.MessagesSent, m.PushEvents, m.Sockets, m.Rooms, m.TypingMarks,
		collectors.NewGoCollector(),
	)
	return m
}

// Middleware records request counts and latency by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.Latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}
