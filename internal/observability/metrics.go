package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixelstream",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total admin HTTP requests.",
		},
		[]string{"node", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pixelstream",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "method", "path", "status"},
	)
	framesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pixelstream",
			Subsystem: "transmit",
			Name:      "frames_total",
			Help:      "Frames written to the network.",
		},
	)
	bytesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pixelstream",
			Subsystem: "transmit",
			Name:      "bytes_total",
			Help:      "Datagram bytes written to the network.",
		},
	)
	sendErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pixelstream",
			Subsystem: "transmit",
			Name:      "errors_total",
			Help:      "Sends aborted by a write error.",
		},
	)
	datagramsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixelstream",
			Subsystem: "ingest",
			Name:      "datagrams_total",
			Help:      "Datagrams read from the listening socket.",
		},
		[]string{"listener"},
	)
	framesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixelstream",
			Subsystem: "ingest",
			Name:      "frames_applied_total",
			Help:      "Frames drawn onto the composite surface.",
		},
		[]string{"listener", "layer"},
	)
	framesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixelstream",
			Subsystem: "ingest",
			Name:      "frames_dropped_total",
			Help:      "Datagrams dropped before drawing.",
		},
		[]string{"listener", "reason"},
	)
	flushErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pixelstream",
			Subsystem: "ingest",
			Name:      "flush_errors_total",
			Help:      "Composite flushes that failed.",
		},
		[]string{"listener"},
	)
	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pixelstream",
			Subsystem: "ingest",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent holding the surface lock for draw and flush.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		},
		[]string{"listener"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			httpDuration,
			framesSent,
			bytesSent,
			sendErrors,
			datagramsReceived,
			framesApplied,
			framesDropped,
			flushErrors,
			dispatchDuration,
		)
	})
}

func RecordHTTPRequest(node, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(node, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(node, method, path, statusLabel).Observe(duration.Seconds())
}

func RecordFrameSent(bytes int) {
	RegisterMetrics()
	framesSent.Inc()
	bytesSent.Add(float64(bytes))
}

func RecordSendError() {
	RegisterMetrics()
	sendErrors.Inc()
}

func RecordDatagram(listener string) {
	RegisterMetrics()
	datagramsReceived.WithLabelValues(listener).Inc()
}

func RecordFrameApplied(listener string, layer int, dispatch time.Duration) {
	RegisterMetrics()
	framesApplied.WithLabelValues(listener, strconv.Itoa(layer)).Inc()
	dispatchDuration.WithLabelValues(listener).Observe(dispatch.Seconds())
}

func RecordFrameDropped(listener, reason string) {
	RegisterMetrics()
	framesDropped.WithLabelValues(listener, reason).Inc()
}

func RecordFlushError(listener string) {
	RegisterMetrics()
	flushErrors.WithLabelValues(listener).Inc()
}
