package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP метрики - количество запросов
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Общее количество HTTP запросов",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP метрики - время обработки запросов
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Время обработки HTTP запросов в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTP метрики - количество ошибок
	httpErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Общее количество HTTP ошибок",
		},
		[]string{"method", "endpoint", "status"},
	)

	// WS метрики - количество активных соединений
	wsActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_active_connections",
			Help: "Количество активных WebSocket соединений",
		},
	)

	activeRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anonspeak_active_rooms",
			Help: "Количество живых комнат",
		},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anonspeak_active_sessions",
			Help: "Количество зарегистрированных сессий",
		},
	)

	// Сигнальные события по типу и результату
	signalingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonspeak_signaling_events_total",
			Help: "Количество обработанных сигнальных событий",
		},
		[]string{"event", "result"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonspeak_rate_limited_total",
			Help: "Количество действий, отклоненных rate limiter",
		},
		[]string{"class"},
	)

	wsSlowConsumersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_slow_consumers_total",
			Help: "Количество соединений, закрытых из-за переполненной очереди отправки",
		},
	)
)

// RecordHTTPMetrics записывает метрики HTTP запроса
func RecordHTTPMetrics(method, endpoint string, status int, duration time.Duration) {
	strStatus := strconv.Itoa(status)

	httpRequestsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, strStatus).Observe(duration.Seconds())

	if status >= 400 {
		httpErrorsTotal.WithLabelValues(method, endpoint, strStatus).Inc()
	}
}

func IncrementWSActiveConnections() {
	wsActiveConnections.Inc()
}

func DecrementWSActiveConnections() {
	wsActiveConnections.Dec()
}

func SetActiveRooms(count int) {
	activeRooms.Set(float64(count))
}

func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// RecordSignalingEvent result: ok или код ошибки
func RecordSignalingEvent(event, result string) {
	signalingEventsTotal.WithLabelValues(event, result).Inc()
}

func IncrementRateLimited(class string) {
	rateLimitedTotal.WithLabelValues(class).Inc()
}

func IncrementWSSlowConsumers() {
	wsSlowConsumersTotal.Inc()
}
