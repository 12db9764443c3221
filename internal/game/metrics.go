package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики игрового цикла. Регистрируются в глобальном регистре
// Prometheus и отдаются через /metrics статус-сервера.
var (
	onlineSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sandbox",
		Name:      "sessions_online",
		Help:      "Число подключённых сессий.",
	})

	worldBlocks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "sandbox",
		Name:      "world_blocks",
		Help:      "Число блоков в in-memory мире.",
	})

	framesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sandbox",
		Name:      "frames_received_total",
		Help:      "Принятые запросы клиентов по типам.",
	}, []string{"type"})

	malformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sandbox",
		Name:      "frames_malformed_total",
		Help:      "Кадры, отброшенные из-за дефектов формата.",
	})

	blockConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sandbox",
		Name:      "block_conflicts_total",
		Help:      "Мутации, проигравшие гонку за координату.",
	})

	broadcastsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sandbox",
		Name:      "broadcasts_total",
		Help:      "Число разосланных широковещательных сообщений.",
	})

	slowDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "sandbox",
		Name:      "slow_connections_dropped_total",
		Help:      "Соединения, закрытые из-за переполнения исходящей очереди.",
	})
)
