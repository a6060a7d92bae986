package slab

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency: сколько времени заняла обработка сигнала
	SignalDuration *prometheus.HistogramVec

	// Traffic: сигналы по исходам (executed, low_confidence, expired...)
	SignalsTotal *prometheus.CounterVec

	// Размер горячего кэша отозванных мандатов
	RevokedCacheSize prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		SignalDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "slab_signal_duration_seconds",
			Help:    "Histogram of signal processing latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"status"}),

		SignalsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "slab_signals_total",
			Help: "Total number of processed signals by outcome.",
		}, []string{"status"}),

		RevokedCacheSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "slab_revoked_cache_size",
			Help: "Current number of mandate addresses in the revocation cache.",
		}),
	}
}
