package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: исходы выдачи мандатов (minted, paused, below_threshold...)
	MintsTotal *prometheus.CounterVec

	// Состояние circuit breaker'а выдачи (0 - работаем, 1 - пауза)
	PauseState prometheus.Gauge

	// Снятые мандаты по причинам (revoke, veto)
	RevocationsTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern - Если рег не передан, используем локальный, который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		MintsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "router_mints_total",
			Help: "Mandate mint attempts by outcome.",
		}, []string{"outcome"}),

		PauseState: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "router_pause_state",
			Help: "Issuance circuit breaker state (0=live, 1=paused).",
		}),

		RevocationsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "router_revocations_total",
			Help: "Closed mandates by reason.",
		}, []string{"reason"}),
	}
}
