package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HeistMetrics содержит все метрики движка ограблений
type HeistMetrics struct {
	// Переходы между фазами
	TransitionsTotal prometheus.CounterVec
	CurrentPhase     prometheus.GaugeVec

	// Запуски и пропуски событий
	EventsStartedTotal prometheus.Counter
	GateRejectedTotal  prometheus.Counter

	// Голоса
	VotesTotal prometheus.CounterVec

	// Исходы и выплаты
	OutcomesTotal       prometheus.CounterVec
	HaulTotal           prometheus.Counter
	PaidOutTotal        prometheus.CounterVec
	OfflinePenaltyTotal prometheus.Counter
	DustTotal           prometheus.Counter
	Participants        prometheus.Histogram

	// Ошибки и восстановление
	ErrorsTotal  prometheus.CounterVec
	ResumesTotal prometheus.CounterVec

	// Состояние комнаты
	ActiveUsers prometheus.Gauge
	OnlineUsers prometheus.Gauge
}

// NewHeistMetrics регистрирует метрики в глобальном регистре
func NewHeistMetrics() *HeistMetrics {
	return NewHeistMetricsWith(prometheus.DefaultRegisterer)
}

// NewHeistMetricsWith регистрирует метрики в переданном регистре, тестам
// нужен свой регистр, чтобы не ловить повторную регистрацию
func NewHeistMetricsWith(reg prometheus.Registerer) *HeistMetrics {
	factory := promauto.With(reg)

	return &HeistMetrics{
		TransitionsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heist_transitions_total",
				Help: "Количество переходов между фазами",
			},
			[]string{"from", "to"},
		),
		CurrentPhase: *factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "heist_current_phase",
				Help: "Текущая фаза движка (1 для активной фазы)",
			},
			[]string{"phase"},
		),
		EventsStartedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "heist_events_started_total",
				Help: "Количество объявленных ограблений",
			},
		),
		GateRejectedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "heist_gate_rejected_total",
				Help: "Сколько раз ограбление не началось из-за низкой активности",
			},
		),
		VotesTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heist_votes_total",
				Help: "Принятые голоса по преступлениям",
			},
			[]string{"crime"},
		),
		OutcomesTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heist_outcomes_total",
				Help: "Исходы ограблений",
			},
			[]string{"crime", "result", "solo"},
		),
		HaulTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "heist_haul_total",
				Help: "Суммарная добыча",
			},
		),
		PaidOutTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heist_paid_out_total",
				Help: "Выплаты по ролям",
			},
			[]string{"role"},
		),
		OfflinePenaltyTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "heist_offline_penalty_total",
				Help: "Штрафы за отсутствие, ушедшие дому",
			},
		),
		DustTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "heist_rounding_dust_total",
				Help: "Остаток округления, не выплаченный никому",
			},
		),
		Participants: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "heist_participants",
				Help:    "Число участников выплаты",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
			},
		),
		ErrorsTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heist_errors_total",
				Help: "Ошибки в обработчиках фаз",
			},
			[]string{"phase"},
		),
		ResumesTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heist_resumes_total",
				Help: "Восстановления после рестарта",
			},
			[]string{"phase", "mode"},
		),
		ActiveUsers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "heist_active_users",
				Help: "Уникальные пользователи в окне активности",
			},
		),
		OnlineUsers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "heist_online_users",
				Help: "Пользователи в комнате",
			},
		),
	}
}

var phases = []string{"IDLE", "ANNOUNCING", "VOTING", "IN_PROGRESS", "DISTRIBUTING", "COOLDOWN"}

func (m *HeistMetrics) RecordTransition(from, to string) {
	m.TransitionsTotal.WithLabelValues(from, to).Inc()
	for _, p := range phases {
		value := 0.0
		if p == to {
			value = 1
		}
		m.CurrentPhase.WithLabelValues(p).Set(value)
	}
}

func (m *HeistMetrics) RecordEventStarted() {
	m.EventsStartedTotal.Inc()
}

func (m *HeistMetrics) RecordGateRejected() {
	m.GateRejectedTotal.Inc()
}

func (m *HeistMetrics) RecordVote(crimeID string) {
	m.VotesTotal.WithLabelValues(crimeID).Inc()
}

func (m *HeistMetrics) RecordOutcome(crimeID string, success, solo bool, haul int64) {
	result := "failure"
	if success {
		result = "success"
	}
	soloLabel := "false"
	if solo {
		soloLabel = "true"
	}
	m.OutcomesTotal.WithLabelValues(crimeID, result, soloLabel).Inc()
	m.HaulTotal.Add(float64(haul))
}

func (m *HeistMetrics) RecordPayout(role string, amount int64) {
	if amount <= 0 {
		return
	}
	m.PaidOutTotal.WithLabelValues(role).Add(float64(amount))
}

func (m *HeistMetrics) RecordSettlement(participants int, penalties, dust int64) {
	m.Participants.Observe(float64(participants))
	m.OfflinePenaltyTotal.Add(float64(penalties))
	m.DustTotal.Add(float64(dust))
}

func (m *HeistMetrics) RecordError(phase string) {
	m.ErrorsTotal.WithLabelValues(phase).Inc()
}

func (m *HeistMetrics) RecordResume(phase, mode string) {
	m.ResumesTotal.WithLabelValues(phase, mode).Inc()
}

func (m *HeistMetrics) RecordRoom(activeUsers, onlineUsers int) {
	m.ActiveUsers.Set(float64(activeUsers))
	m.OnlineUsers.Set(float64(onlineUsers))
}
