package domain

import "time"

// EventKind — тип доменного события для журнала.
type EventKind string

const (
	EventRouterInitialized EventKind = "RouterInitialized"
	EventPaused            EventKind = "Paused"
	EventUnpaused          EventKind = "Unpaused"
	EventThresholdUpdated  EventKind = "ThresholdUpdated"
	EventOracleScoreSet    EventKind = "OracleScoreSet"
	EventMandateMinted     EventKind = "MandateMinted"
	EventMandateRevoked    EventKind = "MandateRevoked"
	EventSlabInitialized   EventKind = "SlabInitialized"
	EventSignalExecuted    EventKind = "SignalExecuted"
)

// Event — запись журнала. Пишется асинхронно пачками в Postgres,
// коммит самой операции от журнала не зависит.
type Event struct {
	ID      string                 `json:"id"`       // UUID события
	TraceID string                 `json:"trace_id"` // Сквозной ID запроса
	Kind    EventKind              `json:"kind"`
	Actor   string                 `json:"actor"` // Кто вызвал операцию
	Payload map[string]interface{} `json:"payload"`

	// Результат
	Status    string    `json:"status"` // "SUCCESS" или "FAILED"
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
