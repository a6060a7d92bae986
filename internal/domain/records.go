package domain

// MaxBps — верхняя граница для всех величин в базисных пунктах (100%).
const MaxBps = 10_000

// ConfidenceFloorBps — минимальная уверенность сигнала (85%).
// Жестко зашитая политика протокола, не настраивается конфигом.
const ConfidenceFloorBps = 8_500

// RouterState — глобальный синглтон конфигурации authority-сервиса.
// Создается один раз при bootstrap, дальше мутируется только админом.
type RouterState struct {
	Admin            string `json:"admin"`
	OracleAuthority  string `json:"oracle_authority"`
	RiskThresholdBps uint16 `json:"risk_threshold_bps"` // напр. 7000 = 0.70
	Paused           bool   `json:"paused"`
}

// OracleScore — оценка риска одного актива.
// Перезаписывается оракулом безусловно, истории не храним.
type OracleScore struct {
	Asset    string `json:"asset"`
	ScoreBps uint16 `json:"score_bps"` // 0..=10000
}

// Mandate — временная capability-запись: разрешение пользователю
// подавать сигналы по паре (asset, strategy) до expires_at.
// После expires_at запись НЕ удаляется автоматически — просрочка
// проверяется только в точке потребления (execute_signal).
type Mandate struct {
	User      string   `json:"user"`
	Asset     string   `json:"asset"`
	Strategy  Strategy `json:"strategy"`
	ExpiresAt int64    `json:"expires_at"` // unix seconds
}

// SlabAccount — запись исполнительного реестра на одного агента.
// Стратегия фиксируется при открытии, P&L — насыщающийся аккумулятор.
type SlabAccount struct {
	Owner          string   `json:"owner"`
	Strategy       Strategy `json:"strategy"`
	PerformancePnl int64    `json:"performance_pnl"`
	LastSignalTs   int64    `json:"last_signal_ts"`
}
