package infra

const (
	// RedisNamespace Базовый префикс для изоляции служебных данных проекта в Redis.
	// ВАЖНО: адреса записей протокола живут в своем пространстве (addrspace)
	// и под этот префикс не попадают.
	RedisNamespace = "mandate"
)

// Ключи для Sets (состояние)
const (
	// RedisKeyRevokedMandates — множество адресов отозванных/ветированных
	// мандатов. Slab греет из него локальный кэш при старте.
	RedisKeyRevokedMandates = RedisNamespace + ":mandates:revoked_set"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanMandateRevoked — трансляция адресов отозванных мандатов.
	RedisChanMandateRevoked = RedisNamespace + ":mandates:revoked-signal"

	// RedisChanMandateReinstated — адрес снова жив: повторная выдача
	// после отзыва обязана вычистить его из горячих кэшей.
	RedisChanMandateReinstated = RedisNamespace + ":mandates:reinstated-signal"

	// RedisChanPauseSignal — сигнал circuit breaker'а: "on"/"off".
	RedisChanPauseSignal = RedisNamespace + ":router:pause-signal"
)
