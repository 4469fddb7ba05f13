package models

const (
	// SlotsPerDay is the number of bookable slot-units per calendar date
	// (morning + evening; a full-day booking consumes both).
	SlotsPerDay = 2

	// DefaultSessionTTL время жизни сессии после ввода PIN
	DefaultSessionTTL = 12 * 60 * 60 // 12 часов в секундах

	// PinAttemptLimit попыток ввода PIN в окне
	PinAttemptLimit = 5

	// PinAttemptWindow окно ограничения попыток PIN
	PinAttemptWindow = 5 * 60 // 5 минут в секундах

	// MaxBookingDays как далеко вперёд можно бронировать
	MaxBookingDays = 365

	// StatsCacheTTL время жизни кэша месячной статистики
	StatsCacheTTL = 5 * 60 // 5 минут в секундах

	// WorkerQueueSize размер очереди воркера
	WorkerQueueSize = 1000
)
