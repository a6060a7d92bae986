package domain

import "errors"

// Таксономия отказов протокола. Все они — нарушения предусловий,
// обнаруженные ДО мутации: операция откатывается целиком, ретраев внутри нет.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrPaused         = errors.New("router is paused")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrOracleMismatch = errors.New("oracle asset mismatch")
	ErrBelowThreshold = errors.New("below risk threshold")
	ErrMandateExpired = errors.New("mandate expired")
	ErrLowConfidence  = errors.New("confidence below 85% floor")

	// Жизненный цикл записей
	ErrNotFound      = errors.New("record not found")
	ErrMandateExists = errors.New("mandate already exists for this triple")
	ErrSlabExists    = errors.New("slab already exists for this owner")
)
