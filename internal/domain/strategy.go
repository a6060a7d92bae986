package domain

import "fmt"

// Strategy — торговая стратегия агента.
// Дискриминант (u8) является частью ключа хранения мандата,
// поэтому числовые значения менять НЕЛЬЗЯ — это протокольный контракт.
type Strategy uint8

const (
	StrategyMomentum Strategy = iota
	StrategyArbitrage
	StrategyLiquidityProvision
	StrategyMeanReversion
)

var strategyNames = map[Strategy]string{
	StrategyMomentum:           "momentum",
	StrategyArbitrage:          "arbitrage",
	StrategyLiquidityProvision: "liquidity_provision",
	StrategyMeanReversion:      "mean_reversion",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// ParseStrategy разбирает строковое имя стратегии из API-запроса.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, name)
}

// Side — направление сигнала.
type Side uint8

const (
	SideLong Side = iota
	SideShort
)

func (s Side) String() string {
	if s == SideShort {
		return "short"
	}
	return "long"
}

// ParseSide разбирает направление из API-запроса.
func ParseSide(name string) (Side, error) {
	switch name {
	case "long":
		return SideLong, nil
	case "short":
		return SideShort, nil
	default:
		return 0, fmt.Errorf("%w: unknown side %q", ErrInvalidInput, name)
	}
}
