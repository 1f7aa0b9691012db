package portfolio

import (
	"fmt"
	"math"

	"github.com/wonny/folio/internal/contracts"
)

// WeightTolerance is the allowed deviation of the weight sum from 1
const WeightTolerance = 1e-6

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(p *contracts.Portfolio) error {
	if p.Name == "" {
		return ValidationError{"portfolioName", "required"}
	}
	if p.InceptionDate.IsZero() {
		return ValidationError{"inceptionDate", "required"}
	}
	if math.IsNaN(p.InitialCapital) || math.IsInf(p.InitialCapital, 0) || p.InitialCapital <= 0 {
		return ValidationError{"initialCapital", "must be > 0"}
	}
	if len(p.Holdings) == 0 {
		return ValidationError{"weights", "at least one holding required"}
	}

	seen := make(map[string]bool, len(p.Holdings))
	for i, h := range p.Holdings {
		field := fmt.Sprintf("weights[%d]", i)
		if h.Ticker == "" {
			return ValidationError{field + ".ticker", "required"}
		}
		if seen[h.Ticker] {
			return ValidationError{field + ".ticker", fmt.Sprintf("duplicate ticker %s", h.Ticker)}
		}
		seen[h.Ticker] = true

		if math.IsNaN(h.TargetWeight) || math.IsInf(h.TargetWeight, 0) {
			return ValidationError{field + ".weight", "must be finite"}
		}
		if h.TargetWeight < 0 {
			return ValidationError{field + ".weight", "weights cannot be negative"}
		}
	}

	// 비중 합 = 1 ± 1e-6
	sum := p.TotalWeight()
	if math.Abs(sum-1.0) > WeightTolerance {
		return ValidationError{"weights", fmt.Sprintf("weights must sum to 1.0 (sum=%g)", sum)}
	}

	return nil
}
