package planner

import (
	"errors"
	"fmt"
)

// ErrTooManyFactors is the sentinel matched by FactorLimitError.
var ErrTooManyFactors = errors.New("chain exceeds factor limit")

// FactorLimitError is returned when a chain has more factors than the
// planner accepts (see WithMaxFactors).
type FactorLimitError struct {
	Chain   string
	Factors int
	Limit   int
}

func (e *FactorLimitError) Error() string {
	return fmt.Sprintf("chain %q has %d factors (limit %d)", e.Chain, e.Factors, e.Limit)
}

// Is allows errors.Is(err, ErrTooManyFactors).
func (e *FactorLimitError) Is(target error) bool {
	return target == ErrTooManyFactors
}
