package split

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EXACT SPLIT STRATEGY
// Each participant owes a specific exact amount (must sum to total)
// =============================================================================

// ExactStrategy implements the Strategy interface for exact amount splits
type ExactStrategy struct{}

// Type returns the split type identifier
func (s *ExactStrategy) Type() SplitType {
	return SplitTypeExact
}

// InputKind returns the kind of value exact splits read
func (s *ExactStrategy) InputKind() InputKind {
	return InputKindExactAmount
}

// Validate checks if the inputs are valid for an exact split
func (s *ExactStrategy) Validate(total decimal.Decimal, participants []Input) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	if err := validateTotal(total); err != nil {
		return err
	}

	sum, err := sumInputs(participants)
	if err != nil {
		return err
	}
	for _, p := range participants {
		if !isCentPrecise(*p.Value) {
			return fmt.Errorf("%w: %s has more than two decimals", ErrInvalidInput, p.Value.String())
		}
	}

	if !sum.Equal(total) {
		return &MismatchError{SplitType: SplitTypeExact, Sum: sum, Want: total}
	}

	return nil
}

// Calculate returns the exact amounts specified for each participant, unchanged
func (s *ExactStrategy) Calculate(total decimal.Decimal, participants []Input) ([]Split, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	outputs := make([]Split, len(participants))
	for i, p := range participants {
		outputs[i] = Split{
			UserID: p.UserID,
			Amount: *p.Value,
		}
	}

	return outputs, nil
}
