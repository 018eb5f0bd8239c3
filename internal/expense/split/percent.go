package split

import "github.com/shopspring/decimal"

// =============================================================================
// PERCENT SPLIT STRATEGY
// Divides the expense by percentage; the last participant absorbs rounding
// =============================================================================

// PercentStrategy implements the Strategy interface for percentage-based splits
type PercentStrategy struct{}

// Type returns the split type identifier
func (s *PercentStrategy) Type() SplitType {
	return SplitTypePercent
}

// InputKind returns the kind of value percent splits read
func (s *PercentStrategy) InputKind() InputKind {
	return InputKindPercentage
}

// Validate checks if the inputs are valid for a percentage split
func (s *PercentStrategy) Validate(total decimal.Decimal, participants []Input) error {
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
		if p.Value.GreaterThan(hundred) {
			return ErrPercentageOutOfRange
		}
	}

	if !sum.Equal(hundred) {
		return &MismatchError{SplitType: SplitTypePercent, Sum: sum, Want: hundred}
	}

	return nil
}

// Calculate divides the total amount based on each participant's percentage
func (s *PercentStrategy) Calculate(total decimal.Decimal, participants []Input) ([]Split, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	return allocateByWeight(total, hundred, participants), nil
}
