package split

import "github.com/shopspring/decimal"

// =============================================================================
// SHARES SPLIT STRATEGY
// Divides the expense by weight; the last participant absorbs rounding
// =============================================================================

// SharesStrategy implements the Strategy interface for share-weighted splits
type SharesStrategy struct{}

// Type returns the split type identifier
func (s *SharesStrategy) Type() SplitType {
	return SplitTypeShares
}

// InputKind returns the kind of value share splits read
func (s *SharesStrategy) InputKind() InputKind {
	return InputKindShareCount
}

// Validate checks if the inputs are valid for a shares split
func (s *SharesStrategy) Validate(total decimal.Decimal, participants []Input) error {
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
	if !sum.IsPositive() {
		return ErrNonPositiveShares
	}

	return nil
}

// Calculate divides the total amount by each participant's share of the total weight
func (s *SharesStrategy) Calculate(total decimal.Decimal, participants []Input) ([]Split, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	weightTotal, _ := sumInputs(participants)
	return allocateByWeight(total, weightTotal, participants), nil
}
