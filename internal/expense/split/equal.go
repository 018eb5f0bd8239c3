package split

import "github.com/shopspring/decimal"

// =============================================================================
// EQUAL SPLIT STRATEGY
// Divides the expense equally; the first participant absorbs the leftover cents
// =============================================================================

// EqualStrategy implements the Strategy interface for equal splits
type EqualStrategy struct{}

// Type returns the split type identifier
func (s *EqualStrategy) Type() SplitType {
	return SplitTypeEqual
}

// InputKind returns the empty kind: equal splits take no per-participant values
func (s *EqualStrategy) InputKind() InputKind {
	return ""
}

// Validate checks if the inputs are valid for an equal split
func (s *EqualStrategy) Validate(total decimal.Decimal, participants []Input) error {
	if len(participants) == 0 {
		return ErrNoParticipants
	}
	return validateTotal(total)
}

// Calculate floors the per-person share to the cent and gives the first
// participant the remainder, so the result always adds up to total.
func (s *EqualStrategy) Calculate(total decimal.Decimal, participants []Input) ([]Split, error) {
	if err := s.Validate(total, participants); err != nil {
		return nil, err
	}

	cents := total.Shift(2).IntPart()
	n := int64(len(participants))
	base := cents / n
	remainder := cents - base*n

	outputs := make([]Split, len(participants))
	for i, p := range participants {
		amount := base
		if i == 0 {
			amount += remainder
		}
		outputs[i] = Split{
			UserID: p.UserID,
			Amount: decimal.New(amount, -2),
		}
	}

	return outputs, nil
}
