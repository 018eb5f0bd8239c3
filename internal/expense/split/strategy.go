package split

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitType defines the type of split strategy
type SplitType string

const (
	SplitTypeEqual   SplitType = "EQUAL"
	SplitTypeExact   SplitType = "EXACT"
	SplitTypePercent SplitType = "PERCENT"
	SplitTypeShares  SplitType = "SHARES"
)

// Input is one participant with the value the user supplied for them.
// Value is nil for EQUAL splits.
type Input struct {
	UserID string
	Value  *decimal.Decimal
}

// Split is one participant's owed portion of an expense
type Split struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Strategy is the interface that all split strategies must implement
type Strategy interface {
	// Calculate computes the split amounts for all participants
	Calculate(total decimal.Decimal, participants []Input) ([]Split, error)

	// Type returns the type identifier for this strategy
	Type() SplitType

	// InputKind tells which kind of per-participant value the strategy reads.
	// Empty when the strategy takes no input.
	InputKind() InputKind

	// Validate checks if the inputs are valid for this strategy
	Validate(total decimal.Decimal, participants []Input) error
}

// Factory creates split strategies based on the requested type
type Factory struct{}

// NewSplitStrategyFactory creates a new factory instance
func NewSplitStrategyFactory() *Factory {
	return &Factory{}
}

// Create returns the appropriate strategy implementation based on the type
func (f *Factory) Create(splitType SplitType) (Strategy, error) {
	switch splitType {
	case SplitTypeEqual:
		return &EqualStrategy{}, nil
	case SplitTypeExact:
		return &ExactStrategy{}, nil
	case SplitTypePercent:
		return &PercentStrategy{}, nil
	case SplitTypeShares:
		return &SharesStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitType, splitType)
	}
}

var (
	ErrNoParticipants       = errors.New("select at least one participant")
	ErrNonPositiveShares    = errors.New("shares must add up to more than zero")
	ErrMismatch             = errors.New("split does not add up to the total")
	ErrInvalidTotal         = errors.New("total must be a positive amount with at most two decimals")
	ErrMissingInput         = errors.New("a value is required for every participant")
	ErrInvalidInput         = errors.New("invalid split value")
	ErrNegativeInput        = errors.New("split values cannot be negative")
	ErrPercentageOutOfRange = errors.New("percentage must be between 0 and 100")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrUnknownSplitType     = errors.New("unknown split type")
)

var hundred = decimal.NewFromInt(100)

// isCentPrecise reports whether d carries no more than two decimal places
func isCentPrecise(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func validateTotal(total decimal.Decimal) error {
	if !total.IsPositive() || !isCentPrecise(total) {
		return ErrInvalidTotal
	}
	return nil
}

// sumInputs adds up participant values, failing on missing or negative ones
func sumInputs(participants []Input) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range participants {
		if p.Value == nil {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrMissingInput, p.UserID)
		}
		if p.Value.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeInput, p.UserID)
		}
		sum = sum.Add(*p.Value)
	}
	return sum, nil
}

// allocateByWeight gives every weighted participant but the last one
// round(total*w/weightTotal, 2) and hands the last weighted participant whatever
// is left, so the parts always add up to total. Zero weights get nothing, and a
// rounded share is capped at what is still unallocated so no part goes negative.
func allocateByWeight(total, weightTotal decimal.Decimal, participants []Input) []Split {
	outputs := make([]Split, len(participants))
	allocated := decimal.Zero

	last := len(participants) - 1
	for last > 0 && !participants[last].Value.IsPositive() {
		last--
	}

	for i, p := range participants {
		if i == last {
			continue
		}
		amount := decimal.Min(total.Mul(*p.Value).Div(weightTotal).Round(2), total.Sub(allocated))
		allocated = allocated.Add(amount)
		outputs[i] = Split{UserID: p.UserID, Amount: amount}
	}
	outputs[last] = Split{UserID: participants[last].UserID, Amount: total.Sub(allocated)}

	return outputs
}
