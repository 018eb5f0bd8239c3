package split

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MismatchError is returned when EXACT amounts or PERCENT percentages do not
// reconcile with what they must add up to. No allocation is produced.
type MismatchError struct {
	SplitType SplitType
	Sum       decimal.Decimal
	Want      decimal.Decimal
}

func (e *MismatchError) Error() string {
	if e.SplitType == SplitTypePercent {
		return fmt.Sprintf("percentages sum to %s%%, need %s%%", e.Sum.String(), e.Want.String())
	}
	return fmt.Sprintf("sum is %s, need %s", e.Sum.StringFixed(2), e.Want.StringFixed(2))
}

// Is lets errors.Is(err, ErrMismatch) match any *MismatchError
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Difference is what is still missing (negative when the inputs overshoot)
func (e *MismatchError) Difference() decimal.Decimal {
	return e.Want.Sub(e.Sum)
}

var inputErrors = []error{
	ErrNoParticipants,
	ErrNonPositiveShares,
	ErrMismatch,
	ErrInvalidTotal,
	ErrMissingInput,
	ErrInvalidInput,
	ErrNegativeInput,
	ErrPercentageOutOfRange,
	ErrDuplicateParticipant,
	ErrUnknownSplitType,
}

// IsInputError reports whether err was caused by what the caller supplied
// rather than by a failure inside the allocator.
func IsInputError(err error) bool {
	for _, target := range inputErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
