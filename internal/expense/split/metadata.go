package split

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// InputKind tags what a stored original input means
type InputKind string

const (
	InputKindExactAmount InputKind = "EXACT_AMOUNT"
	InputKindPercentage  InputKind = "PERCENTAGE"
	InputKindShareCount  InputKind = "SHARE_COUNT"
)

// OriginalInput is the value a user typed for one participant, kept so an
// expense can be edited again without losing the intent behind rounded amounts.
type OriginalInput struct {
	Kind  InputKind       `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

func ExactAmount(v decimal.Decimal) OriginalInput {
	return OriginalInput{Kind: InputKindExactAmount, Value: v}
}

func Percentage(v decimal.Decimal) OriginalInput {
	return OriginalInput{Kind: InputKindPercentage, Value: v}
}

func ShareCount(v decimal.Decimal) OriginalInput {
	return OriginalInput{Kind: InputKindShareCount, Value: v}
}

// Metadata maps user id to the original input for that user.
// Stored as JSONB in the expenses table.
type Metadata map[string]OriginalInput

// Inputs turns the metadata back into the per-participant strings Allocate accepts
func (m Metadata) Inputs() map[string]string {
	if len(m) == 0 {
		return nil
	}
	inputs := make(map[string]string, len(m))
	for userID, in := range m {
		inputs[userID] = in.Value.String()
	}
	return inputs
}

// Value implements driver.Valuer
func (m Metadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode split metadata: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner
func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into split metadata", src)
	}

	decoded := Metadata{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("failed to decode split metadata: %w", err)
	}
	*m = decoded
	return nil
}
