package split

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Allocation is the result of splitting one expense
type Allocation struct {
	Splits   []Split  `json:"splits"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// Total adds up the allocated amounts
func (a *Allocation) Total() decimal.Decimal {
	total := decimal.Zero
	for _, s := range a.Splits {
		total = total.Add(s.Amount)
	}
	return total
}

// Allocate splits total among participantIDs with the default factory.
// inputs holds the literal value typed for each participant (amount, percentage
// or share count) and is ignored for EQUAL splits.
func Allocate(total decimal.Decimal, splitType SplitType, participantIDs []string, inputs map[string]string) (*Allocation, error) {
	return NewSplitStrategyFactory().Allocate(total, splitType, participantIDs, inputs)
}

// Allocate picks the strategy for splitType and runs it. The returned splits
// are in participant order and always add up to total.
func (f *Factory) Allocate(total decimal.Decimal, splitType SplitType, participantIDs []string, inputs map[string]string) (*Allocation, error) {
	strategy, err := f.Create(splitType)
	if err != nil {
		return nil, err
	}

	participants, err := buildInputs(strategy.InputKind(), participantIDs, inputs)
	if err != nil {
		return nil, err
	}

	splits, err := strategy.Calculate(total, participants)
	if err != nil {
		return nil, err
	}

	return &Allocation{
		Splits:   splits,
		Metadata: buildMetadata(strategy.InputKind(), participants),
	}, nil
}

func buildInputs(kind InputKind, participantIDs []string, inputs map[string]string) ([]Input, error) {
	if len(participantIDs) == 0 {
		return nil, ErrNoParticipants
	}

	seen := make(map[string]struct{}, len(participantIDs))
	participants := make([]Input, len(participantIDs))
	for i, id := range participantIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, id)
		}
		seen[id] = struct{}{}
		participants[i] = Input{UserID: id}

		if kind == "" {
			continue
		}
		raw := strings.TrimSpace(inputs[id])
		if raw == "" {
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q for %s", ErrInvalidInput, raw, id)
		}
		participants[i].Value = &v
	}

	return participants, nil
}

func buildMetadata(kind InputKind, participants []Input) Metadata {
	if kind == "" {
		return nil
	}
	metadata := make(Metadata, len(participants))
	for _, p := range participants {
		metadata[p.UserID] = OriginalInput{Kind: kind, Value: *p.Value}
	}
	return metadata
}
