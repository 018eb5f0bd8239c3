package split

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amounts(splits []Split) map[string]string {
	out := make(map[string]string, len(splits))
	for _, s := range splits {
		out[s.UserID] = s.Amount.StringFixed(2)
	}
	return out
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		splitType    SplitType
		participants []string
		inputs       map[string]string
		want         map[string]string
		wantErr      error
	}{
		{
			name:         "equal split gives leftover cent to first participant",
			total:        "100.00",
			splitType:    SplitTypeEqual,
			participants: []string{"a", "b", "c"},
			want:         map[string]string{"a": "33.34", "b": "33.33", "c": "33.33"},
		},
		{
			name:         "equal split with two leftover cents",
			total:        "0.05",
			splitType:    SplitTypeEqual,
			participants: []string{"a", "b", "c"},
			want:         map[string]string{"a": "0.03", "b": "0.01", "c": "0.01"},
		},
		{
			name:         "equal split ignores inputs",
			total:        "10",
			splitType:    SplitTypeEqual,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "garbage"},
			want:         map[string]string{"a": "5.00", "b": "5.00"},
		},
		{
			name:         "equal split single participant",
			total:        "12.34",
			splitType:    SplitTypeEqual,
			participants: []string{"a"},
			want:         map[string]string{"a": "12.34"},
		},
		{
			name:         "exact amounts pass through",
			total:        "100",
			splitType:    SplitTypeExact,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "40.25", "b": "59.75"},
			want:         map[string]string{"a": "40.25", "b": "59.75"},
		},
		{
			name:         "exact amounts that do not reconcile",
			total:        "100",
			splitType:    SplitTypeExact,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "40", "b": "50"},
			wantErr:      ErrMismatch,
		},
		{
			name:         "exact amount with sub-cent precision",
			total:        "10",
			splitType:    SplitTypeExact,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "4.995", "b": "5.005"},
			wantErr:      ErrInvalidInput,
		},
		{
			name:         "exact amount missing for a participant",
			total:        "10",
			splitType:    SplitTypeExact,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "10"},
			wantErr:      ErrMissingInput,
		},
		{
			name:         "percent split last participant absorbs remainder",
			total:        "100.00",
			splitType:    SplitTypePercent,
			participants: []string{"a", "b", "c"},
			inputs:       map[string]string{"a": "33.33", "b": "33.33", "c": "33.34"},
			want:         map[string]string{"a": "33.33", "b": "33.33", "c": "33.34"},
		},
		{
			name:         "percent split rounding pushed to last",
			total:        "10.00",
			splitType:    SplitTypePercent,
			participants: []string{"a", "b", "c"},
			inputs:       map[string]string{"a": "33.333", "b": "33.333", "c": "33.334"},
			want:         map[string]string{"a": "3.33", "b": "3.33", "c": "3.34"},
		},
		{
			name:         "percentages not adding to 100",
			total:        "100",
			splitType:    SplitTypePercent,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "50", "b": "49.9"},
			wantErr:      ErrMismatch,
		},
		{
			name:         "negative percentage",
			total:        "100",
			splitType:    SplitTypePercent,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "150", "b": "-50"},
			wantErr:      ErrNegativeInput,
		},
		{
			name:         "percentage above 100",
			total:        "100",
			splitType:    SplitTypePercent,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "150", "b": "0"},
			wantErr:      ErrPercentageOutOfRange,
		},
		{
			name:         "shares split by weight",
			total:        "100.00",
			splitType:    SplitTypeShares,
			participants: []string{"a", "b", "c"},
			inputs:       map[string]string{"a": "1", "b": "1", "c": "1"},
			want:         map[string]string{"a": "33.33", "b": "33.33", "c": "33.34"},
		},
		{
			name:         "shares with zero weight participant",
			total:        "90",
			splitType:    SplitTypeShares,
			participants: []string{"a", "b", "c"},
			inputs:       map[string]string{"a": "2", "b": "0", "c": "1"},
			want:         map[string]string{"a": "60.00", "b": "0.00", "c": "30.00"},
		},
		{
			name:         "remainder skips a trailing zero share",
			total:        "10.05",
			splitType:    SplitTypeShares,
			participants: []string{"a", "b", "c"},
			inputs:       map[string]string{"a": "1", "b": "1", "c": "0"},
			want:         map[string]string{"a": "5.03", "b": "5.02", "c": "0.00"},
		},
		{
			name:         "single cent with a trailing zero share",
			total:        "0.01",
			splitType:    SplitTypeShares,
			participants: []string{"a", "b", "c"},
			inputs:       map[string]string{"a": "1", "b": "1", "c": "0"},
			want:         map[string]string{"a": "0.01", "b": "0.00", "c": "0.00"},
		},
		{
			name:         "single cent with a trailing zero percentage",
			total:        "0.01",
			splitType:    SplitTypePercent,
			participants: []string{"a", "b", "c"},
			inputs:       map[string]string{"a": "50", "b": "50", "c": "0"},
			want:         map[string]string{"a": "0.01", "b": "0.00", "c": "0.00"},
		},
		{
			name:         "rounded shares never overshoot the total",
			total:        "0.02",
			splitType:    SplitTypeShares,
			participants: []string{"a", "b", "c", "d"},
			inputs:       map[string]string{"a": "1", "b": "1", "c": "1", "d": "1"},
			want:         map[string]string{"a": "0.01", "b": "0.01", "c": "0.00", "d": "0.00"},
		},
		{
			name:         "all zero shares",
			total:        "90",
			splitType:    SplitTypeShares,
			participants: []string{"a", "b"},
			inputs:       map[string]string{"a": "0", "b": "0"},
			wantErr:      ErrNonPositiveShares,
		},
		{
			name:         "unparseable share",
			total:        "90",
			splitType:    SplitTypeShares,
			participants: []string{"a"},
			inputs:       map[string]string{"a": "two"},
			wantErr:      ErrInvalidInput,
		},
		{
			name:      "no participants",
			total:     "10",
			splitType: SplitTypeEqual,
			wantErr:   ErrNoParticipants,
		},
		{
			name:         "duplicate participant",
			total:        "10",
			splitType:    SplitTypeEqual,
			participants: []string{"a", "a"},
			wantErr:      ErrDuplicateParticipant,
		},
		{
			name:         "zero total",
			total:        "0",
			splitType:    SplitTypeEqual,
			participants: []string{"a"},
			wantErr:      ErrInvalidTotal,
		},
		{
			name:         "sub-cent total",
			total:        "10.001",
			splitType:    SplitTypeEqual,
			participants: []string{"a"},
			wantErr:      ErrInvalidTotal,
		},
		{
			name:         "unknown split type",
			total:        "10",
			splitType:    SplitType("ITEMIZED"),
			participants: []string{"a"},
			wantErr:      ErrUnknownSplitType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			alloc, err := Allocate(total, tt.splitType, tt.participants, tt.inputs)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				assert.Nil(t, alloc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, amounts(alloc.Splits))
			assert.True(t, alloc.Total().Equal(total), "splits sum to %s, want %s", alloc.Total(), total)
		})
	}
}

func TestAllocate_PreservesParticipantOrder(t *testing.T) {
	alloc, err := Allocate(decimal.RequireFromString("10"), SplitTypeEqual, []string{"c", "a", "b"}, nil)
	require.NoError(t, err)

	ids := make([]string, len(alloc.Splits))
	for i, s := range alloc.Splits {
		ids[i] = s.UserID
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
	assert.Equal(t, "3.34", alloc.Splits[0].Amount.StringFixed(2))
}

func TestAllocate_MismatchReportsDiscrepancy(t *testing.T) {
	_, err := Allocate(decimal.NewFromInt(100), SplitTypeExact, []string{"a", "b"}, map[string]string{"a": "40", "b": "50"})

	var mismatch *MismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, "90.00", mismatch.Sum.StringFixed(2))
	assert.Equal(t, "100.00", mismatch.Want.StringFixed(2))
	assert.Equal(t, "10.00", mismatch.Difference().StringFixed(2))
	assert.Equal(t, "sum is 90.00, need 100.00", mismatch.Error())
}

func TestAllocate_Metadata(t *testing.T) {
	t.Run("equal stores nothing", func(t *testing.T) {
		alloc, err := Allocate(decimal.NewFromInt(10), SplitTypeEqual, []string{"a", "b"}, nil)
		require.NoError(t, err)
		assert.Nil(t, alloc.Metadata)
	})

	t.Run("percent stores typed percentages", func(t *testing.T) {
		alloc, err := Allocate(decimal.NewFromInt(10), SplitTypePercent, []string{"a", "b"}, map[string]string{"a": " 25 ", "b": "75"})
		require.NoError(t, err)
		require.Len(t, alloc.Metadata, 2)
		assert.Equal(t, InputKindPercentage, alloc.Metadata["a"].Kind)
		assert.Equal(t, "25", alloc.Metadata["a"].Value.String())
	})

	t.Run("inputs for non participants are dropped", func(t *testing.T) {
		alloc, err := Allocate(decimal.NewFromInt(10), SplitTypeShares, []string{"a"}, map[string]string{"a": "1", "z": "4"})
		require.NoError(t, err)
		assert.Len(t, alloc.Metadata, 1)
		assert.Equal(t, InputKindShareCount, alloc.Metadata["a"].Kind)
	})
}

func TestAllocate_ReallocationFromMetadataIsIdempotent(t *testing.T) {
	cases := []struct {
		splitType SplitType
		inputs    map[string]string
	}{
		{SplitTypeExact, map[string]string{"a": "12.10", "b": "30.00", "c": "5.23"}},
		{SplitTypePercent, map[string]string{"a": "12.5", "b": "33.333", "c": "54.167"}},
		{SplitTypeShares, map[string]string{"a": "3", "b": "1.5", "c": "7"}},
	}
	total := decimal.RequireFromString("47.33")
	participants := []string{"a", "b", "c"}

	for _, c := range cases {
		t.Run(string(c.splitType), func(t *testing.T) {
			first, err := Allocate(total, c.splitType, participants, c.inputs)
			require.NoError(t, err)

			// round-trip the metadata through its database encoding
			stored, err := first.Metadata.Value()
			require.NoError(t, err)
			var loaded Metadata
			require.NoError(t, loaded.Scan(stored))

			second, err := Allocate(total, c.splitType, participants, loaded.Inputs())
			require.NoError(t, err)
			assert.Equal(t, amounts(first.Splits), amounts(second.Splits))
		})
	}
}

func TestAllocate_SumInvariant(t *testing.T) {
	totals := []string{"0.01", "0.07", "1.00", "9.99", "100.00", "1234.56", "99999.99"}
	participants := []string{"a", "b", "c", "d", "e", "f", "g"}
	shares := map[string]string{"a": "1", "b": "2", "c": "3", "d": "0.5", "e": "7", "f": "1", "g": "13"}
	percents := map[string]string{"a": "10", "b": "15.5", "c": "4.5", "d": "20", "e": "33.3", "f": "6.7", "g": "10"}

	for _, raw := range totals {
		total := decimal.RequireFromString(raw)
		for n := 1; n <= len(participants); n++ {
			ids := participants[:n]

			alloc, err := Allocate(total, SplitTypeEqual, ids, nil)
			require.NoError(t, err)
			assert.True(t, alloc.Total().Equal(total), "equal %s/%d", raw, n)

			alloc, err = Allocate(total, SplitTypeShares, ids, shares)
			require.NoError(t, err)
			assert.True(t, alloc.Total().Equal(total), "shares %s/%d", raw, n)
		}

		alloc, err := Allocate(total, SplitTypePercent, participants, percents)
		require.NoError(t, err)
		assert.True(t, alloc.Total().Equal(total), "percent %s", raw)
	}
}

func TestMetadata_Scan(t *testing.T) {
	var m Metadata
	require.NoError(t, m.Scan(nil))
	assert.Nil(t, m)

	require.NoError(t, m.Scan(`{"a":{"kind":"SHARE_COUNT","value":"2"}}`))
	assert.Equal(t, InputKindShareCount, m["a"].Kind)
	assert.Equal(t, map[string]string{"a": "2"}, m.Inputs())

	assert.Error(t, m.Scan(42))
}

func TestAllocate_NoNegativeSplits(t *testing.T) {
	weights := []map[string]string{
		{"a": "1", "b": "1", "c": "0"},
		{"a": "0", "b": "1", "c": "0"},
		{"a": "1", "b": "1", "c": "1"},
		{"a": "3", "b": "0.01", "c": "0.01"},
		{"a": "0.5", "b": "0.5", "c": "0"},
	}
	percents := []map[string]string{
		{"a": "50", "b": "50", "c": "0"},
		{"a": "33.5", "b": "33.5", "c": "33"},
		{"a": "0", "b": "100", "c": "0"},
		{"a": "49.99", "b": "49.99", "c": "0.02"},
	}
	participants := []string{"a", "b", "c"}

	check := func(t *testing.T, alloc *Allocation, total decimal.Decimal, label string) {
		t.Helper()
		assert.True(t, alloc.Total().Equal(total), "%s: splits sum to %s", label, alloc.Total())
		for _, s := range alloc.Splits {
			assert.False(t, s.Amount.IsNegative(), "%s: %s owes %s", label, s.UserID, s.Amount)
		}
	}

	for _, raw := range []string{"0.01", "0.02", "0.05", "1.01", "10.05", "99.99"} {
		total := decimal.RequireFromString(raw)
		for _, w := range weights {
			alloc, err := Allocate(total, SplitTypeShares, participants, w)
			require.NoError(t, err)
			check(t, alloc, total, "shares "+raw)
		}
		for _, p := range percents {
			alloc, err := Allocate(total, SplitTypePercent, participants, p)
			require.NoError(t, err)
			check(t, alloc, total, "percent "+raw)
		}
	}
}
