package odds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmericanToDecimal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		american int
		want     float64
		wantErr  bool
	}{
		{"plus_150", 150, 2.5, false},
		{"minus_110", -110, 1.0 + 100.0/110.0, false},
		{"even", 100, 2.0, false},
		{"minus_100", -100, 2.0, false},
		{"inside_band", 50, 0, true},
		{"zero", 0, 0, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := AmericanToDecimal(tt.american)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadQuote)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestDecimalToAmerican(t *testing.T) {
	t.Parallel()

	got, err := DecimalToAmerican(2.5)
	require.NoError(t, err)
	assert.Equal(t, 150, got)

	got, err = DecimalToAmerican(1.5)
	require.NoError(t, err)
	assert.Equal(t, -200, got)

	_, err = DecimalToAmerican(1)
	assert.ErrorIs(t, err, ErrBadQuote)
}

func TestFractionalToDecimal(t *testing.T) {
	t.Parallel()

	got, err := FractionalToDecimal("5/2")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got, 1e-12)

	for _, bad := range []string{"5", "x/2", "5/0", "-1/2"} {
		_, err := FractionalToDecimal(bad)
		assert.ErrorIs(t, err, ErrBadQuote, bad)
	}
}

func TestCombinedAndNormalize(t *testing.T) {
	t.Parallel()

	legs := []Leg{
		{ID: "a", Prob: 0.6, American: 100},
		{ID: "b", Prob: 0.5, Decimal: 1.75},
	}
	for i := range legs {
		require.NoError(t, legs[i].Normalize())
		require.NoError(t, legs[i].Valid())
	}
	assert.InDelta(t, 3.5, Combined(legs), 1e-12)
	assert.InDelta(t, 0.5, Implied(2), 1e-12)

	idx := Index(legs)
	assert.Len(t, idx, 2)
	assert.Equal(t, 1.75, idx["b"].Decimal)
}

func TestIndexDuplicates(t *testing.T) {
	t.Parallel()

	legs := []Leg{
		{ID: "a", Prob: 0.6, Decimal: 2},
		{ID: "b", Prob: 0.5, Decimal: 1.75},
		{ID: "a", Prob: 0.3, Decimal: 3},
		{ID: "a", Prob: 0.3, Decimal: 3},
	}
	idx := Index(legs)
	assert.Len(t, idx, 2)
	assert.Equal(t, 0.6, idx["a"].Prob)
	assert.Equal(t, []string{"a"}, Duplicates(legs))
	assert.Empty(t, Duplicates(legs[:2]))
}

func TestLegValid(t *testing.T) {
	t.Parallel()

	assert.Error(t, Leg{ID: "", Prob: 0.5, Decimal: 2}.Valid())
	assert.Error(t, Leg{ID: "a", Prob: 1, Decimal: 2}.Valid())
	assert.Error(t, Leg{ID: "a", Prob: 0.5, Decimal: 1}.Valid())
	assert.NoError(t, Leg{ID: "a", Prob: 0.5, Decimal: 2}.Valid())
}
