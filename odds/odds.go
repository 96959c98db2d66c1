package odds

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrBadQuote = errors.New("odds: bad quote")

// Leg is one selection inside a slip. Prob is the marginal win probability
// produced upstream and Decimal the payout multiplier (stake*(Decimal-1)
// profit on a win).
type Leg struct {
	ID      string  `json:"leg_id" yaml:"leg_id"`
	Prob    float64 `json:"marginal_p" yaml:"marginal_p"`
	Decimal float64 `json:"decimal_odds,omitempty" yaml:"decimal_odds,omitempty"`

	// American is only read on input when Decimal is missing.
	American int `json:"american,omitempty" yaml:"american,omitempty"`
}

// Normalize fills Decimal from American when needed.
func (l *Leg) Normalize() error {
	if l.Decimal == 0 && l.American != 0 {
		d, err := AmericanToDecimal(l.American)
		if err != nil {
			return fmt.Errorf("leg %s: %w", l.ID, err)
		}
		l.Decimal = d
	}
	return nil
}

// Valid reports whether the leg can be priced.
func (l Leg) Valid() error {
	switch {
	case l.ID == "":
		return fmt.Errorf("leg id is empty")
	case math.IsNaN(l.Prob) || l.Prob <= 0 || l.Prob >= 1:
		return fmt.Errorf("leg %s: probability %v outside (0,1)", l.ID, l.Prob)
	case math.IsNaN(l.Decimal) || l.Decimal <= 1:
		return fmt.Errorf("leg %s: decimal odds %v not above 1", l.ID, l.Decimal)
	}
	return nil
}

// AmericanToDecimal converts a moneyline quote (+150, -110) to decimal odds.
func AmericanToDecimal(american int) (float64, error) {
	switch {
	case american >= 100:
		return 1 + float64(american)/100, nil
	case american <= -100:
		return 1 + 100/float64(-american), nil
	}
	return 0, fmt.Errorf("%w: american %d", ErrBadQuote, american)
}

// DecimalToAmerican is the inverse of AmericanToDecimal, rounded to the
// nearest whole quote.
func DecimalToAmerican(dec float64) (int, error) {
	if dec <= 1 {
		return 0, fmt.Errorf("%w: decimal %v", ErrBadQuote, dec)
	}
	if dec >= 2 {
		return int(math.Round((dec - 1) * 100)), nil
	}
	return int(math.Round(-100 / (dec - 1))), nil
}

// FractionalToDecimal parses "5/2" style quotes.
func FractionalToDecimal(s string) (float64, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, fmt.Errorf("%w: fractional %q", ErrBadQuote, s)
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: fractional %q", ErrBadQuote, s)
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d <= 0 || n <= 0 {
		return 0, fmt.Errorf("%w: fractional %q", ErrBadQuote, s)
	}
	return 1 + n/d, nil
}

// Implied returns the bookmaker implied probability of decimal odds.
func Implied(dec float64) float64 {
	if dec <= 0 {
		return 0
	}
	return 1 / dec
}

// Combined multiplies leg decimals into the slip payout.
func Combined(legs []Leg) float64 {
	out := 1.0
	for _, l := range legs {
		out *= l.Decimal
	}
	return out
}

// Index maps legs by ID. The first record of a repeated ID is kept; see
// Duplicates.
func Index(legs []Leg) map[string]Leg {
	m := make(map[string]Leg, len(legs))
	for _, l := range legs {
		if _, ok := m[l.ID]; !ok {
			m[l.ID] = l
		}
	}
	return m
}

// Duplicates returns the IDs listed more than once, in first-seen order.
func Duplicates(legs []Leg) []string {
	count := make(map[string]int, len(legs))
	var out []string
	for _, l := range legs {
		count[l.ID]++
		if count[l.ID] == 2 {
			out = append(out, l.ID)
		}
	}
	return out
}
