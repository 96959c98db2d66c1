package copula

import (
	"context"
	"fmt"

	"github.com/rustyeddy/sliprisk/corr"
	"github.com/rustyeddy/sliprisk/odds"
)

// SampleSet holds N binary outcome rows over an ordered set of legs
// (1 = leg wins). It is read-only once built.
type SampleSet struct {
	legs  []string
	index map[string]int
	rows  int
	bits  []uint8
}

func newSampleSet(legs []string, rows int) *SampleSet {
	idx := make(map[string]int, len(legs))
	for i, id := range legs {
		idx[id] = i
	}
	return &SampleSet{
		legs:  append([]string(nil), legs...),
		index: idx,
		rows:  rows,
		bits:  make([]uint8, rows*len(legs)),
	}
}

func (s *SampleSet) Len() int {
	return s.rows
}

func (s *SampleSet) Legs() []string {
	return append([]string(nil), s.legs...)
}

func (s *SampleSet) Column(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Row returns the outcomes of one simulated path. The slice aliases the
// set and must not be modified.
func (s *SampleSet) Row(r int) []uint8 {
	n := len(s.legs)
	return s.bits[r*n : (r+1)*n]
}

// Columns resolves leg ids to column indexes.
func (s *SampleSet) Columns(ids []string) ([]int, error) {
	if len(ids) == 0 {
		return nil, corr.ErrNoLegs
	}
	cols := make([]int, len(ids))
	for i, id := range ids {
		c, ok := s.index[id]
		if !ok {
			return nil, fmt.Errorf("leg %q not in sample set", id)
		}
		cols[i] = c
	}
	return cols, nil
}

// AllWin reports whether every column in cols won on row r.
func (s *SampleSet) AllWin(r int, cols []int) bool {
	row := s.Row(r)
	for _, c := range cols {
		if row[c] == 0 {
			return false
		}
	}
	return true
}

// Joint is the fraction of rows where every listed leg won.
func (s *SampleSet) Joint(ids ...string) (float64, error) {
	cols, err := s.Columns(ids)
	if err != nil {
		return 0, err
	}
	if s.rows == 0 {
		return 0, ErrInsufficientSamples
	}
	hits := 0
	for r := 0; r < s.rows; r++ {
		if s.AllWin(r, cols) {
			hits++
		}
	}
	return float64(hits) / float64(s.rows), nil
}

// Marginal is the empirical win rate of one leg.
func (s *SampleSet) Marginal(id string) (float64, error) {
	return s.Joint(id)
}

// JointResult is the estimate handed to callers.
type JointResult struct {
	Prob    float64 `json:"joint_probability" yaml:"joint_probability"`
	Samples int     `json:"sample_count" yaml:"sample_count"`
}

// Estimate returns the probability that every leg wins. Legs repeated by
// ID are counted once, using the first record. A single leg is its own
// marginal and is returned without sampling (Samples = 0).
func Estimate(ctx context.Context, s Sampler, legs []odds.Leg, l corr.Lookup) (JointResult, error) {
	if len(legs) > 1 {
		idx := odds.Index(legs)
		if len(idx) < len(legs) {
			uniq := make([]odds.Leg, 0, len(idx))
			for _, leg := range legs {
				if first, ok := idx[leg.ID]; ok {
					uniq = append(uniq, first)
					delete(idx, leg.ID)
				}
			}
			legs = uniq
		}
	}

	switch len(legs) {
	case 0:
		return JointResult{}, corr.ErrNoLegs
	case 1:
		return JointResult{Prob: legs[0].Prob}, nil
	}

	ids := make([]string, len(legs))
	marg := make([]float64, len(legs))
	for i, leg := range legs {
		ids[i] = leg.ID
		marg[i] = leg.Prob
	}

	m, err := corr.Build(ids, l)
	if err != nil {
		return JointResult{}, err
	}
	set, err := s.Sample(ctx, marg, m)
	if err != nil {
		return JointResult{}, err
	}
	p, err := set.Joint(ids...)
	if err != nil {
		return JointResult{}, err
	}
	return JointResult{Prob: p, Samples: set.Len()}, nil
}
