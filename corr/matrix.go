package corr

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

var ErrNoLegs = errors.New("corr: no legs")

// Matrix is a dense correlation matrix over an ordered set of legs.
type Matrix struct {
	IDs []string
	Sym *mat.SymDense
}

// Build returns the n x n matrix for ids with a unit diagonal. Pairs the
// lookup does not know are independent; a repeated id is perfectly
// correlated with itself. l may be nil.
func Build(ids []string, l Lookup) (*Matrix, error) {
	n := len(ids)
	if n == 0 {
		return nil, ErrNoLegs
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			var rho float64
			if ids[i] == ids[j] {
				rho = 1
			} else if l != nil {
				if v, ok := l.Rho(ids[i], ids[j]); ok {
					rho = Clamp(v)
				}
			}
			sym.SetSym(i, j, rho)
		}
	}

	return &Matrix{IDs: append([]string(nil), ids...), Sym: sym}, nil
}

func (m *Matrix) Size() int {
	return len(m.IDs)
}

func (m *Matrix) At(i, j int) float64 {
	return m.Sym.At(i, j)
}

// Independent reports whether every off-diagonal entry is zero. A 1x1
// matrix is always independent.
func (m *Matrix) Independent() bool {
	n := m.Size()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if m.Sym.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}
