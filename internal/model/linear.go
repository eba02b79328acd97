package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearModel is an ordinary least-squares baseline over the model columns.
type LinearModel struct {
	Intercept float64
	Coefs     []float64
}

// FitLinear solves the least-squares problem with a bias column via QR
// factorization.
func FitLinear(x [][]float64, y []float64) (*LinearModel, error) {
	rows := len(x)
	if rows == 0 || len(y) != rows {
		return nil, errors.New("linear fit: empty or mismatched training data")
	}
	nFeatures := len(x[0])
	cols := nFeatures + 1
	if rows < cols {
		return nil, fmt.Errorf("linear fit: %d rows for %d coefficients", rows, cols)
	}

	a := mat.NewDense(rows, cols, nil)
	for i, row := range x {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, mat.NewVecDense(rows, y)); err != nil {
		// A Condition error still carries a usable solution; anything else
		// means the system is genuinely unsolvable.
		if _, ok := err.(mat.Condition); !ok {
			return nil, fmt.Errorf("linear fit: %w", err)
		}
	}

	m := &LinearModel{
		Intercept: beta.At(0, 0),
		Coefs:     make([]float64, nFeatures),
	}
	for j := 0; j < nFeatures; j++ {
		m.Coefs[j] = beta.At(j+1, 0)
	}
	return m, nil
}

func (m *LinearModel) Predict(features []float64) float64 {
	out := m.Intercept
	for j, c := range m.Coefs {
		if j < len(features) {
			out += c * features[j]
		}
	}
	return out
}

func (m *LinearModel) Name() string { return "linear_regression" }
