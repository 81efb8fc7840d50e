package report

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Coefficient is one estimated fixed effect.
type Coefficient struct {
	Term     string  `yaml:"term"`
	Estimate float64 `yaml:"estimate"`
	StdErr   float64 `yaml:"std_err"`
	T        float64 `yaml:"t"`
}

// Fit is an ordinary least squares fit of the fixed effects of a Design. Grouping
// columns are ignored; it is the pooled baseline a mixed model is compared against.
type Fit struct {
	N            int           `yaml:"n"`
	P            int           `yaml:"p"`
	Coefficients []Coefficient `yaml:"coefficients"`
	RSS          float64       `yaml:"rss"`
	Sigma2       float64       `yaml:"sigma2"`
	R2           float64       `yaml:"r2"`
}

// FitOLS solves the least squares problem of d through a QR decomposition.
func FitOLS(d *Design) (*Fit, error) {
	n, p := d.X.Dims()
	if n <= p {
		return nil, fmt.Errorf("%w: %d rows for %d terms", ErrTooFewRows, n, p)
	}

	var qr mat.QR
	qr.Factorize(d.X)
	y := mat.NewDense(n, 1, append([]float64(nil), d.Y...))
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, y); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingular, err)
	}

	var fitted mat.Dense
	fitted.Mul(d.X, &beta)
	rss := 0.0
	for i := 0; i < n; i++ {
		r := d.Y[i] - fitted.At(i, 0)
		rss += r * r
	}
	sigma2 := rss / float64(n-p)

	var xtx, inv mat.Dense
	xtx.Mul(d.X.T(), d.X)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSingular, err)
	}

	fit := &Fit{N: n, P: p, RSS: rss, Sigma2: sigma2, Coefficients: make([]Coefficient, p)}
	for j := 0; j < p; j++ {
		est := beta.At(j, 0)
		se := math.Sqrt(sigma2 * inv.At(j, j))
		t := 0.0
		if se > 0 {
			t = est / se
		}
		fit.Coefficients[j] = Coefficient{Term: d.Terms[j], Estimate: est, StdErr: se, T: t}
	}

	mean := stat.Mean(d.Y, nil)
	tss := 0.0
	for _, v := range d.Y {
		tss += (v - mean) * (v - mean)
	}
	if tss > 0 {
		fit.R2 = 1 - rss/tss
	}
	return fit, nil
}
