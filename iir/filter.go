package iir

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Filter applies transfer function in direct form II transposed. Its state
// is kept between calls so the signal can be processed in parts.
type Filter struct {
	b, a []float64
	z    []float64
}

// NewFilter normalizes coefficients by a[0] and returns filter with zero
// initial state.
func NewFilter(b, a []float64) (*Filter, error) {
	if len(b) == 0 || len(a) == 0 {
		return nil, fmt.Errorf("%w: empty coefficients", ErrDesign)
	}
	if a[0] == 0 {
		return nil, fmt.Errorf("%w: a[0] must be nonzero", ErrDesign)
	}
	n := len(b)
	if len(a) > n {
		n = len(a)
	}
	nb := make([]float64, n)
	na := make([]float64, n)
	for i, v := range b {
		nb[i] = v / a[0]
	}
	for i, v := range a {
		na[i] = v / a[0]
	}
	return &Filter{b: nb, a: na, z: make([]float64, n-1)}, nil
}

// SetState sets filter delay values. Length must be max(len(a), len(b))-1.
func (f *Filter) SetState(zi []float64) {
	copy(f.z, zi)
}

// Process filters x and returns a new slice.
func (f *Filter) Process(x []float64) []float64 {
	y := make([]float64, len(x))
	n := len(f.b)
	for i, v := range x {
		if n == 1 {
			y[i] = f.b[0] * v
			continue
		}
		out := f.b[0]*v + f.z[0]
		for j := 0; j < n-2; j++ {
			f.z[j] = f.b[j+1]*v + f.z[j+1] - f.a[j+1]*out
		}
		f.z[n-2] = f.b[n-1]*v - f.a[n-1]*out
		y[i] = out
	}
	return y
}

// Lfilter filters x with zero initial state.
func Lfilter(b, a, x []float64) ([]float64, error) {
	f, err := NewFilter(b, a)
	if err != nil {
		return nil, err
	}
	return f.Process(x), nil
}

// LfilterZi returns initial state for step response steady state.
func LfilterZi(b, a []float64) ([]float64, error) {
	f, err := NewFilter(b, a)
	if err != nil {
		return nil, err
	}
	n := len(f.b) - 1
	if n == 0 {
		return []float64{}, nil
	}
	// I - A, where A is transposed companion matrix of a
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
		m.Set(i, 0, m.At(i, 0)+f.a[i+1])
		if i+1 < n {
			m.Set(i, i+1, -1)
		}
	}
	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, f.b[i+1]-f.a[i+1]*f.b[0])
	}
	var zi mat.VecDense
	if err := zi.SolveVec(m, rhs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDesign, err)
	}
	return zi.RawVector().Data, nil
}

// PadLen returns default edge extension length used by Filtfilt.
func PadLen(b, a []float64) int {
	n := len(b)
	if len(a) > n {
		n = len(a)
	}
	return 3 * n
}

// Filtfilt applies filter forward and backward for zero phase response.
// Signal is extended with odd reflection at both edges. Extension is
// shortened for signals not longer than default pad length.
func Filtfilt(b, a, x []float64) ([]float64, error) {
	if len(x) == 0 {
		return []float64{}, nil
	}
	zi, err := LfilterZi(b, a)
	if err != nil {
		return nil, err
	}
	edge := PadLen(b, a)
	if edge > len(x)-1 {
		edge = len(x) - 1
	}
	ext := oddExtend(x, edge)

	f, err := NewFilter(b, a)
	if err != nil {
		return nil, err
	}
	f.SetState(scaled(zi, ext[0]))
	y := f.Process(ext)

	reverse(y)
	f.SetState(scaled(zi, y[0]))
	y = f.Process(y)
	reverse(y)
	return y[edge : len(y)-edge], nil
}

func oddExtend(x []float64, edge int) []float64 {
	n := len(x)
	ext := make([]float64, 0, n+2*edge)
	for i := 0; i < edge; i++ {
		ext = append(ext, 2*x[0]-x[edge-i])
	}
	ext = append(ext, x...)
	for i := 0; i < edge; i++ {
		ext = append(ext, 2*x[n-1]-x[n-2-i])
	}
	return ext
}

func scaled(v []float64, k float64) []float64 {
	result := make([]float64, len(v))
	for i := range v {
		result[i] = v[i] * k
	}
	return result
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
