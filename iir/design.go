// Package iir designs digital filters and applies them to single channels
// of sampled data.
package iir

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// ErrDesign is returned when filter parameters are invalid.
var ErrDesign = errors.New("invalid filter design")

// Band is a type of filter frequency response.
type Band int

const (
	// Lowpass passes frequencies below the cutoff.
	Lowpass Band = iota
	// Highpass passes frequencies above the cutoff.
	Highpass
	// Bandpass passes frequencies between two cutoffs.
	Bandpass
	// Bandstop rejects frequencies between two cutoffs.
	Bandstop
)

var bandNames = map[string]Band{
	"lowpass":  Lowpass,
	"highpass": Highpass,
	"bandpass": Bandpass,
	"bandstop": Bandstop,
}

// ParseBand returns band by its name.
func ParseBand(s string) (Band, error) {
	if b, ok := bandNames[s]; ok {
		return b, nil
	}
	return 0, fmt.Errorf("%w: unknown band %q", ErrDesign, s)
}

func (b Band) String() string {
	for name, band := range bandNames {
		if band == b {
			return name
		}
	}
	return fmt.Sprintf("Band(%d)", int(b))
}

// Prototype is an analog lowpass filter family.
type Prototype int

const (
	// Butterworth has maximally flat passband.
	Butterworth Prototype = iota
	// Bessel has maximally flat group delay.
	Bessel
)

// ParsePrototype returns filter family by its name.
func ParsePrototype(s string) (Prototype, error) {
	switch s {
	case "butter", "butterworth":
		return Butterworth, nil
	case "bessel":
		return Bessel, nil
	}
	return 0, fmt.Errorf("%w: unknown filter %q", ErrDesign, s)
}

// zpk is a filter in zeros, poles and gain form.
type zpk struct {
	z []complex128
	p []complex128
	k float64
}

// Design returns transfer function coefficients of digital filter. Cutoff
// frequencies are normalized to Nyquist and must be in (0, 1). Lowpass and
// highpass take one frequency, bandpass and bandstop take two ascending.
func Design(proto Prototype, order int, band Band, wn ...float64) (b, a []float64, err error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("%w: order %d", ErrDesign, order)
	}
	expected := 1
	if band == Bandpass || band == Bandstop {
		expected = 2
	}
	if len(wn) != expected {
		return nil, nil, fmt.Errorf("%w: %v filter needs %d frequencies, got %d", ErrDesign, band, expected, len(wn))
	}
	for _, w := range wn {
		if !(w > 0 && w < 1) {
			return nil, nil, fmt.Errorf("%w: frequency %v outside (0, 1)", ErrDesign, w)
		}
	}
	if expected == 2 && wn[0] >= wn[1] {
		return nil, nil, fmt.Errorf("%w: band edges %v must be ascending", ErrDesign, wn)
	}

	var f zpk
	switch proto {
	case Butterworth:
		f = buttap(order)
	case Bessel:
		if f, err = besselap(order); err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("%w: unknown prototype %d", ErrDesign, proto)
	}

	// prewarp for bilinear transform with fs = 2
	const fs = 2.0
	warped := make([]float64, len(wn))
	for i, w := range wn {
		warped[i] = 2 * fs * math.Tan(math.Pi*w/fs)
	}
	switch band {
	case Lowpass:
		f = f.lowpass(warped[0])
	case Highpass:
		f = f.highpass(warped[0])
	case Bandpass:
		f = f.bandpass(math.Sqrt(warped[0]*warped[1]), warped[1]-warped[0])
	case Bandstop:
		f = f.bandstop(math.Sqrt(warped[0]*warped[1]), warped[1]-warped[0])
	default:
		return nil, nil, fmt.Errorf("%w: unknown band %d", ErrDesign, band)
	}
	b, a = f.bilinear(fs).transfer()
	return b, a, nil
}

// Butter designs a digital Butterworth filter.
func Butter(order int, band Band, wn ...float64) (b, a []float64, err error) {
	return Design(Butterworth, order, band, wn...)
}

// BesselFilter designs a digital Bessel filter with phase normalization.
func BesselFilter(order int, band Band, wn ...float64) (b, a []float64, err error) {
	return Design(Bessel, order, band, wn...)
}

func buttap(n int) zpk {
	p := make([]complex128, 0, n)
	for m := -n + 1; m < n; m += 2 {
		p = append(p, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*n))))
	}
	return zpk{p: p, k: 1}
}

// besselap returns phase normalized Bessel prototype. Poles are the roots
// of reverse Bessel polynomial scaled to unit gain at zero frequency.
func besselap(n int) (zpk, error) {
	coeffs := make([]float64, n+1) // coeffs[k] is coefficient of s^k
	for k := 0; k <= n; k++ {
		coeffs[k] = factorial(2*n-k) / (math.Pow(2, float64(n-k)) * factorial(k) * factorial(n-k))
	}
	p, err := roots(coeffs)
	if err != nil {
		return zpk{}, err
	}
	scale := math.Pow(coeffs[0], -1/float64(n))
	for i := range p {
		p[i] *= complex(scale, 0)
	}
	return zpk{p: p, k: 1}, nil
}

func factorial(n int) float64 {
	result := 1.0
	for i := 2; i <= n; i++ {
		result *= float64(i)
	}
	return result
}

// roots finds roots of polynomial with ascending coefficients and monic
// highest term as eigenvalues of the companion matrix.
func roots(coeffs []float64) ([]complex128, error) {
	n := len(coeffs) - 1
	if n == 1 {
		return []complex128{complex(-coeffs[0]/coeffs[1], 0)}, nil
	}
	lead := coeffs[n]
	c := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		c.Set(0, j, -coeffs[n-1-j]/lead)
	}
	for i := 1; i < n; i++ {
		c.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if ok := eig.Factorize(c, mat.EigenNone); !ok {
		return nil, fmt.Errorf("%w: eigen decomposition failed", ErrDesign)
	}
	values := eig.Values(nil)
	for i := range values {
		values[i] = polish(coeffs, values[i])
	}
	return values, nil
}

// polish refines root with a few Newton iterations.
func polish(coeffs []float64, r complex128) complex128 {
	for iter := 0; iter < 5; iter++ {
		var p, dp complex128
		for k := len(coeffs) - 1; k >= 0; k-- {
			dp = dp*r + p
			p = p*r + complex(coeffs[k], 0)
		}
		if dp == 0 {
			break
		}
		r -= p / dp
	}
	return r
}

func (f zpk) degree() int {
	return len(f.p) - len(f.z)
}

func (f zpk) lowpass(wo float64) zpk {
	w := complex(wo, 0)
	return zpk{
		z: scale(f.z, w),
		p: scale(f.p, w),
		k: f.k * math.Pow(wo, float64(f.degree())),
	}
}

func (f zpk) highpass(wo float64) zpk {
	w := complex(wo, 0)
	z := make([]complex128, 0, len(f.p))
	for _, v := range f.z {
		z = append(z, w/v)
	}
	for i := 0; i < f.degree(); i++ {
		z = append(z, 0)
	}
	p := make([]complex128, len(f.p))
	for i, v := range f.p {
		p[i] = w / v
	}
	return zpk{
		z: z,
		p: p,
		k: f.k * real(prod(neg(f.z))/prod(neg(f.p))),
	}
}

func (f zpk) bandpass(wo, bw float64) zpk {
	half := complex(bw/2, 0)
	w2 := complex(wo*wo, 0)
	split := func(in []complex128) []complex128 {
		out := make([]complex128, 0, 2*len(in))
		for _, v := range in {
			v *= half
			out = append(out, v+cmplx.Sqrt(v*v-w2))
		}
		for _, v := range in {
			v *= half
			out = append(out, v-cmplx.Sqrt(v*v-w2))
		}
		return out
	}
	z := split(f.z)
	for i := 0; i < f.degree(); i++ {
		z = append(z, 0)
	}
	return zpk{
		z: z,
		p: split(f.p),
		k: f.k * math.Pow(bw, float64(f.degree())),
	}
}

func (f zpk) bandstop(wo, bw float64) zpk {
	half := complex(bw/2, 0)
	w2 := complex(wo*wo, 0)
	split := func(in []complex128) []complex128 {
		out := make([]complex128, 0, 2*len(in))
		for _, v := range in {
			v = half / v
			out = append(out, v+cmplx.Sqrt(v*v-w2))
		}
		for _, v := range in {
			v = half / v
			out = append(out, v-cmplx.Sqrt(v*v-w2))
		}
		return out
	}
	z := split(f.z)
	for i := 0; i < f.degree(); i++ {
		z = append(z, complex(0, wo))
	}
	for i := 0; i < f.degree(); i++ {
		z = append(z, complex(0, -wo))
	}
	return zpk{
		z: z,
		p: split(f.p),
		k: f.k * real(prod(neg(f.z))/prod(neg(f.p))),
	}
}

func (f zpk) bilinear(fs float64) zpk {
	fs2 := complex(2*fs, 0)
	z := make([]complex128, 0, len(f.p))
	for _, v := range f.z {
		z = append(z, (fs2+v)/(fs2-v))
	}
	for i := 0; i < f.degree(); i++ {
		z = append(z, -1)
	}
	p := make([]complex128, len(f.p))
	for i, v := range f.p {
		p[i] = (fs2 + v) / (fs2 - v)
	}
	num := complex(1, 0)
	for _, v := range f.z {
		num *= fs2 - v
	}
	den := complex(1, 0)
	for _, v := range f.p {
		den *= fs2 - v
	}
	return zpk{z: z, p: p, k: f.k * real(num/den)}
}

// transfer converts zpk into polynomial coefficients, highest power first.
func (f zpk) transfer() (b, a []float64) {
	bc := poly(f.z)
	ac := poly(f.p)
	b = make([]float64, len(bc))
	for i, v := range bc {
		b[i] = f.k * real(v)
	}
	a = make([]float64, len(ac))
	for i, v := range ac {
		a[i] = real(v)
	}
	return b, a
}

// poly returns coefficients of polynomial with given roots, highest power
// first.
func poly(roots []complex128) []complex128 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}
	return c
}

func scale(in []complex128, w complex128) []complex128 {
	out := make([]complex128, len(in))
	for i, v := range in {
		out[i] = v * w
	}
	return out
}

func neg(in []complex128) []complex128 {
	return scale(in, -1)
}

func prod(in []complex128) complex128 {
	result := complex(1, 0)
	for _, v := range in {
		result *= v
	}
	return result
}
