package iir

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ConvolveSame convolves x with kernel k using FFT. Result has the length
// of x and is centered relative to the full convolution.
func ConvolveSame(x, k []float64) []float64 {
	if len(x) == 0 || len(k) == 0 {
		return make([]float64, len(x))
	}
	full := len(x) + len(k) - 1
	n := 1
	for n < full {
		n <<= 1
	}
	fft := fourier.NewFFT(n)
	xp := make([]float64, n)
	copy(xp, x)
	kp := make([]float64, n)
	copy(kp, k)
	xc := fft.Coefficients(nil, xp)
	kc := fft.Coefficients(nil, kp)
	for i := range xc {
		xc[i] *= kc[i]
	}
	y := fft.Sequence(nil, xc)

	start := (len(k) - 1) / 2
	result := make([]float64, len(x))
	for i := range result {
		result[i] = y[start+i] / float64(n)
	}
	return result
}

// Medfilt applies median filter of odd size. Edges are padded with zeros.
func Medfilt(x []float64, size int) ([]float64, error) {
	if size < 1 || size%2 == 0 {
		return nil, fmt.Errorf("%w: median filter size %d must be odd and positive", ErrDesign, size)
	}
	half := size / 2
	window := make([]float64, size)
	result := make([]float64, len(x))
	for i := range x {
		for j := 0; j < size; j++ {
			pos := i - half + j
			if pos < 0 || pos >= len(x) {
				window[j] = 0
			} else {
				window[j] = x[pos]
			}
		}
		sort.Float64s(window)
		result[i] = window[half]
	}
	return result, nil
}

// FirLowpass designs linear phase lowpass filter with Hamming window.
// Cutoff is normalized to Nyquist. Taps are scaled for unit gain at zero
// frequency.
func FirLowpass(numTaps int, cutoff float64) ([]float64, error) {
	if numTaps < 1 {
		return nil, fmt.Errorf("%w: number of taps %d", ErrDesign, numTaps)
	}
	if !(cutoff > 0 && cutoff <= 1) {
		return nil, fmt.Errorf("%w: cutoff %v outside (0, 1]", ErrDesign, cutoff)
	}
	taps := make([]float64, numTaps)
	alpha := float64(numTaps-1) / 2
	var sum float64
	for i := range taps {
		m := float64(i) - alpha
		w := 1.0
		if numTaps > 1 {
			w = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(numTaps-1))
		}
		taps[i] = cutoff * sinc(cutoff*m) * w
		sum += taps[i]
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps, nil
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}
