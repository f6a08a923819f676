package stream

import (
	"fmt"
	"math"
	"math/big"

	"github.com/kylerbrown/bark/iir"
	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
)

// maxResampleDenominator limits the rational approximation of resampling
// ratio.
const maxResampleDenominator = 1000

// Decimate keeps every k-th sample of the signal regardless of chunk
// boundaries. No anti-aliasing filter is applied.
func (s *Stream) Decimate(k int) (*Stream, error) {
	if k < 1 {
		return nil, fmt.Errorf("%w: decimation factor %d", ErrConfiguration, k)
	}
	result := s.transform(func(it Iterator) Iterator {
		return rechunk(&decimator{src: it, factor: k}, s.chunkSize)
	})
	result.sampleRate = s.sampleRate / float64(k)
	delete(result.attrs, meta.KeyNumSamples)
	return result, nil
}

type decimator struct {
	src    Iterator
	factor int
	// offset of the next kept sample in the next buffer
	remainder int
}

func (d *decimator) Next() (signal.Float64, error) {
	for {
		b, err := d.src.Next()
		if err != nil {
			return nil, err
		}
		size := b.Size()
		out := b.Stride(d.remainder, d.factor)
		d.remainder = ((d.remainder-size)%d.factor + d.factor) % d.factor
		if out.Size() > 0 {
			return out, nil
		}
	}
}

func (d *decimator) Close() error {
	return d.src.Close()
}

// Resample changes sampling rate to the closest rational multiple L/M of
// the current one. The signal is upsampled by L with zero insertion,
// lowpass filtered with windowed sinc and decimated by M.
func (s *Stream) Resample(rate float64) (*Stream, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: sampling rate %v", ErrConfiguration, rate)
	}
	up, down := ratio(rate/s.sampleRate, maxResampleDenominator)
	if up == 0 {
		return nil, fmt.Errorf("%w: sampling rate %v is too low", ErrConfiguration, rate)
	}
	if up == 1 && down == 1 {
		result := s.transform(func(it Iterator) Iterator { return it })
		result.attrs[meta.KeyDType] = floatDType
		return result, nil
	}

	factor := up
	if down > factor {
		factor = down
	}
	taps, err := iir.FirLowpass(20*factor+1, 1/float64(factor))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	for i := range taps {
		taps[i] *= float64(up)
	}

	upsampled := s.transform(func(it Iterator) Iterator {
		return rechunk(stuff(it, up), s.chunkSize)
	})
	upsampled.sampleRate = s.sampleRate * float64(up)
	filtered, err := upsampled.Convolve(taps)
	if err != nil {
		return nil, err
	}
	result, err := filtered.Decimate(down)
	if err != nil {
		return nil, err
	}
	result.sampleRate = rate
	result.attrs[meta.KeyDType] = floatDType
	return result, nil
}

// stuff inserts up-1 zeros after every sample.
func stuff(it Iterator, up int) Iterator {
	return NewIterator(func() (signal.Float64, error) {
		b, err := it.Next()
		if err != nil {
			return nil, err
		}
		result := signal.EmptyFloat64(b.NumChannels(), b.Size()*up)
		for i := range b {
			for j, v := range b[i] {
				result[i][j*up] = v
			}
		}
		return result, nil
	}, it.Close)
}

// ratio returns the closest fraction to x with denominator not greater
// than max.
func ratio(x float64, max int64) (num, den int) {
	r := new(big.Rat).SetFloat64(x)
	if r == nil {
		return 0, 1
	}
	if r.Denom().IsInt64() && r.Denom().Int64() <= max {
		return int(r.Num().Int64()), int(r.Denom().Int64())
	}
	// continued fraction convergents
	p0, q0, p1, q1 := big.NewInt(0), big.NewInt(1), big.NewInt(1), big.NewInt(0)
	n, d := new(big.Int).Set(r.Num()), new(big.Int).Set(r.Denom())
	bound := big.NewInt(max)
	for {
		a := new(big.Int).Quo(n, d)
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(bound) > 0 {
			break
		}
		p0, q0, p1, q1 = p1, q1, new(big.Int).Add(p0, new(big.Int).Mul(a, p1)), q2
		n, d = d, new(big.Int).Sub(n, new(big.Int).Mul(a, d))
	}
	k := new(big.Int).Quo(new(big.Int).Sub(bound, q0), q1)
	bound1 := new(big.Rat).SetFrac(
		new(big.Int).Add(p0, new(big.Int).Mul(k, p1)),
		new(big.Int).Add(q0, new(big.Int).Mul(k, q1)),
	)
	bound2 := new(big.Rat).SetFrac(p1, q1)
	diff1 := new(big.Rat).Abs(new(big.Rat).Sub(bound1, r))
	diff2 := new(big.Rat).Abs(new(big.Rat).Sub(bound2, r))
	best := bound1
	if diff2.Cmp(diff1) <= 0 {
		best = bound2
	}
	return int(best.Num().Int64()), int(best.Denom().Int64())
}
