package stream

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
)

// MapFunc transforms a buffer. It must return a new buffer with the same
// number of samples and must not modify its input.
type MapFunc func(signal.Float64) (signal.Float64, error)

// floatDType is the dtype attribute set by operations producing
// fractional values.
const floatDType = "<f8"

// Map applies fn to every buffer. Number of channels may change, number of
// samples must be kept.
func (s *Stream) Map(fn MapFunc) *Stream {
	return s.transform(func(it Iterator) Iterator {
		return mapIterator(it, fn)
	})
}

func mapIterator(it Iterator, fn MapFunc) Iterator {
	return NewIterator(func() (signal.Float64, error) {
		b, err := it.Next()
		if err != nil {
			return nil, err
		}
		result, err := fn(b)
		if err != nil {
			return nil, err
		}
		if result.Size() != b.Size() {
			return nil, fmt.Errorf("%w: got %d, expected %d", ErrShapeMismatch, result.Size(), b.Size())
		}
		return result, nil
	}, it.Close)
}

// MapValues applies fn to every sample value.
func (s *Stream) MapValues(fn func(float64) float64) *Stream {
	return s.Map(values(fn))
}

func values(fn func(float64) float64) MapFunc {
	return func(b signal.Float64) (signal.Float64, error) {
		result := make(signal.Float64, len(b))
		for i := range b {
			result[i] = make([]float64, len(b[i]))
			for j, v := range b[i] {
				result[i][j] = fn(v)
			}
		}
		return result, nil
	}
}

// Add adds k to every value.
func (s *Stream) Add(k float64) *Stream {
	return s.MapValues(func(v float64) float64 { return v + k })
}

// Subtract subtracts k from every value.
func (s *Stream) Subtract(k float64) *Stream {
	return s.MapValues(func(v float64) float64 { return v - k })
}

// Multiply multiplies every value by k.
func (s *Stream) Multiply(k float64) *Stream {
	return s.MapValues(func(v float64) float64 { return v * k })
}

// Divide divides every value by k. Result dtype is float.
func (s *Stream) Divide(k float64) *Stream {
	result := s.MapValues(func(v float64) float64 { return v / k })
	result.attrs[meta.KeyDType] = floatDType
	return result
}

// FloorDivide divides every value by k and rounds down.
func (s *Stream) FloorDivide(k float64) *Stream {
	return s.MapValues(func(v float64) float64 { return math.Floor(v / k) })
}

// AddStream adds values of other stream.
func (s *Stream) AddStream(other *Stream) *Stream {
	return s.zip(other, func(a, b float64) float64 { return a + b })
}

// SubtractStream subtracts values of other stream.
func (s *Stream) SubtractStream(other *Stream) *Stream {
	return s.zip(other, func(a, b float64) float64 { return a - b })
}

// MultiplyStream multiplies by values of other stream.
func (s *Stream) MultiplyStream(other *Stream) *Stream {
	return s.zip(other, func(a, b float64) float64 { return a * b })
}

// DivideStream divides by values of other stream. Result dtype is float.
func (s *Stream) DivideStream(other *Stream) *Stream {
	result := s.zip(other, func(a, b float64) float64 { return a / b })
	result.attrs[meta.KeyDType] = floatDType
	return result
}

// FloorDivideStream divides by values of other stream and rounds down.
func (s *Stream) FloorDivideStream(other *Stream) *Stream {
	return s.zip(other, func(a, b float64) float64 { return math.Floor(a / b) })
}

// zip combines values of two streams. Both are regrouped to the chunk size
// of s and iteration stops with the shorter one.
func (s *Stream) zip(other *Stream, fn func(a, b float64) float64) *Stream {
	return s.derive(func(int) (Iterator, error) {
		its, err := openAll(s.chunkSize, s, other)
		if err != nil {
			return nil, err
		}
		left, right := its[0], its[1]
		return NewIterator(func() (signal.Float64, error) {
			a, err := left.Next()
			if err != nil {
				return nil, err
			}
			b, err := right.Next()
			if err != nil {
				return nil, err
			}
			if a.NumChannels() != b.NumChannels() {
				return nil, fmt.Errorf("%w: %d and %d", ErrChannelMismatch, a.NumChannels(), b.NumChannels())
			}
			size := a.Size()
			if b.Size() < size {
				size = b.Size()
			}
			result := make(signal.Float64, a.NumChannels())
			for i := range result {
				result[i] = make([]float64, size)
				for j := 0; j < size; j++ {
					result[i][j] = fn(a[i][j], b[i][j])
				}
			}
			return result, nil
		}, func() error { return closeAll(its...) }), nil
	})
}

// openAll opens streams regrouped to chunk size n. Already opened
// iterators are closed if any fails.
func openAll(n int, streams ...*Stream) ([]Iterator, error) {
	its := make([]Iterator, 0, len(streams))
	for _, s := range streams {
		it, err := s.Iter()
		if err != nil {
			closeAll(its...)
			return nil, err
		}
		its = append(its, rechunk(it, n))
	}
	return its, nil
}

// Split selects channels. Negative indices count from the end, indices can
// be repeated and reordered. Columns follow the selection.
func (s *Stream) Split(indices ...int) (*Stream, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: no channels selected", ErrConfiguration)
	}
	var columns meta.Columns
	if s.columns != nil {
		var err error
		if columns, err = s.columns.Select(indices...); err != nil {
			var verr *meta.ValidationError
			if errors.As(err, &verr) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrChannelIndex, err)
		}
	}
	result := s.Map(func(b signal.Float64) (signal.Float64, error) {
		resolved := make([]int, len(indices))
		for i, idx := range indices {
			r, ok := meta.Resolve(idx, b.NumChannels())
			if !ok {
				return nil, fmt.Errorf("%w: %d for %d channels", ErrChannelIndex, idx, b.NumChannels())
			}
			resolved[i] = r
		}
		return b.Channels(resolved...), nil
	})
	result.columns = columns
	return result, nil
}

// Merge joins channels of streams. Other streams are regrouped to the
// chunk size of s, result is as long as the shortest stream.
func (s *Stream) Merge(others ...*Stream) *Stream {
	streams := append([]*Stream{s}, others...)
	result := s.derive(func(int) (Iterator, error) {
		its, err := openAll(s.chunkSize, streams...)
		if err != nil {
			return nil, err
		}
		return NewIterator(func() (signal.Float64, error) {
			buffers := make([]signal.Float64, len(its))
			for i, it := range its {
				b, err := it.Next()
				if err != nil {
					return nil, err
				}
				buffers[i] = b
			}
			return signal.Stack(buffers...), nil
		}, func() error { return closeAll(its...) }), nil
	})
	result.columns = nil
	columns := make([]meta.Columns, 0, len(others))
	for _, other := range others {
		if other.columns == nil {
			return result
		}
		columns = append(columns, other.columns)
	}
	if s.columns != nil {
		result.columns = s.columns.Concat(columns...)
	}
	return result
}

// Merge joins channels of streams. Properties of the first stream are
// kept.
func Merge(streams ...*Stream) (*Stream, error) {
	if len(streams) == 0 {
		return nil, fmt.Errorf("%w: no streams to merge", ErrConfiguration)
	}
	return streams[0].Merge(streams[1:]...), nil
}

// Chain appends samples of other streams. Result is regrouped to the chunk
// size of s. All streams must have the same number of channels.
func (s *Stream) Chain(others ...*Stream) *Stream {
	streams := append([]*Stream{s}, others...)
	return s.derive(func(int) (Iterator, error) {
		var current Iterator
		next := 0
		chained := NewIterator(func() (signal.Float64, error) {
			for {
				if current == nil {
					if next >= len(streams) {
						return nil, io.EOF
					}
					it, err := streams[next].Iter()
					if err != nil {
						return nil, err
					}
					current = it
					next++
				}
				b, err := current.Next()
				if err == io.EOF {
					err = current.Close()
					current = nil
					if err != nil {
						return nil, err
					}
					continue
				}
				return b, err
			}
		}, func() error { return closeAll(current) })
		return rechunk(chained, s.chunkSize), nil
	})
}
