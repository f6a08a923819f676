package stream

import (
	"fmt"
	"io"

	"github.com/kylerbrown/bark/signal"
)

// rechunker regroups buffers into chunks of exactly n samples. Only the
// last chunk can be shorter. Empty input yields no chunks.
type rechunker struct {
	src         Iterator
	n           int
	numChannels int
	pending     signal.Float64
	pos         int
	done        bool
}

func rechunk(src Iterator, n int) Iterator {
	return &rechunker{src: src, n: n, numChannels: -1}
}

func (r *rechunker) Next() (signal.Float64, error) {
	if r.done {
		return nil, io.EOF
	}
	var out signal.Float64
	collected := 0
	for collected < r.n {
		if r.pending == nil || r.pos >= r.pending.Size() {
			b, err := r.src.Next()
			if err == io.EOF {
				r.done = true
				break
			}
			if err != nil {
				return nil, err
			}
			if r.numChannels == -1 {
				r.numChannels = b.NumChannels()
			} else if b.NumChannels() != r.numChannels {
				return nil, fmt.Errorf("%w: got %d, expected %d", ErrChannelMismatch, b.NumChannels(), r.numChannels)
			}
			// whole buffer fits the chunk as is
			if collected == 0 && b.Size() == r.n {
				r.pending = nil
				return b, nil
			}
			r.pending, r.pos = b, 0
			continue
		}
		take := r.pending.Size() - r.pos
		if take > r.n-collected {
			take = r.n - collected
		}
		if out == nil {
			out = make(signal.Float64, r.numChannels)
			for i := range out {
				out[i] = make([]float64, 0, r.n)
			}
		}
		for i := range out {
			out[i] = append(out[i], r.pending[i][r.pos:r.pos+take]...)
		}
		r.pos += take
		collected += take
	}
	if collected == 0 {
		r.done = true
		return nil, io.EOF
	}
	return out, nil
}

func (r *rechunker) Close() error {
	r.done = true
	r.pending = nil
	return r.src.Close()
}

// Rechunk returns stream with buffers of exactly n samples, except the
// last one.
func (s *Stream) Rechunk(n int) (*Stream, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrConfiguration, n)
	}
	result := s.transform(func(it Iterator) Iterator {
		return rechunk(it, n)
	})
	result.chunkSize = n
	return result, nil
}
