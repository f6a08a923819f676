package stream

import (
	"fmt"
	"io"

	"github.com/kylerbrown/bark/signal"
)

// VectorMap applies fn to overlapping windows of the signal so functions
// with edge effects, like filters, see enough context on both sides. Data
// is regrouped into chunks of C samples and fn is called on two adjacent
// chunks at once. Each result contributes C samples starting at 2C/3 of its
// window. fn must keep the number of samples.
func (s *Stream) VectorMap(fn MapFunc) *Stream {
	c := s.chunkSize
	return s.transform(func(it Iterator) Iterator {
		w := &window{
			src:   rechunk(it, c),
			fn:    fn,
			size:  c,
			third: c / 3,
		}
		return rechunk(w, c)
	})
}

type window struct {
	src   Iterator
	fn    MapFunc
	size  int
	third int
	prev  signal.Float64
	last  signal.Float64
	seen  int
	done  bool
}

func (w *window) Next() (signal.Float64, error) {
	for !w.done {
		out, err := w.step()
		if err != nil {
			return nil, err
		}
		if out.Size() > 0 {
			return out, nil
		}
	}
	return nil, io.EOF
}

// step processes a single input chunk and returns samples it completes.
func (w *window) step() (signal.Float64, error) {
	x, err := w.src.Next()
	if err == io.EOF {
		w.done = true
		tail := 2 * w.third
		if w.seen > 1 {
			tail = w.size + 2*w.third
		}
		out := w.last.Slice(tail, w.last.Size())
		w.last, w.prev = nil, nil
		return out, nil
	}
	if err != nil {
		return nil, err
	}

	in := x
	start, end := 0, 2*w.third
	if w.seen > 0 {
		in = w.prev.Copy().Append(x)
		start, end = 2*w.third, w.size+2*w.third
	}
	y, err := w.fn(in)
	if err != nil {
		return nil, err
	}
	if y.Size() != in.Size() {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrShapeMismatch, y.Size(), in.Size())
	}
	w.prev, w.last = x, y
	w.seen++
	return y.Slice(start, end-start), nil
}

func (w *window) Close() error {
	w.done = true
	w.prev, w.last = nil, nil
	return w.src.Close()
}
