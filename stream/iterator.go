package stream

import (
	"fmt"
	"io"

	"github.com/kylerbrown/bark/signal"
)

// Iterator yields buffers of a single stream pass. Next returns io.EOF
// when data is exhausted and keeps returning it on subsequent calls.
// Close releases underlying sources and can be called multiple times.
type Iterator interface {
	Next() (signal.Float64, error)
	Close() error
}

type funcIterator struct {
	next  func() (signal.Float64, error)
	close func() error
	done  bool
}

// NewIterator creates iterator from functions. Close function can be nil.
func NewIterator(next func() (signal.Float64, error), close func() error) Iterator {
	return &funcIterator{next: next, close: close}
}

func (it *funcIterator) Next() (signal.Float64, error) {
	if it.done {
		return nil, io.EOF
	}
	b, err := it.next()
	if err == io.EOF {
		it.done = true
	}
	return b, err
}

func (it *funcIterator) Close() error {
	it.done = true
	if it.close == nil {
		return nil
	}
	fn := it.close
	it.close = nil
	return fn()
}

// Buffers returns iterator over provided buffers.
func Buffers(buffers ...signal.Float64) Iterator {
	pos := 0
	return NewIterator(func() (signal.Float64, error) {
		if pos >= len(buffers) {
			return nil, io.EOF
		}
		pos++
		return buffers[pos-1], nil
	}, nil)
}

// channelCheck fails iteration if buffers have different number of
// channels.
type channelCheck struct {
	Iterator
	numChannels int
}

func checkChannels(it Iterator) Iterator {
	return &channelCheck{Iterator: it, numChannels: -1}
}

func (c *channelCheck) Next() (signal.Float64, error) {
	b, err := c.Iterator.Next()
	if err != nil {
		return nil, err
	}
	if c.numChannels == -1 {
		c.numChannels = b.NumChannels()
	} else if c.numChannels != b.NumChannels() {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrChannelMismatch, b.NumChannels(), c.numChannels)
	}
	return b, nil
}

// closeAll closes every iterator and returns all close errors.
func closeAll(iterators ...Iterator) error {
	var errs closeErrors
	for _, it := range iterators {
		if it == nil {
			continue
		}
		if err := it.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.ret()
}
