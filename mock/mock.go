// Package mock provides mocks of stream sources and sinks for tests.
package mock

import (
	"io"

	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
	"github.com/kylerbrown/bark/stream"
)

// Source generates buffers filled with a constant value.
type Source struct {
	counter
	Limit       int
	Value       float64
	NumChannels int
	ErrorOnCall error
	// Opened counts started passes.
	Opened int
	// Closed counts closed passes.
	Closed int
}

// Open starts a new pass. Limit samples are generated in buffers of
// chunkSize samples.
func (m *Source) Open(chunkSize int) (stream.Iterator, error) {
	m.Opened++
	m.reset()
	return stream.NewIterator(func() (signal.Float64, error) {
		if m.ErrorOnCall != nil {
			return nil, m.ErrorOnCall
		}
		if m.samples >= m.Limit {
			return nil, io.EOF
		}
		bs := chunkSize
		if left := m.Limit - m.samples; left < bs {
			bs = left
		}
		b := signal.EmptyFloat64(m.NumChannels, bs)
		for i := range b {
			for j := range b[i] {
				b[i][j] = m.Value
			}
		}
		m.advance(bs)
		return b, nil
	}, func() error {
		m.Closed++
		return nil
	}), nil
}

// Sink collects written buffers and metadata.
type Sink struct {
	counter
	buffer       signal.Float64
	Discard      bool
	ErrorOnCall  error
	ErrorOnClose error
	Metadata     meta.Metadata
	Closed       bool
	Aborted      bool
}

// Write implements stream.Sink.
func (m *Sink) Write(b signal.Float64) error {
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	if !m.Discard {
		m.buffer = m.buffer.Append(b)
	}
	m.advance(b.Size())
	return nil
}

// Close implements stream.Sink.
func (m *Sink) Close(md meta.Metadata) error {
	m.Closed = true
	m.Metadata = md
	return m.ErrorOnClose
}

// Abort implements stream.Aborter.
func (m *Sink) Abort() error {
	m.Aborted = true
	return nil
}

// Buffer returns collected data.
func (m *Sink) Buffer() signal.Float64 {
	return m.buffer
}

type counter struct {
	buffers int
	samples int
}

// Count returns number of buffers and samples of the last pass.
func (c *counter) Count() (int, int) {
	return c.buffers, c.samples
}

func (c *counter) advance(size int) {
	c.buffers++
	c.samples += size
}

func (c *counter) reset() {
	c.buffers, c.samples = 0, 0
}
