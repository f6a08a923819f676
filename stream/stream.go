package stream

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"github.com/kylerbrown/bark/log"
	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
)

// DefaultChunkSize is the number of samples in a buffer if not set.
const DefaultChunkSize = 1000000

var logger = log.GetLogger()

// Stream is a lazy sequence of buffers with its metadata.
type Stream struct {
	id         string
	src        *Source
	sampleRate float64
	chunkSize  int
	attrs      meta.Attrs
	columns    meta.Columns
}

// Option configures a new stream.
type Option func(*Stream)

// WithSampleRate sets sampling rate in Hz.
func WithSampleRate(rate float64) Option {
	return func(s *Stream) {
		s.sampleRate = rate
	}
}

// WithChunkSize sets number of samples in buffers.
func WithChunkSize(n int) Option {
	return func(s *Stream) {
		s.chunkSize = n
	}
}

// WithAttrs sets stream attributes. Attributes are copied.
func WithAttrs(attrs meta.Attrs) Option {
	return func(s *Stream) {
		s.attrs = attrs.Copy()
	}
}

// WithColumns sets column metadata. Columns are copied.
func WithColumns(columns meta.Columns) Option {
	return func(s *Stream) {
		s.columns = columns.Copy()
	}
}

// New creates a stream over the source. Sampling rate defaults to the
// sampling_rate attribute or 1. Array sources get default columns if none
// provided.
func New(src *Source, options ...Option) (*Stream, error) {
	s := &Stream{
		id:        newUID(),
		src:       src,
		chunkSize: DefaultChunkSize,
		attrs:     meta.Attrs{},
	}
	for _, option := range options {
		option(s)
	}
	if rate, ok := s.attrs[meta.KeySamplingRate]; ok {
		if s.sampleRate == 0 {
			r, err := toFloat(rate)
			if err != nil {
				return nil, fmt.Errorf("%w: sampling_rate attribute: %v", ErrConfiguration, err)
			}
			s.sampleRate = r
		}
		delete(s.attrs, meta.KeySamplingRate)
	}
	if s.sampleRate == 0 {
		s.sampleRate = 1
	}
	if s.sampleRate < 0 {
		return nil, fmt.Errorf("%w: sampling rate %v", ErrConfiguration, s.sampleRate)
	}
	if s.chunkSize < 1 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrConfiguration, s.chunkSize)
	}
	if s.columns == nil && src.kind == KindArray {
		s.columns = meta.DefaultColumns(src.data.NumChannels())
	}
	return s, nil
}

// FromArray creates a stream over in-memory data.
func FromArray(data signal.Float64, options ...Option) (*Stream, error) {
	return New(ArraySource(data), options...)
}

// ID returns unique id of the stream.
func (s *Stream) ID() string {
	return s.id
}

// Source returns stream source.
func (s *Stream) Source() *Source {
	return s.src
}

// SampleRate returns sampling rate in Hz.
func (s *Stream) SampleRate() float64 {
	return s.sampleRate
}

// ChunkSize returns number of samples in buffers.
func (s *Stream) ChunkSize() int {
	return s.chunkSize
}

// Attrs returns a copy of stream attributes.
func (s *Stream) Attrs() meta.Attrs {
	return s.attrs.Copy()
}

// Columns returns a copy of column metadata. Nil means columns are unknown
// until the data is consumed.
func (s *Stream) Columns() meta.Columns {
	return s.columns.Copy()
}

// Iter starts a new pass over the stream.
func (s *Stream) Iter() (Iterator, error) {
	it, err := s.src.Open(s.chunkSize)
	if err != nil {
		return nil, err
	}
	return checkChannels(it), nil
}

// Peek returns the first buffer without consuming the stream.
func (s *Stream) Peek() (signal.Float64, error) {
	return s.src.peek(s.chunkSize)
}

// derive returns a stream with the same properties over a new generator.
func (s *Stream) derive(open OpenFunc) *Stream {
	return &Stream{
		id:         newUID(),
		src:        FuncSource(open),
		sampleRate: s.sampleRate,
		chunkSize:  s.chunkSize,
		attrs:      s.attrs.Copy(),
		columns:    s.columns.Copy(),
	}
}

// transform derives a stream which applies fn to every buffer pass.
func (s *Stream) transform(fn func(Iterator) Iterator) *Stream {
	return s.derive(func(int) (Iterator, error) {
		it, err := s.Iter()
		if err != nil {
			return nil, err
		}
		return fn(it), nil
	})
}

func (s *Stream) logger() *logrus.Entry {
	return logger.WithFields(logrus.Fields{"stream": s.id})
}

// newUID returns new unique id value.
func newUID() string {
	return xid.New().String()
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	}
	return 0, fmt.Errorf("not a number: %v", v)
}
