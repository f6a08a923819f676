package stream

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/kylerbrown/bark/dataset"
	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/metric"
	"github.com/kylerbrown/bark/signal"
)

// Sink consumes stream buffers. Close is called once after all buffers are
// written with metadata reconciled against written data.
type Sink interface {
	Write(signal.Float64) error
	Close(meta.Metadata) error
}

// Aborter is implemented by sinks that release resources when stream fails.
type Aborter interface {
	Abort() error
}

// Read creates stream over sampled dataset. Dataset must have positive
// sampling rate.
func Read(path string, options ...Option) (*Stream, error) {
	ds, err := dataset.ReadSampled(path)
	if err != nil {
		return nil, err
	}
	md := ds.Metadata
	if !(md.SamplingRate > 0) {
		return nil, fmt.Errorf("%w: %s has no sampling rate", ErrConfiguration, path)
	}
	attrs := md.Attrs.Copy()
	attrs[meta.KeyDType] = md.DType
	options = append([]Option{
		WithSampleRate(md.SamplingRate),
		WithAttrs(attrs),
		WithColumns(md.Columns),
	}, options...)
	return New(FileSource(path), options...)
}

// ReadAll loads the whole stream into memory.
func (s *Stream) ReadAll() (signal.Float64, error) {
	it, err := s.Iter()
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var result signal.Float64
	for {
		b, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		result = result.Append(b)
	}
	if result == nil && s.columns != nil {
		result = signal.EmptyFloat64(len(s.columns), 0)
	}
	return result, nil
}

// Drain writes all buffers into the sink and closes it with stream
// metadata. Columns that don't describe written channels are replaced with
// defaults.
func (s *Stream) Drain(sink Sink) (err error) {
	it, err := s.Iter()
	if err != nil {
		return err
	}
	drain := metric.Start(sink, s.sampleRate)
	defer func() {
		drain.Done(err)
	}()
	numChannels := -1
	for {
		b, err := it.Next()
		if err == io.EOF {
			break
		}
		if err == nil {
			numChannels = b.NumChannels()
			err = sink.Write(b)
		}
		if err != nil {
			it.Close()
			abort(sink)
			return err
		}
		drain.Buffer(b.Size())
	}
	if err := it.Close(); err != nil {
		abort(sink)
		return err
	}
	if numChannels == -1 {
		numChannels = len(s.columns)
	}
	return sink.Close(s.metadata(numChannels))
}

func abort(sink Sink) {
	if a, ok := sink.(Aborter); ok {
		a.Abort()
	}
}

// metadata returns stream metadata with columns reconciled for numChannels.
func (s *Stream) metadata(numChannels int) meta.Metadata {
	attrs := s.attrs.Copy()
	var dtype string
	if v, ok := attrs[meta.KeyDType]; ok {
		dtype = fmt.Sprint(v)
		delete(attrs, meta.KeyDType)
	}
	delete(attrs, meta.KeyNumSamples)
	delete(attrs, meta.KeyNumChannels)
	columns, repaired := s.columns.Reconcile(numChannels)
	if repaired {
		s.logger().WithFields(logrus.Fields{
			"columns":  len(s.columns),
			"channels": numChannels,
		}).Warn("columns don't match data, replaced with defaults")
	}
	return meta.Metadata{
		SamplingRate: s.sampleRate,
		DType:        dtype,
		Columns:      columns,
		Attrs:        attrs,
	}
}

// WriteOption configures dataset written by stream.
type WriteOption func(*writeConfig)

type writeConfig struct {
	dtype string
	attrs meta.Attrs
}

// WithDType sets dtype of written dataset.
func WithDType(dtype string) WriteOption {
	return func(c *writeConfig) {
		c.dtype = dtype
	}
}

// WithExtraAttrs adds attributes to written dataset.
func WithExtraAttrs(attrs meta.Attrs) WriteOption {
	return func(c *writeConfig) {
		c.attrs = attrs
	}
}

// Write drains the stream into a sampled dataset. Dtype is taken from
// options, dtype attribute or defaults to float64.
func (s *Stream) Write(path string, options ...WriteOption) (*dataset.Sampled, error) {
	c := writeConfig{}
	for _, option := range options {
		option(&c)
	}
	if c.dtype == "" {
		if v, ok := s.attrs[meta.KeyDType]; ok {
			c.dtype = fmt.Sprint(v)
		}
	}
	dtype := dataset.Float64
	if c.dtype != "" {
		var err error
		if dtype, err = dataset.ParseDType(c.dtype); err != nil {
			return nil, err
		}
	}
	w, err := dataset.Create(path, dtype)
	if err != nil {
		return nil, err
	}
	target := *s
	target.attrs = s.attrs.Merge(c.attrs)
	if err := target.Drain(w); err != nil {
		w.Abort()
		return nil, err
	}
	s.logger().WithFields(logrus.Fields{
		"path":    path,
		"samples": w.NumSamples(),
		"dtype":   dtype.String(),
	}).Debug("dataset written")
	return dataset.ReadSampled(path)
}
