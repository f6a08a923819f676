// Package wav converts between WAV files and streams. Sample values are
// kept as raw integers, no scaling to [-1, 1] is done.
package wav

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
	"github.com/kylerbrown/bark/stream"
)

var (
	// ErrUnsupportedBitDepth is returned when unsupported bit depth is used.
	ErrUnsupportedBitDepth = errors.New("only 16 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file is not a valid wav.
	ErrInvalidFile = errors.New("wav is not valid")
)

// dtypes maps bit depth to dtype of the samples.
var dtypes = map[signal.BitDepth]string{
	signal.BitDepth16: "<i2",
	signal.BitDepth32: "<i4",
}

// Props are properties of wav file.
type Props struct {
	SampleRate  int
	NumChannels int
	BitDepth    signal.BitDepth
}

// ReadProps reads and validates properties of wav file.
func ReadProps(path string) (Props, error) {
	f, err := os.Open(path)
	if err != nil {
		return Props{}, err
	}
	defer f.Close()
	decoder, err := newDecoder(f, path)
	if err != nil {
		return Props{}, err
	}
	return Props{
		SampleRate:  int(decoder.SampleRate),
		NumChannels: int(decoder.NumChans),
		BitDepth:    signal.BitDepth(decoder.BitDepth),
	}, nil
}

func newDecoder(f *os.File, path string) (*wav.Decoder, error) {
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, ErrInvalidFile)
	}
	if _, ok := dtypes[signal.BitDepth(decoder.BitDepth)]; !ok {
		return nil, fmt.Errorf("%s: %d bits: %w", path, decoder.BitDepth, ErrUnsupportedBitDepth)
	}
	return decoder, nil
}

// Read creates replayable stream over wav file. Sampling rate and dtype
// come from the file header.
func Read(path string, options ...stream.Option) (*stream.Stream, error) {
	props, err := ReadProps(path)
	if err != nil {
		return nil, err
	}
	options = append([]stream.Option{
		stream.WithSampleRate(float64(props.SampleRate)),
		stream.WithAttrs(meta.Attrs{meta.KeyDType: dtypes[props.BitDepth]}),
		stream.WithColumns(meta.DefaultColumns(props.NumChannels)),
	}, options...)
	return stream.New(stream.FuncSource(func(chunkSize int) (stream.Iterator, error) {
		return open(path, chunkSize)
	}), options...)
}

func open(path string, chunkSize int) (stream.Iterator, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	decoder, err := newDecoder(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	numChannels := int(decoder.NumChans)
	ib := &audio.IntBuffer{
		Format:         decoder.Format(),
		Data:           make([]int, chunkSize*numChannels),
		SourceBitDepth: int(decoder.BitDepth),
	}
	return stream.NewIterator(func() (signal.Float64, error) {
		read, err := decoder.PCMBuffer(ib)
		if err != nil {
			return nil, err
		}
		if read == 0 {
			return nil, io.EOF
		}
		return signal.InterInt{
			Data:        ib.Data[:read],
			NumChannels: numChannels,
		}.AsFloat64(), nil
	}, f.Close), nil
}

// Sink writes stream into wav file. File is created on the first write.
type Sink struct {
	path       string
	bitDepth   signal.BitDepth
	sampleRate int
	file       *os.File
	encoder    *wav.Encoder
	ib         *audio.IntBuffer
}

// NewSink creates new wav sink.
func NewSink(path string, sampleRate int, bitDepth signal.BitDepth) (*Sink, error) {
	if _, ok := dtypes[bitDepth]; !ok {
		return nil, ErrUnsupportedBitDepth
	}
	return &Sink{
		path:       path,
		bitDepth:   bitDepth,
		sampleRate: sampleRate,
	}, nil
}

func (s *Sink) create(numChannels int) error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	s.file = f
	s.encoder = wav.NewEncoder(f, s.sampleRate, int(s.bitDepth), numChannels, 1)
	s.ib = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: numChannels,
			SampleRate:  s.sampleRate,
		},
		SourceBitDepth: int(s.bitDepth),
	}
	return nil
}

// Write implements stream.Sink. Values are rounded and clipped to the
// range of bit depth.
func (s *Sink) Write(b signal.Float64) error {
	if s.encoder == nil {
		if err := s.create(b.NumChannels()); err != nil {
			return err
		}
	}
	data := b.AsInterInt(0)
	for i := range data {
		data[i] = s.bitDepth.Clip(data[i])
	}
	s.ib.Data = data
	return s.encoder.Write(s.ib)
}

// Close implements stream.Sink. Metadata besides channels is not stored.
func (s *Sink) Close(md meta.Metadata) error {
	if s.encoder == nil {
		if err := s.create(len(md.Columns)); err != nil {
			return err
		}
	}
	if err := s.encoder.Close(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// Abort implements stream.Aborter.
func (s *Sink) Abort() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

// Write drains the stream into wav file.
func Write(s *stream.Stream, path string, bitDepth signal.BitDepth) error {
	sink, err := NewSink(path, int(math.Round(s.SampleRate())), bitDepth)
	if err != nil {
		return err
	}
	return s.Drain(sink)
}
