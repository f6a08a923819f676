// Package dataset reads and writes BARK datasets: raw little-endian binary
// sample files with YAML sidecars, grouped into entry directories.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
)

// ErrNoColumns is returned when metadata doesn't describe channels.
var ErrNoColumns = errors.New("columns attribute missing")

// Sampled is a sampled dataset on disk. Data is not loaded until a Reader
// is opened.
type Sampled struct {
	Path        string
	Metadata    meta.Metadata
	DType       DType
	NumChannels int
	NumSamples  int
}

// ReadSampled reads metadata of sampled dataset and checks that data file
// size matches it.
func ReadSampled(path string) (*Sampled, error) {
	md, err := ReadMetadata(path)
	if err != nil {
		return nil, err
	}
	if len(md.Columns) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoColumns)
	}
	if err := md.Columns.Validate(len(md.Columns)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dtype, err := ParseDType(md.DType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	rowSize := int64(dtype.Size * len(md.Columns))
	if fi.Size()%rowSize != 0 {
		return nil, fmt.Errorf("%s: size %d is not a multiple of row size %d", path, fi.Size(), rowSize)
	}
	return &Sampled{
		Path:        path,
		Metadata:    md,
		DType:       dtype,
		NumChannels: len(md.Columns),
		NumSamples:  int(fi.Size() / rowSize),
	}, nil
}

// DataType returns name of the data type code stored in attributes.
func (s *Sampled) DataType() string {
	return DataTypeName(s.Metadata.Attrs)
}

// Open maps the data file for reading.
func (s *Sampled) Open() (*Reader, error) {
	r, size, closeFn, err := openMapping(s.Path)
	if err != nil {
		return nil, err
	}
	rowSize := int64(s.DType.Size * s.NumChannels)
	return &Reader{
		dtype:       s.DType,
		numChannels: s.NumChannels,
		numSamples:  int(size / rowSize),
		r:           r,
		close:       closeFn,
	}, nil
}

// ReadAll loads whole dataset into memory.
func (s *Sampled) ReadAll() (signal.Float64, error) {
	r, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	if r.NumSamples() == 0 {
		return signal.EmptyFloat64(s.NumChannels, 0), nil
	}
	return r.ReadRows(0, r.NumSamples())
}

// Reader reads rows of mapped dataset.
type Reader struct {
	dtype       DType
	numChannels int
	numSamples  int
	r           io.ReaderAt
	close       func() error
	buf         []byte
}

// NumSamples returns number of rows in the dataset.
func (r *Reader) NumSamples() int {
	return r.numSamples
}

// ReadRows returns up to n rows starting at start. io.EOF is returned when
// start is past the last row.
func (r *Reader) ReadRows(start, n int) (signal.Float64, error) {
	if start >= r.numSamples {
		return nil, io.EOF
	}
	if start+n > r.numSamples {
		n = r.numSamples - start
	}
	rowSize := r.dtype.Size * r.numChannels
	if cap(r.buf) < n*rowSize {
		r.buf = make([]byte, n*rowSize)
	}
	buf := r.buf[:n*rowSize]
	if _, err := r.r.ReadAt(buf, int64(start*rowSize)); err != nil && err != io.EOF {
		return nil, err
	}
	b := signal.EmptyFloat64(r.numChannels, n)
	pos := 0
	for i := 0; i < n; i++ {
		for c := 0; c < r.numChannels; c++ {
			b[c][i] = r.dtype.Decode(buf[pos:])
			pos += r.dtype.Size
		}
	}
	return b, nil
}

// Close releases the mapping. It's safe to call it multiple times.
func (r *Reader) Close() error {
	if r.close == nil {
		return nil
	}
	err := r.close()
	r.close = nil
	return err
}

// Writer writes rows into a temporary file next to the dataset. The file
// replaces the dataset and the meta file is written only on Close, so an
// aborted pass leaves the previous dataset untouched.
type Writer struct {
	path        string
	dtype       DType
	file        *os.File
	tmp         string
	w           *bufio.Writer
	buf         []byte
	numChannels int
	numSamples  int
}

// Create starts writing of dataset. Existing dataset at path is replaced
// on Close.
func Create(path string, dtype DType) (*Writer, error) {
	if !dtype.valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDType, dtype)
	}
	f, err := ioutil.TempFile(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &Writer{
		path:        path,
		dtype:       dtype,
		file:        f,
		tmp:         f.Name(),
		w:           bufio.NewWriter(f),
		numChannels: -1,
	}, nil
}

// Path returns path of the data file.
func (w *Writer) Path() string {
	return w.path
}

// NumSamples returns number of rows written so far.
func (w *Writer) NumSamples() int {
	return w.numSamples
}

// Write appends rows of the buffer. All buffers must have the same number
// of channels.
func (w *Writer) Write(b signal.Float64) error {
	if w.numChannels == -1 {
		w.numChannels = b.NumChannels()
	} else if w.numChannels != b.NumChannels() {
		return fmt.Errorf("%s: buffer has %d channels, expected %d", w.path, b.NumChannels(), w.numChannels)
	}
	size := b.Size()
	rowSize := w.dtype.Size * w.numChannels
	if cap(w.buf) < size*rowSize {
		w.buf = make([]byte, size*rowSize)
	}
	buf := w.buf[:size*rowSize]
	pos := 0
	for i := 0; i < size; i++ {
		for c := range b {
			w.dtype.Encode(buf[pos:], b[c][i])
			pos += w.dtype.Size
		}
	}
	if _, err := w.w.Write(buf); err != nil {
		return err
	}
	w.numSamples += size
	return nil
}

// Close flushes the data, moves it to the dataset path and writes the meta
// file. Dtype of metadata is always set to the writer's one. Columns must
// describe written channels and at least one channel is required.
func (w *Writer) Close(md meta.Metadata) error {
	if err := w.flush(); err != nil {
		w.remove()
		return err
	}
	numChannels := w.numChannels
	if numChannels == -1 {
		numChannels = len(md.Columns)
	}
	if numChannels == 0 {
		w.remove()
		return fmt.Errorf("%s: %w", w.path, ErrNoColumns)
	}
	if md.Columns == nil {
		md.Columns = meta.DefaultColumns(numChannels)
	} else {
		md.Columns = md.Columns.Copy()
		if err := md.Columns.Validate(numChannels); err != nil {
			w.remove()
			return fmt.Errorf("%s: %w", w.path, err)
		}
	}
	md.DType = w.dtype.String()
	if err := os.Remove(MetaPath(w.path)); err != nil && !os.IsNotExist(err) {
		w.remove()
		return err
	}
	if err := os.Chmod(w.tmp, 0644); err != nil {
		w.remove()
		return err
	}
	if err := os.Rename(w.tmp, w.path); err != nil {
		w.remove()
		return err
	}
	w.tmp = ""
	return WriteMetadata(w.path, md)
}

// Abort discards written data. Existing dataset is kept.
func (w *Writer) Abort() error {
	err := w.flush()
	if rerr := w.remove(); err == nil {
		err = rerr
	}
	return err
}

func (w *Writer) remove() error {
	if w.tmp == "" {
		return nil
	}
	err := os.Remove(w.tmp)
	w.tmp = ""
	return err
}

func (w *Writer) flush() error {
	if w.file == nil {
		return nil
	}
	err := w.w.Flush()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.file = nil
	return err
}

// WriteSampled writes in-memory data as a new dataset. Nil columns are
// replaced with default ones.
func WriteSampled(path string, data signal.Float64, md meta.Metadata) (*Sampled, error) {
	dtype := Float64
	if md.DType != "" {
		var err error
		if dtype, err = ParseDType(md.DType); err != nil {
			return nil, err
		}
	}
	if md.Columns != nil {
		if err := md.Columns.Copy().Validate(data.NumChannels()); err != nil {
			return nil, err
		}
	}
	w, err := Create(path, dtype)
	if err != nil {
		return nil, err
	}
	if data.NumChannels() > 0 {
		if err := w.Write(data); err != nil {
			w.Abort()
			return nil, err
		}
	}
	if md.Columns == nil {
		md.Columns = meta.DefaultColumns(data.NumChannels())
	}
	if err := w.Close(md); err != nil {
		return nil, err
	}
	return ReadSampled(path)
}
