package stream

import (
	"fmt"
	"io"

	"github.com/kylerbrown/bark/dataset"
	"github.com/kylerbrown/bark/signal"
)

// Kind is a type of stream source.
type Kind int

const (
	// KindArray is in-memory data.
	KindArray Kind = iota
	// KindFile is sampled dataset on disk.
	KindFile
	// KindGenerator is a function or iterator producing buffers.
	KindGenerator
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindFile:
		return "file"
	case KindGenerator:
		return "generator"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// OpenFunc starts a new pass over the data.
type OpenFunc func(chunkSize int) (Iterator, error)

// Source provides iterators over the data of a stream.
type Source struct {
	kind   Kind
	data   signal.Float64
	path   string
	open   OpenFunc
	single Iterator
	used   bool
	peeked signal.Float64
}

// ArraySource returns replayable source of in-memory data.
func ArraySource(data signal.Float64) *Source {
	return &Source{kind: KindArray, data: data}
}

// FileSource returns replayable source of sampled dataset. The file is
// mapped into memory on every pass and released when iterator is closed.
func FileSource(path string) *Source {
	return &Source{kind: KindFile, path: path}
}

// FuncSource returns replayable generator source. Every pass calls open.
func FuncSource(open OpenFunc) *Source {
	return &Source{kind: KindGenerator, open: open}
}

// IteratorSource returns generator source that can be consumed only once.
func IteratorSource(it Iterator) *Source {
	return &Source{kind: KindGenerator, single: it}
}

// Kind returns source type.
func (src *Source) Kind() Kind {
	return src.kind
}

// Replayable returns true if source can be opened multiple times.
func (src *Source) Replayable() bool {
	return src.single == nil
}

// Open starts a new pass over the data. Array and file sources yield
// buffers of chunkSize samples, the last one can be shorter.
func (src *Source) Open(chunkSize int) (Iterator, error) {
	switch {
	case src.single != nil:
		if src.used {
			return nil, ErrSingleUse
		}
		src.used = true
		if src.peeked == nil {
			return src.single, nil
		}
		peeked, it := src.peeked, src.single
		src.peeked = nil
		first := true
		return NewIterator(func() (signal.Float64, error) {
			if first {
				first = false
				return peeked, nil
			}
			return it.Next()
		}, it.Close), nil
	case src.kind == KindArray:
		return arrayIterator(src.data, chunkSize), nil
	case src.kind == KindFile:
		return fileIterator(src.path, chunkSize)
	default:
		return src.open(chunkSize)
	}
}

// peek returns the first buffer. Single-use source keeps the buffer and
// yields it again on Open.
func (src *Source) peek(chunkSize int) (signal.Float64, error) {
	if src.single == nil {
		it, err := src.Open(chunkSize)
		if err != nil {
			return nil, err
		}
		defer it.Close()
		return it.Next()
	}
	if src.used {
		return nil, ErrSingleUse
	}
	if src.peeked != nil {
		return src.peeked, nil
	}
	b, err := src.single.Next()
	if err != nil {
		return nil, err
	}
	src.peeked = b
	return b, nil
}

func arrayIterator(data signal.Float64, chunkSize int) Iterator {
	pos := 0
	return NewIterator(func() (signal.Float64, error) {
		if pos >= data.Size() {
			return nil, io.EOF
		}
		b := data.Slice(pos, chunkSize)
		pos += chunkSize
		return b, nil
	}, nil)
}

func fileIterator(path string, chunkSize int) (Iterator, error) {
	ds, err := dataset.ReadSampled(path)
	if err != nil {
		return nil, err
	}
	r, err := ds.Open()
	if err != nil {
		return nil, err
	}
	pos := 0
	return NewIterator(func() (signal.Float64, error) {
		b, err := r.ReadRows(pos, chunkSize)
		if err != nil {
			return nil, err
		}
		pos += b.Size()
		return b, nil
	}, r.Close), nil
}
