package dataset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrUnsupportedDType is returned when dtype string cannot be interpreted.
var ErrUnsupportedDType = errors.New("unsupported dtype")

// DType describes how a single sample is stored in raw binary file.
type DType struct {
	Kind  byte // 'i' signed int, 'u' unsigned int, 'f' float
	Size  int  // bytes per sample
	Order binary.ByteOrder
}

var (
	// Int16 is the little-endian 16 bit signed integer type.
	Int16 = DType{Kind: 'i', Size: 2, Order: binary.LittleEndian}
	// Float64 is the little-endian double precision float type.
	Float64 = DType{Kind: 'f', Size: 8, Order: binary.LittleEndian}
)

var names = map[string]DType{
	"int8":    {Kind: 'i', Size: 1, Order: binary.LittleEndian},
	"int16":   Int16,
	"int32":   {Kind: 'i', Size: 4, Order: binary.LittleEndian},
	"int64":   {Kind: 'i', Size: 8, Order: binary.LittleEndian},
	"uint8":   {Kind: 'u', Size: 1, Order: binary.LittleEndian},
	"uint16":  {Kind: 'u', Size: 2, Order: binary.LittleEndian},
	"uint32":  {Kind: 'u', Size: 4, Order: binary.LittleEndian},
	"uint64":  {Kind: 'u', Size: 8, Order: binary.LittleEndian},
	"float32": {Kind: 'f', Size: 4, Order: binary.LittleEndian},
	"float64": Float64,
}

// ParseDType accepts both type names (int16, float64) and byte order
// prefixed codes (<i2, >f4, |u1).
func ParseDType(s string) (DType, error) {
	if d, ok := names[s]; ok {
		return d, nil
	}
	if len(s) < 2 {
		return DType{}, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
	d := DType{Order: binary.LittleEndian}
	code := s
	switch s[0] {
	case '<', '|', '=':
		code = s[1:]
	case '>':
		d.Order = binary.BigEndian
		code = s[1:]
	}
	if len(code) < 2 {
		return DType{}, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
	size, err := strconv.Atoi(code[1:])
	if err != nil {
		return DType{}, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
	d.Kind, d.Size = code[0], size
	if !d.valid() {
		return DType{}, fmt.Errorf("%w: %q", ErrUnsupportedDType, s)
	}
	return d, nil
}

func (d DType) valid() bool {
	switch d.Kind {
	case 'i', 'u':
		return d.Size == 1 || d.Size == 2 || d.Size == 4 || d.Size == 8
	case 'f':
		return d.Size == 4 || d.Size == 8
	}
	return false
}

// String returns byte order prefixed code of the type, e.g. <i2.
func (d DType) String() string {
	prefix := "<"
	switch {
	case d.Size == 1:
		prefix = "|"
	case d.Order == binary.BigEndian:
		prefix = ">"
	}
	return fmt.Sprintf("%s%c%d", prefix, d.Kind, d.Size)
}

// Decode reads single value from b.
func (d DType) Decode(b []byte) float64 {
	switch d.Kind {
	case 'f':
		if d.Size == 4 {
			return float64(math.Float32frombits(d.Order.Uint32(b)))
		}
		return math.Float64frombits(d.Order.Uint64(b))
	case 'i':
		switch d.Size {
		case 1:
			return float64(int8(b[0]))
		case 2:
			return float64(int16(d.Order.Uint16(b)))
		case 4:
			return float64(int32(d.Order.Uint32(b)))
		default:
			return float64(int64(d.Order.Uint64(b)))
		}
	default:
		switch d.Size {
		case 1:
			return float64(b[0])
		case 2:
			return float64(d.Order.Uint16(b))
		case 4:
			return float64(d.Order.Uint32(b))
		default:
			return float64(d.Order.Uint64(b))
		}
	}
}

// Encode writes single value into b. Integer types are rounded to the
// nearest value and clipped to the type range, NaN is stored as zero.
func (d DType) Encode(b []byte, v float64) {
	if d.Kind == 'f' {
		if d.Size == 4 {
			d.Order.PutUint32(b, math.Float32bits(float32(v)))
			return
		}
		d.Order.PutUint64(b, math.Float64bits(v))
		return
	}
	v = math.Round(v)
	if math.IsNaN(v) {
		v = 0
	}
	if d.Kind == 'i' {
		if d.Size == 8 {
			d.Order.PutUint64(b, uint64(clipInt64(v)))
			return
		}
		max := math.Ldexp(1, d.Size*8-1) - 1
		v = clip(v, -max-1, max)
		switch d.Size {
		case 1:
			b[0] = byte(int8(v))
		case 2:
			d.Order.PutUint16(b, uint16(int16(v)))
		default:
			d.Order.PutUint32(b, uint32(int32(v)))
		}
		return
	}
	if d.Size == 8 {
		d.Order.PutUint64(b, clipUint64(v))
		return
	}
	v = clip(v, 0, math.Ldexp(1, d.Size*8)-1)
	switch d.Size {
	case 1:
		b[0] = byte(v)
	case 2:
		d.Order.PutUint16(b, uint16(v))
	default:
		d.Order.PutUint32(b, uint32(v))
	}
}

// clipInt64 converts rounded v to int64. Float64 can't hold MaxInt64, so
// bounds are checked against 2^63.
func clipInt64(v float64) int64 {
	switch {
	case v >= 0x1p63:
		return math.MaxInt64
	case v <= -0x1p63:
		return math.MinInt64
	}
	return int64(v)
}

func clipUint64(v float64) uint64 {
	switch {
	case v >= 0x1p64:
		return math.MaxUint64
	case v <= 0:
		return 0
	}
	return uint64(v)
}

func clip(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
