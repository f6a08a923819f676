// Package signal holds the buffer type shared by bark packages and helpers
// to slice, stride, select, stack and convert buffers.
package signal

import (
	"math"
	"time"
)

// Float64 is a non-interleaved buffer indexed [channel][sample].
type Float64 [][]float64

// BitDepth of signed integer samples. Zero bit depth means integers are
// converted to floats and back without scaling or clipping.
type BitDepth int

// Supported bit depths.
const (
	BitDepth8  BitDepth = 8
	BitDepth16 BitDepth = 16
	BitDepth32 BitDepth = 32
)

// Max returns the largest sample value of bit depth.
func (d BitDepth) Max() int {
	if d <= 0 {
		return math.MaxInt
	}
	return 1<<(uint(d)-1) - 1
}

// Clip limits v to the range of bit depth.
func (d BitDepth) Clip(v int) int {
	if d <= 0 {
		return v
	}
	switch max := d.Max(); {
	case v > max:
		return max
	case v < -max-1:
		return -max - 1
	}
	return v
}

func (d BitDepth) scale() float64 {
	if d <= 0 {
		return 1
	}
	return float64(d.Max())
}

// InterInt is an interleaved int buffer.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// AsFloat64 deinterleaves samples. A trailing incomplete frame is padded
// with zeros. Values are divided by the maximum of bit depth.
func (ints InterInt) AsFloat64() Float64 {
	if len(ints.Data) == 0 || ints.NumChannels <= 0 {
		return nil
	}
	frames := (len(ints.Data) + ints.NumChannels - 1) / ints.NumChannels
	scale := ints.BitDepth.scale()
	result := EmptyFloat64(ints.NumChannels, frames)
	for i, v := range ints.Data {
		result[i%ints.NumChannels][i/ints.NumChannels] = float64(v) / scale
	}
	return result
}

// AsInterInt interleaves samples multiplied by the maximum of bit depth,
// rounded to the nearest integer and clipped to its range. Channels
// shorter than the first are padded with zeros.
func (floats Float64) AsInterInt(bitDepth BitDepth) []int {
	if len(floats) == 0 {
		return nil
	}
	n := len(floats)
	scale := bitDepth.scale()
	ints := make([]int, n*len(floats[0]))
	for c, samples := range floats {
		for i, v := range samples {
			ints[i*n+c] = bitDepth.Clip(int(math.Round(v * scale)))
		}
	}
	return ints
}

// DurationOf returns time it takes to play samples at sample rate.
func DurationOf(sampleRate float64, samples int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / sampleRate * float64(time.Second))
}

// EmptyFloat64 allocates zero buffer of numChannels by size.
func EmptyFloat64(numChannels, size int) Float64 {
	result := make(Float64, numChannels)
	for c := range result {
		result[c] = make([]float64, size)
	}
	return result
}

// NumChannels returns number of channels.
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples per channel.
func (floats Float64) Size() int {
	if len(floats) == 0 {
		return 0
	}
	return len(floats[0])
}

// Append adds samples of source to the end of every channel. Nil receiver
// allocates new buffer.
func (floats Float64) Append(source Float64) Float64 {
	if floats == nil {
		floats = make(Float64, len(source))
		for c := range floats {
			floats[c] = make([]float64, 0, source.Size())
		}
	}
	for c := range source {
		floats[c] = append(floats[c], source[c]...)
	}
	return floats
}

// Slice copies up to length samples starting at start. Nil is returned when
// start is outside of the buffer.
func (floats Float64) Slice(start, length int) Float64 {
	size := floats.Size()
	if start < 0 || start >= size {
		return nil
	}
	end := start + length
	if end > size {
		end = size
	}
	result := make(Float64, len(floats))
	for c := range floats {
		result[c] = copyOf(floats[c][start:end])
	}
	return result
}

// Stride copies every step-th sample starting at start. Nil is returned
// when start is outside of the buffer.
func (floats Float64) Stride(start, step int) Float64 {
	size := floats.Size()
	if start < 0 || start >= size || step < 1 {
		return nil
	}
	result := make(Float64, len(floats))
	for c := range floats {
		result[c] = make([]float64, 0, (size-start+step-1)/step)
		for i := start; i < size; i += step {
			result[c] = append(result[c], floats[c][i])
		}
	}
	return result
}

// Copy returns a deep copy.
func (floats Float64) Copy() Float64 {
	if floats == nil {
		return nil
	}
	return floats.Channels(channelRange(len(floats))...)
}

// Channels copies listed channels in order. Indices must be in range.
func (floats Float64) Channels(indices ...int) Float64 {
	result := make(Float64, len(indices))
	for i, c := range indices {
		result[i] = copyOf(floats[c])
	}
	return result
}

// Stack copies channels of all buffers into one, truncated to the
// shortest buffer.
func Stack(buffers ...Float64) Float64 {
	var result Float64
	size := math.MaxInt
	for _, b := range buffers {
		if b.Size() < size {
			size = b.Size()
		}
	}
	for _, b := range buffers {
		for c := range b {
			result = append(result, copyOf(b[c][:size]))
		}
	}
	return result
}

func copyOf(samples []float64) []float64 {
	return append(make([]float64, 0, len(samples)), samples...)
}

func channelRange(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}
