package stream_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
	"github.com/kylerbrown/bark/stream"
)

// apply returns a copy of data with fn applied to every value.
func apply(data signal.Float64, fn func(float64) float64) signal.Float64 {
	result := data.Copy()
	for i := range result {
		for j := range result[i] {
			result[i][j] = fn(result[i][j])
		}
	}
	return result
}

func TestScalarArithmetic(t *testing.T) {
	s := newStream(t, data1, stream.WithSampleRate(10), stream.WithChunkSize(3))
	tests := []struct {
		description string
		result      *stream.Stream
		fn          func(float64) float64
	}{
		{
			description: "add",
			result:      s.Add(4),
			fn:          func(v float64) float64 { return v + 4 },
		},
		{
			description: "subtract",
			result:      s.Subtract(4),
			fn:          func(v float64) float64 { return v - 4 },
		},
		{
			description: "multiply",
			result:      s.Multiply(4),
			fn:          func(v float64) float64 { return v * 4 },
		},
		{
			description: "divide",
			result:      s.Divide(4),
			fn:          func(v float64) float64 { return v / 4 },
		},
		{
			description: "floor divide",
			result:      s.FloorDivide(4),
			fn:          func(v float64) float64 { return math.Floor(v / 4) },
		},
		{
			description: "chained",
			result:      s.Add(4).Add(3),
			fn:          func(v float64) float64 { return v + 7 },
		},
		{
			description: "round trip",
			result:      s.Add(5).Subtract(5),
			fn:          func(v float64) float64 { return v },
		},
	}
	for _, test := range tests {
		assert.Equal(t, apply(data1, test.fn), readAll(t, test.result), test.description)
		assert.Equal(t, float64(10), test.result.SampleRate(), test.description)
	}
	assert.Equal(t, "<f8", s.Divide(2).Attrs()[meta.KeyDType])
}

func TestStreamArithmetic(t *testing.T) {
	shifted := apply(data1, func(v float64) float64 { return v + 100 })
	left := newStream(t, shifted, stream.WithChunkSize(3))
	right := newStream(t, data1, stream.WithChunkSize(4))
	tests := []struct {
		description string
		result      *stream.Stream
		fn          func(a, b float64) float64
	}{
		{
			description: "add",
			result:      left.AddStream(right),
			fn:          func(a, b float64) float64 { return a + b },
		},
		{
			description: "subtract",
			result:      left.SubtractStream(right),
			fn:          func(a, b float64) float64 { return a - b },
		},
		{
			description: "multiply",
			result:      left.MultiplyStream(right),
			fn:          func(a, b float64) float64 { return a * b },
		},
		{
			description: "divide",
			result:      left.DivideStream(right),
			fn:          func(a, b float64) float64 { return a / b },
		},
		{
			description: "floor divide",
			result:      left.FloorDivideStream(right),
			fn:          func(a, b float64) float64 { return math.Floor(a / b) },
		},
	}
	for _, test := range tests {
		expected := shifted.Copy()
		for i := range expected {
			for j := range expected[i] {
				expected[i][j] = test.fn(shifted[i][j], data1[i][j])
			}
		}
		assert.Equal(t, expected, readAll(t, test.result), test.description)
	}
}

func TestStreamArithmeticShortest(t *testing.T) {
	long := newStream(t, arange(10, 2), stream.WithChunkSize(4))
	short := newStream(t, arange(7, 2), stream.WithChunkSize(3))
	assert.Equal(t, 7, readAll(t, long.AddStream(short)).Size())
	assert.Equal(t, 7, readAll(t, short.AddStream(long)).Size())

	_, err := long.AddStream(newStream(t, arange(10, 3))).ReadAll()
	assert.True(t, errors.Is(err, stream.ErrChannelMismatch))
}

func TestMap(t *testing.T) {
	identity := func(b signal.Float64) (signal.Float64, error) { return b, nil }
	for _, data := range []signal.Float64{data1, data2, data3, data4} {
		assert.Equal(t, data, readAll(t, newStream(t, data).Map(identity)))
	}

	// reduction to a single mean channel
	mean := func(b signal.Float64) (signal.Float64, error) {
		result := signal.EmptyFloat64(1, b.Size())
		for j := 0; j < b.Size(); j++ {
			for i := range b {
				result[0][j] += b[i][j]
			}
			result[0][j] /= float64(b.NumChannels())
		}
		return result, nil
	}
	reduced := readAll(t, newStream(t, data1, stream.WithChunkSize(4)).Map(mean))
	require.Equal(t, 1, reduced.NumChannels())
	for j := range reduced[0] {
		assert.Equal(t, float64(3*j+1), reduced[0][j])
	}

	shrink := func(b signal.Float64) (signal.Float64, error) { return b.Slice(0, 1), nil }
	_, err := newStream(t, data1, stream.WithChunkSize(4)).Map(shrink).ReadAll()
	assert.True(t, errors.Is(err, stream.ErrShapeMismatch))

	failure := errors.New("failure")
	_, err = newStream(t, data1).Map(func(signal.Float64) (signal.Float64, error) { return nil, failure }).ReadAll()
	assert.True(t, errors.Is(err, failure))
}

func TestMapValues(t *testing.T) {
	result := readAll(t, newStream(t, data1).MapValues(math.Sqrt))
	assert.Equal(t, apply(data1, math.Sqrt), result)
}

func TestSplit(t *testing.T) {
	columns := namedColumns("0", "1", "2", "3", "4")
	s := newStream(t, data2, stream.WithColumns(columns))
	tests := []struct {
		description string
		indices     []int
		expected    []int
	}{
		{description: "subset", indices: []int{1, 3}, expected: []int{1, 3}},
		{description: "last", indices: []int{-1}, expected: []int{4}},
		{description: "first and last", indices: []int{0, -1}, expected: []int{0, 4}},
		{description: "reordered duplicates", indices: []int{2, 2, 0}, expected: []int{2, 2, 0}},
	}
	for _, test := range tests {
		split, err := s.Split(test.indices...)
		require.NoError(t, err, test.description)
		assert.Equal(t, data2.Channels(test.expected...), readAll(t, split), test.description)
		splitColumns := split.Columns()
		require.Equal(t, len(test.expected), len(splitColumns), test.description)
		for i, idx := range test.expected {
			assert.Equal(t, columns[idx]["name"], splitColumns[i]["name"], test.description)
		}
	}

	_, err := s.Split(5)
	assert.True(t, errors.Is(err, stream.ErrChannelIndex))
	_, err = s.Split()
	assert.True(t, errors.Is(err, stream.ErrConfiguration))

	// channel count is only known at iteration for generators
	g, err := stream.New(stream.IteratorSource(stream.Buffers(signal.Float64{{1}, {2}})))
	require.NoError(t, err)
	split, err := g.Split(3)
	require.NoError(t, err)
	_, err = split.ReadAll()
	assert.True(t, errors.Is(err, stream.ErrChannelIndex))
}

func TestSplitMerge(t *testing.T) {
	columns := namedColumns("a", "b", "c")
	s := newStream(t, data1, stream.WithColumns(columns), stream.WithChunkSize(4))
	parts := make([]*stream.Stream, 3)
	for i := range parts {
		var err error
		parts[i], err = s.Split(i)
		require.NoError(t, err)
	}
	merged, err := stream.Merge(parts...)
	require.NoError(t, err)
	assert.Equal(t, data1, readAll(t, merged))
	assert.Equal(t, columns, merged.Columns())

	_, err = stream.Merge()
	assert.True(t, errors.Is(err, stream.ErrConfiguration))
}

func TestMerge(t *testing.T) {
	expected := signal.Stack(data1, data1)
	s := newStream(t, data1, stream.WithChunkSize(10))
	assert.Equal(t, expected, readAll(t, s.Merge(newStream(t, data1, stream.WithChunkSize(10)))))
	assert.Equal(t, expected, readAll(t, s.Merge(newStream(t, data1, stream.WithChunkSize(11)))))
	assert.Equal(t, expected, readAll(t, newStream(t, data1, stream.WithChunkSize(3)).Merge(newStream(t, data1, stream.WithChunkSize(4)))))

	// truncated to the shortest
	short := newStream(t, arange(6, 1), stream.WithChunkSize(4))
	merged := readAll(t, s.Merge(short))
	assert.Equal(t, 6, merged.Size())
	assert.Equal(t, 4, merged.NumChannels())
}

func TestMergeColumns(t *testing.T) {
	s1 := newStream(t, arange(10, 2), stream.WithColumns(namedColumns("a", "b")))
	s2 := newStream(t, arange(10, 1), stream.WithColumns(namedColumns("c")))
	columns := s1.Merge(s2).Columns()
	require.Equal(t, 3, len(columns))
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, columns[i]["name"])
	}
}

func TestChain(t *testing.T) {
	chained := newStream(t, data1, stream.WithChunkSize(5)).Chain(newStream(t, data1, stream.WithChunkSize(6)))
	assert.Equal(t, data1.Copy().Append(data1), readAll(t, chained))
	assert.Equal(t, 5, chained.ChunkSize())

	it, err := chained.Iter()
	require.NoError(t, err)
	defer it.Close()
	for i := 0; i < 4; i++ {
		b, err := it.Next()
		require.NoError(t, err)
		assert.Equal(t, 5, b.Size())
	}

	_, err = newStream(t, data1).Chain(newStream(t, data3)).ReadAll()
	assert.True(t, errors.Is(err, stream.ErrChannelMismatch))
}
