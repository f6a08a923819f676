package stream_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
	"github.com/kylerbrown/bark/stream"
)

func TestDecimate(t *testing.T) {
	for _, data := range []signal.Float64{data2, data3, data4} {
		s := newStream(t, data, stream.WithSampleRate(30))
		decimated, err := s.Decimate(3)
		require.NoError(t, err)
		assert.Equal(t, data.Stride(0, 3), readAll(t, decimated))
		assert.Equal(t, float64(10), decimated.SampleRate())
	}
}

func TestDecimateChunkInvariance(t *testing.T) {
	for _, chunkSize := range []int{37, 64, 500} {
		for rows := 0; rows < 1000; rows += 7 {
			data := arange(rows, 1)
			s := newStream(t, data, stream.WithChunkSize(chunkSize))
			for _, factor := range []int{1, 2, 3, 10} {
				decimated, err := s.Decimate(factor)
				require.NoError(t, err)
				expected := data.Stride(0, factor)
				if expected == nil {
					expected = signal.EmptyFloat64(1, 0)
				}
				assert.Equal(t, expected, readAll(t, decimated), "chunk %d rows %d factor %d", chunkSize, rows, factor)
			}
		}
	}
}

func TestDecimateIrregularBuffers(t *testing.T) {
	s, err := stream.New(stream.IteratorSource(stream.Buffers(
		signal.Float64{{0, 1}},
		signal.Float64{{2}},
		signal.Float64{{3, 4, 5, 6, 7}},
		signal.Float64{{8, 9, 10}},
	)), stream.WithChunkSize(2))
	require.NoError(t, err)
	decimated, err := s.Decimate(3)
	require.NoError(t, err)
	assert.Equal(t, signal.Float64{{0, 3, 6, 9}}, readAll(t, decimated))
}

func TestDecimateAttrs(t *testing.T) {
	s := newStream(t, data1, stream.WithAttrs(meta.Attrs{meta.KeyNumSamples: 10, "fluffy": "cat"}))
	decimated, err := s.Decimate(2)
	require.NoError(t, err)
	attrs := decimated.Attrs()
	_, ok := attrs[meta.KeyNumSamples]
	assert.False(t, ok)
	assert.Equal(t, "cat", attrs["fluffy"])

	_, err = s.Decimate(0)
	assert.True(t, errors.Is(err, stream.ErrConfiguration))
}

func TestResample(t *testing.T) {
	ones := signal.EmptyFloat64(2, 1000)
	for i := range ones {
		for j := range ones[i] {
			ones[i][j] = 1
		}
	}
	tests := []struct {
		rate     float64
		expected int
	}{
		{rate: 50, expected: 500},
		{rate: 150, expected: 1500},
		{rate: 100, expected: 1000},
	}
	for _, test := range tests {
		s := newStream(t, ones, stream.WithSampleRate(100), stream.WithChunkSize(100))
		resampled, err := s.Resample(test.rate)
		require.NoError(t, err)
		assert.Equal(t, test.rate, resampled.SampleRate())
		assert.Equal(t, "<f8", resampled.Attrs()[meta.KeyDType])
		result := readAll(t, resampled)
		require.Equal(t, test.expected, result.Size())
		require.Equal(t, 2, result.NumChannels())
		// skip filter edges
		for i := range result {
			for _, v := range result[i][50 : len(result[i])-50] {
				assert.InDelta(t, 1, v, 1e-2)
			}
		}
	}

	s := newStream(t, ones)
	_, err := s.Resample(0)
	assert.True(t, errors.Is(err, stream.ErrConfiguration))
	_, err = s.Resample(-10)
	assert.True(t, errors.Is(err, stream.ErrConfiguration))
}
