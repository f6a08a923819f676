package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylerbrown/bark/dataset"
	"github.com/kylerbrown/bark/meta"
	"github.com/kylerbrown/bark/signal"
	"github.com/kylerbrown/bark/wav"
)

func runApp(args ...string) (int, string) {
	var stdout, stderr bytes.Buffer
	a := app{
		args:   append([]string{"bark"}, args...),
		stdout: &stdout,
		stderr: &stderr,
	}
	code := a.run()
	return code, stderr.String()
}

// writeDataset writes 10x3 int16 dataset at 100 Hz.
func writeDataset(t *testing.T, path string) signal.Float64 {
	t.Helper()
	data := signal.EmptyFloat64(3, 10)
	for c := range data {
		for r := range data[c] {
			data[c][r] = float64(r*3 + c)
		}
	}
	columns := meta.Columns{
		0: {meta.KeyUnits: nil, "name": "mic"},
		1: {meta.KeyUnits: nil, "name": "electrode"},
		2: {meta.KeyUnits: nil, "name": "mic"},
	}
	_, err := dataset.WriteSampled(path, data, meta.Metadata{SamplingRate: 100, DType: "<i2", Columns: columns})
	require.NoError(t, err)
	return data
}

func readDataset(t *testing.T, path string) (*dataset.Sampled, signal.Float64) {
	t.Helper()
	ds, err := dataset.ReadSampled(path)
	require.NoError(t, err)
	data, err := ds.ReadAll()
	require.NoError(t, err)
	return ds, data
}

func TestUsage(t *testing.T) {
	code, _ := runApp()
	assert.Equal(t, errorExitCode, code)
	code, stderr := runApp("unknown")
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, stderr, "unknown")
	assert.Equal(t, 10, len(commands()))
}

func TestDownsample(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.dat")
	out := filepath.Join(dir, "out.dat")
	data := writeDataset(t, in)

	code, stderr := runApp("downsample", "-factor", "2", "-a", "bird=bl1", "-o", out, in)
	require.Equal(t, successExitCode, code, stderr)
	ds, result := readDataset(t, out)
	assert.Equal(t, float64(50), ds.Metadata.SamplingRate)
	assert.Equal(t, "<i2", ds.Metadata.DType)
	assert.Equal(t, "bl1", ds.Metadata.Attrs["bird"])
	assert.Equal(t, data.Stride(0, 2), result)

	code, stderr = runApp("downsample", "-factor", "0", "-o", out, in)
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, stderr, "-factor")
	code, stderr = runApp("downsample", "-factor", "2", "-o", out, filepath.Join(dir, "missing.dat"))
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, stderr, "missing.dat")
	code, _ = runApp("downsample", "-factor", "2", in)
	assert.Equal(t, errorExitCode, code)

	code, stderr = runApp("downsample", "-factor", "2", "-o", in, in)
	require.Equal(t, successExitCode, code, stderr)
	ds, result = readDataset(t, in)
	assert.Equal(t, 5, ds.NumSamples)
	assert.Equal(t, data.Stride(0, 2), result)
}

func TestSelectChannels(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.dat")
	data := writeDataset(t, in)

	out := filepath.Join(dir, "indices.dat")
	code, stderr := runApp("select-channels", "-c", "2,0", "-o", out, in)
	require.Equal(t, successExitCode, code, stderr)
	ds, result := readDataset(t, out)
	assert.Equal(t, data.Channels(2, 0), result)
	assert.Equal(t, "mic", ds.Metadata.Columns[0]["name"])

	out = filepath.Join(dir, "attr.dat")
	code, stderr = runApp("select-channels", "-c", "mic", "-col-attr", "name", "-o", out, in)
	require.Equal(t, successExitCode, code, stderr)
	_, result = readDataset(t, out)
	assert.Equal(t, data.Channels(0, 2), result)

	code, _ = runApp("select-channels", "-c", "5", "-o", filepath.Join(dir, "bad.dat"), in)
	assert.Equal(t, errorExitCode, code)
	code, _ = runApp("select-channels", "-c", "nest", "-col-attr", "name", "-o", filepath.Join(dir, "bad.dat"), in)
	assert.Equal(t, errorExitCode, code)
}

func TestDifferenceChannels(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.dat")
	writeDataset(t, in)

	out := filepath.Join(dir, "diff.dat")
	code, stderr := runApp("difference-channels", "-o", out, in)
	require.Equal(t, successExitCode, code, stderr)
	_, result := readDataset(t, out)
	require.Equal(t, 1, result.NumChannels())
	for _, v := range result[0] {
		assert.Equal(t, float64(-1), v)
	}

	out = filepath.Join(dir, "diff2.dat")
	code, stderr = runApp("difference-channels", "-c", "2,0", "-o", out, in)
	require.Equal(t, successExitCode, code, stderr)
	_, result = readDataset(t, out)
	for _, v := range result[0] {
		assert.Equal(t, float64(2), v)
	}

	code, _ = runApp("difference-channels", "-c", "0", "-o", out, in)
	assert.Equal(t, errorExitCode, code)
}

func TestJoinAndConcat(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.dat")
	b := filepath.Join(dir, "b.dat")
	data := writeDataset(t, a)
	writeDataset(t, b)

	joined := filepath.Join(dir, "joined.dat")
	code, stderr := runApp("join-channels", "-o", joined, a, b)
	require.Equal(t, successExitCode, code, stderr)
	ds, result := readDataset(t, joined)
	assert.Equal(t, signal.Stack(data, data), result)
	assert.Equal(t, 6, len(ds.Metadata.Columns))

	chained := filepath.Join(dir, "chained.dat")
	code, stderr = runApp("concat", "-a", "note=twice", "-o", chained, a, b)
	require.Equal(t, successExitCode, code, stderr)
	ds, result = readDataset(t, chained)
	assert.Equal(t, data.Append(data), result)
	assert.Equal(t, "twice", ds.Metadata.Attrs["note"])

	code, _ = runApp("concat", "-o", chained)
	assert.Equal(t, errorExitCode, code)
}

func TestFilter(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.dat")
	data := writeDataset(t, in)

	tests := []struct {
		description string
		args        []string
	}{
		{description: "lowpass", args: []string{"-lowpass", "20"}},
		{description: "highpass", args: []string{"-highpass", "10", "-filter", "butter"}},
		{description: "bandpass", args: []string{"-highpass", "5", "-lowpass", "30", "-order", "2"}},
		{description: "bandstop", args: []string{"-highpass", "30", "-lowpass", "5"}},
	}
	for _, test := range tests {
		out := filepath.Join(dir, test.description+".dat")
		args := append([]string{"filter", "-o", out}, test.args...)
		code, stderr := runApp(append(args, in)...)
		require.Equal(t, successExitCode, code, "%s: %s", test.description, stderr)
		ds, result := readDataset(t, out)
		assert.Equal(t, "<f8", ds.Metadata.DType, test.description)
		assert.Equal(t, data.NumChannels(), result.NumChannels(), test.description)
		assert.Equal(t, data.Size(), result.Size(), test.description)
	}

	code, _ := runApp("filter", "-o", filepath.Join(dir, "none.dat"), in)
	assert.Equal(t, errorExitCode, code)
	code, stderr := runApp("filter", "-filter", "chebyshev", "-lowpass", "20", "-o", filepath.Join(dir, "bad.dat"), in)
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, stderr, "-filter")
	code, _ = runApp("filter", "-lowpass", "80", "-o", filepath.Join(dir, "bad.dat"), in)
	assert.Equal(t, errorExitCode, code)
}

func TestResample(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.dat")
	out := filepath.Join(dir, "out.dat")
	writeDataset(t, in)

	code, stderr := runApp("resample", "-rate", "50", "-o", out, in)
	require.Equal(t, successExitCode, code, stderr)
	ds, result := readDataset(t, out)
	assert.Equal(t, float64(50), ds.Metadata.SamplingRate)
	assert.Equal(t, "<i2", ds.Metadata.DType)
	assert.Equal(t, 5, result.Size())

	code, stderr = runApp("resample", "-rate", "-1", "-o", out, in)
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, stderr, "-rate")
}

func TestWavConversion(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.dat")
	data := writeDataset(t, in)

	wavPath := filepath.Join(dir, "out.wav")
	code, stderr := runApp("to-wav", "-o", wavPath, in)
	require.Equal(t, successExitCode, code, stderr)
	props, err := wav.ReadProps(wavPath)
	require.NoError(t, err)
	assert.Equal(t, wav.Props{SampleRate: 100, NumChannels: 3, BitDepth: signal.BitDepth16}, props)

	back := filepath.Join(dir, "back.dat")
	code, stderr = runApp("from-wav", "-o", back, wavPath)
	require.Equal(t, successExitCode, code, stderr)
	ds, result := readDataset(t, back)
	assert.Equal(t, float64(100), ds.Metadata.SamplingRate)
	assert.Equal(t, "<i2", ds.Metadata.DType)
	assert.Equal(t, data, result)

	code, _ = runApp("to-wav", "-bits", "8", "-o", filepath.Join(dir, "bad.wav"), in)
	assert.Equal(t, errorExitCode, code)
}

func TestEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry1")
	code, stderr := runApp("entry", "-t", "2017-03-01_12-30-00.5", "-a", "bird=bl1", path)
	require.Equal(t, successExitCode, code, stderr)
	e, err := dataset.ReadEntry(path)
	require.NoError(t, err)
	assert.Equal(t, "bl1", e.Attrs["bird"])
	assert.True(t, time.Date(2017, 3, 1, 12, 30, 0, 500000000, time.Local).Equal(e.Timestamp))

	code, _ = runApp("entry", path)
	assert.Equal(t, errorExitCode, code)
	code, stderr = runApp("entry", "-p", "-t", "2017-03-02", path)
	require.Equal(t, successExitCode, code, stderr)
	code, stderr = runApp("entry", "-t", "yesterday", filepath.Join(dir, "entry2"))
	assert.Equal(t, errorExitCode, code)
	assert.Contains(t, stderr, "-t")
}

func TestFlags(t *testing.T) {
	var l stringList
	require.NoError(t, l.Set("0, 1"))
	require.NoError(t, l.Set("3"))
	assert.Equal(t, stringList{"0", "1", "3"}, l)
	assert.Equal(t, "0,1,3", l.String())

	var a attrsFlag
	require.NoError(t, a.Set("bird=bl1"))
	require.NoError(t, a.Set("note=a=b"))
	assert.Equal(t, meta.Attrs{"bird": "bl1", "note": "a=b"}, a.attrs())
	assert.Error(t, a.Set("novalue"))
}
