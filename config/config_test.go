package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylerbrown/bark/config"
	"github.com/kylerbrown/bark/iir"
)

func TestDefaults(t *testing.T) {
	c, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.Config{
		ChunkSize:   1000000,
		Filter:      "bessel",
		FilterOrder: 3,
	}, c)
	proto, err := c.Prototype()
	require.NoError(t, err)
	assert.Equal(t, iir.Bessel, proto)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bark.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 500\nfilter: butter\n"), 0644))
	c, err := config.Load(config.WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, 500, c.ChunkSize)
	assert.Equal(t, "butter", c.Filter)
	assert.Equal(t, 3, c.FilterOrder)

	_, err = config.Load(config.WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.Error(t, err)
}

func TestEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bark.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 500\n"), 0644))
	t.Setenv("BARK_CHUNK_SIZE", "64")
	t.Setenv("BARK_FILTER_ORDER", "5")
	c, err := config.Load(config.WithConfigFile(path))
	require.NoError(t, err)
	assert.Equal(t, 64, c.ChunkSize)
	assert.Equal(t, 5, c.FilterOrder)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{key: "BARK_CHUNK_SIZE", value: "0"},
		{key: "BARK_FILTER", value: "chebyshev"},
		{key: "BARK_FILTER_ORDER", value: "0"},
	}
	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			t.Setenv(test.key, test.value)
			_, err := config.Load()
			assert.True(t, errors.Is(err, config.ErrInvalid))
		})
	}
}
