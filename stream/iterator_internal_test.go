package stream

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kylerbrown/bark/signal"
)

func TestCloseAll(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	closed := 0
	iterator := func(err error) Iterator {
		return NewIterator(func() (signal.Float64, error) {
			return nil, io.EOF
		}, func() error {
			closed++
			return err
		})
	}

	assert.NoError(t, closeAll(iterator(nil), nil, iterator(nil)))
	assert.Equal(t, 2, closed)

	err := closeAll(iterator(first), iterator(nil), iterator(second))
	assert.Equal(t, 5, closed)
	assert.True(t, errors.Is(err, first))
	assert.True(t, errors.Is(err, second))
	assert.Equal(t, "first, second", err.Error())
}
