package meta_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kylerbrown/bark/meta"
)

func namedColumns(names ...string) meta.Columns {
	c := make(meta.Columns, len(names))
	for i, name := range names {
		c[i] = meta.Column{meta.KeyUnits: nil, "name": name}
	}
	return c
}

func TestSelect(t *testing.T) {
	columns := namedColumns("a", "b", "c", "d", "e")
	tests := []struct {
		description string
		indices     []int
		expected    []string
		err         bool
	}{
		{
			description: "subset",
			indices:     []int{1, 3},
			expected:    []string{"b", "d"},
		},
		{
			description: "negative",
			indices:     []int{-1},
			expected:    []string{"e"},
		},
		{
			description: "reorder and duplicate",
			indices:     []int{4, 0, 4},
			expected:    []string{"e", "a", "e"},
		},
		{
			description: "out of range",
			indices:     []int{5},
			err:         true,
		},
		{
			description: "negative out of range",
			indices:     []int{-6},
			err:         true,
		},
	}
	for _, test := range tests {
		selected, err := columns.Select(test.indices...)
		if test.err {
			assert.Error(t, err, test.description)
			continue
		}
		require.NoError(t, err, test.description)
		assert.Equal(t, len(test.expected), len(selected), test.description)
		for i, name := range test.expected {
			assert.Equal(t, name, selected[i]["name"], test.description)
		}
	}
}

func TestSelectCopies(t *testing.T) {
	columns := namedColumns("a", "b")
	selected, err := columns.Select(0)
	require.NoError(t, err)
	selected[0]["name"] = "changed"
	assert.Equal(t, "a", columns[0]["name"])
}

func TestConcat(t *testing.T) {
	merged := namedColumns("a", "b").Concat(namedColumns("c"), namedColumns())
	assert.Equal(t, 3, len(merged))
	for i, name := range []string{"a", "b", "c"} {
		assert.Equal(t, name, merged[i]["name"])
	}
}

func TestValidate(t *testing.T) {
	columns := meta.Columns{0: {}, 1: {"name": "x"}}
	require.NoError(t, columns.Validate(2))
	_, ok := columns[1][meta.KeyUnits]
	assert.True(t, ok, "units key must be added")

	var verr *meta.ValidationError
	err := columns.Validate(3)
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 3, verr.Expected)
	assert.Equal(t, 2, verr.Actual)

	err = meta.Columns{0: {}, 2: {}}.Validate(2)
	assert.True(t, errors.As(err, &verr))
	assert.Equal(t, 1, verr.Missing)
}

func TestReconcile(t *testing.T) {
	columns := namedColumns("a", "b", "c")
	result, repaired := columns.Reconcile(3)
	assert.False(t, repaired)
	assert.Equal(t, "c", result[2]["name"])

	result, repaired = columns.Reconcile(2)
	assert.True(t, repaired)
	assert.Equal(t, meta.DefaultColumns(2), result)
}

func TestAttrsCopy(t *testing.T) {
	attrs := meta.Attrs{
		"nested": map[string]interface{}{"k": "v"},
		"list":   []interface{}{1, 2},
	}
	c := attrs.Copy()
	c["nested"].(map[string]interface{})["k"] = "changed"
	c["list"].([]interface{})[0] = 100
	assert.Equal(t, "v", attrs["nested"].(map[string]interface{})["k"])
	assert.Equal(t, 1, attrs["list"].([]interface{})[0])

	merged := attrs.Merge(meta.Attrs{"extra": "value"})
	assert.Equal(t, "value", merged["extra"])
	_, ok := attrs["extra"]
	assert.False(t, ok)

	var empty meta.Attrs
	assert.NotNil(t, empty.Copy())
}
