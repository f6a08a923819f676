// Package meta describes attributes of sampled datasets and keeps column
// metadata consistent with the channels of the data it describes.
package meta

import (
	"fmt"
	"sort"
)

// Well-known attribute keys.
const (
	KeySamplingRate = "sampling_rate"
	KeyDType        = "dtype"
	KeyColumns      = "columns"
	KeyNumSamples   = "n_samples"
	KeyNumChannels  = "n_channels"
	KeyUnits        = "units"
)

type (
	// Attrs is a free-form set of dataset attributes.
	Attrs map[string]interface{}

	// Column holds attributes of a single channel. It always has units key
	// once validated.
	Column map[string]interface{}

	// Columns maps channel index to its attributes.
	Columns map[int]Column

	// Metadata is the content of a dataset meta file.
	Metadata struct {
		SamplingRate float64 `yaml:"sampling_rate,omitempty"`
		DType        string  `yaml:"dtype,omitempty"`
		Columns      Columns `yaml:"columns,omitempty"`
		Attrs        Attrs   `yaml:",inline"`
	}
)

// ValidationError is returned when columns don't describe the data.
type ValidationError struct {
	Expected int
	Actual   int
	Missing  int
}

func (e *ValidationError) Error() string {
	if e.Missing >= 0 {
		return fmt.Sprintf("columns attribute is missing column %d", e.Missing)
	}
	return fmt.Sprintf("columns attribute has %d columns, data has %d", e.Actual, e.Expected)
}

// DefaultColumns returns columns for n channels with undefined units.
func DefaultColumns(n int) Columns {
	c := make(Columns, n)
	for i := 0; i < n; i++ {
		c[i] = Column{KeyUnits: nil}
	}
	return c
}

// Copy returns a deep copy of attributes.
func (a Attrs) Copy() Attrs {
	if a == nil {
		return Attrs{}
	}
	result := make(Attrs, len(a))
	for k, v := range a {
		result[k] = copyValue(v)
	}
	return result
}

// Merge returns a copy of attributes with values from other set on top.
func (a Attrs) Merge(other Attrs) Attrs {
	result := a.Copy()
	for k, v := range other {
		result[k] = copyValue(v)
	}
	return result
}

// Copy returns a deep copy of the column.
func (c Column) Copy() Column {
	result := make(Column, len(c))
	for k, v := range c {
		result[k] = copyValue(v)
	}
	return result
}

// Copy returns a deep copy of columns.
func (c Columns) Copy() Columns {
	if c == nil {
		return nil
	}
	result := make(Columns, len(c))
	for i, col := range c {
		result[i] = col.Copy()
	}
	return result
}

// Indices returns sorted column indices.
func (c Columns) Indices() []int {
	indices := make([]int, 0, len(c))
	for i := range c {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// Select returns columns re-indexed in the order of provided indices.
// Negative indices count from the end. Duplicates are allowed.
func (c Columns) Select(indices ...int) (Columns, error) {
	result := make(Columns, len(indices))
	for i, idx := range indices {
		resolved, ok := Resolve(idx, len(c))
		if !ok {
			return nil, fmt.Errorf("column index %d out of range for %d columns", idx, len(c))
		}
		col, ok := c[resolved]
		if !ok {
			return nil, &ValidationError{Expected: len(c), Actual: len(c), Missing: resolved}
		}
		result[i] = col.Copy()
	}
	return result, nil
}

// Concat returns columns of all sets joined and re-indexed contiguously.
func (c Columns) Concat(others ...Columns) Columns {
	result := make(Columns)
	for _, set := range append([]Columns{c}, others...) {
		for _, i := range set.Indices() {
			result[len(result)] = set[i].Copy()
		}
	}
	return result
}

// Validate checks that columns describe exactly n channels indexed 0..n-1.
// Missing units keys are set to nil.
func (c Columns) Validate(n int) error {
	if len(c) != n {
		return &ValidationError{Expected: n, Actual: len(c), Missing: -1}
	}
	for i := 0; i < n; i++ {
		col, ok := c[i]
		if !ok {
			return &ValidationError{Expected: n, Actual: len(c), Missing: i}
		}
		if col == nil {
			c[i] = Column{KeyUnits: nil}
			continue
		}
		if _, ok := col[KeyUnits]; !ok {
			col[KeyUnits] = nil
		}
	}
	return nil
}

// Reconcile returns columns valid for n channels. If existing columns don't
// match, default columns are returned and repaired is true.
func (c Columns) Reconcile(n int) (result Columns, repaired bool) {
	result = c.Copy()
	if err := result.Validate(n); err != nil {
		return DefaultColumns(n), true
	}
	return result, false
}

// Resolve converts possibly negative index into absolute one for n items.
func Resolve(idx, n int) (int, bool) {
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, false
	}
	return idx, true
}

// copyValue deep copies maps and slices produced by yaml decoding.
func copyValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(val))
		for k, item := range val {
			m[k] = copyValue(item)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(val))
		for i, item := range val {
			s[i] = copyValue(item)
		}
		return s
	case Column:
		return val.Copy()
	case Columns:
		return val.Copy()
	case Attrs:
		return val.Copy()
	default:
		return v
	}
}
