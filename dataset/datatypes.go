package dataset

import "github.com/kylerbrown/bark/meta"

// KeyDataType is the attribute holding data type code.
const KeyDataType = "datatype"

// DataTypes maps data type names to their codes.
var DataTypes = map[string]int{
	"UNDEFINED":  0,
	"ACOUSTIC":   1,
	"EXTRAC_HP":  2,
	"EXTRAC_LF":  3,
	"EXTRAC_EEG": 4,
	"INTRAC_CC":  5,
	"INTRAC_VC":  6,
	"EVENT":      1000,
	"SPIKET":     1001,
	"BEHAVET":    1002,
	"INTERVAL":   2000,
	"STIMI":      2001,
	"COMPONENTL": 2002,
}

// DataTypeCode returns code of data type name.
func DataTypeCode(name string) (int, bool) {
	code, ok := DataTypes[name]
	return code, ok
}

// DataTypeName returns name of data type stored in attributes. Sampled
// data without datatype attribute is UNDEFINED, unknown codes give empty
// name.
func DataTypeName(attrs meta.Attrs) string {
	code := 0
	switch v := attrs[KeyDataType].(type) {
	case int:
		code = v
	case float64:
		code = int(v)
	case nil:
	default:
		return ""
	}
	for name, c := range DataTypes {
		if c == code {
			return name
		}
	}
	return ""
}
