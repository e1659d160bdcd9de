package schema

import "github.com/koustreak/sqlschema/internal/catalog"

// Native type display names.
const (
	NativeInteger = "INTEGER"
	NativeNumeric = "NUMERIC"
	NativeText    = "TEXT"
	NativeNone    = "NONE"
)

// NormalizeType maps a catalog DATA_TYPE identifier to its portable
// category and native display name. The match is exact and
// case-sensitive; every other identifier is an object typed NONE.
func NormalizeType(id string) (DataType, string) {
	switch id {
	case catalog.TypeInt64:
		return DataTypeInt64, NativeInteger
	case catalog.TypeDecimal:
		return DataTypeDecimal, NativeNumeric
	case catalog.TypeString:
		return DataTypeString, NativeText
	default:
		return DataTypeObject, NativeNone
	}
}
