// Package schema implements the declarative description of tables,
// columns, data types, indexes, defaults and summary directives that a
// BackendProxy realizes on disk. It mirrors the teacher's
// internal/domain/schema table/column definitions, generalized from a
// fixed CRM column set to the closed primitive-type enumeration spec.md
// §3 requires.
package schema

import "fmt"

// DataType is the closed enumeration of column primitive types. Every type
// except String and Blob has a fixed on-disk width.
type DataType int

const (
	Char DataType = iota
	Int8
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float
	Double
	String
	Blob
	// FKey aliases a 32-bit integer but marks the column as a foreign-key
	// reference to another table's implicit Id column.
	FKey
)

func (t DataType) String() string {
	switch t {
	case Char:
		return "char"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case UInt64:
		return "uint64"
	case Float:
		return "float"
	case Double:
		return "double"
	case String:
		return "string"
	case Blob:
		return "blob"
	case FKey:
		return "fkey"
	default:
		return fmt.Sprintf("DataType(%d)", int(t))
	}
}

// IsFixedWidth reports whether the type has a fixed on-disk width, i.e.
// whether it may appear in a fixed-size table (spec.md §3 invariant 4).
func (t DataType) IsFixedWidth() bool {
	return t != String && t != Blob
}

// ByteWidth returns the fixed on-disk width in bytes for fixed-width types,
// and 0 for String/Blob (variable width).
func (t DataType) ByteWidth() int {
	switch t {
	case Char, Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float, FKey:
		return 4
	case Int64, UInt64, Double:
		return 8
	default:
		return 0
	}
}

// NamespaceDelimiter separates a namespace prefix from an unqualified table
// name, e.g. "Stats" + NamespaceDelimiter + "MyTable" = "Stats$MyTable".
const NamespaceDelimiter = "$"

// QualifyTableName prefixes name with the namespace, unless ns is empty or
// name is already qualified with it.
func QualifyTableName(ns, name string) string {
	if ns == "" {
		return name
	}
	prefix := ns + NamespaceDelimiter
	if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
		return name
	}
	return prefix + name
}

// SummaryFunc names a built-in aggregation kind for a SummaryDirective.
type SummaryFunc string

const (
	SummaryMin    SummaryFunc = "min"
	SummaryMax    SummaryFunc = "max"
	SummaryAvg    SummaryFunc = "avg"
	SummaryCustom SummaryFunc = "custom"
)

// SummaryDirective is an optional per-column aggregation whose result is
// persisted to a sibling <Table>_Summary table on demand (spec.md §3).
type SummaryDirective struct {
	Fn SummaryFunc
	// Name is the result column suffix: "<col>_<Name>". Defaults to
	// string(Fn) when empty.
	Name string
	// Expr holds a compiled expr-lang program source for SummaryCustom; see
	// internal/summary for evaluation.
	Expr string
}

func (d SummaryDirective) resultName(column string) string {
	name := d.Name
	if name == "" {
		name = string(d.Fn)
	}
	return column + "_" + name
}
