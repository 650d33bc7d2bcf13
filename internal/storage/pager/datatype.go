package pager

import (
	"encoding/binary"
	"fmt"
)

// DataType is a closed, named registry entry: a declared size (positive
// = fixed, negative = maximum for a variable-length type), a compare
// capability with strict-less semantics, and a copy capability. This
// mirrors the function-pointer-table registry in
// original_source/src/datatype.cc (a static array of {name, size,
// compare, copy}), rendered as Go closures rather than C function
// pointers, the same shift the teacher repo makes for its own ColType
// dispatch (internal/storage/db.go's colTypeToString map).
type DataType struct {
	Name string
	Size int

	// Compare reports whether a < b under this type's ordering. It must
	// be strict: neither Compare(a,b) nor Compare(b,a) holding means a
	// and b are treated as equal (duplicate keys).
	Compare func(a, b []byte) bool

	// Copy copies src into dst, returning the number of bytes written
	// and false if dst is too small to hold src. Every registered type
	// uses copyBytes, so the capacity check applies to the integer
	// types as well as CHAR/VARCHAR.
	Copy func(dst, src []byte) (int, bool)
}

var dataTypeRegistry = []DataType{
	{Name: "CHAR", Size: 65535, Compare: compareChar, Copy: copyBytes},
	{Name: "VARCHAR", Size: -65535, Compare: compareChar, Copy: copyBytes},
	{Name: "TINYINT", Size: 1, Compare: compareIntWidth(1), Copy: copyBytes},
	{Name: "SMALLINT", Size: 2, Compare: compareIntWidth(2), Copy: copyBytes},
	{Name: "INT", Size: 4, Compare: compareIntWidth(4), Copy: copyBytes},
	{Name: "BIGINT", Size: 8, Compare: compareIntWidth(8), Copy: copyBytes},
}

// FindDataType looks up a type by its exact, case-sensitive name. It
// returns the registry entry and true, or a zero DataType and false when
// the name is not one of the six closed types.
func FindDataType(name string) (DataType, bool) {
	for _, dt := range dataTypeRegistry {
		if dt.Name == name {
			return dt, true
		}
	}
	return DataType{}, false
}

// compareChar implements the corrected CHAR/VARCHAR ordering (spec §9(iv)
// REDESIGN FLAG): the compared prefix is min(len(a), len(b)), with ties
// broken on length, never on max(len(a), len(b)). The original C++
// compareChar used strncmp(x, y, max(sx, sy)), which reads past the end
// of the shorter operand whenever the two lengths differ; that bug is not
// reproduced here.
func compareChar(a, b []byte) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// compareIntWidth returns a Compare func for a fixed-width signed integer
// of the given byte width (1, 2, 4, or 8), comparing as big-endian signed
// integers.
func compareIntWidth(width int) func(a, b []byte) bool {
	return func(a, b []byte) bool {
		return signedOf(a, width) < signedOf(b, width)
	}
}

func signedOf(b []byte, width int) int64 {
	switch width {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(binary.BigEndian.Uint16(b)))
	case 4:
		return int64(int32(binary.BigEndian.Uint32(b)))
	case 8:
		return int64(binary.BigEndian.Uint64(b))
	default:
		panic(fmt.Sprintf("datatype: unsupported integer width %d", width))
	}
}

// copyBytes copies src into dst, failing (returning ok=false) when dst is
// too small. This is the capability used for both CHAR's capacity check
// and every fixed-width integer's exact-width copy.
func copyBytes(dst, src []byte) (int, bool) {
	if len(dst) < len(src) {
		return 0, false
	}
	return copy(dst, src), true
}
