package pager

import "testing"

func TestFindDataTypeNames(t *testing.T) {
	for _, name := range []string{"CHAR", "VARCHAR", "TINYINT", "SMALLINT", "INT", "BIGINT"} {
		if _, ok := FindDataType(name); !ok {
			t.Fatalf("FindDataType(%q) not found", name)
		}
	}
	if _, ok := FindDataType("char"); ok {
		t.Fatal("lookup must be case-sensitive: lowercase must not match")
	}
	if _, ok := FindDataType("BOOLEAN"); ok {
		t.Fatal("BOOLEAN is not in the closed registry")
	}
}

// TestCompareCharFixesOverreadBug guards the spec §9(iv) REDESIGN FLAG: CHAR
// comparison must use min(la, lb), not max, so that differing-length
// operands never compare bytes past the shorter one's end.
func TestCompareCharFixesOverreadBug(t *testing.T) {
	dt, _ := FindDataType("CHAR")
	a := []byte("ab")
	b := []byte("ab\x00\x00extra-garbage")
	if dt.Compare(b, a) {
		t.Fatal("b should not be < a: shared prefix is equal, b is merely longer")
	}
	if !dt.Compare(a, b) {
		t.Fatal("a should be < b: shared prefix equal, a is the shorter operand")
	}
}

func TestCompareIntSigned(t *testing.T) {
	dt, _ := FindDataType("BIGINT")
	neg := make([]byte, 8)
	minusOne := int64(-1)
	putUint64(neg, uint64(minusOne))
	pos := make([]byte, 8)
	putUint64(pos, 1)
	if !dt.Compare(neg, pos) {
		t.Fatal("-1 should compare less than 1 as a signed BIGINT")
	}
	if dt.Compare(pos, neg) {
		t.Fatal("1 should not compare less than -1")
	}
}

func TestCopyBytesCapacity(t *testing.T) {
	dt, _ := FindDataType("CHAR")
	dst := make([]byte, 2)
	if _, ok := dt.Copy(dst, []byte("abc")); ok {
		t.Fatal("copy into a too-small destination must fail")
	}
	dst = make([]byte, 3)
	n, ok := dt.Copy(dst, []byte("abc"))
	if !ok || n != 3 {
		t.Fatalf("copy into exact-size destination: n=%d ok=%v", n, ok)
	}
}
