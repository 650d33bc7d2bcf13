package pager

import (
	"bytes"
	"testing"
)

// TestRecordSizeVector reproduces spec §8 property 4 byte-for-byte.
func TestRecordSizeVector(t *testing.T) {
	fields := [][]byte{
		[]byte("table.db\x00"),
		{0, 0, 0, 1},
		[]byte("hello, worl\x00"),
		{0, 0, 0, 0, 0, 0, 0, 11},
	}
	total, headerOffset := recordSize(fields)
	if total != 39 {
		t.Fatalf("total = %d, want 39", total)
	}
	if headerOffset != 5 {
		t.Fatalf("headerOffset = %d, want 5", headerOffset)
	}

	buf := make([]byte, 64)
	padded, err := setRecord(buf, fields, 0x48)
	if err != nil {
		t.Fatalf("setRecord: %v", err)
	}
	if padded != 40 {
		t.Fatalf("padded = %d, want 40", padded)
	}
	want := []byte{39, 26, 14, 10, 1}
	if !bytes.Equal(buf[:5], want) {
		t.Fatalf("buf[:5] = %v, want %v", buf[:5], want)
	}
	if buf[5] != 0x48 {
		t.Fatalf("header byte = 0x%02x, want 0x48", buf[5])
	}
}

func TestRecordRoundTrip(t *testing.T) {
	fields := [][]byte{
		[]byte("abc"),
		{1, 2, 3, 4},
		[]byte("a longer variable payload here"),
	}
	buf := make([]byte, 256)
	if _, err := setRecord(buf, fields, 0x00); err != nil {
		t.Fatalf("setRecord: %v", err)
	}

	got, header, err := refRecord(buf)
	if err != nil {
		t.Fatalf("refRecord: %v", err)
	}
	if header != 0x00 {
		t.Fatalf("header = 0x%02x, want 0x00", header)
	}
	if len(got) != len(fields) {
		t.Fatalf("field count = %d, want %d", len(got), len(fields))
	}
	for i := range fields {
		if !bytes.Equal(got[i], fields[i]) {
			t.Fatalf("field %d = %v, want %v", i, got[i], fields[i])
		}
	}

	n, err := fieldsCount(buf)
	if err != nil {
		t.Fatalf("fieldsCount: %v", err)
	}
	if n != len(fields) {
		t.Fatalf("fieldsCount = %d, want %d", n, len(fields))
	}
}

func TestRecordTombstoneAndMinimumBits(t *testing.T) {
	buf := make([]byte, 64)
	if _, err := setRecord(buf, [][]byte{[]byte("x")}, tombstoneMask|minimumMask); err != nil {
		t.Fatalf("setRecord: %v", err)
	}
	_, header, err := refRecord(buf)
	if err != nil {
		t.Fatalf("refRecord: %v", err)
	}
	if header&tombstoneMask == 0 || header&minimumMask == 0 {
		t.Fatalf("header bits lost: got 0x%02x", header)
	}
}

func TestSetRecordCapacityError(t *testing.T) {
	buf := make([]byte, 4)
	if _, err := setRecord(buf, [][]byte{[]byte("too long for this buffer")}, 0); err == nil {
		t.Fatal("expected capacity error, got nil")
	}
}

func TestSpecialRef(t *testing.T) {
	fields := [][]byte{[]byte("key1"), []byte("value-field")}
	buf := make([]byte, 64)
	if _, err := setRecord(buf, fields, 0); err != nil {
		t.Fatalf("setRecord: %v", err)
	}
	key, err := specialRef(buf, 0)
	if err != nil {
		t.Fatalf("specialRef: %v", err)
	}
	if !bytes.Equal(key, []byte("key1")) {
		t.Fatalf("specialRef(0) = %q, want %q", key, "key1")
	}
}
