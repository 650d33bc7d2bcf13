package pager

import "testing"

func TestVarintSmallValuesFitOneByte(t *testing.T) {
	for _, v := range []uint64{0, 1, 39, 10, 14, 26, 127} {
		buf := make([]byte, 9)
		n := putVarint(buf, v)
		if n != 1 {
			t.Fatalf("putVarint(%d): want 1 byte, got %d", v, n)
		}
		if buf[0] != byte(v) {
			t.Fatalf("putVarint(%d): want raw byte %d, got %d", v, v, buf[0])
		}
	}
}

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 39, 127, 128, 255, 256, 65535, 1 << 20, 1 << 40}
	for _, v := range cases {
		buf := make([]byte, 9)
		n := putVarint(buf, v)
		if n != varintLen(v) {
			t.Fatalf("varintLen(%d)=%d but putVarint wrote %d", v, varintLen(v), n)
		}
		got, consumed, err := getVarint(buf)
		if err != nil {
			t.Fatalf("getVarint(%d): %v", v, err)
		}
		if got != v || consumed != n {
			t.Fatalf("roundtrip %d: got value=%d consumed=%d", v, got, consumed)
		}
	}
}

func TestAlign8(t *testing.T) {
	cases := map[int]int{0: 0, 1: 8, 8: 8, 9: 16, 39: 40, 40: 40}
	for in, want := range cases {
		if got := align8(in); got != want {
			t.Fatalf("align8(%d) = %d, want %d", in, got, want)
		}
	}
}
