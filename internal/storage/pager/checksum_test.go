package pager

import "testing"

func TestChecksumRoundTrip(t *testing.T) {
	buf := make([]byte, BlockSize)
	for i := range buf {
		buf[i] = byte(i * 7)
	}
	setPageChecksum(buf)
	if err := verifyPageChecksum(buf); err != nil {
		t.Fatalf("verifyPageChecksum: %v", err)
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	buf := make([]byte, BlockSize)
	setPageChecksum(buf)
	buf[100] ^= 0xFF
	if err := verifyPageChecksum(buf); err == nil {
		t.Fatal("expected checksum mismatch, got nil")
	}
}

func TestClearedBlockChecksumVerifies(t *testing.T) {
	buf := make([]byte, BlockSize)
	blk := ClearBlock(buf, KindData, 1, 1)
	if err := blk.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if blk.SlotCount() != 0 || blk.FreeSpaceOffset() != blockHeaderSize {
		t.Fatalf("unexpected cleared block state: slots=%d free=%d", blk.SlotCount(), blk.FreeSpaceOffset())
	}
}
