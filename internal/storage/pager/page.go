// Package pager implements a paged, slotted-record storage engine: a
// persistent file partitioned into fixed-size pages ("blocks"), each
// holding variable-length records in a slotted layout ordered by a
// designated key column, plus a catalog ("meta") file storing relation
// descriptors using the same slotted-page representation.
//
// The package is single-threaded and performs no buffering beyond the one
// scratch page owned by each Table/Schema; concurrency, transactions, WAL,
// and crash recovery are out of scope.
package pager

import "fmt"

// Page geometry.
const (
	// RootSize is the size in bytes of the file prologue at offset 0.
	RootSize = 4096

	// BlockSize is the size in bytes of every page following the root.
	BlockSize = 16384
)

// pageMagic identifies both the root page and every block page belonging
// to this engine.
const pageMagic uint32 = 0x1ef0c6c1

// emptyChecksumMagic is the empty-page checksum constant referenced by
// spec §6 and §8 property 2. Nothing in the package compares against it: the
// trailer ClearBlock writes depends on the block's kind, space-id and
// block-id (0x20390fe3 for a data block with space 1, block 1), so it
// does not equal this constant.
const emptyChecksumMagic uint32 = 0xc70f393e

// PageKind distinguishes the logical role of a page.
type PageKind uint16

const (
	KindData  PageKind = 0
	KindIndex PageKind = 1
	KindMeta  PageKind = 2
	KindLog   PageKind = 3
)

// MetaSpaceID is the space-id recorded in every block belonging to the
// catalog's data file, as opposed to a specific table's space.
const MetaSpaceID uint32 = 0xFFFFFFFF

// TailMarker is the next-id value of the last block in a chain.
const TailMarker uint32 = 0xFFFFFFFF

// Root field offsets, big-endian unless noted (spec §3).
const (
	rootMagicOff       = 0
	rootKindOff        = 4
	rootTimestampOff   = 6
	rootHeadOff        = 14
	rootGarbageHeadOff = 18
	rootBlockCountOff  = 22
	// bytes [26, RootSize-4) are reserved and zero-filled.
	rootChecksumOff = RootSize - checksumSize
)

// Root is the 4096-byte file prologue: magic, page kind, a wall-clock
// timestamp, the head of the block chain, the head of the (reserved)
// garbage chain, and the total block count, trailered by a page
// checksum.
type Root struct {
	Kind        PageKind
	Timestamp   uint64
	Head        uint32
	GarbageHead uint32
	BlockCount  uint32
}

// ClearRoot initializes a fresh root page buffer (which must be exactly
// RootSize bytes) with magic, kind, and the given head/block-count, all
// other chain fields zero, and a valid checksum. This is the root half of
// the "first open writes a root and an empty first page" lifecycle rule
// (spec §3 Lifecycle).
func ClearRoot(buf []byte, kind PageKind, head, blockCount uint32, now uint64) {
	for i := range buf {
		buf[i] = 0
	}
	putUint32(buf[rootMagicOff:], pageMagic)
	putUint16(buf[rootKindOff:], uint16(kind))
	putUint64(buf[rootTimestampOff:], now)
	putUint32(buf[rootHeadOff:], head)
	putUint32(buf[rootGarbageHeadOff:], 0)
	putUint32(buf[rootBlockCountOff:], blockCount)
	setPageChecksum(buf)
}

// WriteRoot serializes r into buf (RootSize bytes) and recomputes its
// checksum.
func WriteRoot(buf []byte, r *Root) {
	for i := 26; i < RootSize-checksumSize; i++ {
		buf[i] = 0
	}
	putUint32(buf[rootMagicOff:], pageMagic)
	putUint16(buf[rootKindOff:], uint16(r.Kind))
	putUint64(buf[rootTimestampOff:], r.Timestamp)
	putUint32(buf[rootHeadOff:], r.Head)
	putUint32(buf[rootGarbageHeadOff:], r.GarbageHead)
	putUint32(buf[rootBlockCountOff:], r.BlockCount)
	setPageChecksum(buf)
}

// ReadRoot validates and decodes a RootSize-byte buffer into a Root.
func ReadRoot(buf []byte) (*Root, error) {
	if len(buf) != RootSize {
		return nil, fmt.Errorf("root: %w: buffer is %d bytes, want %d", ErrMalformed, len(buf), RootSize)
	}
	if err := verifyPageChecksum(buf); err != nil {
		return nil, fmt.Errorf("root: %w", err)
	}
	if magic := getUint32(buf[rootMagicOff:]); magic != pageMagic {
		return nil, fmt.Errorf("root: %w: bad magic 0x%08x", ErrMalformed, magic)
	}
	return &Root{
		Kind:        PageKind(getUint16(buf[rootKindOff:])),
		Timestamp:   getUint64(buf[rootTimestampOff:]),
		Head:        getUint32(buf[rootHeadOff:]),
		GarbageHead: getUint32(buf[rootGarbageHeadOff:]),
		BlockCount:  getUint32(buf[rootBlockCountOff:]),
	}, nil
}

// blockOffset returns the byte offset within the file of block-id b
// (1-based), per spec §4.8.8: ROOT_SIZE + (b-1)*BLOCK_SIZE.
func blockOffset(b uint32) int64 {
	return int64(RootSize) + int64(b-1)*int64(BlockSize)
}
