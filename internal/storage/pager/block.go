package pager

import (
	"fmt"
	"sort"
)

// Block common header field offsets (spec §3 "Block page"). A
// kind-specific 4-byte field immediately follows (table count for
// MetaBlock, row count for DataBlock); the record area begins at
// blockHeaderSize.
const (
	blkMagicOff     = 0
	blkSpaceIDOff   = 4
	blkBlockIDOff   = 8
	blkNextIDOff    = 12
	blkKindOff      = 16
	blkSlotCountOff = 18
	blkGarbageOff   = 20
	blkFreeOff      = 22
	blkCountOff     = 24 // table count (meta) / row count (data)

	blockHeaderSize = 28

	slotEntrySize = 2
)

// Block wraps a BlockSize-byte page buffer and provides accessors for its
// common header, its slotted record area, and the allocator/sort
// operations of spec §4.5/§4.6.
type Block struct {
	buf []byte
}

// WrapBlock views an existing BlockSize-byte buffer as a Block without
// modifying it.
func WrapBlock(buf []byte) (*Block, error) {
	if len(buf) != BlockSize {
		return nil, fmt.Errorf("block: %w: buffer is %d bytes, want %d", ErrMalformed, len(buf), BlockSize)
	}
	return &Block{buf: buf}, nil
}

// ClearBlock initializes buf (BlockSize bytes) as a fresh block of the
// given kind, space, and block id, with next-id set to TailMarker, empty
// slot directory, and free space starting right after the header. It
// returns a Block view over buf with a valid checksum already set.
func ClearBlock(buf []byte, kind PageKind, spaceID, blockID uint32) *Block {
	for i := range buf {
		buf[i] = 0
	}
	putUint32(buf[blkMagicOff:], pageMagic)
	putUint32(buf[blkSpaceIDOff:], spaceID)
	putUint32(buf[blkBlockIDOff:], blockID)
	putUint32(buf[blkNextIDOff:], TailMarker)
	putUint16(buf[blkKindOff:], uint16(kind))
	putUint16(buf[blkSlotCountOff:], 0)
	putUint16(buf[blkGarbageOff:], 0)
	putUint16(buf[blkFreeOff:], uint16(blockHeaderSize))
	putUint32(buf[blkCountOff:], 0)
	b := &Block{buf: buf}
	b.SetChecksum()
	return b
}

func (b *Block) Bytes() []byte { return b.buf }

func (b *Block) SpaceID() uint32    { return getUint32(b.buf[blkSpaceIDOff:]) }
func (b *Block) BlockID() uint32    { return getUint32(b.buf[blkBlockIDOff:]) }
func (b *Block) NextID() uint32     { return getUint32(b.buf[blkNextIDOff:]) }
func (b *Block) SetNextID(id uint32) { putUint32(b.buf[blkNextIDOff:], id) }
func (b *Block) Kind() PageKind     { return PageKind(getUint16(b.buf[blkKindOff:])) }
func (b *Block) SlotCount() int     { return int(getUint16(b.buf[blkSlotCountOff:])) }
func (b *Block) FreeSpaceOffset() int { return int(getUint16(b.buf[blkFreeOff:])) }

func (b *Block) setSlotCount(n int)       { putUint16(b.buf[blkSlotCountOff:], uint16(n)) }
func (b *Block) setFreeSpaceOffset(n int) { putUint16(b.buf[blkFreeOff:], uint16(n)) }

// TableCount / RowCount expose the kind-specific header field; callers
// are expected to use the one matching the block's Kind.
func (b *Block) TableCount() int        { return int(getUint32(b.buf[blkCountOff:])) }
func (b *Block) SetTableCount(n int)    { putUint32(b.buf[blkCountOff:], uint32(n)) }
func (b *Block) RowCount() int          { return int(getUint32(b.buf[blkCountOff:])) }
func (b *Block) SetRowCount(n int)      { putUint32(b.buf[blkCountOff:], uint32(n)) }

// Verify validates the block's magic and checksum, returning an error if
// either is wrong; a page failing this check must not be interpreted
// further (spec §7).
func (b *Block) Verify() error {
	if err := verifyPageChecksum(b.buf); err != nil {
		return fmt.Errorf("block: %w", err)
	}
	if magic := getUint32(b.buf[blkMagicOff:]); magic != pageMagic {
		return fmt.Errorf("block: %w: bad magic 0x%08x", ErrMalformed, magic)
	}
	return nil
}

// SetChecksum recomputes and stores the page's trailer checksum. Callers
// must call this after any mutation and before the page is written to
// disk (spec §4.5 step 6, §4.6).
func (b *Block) SetChecksum() { setPageChecksum(b.buf) }

// slotBase returns the first byte offset of the slot directory, which
// grows downward from the checksum trailer (spec §3).
func (b *Block) slotBase() int {
	return BlockSize - checksumSize - slotEntrySize*b.SlotCount()
}

// FreeSpaceLength returns the number of bytes available between the free
// pointer and the slot directory base (spec §4.5).
func (b *Block) FreeSpaceLength() int {
	base := b.slotBase()
	free := b.FreeSpaceOffset()
	if free >= base {
		return 0
	}
	return base - free
}

func (b *Block) slotOffset(i int) int {
	return BlockSize - checksumSize - slotEntrySize*(i+1)
}

// GetSlot returns the record-start byte offset stored at slot index i.
// Slot entries are read in native byte order (spec §6), the second,
// distinct exception to this format's otherwise-uniform big-endian
// encoding — see putNative16/getNative16 in bytecodec.go.
func (b *Block) GetSlot(i int) int {
	off := b.slotOffset(i)
	return int(getNative16(b.buf[off:]))
}

func (b *Block) setSlot(i, recordOffset int) {
	off := b.slotOffset(i)
	putNative16(b.buf[off:], uint16(recordOffset))
}

// RecordBytes returns the raw bytes of the record referenced by slot i,
// aliasing the block's buffer (no copy) — the record's own internal
// length prefix bounds how much of the remaining buffer belongs to it.
func (b *Block) RecordBytes(i int) ([]byte, error) {
	start := b.GetSlot(i)
	if start < blockHeaderSize || start >= b.slotBase() {
		return nil, fmt.Errorf("block: %w: slot %d offset %d out of range", ErrMalformed, i, start)
	}
	total64, _, err := getVarint(b.buf[start:])
	if err != nil {
		return nil, fmt.Errorf("block: slot %d: %w", i, err)
	}
	end := start + int(total64)
	if end > b.slotBase() {
		return nil, fmt.Errorf("block: %w: slot %d record overruns slot directory", ErrMalformed, i)
	}
	return b.buf[start:end], nil
}

// Allocate appends a new record to the page (spec §4.5 Block::allocate).
// It reports ok=false (not an error) when the record does not fit,
// signalling the caller to split. On success, the caller is responsible
// for re-sorting the slot directory and calling SetChecksum before the
// page is persisted.
func (b *Block) Allocate(fields [][]byte, header byte) (ok bool, err error) {
	total, _ := recordSize(fields)
	needed := align8(total) + slotEntrySize
	if needed > b.FreeSpaceLength() {
		return false, nil
	}

	free := b.FreeSpaceOffset()
	padded, err := setRecord(b.buf[free:], fields, header)
	if err != nil {
		return false, fmt.Errorf("block: allocate: %w", err)
	}

	slot := b.SlotCount()
	b.setSlot(slot, free)
	b.setSlotCount(slot + 1)
	b.setFreeSpaceOffset(free + padded)
	return true, nil
}

// DeleteSlot removes slot index i from the directory, shifting later
// slots down by one and decrementing the slot count. The record's
// payload bytes remain dead space; no coalescing happens here (spec
// §4.8.6).
func (b *Block) DeleteSlot(i int) error {
	n := b.SlotCount()
	if i < 0 || i >= n {
		return fmt.Errorf("block: %w: slot index %d out of range [0,%d)", ErrInvalidArgument, i, n)
	}
	for j := i; j < n-1; j++ {
		b.setSlot(j, b.GetSlot(j+1))
	}
	b.setSlotCount(n - 1)
	return nil
}

// SortSlots reorders the slot directory so that the records it
// references appear in non-decreasing key order per keyLess, the
// comparator produced from the relation's key column type (spec §4.6).
// It mirrors original_source/src/table.cc's insert-time
// Compare-functor-then-std::sort sequence.
func (b *Block) SortSlots(keyIndex int, keyLess func(a, b []byte) bool) error {
	n := b.SlotCount()
	slots := make([]int, n)
	keys := make([][]byte, n)
	for i := 0; i < n; i++ {
		slots[i] = b.GetSlot(i)
		rec, err := b.RecordBytes(i)
		if err != nil {
			return err
		}
		key, err := specialRef(rec, keyIndex)
		if err != nil {
			return fmt.Errorf("block: sort: %w", err)
		}
		keys[i] = key
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, c int) bool {
		return keyLess(keys[idx[a]], keys[idx[c]])
	})
	sorted := make([]int, n)
	for i, j := range idx {
		sorted[i] = slots[j]
	}
	for i, off := range sorted {
		b.setSlot(i, off)
	}
	return nil
}

// FirstKey returns the key field of the record in slot 0, used by the
// table engine's target-page selection rules (spec §4.8.4).
func (b *Block) FirstKey(keyIndex int) ([]byte, error) {
	if b.SlotCount() == 0 {
		return nil, ErrNotFound
	}
	rec, err := b.RecordBytes(0)
	if err != nil {
		return nil, err
	}
	return specialRef(rec, keyIndex)
}

// LastKey returns the key field of the record in the final slot.
func (b *Block) LastKey(keyIndex int) ([]byte, error) {
	n := b.SlotCount()
	if n == 0 {
		return nil, ErrNotFound
	}
	rec, err := b.RecordBytes(n - 1)
	if err != nil {
		return nil, err
	}
	return specialRef(rec, keyIndex)
}

// Front returns the record bytes of slot 0, the spec §9/§6 front(bit)
// iterator primitive.
func (b *Block) Front() ([]byte, error) {
	if b.SlotCount() == 0 {
		return nil, ErrNotFound
	}
	return b.RecordBytes(0)
}

// Back returns the record bytes of the final slot, the spec §9/§6
// back(bit) iterator primitive.
func (b *Block) Back() ([]byte, error) {
	n := b.SlotCount()
	if n == 0 {
		return nil, ErrNotFound
	}
	return b.RecordBytes(n - 1)
}
