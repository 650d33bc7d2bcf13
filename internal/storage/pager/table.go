package pager

import "fmt"

// dataSpaceID is the space-id stamped on every block of a table's data
// file. Each table owns a dedicated file (spec §6: "two files per
// table"), so a single constant space identity is sufficient — nothing
// in this spec multiplexes several tables' rows into one file.
const dataSpaceID uint32 = 1

// Table binds to a relation descriptor and owns one page-sized scratch
// buffer: the single in-memory working set described by spec §4.8 and
// §5. Only one block's bytes are ever resident at a time; callers that
// need two keys at once (the chain-walk target rules of §4.8.4) must copy
// the bytes they need out of the buffer before it is reloaded.
type Table struct {
	file    File
	rel     RelationDescriptor
	keyType DataType
	scratch []byte
	root    *Root
}

// OpenTable opens or creates the data file at path for rel, initializing
// it per spec §4.8.1 if empty.
func OpenTable(path string, rel RelationDescriptor) (*Table, error) {
	if rel.KeyIndex < 0 || rel.KeyIndex >= len(rel.Fields) {
		return nil, fmt.Errorf("table: %w: key index %d out of range", ErrInvalidArgument, rel.KeyIndex)
	}
	dt, ok := FindDataType(rel.Fields[rel.KeyIndex].TypeName)
	if !ok {
		return nil, fmt.Errorf("table: %w: unknown key type %q", ErrInvalidArgument, rel.Fields[rel.KeyIndex].TypeName)
	}

	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	t := &Table{file: f, rel: rel, keyType: dt, scratch: make([]byte, BlockSize)}
	if err := t.initial(); err != nil {
		return nil, err
	}
	return t, nil
}

// initial implements spec §4.8.1: write a fresh root + first DataBlock
// when the file is empty, otherwise read the existing root and cache its
// block count.
func (t *Table) initial() error {
	length, err := t.file.Length()
	if err != nil {
		return err
	}
	if length == 0 {
		rootBuf := make([]byte, RootSize)
		ClearRoot(rootBuf, KindData, 1, 1, SystemClock.Now())
		if _, err := t.file.WriteAt(rootBuf, 0); err != nil {
			return err
		}
		root, err := ReadRoot(rootBuf)
		if err != nil {
			return err
		}
		t.root = root

		ClearBlock(t.scratch, KindData, dataSpaceID, 1)
		if _, err := t.file.WriteAt(t.scratch, blockOffset(1)); err != nil {
			return err
		}
		return nil
	}

	rootBuf := make([]byte, RootSize)
	if _, err := t.file.ReadAt(rootBuf, 0); err != nil {
		return fmt.Errorf("table: read root: %w", err)
	}
	root, err := ReadRoot(rootBuf)
	if err != nil {
		return fmt.Errorf("table: %w", err)
	}
	t.root = root
	return t.readBlock(root.Head)
}

func (t *Table) readBlock(id uint32) error {
	if _, err := t.file.ReadAt(t.scratch, blockOffset(id)); err != nil {
		return fmt.Errorf("table: read block %d: %w", id, err)
	}
	blk, err := WrapBlock(t.scratch)
	if err != nil {
		return err
	}
	if err := blk.Verify(); err != nil {
		return fmt.Errorf("table: block %d: %w", id, err)
	}
	return nil
}

func (t *Table) writeCurrentBlock(id uint32) error {
	if _, err := t.file.WriteAt(t.scratch, blockOffset(id)); err != nil {
		return fmt.Errorf("table: write block %d: %w", id, err)
	}
	return nil
}

func (t *Table) writeRoot() error {
	rootBuf := make([]byte, RootSize)
	WriteRoot(rootBuf, t.root)
	if _, err := t.file.WriteAt(rootBuf, 0); err != nil {
		return fmt.Errorf("table: write root: %w", err)
	}
	return nil
}

// Close closes the underlying data file.
func (t *Table) Close() error { return t.file.Close() }

// Destroy closes and removes the underlying data file (spec §6
// table.destroy(name), grounded on original_source/include/db/schema.h's
// destroy() counterpart for table files).
func (t *Table) Destroy() error {
	if err := t.file.Close(); err != nil {
		return err
	}
	return RemoveFile(t.rel.Path)
}

// BlockIter walks the table's page chain head to tail. Dereferencing
// (Next) reloads the table's single scratch buffer from disk, per the
// iterator lifecycle documented in spec §9: a BlockIter returned Block
// aliases the table's buffer and is invalidated by the next call to Next.
type BlockIter struct {
	t       *Table
	blockID uint32
}

// BlockIter returns an iterator positioned at the head of the chain
// (spec §4.8.2 block_begin).
func (t *Table) BlockIter() *BlockIter {
	return &BlockIter{t: t, blockID: t.root.Head}
}

// Next loads the next block in the chain, or reports ok=false once the
// chain is exhausted (block_end, the tail marker).
func (it *BlockIter) Next() (blk *Block, ok bool, err error) {
	if it.blockID == TailMarker {
		return nil, false, nil
	}
	if err := it.t.readBlock(it.blockID); err != nil {
		return nil, false, err
	}
	blk, err = WrapBlock(it.t.scratch)
	if err != nil {
		return nil, false, err
	}
	it.blockID = blk.NextID()
	return blk, true, nil
}

// RecordIter walks slot indices 0..slot_count-1 of a single loaded Block
// (spec §4.8.3). It holds no reference beyond the Block it was built
// from; advancing the Block's owning BlockIter invalidates it.
type RecordIter struct {
	blk      *Block
	slotI    int
	slotMax  int
}

// Begin returns a RecordIter over b's slots, with slot_max captured at
// construction from the block's current slot count.
func (b *Block) Begin() *RecordIter {
	return &RecordIter{blk: b, slotI: 0, slotMax: b.SlotCount() - 1}
}

func (r *RecordIter) Valid() bool { return r.slotI <= r.slotMax }

func (r *RecordIter) Record() ([]byte, error) { return r.blk.RecordBytes(r.slotI) }

func (r *RecordIter) SlotIndex() int { return r.slotI }

func (r *RecordIter) Next() { r.slotI++ }

// Insert places fields (with the caller-supplied header byte) into the
// correct page of the chain by key range, splitting and retrying once on
// overflow (spec §4.8.4).
func (t *Table) Insert(header byte, fields [][]byte) error {
	if t.rel.KeyIndex >= len(fields) {
		return fmt.Errorf("table: insert: %w: key index %d exceeds field count %d", ErrInvalidArgument, t.rel.KeyIndex, len(fields))
	}
	key := append([]byte(nil), fields[t.rel.KeyIndex]...)

	for attempt := 0; attempt < 2; attempt++ {
		targetID, err := t.locateInsertTarget(key)
		if err != nil {
			return err
		}
		if err := t.readBlock(targetID); err != nil {
			return err
		}
		blk, err := WrapBlock(t.scratch)
		if err != nil {
			return err
		}
		ok, err := blk.Allocate(fields, header)
		if err != nil {
			return err
		}
		if ok {
			blk.SetRowCount(blk.RowCount() + 1)
			if err := blk.SortSlots(t.rel.KeyIndex, t.keyType.Compare); err != nil {
				return err
			}
			blk.SetChecksum()
			return t.writeCurrentBlock(targetID)
		}
		if err := t.split(targetID); err != nil {
			return err
		}
	}
	return fmt.Errorf("table: insert: %w: still does not fit after split", ErrCapacity)
}

// locateInsertTarget implements the target-page rules of spec §4.8.4,
// walking adjacent page pairs (curr, next). Since the table has only one
// scratch buffer, curr's first key is copied out before next is loaded.
func (t *Table) locateInsertTarget(key []byte) (uint32, error) {
	currID := t.root.Head
	for {
		if err := t.readBlock(currID); err != nil {
			return 0, err
		}
		curr, err := WrapBlock(t.scratch)
		if err != nil {
			return 0, err
		}
		nextID := curr.NextID()
		if nextID == TailMarker {
			return currID, nil
		}
		if curr.SlotCount() == 0 {
			currID = nextID
			continue
		}

		isHead := currID == t.root.Head
		k1Raw, err := curr.FirstKey(t.rel.KeyIndex)
		if err != nil {
			return 0, err
		}
		k1 := append([]byte(nil), k1Raw...)

		if err := t.readBlock(nextID); err != nil {
			return 0, err
		}
		next, err := WrapBlock(t.scratch)
		if err != nil {
			return 0, err
		}

		if next.SlotCount() > 0 {
			k2, err := next.FirstKey(t.rel.KeyIndex)
			if err != nil {
				return 0, err
			}
			if t.keyType.Compare(key, k2) && t.keyType.Compare(k1, key) {
				return currID, nil
			}
		} else if t.keyType.Compare(k1, key) {
			return currID, nil
		}

		if isHead && t.keyType.Compare(key, k1) {
			return currID, nil
		}

		currID = nextID
	}
}

// split partitions the overfull page targetID into two pages, writing
// children before the parent's root-count bump (spec §4.8.5, §5
// Ordering guarantees).
func (t *Table) split(targetID uint32) error {
	if err := t.readBlock(targetID); err != nil {
		return err
	}
	orig, err := WrapBlock(append([]byte(nil), t.scratch...))
	if err != nil {
		return err
	}
	s := orig.SlotCount()
	spaceID := orig.SpaceID()
	origNext := orig.NextID()

	recs := make([][]byte, s)
	for i := 0; i < s; i++ {
		rb, err := orig.RecordBytes(i)
		if err != nil {
			return err
		}
		recs[i] = append([]byte(nil), rb...)
	}

	newID := t.root.BlockCount + 1
	half := s / 2

	p1buf := make([]byte, BlockSize)
	p1 := ClearBlock(p1buf, KindData, spaceID, targetID)
	p1.SetNextID(newID)
	if err := reinsertRecords(p1, recs[:half]); err != nil {
		return err
	}
	p1.SetRowCount(half)
	if err := p1.SortSlots(t.rel.KeyIndex, t.keyType.Compare); err != nil {
		return err
	}
	p1.SetChecksum()

	p2buf := make([]byte, BlockSize)
	p2 := ClearBlock(p2buf, KindData, spaceID, newID)
	p2.SetNextID(origNext)
	if err := reinsertRecords(p2, recs[half:]); err != nil {
		return err
	}
	p2.SetRowCount(s - half)
	if err := p2.SortSlots(t.rel.KeyIndex, t.keyType.Compare); err != nil {
		return err
	}
	p2.SetChecksum()

	// Children before parent: write both new/rewritten data pages first,
	// then bump and persist the root's block count.
	if _, err := t.file.WriteAt(p2buf, blockOffset(newID)); err != nil {
		return fmt.Errorf("table: split: write block %d: %w", newID, err)
	}
	if _, err := t.file.WriteAt(p1buf, blockOffset(targetID)); err != nil {
		return fmt.Errorf("table: split: write block %d: %w", targetID, err)
	}

	t.root.BlockCount = newID
	if err := t.writeRoot(); err != nil {
		return err
	}

	// Reload targetID into the scratch buffer so callers resuming after
	// split see consistent state.
	return t.readBlock(targetID)
}

func reinsertRecords(blk *Block, recs [][]byte) error {
	for _, rb := range recs {
		fields, header, err := refRecord(rb)
		if err != nil {
			return err
		}
		ok, err := blk.Allocate(fields, header)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("table: split: %w: half of an overfull page still does not fit", ErrCapacity)
		}
	}
	return nil
}

// Remove deletes the record whose key field equals key (spec §4.8.6).
func (t *Table) Remove(key []byte) error {
	targetID, err := t.locateRemoveTarget(key)
	if err != nil {
		return err
	}
	if err := t.readBlock(targetID); err != nil {
		return err
	}
	blk, err := WrapBlock(t.scratch)
	if err != nil {
		return err
	}

	found := -1
	n := blk.SlotCount()
	for i := 0; i < n; i++ {
		rb, err := blk.RecordBytes(i)
		if err != nil {
			return err
		}
		k, err := specialRef(rb, t.rel.KeyIndex)
		if err != nil {
			return err
		}
		if !t.keyType.Compare(k, key) && !t.keyType.Compare(key, k) {
			found = i
			break
		}
	}
	if found == -1 {
		return ErrNotFound
	}

	if err := blk.DeleteSlot(found); err != nil {
		return err
	}
	blk.SetRowCount(blk.RowCount() - 1)
	blk.SetChecksum()
	return t.writeCurrentBlock(targetID)
}

// locateRemoveTarget finds the page whose first key <= key <= last key by
// linear chain walk (spec §4.8.6 step 1).
func (t *Table) locateRemoveTarget(key []byte) (uint32, error) {
	id := t.root.Head
	for {
		if err := t.readBlock(id); err != nil {
			return 0, err
		}
		blk, err := WrapBlock(t.scratch)
		if err != nil {
			return 0, err
		}
		if blk.SlotCount() > 0 {
			first, err := blk.FirstKey(t.rel.KeyIndex)
			if err != nil {
				return 0, err
			}
			last, err := blk.LastKey(t.rel.KeyIndex)
			if err != nil {
				return 0, err
			}
			if !t.keyType.Compare(key, first) && !t.keyType.Compare(last, key) {
				return id, nil
			}
		}
		next := blk.NextID()
		if next == TailMarker {
			return id, nil
		}
		id = next
	}
}

// Update removes the row keyed by key and inserts the replacement,
// non-atomically (spec §4.8.7: "failure after remove leaves the row
// deleted").
func (t *Table) Update(key []byte, header byte, fields [][]byte) error {
	if err := t.Remove(key); err != nil {
		return err
	}
	return t.Insert(header, fields)
}
