package pager

import "fmt"

// FieldDescriptor describes one column of a relation: its name, declared
// byte index, declared length (negative means a variable-length maximum,
// as for VARCHAR), and its data type name (spec §3 Relation descriptor).
type FieldDescriptor struct {
	Name     string
	Index    uint64
	Length   int64
	TypeName string
}

// RelationDescriptor is a table's metadata as stored in the catalog: its
// name, backing data-file path, declared fields, key column index, a
// relation type tag, declared row size, and a stored row count. The table
// engine does not update RowCount; it keeps per-page row counts in each
// DataBlock header instead.
type RelationDescriptor struct {
	Name     string
	Path     string
	TypeTag  uint16
	KeyIndex int
	Size     uint64
	RowCount uint64
	Fields   []FieldDescriptor
}

// encodeRelation builds the field byte-chunks of a relation descriptor's
// on-disk record, in the exact order derived from
// original_source/src/schema.cc's initIov: name, path, field count, type
// tag, key index, size, row count, then per field: name, index, length,
// type name.
func encodeRelation(rel RelationDescriptor) [][]byte {
	fields := make([][]byte, 0, 7+4*len(rel.Fields))
	fields = append(fields,
		[]byte(rel.Name+"\x00"),
		[]byte(rel.Path+"\x00"),
		beUint16(uint16(len(rel.Fields))),
		beUint16(rel.TypeTag),
		beUint32(uint32(rel.KeyIndex)),
		beUint64(rel.Size),
		beUint64(rel.RowCount),
	)
	for _, f := range rel.Fields {
		fields = append(fields,
			[]byte(f.Name+"\x00"),
			beUint64(f.Index),
			beInt64(f.Length),
			[]byte(f.TypeName+"\x00"),
		)
	}
	return fields
}

// decodeRelation parses a record's field slices (as produced by refRecord)
// back into a RelationDescriptor.
func decodeRelation(fields [][]byte) (RelationDescriptor, error) {
	if len(fields) < 7 {
		return RelationDescriptor{}, fmt.Errorf("schema: %w: relation record too short", ErrMalformed)
	}
	rel := RelationDescriptor{
		Name:     cString(fields[0]),
		Path:     cString(fields[1]),
		KeyIndex: int(getUint32(fields[4])),
		Size:     getUint64(fields[5]),
		RowCount: getUint64(fields[6]),
	}
	rel.TypeTag = getUint16(fields[3])
	fieldCount := int(getUint16(fields[2]))

	want := 7 + 4*fieldCount
	if len(fields) != want {
		return RelationDescriptor{}, fmt.Errorf("schema: %w: field count %d implies %d record fields, got %d", ErrMalformed, fieldCount, want, len(fields))
	}
	rel.Fields = make([]FieldDescriptor, fieldCount)
	for i := 0; i < fieldCount; i++ {
		base := 7 + 4*i
		rel.Fields[i] = FieldDescriptor{
			Name:     cString(fields[base]),
			Index:    getUint64(fields[base+1]),
			Length:   int64(getUint64(fields[base+2])),
			TypeName: cString(fields[base+3]),
		}
	}
	return rel, nil
}

func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

func beUint16(v uint16) []byte { b := make([]byte, 2); putUint16(b, v); return b }
func beUint32(v uint32) []byte { b := make([]byte, 4); putUint32(b, v); return b }
func beUint64(v uint64) []byte { b := make([]byte, 8); putUint64(b, v); return b }
func beInt64(v int64) []byte   { b := make([]byte, 8); putUint64(b, uint64(v)); return b }

// metaSpaceID identifies every block belonging to the catalog's own file,
// as distinct from any table's data space.
const metaSpaceID = MetaSpaceID

// Schema maintains an in-memory name -> RelationDescriptor map loaded
// from a meta file, and persists new relations as slotted records across
// a chain of MetaBlocks (spec §4.7). Unlike the original C++
// implementation, which leaves a second meta page as a `// TODO:`, this
// chain grows by appending a new MetaBlock when the current tail is full
// (spec §9 Multi-page catalog, SPEC_FULL.md §4).
type Schema struct {
	file      File
	path      string
	root      *Root
	relations map[string]RelationDescriptor
	scratch   []byte
}

// OpenSchema opens or creates the meta file at path. A fresh file gets a
// meta-kind root and one empty MetaBlock; an existing file is read in
// full, chain-walked, and its relations loaded into memory.
func OpenSchema(path string) (*Schema, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	s := &Schema{file: f, path: path, relations: make(map[string]RelationDescriptor), scratch: make([]byte, BlockSize)}

	length, err := f.Length()
	if err != nil {
		return nil, err
	}
	if length == 0 {
		if err := s.createFresh(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Schema) createFresh() error {
	rootBuf := make([]byte, RootSize)
	ClearRoot(rootBuf, KindMeta, 1, 1, SystemClock.Now())
	if _, err := s.file.WriteAt(rootBuf, 0); err != nil {
		return err
	}
	root, err := ReadRoot(rootBuf)
	if err != nil {
		return err
	}
	s.root = root

	ClearBlock(s.scratch, KindMeta, metaSpaceID, 1)
	if _, err := s.file.WriteAt(s.scratch, blockOffset(1)); err != nil {
		return err
	}
	return nil
}

func (s *Schema) load() error {
	rootBuf := make([]byte, RootSize)
	if _, err := s.file.ReadAt(rootBuf, 0); err != nil {
		return fmt.Errorf("schema: read root: %w", err)
	}
	root, err := ReadRoot(rootBuf)
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	s.root = root

	id := root.Head
	for id != TailMarker {
		if _, err := s.file.ReadAt(s.scratch, blockOffset(id)); err != nil {
			return fmt.Errorf("schema: read block %d: %w", id, err)
		}
		blk, err := WrapBlock(s.scratch)
		if err != nil {
			return err
		}
		if err := blk.Verify(); err != nil {
			return fmt.Errorf("schema: block %d: %w", id, err)
		}
		n := blk.SlotCount()
		for i := 0; i < n; i++ {
			rb, err := blk.RecordBytes(i)
			if err != nil {
				return err
			}
			fields, _, err := refRecord(rb)
			if err != nil {
				return err
			}
			rel, err := decodeRelation(fields)
			if err != nil {
				return err
			}
			s.relations[rel.Name] = rel
		}
		id = blk.NextID()
	}
	return nil
}

// Lookup returns the named relation descriptor and whether it was found.
func (s *Schema) Lookup(name string) (RelationDescriptor, bool) {
	rel, ok := s.relations[name]
	return rel, ok
}

// Create adds a new relation. It fails with ErrAlreadyExists if name is
// already present (spec §4.7 create).
func (s *Schema) Create(rel RelationDescriptor) error {
	if _, exists := s.relations[rel.Name]; exists {
		return fmt.Errorf("schema: create %q: %w", rel.Name, ErrAlreadyExists)
	}

	fields := encodeRelation(rel)
	header := byte(0)

	id := s.root.Head
	for {
		if _, err := s.file.ReadAt(s.scratch, blockOffset(id)); err != nil {
			return fmt.Errorf("schema: read block %d: %w", id, err)
		}
		blk, err := WrapBlock(s.scratch)
		if err != nil {
			return err
		}
		ok, err := blk.Allocate(fields, header)
		if err != nil {
			return fmt.Errorf("schema: allocate: %w", err)
		}
		if ok {
			blk.SetTableCount(blk.TableCount() + 1)
			blk.SetChecksum()
			if _, err := s.file.WriteAt(s.scratch, blockOffset(id)); err != nil {
				return fmt.Errorf("schema: write block %d: %w", id, err)
			}
			break
		}

		next := blk.NextID()
		if next != TailMarker {
			id = next
			continue
		}

		// Tail page is full: chain a new MetaBlock (spec §9 mandatory
		// multi-page catalog).
		newID := s.root.BlockCount + 1
		blk.SetNextID(newID)
		blk.SetChecksum()
		if _, err := s.file.WriteAt(s.scratch, blockOffset(id)); err != nil {
			return fmt.Errorf("schema: write block %d: %w", id, err)
		}

		newBuf := make([]byte, BlockSize)
		ClearBlock(newBuf, KindMeta, metaSpaceID, newID)
		if _, err := s.file.WriteAt(newBuf, blockOffset(newID)); err != nil {
			return fmt.Errorf("schema: write block %d: %w", newID, err)
		}

		s.root.BlockCount = newID
		rootBuf := make([]byte, RootSize)
		WriteRoot(rootBuf, s.root)
		if _, err := s.file.WriteAt(rootBuf, 0); err != nil {
			return fmt.Errorf("schema: write root: %w", err)
		}

		id = newID
	}

	s.relations[rel.Name] = rel
	return nil
}

// Close closes the underlying meta file.
func (s *Schema) Close() error { return s.file.Close() }

// Destroy closes and removes the underlying meta file (spec §6
// schema.destroy(), grounded on original_source/include/db/schema.h's
// Schema::destroy()).
func (s *Schema) Destroy() error {
	if err := s.file.Close(); err != nil {
		return err
	}
	return RemoveFile(s.path)
}
