package slotdb

import (
	"path/filepath"

	"slotdb/internal/storage/pager"
)

// Re-exported types: the public surface over the internal pager package,
// the same narrowing the teacher repo's top-level tinysql.go performs
// over its internal/storage and internal/engine packages.
type (
	Schema             = pager.Schema
	Table              = pager.Table
	RelationDescriptor = pager.RelationDescriptor
	FieldDescriptor    = pager.FieldDescriptor
	Block              = pager.Block
	BlockIter          = pager.BlockIter
	RecordIter         = pager.RecordIter
)

// DefaultMetaFile is the catalog file name used when none is specified,
// matching spec §6 ("a meta file named by default meta.db").
const DefaultMetaFile = "meta.db"

// Initialize opens (creating if missing) the default meta file under
// dir, the db_initialize operation of spec §6.
func Initialize(dir string) (*Schema, error) {
	return pager.OpenSchema(filepath.Join(dir, DefaultMetaFile))
}

// OpenSchema opens or creates a meta file at an explicit path.
func OpenSchema(path string) (*Schema, error) {
	return pager.OpenSchema(path)
}

// OpenTable opens or creates a table's data file at path, bound to rel.
func OpenTable(path string, rel RelationDescriptor) (*Table, error) {
	return pager.OpenTable(path, rel)
}
