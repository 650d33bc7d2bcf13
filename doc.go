// Package slotdb is a small, embeddable paged storage engine: a
// persistent file partitioned into fixed-size pages holding
// variable-length records in a slotted layout, ordered by a key column,
// plus a catalog file describing each table's schema using the same
// page format.
//
// # Basic usage
//
//	schema, _ := slotdb.Initialize(".")
//	rel := slotdb.RelationDescriptor{
//	    Name:     "table",
//	    Path:     "table.dat",
//	    KeyIndex: 0,
//	    Fields: []slotdb.FieldDescriptor{
//	        {Name: "id", Length: 8, TypeName: "BIGINT"},
//	        {Name: "phone", Length: 20, TypeName: "CHAR"},
//	        {Name: "name", Length: -255, TypeName: "VARCHAR"},
//	    },
//	}
//	schema.Create(rel)
//
//	tbl, _ := slotdb.OpenTable(rel.Path, rel)
//	tbl.Insert(0x84, [][]byte{idBytes, phoneBytes, nameBytes})
//
// This package is single-threaded: it performs no internal locking,
// caching, or background work. Concurrency, transactions, write-ahead
// logging, and crash recovery are the caller's responsibility, or are out
// of scope entirely — see internal/storage/pager's package doc for the
// on-disk format this engine implements.
package slotdb
