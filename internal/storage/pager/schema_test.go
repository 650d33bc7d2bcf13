package pager

import (
	"os"
	"path/filepath"
	"testing"
)

func testRelation(dataPath string) RelationDescriptor {
	return RelationDescriptor{
		Name: "table",
		Path: dataPath,
		Fields: []FieldDescriptor{
			{Name: "id", Length: 8, TypeName: "BIGINT"},
			{Name: "phone", Length: 20, TypeName: "CHAR"},
			{Name: "name", Length: -255, TypeName: "VARCHAR"},
		},
		KeyIndex: 0,
	}
}

// TestSchemaRoundTrip mirrors spec §8 scenario S5.
func TestSchemaRoundTrip(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "daxx.db")

	s, err := OpenSchema(metaPath)
	if err != nil {
		t.Fatalf("OpenSchema: %v", err)
	}
	rel := testRelation(filepath.Join(dir, "table.dat"))
	if err := s.Create(rel); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := OpenSchema(metaPath)
	if err != nil {
		t.Fatalf("reopen OpenSchema: %v", err)
	}
	got, ok := s2.Lookup("table")
	if !ok {
		t.Fatal("Lookup(table): not found after reopen")
	}
	if len(got.Fields) != 3 {
		t.Fatalf("field count = %d, want 3", len(got.Fields))
	}
	for i, want := range []struct {
		name string
		len  int64
		typ  string
	}{
		{"id", 8, "BIGINT"},
		{"phone", 20, "CHAR"},
		{"name", -255, "VARCHAR"},
	} {
		f := got.Fields[i]
		if f.Name != want.name || f.Length != want.len || f.TypeName != want.typ {
			t.Fatalf("field %d = %+v, want %+v", i, f, want)
		}
	}
}

func TestSchemaCreateDuplicateFails(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSchema(filepath.Join(dir, "meta.db"))
	if err != nil {
		t.Fatalf("OpenSchema: %v", err)
	}
	rel := testRelation(filepath.Join(dir, "table.dat"))
	if err := s.Create(rel); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(rel); err == nil {
		t.Fatal("expected AlreadyExists error on duplicate create")
	}
}

// TestSchemaDestroy mirrors spec §6's schema.destroy(): the meta file must
// no longer exist afterward, and the handle must be closed.
func TestSchemaDestroy(t *testing.T) {
	dir := t.TempDir()
	metaPath := filepath.Join(dir, "meta.db")
	s, err := OpenSchema(metaPath)
	if err != nil {
		t.Fatalf("OpenSchema: %v", err)
	}
	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := os.Stat(metaPath); !os.IsNotExist(err) {
		t.Fatalf("meta file still exists after Destroy: err=%v", err)
	}
}

// TestSchemaChainsSecondMetaBlock exercises the mandatory multi-page
// catalog chaining (spec §9 / SPEC_FULL §4): creating enough tables to
// overflow the first MetaBlock must grow the chain rather than fail.
func TestSchemaChainsSecondMetaBlock(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSchema(filepath.Join(dir, "meta.db"))
	if err != nil {
		t.Fatalf("OpenSchema: %v", err)
	}
	const n = 400
	for i := 0; i < n; i++ {
		rel := RelationDescriptor{
			Name:     tableName(i),
			Path:     filepath.Join(dir, tableName(i)+".dat"),
			KeyIndex: 0,
			Fields: []FieldDescriptor{
				{Name: "id", Length: 8, TypeName: "BIGINT"},
			},
		}
		if err := s.Create(rel); err != nil {
			t.Fatalf("Create(%d): %v", i, err)
		}
	}
	if s.root.BlockCount < 2 {
		t.Fatalf("BlockCount = %d, want >= 2 after %d tables", s.root.BlockCount, n)
	}
	for i := 0; i < n; i++ {
		if _, ok := s.Lookup(tableName(i)); !ok {
			t.Fatalf("Lookup(%s): not found", tableName(i))
		}
	}
}

func tableName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "t_" + string(letters[i%26]) + string(rune('0'+(i/26)%10)) + string(rune('0'+(i/260)%10))
}
