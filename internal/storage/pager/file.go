package pager

import (
	"fmt"
	"os"
)

// File is the random-access, positional byte-file capability spec §4.9
// requires: open/close/read/write/length/remove. All operations are
// synchronous and do not share a cursor with other callers, the same
// ReadAt/WriteAt discipline the teacher's pager.go uses against *os.File.
type File interface {
	ReadAt(p []byte, off int64) (int, error)
	WriteAt(p []byte, off int64) (int, error)
	Length() (int64, error)
	Close() error
}

// osFile is the default File implementation, backed by the standard
// library's *os.File.
type osFile struct {
	f    *os.File
	path string
}

// OpenFile opens path for random access, creating it if missing (spec
// §4.9: "Opening must create the file if missing").
func OpenFile(path string) (File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("file: open %s: %w", path, err)
	}
	return &osFile{f: f, path: path}, nil
}

func (o *osFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := o.f.ReadAt(p, off)
	if err != nil {
		return n, fmt.Errorf("file: read %s at %d: %w", o.path, off, err)
	}
	return n, nil
}

func (o *osFile) WriteAt(p []byte, off int64) (int, error) {
	n, err := o.f.WriteAt(p, off)
	if err != nil {
		return n, fmt.Errorf("file: write %s at %d: %w", o.path, off, err)
	}
	return n, nil
}

func (o *osFile) Length() (int64, error) {
	fi, err := o.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("file: stat %s: %w", o.path, err)
	}
	return fi.Size(), nil
}

func (o *osFile) Close() error {
	if err := o.f.Close(); err != nil {
		return fmt.Errorf("file: close %s: %w", o.path, err)
	}
	return nil
}

// RemoveFile deletes the file at path (spec §4.9 remove(path)).
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("file: remove %s: %w", path, err)
	}
	return nil
}
