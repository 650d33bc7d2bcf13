package pager

import "time"

// Clock supplies wall-clock timestamps for root-page stamping. Root pages
// are stamped through the package variable SystemClock, which defaults to
// systemClock, the same time.Now() idiom used throughout the teacher
// repo; assigning another Clock to it replaces the time source.
type Clock interface {
	Now() uint64
}

type systemClock struct{}

// Now returns the current wall-clock time as Unix nanoseconds, serialized
// as a 64-bit big-endian value by the caller via putUint64 (spec §2
// Timestamp: "wall-clock capture, 64-bit big-endian serialization").
func (systemClock) Now() uint64 { return uint64(time.Now().UnixNano()) }

// SystemClock is the Clock that OpenSchema and OpenTable use to stamp
// newly written root pages.
var SystemClock Clock = systemClock{}
