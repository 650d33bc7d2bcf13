package pager

import "fmt"

// headerSize is the width of a record's header byte (spec §3, "HEADER_SIZE
// (=1)"). It doubles as the terminator value written for field 0's offset,
// since field 0 always starts immediately after the header byte.
const headerSize = 1

// Record header bits.
const (
	tombstoneMask byte = 1 << 7
	minimumMask   byte = 1 << 6
)

// recordSize computes the total encoded length of a record holding
// fields, and the byte offset (from the record's first byte) of the
// header byte.
//
// Layout: [total length varint][offsets[n-1]..offsets[0] varints][header
// byte][payloads in field order]. offsets[i] is the position of field i's
// first byte measured from the header byte, so offsets[0] is always
// headerSize (1) and marks the decoder's stopping point.
//
// total depends on its own encoded width (a self-referential length
// prefix, the same shape original_source/src/record.cc's Record::size
// resolves by fixed point); the loop below converges in at most a couple
// of iterations since varintLen only changes at 128 and then at each
// power of 256.
func recordSize(fields [][]byte) (total int, headerOffset int) {
	n := len(fields)
	offsets := make([]int, n)
	sum := 0
	for i := 0; i < n; i++ {
		offsets[i] = headerSize + sum
		sum += len(fields[i])
	}

	offsetsBytes := 0
	for i := n - 1; i >= 0; i-- {
		offsetsBytes += varintLen(uint64(offsets[i]))
	}

	totalLenBytes := 1
	for i := 0; i < 4; i++ {
		ho := totalLenBytes + offsetsBytes
		t := ho + headerSize + sum
		nb := varintLen(uint64(t))
		if nb == totalLenBytes {
			return t, ho
		}
		totalLenBytes = nb
	}
	ho := totalLenBytes + offsetsBytes
	return ho + headerSize + sum, ho
}

// setRecord writes fields and header into buf (which must be at least
// recordSize's total bytes) and returns the 8-byte-aligned padded length,
// with trailing pad bytes zeroed. It fails with ErrCapacity if buf is too
// small.
func setRecord(buf []byte, fields [][]byte, header byte) (int, error) {
	total, headerOffset := recordSize(fields)
	if len(buf) < total {
		return 0, fmt.Errorf("record: %w: need %d bytes, have %d", ErrCapacity, total, len(buf))
	}

	pos := putVarint(buf, uint64(total))

	n := len(fields)
	sum := 0
	offsets := make([]int, n)
	for i := 0; i < n; i++ {
		offsets[i] = headerSize + sum
		sum += len(fields[i])
	}
	for i := n - 1; i >= 0; i-- {
		pos += putVarint(buf[pos:], uint64(offsets[i]))
	}
	if pos != headerOffset {
		return 0, fmt.Errorf("record: %w: offset array length mismatch", ErrMalformed)
	}

	buf[headerOffset] = header
	pos = headerOffset + headerSize
	for _, f := range fields {
		pos += copy(buf[pos:], f)
	}

	padded := align8(total)
	for i := total; i < padded; i++ {
		buf[i] = 0
	}
	return padded, nil
}

// decodedRecord holds the result of decoding a record's framing: its
// header byte and the start/end byte offsets (relative to the record's
// first byte) of each field's payload.
type decodedRecord struct {
	header  byte
	offsets []int // offsets[i] = start of field i, from record start
	end     int   // end of last field / total unpadded length
}

// decodeRecord parses the length prefix and reverse offset array out of
// buf, stopping at the terminator offset (headerSize). It does not copy
// payload bytes.
func decodeRecord(buf []byte) (decodedRecord, error) {
	total64, pos, err := getVarint(buf)
	if err != nil {
		return decodedRecord{}, fmt.Errorf("record: %w: length prefix: %v", ErrMalformed, err)
	}
	total := int(total64)
	if total < 0 || total > len(buf) {
		return decodedRecord{}, fmt.Errorf("record: %w: total length %d exceeds buffer", ErrMalformed, total)
	}

	var rev []int // offsets read in encoded (reverse field) order
	for {
		if pos >= total {
			return decodedRecord{}, fmt.Errorf("record: %w: offset array never terminated", ErrMalformed)
		}
		v, n, err := getVarint(buf[pos:])
		if err != nil {
			return decodedRecord{}, fmt.Errorf("record: %w: offset entry: %v", ErrMalformed, err)
		}
		pos += n
		rev = append(rev, int(v))
		if v == headerSize {
			break
		}
	}
	headerOffset := pos
	if headerOffset >= total {
		return decodedRecord{}, fmt.Errorf("record: %w: header offset %d exceeds total %d", ErrMalformed, headerOffset, total)
	}

	n := len(rev)
	offsets := make([]int, n)
	for i, v := range rev {
		offsets[n-1-i] = headerOffset + v
	}

	return decodedRecord{
		header:  buf[headerOffset],
		offsets: offsets,
		end:     total,
	}, nil
}

// fieldsCount returns the number of fields encoded in buf (walking the
// reverse offset array to its terminator), or an error on malformed
// input.
func fieldsCount(buf []byte) (int, error) {
	d, err := decodeRecord(buf)
	if err != nil {
		return 0, err
	}
	return len(d.offsets), nil
}

// refRecord decodes buf and returns field slices that alias buf directly
// (no copy), plus the header byte. This is the "ref" operation of spec
// §4.4; use getRecordInto when an owned copy is required.
func refRecord(buf []byte) ([][]byte, byte, error) {
	d, err := decodeRecord(buf)
	if err != nil {
		return nil, 0, err
	}
	fields := make([][]byte, len(d.offsets))
	for i, start := range d.offsets {
		end := d.end
		if i+1 < len(d.offsets) {
			end = d.offsets[i+1]
		}
		if start < 0 || end > len(buf) || end < start {
			return nil, 0, fmt.Errorf("record: %w: field %d bounds [%d,%d)", ErrMalformed, i, start, end)
		}
		fields[i] = buf[start:end]
	}
	return fields, d.header, nil
}

// getRecordInto decodes buf and copies each field's payload into the
// corresponding slice of into, failing with ErrCapacity if a destination
// is too small. It returns the header byte. len(into) must equal the
// record's field count.
func getRecordInto(buf []byte, into [][]byte) (byte, error) {
	fields, header, err := refRecord(buf)
	if err != nil {
		return 0, err
	}
	if len(fields) != len(into) {
		return 0, fmt.Errorf("record: %w: field count %d != %d", ErrInvalidArgument, len(fields), len(into))
	}
	for i, f := range fields {
		if len(into[i]) < len(f) {
			return 0, fmt.Errorf("record: %w: field %d capacity %d < %d", ErrCapacity, i, len(into[i]), len(f))
		}
		copy(into[i], f)
		into[i] = into[i][:len(f)]
	}
	return header, nil
}

// specialRef returns a reference to a single field's payload within buf,
// a convenience for key extraction (spec §4.4 special_ref).
func specialRef(buf []byte, fieldIndex int) ([]byte, error) {
	fields, _, err := refRecord(buf)
	if err != nil {
		return nil, err
	}
	if fieldIndex < 0 || fieldIndex >= len(fields) {
		return nil, fmt.Errorf("record: %w: field index %d out of range [0,%d)", ErrInvalidArgument, fieldIndex, len(fields))
	}
	return fields[fieldIndex], nil
}
