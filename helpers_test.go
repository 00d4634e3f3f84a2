package wofftools

import (
	"testing"
)

// noiseTable returns n bytes of high entropy filler that zlib cannot
// shrink.
func noiseTable(n int) []byte {
	b := make([]byte, n)
	x := uint32(0x2545F491)
	for i := range b {
		x = x*1664525 + 1013904223
		b[i] = byte(x >> 24)
	}
	return b
}

// repeatTable returns n bytes of repetitive filler that zlib compresses
// well.
func repeatTable(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = "WOFF"[i%4]
	}
	return b
}

type testTable struct {
	tag  string
	data []byte
}

// buildSFNT assembles a conformant SFNT image from table payloads laid out
// in the given order.
func buildSFNT(t *testing.T, tables []testTable) []byte {
	t.Helper()
	numTables := uint16(len(tables))
	searchRange, entrySelector, rangeShift := getSearchRange(numTables)
	w := newBinaryWriter([]byte{})
	w.WriteString(FlavorTrueType)
	w.WriteUint16(numTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	offset := uint32(sfntHeaderSize) + sfntDirectoryEntrySize*uint32(numTables)
	for _, table := range tables {
		checksum, err := CalcTableChecksum(table.tag, table.data)
		if err != nil {
			t.Fatal(err)
		}
		w.WriteString(table.tag)
		w.WriteUint32(checksum)
		w.WriteUint32(offset)
		w.WriteUint32(uint32(len(table.data)))
		offset += pad4(uint32(len(table.data)))
	}
	for _, table := range tables {
		w.WriteBytes(table.data)
		for n := uint32(len(table.data)); n < pad4(uint32(len(table.data))); n++ {
			w.WriteByte(0)
		}
	}
	return w.Bytes()
}
