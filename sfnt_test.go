package wofftools

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/tdewolff/test"
)

func TestGetSearchRange(t *testing.T) {
	var tts = []struct {
		numTables     uint16
		searchRange   uint16
		entrySelector uint16
		rangeShift    uint16
	}{
		{0, 0, 0, 0},
		{1, 16, 0, 0},
		{2, 32, 1, 0},
		{3, 32, 1, 16},
		{4, 64, 2, 0},
		{13, 128, 3, 80},
		{16, 256, 4, 0},
	}
	for _, tt := range tts {
		t.Run(fmt.Sprintf("%d", tt.numTables), func(t *testing.T) {
			searchRange, entrySelector, rangeShift := getSearchRange(tt.numTables)
			test.T(t, searchRange, tt.searchRange)
			test.T(t, entrySelector, tt.entrySelector)
			test.T(t, rangeShift, tt.rangeShift)
		})
	}
}

func TestToSFNT(t *testing.T) {
	b := writeTestWOFF(t, []testTable{
		{"head", repeatTable(54)},
		{"cmap", noiseTable(120)},
	}, nil, nil)
	sfntData, err := ToSFNT(b)
	test.Error(t, err)

	r := newBinaryReader(sfntData)
	test.T(t, r.ReadString(4), FlavorTrueType)
	test.T(t, r.ReadUint16(), uint16(2))
	searchRange, entrySelector, rangeShift := getSearchRange(2)
	test.T(t, r.ReadUint16(), searchRange)
	test.T(t, r.ReadUint16(), entrySelector)
	test.T(t, r.ReadUint16(), rangeShift)

	// directory in tag order at sequential four byte aligned offsets
	test.T(t, r.ReadString(4), "cmap")
	_ = r.ReadUint32() // checksum
	test.T(t, r.ReadUint32(), uint32(12+2*16))
	test.T(t, r.ReadUint32(), uint32(120))
	test.T(t, r.ReadString(4), "head")
}

func TestToSFNTBadTotalSize(t *testing.T) {
	b := writeTestWOFF(t, []testTable{{"cmap", repeatTable(16)}}, nil, nil)
	b[18]++ // totalSFNTSize in the header
	_, err := ToSFNT(b)
	test.T(t, err.Error(), "totalSfntSize is incorrect")
}

func TestSFNTRoundTrip(t *testing.T) {
	tables := []testTable{
		{"head", repeatTable(54)},
		{"hhea", repeatTable(36)},
		{"cmap", noiseTable(200)},
	}
	sfntData := buildSFNT(t, tables)

	var buf bytes.Buffer
	test.Error(t, FromSFNT(sfntData, &buf))
	sfntData2, err := ToSFNT(buf.Bytes())
	test.Error(t, err)

	font, err := ReadSFNT(sfntData2)
	test.Error(t, err)
	for _, table := range tables {
		data, err := font.Table(table.tag)
		test.Error(t, err)
		if table.tag == "head" {
			// the checkSumAdjustment bytes are rewritten on save
			test.Bytes(t, data[:8], table.data[:8])
			test.Bytes(t, data[12:], table.data[12:])
		} else {
			test.Bytes(t, data, table.data)
		}
	}
}

func TestReadSFNTTruncated(t *testing.T) {
	_, err := ReadSFNT([]byte("OTTO"))
	test.T(t, err.Error(), "truncated SFNT header")

	b := buildSFNT(t, []testTable{{"cmap", repeatTable(16)}})
	_, err = ReadSFNT(b[:sfntHeaderSize+4])
	test.T(t, err.Error(), "truncated SFNT table directory")

	_, err = ReadSFNT(b[:len(b)-4])
	test.T(t, err.Error(), "table extends beyond file size")
}
