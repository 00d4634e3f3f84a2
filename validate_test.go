package wofftools

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/tdewolff/test"
)

func TestValidateConformant(t *testing.T) {
	b := buildSFNT(t, []testTable{
		{"head", repeatTable(54)},
		{"cmap", noiseTable(120)},
		{"glyf", repeatTable(301)},
	})
	findings, err := CheckSFNTConformance(b)
	test.Error(t, err)
	test.T(t, len(findings), 0)
}

func TestValidateTooShort(t *testing.T) {
	_, err := CheckSFNTConformance([]byte("0123"))
	test.T(t, err.Error(), "data too short for SFNT header")

	b := buildSFNT(t, []testTable{{"cmap", repeatTable(16)}})
	_, err = CheckSFNTConformance(b[:sfntHeaderSize+8])
	test.T(t, err.Error(), "data too short for table directory")
}

func TestValidateOffsetValidity(t *testing.T) {
	b := buildSFNT(t, []testTable{
		{"cmap", repeatTable(16)},
		{"name", repeatTable(16)},
	})
	// point the cmap entry past the end of the buffer; checksum checks must
	// not be attempted against an out of bounds directory
	binary.BigEndian.PutUint32(b[sfntHeaderSize+8:], uint32(len(b))+100)
	findings, err := CheckSFNTConformance(b)
	test.Error(t, err)
	test.That(t, 0 < len(findings), "must report offset validity")
	for _, finding := range findings {
		test.That(t, strings.Contains(finding, "not valid"), "only validity findings, got:", finding)
	}
}

func TestValidateLengthValidity(t *testing.T) {
	b := buildSFNT(t, []testTable{{"cmap", repeatTable(16)}})
	// inflate the cmap length beyond the buffer
	binary.BigEndian.PutUint32(b[sfntHeaderSize+12:], uint32(len(b)))
	findings, err := CheckSFNTConformance(b)
	test.Error(t, err)
	test.T(t, len(findings), 1)
	test.T(t, findings[0], "The length of the cmap table is not valid.")
}

// buildGapSFNT lays out two tables with an explicit gap between them.
func buildGapSFNT(t *testing.T, length1, gap uint32) []byte {
	t.Helper()
	data1, data2 := repeatTable(int(length1)), repeatTable(4)
	offset1 := uint32(sfntHeaderSize) + 2*sfntDirectoryEntrySize
	offset2 := offset1 + length1 + gap

	w := newBinaryWriter([]byte{})
	searchRange, entrySelector, rangeShift := getSearchRange(2)
	w.WriteString(FlavorTrueType)
	w.WriteUint16(2)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)
	for _, table := range []struct {
		tag            string
		offset, length uint32
		data           []byte
	}{
		{"aaaa", offset1, length1, data1},
		{"bbbb", offset2, 4, data2},
	} {
		checksum, err := CalcTableChecksum(table.tag, table.data)
		test.Error(t, err)
		w.WriteString(table.tag)
		w.WriteUint32(checksum)
		w.WriteUint32(table.offset)
		w.WriteUint32(table.length)
	}
	w.WriteBytes(data1)
	for n := offset1 + length1; n < offset2; n++ {
		w.WriteByte(0)
	}
	w.WriteBytes(data2)
	return w.Bytes()
}

func TestValidateGaps(t *testing.T) {
	// a 5 byte gap is improper padding, a 3 byte gap is plain alignment
	findings, err := CheckSFNTConformance(buildGapSFNT(t, 3, 5))
	test.Error(t, err)
	test.T(t, len(findings), 1)
	test.T(t, findings[0], "Improper padding between the aaaa and bbbb tables.")

	findings, err = CheckSFNTConformance(buildGapSFNT(t, 1, 3))
	test.Error(t, err)
	test.T(t, len(findings), 0)
}

func TestValidateTrailingGap(t *testing.T) {
	b := buildSFNT(t, []testTable{{"cmap", repeatTable(16)}})
	b = append(b, 0, 0, 0, 0)
	findings, err := CheckSFNTConformance(b)
	test.Error(t, err)
	test.T(t, len(findings), 1)
	test.T(t, findings[0], "Improper padding at the end of the file.")
}

func TestValidateFinalTablePadding(t *testing.T) {
	b := buildSFNT(t, []testTable{{"cmap", repeatTable(16)}})
	b = append(b, 0)
	findings, err := CheckSFNTConformance(b)
	test.Error(t, err)
	test.T(t, len(findings), 1)
	test.T(t, findings[0], "The final table (cmap) is not properly padded.")
}

func TestValidateChecksums(t *testing.T) {
	b := buildSFNT(t, []testTable{
		{"cmap", repeatTable(16)},
		{"name", repeatTable(16)},
	})
	// corrupt the stored checksum of the name table
	binary.BigEndian.PutUint32(b[sfntHeaderSize+sfntDirectoryEntrySize+4:], 0xDEADBEEF)
	findings, err := CheckSFNTConformance(b)
	test.Error(t, err)
	test.T(t, len(findings), 1)
	test.T(t, findings[0], "Invalid checksum for the name table.")
}

func TestValidateHeadChecksumHole(t *testing.T) {
	// the stored head checksum ignores checkSumAdjustment, so writing any
	// adjustment value must not produce a finding
	head := repeatTable(54)
	b := buildSFNT(t, []testTable{{"head", head}})
	offset := uint32(sfntHeaderSize) + sfntDirectoryEntrySize
	binary.BigEndian.PutUint32(b[offset+8:], 0x12345678)
	findings, err := CheckSFNTConformance(b)
	test.Error(t, err)
	test.T(t, len(findings), 0)
}

func TestValidateWriterOutput(t *testing.T) {
	b := writeTestWOFF(t, []testTable{
		{"head", repeatTable(54)},
		{"cmap", noiseTable(120)},
		{"glyf", repeatTable(77)},
	}, nil, nil)
	sfntData, err := ToSFNT(b)
	test.Error(t, err)
	findings, err := CheckSFNTConformance(sfntData)
	test.Error(t, err)
	test.T(t, len(findings), 0)
}
