package wofftools

import (
	"fmt"
	"sort"
)

// sfntTable is a directory entry re-derived from a reconstructed SFNT
// image during conformance checking.
type sfntTable struct {
	tag      string
	checksum uint32
	offset   uint32
	length   uint32
}

// CheckSFNTConformance audits a reconstructed SFNT font image against the
// structural rules of the SFNT specification: offset and length validity,
// four byte alignment, inter table gaps, final padding, and table
// checksums. It parses the header and directory from the image itself and
// returns one human readable diagnostic per defect; an empty result means
// the image is conformant.
//
// An error is returned only when the buffer is too short to contain the
// header and table directory at all. Out of bounds offsets or lengths
// abort the remaining checks, since the directory can not be trusted to
// reference real data.
func CheckSFNTConformance(b []byte) ([]string, error) {
	if len(b) < sfntHeaderSize {
		return nil, FormatError("data too short for SFNT header")
	}
	r := newBinaryReader(b)
	_ = r.ReadString(4) // sfntVersion
	numTables := r.ReadUint16()
	_ = r.ReadUint16() // searchRange
	_ = r.ReadUint16() // entrySelector
	_ = r.ReadUint16() // rangeShift
	if r.Len() < sfntDirectoryEntrySize*uint32(numTables) {
		return nil, FormatError("data too short for table directory")
	}
	directory := make([]sfntTable, 0, numTables)
	for i := 0; i < int(numTables); i++ {
		directory = append(directory, sfntTable{
			tag:      r.ReadString(4),
			checksum: r.ReadUint32(),
			offset:   r.ReadUint32(),
			length:   r.ReadUint32(),
		})
	}

	dataLength := uint32(len(b))
	errors := []string{}
	errors = append(errors, testOffsetValidity(dataLength, directory)...)
	errors = append(errors, testLengthValidity(dataLength, directory)...)
	// a directory referencing data outside the buffer is beyond repair;
	// none of the remaining checks can be trusted
	if 0 < len(errors) || numTables == 0 {
		return errors, nil
	}

	byOffset := make([]sfntTable, len(directory))
	copy(byOffset, directory)
	sort.Slice(byOffset, func(i, j int) bool { return byOffset[i].offset < byOffset[j].offset })

	errors = append(errors, testPadding(byOffset)...)
	errors = append(errors, testFinalTablePadding(dataLength, numTables, byOffset[len(byOffset)-1].tag)...)
	errors = append(errors, testGaps(byOffset)...)
	errors = append(errors, testGapAfterFinalTable(dataLength, byOffset)...)
	errors = append(errors, testChecksums(b, directory)...)
	return errors, nil
}

// testOffsetValidity checks that every table offset lies between the end
// of the header plus directory and the end of the data.
func testOffsetValidity(dataLength uint32, directory []sfntTable) []string {
	errors := []string{}
	minOffset := uint32(sfntHeaderSize) + sfntDirectoryEntrySize*uint32(len(directory))
	for _, entry := range directory {
		if entry.offset < minOffset || dataLength < entry.offset {
			errors = append(errors, fmt.Sprintf("The offset to the %s table is not valid.", entry.tag))
		}
	}
	return errors
}

// testLengthValidity checks that no table extends past the end of the data.
func testLengthValidity(dataLength uint32, directory []sfntTable) []string {
	errors := []string{}
	for _, entry := range directory {
		if uint64(dataLength) < uint64(entry.offset)+uint64(entry.length) {
			errors = append(errors, fmt.Sprintf("The length of the %s table is not valid.", entry.tag))
		}
	}
	return errors
}

// testPadding checks that every table begins on a four byte boundary. A
// misaligned start is blamed on the table before it in offset order, which
// failed to pad itself; a misaligned first table is blamed on the
// directory.
func testPadding(byOffset []sfntTable) []string {
	errors := []string{}
	prevTag := ""
	for _, entry := range byOffset {
		if entry.offset%4 != 0 {
			if prevTag == "" {
				errors = append(errors, fmt.Sprintf("The first table (%s) is not properly padded.", entry.tag))
			} else {
				errors = append(errors, fmt.Sprintf("The %s table is not properly padded.", prevTag))
			}
		}
		prevTag = entry.tag
	}
	return errors
}

// testFinalTablePadding checks that the table data block as a whole is a
// multiple of four bytes long, blaming the last table by offset.
func testFinalTablePadding(dataLength uint32, numTables uint16, finalTag string) []string {
	errors := []string{}
	if (dataLength-(uint32(sfntHeaderSize)+sfntDirectoryEntrySize*uint32(numTables)))%4 != 0 {
		errors = append(errors, fmt.Sprintf("The final table (%s) is not properly padded.", finalTag))
	}
	return errors
}

// testGaps checks that consecutive tables in offset order are separated by
// at most three bytes of alignment padding.
func testGaps(byOffset []sfntTable) []string {
	errors := []string{}
	for i := 1; i < len(byOffset); i++ {
		prev, entry := byOffset[i-1], byOffset[i]
		if 3 < int64(entry.offset)-int64(prev.offset+prev.length) {
			errors = append(errors, fmt.Sprintf("Improper padding between the %s and %s tables.", prev.tag, entry.tag))
		}
	}
	return errors
}

// testGapAfterFinalTable checks that at most three bytes follow the last
// table by offset.
func testGapAfterFinalTable(dataLength uint32, byOffset []sfntTable) []string {
	errors := []string{}
	last := byOffset[len(byOffset)-1]
	if 3 < dataLength-(last.offset+last.length) {
		errors = append(errors, "Improper padding at the end of the file.")
	}
	return errors
}

// testChecksums recomputes every table checksum over the actual bytes and
// compares it to the stored value.
func testChecksums(b []byte, directory []sfntTable) []string {
	errors := []string{}
	for _, entry := range directory {
		data := b[entry.offset : entry.offset+entry.length]
		checksum, err := CalcTableChecksum(entry.tag, data)
		if err != nil || checksum != entry.checksum {
			errors = append(errors, fmt.Sprintf("Invalid checksum for the %s table.", entry.tag))
		}
	}
	return errors
}
