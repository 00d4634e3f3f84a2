package wofftools

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// ChecksumPolicy controls how the Reader verifies the stored checksum of
// each table it decompresses.
type ChecksumPolicy int

const (
	// ChecksumIgnore skips checksum verification.
	ChecksumIgnore ChecksumPolicy = iota
	// ChecksumWarn logs a warning for each mismatching table and continues.
	ChecksumWarn
	// ChecksumStrict fails the table fetch with a ChecksumError.
	ChecksumStrict
)

// Reader parses the header and table directory of a WOFF file and exposes
// table payloads by tag, decompressing on demand. Table fetches are
// idempotent and may happen in any order; a Reader is not safe for
// concurrent use.
type Reader struct {
	Flavor        string
	NumTables     uint16
	TotalSFNTSize uint32
	MajorVersion  uint16
	MinorVersion  uint16

	b              []byte
	header         woffHeader
	checkChecksums ChecksumPolicy
	tables         map[string]*DirectoryEntry
}

// NewReader parses the WOFF header and table directory of b. The checksum
// policy applies uniformly to every subsequent Table call.
func NewReader(b []byte, policy ChecksumPolicy) (*Reader, error) {
	woff := &Reader{
		b:              b,
		checkChecksums: policy,
		tables:         map[string]*DirectoryEntry{},
	}
	r := newBinaryReader(b)
	if err := woff.header.decode(r); err != nil {
		return nil, err
	}
	for i := 0; i < int(woff.header.numTables); i++ {
		entry := &DirectoryEntry{}
		if err := entry.decode(r); err != nil {
			return nil, err
		}
		woff.tables[entry.Tag] = entry
	}
	woff.Flavor = woff.header.flavor
	woff.NumTables = woff.header.numTables
	woff.TotalSFNTSize = woff.header.totalSFNTSize
	woff.MajorVersion = woff.header.majorVersion
	woff.MinorVersion = woff.header.minorVersion
	return woff, nil
}

// Has returns whether the file contains a table with the given tag.
func (woff *Reader) Has(tag string) bool {
	_, ok := woff.tables[tag]
	return ok
}

// Tags returns all table tags sorted ascending by their offset in the
// file. This reflects the physical layout, not the recommended table
// ordering of the SFNT specification.
func (woff *Reader) Tags() []string {
	tags := make([]string, 0, len(woff.tables))
	for tag := range woff.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		return woff.tables[tags[i]].Offset < woff.tables[tags[j]].Offset
	})
	return tags
}

// Entry returns the directory entry for a table.
func (woff *Reader) Entry(tag string) (DirectoryEntry, bool) {
	entry, ok := woff.tables[tag]
	if !ok {
		return DirectoryEntry{}, false
	}
	return *entry, true
}

func (woff *Reader) rawTable(entry *DirectoryEntry) ([]byte, error) {
	end := uint64(entry.Offset) + uint64(entry.CompLength)
	if end > uint64(len(woff.b)) {
		return nil, FormatError("table extends beyond file size")
	}
	return woff.b[entry.Offset:end:end], nil
}

// Table returns the decompressed payload of a table. Stored padding beyond
// the original length is stripped. Depending on the checksum policy, a
// checksum mismatch is ignored, logged, or returned as a ChecksumError;
// the Reader remains usable for other tables either way.
func (woff *Reader) Table(tag string) ([]byte, error) {
	entry, ok := woff.tables[tag]
	if !ok {
		return nil, FormatError("no '" + tag + "' table")
	}
	data, err := woff.rawTable(entry)
	if err != nil {
		return nil, err
	}
	if entry.CompLength < entry.OrigLength {
		if data, err = zlibDecompress(data); err != nil {
			return nil, err
		}
	} else {
		data = data[:entry.OrigLength]
	}
	if woff.checkChecksums != ChecksumIgnore {
		checksum, err := CalcTableChecksum(tag, data)
		if err != nil {
			return nil, err
		}
		if checksum != entry.OrigChecksum {
			if woff.checkChecksums == ChecksumStrict {
				return nil, ChecksumError{Tag: tag, Stored: entry.OrigChecksum, Calc: checksum}
			}
			logrus.Warnf("bad checksum for '%s' table", tag)
		}
	}
	return data, nil
}

// CompressedTable returns the stored, still compressed bytes of a table
// together with its directory metadata, so a table can be copied into a
// new file without a decompress and recompress round trip.
func (woff *Reader) CompressedTable(tag string) (data []byte, origLength, origChecksum, compLength uint32, err error) {
	entry, ok := woff.tables[tag]
	if !ok {
		return nil, 0, 0, 0, FormatError("no '" + tag + "' table")
	}
	if data, err = woff.rawTable(entry); err != nil {
		return nil, 0, 0, 0, err
	}
	return data, entry.OrigLength, entry.OrigChecksum, entry.CompLength, nil
}

// Metadata returns the decompressed XML metadata block, or nil if the file
// has none.
func (woff *Reader) Metadata() ([]byte, error) {
	if woff.header.metaLength == 0 {
		return nil, nil
	}
	data, _, _, err := woff.CompressedMetadata()
	if err != nil {
		return nil, err
	}
	if data, err = zlibDecompress(data); err != nil {
		return nil, err
	}
	if uint32(len(data)) != woff.header.metaOrigLength {
		return nil, FormatError("metadata length does not match metaOrigLength")
	}
	return data, nil
}

// CompressedMetadata returns the stored, still compressed metadata block
// and its lengths. The data is nil if the file has no metadata.
func (woff *Reader) CompressedMetadata() (data []byte, origLength, compLength uint32, err error) {
	if woff.header.metaLength == 0 {
		return nil, 0, 0, nil
	}
	end := uint64(woff.header.metaOffset) + uint64(woff.header.metaLength)
	if end > uint64(len(woff.b)) {
		return nil, 0, 0, FormatError("metadata extends beyond file size")
	}
	return woff.b[woff.header.metaOffset:end:end], woff.header.metaOrigLength, woff.header.metaLength, nil
}

// PrivateData returns the private data block, stored uncompressed, or nil
// if the file has none.
func (woff *Reader) PrivateData() ([]byte, error) {
	if woff.header.privLength == 0 {
		return nil, nil
	}
	end := uint64(woff.header.privOffset) + uint64(woff.header.privLength)
	if end > uint64(len(woff.b)) {
		return nil, FormatError("private data extends beyond file size")
	}
	return woff.b[woff.header.privOffset:end:end], nil
}
