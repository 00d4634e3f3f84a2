package wofftools

import (
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
)

// Writer assembles a WOFF file from a set of tagged table payloads plus
// optional metadata and private data blocks. Exactly numTables tables must
// be set, in any order, before Close. The file is built in memory and
// written out once on Close.
//
// The exported fields may be changed before the first SetTable call.
type Writer struct {
	// Flavor is the sfnt version tag of the wrapped font.
	Flavor       string
	MajorVersion uint16
	MinorVersion uint16
	// CompressionLevel is the zlib level used for tables and metadata.
	CompressionLevel int
	// RecalcHeadChecksum recalculates the head table checkSumAdjustment on
	// Close by reconstructing a virtual SFNT directory. It must be disabled
	// when the adjustment has been finalized upstream, such as for a font
	// carrying a DSIG signature.
	RecalcHeadChecksum bool

	w           io.Writer
	numTables   int
	tables      map[string]*pendingTable
	metadata    []byte
	metaLength  uint32
	metaOrig    uint32
	privateData []byte
	closed      bool
}

// pendingTable holds a table between SetTable and Close. A deferred table
// (the head table under RecalcHeadChecksum) is kept uncompressed until the
// checksum adjustment has been written into it.
type pendingTable struct {
	index    int
	entry    DirectoryEntry
	data     []byte
	deferred bool
}

// NewWriter returns a Writer that emits a WOFF wrapping numTables tables
// to w on Close.
func NewWriter(w io.Writer, numTables int) *Writer {
	return &Writer{
		Flavor:             FlavorTrueType,
		CompressionLevel:   zlib.BestCompression,
		RecalcHeadChecksum: true,
		w:                  w,
		numTables:          numTables,
		tables:             map[string]*pendingTable{},
	}
}

// SetTable adds the decompressed payload of a table. The data is
// compressed immediately, unless compression does not shrink it, in which
// case it is stored verbatim with compLength equal to origLength. The head
// table is held uncompressed when RecalcHeadChecksum is enabled, since its
// bytes change again on Close.
func (w *Writer) SetTable(tag string, data []byte) error {
	if w.RecalcHeadChecksum && tag == "head" {
		return w.setDeferred(tag, data)
	}
	pending, err := w.prepTable(tag, data)
	if err != nil {
		return err
	}
	w.store(tag, pending)
	return nil
}

// SetRawTable adds a table that is already in its stored form, typically
// obtained from Reader.CompressedTable, avoiding a decompress and
// recompress round trip. The head table is decompressed and deferred when
// RecalcHeadChecksum is enabled.
func (w *Writer) SetRawTable(tag string, data []byte, origLength, origChecksum, compLength uint32) error {
	if w.RecalcHeadChecksum && tag == "head" {
		if compLength < origLength {
			var err error
			if data, err = zlibDecompress(data); err != nil {
				return err
			}
		}
		return w.setDeferred(tag, data)
	}
	w.store(tag, &pendingTable{
		entry: DirectoryEntry{Tag: tag, CompLength: compLength, OrigLength: origLength, OrigChecksum: origChecksum},
		data:  data,
	})
	return nil
}

// SetMetadata compresses and stores the XML metadata block. Empty data is
// treated as absent.
func (w *Writer) SetMetadata(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	logrus.Debugf("compressing metadata")
	compData, err := zlibCompress(data, w.CompressionLevel)
	if err != nil {
		return err
	}
	w.metadata = compData
	w.metaOrig = uint32(len(data))
	w.metaLength = uint32(len(compData))
	return nil
}

// SetRawMetadata stores an already compressed metadata block with its
// recorded lengths.
func (w *Writer) SetRawMetadata(data []byte, origLength, compLength uint32) {
	if len(data) == 0 {
		return
	}
	w.metadata = data
	w.metaOrig = origLength
	w.metaLength = compLength
}

// SetPrivateData stores the private data block verbatim. Empty data is
// treated as absent.
func (w *Writer) SetPrivateData(data []byte) {
	if len(data) == 0 {
		return
	}
	w.privateData = data
}

// Close finalizes the head checksum adjustment, lays out all blocks on
// four byte boundaries, and writes the complete file. The number of tables
// set must equal the count declared to NewWriter.
func (w *Writer) Close() error {
	if w.closed {
		return IntegrityError("writer already closed")
	}
	if len(w.tables) != w.numTables {
		return IntegrityError(fmt.Sprintf("wrong number of tables; expected %d, found %d", w.numTables, len(w.tables)))
	}
	if w.RecalcHeadChecksum {
		if _, ok := w.tables["head"]; ok {
			if err := w.handleHeadChecksum(); err != nil {
				return err
			}
		}
	}
	// a deferred table left behind by toggling RecalcHeadChecksum mid
	// session is compressed as is
	for tag, t := range w.tables {
		if t.deferred {
			pending, err := w.prepTable(tag, t.data)
			if err != nil {
				return err
			}
			pending.index = t.index
			w.tables[tag] = pending
		}
	}

	// lay out tables in the order they were set
	order := w.tableOrder()
	offset := uint32(woffHeaderSize + woffDirectoryEntrySize*w.numTables)
	totalSFNTSize := uint32(sfntHeaderSize + sfntDirectoryEntrySize*w.numTables)
	for _, tag := range order {
		t := w.tables[tag]
		t.entry.Offset = offset
		offset += pad4(t.entry.CompLength)
		totalSFNTSize += pad4(t.entry.OrigLength)
	}

	header := woffHeader{
		flavor:        w.Flavor,
		numTables:     uint16(w.numTables),
		totalSFNTSize: totalSFNTSize,
		majorVersion:  w.MajorVersion,
		minorVersion:  w.MinorVersion,
	}
	length := offset // end of the table data block
	if w.metadata != nil {
		header.metaOffset = length
		header.metaLength = w.metaLength
		header.metaOrigLength = w.metaOrig
		length += w.metaLength
		if w.privateData != nil {
			// private data must start on a four byte boundary
			length += pad4(w.metaLength) - w.metaLength
		}
	}
	if w.privateData != nil {
		header.privOffset = length
		header.privLength = uint32(len(w.privateData))
		length += header.privLength
	}
	header.length = length

	buf := newBinaryWriter(make([]byte, 0, length))
	header.encode(buf)
	// directory entries sorted by tag for deterministic output
	dirTags := make([]string, 0, len(w.tables))
	for tag := range w.tables {
		dirTags = append(dirTags, tag)
	}
	sort.Strings(dirTags)
	for _, tag := range dirTags {
		w.tables[tag].entry.encode(buf)
	}
	for _, tag := range order {
		logrus.Debugf("writing '%s' table", tag)
		t := w.tables[tag]
		buf.WriteBytes(t.data)
		for n := t.entry.CompLength; n < pad4(t.entry.CompLength); n++ {
			buf.WriteByte(0)
		}
	}
	if w.metadata != nil {
		buf.WriteBytes(w.metadata)
		if w.privateData != nil {
			for n := w.metaLength; n < pad4(w.metaLength); n++ {
				buf.WriteByte(0)
			}
		}
	}
	if w.privateData != nil {
		buf.WriteBytes(w.privateData)
	}

	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return err
	}
	w.closed = true
	return nil
}

func (w *Writer) store(tag string, pending *pendingTable) {
	pending.index = len(w.tables)
	if old, ok := w.tables[tag]; ok {
		pending.index = old.index
	}
	w.tables[tag] = pending
}

func (w *Writer) setDeferred(tag string, data []byte) error {
	checksum, err := CalcTableChecksum(tag, data)
	if err != nil {
		return err
	}
	w.store(tag, &pendingTable{
		entry:    DirectoryEntry{Tag: tag, OrigLength: uint32(len(data)), OrigChecksum: checksum},
		data:     append([]byte(nil), data...),
		deferred: true,
	})
	return nil
}

// prepTable computes the original length and checksum of a table and
// compresses it, keeping the uncompressed form when compression expands
// the data.
func (w *Writer) prepTable(tag string, data []byte) (*pendingTable, error) {
	origLength := uint32(len(data))
	checksum, err := CalcTableChecksum(tag, data)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("compressing '%s' table", tag)
	compData, err := zlibCompress(data, w.CompressionLevel)
	if err != nil {
		return nil, err
	}
	compLength := uint32(len(compData))
	if origLength <= compLength {
		compData = append([]byte(nil), data...)
		compLength = origLength
	}
	return &pendingTable{
		entry: DirectoryEntry{Tag: tag, CompLength: compLength, OrigLength: origLength, OrigChecksum: checksum},
		data:  compData,
	}, nil
}

// handleHeadChecksum reconstructs the SFNT directory the decompressed font
// would have, with tables in tag order at sequential four byte aligned
// offsets, and writes 0xB1B0AFBA minus the total checksum into bytes 8-11
// of the head table. The head table is compressed afterwards.
func (w *Writer) handleHeadChecksum() error {
	logrus.Debugf("updating head checkSumAdjustment")
	tags := make([]string, 0, len(w.tables))
	for tag := range w.tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	searchRange, entrySelector, rangeShift := getSearchRange(uint16(w.numTables))
	dir := newBinaryWriter(make([]byte, 0, sfntHeaderSize+sfntDirectoryEntrySize*w.numTables))
	dir.WriteString(w.Flavor)
	dir.WriteUint16(uint16(w.numTables))
	dir.WriteUint16(searchRange)
	dir.WriteUint16(entrySelector)
	dir.WriteUint16(rangeShift)

	offset := uint32(sfntHeaderSize + sfntDirectoryEntrySize*w.numTables)
	var sum uint32
	for _, tag := range tags {
		entry := w.tables[tag].entry
		dir.WriteString(entry.Tag)
		dir.WriteUint32(entry.OrigChecksum)
		dir.WriteUint32(offset)
		dir.WriteUint32(entry.OrigLength)
		offset += pad4(entry.OrigLength)
		sum += entry.OrigChecksum
	}
	sum += calcChecksum(dir.Bytes())
	checkSumAdjustment := sfntChecksumMagic - sum // wraps

	head := w.tables["head"]
	binary.BigEndian.PutUint32(head.data[8:], checkSumAdjustment)
	// the checksum ignores bytes 8-11, so the entry checksum is unchanged
	pending, err := w.prepTable("head", head.data)
	if err != nil {
		return err
	}
	pending.index = head.index
	w.tables["head"] = pending
	return nil
}

func (w *Writer) tableOrder() []string {
	order := make([]string, 0, len(w.tables))
	for tag := range w.tables {
		order = append(order, tag)
	}
	sort.Slice(order, func(i, j int) bool {
		return w.tables[order[i]].index < w.tables[order[j]].index
	})
	return order
}
