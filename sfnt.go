package wofftools

import (
	"io"
	"sort"
)

// getSearchRange computes the binary search fields of an SFNT table
// directory: searchRange is sixteen times the largest power of two not
// exceeding numTables, entrySelector its log2, and rangeShift the
// remainder range.
func getSearchRange(numTables uint16) (searchRange, entrySelector, rangeShift uint16) {
	if numTables == 0 {
		return 0, 0, 0
	}
	sr := 1
	for sr*2 <= int(numTables) {
		sr *= 2
		entrySelector++
	}
	searchRange = uint16(sr * 16)
	rangeShift = numTables*16 - searchRange
	return
}

// ToSFNT decodes a WOFF file into the SFNT font image it wraps. Tables are
// laid out in tag order at sequential four byte aligned offsets, matching
// the directory order mandated for the WOFF container.
func ToSFNT(b []byte) ([]byte, error) {
	woff, err := NewReader(b, ChecksumIgnore)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(woff.tables))
	for tag := range woff.tables {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	sfntSize := uint64(sfntHeaderSize) + sfntDirectoryEntrySize*uint64(woff.NumTables)
	for _, entry := range woff.tables {
		sfntSize += uint64(pad4(entry.OrigLength))
	}
	if sfntSize != uint64(woff.TotalSFNTSize) {
		return nil, FormatError("totalSfntSize is incorrect")
	}

	searchRange, entrySelector, rangeShift := getSearchRange(woff.NumTables)
	w := newBinaryWriter(make([]byte, 0, sfntSize))
	w.WriteString(woff.Flavor)
	w.WriteUint16(woff.NumTables)
	w.WriteUint16(searchRange)
	w.WriteUint16(entrySelector)
	w.WriteUint16(rangeShift)

	offset := uint32(sfntHeaderSize) + sfntDirectoryEntrySize*uint32(woff.NumTables)
	for _, tag := range tags {
		entry := woff.tables[tag]
		w.WriteString(entry.Tag)
		w.WriteUint32(entry.OrigChecksum)
		w.WriteUint32(offset)
		w.WriteUint32(entry.OrigLength)
		offset += pad4(entry.OrigLength)
	}
	for _, tag := range tags {
		data, err := woff.Table(tag)
		if err != nil {
			return nil, err
		}
		w.WriteBytes(data)
		for n := uint32(len(data)); n < pad4(uint32(len(data))); n++ {
			w.WriteByte(0)
		}
	}
	return w.Bytes(), nil
}

// ReadSFNT builds a Font from an SFNT font image (TTF or OTF), preserving
// the physical table order of the image.
func ReadSFNT(b []byte) (*Font, error) {
	if len(b) < sfntHeaderSize {
		return nil, FormatError("truncated SFNT header")
	}
	r := newBinaryReader(b)
	flavor := r.ReadString(4)
	numTables := r.ReadUint16()
	_ = r.ReadUint16() // searchRange
	_ = r.ReadUint16() // entrySelector
	_ = r.ReadUint16() // rangeShift
	if r.Len() < sfntDirectoryEntrySize*uint32(numTables) {
		return nil, FormatError("truncated SFNT table directory")
	}

	type record struct {
		tag            string
		offset, length uint32
	}
	records := make([]record, 0, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		_ = r.ReadUint32() // checksum
		offset := r.ReadUint32()
		length := r.ReadUint32()
		if uint64(offset)+uint64(length) > uint64(len(b)) {
			return nil, FormatError("table extends beyond file size")
		}
		records = append(records, record{tag, offset, length})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].offset < records[j].offset })

	font := NewFont(flavor)
	order := make([]string, 0, numTables)
	for _, rec := range records {
		font.SetTable(rec.tag, b[rec.offset:rec.offset+rec.length:rec.offset+rec.length])
		order = append(order, rec.tag)
	}
	font.SetTableOrder(order)
	return font, nil
}

// FromSFNT wraps an SFNT font image into a WOFF file written to w. A font
// carrying a DSIG table keeps its table order and head checksum, since
// rewriting either would invalidate the signature.
func FromSFNT(b []byte, w io.Writer) error {
	font, err := ReadSFNT(b)
	if err != nil {
		return err
	}
	opts := DefaultSaveOptions()
	if font.Has("DSIG") {
		opts.ReorderTables = false
		opts.RecalcHeadChecksum = false
	}
	return font.Save(w, &opts)
}
