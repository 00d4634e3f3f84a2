package wofftools

// DirectoryEntry is one record of the WOFF table directory: a 20 byte
// big-endian layout of tag, absolute offset, compressed length, original
// (decompressed) length, and the checksum of the decompressed bytes.
//
// Encoding and decoding perform no validation; the Reader and
// CheckSFNTConformance check structural invariants.
type DirectoryEntry struct {
	Tag          string
	Offset       uint32
	CompLength   uint32
	OrigLength   uint32
	OrigChecksum uint32
}

func (e *DirectoryEntry) decode(r *binaryReader) error {
	if r.Len() < woffDirectoryEntrySize {
		return FormatError("truncated table directory")
	}
	e.Tag = r.ReadString(4)
	e.Offset = r.ReadUint32()
	e.CompLength = r.ReadUint32()
	e.OrigLength = r.ReadUint32()
	e.OrigChecksum = r.ReadUint32()
	return nil
}

func (e *DirectoryEntry) encode(w *binaryWriter) {
	w.WriteString(e.Tag)
	w.WriteUint32(e.Offset)
	w.WriteUint32(e.CompLength)
	w.WriteUint32(e.OrigLength)
	w.WriteUint32(e.OrigChecksum)
}
