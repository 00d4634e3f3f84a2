// Package wofftools reads and writes the WOFF font container format, a
// compressed wrapper around an SFNT (TTF or OTF) font with optional XML
// metadata and private data blocks. It implements the WOFF File Format 1.0
// specification, see https://www.w3.org/TR/WOFF/
//
// The Reader and Writer operate on raw table payloads and never interpret
// table contents, except for the checkSumAdjustment field of the head table.
// CheckSFNTConformance independently audits a reconstructed SFNT image
// against the structural rules of the SFNT specification.
package wofftools

const (
	woffSignature = "wOFF"

	woffHeaderSize         = 44
	woffDirectoryEntrySize = 20

	sfntHeaderSize         = 12
	sfntDirectoryEntrySize = 16

	// checkSumAdjustment in the head table must make the whole font sum to this.
	sfntChecksumMagic = 0xB1B0AFBA
)

// FlavorTrueType and FlavorCFF are the two sfnt version tags a WOFF commonly wraps.
const (
	FlavorTrueType = "\x00\x01\x00\x00"
	FlavorCFF      = "OTTO"
)

// FormatError reports a malformed WOFF or SFNT structure, such as a bad
// signature or a truncated header or directory.
type FormatError string

func (e FormatError) Error() string { return string(e) }

// ChecksumError reports a table whose stored checksum does not match the
// checksum of its decompressed bytes.
type ChecksumError struct {
	Tag          string
	Stored, Calc uint32
}

func (e ChecksumError) Error() string {
	return "bad checksum for '" + e.Tag + "' table"
}

// IntegrityError reports a writer session that cannot produce a valid file,
// such as a table count mismatch or a conflict with a DSIG table.
type IntegrityError string

func (e IntegrityError) Error() string { return string(e) }

// woffHeader is the fixed 44 byte header at the start of every WOFF file.
// All offsets are absolute from the start of the file.
type woffHeader struct {
	flavor         string
	length         uint32
	numTables      uint16
	reserved       uint16
	totalSFNTSize  uint32
	majorVersion   uint16
	minorVersion   uint16
	metaOffset     uint32
	metaLength     uint32
	metaOrigLength uint32
	privOffset     uint32
	privLength     uint32
}

func (h *woffHeader) decode(r *binaryReader) error {
	if r.Len() < woffHeaderSize {
		return FormatError("truncated header")
	}
	signature := r.ReadString(4)
	if signature != woffSignature {
		return FormatError("bad signature")
	}
	h.flavor = r.ReadString(4)
	h.length = r.ReadUint32()
	h.numTables = r.ReadUint16()
	h.reserved = r.ReadUint16()
	h.totalSFNTSize = r.ReadUint32()
	h.majorVersion = r.ReadUint16()
	h.minorVersion = r.ReadUint16()
	h.metaOffset = r.ReadUint32()
	h.metaLength = r.ReadUint32()
	h.metaOrigLength = r.ReadUint32()
	h.privOffset = r.ReadUint32()
	h.privLength = r.ReadUint32()
	return nil
}

func (h *woffHeader) encode(w *binaryWriter) {
	w.WriteString(woffSignature)
	w.WriteString(h.flavor)
	w.WriteUint32(h.length)
	w.WriteUint16(h.numTables)
	w.WriteUint16(h.reserved)
	w.WriteUint32(h.totalSFNTSize)
	w.WriteUint16(h.majorVersion)
	w.WriteUint16(h.minorVersion)
	w.WriteUint32(h.metaOffset)
	w.WriteUint32(h.metaLength)
	w.WriteUint32(h.metaOrigLength)
	w.WriteUint32(h.privOffset)
	w.WriteUint32(h.privLength)
}
