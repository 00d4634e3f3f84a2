package wofftools

import (
	"compress/zlib"
	"io"
	"sort"
)

// ttfTableOrder and cffTableOrder are the recommended physical table
// orderings from the OTF/OFF specification.
var ttfTableOrder = []string{
	"head", "hhea", "maxp", "OS/2", "hmtx", "LTSH", "VDMX", "hdmx", "cmap",
	"fpgm", "prep", "cvt ", "loca", "glyf", "kern", "name", "post", "gasp", "PCLT",
}

var cffTableOrder = []string{
	"head", "hhea", "maxp", "OS/2", "name", "cmap", "post", "CFF ",
}

// sortedTagList sorts table tags for writing. With a nil tableOrder the
// recommended ordering from the OTF/OFF specification is applied, with a
// DSIG table moved last; otherwise tags named by tableOrder come first in
// that order and the rest follow alphabetically.
func sortedTagList(tags, tableOrder []string) []string {
	rest := make([]string, len(tags))
	copy(rest, tags)
	sort.Strings(rest)
	if tableOrder == nil {
		for i, tag := range rest {
			if tag == "DSIG" {
				rest = append(append(rest[:i:i], rest[i+1:]...), "DSIG")
				break
			}
		}
		tableOrder = ttfTableOrder
		for _, tag := range rest {
			if tag == "CFF " {
				tableOrder = cffTableOrder
				break
			}
		}
	}
	ordered := make([]string, 0, len(rest))
	for _, tag := range tableOrder {
		for i, t := range rest {
			if t == tag {
				ordered = append(ordered, tag)
				rest = append(rest[:i:i], rest[i+1:]...)
				break
			}
		}
	}
	return append(ordered, rest...)
}

// Font is a WOFF file as a set of opaque table payloads plus its metadata
// and private data blocks. Tables read from an existing file stay in the
// underlying Reader until fetched; tables set on the font live in memory.
// Table contents are never interpreted.
type Font struct {
	Flavor       string
	MajorVersion uint16
	MinorVersion uint16

	reader *Reader
	tables map[string][]byte
	order  []string

	// metadata and private data resolve once, from memory or from the
	// reader, and cache the result including absence
	metadata     []byte
	metaResolved bool
	privateData  []byte
	privResolved bool
}

// NewFont returns an empty font. An empty flavor defaults to the TrueType
// sfnt version.
func NewFont(flavor string) *Font {
	if flavor == "" {
		flavor = FlavorTrueType
	}
	return &Font{Flavor: flavor, tables: map[string][]byte{}}
}

// OpenFont opens an existing WOFF file. Table payloads are fetched from
// the file lazily; the checksum policy applies to those fetches.
func OpenFont(b []byte, policy ChecksumPolicy) (*Font, error) {
	reader, err := NewReader(b, policy)
	if err != nil {
		return nil, err
	}
	return &Font{
		Flavor:       reader.Flavor,
		MajorVersion: reader.MajorVersion,
		MinorVersion: reader.MinorVersion,
		reader:       reader,
		tables:       map[string][]byte{},
		order:        reader.Tags(),
	}, nil
}

// Has returns whether the font contains a table with the given tag.
func (f *Font) Has(tag string) bool {
	if _, ok := f.tables[tag]; ok {
		return true
	}
	return f.reader != nil && f.reader.Has(tag)
}

// Tags returns all table tags. Tags covered by a set table order come
// first; the rest follow the recommended ordering of the OTF/OFF
// specification.
func (f *Font) Tags() []string {
	seen := map[string]bool{}
	tags := []string{}
	for tag := range f.tables {
		seen[tag] = true
		tags = append(tags, tag)
	}
	if f.reader != nil {
		for tag := range f.reader.tables {
			if !seen[tag] {
				tags = append(tags, tag)
			}
		}
	}
	return sortedTagList(tags, f.order)
}

// Table returns the decompressed payload of a table, fetching it from the
// underlying file if it was not set in memory.
func (f *Font) Table(tag string) ([]byte, error) {
	if data, ok := f.tables[tag]; ok {
		return data, nil
	}
	if f.reader == nil {
		return nil, FormatError("no '" + tag + "' table")
	}
	return f.reader.Table(tag)
}

// SetTable sets the decompressed payload of a table, shadowing any table
// with the same tag in the underlying file.
func (f *Font) SetTable(tag string, data []byte) {
	f.tables[tag] = data
}

// SetTableOrder sets the order in which tables are written. A complete
// order is required for fonts carrying a DSIG table.
func (f *Font) SetTableOrder(order []string) {
	f.order = order
}

// Metadata returns the XML metadata block, or nil if the font has none.
func (f *Font) Metadata() ([]byte, error) {
	if !f.metaResolved {
		if f.reader != nil {
			data, err := f.reader.Metadata()
			if err != nil {
				return nil, err
			}
			f.metadata = data
		}
		f.metaResolved = true
	}
	return f.metadata, nil
}

// SetMetadata sets the XML metadata block. Nil or empty data removes it.
func (f *Font) SetMetadata(data []byte) {
	f.metadata = data
	f.metaResolved = true
}

// PrivateData returns the private data block, or nil if the font has none.
func (f *Font) PrivateData() ([]byte, error) {
	if !f.privResolved {
		if f.reader != nil {
			data, err := f.reader.PrivateData()
			if err != nil {
				return nil, err
			}
			f.privateData = data
		}
		f.privResolved = true
	}
	return f.privateData, nil
}

// SetPrivateData sets the private data block. Nil or empty data removes it.
func (f *Font) SetPrivateData(data []byte) {
	f.privateData = data
	f.privResolved = true
}

// SaveOptions configures Font.Save.
type SaveOptions struct {
	// CompressionLevel is the zlib level for tables and metadata.
	CompressionLevel int
	// RecompressTables decompresses and recompresses tables copied from an
	// existing file instead of passing their stored bytes through.
	RecompressTables bool
	// ReorderTables rewrites the physical table order following the
	// recommended ordering of the OTF/OFF specification.
	ReorderTables bool
	// RecalcHeadChecksum recalculates the head table checkSumAdjustment.
	RecalcHeadChecksum bool
}

// DefaultSaveOptions returns the options Save uses when given nil: best
// compression, pass-through of stored tables, reordering, and head
// checksum recalculation.
func DefaultSaveOptions() SaveOptions {
	return SaveOptions{
		CompressionLevel:   zlib.BestCompression,
		ReorderTables:      true,
		RecalcHeadChecksum: true,
	}
}

// Save writes the font as a WOFF file. A font carrying a DSIG table
// requires a complete table order set with SetTableOrder and forbids both
// reordering and head checksum recalculation, since either would
// invalidate the signature.
func (f *Font) Save(w io.Writer, opts *SaveOptions) error {
	if opts == nil {
		o := DefaultSaveOptions()
		opts = &o
	}
	tags := f.Tags()
	if f.Has("DSIG") {
		if !sameTags(f.order, tags) {
			return IntegrityError("a complete table order must be supplied when saving a font with a 'DSIG' table")
		}
		if opts.ReorderTables {
			return IntegrityError("tables can not be reordered when a 'DSIG' table is in the font")
		}
		if opts.RecalcHeadChecksum {
			return IntegrityError("the head checkSumAdjustment can not be recalculated when a 'DSIG' table is in the font")
		}
	}
	if opts.ReorderTables {
		tags = sortedTagList(tags, nil)
	}

	writer := NewWriter(w, len(tags))
	writer.Flavor = f.Flavor
	writer.MajorVersion = f.MajorVersion
	writer.MinorVersion = f.MinorVersion
	writer.CompressionLevel = opts.CompressionLevel
	writer.RecalcHeadChecksum = opts.RecalcHeadChecksum
	for _, tag := range tags {
		if data, ok := f.tables[tag]; ok {
			if err := writer.SetTable(tag, data); err != nil {
				return err
			}
			continue
		}
		if opts.RecompressTables {
			data, err := f.reader.Table(tag)
			if err != nil {
				return err
			}
			if err := writer.SetTable(tag, data); err != nil {
				return err
			}
		} else {
			data, origLength, origChecksum, compLength, err := f.reader.CompressedTable(tag)
			if err != nil {
				return err
			}
			if err := writer.SetRawTable(tag, data, origLength, origChecksum, compLength); err != nil {
				return err
			}
		}
	}

	if !f.metaResolved && !opts.RecompressTables && f.reader != nil {
		data, origLength, compLength, err := f.reader.CompressedMetadata()
		if err != nil {
			return err
		}
		writer.SetRawMetadata(data, origLength, compLength)
	} else {
		metadata, err := f.Metadata()
		if err != nil {
			return err
		}
		if err := writer.SetMetadata(metadata); err != nil {
			return err
		}
	}
	privateData, err := f.PrivateData()
	if err != nil {
		return err
	}
	writer.SetPrivateData(privateData)
	return writer.Close()
}

// sameTags reports whether order and tags name exactly the same set of
// tables.
func sameTags(order, tags []string) bool {
	if order == nil {
		return false
	}
	seen := map[string]bool{}
	for _, tag := range order {
		seen[tag] = true
	}
	if len(seen) != len(tags) {
		return false
	}
	for _, tag := range tags {
		if !seen[tag] {
			return false
		}
	}
	return true
}
