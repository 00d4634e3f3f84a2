package wofftools

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
)

// pad4 rounds n up to the next multiple of four. All WOFF and SFNT data
// blocks start on four byte boundaries.
func pad4(n uint32) uint32 {
	return (n + 3) &^ 3
}

type binaryReader struct {
	buf []byte
	pos uint32
}

func newBinaryReader(buf []byte) *binaryReader {
	return &binaryReader{buf, 0}
}

func (r *binaryReader) ReadBytes(n uint32) []byte {
	buf := r.buf[r.pos : r.pos+n]
	r.pos += n
	return buf
}

func (r *binaryReader) ReadString(n uint32) string {
	return string(r.ReadBytes(n))
}

func (r *binaryReader) ReadUint16() uint16 {
	return binary.BigEndian.Uint16(r.ReadBytes(2))
}

func (r *binaryReader) ReadUint32() uint32 {
	return binary.BigEndian.Uint32(r.ReadBytes(4))
}

func (r *binaryReader) Len() uint32 {
	return uint32(len(r.buf)) - r.pos
}

type binaryWriter struct {
	buf []byte
}

func newBinaryWriter(buf []byte) *binaryWriter {
	return &binaryWriter{buf[:0]}
}

func (w *binaryWriter) Bytes() []byte {
	return w.buf
}

func (w *binaryWriter) WriteBytes(v []byte) {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, len(v))...)
	copy(w.buf[pos:], v)
}

func (w *binaryWriter) WriteByte(v byte) error {
	w.WriteBytes([]byte{v})
	return nil
}

func (w *binaryWriter) WriteString(v string) {
	w.WriteBytes([]byte(v))
}

func (w *binaryWriter) WriteUint16(v uint16) {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, 2)...)
	binary.BigEndian.PutUint16(w.buf[pos:], v)
}

func (w *binaryWriter) WriteUint32(v uint32) {
	pos := len(w.buf)
	w.buf = append(w.buf, make([]byte, 4)...)
	binary.BigEndian.PutUint32(w.buf[pos:], v)
}

func (w *binaryWriter) Len() uint32 {
	return uint32(len(w.buf))
}

func zlibCompress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func zlibDecompress(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, err
	}
	if err := zr.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
