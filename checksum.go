package wofftools

import "encoding/binary"

// calcChecksum computes the SFNT checksum over data: the sum of all
// big-endian 32 bit words with wrapping arithmetic, where data is treated
// as zero padded to a four byte boundary.
func calcChecksum(data []byte) uint32 {
	var sum uint32
	n := len(data) &^ 3
	for i := 0; i < n; i += 4 {
		sum += binary.BigEndian.Uint32(data[i:])
	}
	if n < len(data) {
		var tail [4]byte
		copy(tail[:], data[n:])
		sum += binary.BigEndian.Uint32(tail[:])
	}
	return sum
}

// CalcTableChecksum computes the checksum of an SFNT table. For the head
// table the checkSumAdjustment field (bytes 8-11) is treated as zero, so
// that the checksum does not depend on its own adjustment value. A head
// table shorter than 12 bytes is malformed.
func CalcTableChecksum(tag string, data []byte) (uint32, error) {
	if tag == "head" {
		if len(data) < 12 {
			return 0, FormatError("head table too short")
		}
		// bytes 8-11 are word aligned, so the sum splits cleanly around them
		return calcChecksum(data[:8]) + calcChecksum(data[12:]), nil
	}
	return calcChecksum(data), nil
}
