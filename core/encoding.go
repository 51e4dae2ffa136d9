package core

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeU64 returns the canonical encoding of value: big-endian with no
// leading zero bytes. Zero encodes as an empty buffer.
func EncodeU64(value uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	return append([]byte{}, bytes.TrimLeft(buf[:], "\x00")...)
}

// DecodeU64 reads an unsigned big-endian integer of any length. Leading zero
// bytes are accepted; the significant part must fit in 64 bits.
func DecodeU64(data []byte) (uint64, error) {
	significant := bytes.TrimLeft(data, "\x00")
	if len(significant) > 8 {
		return 0, fmt.Errorf("%w: %d significant bytes", ErrDecode, len(significant))
	}
	var value uint64
	for _, b := range significant {
		value = value<<8 | uint64(b)
	}
	return value, nil
}
