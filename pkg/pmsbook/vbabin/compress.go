package vbabin

import (
	"bytes"
	"encoding/binary"
)

// ovbaContainer wraps data in the MS-OVBA 2.4.1 compressed container.
// Chunks hold only literal tokens (flag byte 0), so decompression yields
// the input unchanged; the container signature and chunk headers are what
// the host's decoder requires.
func ovbaContainer(data []byte) []byte {
	var out bytes.Buffer
	out.WriteByte(0x01)
	if len(data) == 0 {
		return out.Bytes()
	}

	for pos := 0; pos < len(data); pos += 4096 {
		end := pos + 4096
		if end > len(data) {
			end = len(data)
		}
		chunk := literalChunk(data[pos:end])

		var header [2]byte
		binary.LittleEndian.PutUint16(header[:], uint16(len(chunk)-1)|0xB000)
		out.Write(header[:])
		out.Write(chunk)
	}
	return out.Bytes()
}

// literalChunk encodes data as token groups of eight literals behind a
// zero flag byte.
func literalChunk(data []byte) []byte {
	var out bytes.Buffer
	for i := 0; i < len(data); i += 8 {
		end := i + 8
		if end > len(data) {
			end = len(data)
		}
		out.WriteByte(0x00)
		out.Write(data[i:end])
	}
	return out.Bytes()
}
