package ring

import "encoding/binary"

// frameMagic marks the start of a valid frame. Fixed per spec.md §9's open
// question on MAGIC: a 32-bit constant, always encoded little-endian (both
// ends of a shared-memory region are always the same host).
const frameMagic = uint32(0xC0FFEE7E)

// frameHeaderSize is sizeof({magic u32, size u32}).
const frameHeaderSize = 8

func encodeFrameHeader(dst []byte, size uint32) {
	binary.LittleEndian.PutUint32(dst[0:4], frameMagic)
	binary.LittleEndian.PutUint32(dst[4:8], size)
}

func decodeFrameMagic(b []byte) uint32 { return binary.LittleEndian.Uint32(b[0:4]) }
func decodeFrameSize(b []byte) uint32  { return binary.LittleEndian.Uint32(b[4:8]) }
