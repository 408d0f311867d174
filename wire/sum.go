package wire

// StorageSize returns the total encoded byte count of args, the
// structural sum spec.md §4.6 requires callers to compute before
// reserving a block for a full trace record.
func StorageSize(args ...Arg) int {
	n := 0
	for _, a := range args {
		n += a.StorageSize()
	}
	return n
}

// EncodeAll encodes args sequentially into dst, which must be at least
// StorageSize(args...) bytes, returning the number of bytes written.
func EncodeAll(dst []byte, args ...Arg) int {
	off := 0
	for _, a := range args {
		off += a.Encode(dst[off:])
	}
	return off
}
