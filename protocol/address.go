package protocol

// AppendAddr appends the 3-byte big-endian wire form of addr to dst and
// returns the extended slice. Only the low 24 bits of addr are encoded.
func AppendAddr(dst []byte, addr uint32) []byte {
	return append(dst,
		byte(addr>>16),
		byte(addr>>8),
		byte(addr),
	)
}

// DecodeAddr decodes a 3-byte big-endian address from the first AddrSize
// bytes of b. The caller must supply at least AddrSize bytes.
func DecodeAddr(b []byte) uint32 {
	_ = b[AddrSize-1]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}
