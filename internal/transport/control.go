package transport

// EncodeSetActive builds the 8-byte CMD_SET_ACTIVE control-plane
// record: 01 01 <active> 00 00 00 <checksum_lo> <checksum_hi>,
// little-endian. Resolved against spec's literal S6 byte vectors
// (checksum(active=false) = 0xFFFF, checksum(active=true) = 0xFFFE);
// see DESIGN.md's "Checksum formula resolution" entry for why this is
// 0xFFFF-active rather than a sum over all six payload bytes.
func EncodeSetActive(active bool) [8]byte {
	var n byte
	if active {
		n = 1
	}
	checksum := uint16(0xFFFF) - uint16(n)
	return [8]byte{
		0x01, 0x01, n, 0x00, 0x00, 0x00,
		byte(checksum), byte(checksum >> 8),
	}
}
