package huffman

func getBit(buf []byte, i int) bool {
	return buf[i>>3]&(0x80>>uint(i&7)) != 0
}

func setBit(buf []byte, i int, bit bool) {
	mask := byte(0x80 >> uint(i&7))
	if bit {
		buf[i>>3] |= mask
	} else {
		buf[i>>3] &^= mask
	}
}
