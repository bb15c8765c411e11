package descriptor

// CRC16/CCITT-FALSE: polynomial 0x1021, initial value 0xFFFF.
// Every descriptor layout ends with this checksum over all preceding bytes;
// decode verifies it and a mismatch causes the record to be discarded and
// re-derived rather than trusted.

var crc16Table = buildCRC16Table()

func buildCRC16Table() [256]uint16 {
	var table [256]uint16
	for i := 0; i < 256; i++ {
		crc := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

// Checksum computes the CRC16/CCITT-FALSE of data.
func Checksum(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = crc<<8 ^ crc16Table[byte(crc>>8)^b]
	}
	return crc
}
