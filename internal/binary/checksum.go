package binary

import "hash/crc32"

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Checksum computes the CRC-32C (Castagnoli) checksum of data. Every
// metadata block in the container carries one.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}
