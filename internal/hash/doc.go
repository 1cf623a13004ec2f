// Package hash provides the CRC32-Castagnoli (CRC32C) checksum used to
// protect stored truth-table batches.
//
// Go's hash/crc32 uses the SSE4.2 and ARM CRC instructions for this
// polynomial when they are present. Manifests record the sum as eight
// lowercase hex digits:
//
//	entry.CRC32C = hash.Format(hash.CRC32C(data))
package hash
