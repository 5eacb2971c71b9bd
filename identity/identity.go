// Package identity computes the canonical (namespace, key) identity hashes
// shared by every pipeline stage.
//
// Both hash functions reproduce the game runtime's own hashing exactly and
// are contracts, not choices: any deviation corrupts lookups at runtime.
//
//   - KeyHash: CityHash64 over the CRLF-normalized UTF-16LE key string,
//     folded to 32 bits as low32 + high32*23.
//   - SourceStringHash: CRC32 (IEEE) over the UTF-16LE source text plus a
//     trailing two-byte null terminator.
package identity

import (
	"hash/crc32"
	"strings"
	"unicode/utf16"

	"github.com/go-faster/city"
)

// CleanBOM strips a leading UTF-8 BOM. Keys and namespaces extracted from
// game data occasionally carry one.
func CleanBOM(s string) string {
	return strings.TrimPrefix(s, "\ufeff")
}

// NormalizeLF converts all line endings to bare LF.
func NormalizeLF(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// NormalizeCRLF converts all line endings to CRLF. The runtime hashes key
// strings in their CRLF form.
func NormalizeCRLF(s string) string {
	return strings.ReplaceAll(NormalizeLF(s), "\n", "\r\n")
}

// UTF16LEBytes encodes s as UTF-16LE without a BOM or terminator.
// Invalid UTF-8 sequences encode as U+FFFD, matching Go rune conversion.
func UTF16LEBytes(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		buf[i*2] = byte(u)
		buf[i*2+1] = byte(u >> 8)
	}
	return buf
}

// KeyHash returns the 32-bit hash the runtime's resource loader uses to
// look up namespace and key strings.
func KeyHash(s string) uint32 {
	h := city.Hash64(UTF16LEBytes(NormalizeCRLF(s)))
	return uint32(h) + uint32(h>>32)*23
}

// SourceStringHash returns the 32-bit hash the runtime uses to detect
// stale translations against the original source text.
func SourceStringHash(s string) uint32 {
	b := UTF16LEBytes(s)
	b = append(b, 0, 0)
	return crc32.ChecksumIEEE(b)
}
