// Package locres serializes the final namespace/key/value data into the
// binary layout consumed by the game's runtime localization loader, and
// parses it back for verification.
//
// The layout is fixed and little-endian: a 16-byte magic constant, a
// one-byte version tag, an 8-byte offset to the string table (back-patched
// once the table position is known), the total entry count, then the
// per-namespace records, then the deduplicated string table. Strings are
// written with a negative length prefix counting UTF-16 code units
// including the trailing null.
package locres

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/zxsj-tools/locpipe/identity"
)

// Magic identifies the resource format; the runtime refuses files that do
// not start with it.
var Magic = [16]byte{
	0x0E, 0x14, 0x74, 0x75, 0x67, 0x4A, 0x03, 0xFC,
	0x4A, 0x15, 0x90, 0x9D, 0xC3, 0x37, 0x7F, 0x1B,
}

// Version is the hash-indexed UTF-16 layout tag.
const Version byte = 0x03

// Entry is one localized string record inside a namespace.
type Entry struct {
	KeyHash    uint32
	Key        string
	SourceHash uint32
	Value      string
}

// Namespace groups entries under a namespace hash and name. Namespace
// order is caller-provided and preserved on the wire.
type Namespace struct {
	Hash    uint32
	Name    string
	Entries []Entry
}

// TableEntry is one deduplicated string-table slot.
type TableEntry struct {
	Value    string
	RefCount int32
}

// File is a parsed resource file.
type File struct {
	Namespaces  []Namespace
	StringTable []TableEntry
}

// Write serializes namespaces to w. Entries with byte-identical values
// share one string-table slot; slots appear in first-seen order with their
// reference counts.
func Write(w io.Writer, namespaces []Namespace) error {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(Version)

	offsetPos := buf.Len()
	writeInt64(&buf, 0) // patched below

	total := 0
	for _, ns := range namespaces {
		total += len(ns.Entries)
	}
	writeInt32(&buf, int32(total))
	writeInt32(&buf, int32(len(namespaces)))

	valueIndex := make(map[string]int32)
	refCounts := make(map[string]int32)
	var values []string
	for _, ns := range namespaces {
		for _, e := range ns.Entries {
			if _, ok := valueIndex[e.Value]; !ok {
				valueIndex[e.Value] = int32(len(values))
				values = append(values, e.Value)
			}
			refCounts[e.Value]++
		}
	}

	for _, ns := range namespaces {
		writeUint32(&buf, ns.Hash)
		writeFString(&buf, ns.Name)
		writeInt32(&buf, int32(len(ns.Entries)))
		for _, e := range ns.Entries {
			writeUint32(&buf, e.KeyHash)
			writeFString(&buf, e.Key)
			writeUint32(&buf, e.SourceHash)
			writeInt32(&buf, valueIndex[e.Value])
		}
	}

	tableOffset := buf.Len()
	binary.LittleEndian.PutUint64(buf.Bytes()[offsetPos:offsetPos+8], uint64(tableOffset))

	writeInt32(&buf, int32(len(values)))
	for _, v := range values {
		writeFString(&buf, v)
		writeInt32(&buf, refCounts[v])
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile serializes namespaces to path, creating parent directories.
func WriteFile(path string, namespaces []Namespace) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := Write(f, namespaces); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

// writeFString writes text with a negative UTF-16 length prefix and a
// trailing null. A string that cannot be encoded degrades to an empty
// string (length -1, lone null) so one bad value never aborts the file.
func writeFString(buf *bytes.Buffer, text string) {
	if !utf8.ValidString(text) {
		writeInt32(buf, -1)
		buf.Write([]byte{0x00, 0x00})
		return
	}
	encoded := identity.UTF16LEBytes(text)
	encoded = append(encoded, 0x00, 0x00)
	writeInt32(buf, -int32(len(encoded)/2))
	buf.Write(encoded)
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}
