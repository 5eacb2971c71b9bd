package locres

import (
	"encoding/binary"
	"fmt"
	"os"
	"unicode/utf16"
)

// Parse decodes a serialized resource file. It is the inverse of Write for
// files this package produces and is used to verify generated artifacts.
func Parse(data []byte) (*File, error) {
	r := &reader{data: data}

	var magic [16]byte
	if err := r.bytes(magic[:]); err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, fmt.Errorf("bad magic %x", magic)
	}
	version, err := r.byte()
	if err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("unsupported version 0x%02x", version)
	}

	tableOffset, err := r.int64()
	if err != nil {
		return nil, err
	}
	if tableOffset <= 0 || tableOffset > int64(len(data)) {
		return nil, fmt.Errorf("string table offset %d out of range", tableOffset)
	}

	totalEntries, err := r.int32()
	if err != nil {
		return nil, err
	}
	nsCount, err := r.int32()
	if err != nil {
		return nil, err
	}

	// String table first: entry records reference it by index.
	table := &reader{data: data, pos: int(tableOffset)}
	tableCount, err := table.int32()
	if err != nil {
		return nil, err
	}
	strings := make([]TableEntry, tableCount)
	for i := range strings {
		value, err := table.fstring()
		if err != nil {
			return nil, fmt.Errorf("string table slot %d: %w", i, err)
		}
		refCount, err := table.int32()
		if err != nil {
			return nil, err
		}
		strings[i] = TableEntry{Value: value, RefCount: refCount}
	}

	file := &File{StringTable: strings}
	seen := 0
	for n := int32(0); n < nsCount; n++ {
		nsHash, err := r.uint32()
		if err != nil {
			return nil, err
		}
		nsName, err := r.fstring()
		if err != nil {
			return nil, fmt.Errorf("namespace %d name: %w", n, err)
		}
		entryCount, err := r.int32()
		if err != nil {
			return nil, err
		}
		ns := Namespace{Hash: nsHash, Name: nsName, Entries: make([]Entry, 0, entryCount)}
		for e := int32(0); e < entryCount; e++ {
			keyHash, err := r.uint32()
			if err != nil {
				return nil, err
			}
			key, err := r.fstring()
			if err != nil {
				return nil, fmt.Errorf("namespace %q entry %d key: %w", nsName, e, err)
			}
			sourceHash, err := r.uint32()
			if err != nil {
				return nil, err
			}
			index, err := r.int32()
			if err != nil {
				return nil, err
			}
			if index < 0 || index >= tableCount {
				return nil, fmt.Errorf("namespace %q entry %d: string index %d out of range", nsName, e, index)
			}
			ns.Entries = append(ns.Entries, Entry{
				KeyHash:    keyHash,
				Key:        key,
				SourceHash: sourceHash,
				Value:      strings[index].Value,
			})
			seen++
		}
		file.Namespaces = append(file.Namespaces, ns)
	}
	if int32(seen) != totalEntries {
		return nil, fmt.Errorf("header declares %d entries, found %d", totalEntries, seen)
	}
	return file, nil
}

// ReadFile parses the resource file at path.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) bytes(dst []byte) error {
	if r.pos+len(dst) > len(r.data) {
		return fmt.Errorf("unexpected end of file at offset %d", r.pos)
	}
	copy(dst, r.data[r.pos:])
	r.pos += len(dst)
	return nil
}

func (r *reader) byte() (byte, error) {
	var b [1]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) int32() (int32, error) {
	var b [4]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b[:])), nil
}

func (r *reader) uint32() (uint32, error) {
	var b [4]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *reader) int64() (int64, error) {
	var b [8]byte
	if err := r.bytes(b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// fstring reads a length-prefixed string. Negative lengths count UTF-16
// code units including the trailing null; zero is the empty string.
func (r *reader) fstring() (string, error) {
	length, err := r.int32()
	if err != nil {
		return "", err
	}
	switch {
	case length == 0:
		return "", nil
	case length < 0:
		units := int(-length)
		raw := make([]byte, units*2)
		if err := r.bytes(raw); err != nil {
			return "", err
		}
		u16 := make([]uint16, units)
		for i := range u16 {
			u16[i] = binary.LittleEndian.Uint16(raw[i*2:])
		}
		if u16[units-1] != 0 {
			return "", fmt.Errorf("string missing null terminator")
		}
		return string(utf16.Decode(u16[:units-1])), nil
	default:
		return "", fmt.Errorf("unsupported positive string length %d", length)
	}
}

// Equal reports whether two parsed files carry the same payload. Used by
// verification after regenerating an artifact.
func (f *File) Equal(other *File) bool {
	if other == nil || len(f.Namespaces) != len(other.Namespaces) {
		return false
	}
	for i, ns := range f.Namespaces {
		o := other.Namespaces[i]
		if ns.Hash != o.Hash || ns.Name != o.Name || len(ns.Entries) != len(o.Entries) {
			return false
		}
		for j, e := range ns.Entries {
			if e != o.Entries[j] {
				return false
			}
		}
	}
	return true
}
