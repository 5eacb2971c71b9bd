package textout

import (
	"bytes"
	"encoding/json"
)

// marshalOrdered renders a JSON object with keys in the given order, since
// encoding/json would re-sort a map. Entries are indented with four spaces
// and HTML characters stay unescaped: values carry markup tags that must
// survive verbatim.
func marshalOrdered(keys []string, entries map[string]JSONEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n    ")

		k, err := marshalNoEscape(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteString(": ")

		v, err := marshalIndentNoEscape(entries[key], "    ", "    ")
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteString("\n}\n")
	return buf.Bytes(), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func marshalIndentNoEscape(v any, prefix, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
