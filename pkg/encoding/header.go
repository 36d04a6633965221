// Package encoding converts the free-form text of fixed-size binary
// headers to and from UTF-8.
package encoding

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Windows1252ToUTF8 converts Windows-1252 bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func Windows1252ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.Windows1252.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// TrimNullBytes cuts data at the first NUL byte.
func TrimNullBytes(data []byte) []byte {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		return data[:i]
	}
	return data
}

// FixedStringToUTF8 converts a NUL-padded fixed-size text field to a
// trimmed UTF-8 string. Valid UTF-8 is kept as is; anything else is read
// as Windows-1252, which is what most legacy exporters wrote.
func FixedStringToUTF8(data []byte) string {
	data = bytes.TrimSpace(TrimNullBytes(data))
	if utf8.Valid(data) {
		return string(data)
	}
	return Windows1252ToUTF8(data)
}

// UTF8ToFixedString returns s as a NUL-padded field of the given size.
// Overlong strings are cut on a rune boundary.
func UTF8ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	n := 0
	for _, r := range s {
		if n+utf8.RuneLen(r) > size {
			break
		}
		n += utf8.EncodeRune(result[n:], r)
	}
	return result
}
