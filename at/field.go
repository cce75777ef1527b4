package at

import "bytes"

// FilterMode selects the characters Filter accepts.
type FilterMode int

const (
	FilterPrintable FilterMode = iota
	FilterAlphanumeric
	FilterAlpha
	FilterHex
	FilterNumeric
)

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

// IsHexDigit reports whether c is 0-9, a-f or A-F.
func IsHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (m FilterMode) accepts(c byte) bool {
	switch m {
	case FilterPrintable:
		return c >= 32 && c != 127
	case FilterAlphanumeric:
		return isAlpha(c) || isDigit(c)
	case FilterAlpha:
		return isAlpha(c)
	case FilterHex:
		return IsHexDigit(c)
	case FilterNumeric:
		return isDigit(c)
	default:
		return false
	}
}

// Filter copies input into a field of exactly width bytes. Positions past the
// end of input, and positions whose character is rejected by mode, hold NUL.
// Valid characters keep their original position; nothing is compacted.
func Filter(input string, width int, mode FilterMode) []byte {
	if width < 0 {
		width = 0
	}
	out := make([]byte, width)
	for i := 0; i < width && i < len(input); i++ {
		if mode.accepts(input[i]) {
			out[i] = input[i]
		}
	}
	return out
}

// Group inserts a ':' between every size bytes of field, so a 16 digit EUI
// becomes "xx:xx:xx:xx:xx:xx:xx:xx".
func Group(field []byte, size int) []byte {
	if size <= 0 || len(field) <= size {
		return append([]byte(nil), field...)
	}
	out := make([]byte, 0, len(field)+(len(field)-1)/size)
	for i, c := range field {
		if i > 0 && i%size == 0 {
			out = append(out, Separator)
		}
		out = append(out, c)
	}
	return out
}

// Terminated returns s up to, not including, its first NUL byte.
func Terminated[T ~string | ~[]byte](s T) string {
	b := []byte(s)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// EncodeHexField prepares a hexadecimal identifier for a Set command: filtered
// to width hex digits, grouped in octets and cut at the first rejected
// character.
func EncodeHexField(input string, width int) string {
	return Terminated(Group(Filter(input, width, FilterHex), 2))
}

// ExtractHex collects up to width hex digits from a response payload,
// skipping every other byte (such as the ':' separators).
func ExtractHex(payload []byte, width int) string {
	out := make([]byte, 0, width)
	for _, c := range payload {
		if len(out) == width {
			break
		}
		if IsHexDigit(c) {
			out = append(out, c)
		}
	}
	return string(out)
}
