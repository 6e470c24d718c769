package core

// encoding.go prepares raw CSV bytes for parsing.
//
// Uploaded files are buffered whole, so instead of sanitizing on the fly the
// loader strips a leading UTF-8 BOM (0xEF 0xBB 0xBF, added by Excel on
// Windows) and rejects content that is not valid UTF-8, pointing at the first
// bad byte so the user can find it.

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes a leading UTF-8 byte order mark.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// validateUTF8 returns an encoding error locating the first invalid sequence.
func validateUTF8(data []byte) error {
	if isAllASCII(data) || utf8.Valid(data) {
		return nil
	}

	line := 1
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return fmt.Errorf("encoding error: invalid UTF-8 at line %d, byte %d (save the file as UTF-8)", line, i)
		}
		if r == '\n' {
			line++
		}
		i += size
	}
	return nil
}

// isAllASCII is the fast path for the common all-ASCII file.
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
