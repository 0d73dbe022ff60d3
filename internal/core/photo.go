package core

import (
	"bytes"
	"errors"
)

var ErrNotJPEG = errors.New("photo must be a JPEG image")

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

// IsJPEG checks the JPEG start-of-image marker.
func IsJPEG(b []byte) bool {
	return bytes.HasPrefix(b, jpegMagic)
}
