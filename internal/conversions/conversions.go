// Package conversions holds unsafe conversions that avoid copying.
package conversions

import "unsafe"

// ByteSlice2String returns bs as a string without a copy. bs must not be modified afterwards.
func ByteSlice2String(bs []byte) string {
	if len(bs) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(bs), len(bs))
}
