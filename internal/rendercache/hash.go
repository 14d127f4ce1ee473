package rendercache

import "unicode/utf16"

const hashSeed uint32 = 5381

// Hash returns the 32-bit fingerprint of s.
//
// It walks the UTF-16 code units of s from last to first and folds each one in
// with h = (h*33) ^ unit, so markup hashes the same way the render runtime
// counts characters. Distinct strings can collide; a collision makes the cache
// treat changed markup as unchanged.
func Hash(s string) uint32 {
	units := utf16.Encode([]rune(s))
	h := hashSeed
	for i := len(units) - 1; i >= 0; i-- {
		h = (h * 33) ^ uint32(units[i])
	}
	return h
}
