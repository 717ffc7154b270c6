package domain

import "unicode/utf16"

// SessionUID folds an identity into the positive 31-bit participant id
// required by the media-token issuer.
//
// It is a rolling hash over UTF-16 code units, not a collision-free mapping.
// A collision only affects participant numbering inside a media channel;
// authorization always compares the Identity string.
func SessionUID(id Identity) uint32 {
	var acc uint64
	for _, c := range utf16.Encode([]rune(string(id))) {
		acc = (acc*31 + uint64(c)) & 0x7fffffff
	}
	return uint32(max(1, acc) % (1<<32 - 1))
}
