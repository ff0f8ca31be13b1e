package sourcemap

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
)

// ErrMalformed is wrapped by every mapping decoding failure.
var ErrMalformed = errors.New("malformed source map")

// MalformedError locates a decoding failure in the mappings string.
type MalformedError struct {
	Offset int
	// Char is the offending character, zero when the failure is not about
	// a single character.
	Char   rune
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Char != 0 {
		return fmt.Sprintf("%v: invalid VLQ character %q at offset %d", ErrMalformed, e.Char, e.Offset)
	}
	return fmt.Sprintf("%v: %s at offset %d", ErrMalformed, e.Reason, e.Offset)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

const (
	base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	vlqShift       = 5
	vlqContinue    = 1 << vlqShift
	vlqMask        = vlqContinue - 1
)

var base64Value = func() (t [256]int8) {
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		t[base64Alphabet[i]] = int8(i)
	}
	return t
}()

// decodeVLQ reads one signed base64 VLQ value starting at s[i] and returns
// it with the offset just past it.
func decodeVLQ(s string, i int) (int, int, error) {
	start := i
	var acc int64
	var shift uint
	for {
		if i >= len(s) {
			return 0, i, &MalformedError{Offset: start, Reason: "truncated VLQ value"}
		}
		digit := base64Value[s[i]]
		if digit < 0 {
			return 0, i, &MalformedError{Offset: i, Char: rune(s[i])}
		}
		i++
		if shift > 32 {
			return 0, i, &MalformedError{Offset: start, Reason: "VLQ value overflows 32 bits"}
		}
		acc |= int64(digit&vlqMask) << shift
		if digit&vlqContinue == 0 {
			break
		}
		shift += vlqShift
	}

	negative := acc&1 == 1
	acc >>= 1
	if negative {
		acc = -acc
	}
	v, err := safecast.Conv[int32](acc)
	if err != nil {
		return 0, i, &MalformedError{Offset: start, Reason: "VLQ value overflows 32 bits"}
	}
	return int(v), i, nil
}
