package query

import "bytes"

// unsigned constrains the numeric accumulator types used by decimalFromBytes.
type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// decimalFromBytes folds a byte slice into an unsigned integer, treating each
// byte as one decimal digit. The first byte outside '0'..'9' aborts the parse
// with a malformed-value error. An empty slice yields zero.
func decimalFromBytes[T unsigned](field string, b []byte) (T, error) {
	var acc T
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, &ParseError{Kind: KindMalformedValue, Field: field}
		}
		acc = acc*10 + T(c-'0')
	}

	return acc, nil
}

// latin1String maps each byte to the Unicode code point with the same ordinal
// value. Query servers emit Latin-1, so a plain string(b) conversion would
// mangle every byte above 0x7F.
func latin1String(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}

	return string(runes)
}

// splitAtSubslice splits b around the first occurrence of pattern. The
// pattern itself is excluded from both halves. ok is false if the pattern
// never occurs.
func splitAtSubslice(b, pattern []byte) (before, after []byte, ok bool) {
	i := bytes.Index(b, pattern)
	if i < 0 {
		return nil, nil, false
	}

	return b[:i], b[i+len(pattern):], true
}

// pairs walks a flat slice two elements at a time. An odd trailing element is
// dropped.
func pairs[T any](list []T, fn func(a, b T)) {
	for i := 0; i+1 < len(list); i += 2 {
		fn(list[i], list[i+1])
	}
}
