package logging

import (
	"strconv"

	"go.uber.org/zap"
)

// Redacted holds a secret value that must never be printed.
type Redacted []byte

// String implements the Stringer interface, always returning a redacted value
func (r Redacted) String() string {
	return "[REDACTED:" + strconv.Itoa(len(r)) + "]"
}

// GoString implements the GoStringer interface for %#v formatting
func (r Redacted) GoString() string {
	return r.String()
}

// Value creates a zap field showing only the length of a secret value.
func Value(key string, val []byte) zap.Field {
	return zap.Stringer(key, Redacted(val))
}
