package query

import (
	"fmt"
	"strings"
)

// Key identifies a cached read: a resource name followed by the
// parameters that shape the request, e.g. Key{"flights", "london"}.
type Key []string

// NewKey builds a key from a resource name and parameters. Parameters
// are formatted with fmt.Sprint so ints and enums can be passed as is.
func NewKey(resource string, params ...any) Key {
	k := make(Key, 0, len(params)+1)
	k = append(k, resource)
	for _, p := range params {
		k = append(k, fmt.Sprint(p))
	}
	return k
}

// Resource is the first element of the key.
func (k Key) Resource() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix compares element-wise, so Key{"users"} matches every users
// read regardless of search term but not Key{"users-admin"}.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) Equal(other Key) bool {
	return len(k) == len(other) && k.HasPrefix(other)
}

// String is the storage form. Elements are separated by a unit
// separator so user-typed search terms cannot collide with it.
func (k Key) String() string {
	return strings.Join(k, "\x1f")
}
