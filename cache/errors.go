package cache

import (
	"strings"

	"github.com/teranos/cxxbind/errors"
)

// ErrStoreClosed is returned when a cache file is used after Close
var ErrStoreClosed = errors.New("cache store is closed")

// IsStoreClosed reports whether err comes from a closed cache file.
// The sql driver returns its own error values, so the message is checked too.
func IsStoreClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrStoreClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

func wrapClosed(err error) error {
	if err != nil && !errors.Is(err, ErrStoreClosed) && IsStoreClosed(err) {
		return errors.Mark(err, ErrStoreClosed)
	}
	return err
}
