package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError collects per-property validation failures for a value
// draft. Keys are property names, values are human-readable messages safe
// to surface to the presentation layer.
type ValidationError map[string]string

// Error implements the error interface.
func (v ValidationError) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", key, v[key]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether the given property failed validation.
func (v ValidationError) Has(property string) bool {
	_, ok := v[property]
	return ok
}

// orNil returns nil for an empty error set so callers can return the
// result of a validation pass directly.
func (v ValidationError) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
