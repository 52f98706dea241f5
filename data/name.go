package data

import (
	"fmt"

	"github.com/foomo/layoutinfer/ast"
	"github.com/foomo/layoutinfer/errors"
)

// MaxNameAttempts bounds the numeric suffixes tried by UniqueName.
const MaxNameAttempts = 2000

// rootName names values that have no enclosing element.
const rootName = "root"

// UniqueName builds prefix+signature+suffix from the innermost parent element
// and appends _2, _3, ... until taken reports the key as free.
func UniqueName(taken func(key string) bool, parents []ast.Element, prefix, suffix string) (string, error) {
	base := rootName
	if len(parents) > 0 {
		base = ast.Signature(parents[len(parents)-1])
	}
	candidate := prefix + base + suffix
	if !taken(candidate) {
		return candidate, nil
	}
	for n := 2; n < MaxNameAttempts+2; n++ {
		key := fmt.Sprintf("%s_%d", candidate, n)
		if !taken(key) {
			return key, nil
		}
	}
	return "", errors.NameExhaustion("no unique key available").
		WithContext("candidate", candidate).
		WithContext("attempts", MaxNameAttempts).
		Build()
}

// UniqueName returns a key that is not yet used in d.
func (d *Data) UniqueName(parents []ast.Element, prefix, suffix string) (string, error) {
	return UniqueName(d.Has, parents, prefix, suffix)
}
