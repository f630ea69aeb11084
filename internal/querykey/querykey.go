// Package querykey builds the hierarchical cache keys used by the console
// query cache. Every resource gets the same key shape:
//
//	vouchers                      all
//	vouchers/list                 every list
//	vouchers/list/{"status":"x"}  one filtered list
//	vouchers/detail               every detail
//	vouchers/detail/SPR-1         one detail
//	vouchers/stats                aggregate stats
//
// Invalidating a key invalidates every key it prefixes.
package querykey

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

const sep = "/"

var escaper = strings.NewReplacer("%", "%25", "/", "%2F")

// Key is an ordered list of segments.
type Key []string

// String renders the key with escaped segments joined by "/".
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, s := range k {
		parts[i] = escaper.Replace(s)
	}
	return strings.Join(parts, sep)
}

// HasPrefix reports whether p is a segment-wise prefix of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}

// Append returns a new key with parts appended. k is never modified.
func (k Key) Append(parts ...string) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// Parse reverses String.
func Parse(s string) Key {
	if s == "" {
		return Key{}
	}
	parts := strings.Split(s, sep)
	k := make(Key, len(parts))
	for i, p := range parts {
		if u, err := url.PathUnescape(p); err == nil {
			k[i] = u
		} else {
			k[i] = p
		}
	}
	return k
}

// Matches reports whether the rendered key s equals prefix or sits below it.
// The empty prefix matches every key.
func Matches(s, prefix string) bool {
	return prefix == "" || s == prefix || strings.HasPrefix(s, prefix+sep)
}

// Factory produces keys for one resource.
type Factory struct {
	resource string
}

// For returns the key factory of a resource.
func For(resource string) Factory { return Factory{resource: resource} }

// Resource returns the resource name.
func (f Factory) Resource() string { return f.resource }

func (f Factory) All() Key     { return Key{f.resource} }
func (f Factory) Lists() Key   { return Key{f.resource, "list"} }
func (f Factory) Details() Key { return Key{f.resource, "detail"} }
func (f Factory) Stats() Key   { return Key{f.resource, "stats"} }

// List returns the key of one filtered list. Filters that encode to the same
// canonical form share a key.
func (f Factory) List(filter any) Key { return f.Lists().Append(Canonical(filter)) }

// Detail returns the key of one entity.
func (f Factory) Detail(id string) Key { return f.Details().Append(id) }

// Sub returns a key below All for resource-specific queries.
func (f Factory) Sub(parts ...string) Key { return f.All().Append(parts...) }

// Canonical renders a filter deterministically: struct fields in declaration
// order, map keys sorted, zero values omitted where the type says omitempty.
func Canonical(filter any) string {
	if filter == nil {
		return "{}"
	}
	b, err := json.Marshal(filter)
	if err != nil {
		return fmt.Sprintf("%#v", filter)
	}
	return string(b)
}
