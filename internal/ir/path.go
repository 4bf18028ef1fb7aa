package ir

import (
	"reflect"
	"strconv"
	"strings"
)

// Segment is one step of a dotted path.
// A segment written with digits only addresses a sequence position.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

// Path is a parsed dotted path such as "list.0.name".
type Path []Segment

// ParsePath splits a dotted path into segments.
//
// Digit-only segments become index segments so that the same syntax
// addresses named fields and ordered-sequence positions:
//
//	ParsePath("list.0.name") // [list] [0] [name]
//
// Empty segments are dropped. ParsePath("") returns an empty path,
// which addresses the root itself.
func ParsePath(s string) Path {
	if s == "" {
		return Path{}
	}
	parts := strings.Split(s, ".")
	p := make(Path, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if isDigits(part) {
			n, err := strconv.Atoi(part)
			if err == nil {
				p = append(p, Segment{Index: n, IsIndex: true})
				continue
			}
		}
		p = append(p, Segment{Name: part})
	}
	return p
}

// String renders the path with bracket access for index segments:
// "list[0].name".
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if seg.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(seg.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Name)
	}
	return b.String()
}

// Lookup walks root along p. It returns (nil, false) as soon as a step
// cannot be taken; a missing value is never an error.
//
// Supported containers: map[string]any, []any, any map with string
// keys, slices and arrays, and structs (exported fields, matched by
// name case-insensitively). Pointers and interfaces are followed.
func Lookup(root any, p Path) (any, bool) {
	cur := root
	for _, seg := range p {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Get is Lookup for a dotted path string, returning nil when absent.
func Get(root any, path string) any {
	v, _ := Lookup(root, ParsePath(path))
	return v
}

func step(cur any, seg Segment) (any, bool) {
	switch c := cur.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := c[seg.key()]
		return v, ok
	case []any:
		if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(c) {
			return nil, false
		}
		return c[seg.Index], true
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(seg.key()).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		if !seg.IsIndex || seg.Index < 0 || seg.Index >= rv.Len() {
			return nil, false
		}
		return rv.Index(seg.Index).Interface(), true
	case reflect.Struct:
		if seg.IsIndex {
			return nil, false
		}
		f := rv.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, seg.Name)
		})
		if !f.IsValid() || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	}
	return nil, false
}

// key is the map key a segment addresses; index segments also work
// against maps keyed by their decimal form.
func (s Segment) key() string {
	if s.IsIndex {
		return strconv.Itoa(s.Index)
	}
	return s.Name
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
