// Package content implements the nested-document editing model shared by every
// admin screen: path-addressed immutable updates, category and item ordering,
// the featured-item cap and per-document schemas.
//
// Documents are JSON-shaped trees of map[string]any, []any and scalars. Updates
// never modify their input; they copy the ancestors along the edited path and
// share every untouched subtree with the previous version.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Document is the root of a content tree.
type Document map[string]any

var (
	// ErrInvalidPath is returned when a path does not resolve through containers.
	ErrInvalidPath = errors.New("invalid path")
	// ErrIndexOutOfRange is returned when an index segment falls outside its sequence.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Path addresses a value inside a document. Each segment is either a string
// key into a mapping or an int index into a sequence.
type Path []any

// Child returns a new path extending p with segs. p itself is not modified.
func (p Path) Child(segs ...any) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// String renders the path for messages, e.g. Art[2].title.
func (p Path) String() string {
	if len(p) == 0 {
		return "<root>"
	}
	out := ""
	for i, seg := range p {
		switch s := seg.(type) {
		case int:
			out += fmt.Sprintf("[%d]", s)
		default:
			if i > 0 {
				out += "."
			}
			out += fmt.Sprint(s)
		}
	}
	return out
}

// UnmarshalJSON decodes a JSON array of strings and integers.
func (p *Path) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	parsed, err := ParsePath(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePath converts decoded JSON segments into a Path. Numbers must be
// non-negative integers.
func ParsePath(raw []any) (Path, error) {
	out := make(Path, 0, len(raw))
	for i, seg := range raw {
		switch s := seg.(type) {
		case string:
			out = append(out, s)
		case int:
			out = append(out, s)
		case float64:
			if s < 0 || s != math.Trunc(s) {
				return nil, fmt.Errorf("%w: segment %d is not an index: %v", ErrInvalidPath, i, s)
			}
			out = append(out, int(s))
		case json.Number:
			n, err := s.Int64()
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: segment %d is not an index: %v", ErrInvalidPath, i, s)
			}
			out = append(out, int(n))
		default:
			return nil, fmt.Errorf("%w: segment %d has unsupported type %T", ErrInvalidPath, i, seg)
		}
	}
	return out, nil
}

// GetAtPath reads the value addressed by path.
func GetAtPath(doc Document, path Path) (any, bool) {
	var node any = map[string]any(doc)
	for _, seg := range path {
		switch s := seg.(type) {
		case string:
			m, ok := asMap(node)
			if !ok {
				return nil, false
			}
			node, ok = m[s]
			if !ok {
				return nil, false
			}
		case int:
			list, ok := node.([]any)
			if !ok || s < 0 || s >= len(list) {
				return nil, false
			}
			node = list[s]
		default:
			return nil, false
		}
	}
	return node, true
}

// SetAtPath returns a document where the value at path is replaced by value.
// doc is never modified. Only the mappings and sequences along path are copied;
// siblings are shared with doc. An empty path replaces the whole document and
// requires value to be a mapping.
func SetAtPath(doc Document, path Path, value any) (Document, error) {
	if len(path) == 0 {
		m, ok := asMap(value)
		if !ok {
			return doc, fmt.Errorf("%w: document root must be a mapping, got %T", ErrInvalidPath, value)
		}
		return Document(m), nil
	}
	out, err := setAt(map[string]any(doc), path, 0, value)
	if err != nil {
		return doc, err
	}
	m, _ := asMap(out)
	return Document(m), nil
}

func setAt(node any, path Path, depth int, value any) (any, error) {
	if depth == len(path) {
		return value, nil
	}
	switch seg := path[depth].(type) {
	case string:
		m, ok := asMap(node)
		if !ok {
			return nil, fmt.Errorf("%w: %s is %s, not a mapping", ErrInvalidPath, path[:depth], describe(node))
		}
		child, err := setAt(m[seg], path, depth+1, value)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(m)+1)
		for k, v := range m {
			out[k] = v
		}
		out[seg] = child
		return out, nil
	case int:
		list, ok := node.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is %s, not a sequence", ErrInvalidPath, path[:depth], describe(node))
		}
		if seg < 0 || seg >= len(list) {
			return nil, fmt.Errorf("%w: %w: %s has %d items", ErrInvalidPath, ErrIndexOutOfRange, path[:depth+1], len(list))
		}
		child, err := setAt(list[seg], path, depth+1, value)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(list))
		copy(out, list)
		out[seg] = child
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported segment %v (%T)", ErrInvalidPath, seg, seg)
	}
}

// DeleteAtPath returns a document without the mapping key addressed by path.
// The final segment must be a string key; a missing key is not an error.
func DeleteAtPath(doc Document, path Path) (Document, error) {
	if len(path) == 0 {
		return doc, fmt.Errorf("%w: cannot delete the document root", ErrInvalidPath)
	}
	key, ok := path[len(path)-1].(string)
	if !ok {
		return doc, fmt.Errorf("%w: delete requires a key as final segment", ErrInvalidPath)
	}
	parentPath := path[:len(path)-1]
	parent, found := GetAtPath(doc, parentPath)
	if !found {
		return doc, fmt.Errorf("%w: %s not found", ErrInvalidPath, parentPath)
	}
	m, ok := asMap(parent)
	if !ok {
		return doc, fmt.Errorf("%w: %s is %s, not a mapping", ErrInvalidPath, parentPath, describe(parent))
	}
	if _, exists := m[key]; !exists {
		return doc, nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k != key {
			out[k] = v
		}
	}
	return SetAtPath(doc, parentPath, out)
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

func describe(v any) string {
	if v == nil {
		return "missing"
	}
	return fmt.Sprintf("a %T", v)
}
