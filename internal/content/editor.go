package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrConfirmationRequired is returned by RemoveCategory when the caller has not confirmed.
	ErrConfirmationRequired = errors.New("removing a category requires confirmation")
	// ErrUnknownCategory is returned when a named category is absent or not a list.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrFeatureUnsupported is returned when toggling featured on a type without a cap.
	ErrFeatureUnsupported = errors.New("document type does not support featured items")
)

// Sink persists a document after an auto-saving operation.
type Sink interface {
	Save(ctx context.Context, doc Document) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, doc Document) error

// Save calls f.
func (f SinkFunc) Save(ctx context.Context, doc Document) error {
	return f(ctx, doc)
}

// Editor applies category and item operations to one document. Every
// operation replaces Doc with a new version and leaves the old one intact.
type Editor struct {
	Schema *Schema
	Doc    Document
	// Active is the selected category, or "" when none is selected.
	Active string

	sink Sink
}

// NewEditor returns an editor over doc. sink may be nil when the caller
// persists explicitly.
func NewEditor(schema *Schema, doc Document, sink Sink) *Editor {
	if doc == nil {
		doc = schema.Default()
	}
	return &Editor{Schema: schema, Doc: doc, sink: sink}
}

// Set replaces the value at path.
func (e *Editor) Set(path Path, value any) error {
	doc, err := SetAtPath(e.Doc, path, value)
	if err != nil {
		return err
	}
	e.Doc = doc
	return nil
}

// Categories lists the sequence-valued keys under base in display order.
func (e *Editor) Categories(base Path) []string {
	cats, err := e.categories(base)
	if err != nil {
		return nil
	}
	return categoryNames(cats)
}

// AddCategory inserts an empty category. It reports false without error when
// name is blank or already taken.
func (e *Editor) AddCategory(base Path, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	cats, err := e.categories(base)
	if err != nil {
		return false, err
	}
	if _, exists := cats[name]; exists {
		return false, nil
	}
	if err := e.Set(base.Child(name), []any{}); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveCategory deletes a category and its items. When the removed category
// was active the selection falls back to the first remaining one.
func (e *Editor) RemoveCategory(base Path, name string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if _, err := e.category(base, name); err != nil {
		return err
	}
	doc, err := DeleteAtPath(e.Doc, base.Child(name))
	if err != nil {
		return err
	}
	e.Doc = doc
	if e.Active == name {
		e.Active = ""
		if remaining := e.Categories(base); len(remaining) > 0 {
			e.Active = remaining[0]
		}
	}
	return nil
}

// AddItem appends a defaulted item to a category.
func (e *Editor) AddItem(base Path, category string) error {
	items, err := e.category(base, category)
	if err != nil {
		return err
	}
	next := make([]any, len(items), len(items)+1)
	copy(next, items)
	next = append(next, e.Schema.ItemTemplate(base))
	return e.Set(base.Child(category), next)
}

// RemoveItem deletes the item at index.
func (e *Editor) RemoveItem(base Path, category string, index int) error {
	items, err := e.category(base, category)
	if err != nil {
		return err
	}
	if err := checkIndex(category, index, len(items)); err != nil {
		return err
	}
	return e.Set(base.Child(category), removeAt(items, index))
}

// ReorderItems moves the item at from so that it ends up at position to.
// The relative order of every other item is kept.
func (e *Editor) ReorderItems(base Path, category string, from, to int) error {
	items, err := e.category(base, category)
	if err != nil {
		return err
	}
	if err := checkIndex(category, from, len(items)); err != nil {
		return err
	}
	if err := checkIndex(category, to, len(items)); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	moved := items[from]
	rest := removeAt(items, from)
	next := make([]any, 0, len(items))
	next = append(next, rest[:to]...)
	next = append(next, moved)
	next = append(next, rest[to:]...)
	return e.Set(base.Child(category), next)
}

// MoveItemToCategory removes an item from one category and appends it to
// another, creating the destination when needed. The destination becomes active.
func (e *Editor) MoveItemToCategory(base Path, from string, fromIndex int, to string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("%w: destination name is empty", ErrUnknownCategory)
	}
	src, err := e.category(base, from)
	if err != nil {
		return err
	}
	if err := checkIndex(from, fromIndex, len(src)); err != nil {
		return err
	}
	moved := src[fromIndex]
	remaining := removeAt(src, fromIndex)

	var dst []any
	if to == from {
		dst = remaining
	} else {
		cats, err := e.categories(base)
		if err != nil {
			return err
		}
		if existing, ok := cats[to]; ok {
			list, ok := existing.([]any)
			if !ok {
				return fmt.Errorf("%w: %q is not a list", ErrUnknownCategory, to)
			}
			dst = list
		}
	}
	next := make([]any, len(dst), len(dst)+1)
	copy(next, dst)
	next = append(next, moved)

	doc, err := SetAtPath(e.Doc, base.Child(from), remaining)
	if err != nil {
		return err
	}
	doc, err = SetAtPath(doc, base.Child(to), next)
	if err != nil {
		return err
	}
	e.Doc = doc
	e.Active = to
	return nil
}

func (e *Editor) categories(base Path) (map[string]any, error) {
	if len(base) == 0 {
		return map[string]any(e.Doc), nil
	}
	v, ok := GetAtPath(e.Doc, base)
	if !ok {
		return nil, fmt.Errorf("%w: %s not found", ErrInvalidPath, base)
	}
	m, ok := asMap(v)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a mapping", ErrInvalidPath, base)
	}
	return m, nil
}

func (e *Editor) category(base Path, name string) ([]any, error) {
	cats, err := e.categories(base)
	if err != nil {
		return nil, err
	}
	v, ok := cats[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a list", ErrUnknownCategory, name)
	}
	return items, nil
}

func categoryNames(cats map[string]any) []string {
	names := make([]string, 0, len(cats))
	for k, v := range cats {
		if _, ok := v.([]any); ok {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return names
}

func checkIndex(category string, index, n int) error {
	if index < 0 || index >= n {
		return fmt.Errorf("%w: %s[%d] with %d items", ErrIndexOutOfRange, category, index, n)
	}
	return nil
}

func removeAt(items []any, index int) []any {
	out := make([]any, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...)
}
