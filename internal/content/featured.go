package content

import (
	"context"
	"fmt"
)

// CapError is returned when enabling featured would exceed the document cap.
type CapError struct {
	Cap  int
	Noun string
}

func (e *CapError) Error() string {
	return fmt.Sprintf("You can feature up to %d %s", e.Cap, e.Noun)
}

// CountFeatured counts items with featured == true anywhere in doc.
func CountFeatured(doc Document) int {
	return countFeatured(map[string]any(doc))
}

func countFeatured(node any) int {
	n := 0
	switch v := node.(type) {
	case map[string]any:
		for _, child := range v {
			if list, ok := child.([]any); ok {
				for _, item := range list {
					if m, ok := item.(map[string]any); ok {
						if on, _ := m["featured"].(bool); on {
							n++
						}
					}
				}
				continue
			}
			n += countFeatured(child)
		}
	case Document:
		n += countFeatured(map[string]any(v))
	}
	return n
}

// ToggleFeatured flips the featured flag of one item and persists the result.
// Enabling is refused once the cap is reached. When the sink fails the editor
// returns to the document it held before the toggle.
func (e *Editor) ToggleFeatured(ctx context.Context, base Path, category string, index int) (bool, error) {
	if e.Schema.FeaturedCap <= 0 {
		return false, ErrFeatureUnsupported
	}
	items, err := e.category(base, category)
	if err != nil {
		return false, err
	}
	if err := checkIndex(category, index, len(items)); err != nil {
		return false, err
	}
	item, ok := asMap(items[index])
	if !ok {
		return false, fmt.Errorf("%w: %s[%d] is not an item", ErrInvalidPath, category, index)
	}
	current, _ := item["featured"].(bool)
	next := !current
	if next && CountFeatured(e.Doc) >= e.Schema.FeaturedCap {
		return current, &CapError{Cap: e.Schema.FeaturedCap, Noun: e.Schema.ItemNoun}
	}

	before := e.Doc
	if err := e.Set(base.Child(category, index, "featured"), next); err != nil {
		return current, err
	}
	if e.sink != nil {
		if err := e.sink.Save(ctx, e.Doc); err != nil {
			e.Doc = before
			return current, fmt.Errorf("save featured flag: %w", err)
		}
	}
	return next, nil
}
