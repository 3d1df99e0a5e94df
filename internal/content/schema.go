package content

import (
	"errors"
	"fmt"
	"sort"
)

// Document names stored in the content collection.
const (
	Collection = "content"

	DocResume    = "resume"
	DocPortfolio = "portfolio"
	DocProjects  = "projects"
	DocHome      = "home"
)

// Featured caps per document type.
const (
	MaxFeaturedProjects  = 4
	MaxFeaturedPortfolio = 4
)

// ErrSchemaViolation is wrapped by every kind mismatch found by Schema.Validate.
var ErrSchemaViolation = errors.New("schema violation")

// FieldKind is the value type a declared item field must hold.
type FieldKind string

const (
	KindString     FieldKind = "string"
	KindBool       FieldKind = "bool"
	KindStringList FieldKind = "string_list"
)

// Field is one declared item field.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
}

// Schema declares the item shape and save policy of a document type.
type Schema struct {
	Name     string  `json:"name"`
	ItemNoun string  `json:"itemNoun"`
	Fields   []Field `json:"fields"`
	// ListSections are root keys holding category -> []string mappings.
	ListSections []string `json:"listSections,omitempty"`
	FeaturedCap  int      `json:"featuredCap"`
	MergeOnSave  bool     `json:"mergeOnSave"`
	// Flat documents hold scalar fields at the root instead of categories.
	Flat bool `json:"flat"`
}

var schemas = map[string]*Schema{
	DocPortfolio: {
		Name:     DocPortfolio,
		ItemNoun: "portfolio items",
		Fields: []Field{
			{Name: "title", Kind: KindString},
			{Name: "description", Kind: KindString},
			{Name: "imageUrl", Kind: KindString},
			{Name: "featured", Kind: KindBool},
		},
		FeaturedCap: MaxFeaturedPortfolio,
	},
	DocProjects: {
		Name:     DocProjects,
		ItemNoun: "projects",
		Fields: []Field{
			{Name: "title", Kind: KindString},
			{Name: "description", Kind: KindString},
			{Name: "imageSrc", Kind: KindString},
			{Name: "link", Kind: KindString},
			{Name: "featured", Kind: KindBool},
		},
		FeaturedCap: MaxFeaturedProjects,
	},
	DocResume: {
		Name:     DocResume,
		ItemNoun: "entries",
		Fields: []Field{
			{Name: "title", Kind: KindString},
			{Name: "organization", Kind: KindString},
			{Name: "location", Kind: KindString},
			{Name: "dates", Kind: KindString},
			{Name: "description", Kind: KindString},
		},
		ListSections: []string{"Skills", "Coursework"},
	},
	DocHome: {
		Name:     DocHome,
		ItemNoun: "settings",
		Fields: []Field{
			{Name: "headline", Kind: KindString},
			{Name: "tagline", Kind: KindString},
			{Name: "about", Kind: KindString},
			{Name: "avatarUrl", Kind: KindString},
			{Name: "resumeUrl", Kind: KindString},
			{Name: "location", Kind: KindString},
			{Name: "now_learning", Kind: KindStringList},
		},
		MergeOnSave: true,
		Flat:        true,
	},
}

// Lookup returns the schema registered for a document name.
func Lookup(name string) (*Schema, bool) {
	s, ok := schemas[name]
	return s, ok
}

// Names lists the registered document names in lexical order.
func Names() []string {
	out := make([]string, 0, len(schemas))
	for name := range schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// NewItem returns an item with every declared field set to its zero value.
func (s *Schema) NewItem() map[string]any {
	item := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		item[f.Name] = zeroValue(f.Kind)
	}
	return item
}

// ItemTemplate returns the value appended by AddItem for categories under base.
func (s *Schema) ItemTemplate(base Path) any {
	if s.isListSection(base) {
		return ""
	}
	return s.NewItem()
}

// Default returns the shape a document has before anything is saved.
func (s *Schema) Default() Document {
	doc := Document{}
	if s.Flat {
		for _, f := range s.Fields {
			doc[f.Name] = zeroValue(f.Kind)
		}
		if s.Name == DocHome {
			doc["featured_hobbies"] = []any{}
		}
		return doc
	}
	if s.Name == DocResume {
		doc["Experience"] = []any{}
		doc["Education"] = []any{}
	}
	for _, section := range s.ListSections {
		doc[section] = map[string]any{}
	}
	return doc
}

// Validate checks declared field kinds and the featured cap. Undeclared fields
// and keys are left alone.
func (s *Schema) Validate(doc Document) error {
	var errs []error
	if s.Flat {
		errs = append(errs, s.checkFields("", doc)...)
	} else {
		for _, key := range sortedKeys(doc) {
			value := doc[key]
			if s.isListSection(Path{key}) {
				errs = append(errs, checkListSection(key, value)...)
				continue
			}
			items, ok := value.([]any)
			if !ok {
				errs = append(errs, fmt.Errorf("%w: category %q must be a list, got %T", ErrSchemaViolation, key, value))
				continue
			}
			for i, raw := range items {
				item, ok := asMap(raw)
				if !ok {
					errs = append(errs, fmt.Errorf("%w: %s[%d] must be an object, got %T", ErrSchemaViolation, key, i, raw))
					continue
				}
				errs = append(errs, s.checkFields(fmt.Sprintf("%s[%d].", key, i), item)...)
			}
		}
	}
	if s.FeaturedCap > 0 {
		if n := CountFeatured(doc); n > s.FeaturedCap {
			errs = append(errs, &CapError{Cap: s.FeaturedCap, Noun: s.ItemNoun})
		}
	}
	return errors.Join(errs...)
}

func (s *Schema) checkFields(prefix string, m map[string]any) []error {
	var errs []error
	for _, f := range s.Fields {
		v, present := m[f.Name]
		if !present || v == nil {
			continue
		}
		if !kindMatches(f.Kind, v) {
			errs = append(errs, fmt.Errorf("%w: %s%s must be %s, got %T", ErrSchemaViolation, prefix, f.Name, f.Kind, v))
		}
	}
	return errs
}

func (s *Schema) isListSection(base Path) bool {
	if len(base) != 1 {
		return false
	}
	key, ok := base[0].(string)
	if !ok {
		return false
	}
	for _, section := range s.ListSections {
		if section == key {
			return true
		}
	}
	return false
}

func checkListSection(section string, value any) []error {
	cats, ok := asMap(value)
	if !ok {
		return []error{fmt.Errorf("%w: %s must be an object of lists, got %T", ErrSchemaViolation, section, value)}
	}
	var errs []error
	for _, cat := range sortedKeys(cats) {
		if !kindMatches(KindStringList, cats[cat]) {
			errs = append(errs, fmt.Errorf("%w: %s.%s must be a list of strings", ErrSchemaViolation, section, cat))
		}
	}
	return errs
}

func kindMatches(kind FieldKind, v any) bool {
	switch kind {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindStringList:
		list, ok := v.([]any)
		if !ok {
			return false
		}
		for _, e := range list {
			if _, ok := e.(string); !ok {
				return false
			}
		}
		return true
	}
	return true
}

func zeroValue(kind FieldKind) any {
	switch kind {
	case KindBool:
		return false
	case KindStringList:
		return []any{}
	default:
		return ""
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
