package content

import (
	"encoding/json"
	"fmt"
)

// Merge overlays patch on base and returns the result. Nested mappings merge
// recursively; sequences and scalars in patch replace those in base. Keys
// absent from patch keep their base value.
func Merge(base, patch Document) Document {
	out := mergeMaps(map[string]any(base), map[string]any(patch))
	return Document(out)
}

func mergeMaps(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, pv := range patch {
		bm, baseIsMap := asMap(out[k])
		pm, patchIsMap := asMap(pv)
		if baseIsMap && patchIsMap {
			out[k] = mergeMaps(bm, pm)
			continue
		}
		out[k] = pv
	}
	return out
}

// Decode parses a JSON object into a Document.
func Decode(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Encode renders a Document as JSON.
func Encode(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}
