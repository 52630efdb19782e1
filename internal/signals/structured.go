package signals

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StructuredData returns every JSON-LD object on the page. Top-level arrays
// and @graph arrays are flattened. Blocks or items that do not decode to a
// JSON object are skipped individually.
func StructuredData(doc *goquery.Document) []map[string]any {
	items := make([]map[string]any, 0)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			return
		}
		items = appendObjects(items, decoded)
	})
	return items
}

func appendObjects(items []map[string]any, v any) []map[string]any {
	switch typed := v.(type) {
	case []any:
		for _, elem := range typed {
			items = appendObjects(items, elem)
		}
	case map[string]any:
		items = append(items, typed)
		if graph, ok := typed["@graph"]; ok {
			items = appendObjects(items, graph)
		}
	}
	return items
}

// SchemaTypes returns the lower-cased @type values of items, in order.
func SchemaTypes(items []map[string]any) []string {
	var types []string
	for _, item := range items {
		switch t := item["@type"].(type) {
		case string:
			types = append(types, strings.ToLower(t))
		case []any:
			for _, elem := range t {
				if s, ok := elem.(string); ok {
					types = append(types, strings.ToLower(s))
				}
			}
		}
	}
	return types
}

// stringField returns item[key] when it is a non-empty string.
func stringField(item map[string]any, key string) string {
	if s, ok := item[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
