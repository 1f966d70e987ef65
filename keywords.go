package geodict

import "sort"

// KeywordFiles are the keyword pattern lists built alongside the
// dictionaries. Each is read from <sources>/<name>.yaml and written to
// <output>/<name>.json.
var KeywordFiles = []string{"keywords_status", "keywords_ad"}

// BuildKeywords validates a keyword document and renders its artifact.
// The document must hold a "patterns" sequence at the root; patterns are
// deduplicated and sorted, empty entries dropped.
func BuildKeywords(name string, doc *Node, path string) (Artifact, []string, error) {
	if doc.IsAbsent() || doc.Kind != Mapping || !doc.Has("patterns") {
		return Artifact{}, nil, malformed(name, path, "document must contain a 'patterns' list at the root")
	}
	list := doc.Get("patterns")
	if list.Kind != Sequence {
		return Artifact{}, nil, malformed(name, path, "'patterns' must be a list, got %s", list.Kind)
	}
	raw, err := list.Strings()
	if err != nil {
		return Artifact{}, nil, malformed(name, path, "patterns: %v", err)
	}

	seen := make(map[string]bool, len(raw))
	patterns := make([]string, 0, len(raw))
	for _, p := range raw {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	data, err := encodeJSON(map[string]any{"patterns": patterns})
	if err != nil {
		return Artifact{}, nil, err
	}
	return Artifact{Name: name + ".json", Data: data}, patterns, nil
}
