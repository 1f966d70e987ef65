package geodict

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	// Absent is a missing value or an explicit null.
	Absent NodeKind = iota
	Mapping
	Sequence
	Scalar
)

func (k NodeKind) String() string {
	switch k {
	case Absent:
		return "absent"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	case Scalar:
		return "scalar"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is a parsed source document: a mapping, sequence, scalar or absent
// value. Mapping keys keep their document order.
type Node struct {
	Kind  NodeKind
	Value string  // Scalar only
	Keys  []string // Mapping only, document order
	Items []*Node  // Sequence items, or mapping values parallel to Keys
}

var absentNode = &Node{Kind: Absent}

// Get returns the value for key in a mapping, or an absent node.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != Mapping {
		return absentNode
	}
	for i, k := range n.Keys {
		if k == key {
			return n.Items[i]
		}
	}
	return absentNode
}

// Has reports whether a mapping has key, even when its value is null.
func (n *Node) Has(key string) bool {
	if n == nil || n.Kind != Mapping {
		return false
	}
	for _, k := range n.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// IsAbsent reports whether n is nil, missing or null.
func (n *Node) IsAbsent() bool { return n == nil || n.Kind == Absent }

// String returns the scalar value, or "" for any other kind.
func (n *Node) String() string {
	if n == nil || n.Kind != Scalar {
		return ""
	}
	return n.Value
}

// Strings returns the scalar items of a sequence. Null items are skipped;
// a nested mapping or sequence is an error.
func (n *Node) Strings() ([]string, error) {
	if n.IsAbsent() {
		return nil, nil
	}
	if n.Kind != Sequence {
		return nil, fmt.Errorf("expected a sequence, got %s", n.Kind)
	}
	out := make([]string, 0, len(n.Items))
	for i, item := range n.Items {
		switch item.Kind {
		case Absent:
			continue
		case Scalar:
			out = append(out, item.Value)
		default:
			return nil, fmt.Errorf("item %d: expected a scalar, got %s", i, item.Kind)
		}
	}
	return out, nil
}

// ParseYAML parses a YAML document into a Node.
func ParseYAML(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return absentNode, nil
	}
	return fromYAML(doc.Content[0]), nil
}

func fromYAML(y *yaml.Node) *Node {
	switch y.Kind {
	case yaml.AliasNode:
		return fromYAML(y.Alias)
	case yaml.MappingNode:
		n := &Node{Kind: Mapping}
		for i := 0; i+1 < len(y.Content); i += 2 {
			n.Keys = append(n.Keys, y.Content[i].Value)
			n.Items = append(n.Items, fromYAML(y.Content[i+1]))
		}
		return n
	case yaml.SequenceNode:
		n := &Node{Kind: Sequence}
		for _, c := range y.Content {
			n.Items = append(n.Items, fromYAML(c))
		}
		return n
	case yaml.ScalarNode:
		if y.Tag == "!!null" {
			return absentNode
		}
		return &Node{Kind: Scalar, Value: y.Value}
	default:
		return absentNode
	}
}

// ParseJSONC parses JSON, optionally extended with comments and trailing
// commas, into a Node. Mapping keys are sorted since JSON objects carry no
// order.
func ParseJSONC(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	return fromJSON(v), nil
}

func fromJSON(v any) *Node {
	switch t := v.(type) {
	case nil:
		return absentNode
	case map[string]any:
		n := &Node{Kind: Mapping}
		for k := range t {
			n.Keys = append(n.Keys, k)
		}
		sort.Strings(n.Keys)
		for _, k := range n.Keys {
			n.Items = append(n.Items, fromJSON(t[k]))
		}
		return n
	case []any:
		n := &Node{Kind: Sequence}
		for _, item := range t {
			n.Items = append(n.Items, fromJSON(item))
		}
		return n
	case string:
		return &Node{Kind: Scalar, Value: t}
	case json.Number:
		return &Node{Kind: Scalar, Value: t.String()}
	case bool:
		return &Node{Kind: Scalar, Value: fmt.Sprint(t)}
	default:
		return &Node{Kind: Scalar, Value: fmt.Sprint(t)}
	}
}

// sourceExtensions are tried in order when locating a source document.
var sourceExtensions = []string{".yaml", ".yml", ".jsonc", ".json"}

// findSource returns the path of <dir>/<name>.<ext> for the first
// extension that exists.
func findSource(dir, name string) (string, error) {
	for _, ext := range sourceExtensions {
		path := filepath.Join(dir, name+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s: %w", filepath.Join(dir, name+".yaml"), fs.ErrNotExist)
}

// ReadSource reads and parses a source document, choosing the parser from
// the file extension.
func ReadSource(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var n *Node
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		n, err = ParseJSONC(data)
	default:
		n, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// loadSource locates and reads <dir>/<name>.*. A missing document is
// reported as ErrMissingSource; a document that does not parse is
// ErrMalformedSource.
func loadSource(category, dir, name string) (*Node, string, error) {
	path, err := findSource(dir, name)
	if err != nil {
		return nil, "", &SourceError{Category: category, Path: filepath.Join(dir, name+".yaml"), Err: ErrMissingSource}
	}
	n, err := ReadSource(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, path, &SourceError{Category: category, Path: path, Err: ErrMissingSource}
		}
		return nil, path, &SourceError{Category: category, Path: path, Err: fmt.Errorf("%w: %v", ErrMalformedSource, err)}
	}
	return n, path, nil
}
