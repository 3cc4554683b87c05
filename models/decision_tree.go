package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// RootKey is the conventional key of a decision tree's entry point.
const RootKey = "root"

// ErrMalformedTree is returned when a decision tree document cannot be decoded
var ErrMalformedTree = errors.New("malformed decision tree document")

// TreeFormat identifies the text format a decision tree was decoded from
type TreeFormat string

const (
	TreeFormatJSON TreeFormat = "json"
	TreeFormatYAML TreeFormat = "yaml"
)

// DecisionNode is a node-like record of a decision tree.
// ID, Text and TextSimplified are empty when the document has no usable value for them.
type DecisionNode struct {
	ID             string
	Text           string
	TextSimplified string
}

// TreeEntry is one top-level entry of a decision tree, kept in document order.
// Node is nil when the entry's value is not a record.
type TreeEntry struct {
	Key  string
	Node *DecisionNode
}

// DecisionTree is a decoded decision tree document
type DecisionTree struct {
	Entries []TreeEntry
	Raw     []byte
	Format  TreeFormat
}

// FlattenedNode is a normalized (id, text) pair taken from a decision tree
type FlattenedNode struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Root returns the record stored under the root key, if any
func (t *DecisionTree) Root() (*DecisionNode, bool) {
	for _, entry := range t.Entries {
		if entry.Key == RootKey {
			return entry.Node, entry.Node != nil
		}
	}
	return nil, false
}

// MarshalJSON renders the tree as JSON. JSON sources are returned byte for byte,
// YAML sources are converted keeping the key order of the document.
func (t *DecisionTree) MarshalJSON() ([]byte, error) {
	if t.Format == TreeFormatJSON {
		return t.Raw, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(t.Raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode yaml tree: %w", err)
	}
	var buf bytes.Buffer
	if err := writeYAMLAsJSON(&buf, &doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type yamlPair struct {
	key   string
	value *yaml.Node
}

// yamlPairs lists the members of a mapping in order. Merge keys contribute
// their members first, explicit keys override them, repeated keys keep the
// first position and the last value.
func yamlPairs(mapping *yaml.Node) []yamlPair {
	var pairs []yamlPair
	seen := make(map[string]int)
	add := func(key string, value *yaml.Node) {
		if i, ok := seen[key]; ok {
			pairs[i].value = value
			return
		}
		seen[key] = len(pairs)
		pairs = append(pairs, yamlPair{key: key, value: value})
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], resolveAlias(mapping.Content[i+1])
		if key.ShortTag() != "!!merge" {
			continue
		}
		sources := []*yaml.Node{value}
		if value.Kind == yaml.SequenceNode {
			sources = value.Content
		}
		for _, src := range sources {
			if src = resolveAlias(src); src.Kind == yaml.MappingNode {
				for _, p := range yamlPairs(src) {
					add(p.key, p.value)
				}
			}
		}
	}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := resolveAlias(mapping.Content[i])
		if key.ShortTag() == "!!merge" {
			continue
		}
		add(yamlKey(key), mapping.Content[i+1])
	}
	return pairs
}

// yamlKey renders a mapping key as a JSON object key
func yamlKey(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func writeYAMLAsJSON(buf *bytes.Buffer, n *yaml.Node) error {
	n = resolveAlias(n)
	if n == nil {
		buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLAsJSON(buf, n.Content[0])
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i, p := range yamlPairs(n) {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(p.key)
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLAsJSON(buf, p.value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLAsJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		return writeYAMLScalar(buf, n)
	default:
		return fmt.Errorf("%w: unsupported yaml node kind %d", ErrMalformedTree, n.Kind)
	}
}

func writeYAMLScalar(buf *bytes.Buffer, n *yaml.Node) error {
	if n.ShortTag() != "!!str" {
		var v interface{}
		if err := n.Decode(&v); err == nil {
			// NaN and infinities have no JSON form and fall through to a string
			if out, err := json.Marshal(v); err == nil {
				buf.Write(out)
				return nil
			}
		}
	}
	out, err := json.Marshal(n.Value)
	if err != nil {
		return err
	}
	buf.Write(out)
	return nil
}

// ParseDecisionTree decodes a tree document, choosing the format from the file extension
func ParseDecisionTree(name string, data []byte) (*DecisionTree, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ParseDecisionTreeYAML(data)
	default:
		return ParseDecisionTreeJSON(data)
	}
}

// ParseDecisionTreeJSON decodes a JSON tree document preserving key order
func ParseDecisionTreeJSON(data []byte) (*DecisionTree, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrMalformedTree)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedTree)
	}

	tree := &DecisionTree{Raw: data, Format: TreeFormatJSON}
	seen := make(map[string]int)
	doc.ForEach(func(key, value gjson.Result) bool {
		entry := TreeEntry{Key: key.String()}
		if value.IsObject() {
			entry.Node = &DecisionNode{
				ID:             jsonText(jsonField(value, "id")),
				Text:           jsonText(jsonField(value, "text")),
				TextSimplified: jsonText(jsonField(value, "text_simplified")),
			}
		}
		tree.put(seen, entry)
		return true
	})
	return tree, nil
}

// put adds an entry; a repeated key keeps its first position and takes the later value
func (t *DecisionTree) put(seen map[string]int, entry TreeEntry) {
	if i, ok := seen[entry.Key]; ok {
		t.Entries[i] = entry
		return
	}
	seen[entry.Key] = len(t.Entries)
	t.Entries = append(t.Entries, entry)
}

// jsonField looks up a direct member without gjson path syntax
func jsonField(obj gjson.Result, name string) gjson.Result {
	var found gjson.Result
	obj.ForEach(func(key, value gjson.Result) bool {
		if key.String() == name {
			found = value
		}
		return true
	})
	return found
}

// jsonText renders a value as text, treating null, false, zero and empty values as absent
func jsonText(v gjson.Result) string {
	switch v.Type {
	case gjson.Null, gjson.False:
		return ""
	case gjson.Number:
		if v.Num == 0 {
			return ""
		}
		return v.Raw
	case gjson.String:
		return v.Str
	case gjson.JSON:
		trimmed := strings.Join(strings.Fields(v.Raw), "")
		if trimmed == "[]" || trimmed == "{}" {
			return ""
		}
		return v.Raw
	default:
		return v.String()
	}
}

// ParseDecisionTreeYAML decodes a YAML tree document preserving key order
func ParseDecisionTreeYAML(data []byte) (*DecisionTree, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTree, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedTree)
	}
	top := resolveAlias(doc.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrMalformedTree)
	}

	tree := &DecisionTree{Raw: data, Format: TreeFormatYAML}
	seen := make(map[string]int)
	for _, p := range yamlPairs(top) {
		value := resolveAlias(p.value)
		entry := TreeEntry{Key: p.key}
		if value.Kind == yaml.MappingNode {
			entry.Node = &DecisionNode{
				ID:             yamlText(yamlField(value, "id")),
				Text:           yamlText(yamlField(value, "text")),
				TextSimplified: yamlText(yamlField(value, "text_simplified")),
			}
		}
		tree.put(seen, entry)
	}
	return tree, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func yamlField(mapping *yaml.Node, name string) *yaml.Node {
	for _, p := range yamlPairs(mapping) {
		if p.key == name {
			return resolveAlias(p.value)
		}
	}
	return nil
}

func yamlText(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return ""
		case "!!bool":
			if b, err := strconv.ParseBool(n.Value); err == nil && !b {
				return ""
			}
		case "!!int", "!!float":
			if f, err := strconv.ParseFloat(n.Value, 64); err == nil && f == 0 {
				return ""
			}
		}
		return n.Value
	case yaml.SequenceNode, yaml.MappingNode:
		if len(n.Content) == 0 {
			return ""
		}
		out, err := yaml.Marshal(n)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	default:
		return ""
	}
}
