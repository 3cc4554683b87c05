package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryKeys(tree *DecisionTree) []string {
	keys := make([]string, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		keys = append(keys, e.Key)
	}
	return keys
}

func TestParseDecisionTreeJSON_PreservesOrder(t *testing.T) {
	tree, err := ParseDecisionTreeJSON([]byte(`{
		"zeta": {"text": "z"},
		"root": {"text": "r"},
		"alpha": {"text": "a"},
		"version": 3
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "root", "alpha", "version"}, entryKeys(tree))
	assert.Nil(t, tree.Entries[3].Node)

	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, "r", root.Text)
}

func TestParseDecisionTreeJSON_FieldValues(t *testing.T) {
	tree, err := ParseDecisionTreeJSON([]byte(`{
		"a": {"id": "s1", "text": "Stay calm", "text_simplified": "Calm"},
		"b": {"id": null, "text": "", "text_simplified": "Simple"},
		"c": {"id": 7, "text": 0},
		"d": {"id": "", "text": false},
		"e": {"text": ["x"]}
	}`))
	require.NoError(t, err)

	cases := []struct {
		key  string
		want DecisionNode
	}{
		{"a", DecisionNode{ID: "s1", Text: "Stay calm", TextSimplified: "Calm"}},
		{"b", DecisionNode{TextSimplified: "Simple"}},
		{"c", DecisionNode{ID: "7"}},
		{"d", DecisionNode{}},
		{"e", DecisionNode{Text: `["x"]`}},
	}
	for i, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			require.NotNil(t, tree.Entries[i].Node)
			assert.Equal(t, tc.want, *tree.Entries[i].Node)
		})
	}
}

func TestParseDecisionTreeJSON_Malformed(t *testing.T) {
	for _, doc := range []string{`{"root":`, `[1,2]`, `"text"`, ``} {
		_, err := ParseDecisionTreeJSON([]byte(doc))
		assert.ErrorIs(t, err, ErrMalformedTree, "doc %q", doc)
	}
}

func TestParseDecisionTreeYAML(t *testing.T) {
	tree, err := ParseDecisionTreeYAML([]byte(`
step2:
  id: s2
  text: |
    Stay
    calm
root:
  text_simplified: Call for help
notes: plain string
empty:
  id: ~
  text: 0
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"step2", "root", "notes", "empty"}, entryKeys(tree))
	assert.Equal(t, DecisionNode{ID: "s2", Text: "Stay\ncalm\n"}, *tree.Entries[0].Node)
	assert.Equal(t, DecisionNode{TextSimplified: "Call for help"}, *tree.Entries[1].Node)
	assert.Nil(t, tree.Entries[2].Node)
	assert.Equal(t, DecisionNode{}, *tree.Entries[3].Node)
}

func TestParseDecisionTreeYAML_Malformed(t *testing.T) {
	for _, doc := range []string{"- a\n- b\n", "", "root: [unclosed\n"} {
		_, err := ParseDecisionTreeYAML([]byte(doc))
		assert.ErrorIs(t, err, ErrMalformedTree, "doc %q", doc)
	}
}

func TestDecisionTree_MarshalJSON(t *testing.T) {
	raw := `{"root": {"text": "r"}, "b": 1}`
	tree, err := ParseDecisionTree("fire_decision_tree.de.json", []byte(raw))
	require.NoError(t, err)
	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))

	tree, err = ParseDecisionTree("fire_decision_tree.de.yaml", []byte("root:\n  text: r\nb: 1\n"))
	require.NoError(t, err)
	out, err = json.Marshal(tree)
	require.NoError(t, err)
	assert.JSONEq(t, `{"root": {"text": "r"}, "b": 1}`, string(out))
}

func TestDecisionTree_MarshalJSON_YAMLKeepsOrder(t *testing.T) {
	doc := `
zeta:
  text: z
  id: 7
root:
  text: r
  flags: [true, null, 1.5]
1: numeric key
? [a, b]
: complex key
alpha: ~
`
	tree, err := ParseDecisionTree("fire_decision_tree.de.yaml", []byte(doc))
	require.NoError(t, err)

	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Equal(t,
		`{"zeta":{"text":"z","id":7},"root":{"text":"r","flags":[true,null,1.5]},"1":"numeric key","[a, b]":"complex key","alpha":null}`,
		string(out))
}

func TestDecisionTree_MarshalJSON_YAMLAnchorsAndMerge(t *testing.T) {
	doc := `
base: &base
  text: shared
  id: b
root:
  <<: *base
  id: r
copy: *base
`
	tree, err := ParseDecisionTree("x.yml", []byte(doc))
	require.NoError(t, err)

	out, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Equal(t,
		`{"base":{"text":"shared","id":"b"},"root":{"text":"shared","id":"r"},"copy":{"text":"shared","id":"b"}}`,
		string(out))
}

func TestParseDecisionTree_RepeatedKeysKeepLastValue(t *testing.T) {
	tree, err := ParseDecisionTreeJSON([]byte(`{
		"root": {"text": "first"},
		"s": {"text": "x"},
		"s": {"text": "y"},
		"root": {"text": "second"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"root", "s"}, entryKeys(tree))
	root, ok := tree.Root()
	require.True(t, ok)
	assert.Equal(t, "second", root.Text)
	assert.Equal(t, "y", tree.Entries[1].Node.Text)

	tree, err = ParseDecisionTreeYAML([]byte("a:\n  text: x\nb: 1\na:\n  text: y\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, entryKeys(tree))
	assert.Equal(t, "y", tree.Entries[0].Node.Text)
}
