package service

import (
	"context"
	"errors"
	"testing"

	"akut-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTree(t *testing.T, doc string) *models.DecisionTree {
	t.Helper()
	tree, err := models.ParseDecisionTreeJSON([]byte(doc))
	require.NoError(t, err)
	return tree
}

func TestResolve_FallsBackToConfiguredLanguage(t *testing.T) {
	store := newFakeTreeStore(t, map[string]string{"fire/de": `{"root":{"text":"Feuer"}}`})
	r := NewTreeResolver(store, "de")

	resolved, err := r.Resolve(context.Background(), "fire", "en")
	require.NoError(t, err)
	assert.Equal(t, "de", resolved.Language)
	assert.Equal(t, []string{"fire/en", "fire/de"}, store.Reads())
}

func TestResolve_FallbackIsConfigurable(t *testing.T) {
	store := newFakeTreeStore(t, map[string]string{"fire/en": `{"root":{"text":"Fire"}}`})
	r := NewTreeResolver(store, "en")

	resolved, err := r.Resolve(context.Background(), "fire", "fr")
	require.NoError(t, err)
	assert.Equal(t, "en", resolved.Language)
}

func TestResolve_NotFound(t *testing.T) {
	store := newFakeTreeStore(t, map[string]string{"flood/de": `{}`})
	r := NewTreeResolver(store, "de")

	_, err := r.Resolve(context.Background(), "fire", "it")
	assert.ErrorIs(t, err, ErrTreeNotFound)

	_, err = r.Resolve(context.Background(), "fire", "de")
	assert.ErrorIs(t, err, ErrTreeNotFound)
	assert.Equal(t, []string{"fire/it", "fire/de", "fire/de"}, store.Reads())
}

func TestResolve_StoreErrorIsLoadError(t *testing.T) {
	store := newFakeTreeStore(t, nil)
	store.err = models.ErrMalformedTree
	r := NewTreeResolver(store, "de")

	_, err := r.Resolve(context.Background(), "fire", "de")
	assert.ErrorIs(t, err, ErrTreeLoad)
	assert.ErrorIs(t, err, models.ErrMalformedTree)
	assert.False(t, errors.Is(err, ErrTreeNotFound))
}

func TestFlatten_RootFirstThenDocumentOrder(t *testing.T) {
	tree := parseTree(t, `{
		"step2": {"id": "s2", "text": "Stay calm"},
		"root": {"text": "Call for help"},
		"meta": "ignored",
		"step3": {"text_simplified": "Leave"},
		"count": 4
	}`)

	assert.Equal(t, []models.FlattenedNode{
		{ID: "root", Text: "Call for help"},
		{ID: "s2", Text: "Stay calm"},
		{ID: "step3", Text: "Leave"},
	}, Flatten(tree))
}

func TestFlatten_RootWithOwnID(t *testing.T) {
	tree := parseTree(t, `{"root": {"id": "start", "text": "Go"}}`)
	assert.Equal(t, []models.FlattenedNode{{ID: "start", Text: "Go"}}, Flatten(tree))
}

func TestFlatten_NormalizesWhitespace(t *testing.T) {
	tree := parseTree(t, `{"a": {"text": "a\n\n  b\tc"}, "b": {"text": "  padded  "}}`)
	nodes := Flatten(tree)
	require.Len(t, nodes, 2)
	assert.Equal(t, "a b c", nodes[0].Text)
	assert.Equal(t, "padded", nodes[1].Text)
}

func TestFlatten_DropsNodesWithoutID(t *testing.T) {
	tree := parseTree(t, `{"": {"text": "nameless"}, "ok": {"text": "kept"}, "empty": {}}`)
	assert.Equal(t, []models.FlattenedNode{
		{ID: "ok", Text: "kept"},
		{ID: "empty", Text: ""},
	}, Flatten(tree))
}

func TestFlatten_Idempotent(t *testing.T) {
	tree := parseTree(t, `{"x": {"text": "1"}, "root": {"text": "0"}, "y": {"text": "2"}}`)
	assert.Equal(t, Flatten(tree), Flatten(tree))
}

func TestFlatten_NilTree(t *testing.T) {
	assert.Empty(t, Flatten(nil))
}

func TestPrefixSelector(t *testing.T) {
	nodes := make([]models.FlattenedNode, 0, 8)
	for _, id := range []string{"root", "a", "b", "c", "d", "e", "f"} {
		nodes = append(nodes, models.FlattenedNode{ID: id})
	}

	cases := []struct {
		name  string
		limit int
		input int
		want  int
	}{
		{"empty", 5, 0, 0},
		{"fewer than limit", 5, 3, 3},
		{"exactly limit", 5, 5, 5},
		{"more than limit", 5, 7, 5},
		{"zero limit uses default", 0, 7, DefaultGroundingLimit},
		{"smaller limit", 2, 7, 2},
		{"limit above default is capped", 10, 7, DefaultGroundingLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PrefixSelector{Limit: tc.limit}.Select(nodes[:tc.input])
			require.Len(t, got, tc.want)
			if tc.want > 0 {
				assert.Equal(t, "root", got[0].ID)
			}
		})
	}
}

func TestPrefixSelector_ReturnsCopy(t *testing.T) {
	nodes := []models.FlattenedNode{{ID: "root"}, {ID: "a"}}
	got := PrefixSelector{Limit: 5}.Select(nodes)
	got[0].ID = "changed"
	assert.Equal(t, "root", nodes[0].ID)
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(PromptInput{
		Slug:     "fire",
		Language: "de",
		Steps: []models.FlattenedNode{
			{ID: "root", Text: "Call for help"},
			{ID: "s2", Text: "Stay calm"},
		},
		Question: "What do I do? ",
	})

	assert.Equal(t, GroundingRules+"\n\nHazard: fire [de]\nRelevant steps:\n- root: Call for help\n- s2: Stay calm", p.System)
	assert.Equal(t, "What do I do? ", p.User)

	msgs := p.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
}

func TestBuildPrompt_OptionalLines(t *testing.T) {
	p := BuildPrompt(PromptInput{
		Slug:     "flood",
		Language: "en",
		Context:  "indoor",
		Summary:  "Move to higher ground.",
		Question: "q",
	})

	assert.Equal(t, GroundingRules+"\n\nHazard: flood [en]\nSummary: Move to higher ground.\nContext: indoor\nRelevant steps:\n", p.System)
}

func TestGroundingRules(t *testing.T) {
	assert.Contains(t, GroundingRules, "Not in the guidance — call emergency services.")
	assert.Contains(t, GroundingRules, "No speculation.")
}
