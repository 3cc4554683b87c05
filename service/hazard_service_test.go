package service

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"akut-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// catalogFixture implements HazardCatalog over fakeCatalog
type catalogFixture struct {
	fakeCatalog
}

func (c catalogFixture) Slugs() []string {
	slugs := make([]string, 0, len(c.fakeCatalog))
	for slug := range c.fakeCatalog {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

func (c catalogFixture) Raw() json.RawMessage {
	data, _ := json.Marshal(c.fakeCatalog)
	return data
}

func newTestCatalog() catalogFixture {
	return catalogFixture{fakeCatalog{
		"fire": {
			Name:        map[string]string{"de": "Brand", "en": "Fire"},
			Description: map[string]string{"de": "Gebäude verlassen.", "en": "Leave the building."},
			Synonyms:    map[string][]string{"en": {"smoke", "flames"}},
		},
		"flood": {
			Name:     map[string]string{"en": "Flood"},
			Synonyms: map[string][]string{"en": {"water", "rain"}},
		},
		"storm": {
			Name:     map[string]string{"en": "Storm"},
			Synonyms: map[string][]string{"en": {"rain", ""}},
		},
	}}
}

func newTestHazardService(t *testing.T) *HazardService {
	store := newFakeTreeStore(t, map[string]string{
		"fire/de":  `{"root": {"text": "Feuer"}}`,
		"fire/en":  `{"root": {"text": "Fire"}}`,
		"flood/de": `{"root": {"text": "Wasser"}}`,
	})
	return NewHazardService(
		HazardWithResolver(NewTreeResolver(store, "de")),
		HazardWithTreeLister(store),
		HazardWithCatalog(newTestCatalog()),
	)
}

func TestHazardService_ListAndCatalog(t *testing.T) {
	svc := newTestHazardService(t)
	assert.Equal(t, []string{"fire", "flood", "storm"}, svc.ListHazards())
	assert.Contains(t, string(svc.Catalog()), `"fire"`)

	empty := NewHazardService()
	assert.Empty(t, empty.ListHazards())
	assert.JSONEq(t, `{}`, string(empty.Catalog()))
}

func TestHazardService_DecisionTree(t *testing.T) {
	svc := newTestHazardService(t)
	ctx := context.Background()

	resolved, err := svc.DecisionTree(ctx, "fire", "en")
	require.NoError(t, err)
	assert.Equal(t, "en", resolved.Language)

	resolved, err = svc.DecisionTree(ctx, "flood", "it")
	require.NoError(t, err)
	assert.Equal(t, "de", resolved.Language)

	_, err = svc.DecisionTree(ctx, "meteor", "")
	assert.ErrorIs(t, err, ErrTreeNotFound)

	_, err = svc.DecisionTree(ctx, "", "de")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestHazardService_Details(t *testing.T) {
	svc := newTestHazardService(t)
	ctx := context.Background()

	cases := []struct {
		slug, lang, summary string
	}{
		{"fire", "en", "Leave the building."},
		{"fire", "fr", "Gebäude verlassen."},
		{"fire", "", "Gebäude verlassen."},
		{"flood", "en", "Note: no short description is available for hazard 'flood'."},
	}
	for _, tc := range cases {
		t.Run(tc.slug+"/"+tc.lang, func(t *testing.T) {
			details, err := svc.Details(ctx, tc.slug, tc.lang)
			require.NoError(t, err)
			assert.Equal(t, tc.slug, details.Slug)
			assert.Equal(t, tc.summary, details.Summary)
			assert.NotNil(t, details.Tree)
		})
	}

	_, err := svc.Details(ctx, "storm", "en")
	assert.ErrorIs(t, err, ErrTreeNotFound)
}

func TestHazardService_AllTrees(t *testing.T) {
	svc := newTestHazardService(t)
	trees, err := svc.AllTrees(context.Background())
	require.NoError(t, err)
	assert.Len(t, trees, 3)

	store := newFakeTreeStore(t, nil)
	store.err = models.ErrMalformedTree
	broken := NewHazardService(HazardWithTreeLister(store))
	_, err = broken.AllTrees(context.Background())
	assert.ErrorIs(t, err, ErrTreeLoad)
}

func TestHazardService_AutoNavigate(t *testing.T) {
	svc := newTestHazardService(t)

	cases := []struct {
		description, want string
	}{
		{"There is SMOKE and flames in the kitchen", "fire"},
		{"Heavy rain and water in the basement", "flood"},
		{"rain", "flood"}, // tie between flood and storm goes to the first slug
		{"a strange noise", UnknownHazardSlug},
	}
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			got, err := svc.AutoNavigate(tc.description)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := svc.AutoNavigate("")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
