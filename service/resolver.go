package service

import (
	"context"
	"fmt"

	"akut-backend/models"
)

// TreeStore looks up a decision tree document for a slug in exactly one language.
// A missing document is reported as ok == false, not as an error.
type TreeStore interface {
	Get(ctx context.Context, slug, language string) (tree *models.DecisionTree, ok bool, err error)
}

// ResolvedTree is a tree together with the language it was actually found in
type ResolvedTree struct {
	Tree     *models.DecisionTree
	Language string
}

// TreeResolver finds the tree for a requested language, falling back to a
// single configured language
type TreeResolver struct {
	store    TreeStore
	fallback string
}

// NewTreeResolver creates a resolver over store with the given fallback language
func NewTreeResolver(store TreeStore, fallbackLanguage string) *TreeResolver {
	return &TreeResolver{store: store, fallback: fallbackLanguage}
}

// FallbackLanguage returns the language tried when the requested one is absent
func (r *TreeResolver) FallbackLanguage() string {
	return r.fallback
}

// Resolve reads the tree for slug in language, then in the fallback language.
// It fails with ErrTreeNotFound when neither exists and ErrTreeLoad when a
// document exists but cannot be read.
func (r *TreeResolver) Resolve(ctx context.Context, slug, language string) (*ResolvedTree, error) {
	if language == "" {
		language = r.fallback
	}

	candidates := []string{language}
	if language != r.fallback {
		candidates = append(candidates, r.fallback)
	}

	for _, lang := range candidates {
		tree, ok, err := r.store.Get(ctx, slug, lang)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTreeLoad, err)
		}
		if ok {
			return &ResolvedTree{Tree: tree, Language: lang}, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrTreeNotFound, slug)
}
