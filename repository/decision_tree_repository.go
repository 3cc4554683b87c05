package repository

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"akut-backend/models"
	"akut-backend/storage"
)

// treeExtensions are tried in order when looking up a tree document
var treeExtensions = []string{".json", ".yaml", ".yml"}

// DecisionTreeRepository reads decision tree documents from storage.
// Documents live at {prefix}/{slug}_decision_tree.{language}.{ext}.
type DecisionTreeRepository struct {
	storage storage.Storage
	prefix  string
}

// NewDecisionTreeRepository creates a new decision tree repository
func NewDecisionTreeRepository(s storage.Storage, prefix string) *DecisionTreeRepository {
	return &DecisionTreeRepository{storage: s, prefix: strings.Trim(prefix, "/")}
}

// TreeKey returns the storage key of a tree document
func (r *DecisionTreeRepository) TreeKey(slug, language, ext string) string {
	name := fmt.Sprintf("%s_decision_tree.%s%s", slug, language, ext)
	if r.prefix == "" {
		return name
	}
	return path.Join(r.prefix, name)
}

// Get loads the tree for slug in exactly the given language.
// The boolean is false when no such document exists.
func (r *DecisionTreeRepository) Get(ctx context.Context, slug, language string) (*models.DecisionTree, bool, error) {
	if !validKeyPart(slug) || !validKeyPart(language) {
		return nil, false, nil
	}

	for _, ext := range treeExtensions {
		key := r.TreeKey(slug, language, ext)
		data, err := storage.ReadAll(ctx, r.storage, key)
		if errors.Is(err, storage.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to read decision tree %s: %w", key, err)
		}

		tree, err := models.ParseDecisionTree(key, data)
		if err != nil {
			return nil, false, fmt.Errorf("failed to decode decision tree %s: %w", key, err)
		}
		return tree, true, nil
	}

	return nil, false, nil
}

// List loads every tree document below the repository prefix
func (r *DecisionTreeRepository) List(ctx context.Context) ([]*models.DecisionTree, error) {
	keys, err := r.storage.List(ctx, r.prefix)
	if err != nil {
		return nil, err
	}

	trees := make([]*models.DecisionTree, 0, len(keys))
	for _, key := range keys {
		if !isTreeFile(key) {
			continue
		}
		data, err := storage.ReadAll(ctx, r.storage, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read decision tree %s: %w", key, err)
		}
		tree, err := models.ParseDecisionTree(key, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode decision tree %s: %w", key, err)
		}
		trees = append(trees, tree)
	}

	return trees, nil
}

func isTreeFile(key string) bool {
	ext := strings.ToLower(path.Ext(key))
	for _, e := range treeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// validKeyPart rejects slugs and language codes that would leave the tree prefix
func validKeyPart(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, "/\\") && !strings.Contains(s, "..")
}
