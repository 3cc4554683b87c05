package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"akut-backend/models"

	"go.uber.org/zap"
)

// UnknownHazardSlug is returned by AutoNavigate when no hazard matches
const UnknownHazardSlug = "unklare_gefahr"

// HazardCatalog is the read-only hazard metadata catalog
type HazardCatalog interface {
	HazardLookup
	Slugs() []string
	Raw() json.RawMessage
}

// TreeLister enumerates every stored decision tree
type TreeLister interface {
	List(ctx context.Context) ([]*models.DecisionTree, error)
}

// HazardService serves hazard metadata and decision trees
type HazardService struct {
	resolver *TreeResolver
	lister   TreeLister
	catalog  HazardCatalog
	logger   *zap.Logger
}

// HazardServiceOption is a functional option for HazardService
type HazardServiceOption func(*HazardService)

// HazardWithResolver sets the tree resolver
func HazardWithResolver(r *TreeResolver) HazardServiceOption {
	return func(s *HazardService) {
		s.resolver = r
	}
}

// HazardWithTreeLister sets the tree lister
func HazardWithTreeLister(l TreeLister) HazardServiceOption {
	return func(s *HazardService) {
		s.lister = l
	}
}

// HazardWithCatalog sets the hazard catalog
func HazardWithCatalog(c HazardCatalog) HazardServiceOption {
	return func(s *HazardService) {
		s.catalog = c
	}
}

// HazardWithLogger sets the logger
func HazardWithLogger(l *zap.Logger) HazardServiceOption {
	return func(s *HazardService) {
		s.logger = l
	}
}

// NewHazardService creates a new hazard service
func NewHazardService(opts ...HazardServiceOption) *HazardService {
	s := &HazardService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListHazards returns the catalog slugs in sorted order
func (s *HazardService) ListHazards() []string {
	if s.catalog == nil {
		return []string{}
	}
	return s.catalog.Slugs()
}

// Catalog returns the whole catalog document
func (s *HazardService) Catalog() json.RawMessage {
	if s.catalog == nil {
		return json.RawMessage("{}")
	}
	return s.catalog.Raw()
}

// DecisionTree resolves the tree for slug with language fallback
func (s *HazardService) DecisionTree(ctx context.Context, slug, language string) (*ResolvedTree, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is required", ErrInvalidRequest)
	}
	if s.resolver == nil {
		return nil, errors.New("tree resolver not set")
	}
	return s.resolver.Resolve(ctx, slug, language)
}

// HazardDetails combines a hazard's tree with its short description
type HazardDetails struct {
	Slug    string               `json:"slug"`
	Tree    *models.DecisionTree `json:"tree"`
	Summary string               `json:"summary"`
}

// Details returns the tree for slug together with the catalog description in
// language, the fallback language, or a fixed note when neither exists
func (s *HazardService) Details(ctx context.Context, slug, language string) (*HazardDetails, error) {
	resolved, err := s.DecisionTree(ctx, slug, language)
	if err != nil {
		return nil, err
	}

	if language == "" {
		language = s.resolver.FallbackLanguage()
	}
	var summary string
	if s.catalog != nil {
		if meta, ok := s.catalog.Get(slug); ok {
			summary = meta.DescriptionFor(language, s.resolver.FallbackLanguage())
		}
	}
	if summary == "" {
		summary = fmt.Sprintf("Note: no short description is available for hazard '%s'.", slug)
	}

	return &HazardDetails{Slug: slug, Tree: resolved.Tree, Summary: summary}, nil
}

// AllTrees returns every stored decision tree
func (s *HazardService) AllTrees(ctx context.Context) ([]*models.DecisionTree, error) {
	if s.lister == nil {
		return nil, errors.New("tree lister not set")
	}
	trees, err := s.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTreeLoad, err)
	}
	return trees, nil
}

// AutoNavigate guesses the hazard a free-text description is about. Each
// hazard scores one point per catalog name or synonym contained in the
// description; the highest score wins, ties go to the first slug in sorted
// order, and no match yields UnknownHazardSlug.
func (s *HazardService) AutoNavigate(description string) (string, error) {
	description = strings.ToLower(description)
	if description == "" {
		return "", fmt.Errorf("%w: description is required", ErrInvalidRequest)
	}
	if s.catalog == nil {
		return UnknownHazardSlug, nil
	}

	best, bestScore := "", 0
	for _, slug := range s.catalog.Slugs() {
		meta, _ := s.catalog.Get(slug)
		score := 0
		for _, term := range meta.SearchTerms() {
			if term != "" && strings.Contains(description, term) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = slug, score
		}
	}

	if best == "" {
		return UnknownHazardSlug, nil
	}
	s.logger.Debug("Auto-navigated hazard", zap.String("slug", best), zap.Int("score", bestScore))
	return best, nil
}
