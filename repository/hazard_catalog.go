package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"akut-backend/models"
	"akut-backend/storage"

	"go.uber.org/zap"
)

// HazardCatalog is the read-only hazard metadata catalog (hazards_meta.json)
type HazardCatalog struct {
	raw     json.RawMessage
	hazards map[string]*models.HazardMeta
	slugs   []string
}

// LoadHazardCatalog reads the catalog from storage. A missing or unreadable
// catalog yields an empty one.
func LoadHazardCatalog(ctx context.Context, s storage.Storage, key string, logger *zap.Logger) *HazardCatalog {
	data, err := storage.ReadAll(ctx, s, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			logger.Warn("Hazard catalog not found, using empty catalog", zap.String("key", key))
		} else {
			logger.Error("Failed to read hazard catalog", zap.String("key", key), zap.Error(err))
		}
		return ParseHazardCatalogOrEmpty(nil, logger)
	}
	return ParseHazardCatalogOrEmpty(data, logger)
}

// ParseHazardCatalogOrEmpty parses catalog data, logging and returning an empty catalog on failure
func ParseHazardCatalogOrEmpty(data []byte, logger *zap.Logger) *HazardCatalog {
	if len(data) == 0 {
		c, _ := ParseHazardCatalog([]byte("{}"))
		return c
	}
	c, err := ParseHazardCatalog(data)
	if err != nil {
		logger.Error("Failed to parse hazard catalog", zap.Error(err))
		c, _ = ParseHazardCatalog([]byte("{}"))
	}
	return c
}

// ParseHazardCatalog decodes catalog JSON. Entries whose shape does not match
// HazardMeta are kept with empty metadata.
func ParseHazardCatalog(data []byte) (*HazardCatalog, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode hazard catalog: %w", err)
	}

	c := &HazardCatalog{
		raw:     json.RawMessage(data),
		hazards: make(map[string]*models.HazardMeta, len(entries)),
		slugs:   make([]string, 0, len(entries)),
	}
	for slug, raw := range entries {
		meta := &models.HazardMeta{}
		if err := json.Unmarshal(raw, meta); err != nil {
			meta = &models.HazardMeta{}
		}
		c.hazards[slug] = meta
		c.slugs = append(c.slugs, slug)
	}
	sort.Strings(c.slugs)

	return c, nil
}

// Get returns the metadata for slug
func (c *HazardCatalog) Get(slug string) (*models.HazardMeta, bool) {
	meta, ok := c.hazards[slug]
	return meta, ok
}

// Slugs returns all hazard slugs, sorted
func (c *HazardCatalog) Slugs() []string {
	out := make([]string, len(c.slugs))
	copy(out, c.slugs)
	return out
}

// Raw returns the catalog document as stored
func (c *HazardCatalog) Raw() json.RawMessage {
	return c.raw
}
