package models

import (
	"sort"
	"strings"
)

// HazardMeta holds catalog data for a hazard: translated names, short
// descriptions, search synonyms and the locations the hazard applies to
type HazardMeta struct {
	Name        map[string]string   `json:"name,omitempty"`
	Description map[string]string   `json:"description,omitempty"`
	Synonyms    map[string][]string `json:"synonyms,omitempty"`
	Locations   []string            `json:"locations,omitempty"`
}

// DescriptionFor returns the description in lang, falling back to fallback
func (m *HazardMeta) DescriptionFor(lang, fallback string) string {
	if m == nil {
		return ""
	}
	if d := m.Description[lang]; d != "" {
		return d
	}
	return m.Description[fallback]
}

// AnyDescription returns the description in preferred, or the first non-empty
// description in language order
func (m *HazardMeta) AnyDescription(preferred string) string {
	if m == nil {
		return ""
	}
	if d := m.Description[preferred]; d != "" {
		return d
	}
	langs := make([]string, 0, len(m.Description))
	for lang := range m.Description {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		if d := m.Description[lang]; d != "" {
			return d
		}
	}
	return ""
}

// SearchTerms returns all names and synonyms in every language, lower-cased
func (m *HazardMeta) SearchTerms() []string {
	if m == nil {
		return nil
	}
	var terms []string
	for _, name := range m.Name {
		terms = append(terms, strings.ToLower(name))
	}
	for _, synonyms := range m.Synonyms {
		for _, s := range synonyms {
			terms = append(terms, strings.ToLower(s))
		}
	}
	return terms
}
