package domain

import "strings"

// MaxEntitiesPerCategory caps every EntitySet category after normalization.
const MaxEntitiesPerCategory = 10

// EntitySet maps entity categories to ordered, case-insensitively unique
// lists of normalized entity strings.
type EntitySet struct {
	Companies      []string `json:"companies,omitempty"`
	Models         []string `json:"models,omitempty"`
	Topics         []string `json:"topics,omitempty"`
	BusinessModels []string `json:"business_models,omitempty"`
	People         []string `json:"people,omitempty"`
}

// Categories lists the categories in their canonical order.
func (s *EntitySet) Categories() [][]string {
	return [][]string{s.Companies, s.Models, s.Topics, s.BusinessModels, s.People}
}

// All returns the union of every category, preserving order of first
// appearance and deduplicating case-insensitively.
func (s *EntitySet) All() []string {
	if s == nil {
		return nil
	}

	seen := make(map[string]struct{})

	var all []string

	for _, category := range s.Categories() {
		for _, entity := range category {
			key := strings.ToLower(entity)
			if _, ok := seen[key]; ok {
				continue
			}

			seen[key] = struct{}{}

			all = append(all, entity)
		}
	}

	return all
}

// Len counts entities across all categories.
func (s *EntitySet) Len() int {
	if s == nil {
		return 0
	}

	n := 0
	for _, category := range s.Categories() {
		n += len(category)
	}

	return n
}

// IsEmpty reports whether the set holds no entities at all.
func (s *EntitySet) IsEmpty() bool {
	return s.Len() == 0
}

// Merge unions other into s category by category, deduplicating
// case-insensitively and keeping s's entries first. Each category stays
// capped at MaxEntitiesPerCategory. Merging never removes anything already
// present in s.
func (s *EntitySet) Merge(other *EntitySet) {
	if other == nil {
		return
	}

	s.Companies = mergeCategory(s.Companies, other.Companies)
	s.Models = mergeCategory(s.Models, other.Models)
	s.Topics = mergeCategory(s.Topics, other.Topics)
	s.BusinessModels = mergeCategory(s.BusinessModels, other.BusinessModels)
	s.People = mergeCategory(s.People, other.People)
}

func mergeCategory(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, entity := range base {
		seen[strings.ToLower(entity)] = struct{}{}
	}

	for _, entity := range extra {
		if len(base) >= MaxEntitiesPerCategory {
			break
		}

		key := strings.ToLower(entity)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}

		base = append(base, entity)
	}

	return base
}
