// Package cluster groups deduplicated candidates into story clusters. The
// Provider contract is pluggable: any algorithm that emits StoryClusters and
// singletons per mode can back the pipeline. The lexical provider in this
// package groups by connected components over a pairwise similarity graph.
package cluster

import (
	"context"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

// Defaults for the two clustering regimes. Both are configuration, not
// constants of the algorithm.
const (
	// DefaultEventThreshold is the fixed, tight similarity threshold for
	// EVENT mode. Events may span multiple days, so no temporal constraint
	// applies.
	DefaultEventThreshold = 0.86

	// THEME mode adapts its threshold to the batch: median positive pairwise
	// similarity minus DefaultThemeMargin, clamped to [min, max]. Members of
	// a theme must additionally fall within the temporal window.
	DefaultThemeMargin       = 0.10
	DefaultThemeMinThreshold = 0.35
	DefaultThemeMaxThreshold = 0.75
	DefaultThemeWindowDays   = 3
)

// Config tunes both clustering regimes. Zero values fall back to defaults.
type Config struct {
	EventThreshold    float64
	ThemeMargin       float64
	ThemeMinThreshold float64
	ThemeMaxThreshold float64
	ThemeWindowDays   int
}

func (c Config) withDefaults() Config {
	if c.EventThreshold <= 0 {
		c.EventThreshold = DefaultEventThreshold
	}

	if c.ThemeMargin <= 0 {
		c.ThemeMargin = DefaultThemeMargin
	}

	if c.ThemeMinThreshold <= 0 {
		c.ThemeMinThreshold = DefaultThemeMinThreshold
	}

	if c.ThemeMaxThreshold <= 0 {
		c.ThemeMaxThreshold = DefaultThemeMaxThreshold
	}

	if c.ThemeWindowDays <= 0 {
		c.ThemeWindowDays = DefaultThemeWindowDays
	}

	return c
}

// Debug carries provider-internal observations for logging.
type Debug struct {
	Threshold   float64 `json:"threshold"`
	EdgeCount   int     `json:"edge_count"`
	PairsScored int     `json:"pairs_scored"`
}

// Provider is the clustering capability consumed by the pipeline.
type Provider interface {
	ClusterStories(ctx context.Context, candidates []domain.Candidate, mode domain.Mode) ([]domain.StoryCluster, []domain.Candidate, Debug, error)
}
