package entities

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DragonSun329/briefai/internal/core/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"gpt4", "gpt-4"},
		{"GPT 4", "gpt-4"},
		{"gpt-4", "gpt-4"},
		{"open ai", "OpenAI"},
		{"OpenAI", "OpenAI"},
		{"  Anthropic  ", "Anthropic"},
		{"Quantum Widgets Inc.", "Quantum Widgets Inc."},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"gpt 4", "OPENAI", "Sam Altman", "Weird-Entity 2.0"}

	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestLocalTaggerExtract(t *testing.T) {
	tagger := NewLocalTagger()

	set, err := tagger.Extract(context.Background(), "OpenAI releases GPT-5 with major reasoning gains, says Sam Altman. Subscription pricing unchanged.")
	require.NoError(t, err)

	assert.Contains(t, set.Companies, "OpenAI")
	assert.Contains(t, set.Models, "gpt-5")
	assert.Contains(t, set.People, "Sam Altman")
	assert.Contains(t, set.BusinessModels, "subscription")
}

func TestLocalTaggerWordBoundaries(t *testing.T) {
	tagger := NewLocalTagger()

	set, err := tagger.Extract(context.Background(), "The metadata standard gains traction")
	require.NoError(t, err)
	assert.NotContains(t, set.Companies, "Meta")
}

func TestLocalTaggerConfidence(t *testing.T) {
	tagger := NewLocalTagger()

	empty := &domain.EntitySet{}
	assert.Zero(t, tagger.Confidence(empty))

	half := &domain.EntitySet{Companies: []string{"a", "b"}, Models: []string{"c", "d"}}
	assert.InDelta(t, 0.5, tagger.Confidence(half), 1e-9)

	full := &domain.EntitySet{
		Companies: []string{"a", "b", "c", "d"},
		Models:    []string{"e", "f", "g", "h", "i"},
	}
	assert.Equal(t, 1.0, tagger.Confidence(full))
}

type stubRemote struct {
	set *domain.EntitySet
	err error
}

func (s *stubRemote) Extract(context.Context, string) (*domain.EntitySet, error) {
	return s.set, s.err
}

func TestStagedSkipsRemoteWhenConfident(t *testing.T) {
	logger := zerolog.Nop()
	remote := &stubRemote{err: errors.New("should not be called")}
	staged := NewStaged(NewLocalTagger(), remote, 0.3, &logger)

	text := "OpenAI and Anthropic and Google and Nvidia discuss GPT-5, Claude, funding and chips"

	set, err := staged.Extract(context.Background(), text)
	require.NoError(t, err)
	assert.False(t, set.IsEmpty())
}

func TestStagedMergeNeverReducesLocal(t *testing.T) {
	logger := zerolog.Nop()
	remote := &stubRemote{set: &domain.EntitySet{
		Companies: []string{"openai", "Quantum Widgets"},
		Topics:    []string{"funding"},
	}}
	staged := NewStaged(NewLocalTagger(), remote, 0.99, &logger)

	set, err := staged.Extract(context.Background(), "OpenAI ships something new")
	require.NoError(t, err)

	// Local find survives, remote adds without duplicating case-insensitively.
	assert.Contains(t, set.Companies, "OpenAI")
	assert.Contains(t, set.Companies, "Quantum Widgets")
	assert.Len(t, set.Companies, 2)
	assert.Contains(t, set.Topics, "funding")
}

func TestStagedDegradesOnRemoteFailure(t *testing.T) {
	logger := zerolog.Nop()
	remote := &stubRemote{err: errors.New("timeout")}
	staged := NewStaged(NewLocalTagger(), remote, 0.99, &logger)

	set, err := staged.Extract(context.Background(), "OpenAI ships something new")
	require.NoError(t, err)
	assert.Contains(t, set.Companies, "OpenAI")
}

func TestSimilarity(t *testing.T) {
	a := &domain.EntitySet{Companies: []string{"OpenAI"}, Models: []string{"gpt-5"}}
	b := &domain.EntitySet{Companies: []string{"openai"}, Models: []string{"gpt-5"}, Topics: []string{"funding"}}

	got := Similarity(a, b)
	assert.InDelta(t, 2.0/3.0, got, 1e-9)
}

func TestSimilarityEmptySets(t *testing.T) {
	assert.Zero(t, Similarity(&domain.EntitySet{}, &domain.EntitySet{Companies: []string{"OpenAI"}}))
	assert.Zero(t, Similarity(&domain.EntitySet{}, &domain.EntitySet{}))
}
