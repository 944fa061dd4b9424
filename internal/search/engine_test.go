package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termbridge/internal/config"
	"termbridge/internal/domain"
	"termbridge/internal/index"
)

func testTerm(code string, source domain.SourceSystem, name, description string, synonyms ...string) *domain.Term {
	return &domain.Term{
		Code:        code,
		Source:      source,
		Name:        name,
		Description: description,
		Synonyms:    synonyms,
		IsActive:    true,
	}
}

func newTestEngine(t *testing.T, cfg *config.SearchConfig, terms ...*domain.Term) *Engine {
	t.Helper()
	ix := index.New()
	for _, term := range terms {
		ix.Upsert(term)
	}
	return NewEngine(ix, cfg)
}

func codes(hits []Hit) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Term.Code)
	}
	return out
}

func TestSearch_NameMatchOutranksSynonymMatch(t *testing.T) {
	// Direct name match must beat synonym match for the same query.
	engine := newTestEngine(t, nil,
		testTerm("A01.1", domain.SourceNAMASTE, "Jvara", "", "fever"),
		testTerm("MG20", domain.SourceICD11, "Fever", ""),
	)

	hits, err := engine.Search(context.Background(), "fever")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "MG20", hits[0].Term.Code)
	assert.Equal(t, "A01.1", hits[1].Term.Code)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearch_SynonymMatchOutranksDescriptionMatch(t *testing.T) {
	engine := newTestEngine(t, nil,
		testTerm("S1", domain.SourceICD11, "Alpha", "", "fever"),
		testTerm("D1", domain.SourceICD11, "Beta", "fever of unknown origin"),
	)

	hits, err := engine.Search(context.Background(), "fever")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, []string{"S1", "D1"}, codes(hits))
}

func TestSearch_FuzzyTolerance(t *testing.T) {
	engine := newTestEngine(t, nil,
		testTerm("MG20", domain.SourceICD11, "Fever", ""),
	)

	// One-character insertion still finds the term.
	hits, err := engine.Search(context.Background(), "feever")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "MG20", hits[0].Term.Code)
}

func TestSearch_FixedFuzzinessZeroDisablesTypoMatching(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	cfg.Fuzziness = "0"
	engine := newTestEngine(t, cfg,
		testTerm("MG20", domain.SourceICD11, "Fever", ""),
	)

	hits, err := engine.Search(context.Background(), "feever")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_PrefixMatching(t *testing.T) {
	engine := newTestEngine(t, nil,
		testTerm("MG30.0", domain.SourceICD11, "Migraine", ""),
	)

	hits, err := engine.Search(context.Background(), "migr")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "MG30.0", hits[0].Term.Code)
}

func TestSearch_SynonymExpansion(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	cfg.Synonyms = map[string][]string{"fever": {"jvara"}}
	engine := newTestEngine(t, cfg,
		testTerm("A01.1", domain.SourceNAMASTE, "Jvara", ""),
	)

	// "fever" appears nowhere in the term; the synonym table bridges it.
	hits, err := engine.Search(context.Background(), "fever")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "A01.1", hits[0].Term.Code)
}

func TestSearch_DirectNameMatchOutranksExpandedNameMatch(t *testing.T) {
	// With the shipped synonym table "fever" expands to "jvara", which hits
	// A01.1's name directly. The discount on expanded tokens keeps the term
	// the user actually typed on top.
	cfg, err := config.LoadSearchConfig("../../configs/search.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, cfg.Synonyms, "shipped synonym table should load")

	engine := newTestEngine(t, cfg,
		testTerm("A01.1", domain.SourceNAMASTE, "Jvara", "", "fever"),
		testTerm("MG20", domain.SourceICD11, "Fever", ""),
	)

	hits, err := engine.Search(context.Background(), "fever")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "MG20", hits[0].Term.Code)
	assert.Equal(t, "A01.1", hits[1].Term.Code)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestSearch_SynonymHitCannotStackWithDirectHit(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	cfg.Synonyms = map[string][]string{"fever": {"pyrexia"}}
	engine := newTestEngine(t, cfg,
		testTerm("MG20", domain.SourceICD11, "Fever", "", "pyrexia"),
		testTerm("MG21", domain.SourceICD11, "Fever", ""),
	)

	hits, err := engine.Search(context.Background(), "fever")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	// Both terms score the full name weight; the synonym hit on MG20 adds
	// nothing on top, so the tie breaks on code.
	assert.InDelta(t, hits[0].Score, hits[1].Score, 1e-9)
	assert.Equal(t, []string{"MG20", "MG21"}, codes(hits))
}

func TestSearch_EmptyWhenNothingClearsThreshold(t *testing.T) {
	engine := newTestEngine(t, nil,
		testTerm("MG20", domain.SourceICD11, "Fever", ""),
	)

	hits, err := engine.Search(context.Background(), "zzzzqqqq")
	require.NoError(t, err)
	assert.NotNil(t, hits)
	assert.Empty(t, hits)
}

func TestSearch_ResultLimit(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	cfg.ResultLimit = 3
	terms := []*domain.Term{
		testTerm("C1", domain.SourceICD11, "Fever type one", ""),
		testTerm("C2", domain.SourceICD11, "Fever type two", ""),
		testTerm("C3", domain.SourceICD11, "Fever type three", ""),
		testTerm("C4", domain.SourceICD11, "Fever type four", ""),
		testTerm("C5", domain.SourceICD11, "Fever type five", ""),
	}
	engine := newTestEngine(t, cfg, terms...)

	hits, err := engine.Search(context.Background(), "fever")
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestSearch_DeterministicTieBreak(t *testing.T) {
	engine := newTestEngine(t, nil,
		testTerm("B2", domain.SourceICD11, "Fever", ""),
		testTerm("A1", domain.SourceICD11, "Fever", ""),
	)

	for i := 0; i < 5; i++ {
		hits, err := engine.Search(context.Background(), "fever")
		require.NoError(t, err)
		require.Equal(t, []string{"A1", "B2"}, codes(hits))
	}
}

func TestSearch_ScoresStrictlyDescending(t *testing.T) {
	engine := newTestEngine(t, nil,
		testTerm("N1", domain.SourceICD11, "Fever", ""),
		testTerm("S1", domain.SourceNAMASTE, "Jvara", "", "fever"),
		testTerm("D1", domain.SourceICD11, "Cold", "often confused with fever"),
	)

	hits, err := engine.Search(context.Background(), "fever")
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
	assert.Equal(t, []string{"N1", "S1", "D1"}, codes(hits))
}

func TestSearch_CancelledContext(t *testing.T) {
	engine := newTestEngine(t, nil,
		testTerm("MG20", domain.SourceICD11, "Fever", ""),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine.Search(ctx, "fever")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_WeightsAreConfigurable(t *testing.T) {
	cfg := config.DefaultSearchConfig()
	// Invert the usual ordering: description outweighs name.
	cfg.FieldWeights = config.FieldWeights{Name: 1.0, Synonyms: 1.5, Description: 3.0}
	engine := newTestEngine(t, cfg,
		testTerm("N1", domain.SourceICD11, "Fever", ""),
		testTerm("D1", domain.SourceICD11, "Cold", "fever"),
	)

	hits, err := engine.Search(context.Background(), "fever")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "D1", hits[0].Term.Code)
}
