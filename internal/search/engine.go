package search

import (
	"context"
	"sort"

	"termbridge/internal/config"
	"termbridge/internal/domain"
	"termbridge/internal/index"
)

// Match-type multipliers: an exact token hit always beats a prefix hit,
// which always beats a fuzzy hit, within the same field.
const (
	exactFactor  = 1.0
	prefixFactor = 0.7
	fuzzyFactor  = 0.5

	// synonymDiscount scales matches reached through query-time synonym
	// expansion. Below 1.0 so a term hit by the user's own token always
	// outranks a term hit only through an expanded equivalent.
	synonymDiscount = 0.8
)

// Hit is one scored search candidate.
type Hit struct {
	Term  *domain.Term
	Score float64
}

// Engine executes ranked multi-field queries against the index. The index
// only ever contains active terms, so inactive exclusion holds by
// construction.
type Engine struct {
	idx      *index.Index
	analyzer *index.SearchAnalyzer
	cfg      *config.SearchConfig
}

func NewEngine(idx *index.Index, cfg *config.SearchConfig) *Engine {
	if cfg == nil {
		cfg = config.DefaultSearchConfig()
	}
	return &Engine{
		idx:      idx,
		analyzer: index.NewSearchAnalyzer(cfg.Synonyms),
		cfg:      cfg,
	}
}

// Search returns up to result_limit hits in strictly descending score order;
// ties break on code ascending so repeated identical queries are stable.
// No candidate above min_score yields an empty slice, not an error.
func (e *Engine) Search(ctx context.Context, query string) ([]Hit, error) {
	// Each original query token and its synonym class count once: the best
	// match inside the class wins, so a synonym hit can never stack on top
	// of a direct hit for the same token.
	classes := e.analyzer.Classes(query)
	if len(classes) == 0 {
		return []Hit{}, nil
	}

	scores := make(map[domain.TermKey]float64)
	for _, class := range classes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best := make(map[domain.TermKey]float64)
		for i, tok := range class {
			// class[0] is the user's own token; the rest came from the
			// synonym table and score at a discount.
			scale := 1.0
			if i > 0 {
				scale = synonymDiscount
			}
			e.scoreToken(tok, scale, best)
		}
		for key, s := range best {
			scores[key] += s
		}
	}

	hits := make([]Hit, 0, len(scores))
	norm := float64(len(classes)) * e.cfg.FieldWeights.Name
	for key, raw := range scores {
		score := raw / norm
		if score < e.cfg.MinScore {
			continue
		}
		if term := e.idx.Doc(key); term != nil {
			hits = append(hits, Hit{Term: term, Score: score})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Term.Code != hits[j].Term.Code {
			return hits[i].Term.Code < hits[j].Term.Code
		}
		return hits[i].Term.Source < hits[j].Term.Source
	})

	if len(hits) > e.cfg.ResultLimit {
		hits = hits[:e.cfg.ResultLimit]
	}
	return hits, nil
}

// scoreToken merges the best achievable score for tok into best, scaled for
// how the token entered the query (1.0 direct, discounted for expansions).
func (e *Engine) scoreToken(tok string, scale float64, best map[domain.TermKey]float64) {
	e.merge(best, e.idx.ExactMatches(tok), exactFactor*scale)
	e.merge(best, e.idx.PrefixMatches(tok), prefixFactor*scale)

	maxDist := e.fuzziness(tok)
	if maxDist > 0 {
		e.merge(best, e.idx.FuzzyMatches(tok, maxDist), fuzzyFactor*scale)
	}
}

func (e *Engine) merge(best map[domain.TermKey]float64, matches map[domain.TermKey]index.FieldMask, factor float64) {
	for key, mask := range matches {
		score := factor * e.fieldWeight(mask)
		if score > best[key] {
			best[key] = score
		}
	}
}

// fieldWeight takes the strongest field the token occurred in.
func (e *Engine) fieldWeight(mask index.FieldMask) float64 {
	w := e.cfg.FieldWeights
	switch {
	case mask.Has(index.FieldName):
		return w.Name
	case mask.Has(index.FieldSynonyms):
		return w.Synonyms
	case mask.Has(index.FieldDescription):
		return w.Description
	default:
		return 0
	}
}

func (e *Engine) fuzziness(tok string) int {
	if n, fixed := e.cfg.FixedFuzziness(); fixed {
		return n
	}
	return index.AutoFuzziness(len([]rune(tok)))
}
