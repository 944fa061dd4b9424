package domain

import (
	"strings"
	"time"
)

// SourceSystem identifies the vocabulary a code belongs to.
type SourceSystem string

const (
	SourceNAMASTE SourceSystem = "NAMASTE" // National Ayurveda Morbidity Codes
	SourceICD11   SourceSystem = "ICD-11"  // WHO International Classification of Diseases, 11th revision
)

// SourceSystems is the closed set of vocabularies the service accepts.
// Extending it is a configuration change, not a data change.
var SourceSystems = []SourceSystem{SourceNAMASTE, SourceICD11}

// ParseSourceSystem resolves a case-insensitive system name against the
// known set. Returns "" if the name is not recognized.
func ParseSourceSystem(s string) SourceSystem {
	for _, sys := range SourceSystems {
		if strings.EqualFold(string(sys), s) {
			return sys
		}
	}
	return ""
}

// Term is a single coded concept from one source vocabulary
// (corresponds to the terms table).
type Term struct {
	Code        string       `db:"code"`
	Source      SourceSystem `db:"source"`
	Name        string       `db:"name"`
	Description string       `db:"description"`
	Synonyms    []string     `db:"synonyms"` // stored comma-joined
	IsActive    bool         `db:"is_active"`
	Version     string       `db:"version"` // source dataset revision tag
	CreatedAt   time.Time    `db:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// Key returns the natural key of the term. (code, source) is unique across
// all terms and is the only supported write path.
func (t *Term) Key() TermKey {
	return TermKey{Code: t.Code, Source: t.Source}
}

// Validate checks required fields before any write.
func (t *Term) Validate() error {
	if strings.TrimSpace(t.Code) == "" {
		return &ValidationError{Field: "code", Reason: "must not be empty"}
	}
	if t.Source == "" {
		return &ValidationError{Field: "source", Reason: "must not be empty"}
	}
	if ParseSourceSystem(string(t.Source)) == "" {
		return &ValidationError{Field: "source", Reason: "unknown source system: " + string(t.Source)}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	return nil
}

// TermKey is the compound natural key (code, source).
type TermKey struct {
	Code   string
	Source SourceSystem
}

// JoinSynonyms renders the synonym list the way it is persisted.
func JoinSynonyms(synonyms []string) string {
	return strings.Join(synonyms, ", ")
}

// SplitSynonyms parses a comma-joined synonym string, dropping empties.
func SplitSynonyms(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
