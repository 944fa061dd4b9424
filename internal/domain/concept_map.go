package domain

import (
	"strings"
	"time"
)

// Relationship is the semantic kind of a concept-map edge.
type Relationship string

const (
	RelEquivalent    Relationship = "equivalent"
	RelBroadToNarrow Relationship = "broad-to-narrow"
	RelNarrowToBroad Relationship = "narrow-to-broad"
	RelRelated       Relationship = "related"
)

// Relationships lists the accepted edge kinds.
var Relationships = []Relationship{RelEquivalent, RelBroadToNarrow, RelNarrowToBroad, RelRelated}

// ParseRelationship resolves a case-insensitive relationship name.
// Returns "" if unknown.
func ParseRelationship(s string) Relationship {
	for _, r := range Relationships {
		if strings.EqualFold(string(r), s) {
			return r
		}
	}
	return ""
}

// ConceptMap is a directed cross-system relationship between two codes
// (corresponds to the concept_map table). source_system == target_system is
// legal: self-mappings across versions of one vocabulary exist.
type ConceptMap struct {
	SourceCode   string       `db:"source_code"`
	SourceSystem SourceSystem `db:"source_system"`
	TargetCode   string       `db:"target_code"`
	TargetSystem SourceSystem `db:"target_system"`
	Relationship Relationship `db:"relationship"`
	CreatedAt    time.Time    `db:"created_at"`
}

// Validate checks required fields before any write.
func (m *ConceptMap) Validate() error {
	if strings.TrimSpace(m.SourceCode) == "" {
		return &ValidationError{Field: "source_code", Reason: "must not be empty"}
	}
	if strings.TrimSpace(m.TargetCode) == "" {
		return &ValidationError{Field: "target_code", Reason: "must not be empty"}
	}
	if ParseSourceSystem(string(m.SourceSystem)) == "" {
		return &ValidationError{Field: "source_system", Reason: "unknown source system: " + string(m.SourceSystem)}
	}
	if ParseSourceSystem(string(m.TargetSystem)) == "" {
		return &ValidationError{Field: "target_system", Reason: "unknown source system: " + string(m.TargetSystem)}
	}
	if ParseRelationship(string(m.Relationship)) == "" {
		return &ValidationError{Field: "relationship", Reason: "unknown relationship: " + string(m.Relationship)}
	}
	return nil
}
