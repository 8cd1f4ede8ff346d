// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"

	"github.com/google/uuid"
)

// Relation is a directed, labeled edge between two entities. Subject and
// Object hold canonical entity names rather than pointers; the graph store
// resolves them on lookup.
type Relation struct {
	// ID is a stable identifier surfaced by the REST API and exports.
	ID uuid.UUID `json:"id" yaml:"id"`

	// Subject is the canonical name of the source entity.
	Subject string `json:"subject" yaml:"subject"`

	// Predicate is the relation-type label: a canonicalized verb phrase
	// such as "founded" or "works_for".
	Predicate string `json:"predicate" yaml:"predicate"`

	// Object is the canonical name of the target entity.
	Object string `json:"object" yaml:"object"`

	// Confidence is the extraction certainty in [0, 1]. Zero means the
	// extractor did not score the relation.
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// Provenance records the sentence the relation was derived from.
	Provenance Span `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// NewRelation builds a Relation between two canonical entity names and
// assigns it a fresh ID.
func NewRelation(subject, predicate, object string, confidence float64, prov Span) Relation {
	return Relation{
		ID:         uuid.New(),
		Subject:    NormalizeName(subject),
		Predicate:  predicate,
		Object:     NormalizeName(object),
		Confidence: confidence,
		Provenance: prov,
	}
}

// Key returns the ordered (subject, predicate, object) triple used for
// exact-duplicate detection. Parallel edges with distinct predicates have
// distinct keys.
func (r Relation) Key() string {
	return fmt.Sprintf("%s\x1f%s\x1f%s", r.Subject, r.Predicate, r.Object)
}

// SelfLoop reports whether subject and object are the same entity.
func (r Relation) SelfLoop() bool {
	return r.Subject == r.Object
}
