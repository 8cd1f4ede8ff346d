// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the value objects shared across llamagraph stages:
// entities, relations, provenance spans, and stage configuration.
package types

import (
	"sort"
	"strings"
)

// EntityType categorizes a named entity extracted from text.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityDate         EntityType = "date"
	EntityOther        EntityType = "other"
)

// ParseEntityType maps an NER label to an EntityType. It accepts both
// spaCy-style and CoNLL/BIO-style labels; anything unrecognized maps to
// EntityOther.
func ParseEntityType(label string) EntityType {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "PER", "PERSON":
		return EntityPerson
	case "ORG", "ORGANIZATION":
		return EntityOrganization
	case "LOC", "GPE", "LOCATION", "FAC":
		return EntityLocation
	case "DATE", "TIME":
		return EntityDate
	default:
		return EntityOther
	}
}

// Specificity orders entity types for merge conflicts. EntityOther is the
// least specific; all concrete types rank equally above it.
func (t EntityType) Specificity() int {
	if t == EntityOther || t == "" {
		return 0
	}
	return 1
}

// Span locates a mention in the source text by byte offsets. Relation
// provenance additionally carries the sentence the relation was found in.
type Span struct {
	Start    int    `json:"start" yaml:"start"`
	End      int    `json:"end" yaml:"end"`
	Sentence string `json:"sentence,omitempty" yaml:"sentence,omitempty"`
}

// Entity is a node in the knowledge graph.
type Entity struct {
	// Name is the canonical identifier: the case-normalized form used
	// for deduplication. See NormalizeName.
	Name string `json:"name" yaml:"name"`

	// DisplayName is the first surface form seen in the source text.
	DisplayName string `json:"display_name" yaml:"display_name"`

	// Type categorizes the entity: person, organization, location, date, or other.
	Type EntityType `json:"type" yaml:"type"`

	// Aliases is the sorted set of distinct surface forms seen for this entity.
	Aliases []string `json:"aliases" yaml:"aliases"`

	// Occurrences counts mentions across all processed text.
	Occurrences int `json:"occurrences" yaml:"occurrences"`

	// Provenance records the source spans the entity was extracted from.
	Provenance []Span `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// NormalizeName produces the canonical form of an entity name: lowercased,
// trimmed, with internal whitespace collapsed to single spaces.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NewEntity builds an Entity from a single mention. The surface form is
// kept as DisplayName and first alias; Name is the normalized form.
func NewEntity(surface string, entityType EntityType, span Span) Entity {
	surface = strings.TrimSpace(surface)
	return Entity{
		Name:        NormalizeName(surface),
		DisplayName: surface,
		Type:        entityType,
		Aliases:     []string{surface},
		Occurrences: 1,
		Provenance:  []Span{span},
	}
}

// AddAlias inserts a surface form into the alias set, keeping it sorted.
func (e *Entity) AddAlias(surface string) {
	surface = strings.TrimSpace(surface)
	if surface == "" {
		return
	}
	for _, a := range e.Aliases {
		if a == surface {
			return
		}
	}
	e.Aliases = append(e.Aliases, surface)
	sort.Strings(e.Aliases)
}
