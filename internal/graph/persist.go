// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/llamagraph/llamagraph/pkg/types"
)

// ErrMalformedDocument is returned by Load when the persisted graph
// document cannot be parsed.
var ErrMalformedDocument = errors.New("malformed graph document")

// Document is the persisted form of the graph: the serialization contract
// consumed by export and visualization collaborators and by Load.
type Document struct {
	Entities  []types.Entity   `json:"entities" yaml:"entities"`
	Relations []types.Relation `json:"relations" yaml:"relations"`
}

// ToDocument snapshots the store into its persisted form, entities and
// relations in insertion order.
func (g *Graph) ToDocument() Document {
	doc := Document{
		Entities:  make([]types.Entity, 0, len(g.order)),
		Relations: make([]types.Relation, 0, len(g.relations)),
	}
	for _, name := range g.order {
		doc.Entities = append(doc.Entities, *g.entities[name])
	}
	for _, r := range g.relations {
		doc.Relations = append(doc.Relations, *r)
	}
	return doc
}

// FromDocument rebuilds a store from a persisted document. Relations
// whose endpoints are missing from the document are skipped, matching
// ingest-time semantics.
func FromDocument(doc Document) *Graph {
	g := New()
	for _, e := range doc.Entities {
		g.AddEntity(e)
	}
	for _, r := range doc.Relations {
		// Endpoint missing from the document: nothing to attach to.
		_, _ = g.AddRelation(r)
	}
	return g
}

// Save writes the graph as an indented JSON document.
func (g *Graph) Save(path string) error {
	data, err := json.MarshalIndent(g.ToDocument(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling graph document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing graph document: %w", err)
	}
	return nil
}

// Load reads a JSON graph document and reconstructs a store observably
// identical to the one that was saved. A document that cannot be parsed
// returns ErrMalformedDocument; the caller decides whether to abort or
// start fresh.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading graph document %s: %w", path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, path, err)
	}
	return FromDocument(doc), nil
}

// ExportYAML writes the graph document as YAML.
func (g *Graph) ExportYAML(path string) error {
	data, err := yaml.Marshal(g.ToDocument())
	if err != nil {
		return fmt.Errorf("marshaling graph document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing graph document: %w", err)
	}
	return nil
}

// ExportDOT writes the graph as a GraphViz digraph for visualization
// collaborators. Node labels use display names; edge labels use
// predicates.
func (g *Graph) ExportDOT(path string) error {
	var b strings.Builder
	b.WriteString("digraph knowledge {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n")

	for _, name := range g.order {
		e := g.entities[name]
		fmt.Fprintf(&b, "  %q [label=%q, class=%q];\n", e.Name, e.DisplayName, string(e.Type))
	}
	for _, r := range g.relations {
		fmt.Fprintf(&b, "  %q -> %q [label=%q];\n", r.Subject, r.Object, r.Predicate)
	}
	b.WriteString("}\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing DOT file: %w", err)
	}
	return nil
}

// ExportFormat identifies a graph export encoding.
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatYAML ExportFormat = "yaml"
	FormatDOT  ExportFormat = "dot"
)

// FormatForPath infers the export format from a file extension,
// defaulting to JSON.
func FormatForPath(path string) ExportFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".dot", ".gv":
		return FormatDOT
	default:
		return FormatJSON
	}
}

// Export writes the graph to path in the given format.
func (g *Graph) Export(path string, format ExportFormat) error {
	switch format {
	case FormatYAML:
		return g.ExportYAML(path)
	case FormatDOT:
		return g.ExportDOT(path)
	case FormatJSON, "":
		return g.Save(path)
	default:
		return fmt.Errorf("unsupported export format %q: use json, yaml, or dot", format)
	}
}
