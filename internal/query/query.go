// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query parses the fixed query vocabulary (find, path, related,
// count, export, help) into tagged variants and resolves them against the
// knowledge graph store. The engine is state-free: every call goes back
// to the store, and errors surface as user-facing result messages rather
// than fatal errors.
package query

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/llamagraph/llamagraph/internal/graph"
	"github.com/llamagraph/llamagraph/pkg/types"
)

// ErrUnknownQuery is returned by Parse when the query text matches no
// known command.
var ErrUnknownQuery = errors.New("unknown query")

// Query is one parsed query intent. Exactly one concrete type matches
// each intent, so handlers can switch exhaustively.
type Query interface {
	isQuery()
}

// FindQuery looks up a single entity and its incident relations.
type FindQuery struct{ Name string }

// PathQuery finds the shortest path between two entities.
type PathQuery struct{ From, To string }

// RelatedQuery lists one-hop neighbors grouped by relation label.
type RelatedQuery struct{ Name string }

// CountQuery aggregates counts. Target is "entities", "relations", or a
// specific entity type name.
type CountQuery struct{ Target string }

// ExportQuery writes the graph document to a file.
type ExportQuery struct{ Path string }

// HelpQuery lists the available commands.
type HelpQuery struct{}

func (FindQuery) isQuery()    {}
func (PathQuery) isQuery()    {}
func (RelatedQuery) isQuery() {}
func (CountQuery) isQuery()   {}
func (ExportQuery) isQuery()  {}
func (HelpQuery) isQuery()    {}

var (
	findRe    = regexp.MustCompile(`(?i)^find\s+(.+)$`)
	pathRe    = regexp.MustCompile(`(?i)^path\s+from\s+(.+?)\s+to\s+(.+)$`)
	relatedRe = regexp.MustCompile(`(?i)^related\s+(.+)$`)
	countRe   = regexp.MustCompile(`(?i)^count\s+(.+)$`)
	exportRe  = regexp.MustCompile(`(?i)^export\s+(.+)$`)
	helpRe    = regexp.MustCompile(`(?i)^help$`)
)

// Parse maps query text to its intent. Keywords are case-insensitive.
// Unrecognized text returns ErrUnknownQuery.
func Parse(text string) (Query, error) {
	text = strings.TrimSpace(text)

	switch {
	case helpRe.MatchString(text):
		return HelpQuery{}, nil
	case pathRe.MatchString(text):
		m := pathRe.FindStringSubmatch(text)
		return PathQuery{From: strings.TrimSpace(m[1]), To: strings.TrimSpace(m[2])}, nil
	case findRe.MatchString(text):
		m := findRe.FindStringSubmatch(text)
		return FindQuery{Name: strings.TrimSpace(m[1])}, nil
	case relatedRe.MatchString(text):
		m := relatedRe.FindStringSubmatch(text)
		return RelatedQuery{Name: strings.TrimSpace(m[1])}, nil
	case countRe.MatchString(text):
		m := countRe.FindStringSubmatch(text)
		return CountQuery{Target: strings.ToLower(strings.TrimSpace(m[1]))}, nil
	case exportRe.MatchString(text):
		m := exportRe.FindStringSubmatch(text)
		return ExportQuery{Path: strings.TrimSpace(m[1])}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, text)
}

// Result is the outcome of executing one query. Ok is false for "not
// found", "no path", and unrecognized queries; Message is always suitable
// for direct display.
type Result struct {
	Ok      bool   `json:"ok"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// FindResult is the payload for a find query.
type FindResult struct {
	Entity    *types.Entity            `json:"entity"`
	Relations []graph.IncidentRelation `json:"relations"`
}

// PathResult is the payload for a path query.
type PathResult struct {
	Hops   []graph.Hop `json:"hops"`
	Length int         `json:"length"`
}

// RelatedResult is the payload for a related query.
type RelatedResult struct {
	Groups []graph.PredicateGroup `json:"groups"`
}

// CountResult is the payload for a count query.
type CountResult struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// HelpEntry describes one command for help output.
type HelpEntry struct {
	Command     string `json:"command"`
	Description string `json:"description"`
}

// HelpEntries lists the query vocabulary in display order.
func HelpEntries() []HelpEntry {
	return []HelpEntry{
		{"find <entity>", "Show an entity and its relations"},
		{"path from <a> to <b>", "Shortest path between two entities"},
		{"related <entity>", "One-hop neighbors grouped by relation"},
		{"count entities", "Entity counts by type"},
		{"count relations", "Relation counts by predicate"},
		{"count <type>", "Count entities of a specific type"},
		{"export <file>", "Export the graph (json, yaml, or dot by extension)"},
		{"help", "Show this help"},
		{"exit", "Leave the session"},
	}
}

// Engine resolves queries against a knowledge graph store.
type Engine struct {
	g *graph.Graph
}

// NewEngine creates an engine over the given store.
func NewEngine(g *graph.Graph) *Engine {
	return &Engine{g: g}
}

// Execute parses and runs a single query string. All error kinds are
// folded into the Result; Execute never returns an error to the caller.
func (e *Engine) Execute(text string) Result {
	q, err := Parse(text)
	if err != nil {
		return Result{
			Ok:      false,
			Message: "I don't understand that query. Try 'help' for the list of commands.",
		}
	}

	switch q := q.(type) {
	case FindQuery:
		return e.find(q)
	case PathQuery:
		return e.path(q)
	case RelatedQuery:
		return e.related(q)
	case CountQuery:
		return e.count(q)
	case ExportQuery:
		return e.export(q)
	case HelpQuery:
		return Result{Ok: true, Message: "Available commands:", Data: HelpEntries()}
	}
	return Result{Ok: false, Message: "I don't understand that query."}
}

func (e *Engine) find(q FindQuery) Result {
	entity, err := e.g.Entity(q.Name)
	if err != nil {
		return Result{Ok: false, Message: fmt.Sprintf("Entity %q not found.", q.Name)}
	}
	relations, _ := e.g.Relations(entity.Name)
	return Result{
		Ok:      true,
		Message: fmt.Sprintf("Found entity: %s", entity.DisplayName),
		Data:    FindResult{Entity: entity, Relations: relations},
	}
}

func (e *Engine) path(q PathQuery) Result {
	hops, found, err := e.g.ShortestPath(q.From, q.To)
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return Result{Ok: false, Message: capitalize(err.Error()) + "."}
		}
		return Result{Ok: false, Message: err.Error()}
	}
	if !found {
		return Result{Ok: false, Message: fmt.Sprintf("No path found from %q to %q.", q.From, q.To)}
	}
	return Result{
		Ok:      true,
		Message: fmt.Sprintf("Found path from %q to %q (%d hops)", q.From, q.To, len(hops)),
		Data:    PathResult{Hops: hops, Length: len(hops)},
	}
}

func (e *Engine) related(q RelatedQuery) Result {
	groups, err := e.g.Neighbors(q.Name)
	if err != nil {
		return Result{Ok: false, Message: fmt.Sprintf("Entity %q not found.", q.Name)}
	}
	return Result{
		Ok:      true,
		Message: fmt.Sprintf("Entities related to %q", q.Name),
		Data:    RelatedResult{Groups: groups},
	}
}

func (e *Engine) count(q CountQuery) Result {
	counts := make(map[string]int)

	switch q.Target {
	case "entities":
		for t, n := range e.g.EntityCounts() {
			counts[string(t)] = n
		}
	case "relations":
		counts = e.g.RelationCounts()
	default:
		// Count entities of one specific type.
		n := e.g.EntityCounts()[types.EntityType(q.Target)]
		counts[q.Target] = n
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return Result{
		Ok:      true,
		Message: fmt.Sprintf("Counts for %s", q.Target),
		Data:    CountResult{Counts: counts, Total: total},
	}
}

func (e *Engine) export(q ExportQuery) Result {
	format := graph.FormatForPath(q.Path)
	if err := e.g.Export(q.Path, format); err != nil {
		return Result{Ok: false, Message: fmt.Sprintf("Export failed: %v", err)}
	}
	return Result{Ok: true, Message: fmt.Sprintf("Knowledge graph exported to %s", q.Path)}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
