// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph implements the in-memory knowledge graph store: entities
// keyed by canonical name, relations as labeled directed edges, and the
// traversal and aggregation operations the query engine resolves against.
//
// The store assumes at most one mutator at a time. Ingestion completes
// before queries begin; reads may run concurrently with other reads but
// not with AddEntity/AddRelation.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/llamagraph/llamagraph/pkg/types"
)

var (
	// ErrUnknownEntity is returned when a relation references an entity
	// that has not been added to the store.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrNotFound is returned when a lookup references an absent entity.
	ErrNotFound = errors.New("entity not found")
)

// Direction annotates an incident relation relative to the entity it was
// looked up from.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
	DirectionSelf     Direction = "self"
)

// IncidentRelation is a relation annotated with its direction relative to
// the entity it was looked up from, plus the other endpoint's name.
type IncidentRelation struct {
	Relation  *types.Relation `json:"relation"`
	Direction Direction       `json:"direction"`
	Other     string          `json:"other"`
}

// Hop is one step of a path: the stored edge oriented in traversal order.
type Hop struct {
	From      string    `json:"from"`
	Predicate string    `json:"predicate"`
	To        string    `json:"to"`
	Direction Direction `json:"direction"`
}

// PredicateGroup collects the one-hop neighbors reachable through a single
// relation label.
type PredicateGroup struct {
	Predicate string   `json:"predicate"`
	Entities  []string `json:"entities"`
}

// TypePolicy resolves the stored entity type when two mentions with the
// same canonical name carry different types.
type TypePolicy func(existing, incoming types.EntityType) types.EntityType

// MostSpecific keeps the more specific of the two types, preferring any
// concrete type over "other". On a tie between two concrete types the
// existing one wins.
func MostSpecific(existing, incoming types.EntityType) types.EntityType {
	if incoming.Specificity() > existing.Specificity() {
		return incoming
	}
	return existing
}

// Graph is the knowledge graph store. Create with New.
type Graph struct {
	entities map[string]*types.Entity
	order    []string

	relations []*types.Relation
	index     map[string]int

	// adjacency holds relation indices per entity in insertion order, so
	// BFS ties resolve to the first-added relation.
	adjacency map[string][]int

	policy TypePolicy
}

// New creates an empty graph using the MostSpecific type-merge policy.
func New() *Graph {
	return NewWithPolicy(MostSpecific)
}

// NewWithPolicy creates an empty graph with a custom type-merge policy.
func NewWithPolicy(policy TypePolicy) *Graph {
	if policy == nil {
		policy = MostSpecific
	}
	return &Graph{
		entities:  make(map[string]*types.Entity),
		index:     make(map[string]int),
		adjacency: make(map[string][]int),
		policy:    policy,
	}
}

// AddEntity inserts the entity or merges it into an existing record with
// the same canonical name. Merging unions alias sets, accumulates
// occurrences and provenance, and resolves type conflicts through the
// graph's TypePolicy. The canonical record is returned.
func (g *Graph) AddEntity(e types.Entity) *types.Entity {
	name := types.NormalizeName(e.Name)
	if name == "" {
		name = types.NormalizeName(e.DisplayName)
	}

	existing, ok := g.entities[name]
	if !ok {
		stored := e
		stored.Name = name
		if stored.DisplayName == "" {
			stored.DisplayName = e.Name
		}
		if len(stored.Aliases) == 0 && stored.DisplayName != "" {
			stored.Aliases = []string{stored.DisplayName}
		}
		if stored.Occurrences == 0 {
			stored.Occurrences = 1
		}
		g.entities[name] = &stored
		g.order = append(g.order, name)
		return &stored
	}

	existing.Type = g.policy(existing.Type, e.Type)
	for _, alias := range e.Aliases {
		existing.AddAlias(alias)
	}
	if e.DisplayName != "" {
		existing.AddAlias(e.DisplayName)
	}
	occ := e.Occurrences
	if occ == 0 {
		occ = 1
	}
	existing.Occurrences += occ
	existing.Provenance = append(existing.Provenance, e.Provenance...)
	return existing
}

// AddRelation appends a labeled edge. Both endpoints must already exist;
// otherwise ErrUnknownEntity is returned. Exact (subject, predicate,
// object) duplicates are deduplicated, keeping the first-seen record and
// its confidence. The stored edge is returned.
func (g *Graph) AddRelation(r types.Relation) (*types.Relation, error) {
	r.Subject = types.NormalizeName(r.Subject)
	r.Object = types.NormalizeName(r.Object)

	if _, ok := g.entities[r.Subject]; !ok {
		return nil, fmt.Errorf("%w: subject %q", ErrUnknownEntity, r.Subject)
	}
	if _, ok := g.entities[r.Object]; !ok {
		return nil, fmt.Errorf("%w: object %q", ErrUnknownEntity, r.Object)
	}

	if idx, ok := g.index[r.Key()]; ok {
		return g.relations[idx], nil
	}

	stored := r
	idx := len(g.relations)
	g.relations = append(g.relations, &stored)
	g.index[r.Key()] = idx

	g.adjacency[r.Subject] = append(g.adjacency[r.Subject], idx)
	if !r.SelfLoop() {
		g.adjacency[r.Object] = append(g.adjacency[r.Object], idx)
	}
	return &stored, nil
}

// Entity looks up an entity by name, case-insensitively. Returns
// ErrNotFound if absent.
func (g *Graph) Entity(name string) (*types.Entity, error) {
	e, ok := g.entities[types.NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e, nil
}

// Relations returns all edges incident to the entity, incoming and
// outgoing, in insertion order, each annotated with direction. Self-loops
// appear once with DirectionSelf.
func (g *Graph) Relations(name string) ([]IncidentRelation, error) {
	e, err := g.Entity(name)
	if err != nil {
		return nil, err
	}

	var incident []IncidentRelation
	for _, idx := range g.adjacency[e.Name] {
		r := g.relations[idx]
		switch {
		case r.SelfLoop():
			incident = append(incident, IncidentRelation{Relation: r, Direction: DirectionSelf, Other: e.Name})
		case r.Subject == e.Name:
			incident = append(incident, IncidentRelation{Relation: r, Direction: DirectionOutgoing, Other: r.Object})
		default:
			incident = append(incident, IncidentRelation{Relation: r, Direction: DirectionIncoming, Other: r.Subject})
		}
	}
	return incident, nil
}

// ShortestPath finds the shortest path by edge count between two entities
// using breadth-first search over the undirected view of the graph.
// Adjacency is walked in insertion order, so ties between equal-length
// paths resolve to the first-added relations. A path from an entity to
// itself has zero hops. The second return value is false when the
// entities are disconnected; that is not an error.
func (g *Graph) ShortestPath(from, to string) ([]Hop, bool, error) {
	src, err := g.Entity(from)
	if err != nil {
		return nil, false, err
	}
	dst, err := g.Entity(to)
	if err != nil {
		return nil, false, err
	}

	if src.Name == dst.Name {
		return []Hop{}, true, nil
	}

	visited := map[string]step{src.Name: {prev: "", viaEdge: -1}}
	queue := []string{src.Name}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, idx := range g.adjacency[current] {
			r := g.relations[idx]
			next := r.Object
			if next == current {
				next = r.Subject
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = step{prev: current, viaEdge: idx}
			if next == dst.Name {
				return g.reconstructPath(visited, src.Name, dst.Name), true, nil
			}
			queue = append(queue, next)
		}
	}

	return nil, false, nil
}

func (g *Graph) reconstructPath(visited map[string]step, from, to string) []Hop {
	var hops []Hop
	for node := to; node != from; {
		s := visited[node]
		r := g.relations[s.viaEdge]
		hop := Hop{From: s.prev, Predicate: r.Predicate, To: node}
		if r.Subject == s.prev {
			hop.Direction = DirectionOutgoing
		} else {
			hop.Direction = DirectionIncoming
		}
		hops = append(hops, hop)
		node = s.prev
	}
	// Reverse into source-to-target order.
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	return hops
}

// step records how BFS reached a node, for path reconstruction.
type step struct {
	prev    string
	viaEdge int
}

// Neighbors returns the entities within one hop of name, grouped by
// relation label. Groups and members follow insertion order.
func (g *Graph) Neighbors(name string) ([]PredicateGroup, error) {
	incident, err := g.Relations(name)
	if err != nil {
		return nil, err
	}

	var groups []PredicateGroup
	position := make(map[string]int)
	seen := make(map[string]map[string]bool)

	for _, in := range incident {
		pred := in.Relation.Predicate
		pos, ok := position[pred]
		if !ok {
			pos = len(groups)
			position[pred] = pos
			groups = append(groups, PredicateGroup{Predicate: pred})
			seen[pred] = make(map[string]bool)
		}
		if !seen[pred][in.Other] {
			seen[pred][in.Other] = true
			groups[pos].Entities = append(groups[pos].Entities, in.Other)
		}
	}
	return groups, nil
}

// Entities returns all stored entities in insertion order.
func (g *Graph) Entities() []*types.Entity {
	out := make([]*types.Entity, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, g.entities[name])
	}
	return out
}

// AllRelations returns all stored relations in insertion order.
func (g *Graph) AllRelations() []*types.Relation {
	return g.relations
}

// NumEntities returns the entity count.
func (g *Graph) NumEntities() int { return len(g.entities) }

// NumRelations returns the relation count.
func (g *Graph) NumRelations() int { return len(g.relations) }

// EntityCounts returns entity counts grouped by type.
func (g *Graph) EntityCounts() map[types.EntityType]int {
	counts := make(map[types.EntityType]int)
	for _, e := range g.entities {
		counts[e.Type]++
	}
	return counts
}

// RelationCounts returns relation counts grouped by predicate.
func (g *Graph) RelationCounts() map[string]int {
	counts := make(map[string]int)
	for _, r := range g.relations {
		counts[r.Predicate]++
	}
	return counts
}

// ConnectedEntity pairs an entity with its degree for summary output.
type ConnectedEntity struct {
	Name        string           `json:"name"`
	Type        types.EntityType `json:"type"`
	Connections int              `json:"connections"`
}

// GraphSummary aggregates store-level statistics.
type GraphSummary struct {
	NumEntities   int                      `json:"num_entities"`
	NumRelations  int                      `json:"num_relations"`
	EntityTypes   map[types.EntityType]int `json:"entity_types"`
	RelationTypes map[string]int           `json:"relation_types"`
	MostConnected []ConnectedEntity        `json:"most_connected"`
}

const mostConnectedLimit = 5

// Summary returns counts by type and predicate plus the most connected
// entities. Degree ties resolve by insertion order.
func (g *Graph) Summary() GraphSummary {
	degrees := make([]ConnectedEntity, 0, len(g.order))
	for _, name := range g.order {
		degrees = append(degrees, ConnectedEntity{
			Name:        name,
			Type:        g.entities[name].Type,
			Connections: len(g.adjacency[name]),
		})
	}
	sort.SliceStable(degrees, func(i, j int) bool {
		return degrees[i].Connections > degrees[j].Connections
	})
	if len(degrees) > mostConnectedLimit {
		degrees = degrees[:mostConnectedLimit]
	}

	return GraphSummary{
		NumEntities:   len(g.entities),
		NumRelations:  len(g.relations),
		EntityTypes:   g.EntityCounts(),
		RelationTypes: g.RelationCounts(),
		MostConnected: degrees,
	}
}
