// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns raw text into entity and relation records for the
// knowledge graph. Sentence-level taggers run in a bounded worker pool;
// the merge into final records is single-threaded, so the graph store only
// ever sees one writer.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/llamagraph/llamagraph/pkg/types"
)

// Sentence is one unit of extraction work: its text and byte offset in
// the source document.
type Sentence struct {
	Text   string
	Offset int
}

// EntityTagger extracts entity mentions from a single sentence.
type EntityTagger interface {
	TagSentence(ctx context.Context, s Sentence) ([]types.Entity, error)
}

// RelationTagger extracts relations from a single sentence given the
// entity mentions known to appear in it.
type RelationTagger interface {
	TagSentence(ctx context.Context, s Sentence, entities []types.Entity) ([]types.Relation, error)
}

// Cache stores extraction results keyed by input hash so reprocessing the
// same text skips the taggers.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Result holds the extraction output for one document.
type Result struct {
	Entities  []types.Entity   `json:"entities"`
	Relations []types.Relation `json:"relations"`
}

// Pipeline runs entity then relation extraction over a document.
type Pipeline struct {
	Entities  EntityTagger
	Relations RelationTagger

	// Workers bounds sentence-level concurrency. Zero or negative runs
	// single-threaded.
	Workers int

	// Cache is optional; nil disables caching.
	Cache Cache
}

// Run extracts entities and relations from text. Per-sentence tagging
// fans out across Workers goroutines; results are merged in sentence
// order so output is deterministic regardless of scheduling.
func (p *Pipeline) Run(ctx context.Context, text string) (Result, error) {
	key := cacheKey(text)
	if p.Cache != nil {
		if data, ok, err := p.Cache.Get(ctx, key); err == nil && ok {
			var cached Result
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	sentences := SplitSentences(text)

	entityBatches, err := mapSentences(ctx, sentences, p.Workers, func(ctx context.Context, s Sentence) ([]types.Entity, error) {
		return p.Entities.TagSentence(ctx, s)
	})
	if err != nil {
		return Result{}, fmt.Errorf("extracting entities: %w", err)
	}

	entities := mergeEntities(entityBatches)

	relationBatches, err := mapSentences(ctx, sentences, p.Workers, func(ctx context.Context, s Sentence) ([]types.Relation, error) {
		return p.Relations.TagSentence(ctx, s, entities)
	})
	if err != nil {
		return Result{}, fmt.Errorf("extracting relations: %w", err)
	}

	var relations []types.Relation
	for _, batch := range relationBatches {
		relations = append(relations, batch...)
	}

	result := Result{Entities: entities, Relations: relations}

	if p.Cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = p.Cache.Set(ctx, key, data)
		}
	}
	return result, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("extract-%x", sum)
}

// mapSentences applies fn to every sentence with at most workers
// goroutines in flight, returning results indexed by sentence position.
func mapSentences[T any](ctx context.Context, sentences []Sentence, workers int, fn func(context.Context, Sentence) ([]T, error)) ([][]T, error) {
	if workers <= 1 || len(sentences) <= 1 {
		out := make([][]T, len(sentences))
		for i, s := range sentences {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			batch, err := fn(ctx, s)
			if err != nil {
				return nil, err
			}
			out[i] = batch
		}
		return out, nil
	}

	// A failing worker cancels this context so the producer's send
	// unblocks even when every worker has exited.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([][]T, len(sentences))
	jobs := make(chan int)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				batch, err := fn(ctx, sentences[i])
				if err != nil {
					select {
					case errs <- err:
					default:
					}
					cancel()
					return
				}
				out[i] = batch
			}
		}()
	}

send:
	for i := range sentences {
		select {
		case <-ctx.Done():
			break send
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	// A worker error takes precedence over the cancellation it caused.
	select {
	case err := <-errs:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// mergeEntities deduplicates mentions by (canonical name, type),
// accumulating aliases, occurrence counts, and provenance. Output order
// is first-seen order across sentences.
func mergeEntities(batches [][]types.Entity) []types.Entity {
	type mergeKey struct {
		name string
		typ  types.EntityType
	}

	var order []mergeKey
	merged := make(map[mergeKey]*types.Entity)

	for _, batch := range batches {
		for _, e := range batch {
			k := mergeKey{name: e.Name, typ: e.Type}
			if existing, ok := merged[k]; ok {
				for _, alias := range e.Aliases {
					existing.AddAlias(alias)
				}
				existing.Occurrences += e.Occurrences
				existing.Provenance = append(existing.Provenance, e.Provenance...)
				continue
			}
			copied := e
			merged[k] = &copied
			order = append(order, k)
		}
	}

	out := make([]types.Entity, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	return out
}

// SplitSentences breaks text into sentences on terminal punctuation
// followed by whitespace and an uppercase letter or digit, tracking byte
// offsets. Heuristic splitting is enough for the pattern taggers; the NER
// backend tokenizes on its own.
func SplitSentences(text string) []Sentence {
	var sentences []Sentence
	start := 0

	flush := func(end int) {
		segment := text[start:end]
		trimmed := strings.TrimSpace(segment)
		if trimmed != "" {
			offset := start + strings.Index(segment, trimmed[:1])
			sentences = append(sentences, Sentence{Text: trimmed, Offset: offset})
		}
		start = end
	}

	runes := []rune(text)
	byteAt := make([]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		byteAt[i] = b
		b += len(string(r))
	}
	byteAt[len(runes)] = b

	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		j := i + 1
		for j < len(runes) && (runes[j] == '"' || runes[j] == '\'' || runes[j] == ')') {
			j++
		}
		if j >= len(runes) {
			break
		}
		if !unicode.IsSpace(runes[j]) {
			continue
		}
		k := j
		for k < len(runes) && unicode.IsSpace(runes[k]) {
			k++
		}
		if k >= len(runes) || unicode.IsUpper(runes[k]) || unicode.IsDigit(runes[k]) {
			flush(byteAt[j])
			i = j - 1
		}
	}
	if start < len(text) {
		flush(len(text))
	}
	return sentences
}
