package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/llamagraph/llamagraph/pkg/types"
)

func TestSplitSentences(t *testing.T) {
	text := "Steve founded Apple. He left in 1985. Later he returned."
	sentences := SplitSentences(text)

	want := []Sentence{
		{Text: "Steve founded Apple.", Offset: 0},
		{Text: "He left in 1985.", Offset: 21},
		{Text: "Later he returned.", Offset: 38},
	}
	if len(sentences) != len(want) {
		t.Fatalf("expected %d sentences, got %d: %+v", len(want), len(sentences), sentences)
	}
	for i, w := range want {
		if sentences[i] != w {
			t.Errorf("sentence %d: expected %+v, got %+v", i, w, sentences[i])
		}
	}
}

func TestSplitSentencesKeepsAbbreviations(t *testing.T) {
	// A period followed by a lowercase word does not end the sentence.
	sentences := SplitSentences("Apple Inc. makes phones.")
	if len(sentences) != 1 {
		t.Fatalf("expected 1 sentence, got %d: %+v", len(sentences), sentences)
	}
	if sentences[0].Text != "Apple Inc. makes phones." {
		t.Errorf("unexpected sentence: %q", sentences[0].Text)
	}
}

func TestSplitSentencesEmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := SplitSentences(text); len(got) != 0 {
			t.Errorf("SplitSentences(%q) = %+v, want none", text, got)
		}
	}
}

func TestSplitSentencesWithoutTrailingPunctuation(t *testing.T) {
	sentences := SplitSentences("One ends here. Two never does")
	if len(sentences) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %+v", len(sentences), sentences)
	}
	if sentences[1].Text != "Two never does" {
		t.Errorf("unexpected tail sentence: %q", sentences[1].Text)
	}
}

// --- pipeline tests ---

// countingEntityTagger wraps the pattern tagger and counts invocations.
type countingEntityTagger struct {
	calls atomic.Int64
	inner PatternEntityTagger
}

func (c *countingEntityTagger) TagSentence(ctx context.Context, s Sentence) ([]types.Entity, error) {
	c.calls.Add(1)
	return c.inner.TagSentence(ctx, s)
}

// memoryCache is a map-backed Cache used in tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	return data, ok, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func TestPipelineRun(t *testing.T) {
	p := &Pipeline{
		Entities:  PatternEntityTagger{},
		Relations: PatternRelationTagger{},
	}

	result, err := p.Run(context.Background(), "Steve Jobs founded Apple Inc. in 1976. Apple Inc. is headquartered in Cupertino.")
	if err != nil {
		t.Fatal(err)
	}

	byName := make(map[string]types.Entity)
	for _, e := range result.Entities {
		byName[e.Name] = e
	}
	if _, ok := byName["steve jobs"]; !ok {
		t.Errorf("missing steve jobs in %+v", result.Entities)
	}
	apple, ok := byName["apple inc"]
	if !ok {
		t.Fatalf("missing apple inc in %+v", result.Entities)
	}
	if apple.Occurrences != 2 {
		t.Errorf("apple inc mentioned twice, got %d occurrences", apple.Occurrences)
	}

	var predicates []string
	for _, r := range result.Relations {
		predicates = append(predicates, r.Predicate)
	}
	joined := strings.Join(predicates, ",")
	if !strings.Contains(joined, "founded") || !strings.Contains(joined, "located_in") {
		t.Errorf("expected founded and located_in, got %v", predicates)
	}
}

func TestPipelineCacheHitSkipsTaggers(t *testing.T) {
	tagger := &countingEntityTagger{}
	cache := newMemoryCache()
	p := &Pipeline{
		Entities:  tagger,
		Relations: PatternRelationTagger{},
		Cache:     cache,
	}
	text := "Steve Jobs founded Apple."

	first, err := p.Run(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := tagger.calls.Load()
	if callsAfterFirst == 0 {
		t.Fatal("expected tagger calls on cold run")
	}

	second, err := p.Run(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if tagger.calls.Load() != callsAfterFirst {
		t.Error("warm run should be served from cache")
	}
	if len(second.Entities) != len(first.Entities) || len(second.Relations) != len(first.Relations) {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
}

func TestPipelineDeterministicUnderConcurrency(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&b, "Person%d founded Company%d. ", i, i)
	}
	text := b.String()

	sequential := &Pipeline{Entities: PatternEntityTagger{}, Relations: PatternRelationTagger{}, Workers: 1}
	parallel := &Pipeline{Entities: PatternEntityTagger{}, Relations: PatternRelationTagger{}, Workers: 8}

	want, err := sequential.Run(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	got, err := parallel.Run(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.Entities) != len(want.Entities) {
		t.Fatalf("entity counts differ: %d vs %d", len(got.Entities), len(want.Entities))
	}
	for i := range want.Entities {
		if got.Entities[i].Name != want.Entities[i].Name {
			t.Errorf("entity order differs at %d: %q vs %q", i, got.Entities[i].Name, want.Entities[i].Name)
		}
	}
	if len(got.Relations) != len(want.Relations) {
		t.Fatalf("relation counts differ: %d vs %d", len(got.Relations), len(want.Relations))
	}
	for i := range want.Relations {
		if got.Relations[i].Subject != want.Relations[i].Subject {
			t.Errorf("relation order differs at %d", i)
		}
	}
}

type failingEntityTagger struct{}

func (failingEntityTagger) TagSentence(context.Context, Sentence) ([]types.Entity, error) {
	return nil, errors.New("model unavailable")
}

func TestPipelinePropagatesTaggerErrors(t *testing.T) {
	p := &Pipeline{Entities: failingEntityTagger{}, Relations: PatternRelationTagger{}, Workers: 4}

	_, err := p.Run(context.Background(), "First sentence here. Second sentence here.")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "extracting entities") {
		t.Errorf("expected wrapped stage error, got %v", err)
	}
}

func TestPipelineErrorWithFewerWorkersThanSentences(t *testing.T) {
	// All workers die on their first job while unsent jobs remain; Run
	// must still return the tagger error instead of blocking on the
	// job channel.
	p := &Pipeline{Entities: failingEntityTagger{}, Relations: PatternRelationTagger{}, Workers: 2}
	text := "One sentence here. Two sentences here. Three sentences here. Four sentences here."

	done := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background(), text)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "extracting entities") {
			t.Errorf("expected wrapped stage error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after tagger failure")
	}
}

func TestPipelineCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &Pipeline{Entities: PatternEntityTagger{}, Relations: PatternRelationTagger{}}
	_, err := p.Run(ctx, "Steve Jobs founded Apple. He left in 1985.")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMergeEntitiesKeepsFirstSeenOrder(t *testing.T) {
	a := types.NewEntity("Apple", types.EntityOrganization, types.Span{Start: 0, End: 5})
	b := types.NewEntity("NeXT", types.EntityOrganization, types.Span{Start: 10, End: 14})
	a2 := types.NewEntity("apple", types.EntityOrganization, types.Span{Start: 20, End: 25})

	merged := mergeEntities([][]types.Entity{{a, b}, {a2}})
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged entities, got %d", len(merged))
	}
	if merged[0].Name != "apple" || merged[1].Name != "next" {
		t.Errorf("unexpected order: %+v", merged)
	}
	if merged[0].Occurrences != 2 {
		t.Errorf("expected 2 occurrences, got %d", merged[0].Occurrences)
	}
	if len(merged[0].Provenance) != 2 {
		t.Errorf("expected merged provenance, got %+v", merged[0].Provenance)
	}
	if len(merged[0].Aliases) != 2 {
		t.Errorf("expected alias union, got %+v", merged[0].Aliases)
	}
}
