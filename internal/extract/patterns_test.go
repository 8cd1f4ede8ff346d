package extract

import (
	"context"
	"testing"

	"github.com/llamagraph/llamagraph/pkg/types"
)

func tagEntities(t *testing.T, text string) []types.Entity {
	t.Helper()
	entities, err := PatternEntityTagger{}.TagSentence(context.Background(), Sentence{Text: text})
	if err != nil {
		t.Fatal(err)
	}
	return entities
}

func TestPatternEntityTagger(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []struct {
			name string
			typ  types.EntityType
		}
	}{
		{
			name: "person org and date",
			text: "Steve Jobs founded Apple Inc. in 1976.",
			want: []struct {
				name string
				typ  types.EntityType
			}{
				{"steve jobs", types.EntityPerson},
				{"apple inc", types.EntityOrganization},
				{"1976", types.EntityDate},
			},
		},
		{
			name: "title marks person and preposition marks location",
			text: "Dr. Smith lives in Paris.",
			want: []struct {
				name string
				typ  types.EntityType
			}{
				{"smith", types.EntityPerson},
				{"paris", types.EntityLocation},
			},
		},
		{
			name: "month starts a date run",
			text: "The keynote happened in January.",
			want: []struct {
				name string
				typ  types.EntityType
			}{
				{"january", types.EntityDate},
			},
		},
		{
			name: "single capitalized word is other",
			text: "Apple announced a new product.",
			want: []struct {
				name string
				typ  types.EntityType
			}{
				{"apple", types.EntityOther},
			},
		},
		{
			name: "sentence-initial stopword ignored",
			text: "The company grew quickly.",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tagEntities(t, tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entities, got %d: %+v", len(tt.want), len(got), got)
			}
			for i, w := range tt.want {
				if got[i].Name != w.name {
					t.Errorf("entity %d: expected name %q, got %q", i, w.name, got[i].Name)
				}
				if got[i].Type != w.typ {
					t.Errorf("entity %d (%s): expected type %s, got %s", i, w.name, w.typ, got[i].Type)
				}
			}
		})
	}
}

func TestPatternEntityTaggerSpans(t *testing.T) {
	s := Sentence{Text: "Steve Jobs founded Apple.", Offset: 100}
	entities, err := PatternEntityTagger{}.TagSentence(context.Background(), s)
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) == 0 {
		t.Fatal("expected entities")
	}
	if len(entities[0].Provenance) != 1 {
		t.Fatal("expected provenance span")
	}
	span := entities[0].Provenance[0]
	if span.Start != 100 || span.End != 110 {
		t.Errorf("expected span 100-110 for %q, got %d-%d", entities[0].Name, span.Start, span.End)
	}
}

func tagRelations(t *testing.T, text string, entities []types.Entity, minConfidence float64) []types.Relation {
	t.Helper()
	tagger := PatternRelationTagger{MinConfidence: minConfidence}
	relations, err := tagger.TagSentence(context.Background(), Sentence{Text: text}, entities)
	if err != nil {
		t.Fatal(err)
	}
	return relations
}

func TestPatternRelationTaggerPredicates(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		entities  []string
		subject   string
		predicate string
		object    string
	}{
		{"founded", "Steve Jobs founded Apple.", []string{"Steve Jobs", "Apple"}, "steve jobs", "founded", "apple"},
		{"works for", "Tim Cook works for Apple.", []string{"Tim Cook", "Apple"}, "tim cook", "works_for", "apple"},
		{"born in", "Steve Jobs was born in San Francisco.", []string{"Steve Jobs", "San Francisco"}, "steve jobs", "born_in", "san francisco"},
		{"located in", "Apple is headquartered in Cupertino.", []string{"Apple", "Cupertino"}, "apple", "located_in", "cupertino"},
		{"acquired", "Microsoft bought GitHub.", []string{"Microsoft", "GitHub"}, "microsoft", "acquired", "github"},
		{"created", "Linus Torvalds developed Linux.", []string{"Linus Torvalds", "Linux"}, "linus torvalds", "created", "linux"},
		{"leads", "Satya Nadella leads Microsoft.", []string{"Satya Nadella", "Microsoft"}, "satya nadella", "leads", "microsoft"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ents []types.Entity
			for _, name := range tt.entities {
				ents = append(ents, types.NewEntity(name, types.EntityOther, types.Span{}))
			}
			relations := tagRelations(t, tt.text, ents, 0)
			if len(relations) != 1 {
				t.Fatalf("expected 1 relation, got %d: %+v", len(relations), relations)
			}
			r := relations[0]
			if r.Subject != tt.subject || r.Predicate != tt.predicate || r.Object != tt.object {
				t.Errorf("expected (%s, %s, %s), got (%s, %s, %s)",
					tt.subject, tt.predicate, tt.object, r.Subject, r.Predicate, r.Object)
			}
			if r.Confidence != patternConfidence {
				t.Errorf("expected confidence %f, got %f", patternConfidence, r.Confidence)
			}
		})
	}
}

func TestPatternRelationTaggerFallbackVerb(t *testing.T) {
	ents := []types.Entity{
		types.NewEntity("Amazon", types.EntityOther, types.Span{}),
		types.NewEntity("Prime", types.EntityOther, types.Span{}),
	}

	relations := tagRelations(t, "Amazon delivers Prime.", ents, 0)
	if len(relations) != 1 {
		t.Fatalf("expected 1 fallback relation, got %d", len(relations))
	}
	if relations[0].Predicate != "delivers" {
		t.Errorf("expected free-text predicate %q, got %q", "delivers", relations[0].Predicate)
	}
	if relations[0].Confidence != fallbackConfidence {
		t.Errorf("expected confidence %f, got %f", fallbackConfidence, relations[0].Confidence)
	}
}

func TestPatternRelationTaggerMinConfidence(t *testing.T) {
	ents := []types.Entity{
		types.NewEntity("Amazon", types.EntityOther, types.Span{}),
		types.NewEntity("Prime", types.EntityOther, types.Span{}),
	}

	// The fallback verb scores below the threshold and is dropped.
	relations := tagRelations(t, "Amazon delivers Prime.", ents, 0.7)
	if len(relations) != 0 {
		t.Fatalf("expected no relations above threshold, got %+v", relations)
	}
}

func TestPatternRelationTaggerNoVerbConnector(t *testing.T) {
	ents := []types.Entity{
		types.NewEntity("Apple", types.EntityOther, types.Span{}),
		types.NewEntity("Microsoft", types.EntityOther, types.Span{}),
	}

	relations := tagRelations(t, "Apple and Microsoft.", ents, 0)
	if len(relations) != 0 {
		t.Fatalf("expected no relations, got %+v", relations)
	}
}

func TestFindMentionsPrefersLongestMatch(t *testing.T) {
	ents := []types.Entity{
		types.NewEntity("Apple", types.EntityOther, types.Span{}),
		types.NewEntity("Apple Inc", types.EntityOrganization, types.Span{}),
		types.NewEntity("NeXT", types.EntityOrganization, types.Span{}),
	}

	relations := tagRelations(t, "Apple Inc. bought NeXT.", ents, 0)
	if len(relations) != 1 {
		t.Fatalf("expected 1 relation, got %d: %+v", len(relations), relations)
	}
	if relations[0].Subject != "apple inc" {
		t.Errorf("longest mention should win, got subject %q", relations[0].Subject)
	}
	if relations[0].Predicate != "acquired" {
		t.Errorf("expected acquired, got %q", relations[0].Predicate)
	}
}

func TestFindMentionsRespectsWordBoundaries(t *testing.T) {
	ents := []types.Entity{
		types.NewEntity("Apple", types.EntityOther, types.Span{}),
		types.NewEntity("Pine", types.EntityOther, types.Span{}),
	}

	// "Pineapple" contains both needles but matches neither.
	relations := tagRelations(t, "Pineapple founded Apple.", ents, 0)
	if len(relations) != 0 {
		t.Fatalf("expected no relations, got %+v", relations)
	}
}
