// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/llamagraph/llamagraph/pkg/types"
)

// PatternEntityTagger finds entity mentions with capitalization and
// lexicon heuristics. It is the default backend; the NER tagger replaces
// it when a model is available.
type PatternEntityTagger struct{}

// sentence-initial words that look like mentions but are not.
var startStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "in": true, "on": true, "at": true,
	"it": true, "he": true, "she": true, "they": true, "we": true, "i": true,
	"this": true, "that": true, "these": true, "those": true, "but": true,
	"and": true, "or": true, "if": true, "when": true, "while": true,
	"after": true, "before": true, "his": true, "her": true, "its": true,
	"their": true, "our": true, "my": true, "there": true, "here": true,
}

var orgSuffixes = map[string]bool{
	"inc": true, "corp": true, "ltd": true, "llc": true, "co": true,
	"company": true, "corporation": true, "university": true,
	"institute": true, "foundation": true, "group": true, "labs": true,
}

var personTitles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true, "prof": true,
	"president": true, "ceo": true, "director": true, "professor": true,
	"sir": true, "senator": true,
}

var months = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
}

var locationPrepositions = map[string]bool{
	"in": true, "at": true, "from": true, "near": true, "to": true,
}

var yearRe = regexp.MustCompile(`^(1[89]|20)\d{2}$`)

type token struct {
	text  string
	start int
	end   int
}

func tokenize(text string) []token {
	var tokens []token
	i := 0
	for i < len(text) {
		r := rune(text[i])
		if unicode.IsSpace(r) {
			i++
			continue
		}
		j := i
		for j < len(text) && !unicode.IsSpace(rune(text[j])) {
			j++
		}
		tokens = append(tokens, token{text: text[i:j], start: i, end: j})
		i = j
	}
	return tokens
}

// stripPunct removes leading and trailing punctuation from a token,
// keeping internal periods (Inc. keeps its word, loses the period).
func stripPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) && r != '-'
	})
}

func isCapitalized(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func isYearToken(s string) bool {
	return yearRe.MatchString(s)
}

// TagSentence extracts mentions from one sentence: runs of capitalized
// tokens, standalone years, and month-year dates. Types come from
// lexicons (org suffixes, person titles, location prepositions, months);
// anything unresolved is typed "other".
func (PatternEntityTagger) TagSentence(_ context.Context, s Sentence) ([]types.Entity, error) {
	tokens := tokenize(s.Text)
	var entities []types.Entity

	for i := 0; i < len(tokens); i++ {
		word := stripPunct(tokens[i].text)
		if word == "" {
			continue
		}

		if isYearToken(word) {
			entities = append(entities, mention(s, tokens[i].start, tokens[i].end, word, types.EntityDate))
			continue
		}

		if !isCapitalized(word) {
			continue
		}
		if i == 0 && startStopwords[strings.ToLower(word)] {
			continue
		}
		if personTitles[strings.ToLower(strings.TrimSuffix(word, "."))] {
			// Titles attach to the following run, they are not mentions.
			continue
		}

		// Extend the run over consecutive capitalized tokens.
		j := i
		for j+1 < len(tokens) {
			next := stripPunct(tokens[j+1].text)
			if next == "" || !isCapitalized(next) || isYearToken(next) {
				break
			}
			if personTitles[strings.ToLower(strings.TrimSuffix(next, "."))] {
				break
			}
			j++
			// A token ending the clause (comma, period) ends the run.
			if strings.ContainsAny(tokens[j].text, ",.;:!?") {
				break
			}
		}
		if strings.ContainsAny(tokens[i].text, ",.;:") && i < j {
			j = i
		}

		surface := runSurface(s.Text, tokens[i].start, tokens[j].end)
		entityType := classifyRun(tokens, i, j)
		entities = append(entities, mention(s, tokens[i].start, tokens[j].end, surface, entityType))
		i = j
	}

	return entities, nil
}

func runSurface(text string, start, end int) string {
	return strings.TrimFunc(text[start:end], func(r rune) bool {
		return unicode.IsPunct(r) && r != '.' || unicode.IsSpace(r)
	})
}

func mention(s Sentence, start, end int, surface string, t types.EntityType) types.Entity {
	surface = strings.TrimSuffix(surface, ".")
	return types.NewEntity(surface, t, types.Span{
		Start: s.Offset + start,
		End:   s.Offset + end,
	})
}

func classifyRun(tokens []token, first, last int) types.EntityType {
	lastWord := strings.ToLower(strings.TrimSuffix(stripPunct(tokens[last].text), "."))
	firstWord := strings.ToLower(stripPunct(tokens[first].text))

	if months[firstWord] {
		return types.EntityDate
	}
	if orgSuffixes[lastWord] {
		return types.EntityOrganization
	}
	if first > 0 {
		prev := strings.ToLower(strings.TrimSuffix(stripPunct(tokens[first-1].text), "."))
		if personTitles[prev] {
			return types.EntityPerson
		}
		if locationPrepositions[prev] {
			return types.EntityLocation
		}
	}
	if last > first {
		// Multi-word capitalized runs with no org marker are most often
		// person names.
		return types.EntityPerson
	}
	return types.EntityOther
}

// PatternRelationTagger extracts relations by matching verb-phrase
// patterns in the text between two entity mentions.
type PatternRelationTagger struct {
	// MinConfidence drops relations scored below it.
	MinConfidence float64
}

type predicatePattern struct {
	predicate string
	re        *regexp.Regexp
}

// Canonical predicates, checked in order. First match wins.
var predicatePatterns = []predicatePattern{
	{"founded", regexp.MustCompile(`(?i)\b(?:co-)?(?:founded|founds|established)\b`)},
	{"works_for", regexp.MustCompile(`(?i)\bwork(?:s|ed)?\s+(?:for|at)\b`)},
	{"born_in", regexp.MustCompile(`(?i)\b(?:was|were)\s+born\s+in\b`)},
	{"located_in", regexp.MustCompile(`(?i)\b(?:is|are|was|were)\s+(?:located|based|headquartered)\s+in\b`)},
	{"acquired", regexp.MustCompile(`(?i)\b(?:acquired|acquires|bought)\b`)},
	{"created", regexp.MustCompile(`(?i)\b(?:created|creates|built|builds|developed|develops|launched|launches)\b`)},
	{"leads", regexp.MustCompile(`(?i)\b(?:leads|led|heads|headed|runs|ran)\b`)},
}

const (
	patternConfidence  = 0.9
	fallbackConfidence = 0.5
)

// fallbackVerbRe accepts a lone verb-looking connector token as a
// free-text predicate.
var fallbackVerbRe = regexp.MustCompile(`^\s*([a-z]{3,}(?:ed|es|s))\s*$`)

var fallbackStopwords = map[string]bool{
	"was": true, "is": true, "has": true, "its": true, "his": true,
	"hers": true, "does": true, "goes": true, "becomes": true,
	"includes": true, "series": true,
}

type mentionSpan struct {
	entity *types.Entity
	start  int
	end    int
}

// TagSentence finds entity mentions in the sentence and emits a relation
// for each consecutive pair whose connector text matches a predicate
// pattern. Subject precedes object in text order.
func (t PatternRelationTagger) TagSentence(_ context.Context, s Sentence, entities []types.Entity) ([]types.Relation, error) {
	mentions := findMentions(s.Text, entities)
	if len(mentions) < 2 {
		return nil, nil
	}

	var relations []types.Relation
	for i := 0; i+1 < len(mentions); i++ {
		subj, obj := mentions[i], mentions[i+1]
		connector := s.Text[subj.end:obj.start]

		predicate, confidence := matchPredicate(connector)
		if predicate == "" || confidence < t.MinConfidence {
			continue
		}

		relations = append(relations, types.NewRelation(
			subj.entity.Name, predicate, obj.entity.Name, confidence,
			types.Span{Start: s.Offset, End: s.Offset + len(s.Text), Sentence: s.Text},
		))
	}
	return relations, nil
}

func matchPredicate(connector string) (string, float64) {
	for _, p := range predicatePatterns {
		if p.re.MatchString(connector) {
			return p.predicate, patternConfidence
		}
	}
	if m := fallbackVerbRe.FindStringSubmatch(strings.ToLower(connector)); m != nil {
		if !fallbackStopwords[m[1]] {
			return m[1], fallbackConfidence
		}
	}
	return "", 0
}

// findMentions locates every alias of every entity in the sentence,
// case-insensitively, preferring longer matches and dropping overlaps.
func findMentions(text string, entities []types.Entity) []mentionSpan {
	lower := strings.ToLower(text)

	var found []mentionSpan
	for i := range entities {
		e := &entities[i]
		aliases := e.Aliases
		if len(aliases) == 0 {
			aliases = []string{e.DisplayName}
		}
		for _, alias := range aliases {
			needle := strings.ToLower(alias)
			if needle == "" {
				continue
			}
			for from := 0; ; {
				idx := strings.Index(lower[from:], needle)
				if idx < 0 {
					break
				}
				start := from + idx
				end := start + len(needle)
				if isWordBoundary(lower, start, end) {
					found = append(found, mentionSpan{entity: e, start: start, end: end})
				}
				from = end
			}
		}
	}

	// Longer mentions win overlaps; then sort by position.
	sortMentions(found)
	var out []mentionSpan
	lastEnd := -1
	for _, m := range found {
		if m.start < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.end
	}
	return out
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 && isWordByte(text[start-1]) {
		return false
	}
	if end < len(text) && isWordByte(text[end]) {
		return false
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') || ('0' <= b && b <= '9')
}

// sortMentions orders by start position, longest first on ties.
func sortMentions(ms []mentionSpan) {
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0; j-- {
			a, b := ms[j-1], ms[j]
			if a.start < b.start || (a.start == b.start && a.end >= b.end) {
				break
			}
			ms[j-1], ms[j] = b, a
		}
	}
}
