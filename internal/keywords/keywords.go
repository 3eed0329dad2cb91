package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// DefaultMax is the default number of keywords kept per channel.
const DefaultMax = 5

// Source weights: explicit tags say more about a channel than its prose.
const (
	tagWeight         = 3
	titleWeight       = 2
	nameWeight        = 2
	descriptionWeight = 1
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "do": true, "does": true, "did": true, "will": true, "would": true,
	"could": true, "should": true, "may": true, "might": true, "can": true, "shall": true,
	"to": true, "of": true, "in": true, "for": true, "on": true, "with": true, "at": true,
	"by": true, "from": true, "as": true, "into": true, "through": true, "during": true,
	"before": true, "after": true, "above": true, "below": true, "and": true, "but": true,
	"or": true, "nor": true, "not": true, "so": true, "yet": true, "both": true,
	"either": true, "neither": true, "each": true, "every": true, "all": true, "any": true,
	"few": true, "more": true, "most": true, "other": true, "some": true, "such": true,
	"no": true, "only": true, "own": true, "same": true, "than": true, "too": true,
	"very": true, "just": true, "how": true, "what": true, "which": true, "who": true,
	"whom": true, "this": true, "that": true, "these": true, "those": true, "it": true,
	"its": true, "new": true, "about": true, "up": true, "out": true, "one": true,
	"two": true, "also": true, "like": true, "get": true, "use": true, "you": true,
	"your": true, "my": true, "me": true, "we": true, "our": true, "his": true, "her": true,
	"they": true, "their": true, "him": true, "she": true, "he": true, "i": true,
	"why": true, "when": true, "where": true, "here": true, "there": true, "then": true,
	"now": true, "day": true, "part": true, "ever": true, "never": true, "dont": true,
	// platform noise
	"shorts": true, "short": true, "video": true, "videos": true, "youtube": true,
	"subscribe": true, "channel": true, "official": true, "viral": true, "fyp": true,
	"foryou": true, "trending": true, "follow": true, "comment": true,
	"watch": true, "www": true, "http": true, "https": true, "com": true,
}

// Document is the text a channel exposes about itself.
type Document struct {
	Name        string
	Description string
	Titles      []string
	Tags        string
}

type term struct {
	word   string
	weight int
	first  int
}

// Tokens returns every non-stop-word token of the document in order of first
// appearance, with repeats. Classification runs over this full list.
func Tokens(doc Document) []string {
	var out []string
	collect(doc, func(word string, _ int) {
		out = append(out, word)
	})
	return out
}

// Extract returns up to max keywords ordered by relevance: accumulated weight
// descending, then first appearance. Keywords are unique.
func Extract(doc Document, max int) []string {
	if max <= 0 {
		max = DefaultMax
	}

	terms := make(map[string]*term)
	order := 0
	collect(doc, func(word string, weight int) {
		t, ok := terms[word]
		if !ok {
			t = &term{word: word, first: order}
			terms[word] = t
			order++
		}
		t.weight += weight
	})

	ranked := make([]*term, 0, len(terms))
	for _, t := range terms {
		ranked = append(ranked, t)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].weight != ranked[j].weight {
			return ranked[i].weight > ranked[j].weight
		}
		return ranked[i].first < ranked[j].first
	})

	if len(ranked) > max {
		ranked = ranked[:max]
	}
	out := make([]string, len(ranked))
	for i, t := range ranked {
		out[i] = t.word
	}
	return out
}

// collect visits tokens in a fixed source order: tags, name, titles,
// description. Hashtags anywhere count with the tag weight.
func collect(doc Document, visit func(word string, weight int)) {
	emit := func(text string, weight int) {
		for _, tok := range tokenize(text) {
			if tok.hashtag {
				visit(tok.word, tagWeight)
				continue
			}
			visit(tok.word, weight)
		}
	}

	emit(doc.Tags, tagWeight)
	emit(doc.Name, nameWeight)
	for _, title := range doc.Titles {
		emit(title, titleWeight)
	}
	emit(doc.Description, descriptionWeight)
}

type token struct {
	word    string
	hashtag bool
}

// tokenize lower-cases text and splits it into words.
func tokenize(text string) []token {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r != '#' && !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var tokens []token
	for _, f := range fields {
		word := strings.Trim(f, "#")
		if len([]rune(word)) < 3 || stopWords[word] || isNumber(word) {
			continue
		}
		tokens = append(tokens, token{word: word, hashtag: strings.HasPrefix(f, "#")})
	}
	return tokens
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
