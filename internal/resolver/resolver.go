// Package resolver maps free-text module references to module codes.
package resolver

import (
	"cmp"
	"errors"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"campus-advisor/internal/catalog"
)

// ErrNoConfidentMatch means no candidate scored at least the threshold.
// Callers fall back to semantic retrieval instead of guessing.
var ErrNoConfidentMatch = errors.New("no confident module match")

// DefaultMinScore is the lowest score accepted as a match.
const DefaultMinScore = 20

const (
	scoreSubstring = 100
	scoreAllTokens = 50
	scorePerExtra  = 5
	scorePerToken  = 10
)

// minTokenLen is the shortest query word that takes part in scoring.
const minTokenLen = 3

var codeMention = regexp.MustCompile(`(?i)\b([a-z]{1,4}_[wk\d]\.\d{2})\b`)

var stopwords = map[string]struct{}{
	"module": {}, "modules": {}, "course": {}, "courses": {}, "subject": {}, "class": {}, "classes": {},
	"lecture": {}, "lectures": {}, "exercise": {}, "what": {}, "which": {}, "is": {}, "are": {}, "who": {},
	"teaches": {}, "when": {}, "where": {}, "time": {}, "timing": {}, "schedule": {}, "day": {}, "my": {},
	"the": {}, "a": {}, "an": {}, "tell": {}, "me": {}, "about": {}, "do": {}, "does": {}, "i": {},
	"have": {}, "in": {}, "for": {}, "on": {}, "of": {}, "how": {}, "many": {}, "credits": {}, "ects": {},
	"prerequisites": {}, "room": {}, "professor": {}, "today": {}, "tomorrow": {}, "semester": {}, "please": {},
	"sem": {}, "winter": {}, "summer": {}, "week": {}, "next": {}, "this": {}, "at": {},
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {}, "friday": {}, "saturday": {}, "sunday": {},
	"first": {}, "second": {}, "third": {}, "fourth": {}, "fifth": {}, "sixth": {}, "seventh": {}, "final": {},
}

// Match is a resolved module reference.
type Match struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type candidate struct {
	code string
	name string
	norm string
}

// Resolver scores module names against queries. It is immutable and safe
// for concurrent use.
type Resolver struct {
	candidates []candidate
	byCode     map[string]int
	minScore   int
}

// New creates a resolver over names, which maps module names to codes.
// A minScore below 1 selects DefaultMinScore.
func New(names map[string]string, minScore int) *Resolver {
	if minScore < 1 {
		minScore = DefaultMinScore
	}
	r := &Resolver{byCode: make(map[string]int, len(names)), minScore: minScore}
	for name, code := range names {
		r.candidates = append(r.candidates, candidate{code: code, name: name, norm: catalog.NormalizeName(name)})
	}
	slices.SortFunc(r.candidates, func(a, b candidate) int { return cmp.Compare(a.code, b.code) })
	for i, c := range r.candidates {
		r.byCode[strings.ToUpper(c.code)] = i
	}
	return r
}

// FromIndex creates a resolver over every module of idx.
func FromIndex(idx *catalog.Index, minScore int) *Resolver {
	return New(idx.Names(), minScore)
}

// Resolve returns the best-scoring module for query. A module code named in
// the query wins outright. Ties go to the shorter name, then the smaller code.
func (r *Resolver) Resolve(query string) (Match, error) {
	for _, m := range codeMention.FindAllStringSubmatch(query, -1) {
		if i, ok := r.byCode[strings.ToUpper(m[1])]; ok {
			c := r.candidates[i]
			return Match{Code: c.code, Name: c.name, Score: scoreSubstring}, nil
		}
	}

	tokens := Tokens(codeMention.ReplaceAllString(query, " "))
	if len(tokens) == 0 {
		return Match{}, ErrNoConfidentMatch
	}

	var best Match
	bestLen := 0
	for _, c := range r.candidates {
		s := scoreTokens(tokens, c.norm)
		if s == 0 {
			continue
		}
		n := utf8.RuneCountInString(c.name)
		if s > best.Score || (s == best.Score && n < bestLen) {
			best = Match{Code: c.code, Name: c.name, Score: s}
			bestLen = n
		}
	}
	if best.Score < r.minScore {
		return Match{}, ErrNoConfidentMatch
	}
	return best, nil
}

// Tokens normalizes a query: lowercase words without punctuation, without
// stopwords and ordinals, and without words that are shorter than
// minTokenLen or contain a digit. Semester numbers such as "3" or "3rd"
// therefore never count against a module name.
func Tokens(query string) []string {
	var out []string
	for _, w := range strings.Fields(catalog.NormalizeName(query)) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if scoring(w) {
			out = append(out, w)
		}
	}
	return out
}

// Score rates how well query refers to a module name:
//
//	100             the query words form a run of the name's words
//	50 + 5*(n-1)    all n query tokens occur in the name
//	10*k            k query tokens occur in the name
//	0               nothing matches
func Score(query, name string) int {
	return scoreTokens(Tokens(query), catalog.NormalizeName(name))
}

// scoring reports whether a word is long enough and free of digits.
func scoring(w string) bool {
	return utf8.RuneCountInString(w) >= minTokenLen && !strings.ContainsFunc(w, unicode.IsDigit)
}

func scoreTokens(tokens []string, name string) int {
	if len(tokens) == 0 || name == "" {
		return 0
	}
	nameWords := strings.Fields(name)
	key := slices.DeleteFunc(slices.Clone(nameWords), func(w string) bool { return !scoring(w) })
	if strings.Contains(" "+strings.Join(key, " ")+" ", " "+strings.Join(tokens, " ")+" ") {
		return scoreSubstring
	}
	matched := 0
	for _, t := range tokens {
		if slices.ContainsFunc(nameWords, func(w string) bool { return wordMatches(t, w) }) {
			matched++
		}
	}
	switch {
	case matched == 0:
		return 0
	case matched == len(tokens):
		return scoreAllTokens + scorePerExtra*(matched-1)
	default:
		return scorePerToken * matched
	}
}

// wordMatches accepts equal words and, for tokens of four or more runes,
// a name word that starts with the token ("signal" matches "signals").
func wordMatches(token, word string) bool {
	if token == word {
		return true
	}
	return utf8.RuneCountInString(token) >= 4 && strings.HasPrefix(word, token)
}
