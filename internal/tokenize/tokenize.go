package tokenize

import (
	"strconv"
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
	"golang.org/x/text/unicode/norm"
)

// Options controls the analysis pipeline. The zero value matches
// spec.md §4.1's literal pipeline: normalize, delimit, segment, lowercase,
// drop stopwords, drop small numbers. Stemming is off by default so the
// worked examples in spec.md §8 (raw words like "alpha", "beta") keep
// matching literally; it is wired as an opt-in supplement.
type Options struct {
	Stem bool
}

// Analyze runs the default pipeline (no stemming).
func Analyze(text string) []string {
	return AnalyzeWithOptions(text, Options{})
}

// AnalyzeWithOptions runs the text-analysis pipeline described in
// spec.md §4.1:
//
//  1. NFKC normalization
//  2. '.', '_', '-' replaced with a space (treated as delimiters)
//  3. Unicode word segmentation
//  4. lowercasing
//  5. stopword removal
//  6. numeric filter: drop tokens that parse as a float < 10.0
//
// Step 7 (stemming) only runs when opts.Stem is set.
func AnalyzeWithOptions(text string, opts Options) []string {
	normalized := norm.NFKC.String(text)
	delimited := delimiterFilter(normalized)
	tokens := segment(delimited)
	tokens = lowercaseFilter(tokens)
	tokens = stopwordFilter(tokens)
	tokens = numericFilter(tokens)

	if opts.Stem {
		tokens = stemFilter(tokens)
	}

	return tokens
}

// delimiterFilter replaces '.', '_' and '-' with a space so that they act
// as word separators even when they sit directly between letters, per
// spec.md §4.1 step 2.
func delimiterFilter(text string) string {
	replacer := strings.NewReplacer(".", " ", "_", " ", "-", " ")
	return replacer.Replace(text)
}

// segment splits text into words using Unicode-aware boundaries: any
// character that is not a letter and not a number is a delimiter. This is
// the same FieldsFunc approach the tokenizer we learned from uses for its
// word-boundary pass, standing in for full UAX #29 segmentation.
func segment(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// lowercaseFilter normalizes token casing.
func lowercaseFilter(tokens []string) []string {
	r := make([]string, len(tokens))
	for i, token := range tokens {
		r[i] = strings.ToLower(token)
	}
	return r
}

// stopwordFilter removes tokens that exactly match an entry in
// englishStopwords.
func stopwordFilter(tokens []string) []string {
	r := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, stop := englishStopwords[token]; !stop {
			r = append(r, token)
		}
	}
	return r
}

// numericFilter drops tokens that parse as a floating-point number
// strictly less than 10.0. Non-numeric tokens are always kept.
func numericFilter(tokens []string) []string {
	r := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if num, err := strconv.ParseFloat(token, 64); err == nil {
			if num < 10.0 {
				continue
			}
		}
		r = append(r, token)
	}
	return r
}

// stemFilter reduces words to their Porter2/Snowball root form. Disabled
// by default — see Options.Stem.
func stemFilter(tokens []string) []string {
	r := make([]string, len(tokens))
	for i, token := range tokens {
		r[i] = snowballeng.Stem(token, false)
	}
	return r
}
