// Package tokenizer implements WorkSentry's language-aware term
// segmentation: the same pure, deterministic function turns document
// text and query text into the terms stored in and looked up against
// the index, which is what gives every indexed term the round-trip
// property (a term placed in the index for a document can retrieve
// that document via an exact-match query on that term).
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// cjkRanges are the Unicode blocks that trigger word-segmentation mode.
// The base CJK Unified Ideographs block (U+4E00-U+9FFF) is mandated by
// the tokenizer contract; Extension A is included because real-world
// Chinese/Japanese text routinely spills into it and excluding it would
// silently misclassify otherwise-CJK strings as Latin.
var cjkRanges = []*unicode.RangeTable{
	{R16: []unicode.Range16{{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1}}},
	{R16: []unicode.Range16{{Lo: 0x3400, Hi: 0x4DBF, Stride: 1}}},
}

// asciiPunct is the exact punctuation set the Latin splitter treats as a
// separator, per the tokenizer contract.
const asciiPunct = ".,;:_-/\\()[]{}'\""

var foldCaser = cases.Fold()

// ContainsCJK reports whether s contains any character in the CJK
// Unified Ideographs range or its immediate Extension-A block.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if unicode.In(r, cjkRanges...) {
			return true
		}
	}
	return false
}

// Tokenize splits s into lowercased, NFC-normalized, case-folded terms.
// It is pure and deterministic: identical input always yields identical
// output, and the same function is used for names, content, and the
// free-text portion of queries.
func Tokenize(s string) []string {
	normalized := foldCaser.String(norm.NFC.String(s))

	if ContainsCJK(normalized) {
		return segmentCJK(normalized)
	}
	return splitLatin(normalized)
}

// splitLatin breaks text on Unicode whitespace and the fixed ASCII
// punctuation set, discarding empty pieces.
func splitLatin(s string) []string {
	terms := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(asciiPunct, r)
	})
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// segmentCJK produces, for each run of CJK characters, every individual
// character and every adjacent character bigram within that run (a run
// longer than two characters is not emitted as a whole). No CJK word-segmentation dictionary is available in this module's
// dependency set (see DESIGN.md), so bigrams stand in for "recognized
// words": Chinese and Japanese text is overwhelmingly composed of
// two-character words, and emitting both unigrams and bigrams keeps the
// round-trip property (mono-character queries still match, per the
// tokenizer contract) while giving multi-character queries a real chance
// to hit an exact posting instead of falling back to subsequence scoring.
// Non-CJK runs interleaved with CJK text (e.g. "Hello 世界") fall back to
// the Latin splitter for those runs.
func segmentCJK(s string) []string {
	var out []string
	var run []rune

	flushLatin := func(seg string) {
		if seg == "" {
			return
		}
		out = append(out, splitLatin(seg)...)
	}

	flushCJK := func(run []rune) {
		if len(run) == 0 {
			return
		}
		for _, r := range run {
			out = append(out, string(r))
		}
		for i := 0; i+1 < len(run); i++ {
			out = append(out, string(run[i])+string(run[i+1]))
		}
	}

	var latinBuf strings.Builder
	for _, r := range s {
		if unicode.In(r, cjkRanges...) {
			if latinBuf.Len() > 0 {
				flushLatin(latinBuf.String())
				latinBuf.Reset()
			}
			run = append(run, r)
			continue
		}
		if len(run) > 0 {
			flushCJK(run)
			run = nil
		}
		latinBuf.WriteRune(r)
	}
	flushCJK(run)
	flushLatin(latinBuf.String())

	return out
}
