package query

import (
	"sort"

	"worksentry/internal/record"
	"worksentry/internal/store"
	"worksentry/internal/tokenizer"
)

// Search runs a parsed Query against a single index snapshot and
// returns up to q.Limit ordered results, per spec.md §4.6.
func Search(r *store.Reader, q Query) []record.Result {
	terms := tokenizer.Tokenize(q.FreeText)

	candidates := gatherCandidates(r, q, terms)
	if len(candidates) == 0 {
		return []record.Result{}
	}

	candidateCap := q.Limit * 5
	if candidateCap > 0 && len(candidates) > candidateCap {
		candidates = capCandidates(candidates, candidateCap)
	}

	results := make([]record.Result, 0, len(candidates))
	for _, rec := range candidates {
		if !q.matchesFilters(rec) {
			continue
		}
		s := score(rec, q.FreeText)
		if s <= 0 {
			continue
		}
		results = append(results, record.Result{Record: rec, Score: s})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].MTime != results[j].MTime {
			return results[i].MTime > results[j].MTime
		}
		return results[i].Path < results[j].Path
	})

	if q.Limit > 0 && len(results) > q.Limit {
		results = results[:q.Limit]
	}
	return results
}

// gatherCandidates implements the retrieval half of §4.6: SHOULD
// clauses over name/content postings for a free-text query, or a
// filter-seeded scan for a filter-only query (e.g. ".pdf"). A query
// with neither free text nor filters is truly empty and retrieves
// nothing.
func gatherCandidates(r *store.Reader, q Query, terms []string) map[string]record.Record {
	out := make(map[string]record.Record)

	if len(terms) > 0 {
		for _, t := range terms {
			for _, rec := range collectTermPostings(r, t, q.Prefix, q.Fuzzy) {
				out[rec.Path] = rec
			}
		}
		return out
	}

	if len(q.Types) > 0 {
		for t := range q.Types {
			for _, rec := range r.TypeMembers(t) {
				out[rec.Path] = rec
			}
		}
		return out
	}

	if len(q.Extensions) > 0 {
		for ext := range q.Extensions {
			for _, rec := range r.ExtMembers(ext) {
				out[rec.Path] = rec
			}
		}
		return out
	}

	return out
}

func collectTermPostings(r *store.Reader, term string, prefix, fuzzy bool) []record.Record {
	var out []record.Record
	out = append(out, r.PostingsName(term)...)
	out = append(out, r.PostingsContent(term)...)

	if prefix {
		for _, t := range r.TermsWithPrefix(store.NameBucket(), term) {
			out = append(out, r.PostingsName(t)...)
		}
		for _, t := range r.TermsWithPrefix(store.ContentBucket(), term) {
			out = append(out, r.PostingsContent(t)...)
		}
	}

	if fuzzy {
		thresh := fuzzyThreshold(term)
		for _, t := range r.AllTerms(store.NameBucket()) {
			if levenshtein(term, t) <= thresh {
				out = append(out, r.PostingsName(t)...)
			}
		}
		for _, t := range r.AllTerms(store.ContentBucket()) {
			if levenshtein(term, t) <= thresh {
				out = append(out, r.PostingsContent(t)...)
			}
		}
	}

	return out
}

// capCandidates deterministically truncates an oversized candidate set
// by path order, before scoring, matching the "retrieve up to K x 5
// candidates" retrieval-stage cap in spec.md §4.6.
func capCandidates(candidates map[string]record.Record, cap int) map[string]record.Record {
	paths := make([]string, 0, len(candidates))
	for p := range candidates {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	if len(paths) > cap {
		paths = paths[:cap]
	}
	out := make(map[string]record.Record, len(paths))
	for _, p := range paths {
		out[p] = candidates[p]
	}
	return out
}
