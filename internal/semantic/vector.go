// Package semantic implements the supplemental proximity index (find
// related items for a given path). It is deliberately separate from the
// core Tiered Hybrid Score: nothing here participates in ranking search
// results, so the scoring properties the query planner guarantees are
// unaffected by whatever this package does.
//
// There is no embedding model anywhere in this module's dependency set
// and none is added, since a network call or a bundled model would
// violate the local-first, no-network-calls posture the rest of the
// system holds to. Instead each document is turned into a fixed-size
// "bag of hashed terms" vector: every token is hashed into one of Dim
// buckets and the bucket is incremented, giving two documents that
// share vocabulary a small cosine distance without needing any semantic
// understanding of the terms themselves.
package semantic

import (
	"hash/fnv"
	"math"
)

// Dim is the fixed vector width. It is chosen small enough that the
// mmap-backed vector file and the ANN graph stay cheap for the target
// scale of a few hundred thousand documents.
const Dim = 64

// Vector is a Dim-length embedding.
type Vector []float32

// HashTerms builds a normalized bag-of-hashed-terms vector from a set of
// tokens (typically the tokenizer's output for a document's name and
// content). Term order does not affect the result.
func HashTerms(terms []string) Vector {
	v := make(Vector, Dim)
	for _, t := range terms {
		h := fnv.New32a()
		_, _ = h.Write([]byte(t))
		v[h.Sum32()%Dim]++
	}
	return normalize(v)
}

func normalize(v Vector) Vector {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := float32(math.Sqrt(sumSq))
	for i := range v {
		v[i] /= norm
	}
	return v
}
