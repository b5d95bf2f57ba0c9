package semantic

import (
	"math"
	"sort"
	"sync"
)

// The graph is a flat navigable small-world index, not a hierarchical
// one: every node lives on a single layer, reached from a handful of
// spread-out entry points instead of descending through levels. A
// multi-level skip structure earns its keep when an index accumulates
// millions of points over a long-lived process; this one is thrown away
// and rebuilt wholesale from the vector log every time WorkSentry starts
// (see Index.rebuild), and holds one machine's worth of documents at
// most, so the extra bookkeeping a hierarchy needs has nothing to pay
// for itself with.
const (
	maxDegree = 24 // edges kept per node after pruning
	beamWidth = 48 // candidates tracked during a single search pass
	numSeeds  = 3  // spread-out entry points a search starts from
)

type candidate struct {
	id   uint64
	dist float32
}

// graph is an in-memory approximate nearest-neighbor index over document
// IDs. It keeps its own in-memory copy of every Vector handed in on add,
// for distance computation.
type graph struct {
	mu      sync.RWMutex
	vectors map[uint64]Vector
	edges   map[uint64][]uint64
	order   []uint64 // insertion order, sampled for search entry points
}

func newGraph() *graph {
	return &graph{
		vectors: make(map[uint64]Vector),
		edges:   make(map[uint64][]uint64),
	}
}

// add inserts id's vector into the graph, or replaces it if id is
// already present. A replace tears down id's existing edges first: a
// document whose content changed enough to move its vector may belong
// in an entirely different neighborhood, so the old edges are not worth
// keeping. This is what lets Index.Update push a live re-index straight
// into the graph instead of waiting for the next full rebuild.
func (g *graph) add(id uint64, v Vector) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.vectors[id]; exists {
		g.detachLocked(id)
	} else {
		g.order = append(g.order, id)
	}
	g.vectors[id] = v
	g.edges[id] = nil

	if len(g.vectors) == 1 {
		return
	}

	found := g.beamSearchLocked(v, id, beamWidth)
	if len(found) > maxDegree {
		found = found[:maxDegree]
	}
	neighbors := make([]uint64, 0, len(found))
	for _, c := range found {
		neighbors = append(neighbors, c.id)
		g.edges[c.id] = pruneNeighbors(append(g.edges[c.id], id), g.vectors, c.id)
	}
	g.edges[id] = neighbors
}

func (g *graph) detachLocked(id uint64) {
	for _, nb := range g.edges[id] {
		g.edges[nb] = removeID(g.edges[nb], id)
	}
	delete(g.edges, id)
}

func (g *graph) vector(id uint64) (Vector, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.vectors[id]
	return v, ok
}

// search returns up to k nearest neighbor doc IDs to query, nearest
// first, excluding exclude.
func (g *graph) search(query Vector, k int, exclude uint64) []uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(g.vectors) == 0 {
		return nil
	}

	width := beamWidth
	if want := (k + 1) * 2; want > width {
		width = want
	}
	found := g.beamSearchLocked(query, exclude, width)

	out := make([]uint64, 0, k)
	for _, c := range found {
		if c.id == exclude {
			continue
		}
		out = append(out, c.id)
		if len(out) == k {
			break
		}
	}
	return out
}

// beamSearchLocked runs a greedy best-first search over the flat graph
// and returns up to width nodes nearest to query, ordered nearest first.
// It seeds the frontier from several entry points spread across
// insertion order rather than one: a single fixed entry point can strand
// the search behind a poorly connected node, and there is no hierarchy
// here to route around that the way a multi-level graph would. Caller
// holds g.mu.
func (g *graph) beamSearchLocked(query Vector, avoid uint64, width int) []candidate {
	visited := make(map[uint64]bool, width*2)
	var frontier, results []candidate

	for _, seed := range g.seedsLocked(avoid) {
		if visited[seed] {
			continue
		}
		visited[seed] = true
		c := candidate{seed, euclideanDistance(query, g.vectors[seed])}
		frontier = append(frontier, c)
		results = append(results, c)
	}
	sort.Slice(frontier, func(i, j int) bool { return frontier[i].dist < frontier[j].dist })
	sort.Slice(results, func(i, j int) bool { return results[i].dist < results[j].dist })

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]

		if len(results) >= width && cur.dist > results[len(results)-1].dist {
			continue
		}

		for _, nb := range g.edges[cur.id] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d := euclideanDistance(query, g.vectors[nb])
			if len(results) < width || d < results[len(results)-1].dist {
				next := candidate{nb, d}
				frontier = insertSorted(frontier, next)
				results = insertSorted(results, next)
				if len(results) > width {
					results = results[:width]
				}
			}
		}
	}
	return results
}

// seedsLocked picks up to numSeeds entry points spread evenly across
// insertion order, skipping avoid.
func (g *graph) seedsLocked(avoid uint64) []uint64 {
	if len(g.order) == 0 {
		return nil
	}
	step := len(g.order) / numSeeds
	if step == 0 {
		step = 1
	}
	seeds := make([]uint64, 0, numSeeds)
	for i := 0; i < len(g.order) && len(seeds) < numSeeds; i += step {
		if id := g.order[i]; id != avoid {
			seeds = append(seeds, id)
		}
	}
	if len(seeds) == 0 {
		last := g.order[len(g.order)-1]
		if last != avoid {
			seeds = append(seeds, last)
		}
	}
	return seeds
}

func insertSorted(list []candidate, c candidate) []candidate {
	i := sort.Search(len(list), func(i int) bool { return list[i].dist > c.dist })
	list = append(list, candidate{})
	copy(list[i+1:], list[i:])
	list[i] = c
	return list
}

// pruneNeighbors keeps the maxDegree neighbors of owner closest to it,
// after appending a freshly added edge.
func pruneNeighbors(neighbors []uint64, vectors map[uint64]Vector, owner uint64) []uint64 {
	if len(neighbors) <= maxDegree {
		return neighbors
	}
	ov := vectors[owner]
	sort.Slice(neighbors, func(i, j int) bool {
		return euclideanDistance(ov, vectors[neighbors[i]]) < euclideanDistance(ov, vectors[neighbors[j]])
	})
	return neighbors[:maxDegree]
}

func removeID(ids []uint64, target uint64) []uint64 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

func euclideanDistance(a, b Vector) float32 {
	var sum float32
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return float32(math.Sqrt(float64(sum)))
}
