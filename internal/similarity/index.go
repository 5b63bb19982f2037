// Package similarity answers nearest-neighbour queries over TF-IDF rows.
package similarity

import (
	"container/heap"

	"github.com/bookwise/bookwise-server/internal/vectorize"
)

// Hit is a single neighbour: the matrix row and its cosine score.
type Hit struct {
	Row   int
	Score float64
}

// Index returns the k rows most similar to a query vector.
//
// Results are ordered by score descending, ties broken by row ascending.
// The query row itself is not excluded.
type Index interface {
	Query(q vectorize.Vector, k int) []Hit
	Len() int
}

// BruteForce scores every row against the query. Rows are unit length, so
// the dot product is the cosine similarity.
type BruteForce struct {
	matrix *vectorize.Matrix
}

// NewBruteForce creates an exhaustive index over m.
func NewBruteForce(m *vectorize.Matrix) *BruteForce {
	return &BruteForce{matrix: m}
}

// Len returns the number of indexed rows.
func (b *BruteForce) Len() int {
	return b.matrix.Rows()
}

// Query returns at most k hits.
func (b *BruteForce) Query(q vectorize.Vector, k int) []Hit {
	n := b.matrix.Rows()
	if k <= 0 || n == 0 {
		return nil
	}
	if k > n {
		k = n
	}

	h := make(hitHeap, 0, k)
	for row := 0; row < n; row++ {
		hit := Hit{Row: row, Score: q.Dot(b.matrix.Row(row))}
		if len(h) < k {
			heap.Push(&h, hit)
			continue
		}
		if better(hit, h[0]) {
			h[0] = hit
			heap.Fix(&h, 0)
		}
	}

	out := make([]Hit, len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(Hit)
	}
	return out
}

// better reports whether a ranks ahead of b.
func better(a, b Hit) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Row < b.Row
}

// hitHeap is a min-heap with the worst-ranked hit at the root.
type hitHeap []Hit

func (h hitHeap) Len() int           { return len(h) }
func (h hitHeap) Less(i, j int) bool { return better(h[j], h[i]) }
func (h hitHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *hitHeap) Push(x any) {
	*h = append(*h, x.(Hit))
}

func (h *hitHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
