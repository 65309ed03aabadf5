package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/viant/vec/search"

	"github.com/yojanasaar/yojanasaar/internal/domain"
)

// MemoryIndex is a brute-force cosine index over the whole corpus. It is
// built before the server accepts traffic and never mutated afterwards, so
// concurrent searches need no locking.
type MemoryIndex struct {
	ids  []string
	vecs [][]float32
	mags []float32
	dim  int
}

// NewMemoryIndex builds an index from corpus entries. Entries must arrive
// in insertion order; ties on distance resolve to the earlier entry.
func NewMemoryIndex(entries []Entry, dims int) (*MemoryIndex, error) {
	idx := &MemoryIndex{dim: dims}
	for _, e := range entries {
		if len(e.Vector) != dims {
			return nil, fmt.Errorf("scheme %s has %d dimensions, index expects %d: %w",
				e.Scheme.ID, len(e.Vector), dims, domain.ErrWrongDimensions)
		}
		idx.ids = append(idx.ids, e.Scheme.ID)
		idx.vecs = append(idx.vecs, e.Vector)
		idx.mags = append(idx.mags, search.Float32s(e.Vector).Magnitude())
	}
	return idx, nil
}

// Len returns the number of indexed schemes.
func (m *MemoryIndex) Len() int {
	return len(m.ids)
}

// Search scans every entry and returns the k nearest by cosine distance.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	if len(vector) != m.dim {
		return nil, domain.ErrQueryDimensions
	}
	if k < 1 || len(m.ids) == 0 {
		return nil, nil
	}

	qv := search.Float32s(vector)
	qmag := qv.Magnitude()
	if qmag == 0 {
		return nil, nil
	}

	type scored struct {
		pos  int
		dist float32
	}
	scoreds := make([]scored, 0, len(m.vecs))
	for pos := range m.vecs {
		if m.mags[pos] == 0 {
			continue
		}
		dist := qv.CosineDistanceWithMagnitude(m.vecs[pos], qmag, m.mags[pos])
		scoreds = append(scoreds, scored{pos: pos, dist: dist})
	}

	// Stable sort keeps insertion order for equal distances.
	sort.SliceStable(scoreds, func(a, b int) bool {
		return scoreds[a].dist < scoreds[b].dist
	})

	if k > len(scoreds) {
		k = len(scoreds)
	}
	matches := make([]Match, k)
	for n := 0; n < k; n++ {
		matches[n] = Match{
			SchemeID: m.ids[scoreds[n].pos],
			Score:    1.0 / (1.0 + scoreds[n].dist),
		}
	}
	return matches, nil
}
