package localfq

import (
	"fmt"
	"math"
	"math/rand"
)

// PivotPair identifies the two reference objects that span one embedding
// axis. Indices address rows of the distance matrix the projection was
// computed from.
type PivotPair struct {
	A int
	B int
}

// Projection holds the images of n objects in a dims-dimensional embedding,
// produced from pairwise distances alone.
type Projection struct {
	// Coords is flat row-major: Coords[i*Dims+a] is object i's coordinate
	// on axis a.
	Coords []float64
	N      int
	Dims   int
	// Pivots lists the per-axis pivot pair, in axis order.
	Pivots []PivotPair
}

// At returns object i's coordinate on the given axis.
func (p *Projection) At(i, axis int) float64 { return p.Coords[i*p.Dims+axis] }

// FastmapProject embeds n objects, known only through their pairwise
// distances, into dims coordinates each (Faloutsos & Lin, 1995).
//
// distMatrix is flat row-major n×n, symmetric with a zero diagonal. Per
// axis, a pivot pair is chosen by a farthest-pair heuristic: start from a
// random object, take the object farthest from it under the residual
// distance, then the object farthest from that. This approximates but does
// not guarantee the true diameter. rng drives the random start; nil uses
// the global source, so pass a seeded *rand.Rand for reproducible results.
//
// An axis whose pivot distance is zero under the residual (all remaining
// structure already explained, or all distances identical) is skipped:
// every coordinate on that axis stays zero.
func FastmapProject(distMatrix []float64, n, dims int, rng *rand.Rand) (*Projection, error) {
	f, err := newFastmap(distMatrix, n, dims)
	if err != nil {
		return nil, err
	}

	for axis := 0; axis < dims; axis++ {
		start := randIntn(rng, n)
		a := f.farthestFrom(start, axis)
		b := f.farthestFrom(a, axis)
		f.pivots[axis] = PivotPair{A: a, B: b}
		f.projectAxis(axis)
	}

	return f.projection(), nil
}

// FastmapProjectPinned embeds n objects against an externally fixed pivot
// layout, one pair per axis, using the exact projection formula of
// FastmapProject. This is the single-object re-projection path: the caller
// supplies a small local distance matrix holding the new object and the
// retained pivots, with pivot indices pinned to their rows.
func FastmapProjectPinned(distMatrix []float64, n, dims int, pivots []PivotPair) (*Projection, error) {
	f, err := newFastmap(distMatrix, n, dims)
	if err != nil {
		return nil, err
	}
	if len(pivots) != dims {
		return nil, fmt.Errorf("localfq: %d pivot pairs supplied for %d axes", len(pivots), dims)
	}
	for axis, p := range pivots {
		if p.A < 0 || p.A >= n || p.B < 0 || p.B >= n {
			return nil, fmt.Errorf("localfq: pivot pair %v for axis %d out of range [0,%d)", p, axis, n)
		}
	}

	copy(f.pivots, pivots)
	for axis := 0; axis < dims; axis++ {
		f.projectAxis(axis)
	}

	return f.projection(), nil
}

type fastmap struct {
	dist   []float64 // n×n raw distances
	n      int
	dims   int
	coords []float64 // n×dims, accumulated per axis
	pivots []PivotPair
}

func newFastmap(distMatrix []float64, n, dims int) (*fastmap, error) {
	if n < 2 {
		return nil, ErrDegenerateInput
	}
	if len(distMatrix) != n*n {
		return nil, fmt.Errorf("localfq: distance matrix length %d does not match n*n = %d (n=%d)", len(distMatrix), n*n, n)
	}
	if dims < 1 {
		return nil, fmt.Errorf("localfq: embedding needs at least 1 dimension, got %d", dims)
	}
	return &fastmap{
		dist:   distMatrix,
		n:      n,
		dims:   dims,
		coords: make([]float64, n*dims),
		pivots: make([]PivotPair, dims),
	}, nil
}

func (f *fastmap) projection() *Projection {
	return &Projection{Coords: f.coords, N: f.n, Dims: f.dims, Pivots: f.pivots}
}

// residual returns the squared distance between objects i and j with the
// contributions of axes 0..axis-1 removed (equation 4 of the Fastmap
// paper). The absolute value guards floating round-off producing small
// negatives.
func (f *fastmap) residual(i, j, axis int) float64 {
	d := f.dist[i*f.n+j]
	sq := d * d
	for a := 0; a < axis; a++ {
		diff := f.coords[i*f.dims+a] - f.coords[j*f.dims+a]
		sq -= diff * diff
	}
	return math.Abs(sq)
}

// farthestFrom returns the object with the greatest residual distance from
// index on the given axis. Scans in index order, so results are
// deterministic for a fixed starting object.
func (f *fastmap) farthestFrom(index, axis int) int {
	best := -1.0
	ret := 0
	for i := 0; i < f.n; i++ {
		if i == index {
			continue
		}
		if d := f.residual(i, index, axis); d > best {
			best = d
			ret = i
		}
	}
	return ret
}

// projectAxis assigns every object's coordinate on the axis from the axis's
// pivot pair. A degenerate axis (zero residual pivot distance) leaves all
// coordinates at zero.
func (f *fastmap) projectAxis(axis int) {
	p := f.pivots[axis]
	dab := f.residual(p.A, p.B, axis)
	if dab == 0 {
		return
	}

	denom := 2 * math.Sqrt(dab)
	for i := 0; i < f.n; i++ {
		dia := f.residual(i, p.A, axis)
		dib := f.residual(i, p.B, axis)
		f.coords[i*f.dims+axis] = (dia + dab - dib) / denom
	}
}

func randIntn(rng *rand.Rand, n int) int {
	if rng != nil {
		return rng.Intn(n)
	}
	return rand.Intn(n)
}
