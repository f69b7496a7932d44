package localfq

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Box is an axis-aligned rectangle in embedding space. Both edges are
// inclusive, so boxes produced by a median split share their boundary.
type Box struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Contains reports whether the point (x, y) lies inside the box,
// boundary included.
func (b Box) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Area returns the box area. Degenerate boxes (all contained points
// coincident on an axis) have zero area.
func (b Box) Area() float64 {
	return (b.MaxX - b.MinX) * (b.MaxY - b.MinY)
}

// EmbeddedPoint ties one training instance, addressed by its index in the
// dataset snapshot, to its 2-D embedding coordinates.
type EmbeddedPoint struct {
	X, Y  float64
	Index int
}

// EmbeddingBounds returns the tight bounding box of the points.
func EmbeddingBounds(points []EmbeddedPoint) Box {
	b := Box{
		MinX: math.Inf(1), MaxX: math.Inf(-1),
		MinY: math.Inf(1), MaxY: math.Inf(-1),
	}
	for _, p := range points {
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// Leaf is one terminal quadrant of a partition: its box, the points that
// fell into it, and its density.
type Leaf struct {
	Box     Box
	Points  []EmbeddedPoint
	Density float64
}

// Partition recursively splits points into axis-aligned quadrants at the
// median x and median y of each node's contained points, and returns the
// terminal quadrants in deterministic (depth-first SW, NW, SE, NE) order.
//
// A node becomes a leaf when it holds minSplit points or fewer, when all of
// its points are coincident, or when a split fails to separate the points.
// Leaf density is point count per box area; a zero-area leaf counts as
// maximally dense (+Inf) rather than dividing by zero.
func Partition(points []EmbeddedPoint, bounds Box, minSplit int) []Leaf {
	if len(points) == 0 {
		return nil
	}
	if minSplit < 1 {
		minSplit = 1
	}
	ctx := &partitionContext{minSplit: minSplit}
	ctx.split(bounds, points)
	return ctx.leaves
}

// partitionContext accumulates leaves across the recursive build. All split
// state lives here rather than in package globals, so concurrent partitions
// are independent.
type partitionContext struct {
	minSplit int
	leaves   []Leaf
}

func (c *partitionContext) split(box Box, points []EmbeddedPoint) {
	if len(points) <= c.minSplit || coincident(points) {
		c.emit(box, points)
		return
	}

	mx := medianX(points)
	my := medianY(points)

	// Ties go to the low side: x <= median is west, y <= median is south.
	var sw, nw, se, ne []EmbeddedPoint
	for _, p := range points {
		west := p.X <= mx
		south := p.Y <= my
		switch {
		case west && south:
			sw = append(sw, p)
		case west:
			nw = append(nw, p)
		case south:
			se = append(se, p)
		default:
			ne = append(ne, p)
		}
	}

	quadrants := []struct {
		box    Box
		points []EmbeddedPoint
	}{
		{Box{MinX: box.MinX, MaxX: mx, MinY: box.MinY, MaxY: my}, sw},
		{Box{MinX: box.MinX, MaxX: mx, MinY: my, MaxY: box.MaxY}, nw},
		{Box{MinX: mx, MaxX: box.MaxX, MinY: box.MinY, MaxY: my}, se},
		{Box{MinX: mx, MaxX: box.MaxX, MinY: my, MaxY: box.MaxY}, ne},
	}

	for _, q := range quadrants {
		if len(q.points) == 0 {
			continue
		}
		if len(q.points) == len(points) {
			// Split made no progress; stop here rather than recurse forever.
			c.emit(box, points)
			return
		}
	}

	for _, q := range quadrants {
		if len(q.points) > 0 {
			c.split(q.box, q.points)
		}
	}
}

func (c *partitionContext) emit(box Box, points []EmbeddedPoint) {
	c.leaves = append(c.leaves, Leaf{
		Box:     box,
		Points:  points,
		Density: leafDensity(box, len(points)),
	})
}

func leafDensity(box Box, count int) float64 {
	area := box.Area()
	if area == 0 {
		return math.Inf(1)
	}
	return float64(count) / area
}

func coincident(points []EmbeddedPoint) bool {
	for _, p := range points[1:] {
		if p.X != points[0].X || p.Y != points[0].Y {
			return false
		}
	}
	return true
}

func medianX(points []EmbeddedPoint) float64 {
	xs := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.X
	}
	sort.Float64s(xs)
	return stat.Quantile(0.5, stat.Empirical, xs, nil)
}

func medianY(points []EmbeddedPoint) float64 {
	ys := make([]float64, len(points))
	for i, p := range points {
		ys[i] = p.Y
	}
	sort.Float64s(ys)
	return stat.Quantile(0.5, stat.Empirical, ys, nil)
}
