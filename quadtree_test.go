package localfq

import (
	"math"
	"math/rand"
	"testing"
)

func TestBoxContains(t *testing.T) {
	b := Box{MinX: 0, MaxX: 2, MinY: 0, MaxY: 2}
	cases := []struct {
		x, y float64
		want bool
	}{
		{1, 1, true},
		{0, 0, true}, // boundary inclusive
		{2, 2, true},
		{2, 0, true},
		{2.1, 1, false},
		{1, -0.1, false},
	}
	for _, tc := range cases {
		if got := b.Contains(tc.x, tc.y); got != tc.want {
			t.Errorf("Contains(%v, %v) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestPartitionSingleLeaf(t *testing.T) {
	points := []EmbeddedPoint{
		{X: 0, Y: 0, Index: 0},
		{X: 10, Y: 0, Index: 1},
		{X: 0, Y: 10, Index: 2},
		{X: 10, Y: 10, Index: 3},
	}
	leaves := Partition(points, EmbeddingBounds(points), 4)
	if len(leaves) != 1 {
		t.Fatalf("expected 1 leaf, got %d", len(leaves))
	}
	if got, want := leaves[0].Density, 4.0/100.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("density = %v, want %v", got, want)
	}
}

func TestPartitionQuadrants(t *testing.T) {
	// Two points per quadrant of [0,10]²; splitting at the medians must
	// produce exactly the four quadrant leaves.
	points := []EmbeddedPoint{
		{X: 1, Y: 1, Index: 0}, {X: 2, Y: 2, Index: 1}, // SW
		{X: 1, Y: 8, Index: 2}, {X: 2, Y: 9, Index: 3}, // NW
		{X: 8, Y: 1, Index: 4}, {X: 9, Y: 2, Index: 5}, // SE
		{X: 8, Y: 8, Index: 6}, {X: 9, Y: 9, Index: 7}, // NE
	}
	bounds := Box{MinX: 0, MaxX: 10, MinY: 0, MaxY: 10}

	leaves := Partition(points, bounds, 2)
	if len(leaves) != 4 {
		t.Fatalf("expected 4 leaves, got %d", len(leaves))
	}
	total := 0
	for _, leaf := range leaves {
		total += len(leaf.Points)
		if len(leaf.Points) != 2 {
			t.Errorf("leaf %+v holds %d points, want 2", leaf.Box, len(leaf.Points))
		}
		for _, p := range leaf.Points {
			if !leaf.Box.Contains(p.X, p.Y) {
				t.Errorf("point %+v outside its leaf box %+v", p, leaf.Box)
			}
		}
	}
	if total != len(points) {
		t.Errorf("leaves hold %d points in total, want %d", total, len(points))
	}
}

func TestPartitionCoincidentPoints(t *testing.T) {
	points := make([]EmbeddedPoint, 6)
	for i := range points {
		points[i] = EmbeddedPoint{X: 3, Y: 3, Index: i}
	}
	leaves := Partition(points, EmbeddingBounds(points), 1)
	if len(leaves) != 1 {
		t.Fatalf("expected 1 leaf for coincident points, got %d", len(leaves))
	}
	if !math.IsInf(leaves[0].Density, 1) {
		t.Errorf("zero-area leaf density = %v, want +Inf", leaves[0].Density)
	}
}

func TestPartitionCoversAllPoints(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	points := make([]EmbeddedPoint, 200)
	for i := range points {
		points[i] = EmbeddedPoint{X: rng.Float64() * 50, Y: rng.Float64() * 50, Index: i}
	}

	leaves := Partition(points, EmbeddingBounds(points), 4)

	seen := make(map[int]int)
	for _, leaf := range leaves {
		if leaf.Density <= 0 {
			t.Errorf("leaf %+v has non-positive density %v", leaf.Box, leaf.Density)
		}
		for _, p := range leaf.Points {
			seen[p.Index]++
			if !leaf.Box.Contains(p.X, p.Y) {
				t.Errorf("point %d outside its leaf box", p.Index)
			}
		}
	}
	if len(seen) != len(points) {
		t.Fatalf("%d distinct points in leaves, want %d", len(seen), len(points))
	}
	for idx, count := range seen {
		if count != 1 {
			t.Errorf("point %d appears in %d leaves, want exactly 1", idx, count)
		}
	}
}

func TestPartitionEmpty(t *testing.T) {
	if leaves := Partition(nil, Box{}, 4); leaves != nil {
		t.Errorf("expected nil leaves for empty input, got %d", len(leaves))
	}
}
