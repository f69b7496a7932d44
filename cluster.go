package localfq

import (
	"math"
	"sort"
)

// Cluster is a named group of partition leaves with similar density. Its
// boxes may be disjoint: a cluster absorbs every matching leaf, adjacent or
// not, so one cluster can be represented by several separated rectangles.
type Cluster struct {
	ID     int
	Boxes  []Box
	Points []EmbeddedPoint
}

// BuildClusters agglomerates leaves into clusters by density similarity and
// applies the minimum-size rule.
//
// Leaves are visited in descending density order. Each leaf joins the first
// existing cluster whose founding leaf's density is within tolerance
// (relative to the larger of the two densities); otherwise it founds a new
// cluster. Afterwards every cluster holding minPoints points or fewer is
// dropped entirely: its points are not reassigned and remain reachable at
// inference time only through the nearest-instance fallback.
//
// Returns the survivors in ascending ID order, plus the dropped clusters
// for the caller's bookkeeping.
func BuildClusters(leaves []Leaf, tolerance float64, minPoints int) (clusters, dropped []Cluster) {
	ordered := make([]Leaf, len(leaves))
	copy(ordered, leaves)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Density > ordered[j].Density
	})

	var all []Cluster
	var refDensity []float64
	for _, leaf := range ordered {
		assigned := false
		for i := range all {
			if densityWithin(refDensity[i], leaf.Density, tolerance) {
				all[i].Boxes = append(all[i].Boxes, leaf.Box)
				all[i].Points = append(all[i].Points, leaf.Points...)
				assigned = true
				break
			}
		}
		if !assigned {
			all = append(all, Cluster{
				ID:     len(all),
				Boxes:  []Box{leaf.Box},
				Points: leaf.Points,
			})
			refDensity = append(refDensity, leaf.Density)
		}
	}

	for _, c := range all {
		if len(c.Points) <= minPoints {
			dropped = append(dropped, c)
			continue
		}
		clusters = append(clusters, c)
	}
	return clusters, dropped
}

// densityWithin reports whether two leaf densities differ by no more than
// tolerance, relative to the larger one. Two maximally dense (infinite)
// leaves compare equal; an infinite density never matches a finite one.
func densityWithin(d1, d2, tolerance float64) bool {
	if d1 == d2 {
		return true
	}
	m := math.Max(d1, d2)
	if math.IsInf(m, 1) {
		return false
	}
	return math.Abs(d1-d2)/m <= tolerance
}
