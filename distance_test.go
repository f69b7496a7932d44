package localfq

import (
	"math"
	"testing"
)

func TestMetrics(t *testing.T) {
	a := []float64{0, 0, 0}
	b := []float64{1, 2, 2}

	cases := []struct {
		name   string
		metric DistanceMetric
		want   float64
	}{
		{"euclidean", EuclideanMetric{}, 3},
		{"manhattan", ManhattanMetric{}, 5},
		{"chebyshev", ChebyshevMetric{}, 2},
		{"minkowski p=1", MinkowskiMetric{P: 1}, 5},
		{"minkowski p=2", MinkowskiMetric{P: 2}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.metric.Distance(a, b); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Distance = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDistanceFunc(t *testing.T) {
	m := DistanceFunc(func(a, b []float64) float64 { return 42 })
	if got := m.Distance(nil, nil); got != 42 {
		t.Errorf("Distance = %v, want 42", got)
	}
}

func TestComputeDistanceMatrix(t *testing.T) {
	features := []float64{
		0, 0,
		3, 4,
		6, 8,
	}
	dm := ComputeDistanceMatrix(features, 3, 2, EuclideanMetric{})

	for i := 0; i < 3; i++ {
		if dm[i*3+i] != 0 {
			t.Errorf("diagonal [%d][%d] = %v, want 0", i, i, dm[i*3+i])
		}
		for j := i + 1; j < 3; j++ {
			if dm[i*3+j] != dm[j*3+i] {
				t.Errorf("asymmetric: [%d][%d] = %v, [%d][%d] = %v", i, j, dm[i*3+j], j, i, dm[j*3+i])
			}
		}
	}
	if got := dm[0*3+1]; math.Abs(got-5) > 1e-12 {
		t.Errorf("d(0,1) = %v, want 5", got)
	}
	if got := dm[0*3+2]; math.Abs(got-10) > 1e-12 {
		t.Errorf("d(0,2) = %v, want 10", got)
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	const n, dims = 80, 5
	features := randomFeatures(n, dims, 9)

	seq := ComputeDistanceMatrix(features, n, dims, EuclideanMetric{})
	for _, workers := range []int{1, 2, 4, 7, n + 20} {
		par := ComputeDistanceMatrixParallel(features, n, dims, EuclideanMetric{}, workers)
		for i := range seq {
			if seq[i] != par[i] {
				t.Fatalf("workers=%d: entry %d differs: %v vs %v", workers, i, seq[i], par[i])
			}
		}
	}
}
