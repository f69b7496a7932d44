package localfq

import "sync"

// ComputeDistanceMatrixParallel computes the full n×n pairwise distance
// matrix across numWorkers goroutines. Source rows are dealt out round-robin
// (worker w takes rows w, w+numWorkers, ...), which levels the triangular
// workload: each row i only computes dist(i,j) for j > i, so later rows are
// cheaper. Row assignments never overlap, so writes need no synchronization,
// and the result is bitwise identical to ComputeDistanceMatrix.
func ComputeDistanceMatrixParallel(features []float64, n, dims int, metric DistanceMetric, numWorkers int) []float64 {
	result := make([]float64, n*n)
	if numWorkers <= 1 || n <= 1 {
		fillDistanceRows(result, features, n, dims, metric, 0, 1)
		return result
	}
	if numWorkers > n {
		numWorkers = n
	}

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(start int) {
			defer wg.Done()
			fillDistanceRows(result, features, n, dims, metric, start, numWorkers)
		}(w)
	}
	wg.Wait()
	return result
}

// fillDistanceRows computes the upper-triangle entries of every stride-th
// source row beginning at start, mirroring each into the lower triangle.
func fillDistanceRows(result, features []float64, n, dims int, metric DistanceMetric, start, stride int) {
	for i := start; i < n; i += stride {
		for j := i + 1; j < n; j++ {
			d := metric.Distance(features[i*dims:(i+1)*dims], features[j*dims:(j+1)*dims])
			result[i*n+j] = d
			result[j*n+i] = d
		}
	}
}
