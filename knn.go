package localfq

import (
	"container/heap"
	"errors"
)

// KNNTrainer trains a k-nearest-neighbor majority-vote classifier. It is
// the default per-cluster model: cheap to train (it only retains the
// cluster's instances) and robust on the small datasets clusters produce.
type KNNTrainer struct {
	// K is the neighborhood size, clamped to the training set size.
	// 0 means 3.
	K int

	// Metric measures instance similarity. nil means EuclideanMetric.
	Metric DistanceMetric
}

// Train retains ds and returns a KNNModel over it.
func (t KNNTrainer) Train(ds *Dataset) (Model, error) {
	if ds.Len() == 0 {
		return nil, errors.New("localfq: knn: empty training set")
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}

	k := t.K
	if k <= 0 {
		k = 3
	}
	if k > ds.Len() {
		k = ds.Len()
	}
	metric := t.Metric
	if metric == nil {
		metric = EuclideanMetric{}
	}

	labels := make([]float64, ds.Len())
	for i, inst := range ds.Instances {
		labels[i] = ds.Schema.Label(inst)
	}

	return &KNNModel{
		Schema:   ds.Schema,
		Features: featureMatrix(ds),
		Labels:   labels,
		K:        k,
		Metric:   metric,
	}, nil
}

// KNNModel predicts by majority vote among the K nearest training
// instances. Fields are exported for snapshot encoding; treat a trained
// model as immutable.
type KNNModel struct {
	Schema   Schema
	Features []float64 // flat row-major, NumFeatures columns
	Labels   []float64
	K        int
	Metric   DistanceMetric
}

// Predict returns the majority label among the K nearest neighbors of
// inst. Label ties break toward the smallest label value.
func (m *KNNModel) Predict(inst Instance) (float64, error) {
	if len(inst.Values) != m.Schema.NumAttributes() {
		return 0, &ErrValueCount{Expected: m.Schema.NumAttributes(), Actual: len(inst.Values)}
	}

	qf := m.Schema.Features(inst)
	dims := m.Schema.NumFeatures()
	n := len(m.Labels)

	// Bounded max-heap: largest distance on top, so the K closest remain.
	h := &neighborHeap{}
	heap.Init(h)
	for i := 0; i < n; i++ {
		d := m.Metric.Distance(qf, m.Features[i*dims:(i+1)*dims])
		if h.Len() < m.K {
			heap.Push(h, neighbor{index: i, dist: d})
		} else if d < (*h)[0].dist {
			(*h)[0] = neighbor{index: i, dist: d}
			heap.Fix(h, 0)
		}
	}

	votes := make(map[float64]int, h.Len())
	for _, nb := range *h {
		votes[m.Labels[nb.index]]++
	}

	var bestLabel float64
	bestCount := -1
	for label, count := range votes {
		if count > bestCount || (count == bestCount && label < bestLabel) {
			bestLabel = label
			bestCount = count
		}
	}
	return bestLabel, nil
}

type neighbor struct {
	index int
	dist  float64
}

// neighborHeap is a max-heap of neighbors (largest distance on top) used
// as a bounded priority queue.
type neighborHeap []neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return h[i].dist > h[j].dist } // max-heap
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x any)        { *h = append(*h, x.(neighbor)) }
func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
