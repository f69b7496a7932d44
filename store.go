package localfq

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// embeddingDims is the Fastmap target dimensionality. The partitioner and
// the pinned re-projection layout (4 retained pivots, 5×5 local matrix)
// assume a plane.
const embeddingDims = 2

// Trainer builds a predictive model from a labeled dataset. Any algorithm
// satisfying this contract can serve as the per-cluster model; the bundled
// KNNTrainer is the default.
type Trainer interface {
	Train(ds *Dataset) (Model, error)
}

// Model predicts a label for a single instance. Implementations must be
// safe for concurrent Predict calls.
type Model interface {
	Predict(inst Instance) (float64, error)
}

// Config controls training. Start with DefaultConfig and override the
// fields you need.
type Config struct {
	// Metric is the distance oracle used for the training distance matrix,
	// pivot distances at inference time, and the nearest-instance fallback.
	// The label attribute is always excluded. Default: EuclideanMetric.
	Metric DistanceMetric

	// Trainer builds one model per surviving cluster.
	// Default: KNNTrainer{K: 3}.
	Trainer Trainer

	// DensityTolerance is the maximum relative density difference under
	// which two leaves merge into one cluster: |d1-d2|/max(d1,d2) <= tol.
	// Must be in [0, 1]. Default: 0.5.
	DensityTolerance float64

	// MinClusterPoints drops every cluster holding this many points or
	// fewer before model training. The reference behavior is the fixed
	// threshold 4 (not the adaptive sqrt(N) sometimes described for this
	// algorithm family). 0 means default; negative keeps every cluster.
	MinClusterPoints int

	// MinSplitPoints stops the quad-tree recursion once a node holds this
	// many points or fewer. Must be >= 1 after defaulting. Default: 4.
	MinSplitPoints int

	// Workers bounds the goroutines used for the pairwise distance matrix
	// and per-cluster model training. 0 means runtime.NumCPU().
	Workers int

	// Rand drives Fastmap pivot selection, the only nondeterminism in a
	// build. nil uses the global source; supply a seeded *rand.Rand for
	// reproducible builds.
	Rand *rand.Rand

	// Logger receives structured build/predict events. nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Metric:           EuclideanMetric{},
		Trainer:          KNNTrainer{K: 3},
		DensityTolerance: 0.5,
		MinClusterPoints: 4,
		MinSplitPoints:   4,
	}
}

// applyDefaults fills in zero-valued config fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Metric == nil {
		cfg.Metric = EuclideanMetric{}
	}
	if cfg.Trainer == nil {
		cfg.Trainer = KNNTrainer{K: 3}
	}
	if cfg.DensityTolerance == 0 {
		cfg.DensityTolerance = 0.5
	}
	if cfg.MinClusterPoints == 0 {
		cfg.MinClusterPoints = 4
	}
	if cfg.MinSplitPoints == 0 {
		cfg.MinSplitPoints = 4
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
}

// validateConfig checks cfg after defaulting and returns a descriptive
// error if a field is out of range.
func validateConfig(cfg *Config) error {
	if cfg.DensityTolerance < 0 || cfg.DensityTolerance > 1 {
		return fmt.Errorf("localfq: DensityTolerance must be in [0, 1], got %f", cfg.DensityTolerance)
	}
	if cfg.MinSplitPoints < 1 {
		return fmt.Errorf("localfq: MinSplitPoints must be >= 1, got %d", cfg.MinSplitPoints)
	}
	return nil
}

// storedCluster is one surviving cluster as retained for inference: its
// bounding boxes, training instances (label included), the same instances'
// feature rows for the fallback scan, and the trained model.
type storedCluster struct {
	id        int
	boxes     []Box
	instances []Instance
	features  []float64 // flat row-major, NumFeatures columns
	model     Model
}

// Store is the immutable result of one Build: the surviving clusters with
// their models, plus the retained Fastmap pivots needed to re-project new
// instances. Predict never mutates the store, so concurrent predictions
// require no locking.
type Store struct {
	schema Schema
	metric DistanceMetric
	logger *slog.Logger

	// pivots are copies of the 4 pivot instances, in local-matrix row
	// order: x-axis pair first, then y-axis pair. pivotDist caches their
	// pairwise feature distances; pivotPairs records the training-time
	// index layout.
	pivots     []Instance
	pivotFeats [][]float64
	pivotDist  [4][4]float64
	pivotPairs []PivotPair

	clusters []storedCluster
}

// Build trains a local-model store on ds: distance matrix → 2-D Fastmap
// embedding → quad-tree partition → density clustering → one model per
// surviving cluster.
//
// Build fails with ErrDegenerateInput when ds holds fewer than 2 distinct
// instances, and propagates the first model training error unrecovered.
// A build that survives with zero clusters succeeds (with a warning); the
// failure is deferred to Predict, which then returns ErrNoClusters.
func Build(ds *Dataset, cfg Config) (*Store, error) {
	applyDefaults(&cfg)
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	if err := ds.validate(); err != nil {
		return nil, err
	}

	n := ds.Len()
	if n < 2 {
		return nil, ErrDegenerateInput
	}

	dims := ds.Schema.NumFeatures()
	features := featureMatrix(ds)
	distMatrix := ComputeDistanceMatrixParallel(features, n, dims, cfg.Metric, cfg.Workers)
	if floats.Max(distMatrix) == 0 {
		// Every instance coincides: one distinct object, nothing to embed.
		return nil, ErrDegenerateInput
	}

	proj, err := FastmapProject(distMatrix, n, embeddingDims, cfg.Rand)
	if err != nil {
		return nil, err
	}

	points := make([]EmbeddedPoint, n)
	for i := range points {
		points[i] = EmbeddedPoint{X: proj.At(i, 0), Y: proj.At(i, 1), Index: i}
	}

	leaves := Partition(points, EmbeddingBounds(points), cfg.MinSplitPoints)
	clusters, droppedClusters := BuildClusters(leaves, cfg.DensityTolerance, cfg.MinClusterPoints)
	for _, c := range droppedClusters {
		cfg.Logger.Info("dropping cluster", "cluster", c.ID, "points", len(c.Points))
	}
	if len(clusters) == 0 {
		cfg.Logger.Warn("no cluster survived training; predictions will fail",
			"leaves", len(leaves), "dropped", len(droppedClusters))
	}

	s := &Store{
		schema:     ds.Schema,
		metric:     cfg.Metric,
		logger:     cfg.Logger,
		pivotPairs: proj.Pivots,
	}
	for _, p := range proj.Pivots {
		s.pivots = append(s.pivots, ds.Instances[p.A].clone(), ds.Instances[p.B].clone())
	}
	s.cachePivotDistances()

	s.clusters = make([]storedCluster, len(clusters))
	g := new(errgroup.Group)
	g.SetLimit(cfg.Workers)
	for i, c := range clusters {
		g.Go(func() error {
			sub := &Dataset{Schema: ds.Schema, Instances: make([]Instance, 0, len(c.Points))}
			for _, p := range c.Points {
				sub.Instances = append(sub.Instances, ds.Instances[p.Index])
			}
			model, err := cfg.Trainer.Train(sub)
			if err != nil {
				return fmt.Errorf("localfq: training model for cluster %d: %w", c.ID, err)
			}
			s.clusters[i] = storedCluster{
				id:        c.ID,
				boxes:     c.Boxes,
				instances: sub.Instances,
				features:  featureMatrix(sub),
				model:     model,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	buildsTotal.Inc()
	clustersBuiltTotal.Add(float64(len(clusters)))
	clustersDroppedTotal.Add(float64(len(droppedClusters)))
	cfg.Logger.Info("build complete",
		"instances", n, "leaves", len(leaves),
		"clusters", len(clusters), "dropped", len(droppedClusters))

	return s, nil
}

// cachePivotDistances precomputes the symmetric pivot-pivot feature
// distances reused by every Predict call.
func (s *Store) cachePivotDistances() {
	s.pivotFeats = make([][]float64, len(s.pivots))
	for i, p := range s.pivots {
		s.pivotFeats[i] = s.schema.Features(p)
	}
	for i := 0; i < len(s.pivotFeats); i++ {
		for j := i + 1; j < len(s.pivotFeats); j++ {
			d := s.metric.Distance(s.pivotFeats[i], s.pivotFeats[j])
			s.pivotDist[i][j] = d
			s.pivotDist[j][i] = d
		}
	}
}

// Predict routes an instance sharing the store's schema to the matching
// cluster's model and returns its prediction. See PredictFrom.
func (s *Store) Predict(inst Instance) (float64, error) {
	return s.PredictFrom(s.schema, inst)
}

// PredictFrom classifies an instance described by source. The instance is
// first reformatted to the store's schema by attribute name (unmatched
// source attributes dropped, missing attributes zero-filled), then
// re-projected into the training embedding via the retained pivots, and
// routed to the first cluster — in ascending cluster-ID order — whose
// bounding box contains the image. When no box contains it, the cluster
// owning the nearest retained training instance is used instead.
//
// Returns ErrNoClusters when training left nothing to route to.
func (s *Store) PredictFrom(source Schema, inst Instance) (float64, error) {
	if len(s.clusters) == 0 {
		return 0, ErrNoClusters
	}

	query := Reformat(s.schema, source, inst)
	qf := s.schema.Features(query)

	x, y, err := s.project(qf)
	if err != nil {
		return 0, err
	}

	cluster := s.containing(x, y)
	route := routeContained
	if cluster == nil {
		cluster = s.nearest(qf)
		route = routeFallback
		s.logger.Debug("query outside all cluster boxes, routed to nearest instance",
			"x", x, "y", y, "cluster", cluster.id)
	}
	predictionsTotal.WithLabelValues(route).Inc()

	return cluster.model.Predict(query)
}

// project re-projects query features into the training embedding: a 5×5
// local distance matrix over the query and the 4 retained pivots, run
// through the pinned Fastmap formula. Row 0 is the query; rows 1-4 are the
// pivots in axis order, so the pinned pairs are (1,2) and (3,4).
func (s *Store) project(qf []float64) (x, y float64, err error) {
	const m = 2*embeddingDims + 1
	local := make([]float64, m*m)
	for i, pf := range s.pivotFeats {
		d := s.metric.Distance(qf, pf)
		local[0*m+i+1] = d
		local[(i+1)*m+0] = d
	}
	for i := 0; i < len(s.pivotFeats); i++ {
		for j := 0; j < len(s.pivotFeats); j++ {
			local[(i+1)*m+j+1] = s.pivotDist[i][j]
		}
	}

	pinned := []PivotPair{{A: 1, B: 2}, {A: 3, B: 4}}
	proj, err := FastmapProjectPinned(local, m, embeddingDims, pinned)
	if err != nil {
		return 0, 0, err
	}
	return proj.At(0, 0), proj.At(0, 1), nil
}

// containing returns the first cluster, in ascending ID order, with a box
// containing (x, y), or nil. The explicit ordering makes the overlapping-
// boundary case deterministic: the smallest cluster ID wins.
func (s *Store) containing(x, y float64) *storedCluster {
	for i := range s.clusters {
		for _, b := range s.clusters[i].boxes {
			if b.Contains(x, y) {
				return &s.clusters[i]
			}
		}
	}
	return nil
}

// nearest returns the cluster owning the retained training instance with
// the minimum feature distance to qf. The first minimum encountered wins.
func (s *Store) nearest(qf []float64) *storedCluster {
	dims := s.schema.NumFeatures()
	best := math.Inf(1)
	var ret *storedCluster
	for i := range s.clusters {
		c := &s.clusters[i]
		for r := 0; r < len(c.instances); r++ {
			if d := s.metric.Distance(qf, c.features[r*dims:(r+1)*dims]); d < best {
				best = d
				ret = c
			}
		}
	}
	return ret
}

// Schema returns the attribute schema the store's models expect.
func (s *Store) Schema() Schema { return s.schema }

// NumClusters returns the number of surviving clusters.
func (s *Store) NumClusters() int { return len(s.clusters) }

// PivotIndices returns the training-time pivot index layout, one pair per
// embedding axis.
func (s *Store) PivotIndices() []PivotPair {
	out := make([]PivotPair, len(s.pivotPairs))
	copy(out, s.pivotPairs)
	return out
}
