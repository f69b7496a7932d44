// Package localfq implements local-model clustering and routing after the
// WHERE algorithm (Menzies et al., "Local versus Global Lessons for Defect
// Prediction and Effort Estimation", IEEE TSE 39(6), 2013).
//
// Training projects a labeled dataset into two dimensions with Fastmap
// (Faloutsos & Lin, 1995) using only pairwise distances, partitions the
// embedding with a quad-tree split at median coordinates, merges leaves of
// similar density into clusters, and trains one model per surviving cluster.
// Prediction re-projects a query against the retained Fastmap pivots and
// routes it to the cluster whose bounding box contains the image, falling
// back to the nearest retained training instance when no box does.
//
// Basic usage:
//
//	cfg := localfq.DefaultConfig()
//	cfg.Rand = rand.New(rand.NewSource(1)) // reproducible pivot selection
//	store, err := localfq.Build(dataset, cfg)
//	// ...
//	label, err := store.Predict(query)
//
// A built Store is immutable: any number of Predict calls may run
// concurrently against it without locking. Pivot selection is the only
// source of nondeterminism; supply a seeded Config.Rand to remove it.
package localfq
