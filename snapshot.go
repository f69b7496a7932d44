package localfq

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
)

func init() {
	// Interface-typed fields (DistanceMetric, Model) need their concrete
	// types registered for gob. Custom metrics and models must be
	// registered by the caller; DistanceFunc cannot be snapshotted.
	gob.Register(EuclideanMetric{})
	gob.Register(ManhattanMetric{})
	gob.Register(ChebyshevMetric{})
	gob.Register(MinkowskiMetric{})
	gob.Register(&KNNModel{})
}

// Compile time checks to ensure Store satisfies the gob interfaces.
var (
	_ gob.GobEncoder = (*Store)(nil)
	_ gob.GobDecoder = (*Store)(nil)
)

// clusterState is the serialized form of one stored cluster.
type clusterState struct {
	ID        int
	Boxes     []Box
	Instances []Instance
	Features  []float64
	Model     Model
}

// GobEncode serializes the store's retained state: schema, metric, pivot
// layout, and every surviving cluster with its model.
func (s *Store) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)

	if err := encoder.Encode(s.schema); err != nil {
		return nil, err
	}
	if err := encoder.Encode(&s.metric); err != nil {
		return nil, err
	}
	if err := encoder.Encode(s.pivots); err != nil {
		return nil, err
	}
	if err := encoder.Encode(s.pivotPairs); err != nil {
		return nil, err
	}

	clusters := make([]clusterState, len(s.clusters))
	for i, c := range s.clusters {
		clusters[i] = clusterState{
			ID:        c.id,
			Boxes:     c.boxes,
			Instances: c.instances,
			Features:  c.features,
			Model:     c.model,
		}
	}
	if err := encoder.Encode(clusters); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode restores a store serialized by GobEncode. The logger is reset
// to a discarding one; use SetLogger to reattach.
func (s *Store) GobDecode(data []byte) error {
	decoder := gob.NewDecoder(bytes.NewBuffer(data))

	if err := decoder.Decode(&s.schema); err != nil {
		return err
	}
	if err := decoder.Decode(&s.metric); err != nil {
		return err
	}
	if err := decoder.Decode(&s.pivots); err != nil {
		return err
	}
	if err := decoder.Decode(&s.pivotPairs); err != nil {
		return err
	}

	var clusters []clusterState
	if err := decoder.Decode(&clusters); err != nil {
		return err
	}
	s.clusters = make([]storedCluster, len(clusters))
	for i, c := range clusters {
		s.clusters[i] = storedCluster{
			id:        c.ID,
			boxes:     c.Boxes,
			instances: c.Instances,
			features:  c.Features,
			model:     c.Model,
		}
	}

	s.logger = slog.New(slog.DiscardHandler)
	s.cachePivotDistances()
	return nil
}

// SetLogger replaces the store's logger. nil discards.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s.logger = logger
}

// Save writes a zstd-compressed snapshot of the store to path. The file is
// self-contained: LoadStore restores a fully usable store from it.
func (s *Store) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("localfq: create snapshot: %w", err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("localfq: snapshot compressor: %w", err)
	}

	if err := gob.NewEncoder(zw).Encode(s); err != nil {
		zw.Close()
		return fmt.Errorf("localfq: encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("localfq: flush snapshot: %w", err)
	}
	return f.Close()
}

// LoadStore reads a snapshot written by Save.
func LoadStore(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("localfq: open snapshot: %w", err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("localfq: snapshot decompressor: %w", err)
	}
	defer zr.Close()

	s := new(Store)
	if err := gob.NewDecoder(zr).Decode(s); err != nil {
		return nil, fmt.Errorf("localfq: decode snapshot: %w", err)
	}
	return s, nil
}
