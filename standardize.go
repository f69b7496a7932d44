package localfq

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardizeAverage rescales every non-label attribute of train by the
// ratio of the reference dataset's attribute mean to the training
// dataset's (Watanabe et al., "Adapting a Fault Prediction Model to Allow
// Inter Language Reuse"). The training data is transformed rather than the
// reference data, so one reference population can be matched against many
// training sets. Attributes with a zero training mean are forced to zero.
//
// Both datasets must share the schema. train is modified in place;
// reference is read-only.
func StandardizeAverage(train, reference *Dataset) error {
	if err := train.validate(); err != nil {
		return err
	}
	if err := reference.validate(); err != nil {
		return err
	}
	if train.Schema.NumAttributes() != reference.Schema.NumAttributes() {
		return fmt.Errorf("localfq: standardize: schemas differ, %d vs %d attributes",
			train.Schema.NumAttributes(), reference.Schema.NumAttributes())
	}
	if train.Len() == 0 || reference.Len() == 0 {
		return ErrDegenerateInput
	}

	numAttrs := train.Schema.NumAttributes()
	meanRef := make([]float64, numAttrs)
	meanTrain := make([]float64, numAttrs)
	for j := 0; j < numAttrs; j++ {
		if j == train.Schema.LabelIndex {
			continue
		}
		meanRef[j] = attributeMean(reference, j)
		meanTrain[j] = attributeMean(train, j)
	}

	for i := range train.Instances {
		inst := train.Instances[i].clone()
		for j := 0; j < numAttrs; j++ {
			if j == train.Schema.LabelIndex {
				continue
			}
			if meanTrain[j] == 0 {
				inst.Values[j] = 0
			} else {
				inst.Values[j] *= meanRef[j] / meanTrain[j]
			}
		}
		train.Instances[i] = inst
	}
	return nil
}

func attributeMean(ds *Dataset, attr int) float64 {
	col := make([]float64, ds.Len())
	for i, inst := range ds.Instances {
		col[i] = inst.Values[attr]
	}
	return stat.Mean(col, nil)
}
