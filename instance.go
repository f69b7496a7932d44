package localfq

import "fmt"

// Schema describes the attribute layout shared by every instance of a
// dataset: ordered attribute names with one designated label attribute.
type Schema struct {
	Attributes []string
	LabelIndex int
}

// NewSchema validates and returns a schema. labelIndex must address one of
// the attributes and at least one non-label attribute must remain.
func NewSchema(attributes []string, labelIndex int) (Schema, error) {
	if len(attributes) < 2 {
		return Schema{}, fmt.Errorf("localfq: schema needs a label and at least one feature, got %d attributes", len(attributes))
	}
	if labelIndex < 0 || labelIndex >= len(attributes) {
		return Schema{}, fmt.Errorf("localfq: label index %d out of range [0,%d)", labelIndex, len(attributes))
	}
	return Schema{Attributes: attributes, LabelIndex: labelIndex}, nil
}

// NumAttributes returns the total attribute count, label included.
func (s Schema) NumAttributes() int { return len(s.Attributes) }

// NumFeatures returns the number of non-label attributes.
func (s Schema) NumFeatures() int { return len(s.Attributes) - 1 }

// Label returns the label value of inst under this schema.
func (s Schema) Label(inst Instance) float64 { return inst.Values[s.LabelIndex] }

// Features returns the non-label values of inst in attribute order.
// The result is a fresh slice; inst is not modified.
func (s Schema) Features(inst Instance) []float64 {
	return s.appendFeatures(make([]float64, 0, s.NumFeatures()), inst)
}

func (s Schema) appendFeatures(dst []float64, inst Instance) []float64 {
	for j, v := range inst.Values {
		if j != s.LabelIndex {
			dst = append(dst, v)
		}
	}
	return dst
}

// Instance is one feature vector. Values aligns index-for-index with the
// owning schema's attributes, label included. Instances are treated as
// immutable once they enter a dataset.
type Instance struct {
	Values []float64
}

// clone returns a deep copy of inst.
func (inst Instance) clone() Instance {
	values := make([]float64, len(inst.Values))
	copy(values, inst.Values)
	return Instance{Values: values}
}

// Dataset is a labeled collection of instances sharing one schema.
type Dataset struct {
	Schema    Schema
	Instances []Instance
}

// Len returns the number of instances.
func (d *Dataset) Len() int { return len(d.Instances) }

// validate checks that every instance matches the schema's attribute count.
func (d *Dataset) validate() error {
	want := d.Schema.NumAttributes()
	for _, inst := range d.Instances {
		if len(inst.Values) != want {
			return &ErrValueCount{Expected: want, Actual: len(inst.Values)}
		}
	}
	return nil
}

// featureMatrix returns the dataset's non-label values as a flat row-major
// matrix with Len() rows and NumFeatures() columns.
func featureMatrix(d *Dataset) []float64 {
	rows := make([]float64, 0, d.Len()*d.Schema.NumFeatures())
	for _, inst := range d.Instances {
		rows = d.Schema.appendFeatures(rows, inst)
	}
	return rows
}

// Reformat copies inst, described by source, into the target schema.
// Attributes are matched by name: unmatched source attributes are dropped
// and target attributes missing from the source are zero-filled. The
// zero-fill is deliberately lenient; a query lacking expected attributes
// still produces a usable (if lossy) instance.
func Reformat(target, source Schema, inst Instance) Instance {
	byName := make(map[string]int, len(source.Attributes))
	for j, name := range source.Attributes {
		byName[name] = j
	}

	values := make([]float64, target.NumAttributes())
	for j, name := range target.Attributes {
		if k, ok := byName[name]; ok && k < len(inst.Values) {
			values[j] = inst.Values[k]
		}
	}
	return Instance{Values: values}
}
