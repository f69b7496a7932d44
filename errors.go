package localfq

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateInput is returned by Build when the training set holds
	// fewer than 2 distinct instances, so no embedding axis can be spanned.
	ErrDegenerateInput = errors.New("localfq: fewer than 2 distinct instances to embed")

	// ErrNoClusters is returned by Predict when training left no surviving
	// cluster to route to. This signals a structural configuration problem:
	// the minimum cluster size is too aggressive for the dataset size.
	ErrNoClusters = errors.New("localfq: no surviving cluster to route to")
)

// ErrValueCount indicates an instance whose value count does not match its
// schema's attribute count.
type ErrValueCount struct {
	Expected int
	Actual   int
}

func (e *ErrValueCount) Error() string {
	return fmt.Sprintf("localfq: instance has %d values, schema expects %d", e.Actual, e.Expected)
}
