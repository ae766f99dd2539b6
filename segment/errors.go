package segment

import (
	"fmt"

	"github.com/vgees/qdrant/types"
)

// ErrDimensionMismatch indicates a vector whose length does not match the
// segment's fixed dimension. The operation is not applied.
type ErrDimensionMismatch struct {
	Expected int
	Received int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, received %d", e.Expected, e.Received)
}

// ErrPointNotFound indicates an operation that requires the point to
// pre-exist was addressed to an unknown external id.
type ErrPointNotFound struct {
	PointID types.PointID
}

func (e *ErrPointNotFound) Error() string {
	return fmt.Sprintf("point not found: %s", e.PointID)
}
