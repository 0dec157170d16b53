package universe

import "fmt"

var (
	ErrInvalidIndex   = fmt.Errorf("invalid entity index")
	ErrDivisionByZero = fmt.Errorf("reference entity has zero plays")
	ErrEmptyDataSet   = fmt.Errorf("no entities loaded")

	ErrDuplicateName    = fmt.Errorf("duplicate entity name")
	ErrNegativeCount    = fmt.Errorf("negative metric count")
	ErrUnknownEntity    = fmt.Errorf("entity not in set")
	ErrLayoutMismatch   = fmt.Errorf("diameters do not match entities")
	ErrComparisonClosed = fmt.Errorf("comparison not open")
)
