package parser

import "fmt"

// StructuralError reports malformed object or trailer syntax. It is
// fatal under a strict recovery strategy.
type StructuralError struct {
	Offset int64
	Msg    string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural error at offset %d: %s", e.Offset, e.Msg)
}
