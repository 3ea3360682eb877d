package render

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-views/pkg/locals"
	"github.com/goliatone/go-views/pkg/locator"
)

// MissingFormatError reports a render request that omitted the required
// format.
type MissingFormatError struct {
	View string
}

func (e *MissingFormatError) Error() string {
	return fmt.Sprintf("render: view %q: missing format in render request", e.View)
}

// MissingTemplateError reports that no template resolved for a logical name
// and format, for either a top-level view or a partial. The message names the
// attempted logical path and format.
type MissingTemplateError struct {
	Logical string
	Format  string
	Roots   []string
}

func (e *MissingTemplateError) Error() string {
	if len(e.Roots) == 0 {
		return fmt.Sprintf("render: missing template %q for format %q", e.Logical, e.Format)
	}
	return fmt.Sprintf("render: missing template %q for format %q (searched: %s)",
		e.Logical, e.Format, strings.Join(e.Roots, ", "))
}

// MissingLocalError aliases the locals package error so callers can match the
// whole error surface from this package.
type MissingLocalError = locals.MissingLocalError

// PartialDepthError reports partial recursion past the configured cap,
// usually a self-referencing partial cycle.
type PartialDepthError struct {
	Logical string
	Depth   int
}

func (e *PartialDepthError) Error() string {
	return fmt.Sprintf("render: partial %q exceeds max recursion depth %d", e.Logical, e.Depth)
}

func missingTemplate(err *locator.MissingTemplateError) *MissingTemplateError {
	return &MissingTemplateError{
		Logical: err.Logical,
		Format:  err.Format,
		Roots:   err.Roots,
	}
}
