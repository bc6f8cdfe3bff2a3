package dataset

import (
	"fmt"
	"strings"
)

// EmptyDatasetError is returned when a scan finds no qualifying files under
// the root. It names the root and the effective extension list so the caller
// can see why the scan came up empty instead of training on zero samples.
type EmptyDatasetError struct {
	Root       string
	Extensions []string
}

func (e *EmptyDatasetError) Error() string {
	if len(e.Extensions) == 0 {
		return fmt.Sprintf("found 0 files in subfolders of %s (custom file filter matched nothing)", e.Root)
	}
	return fmt.Sprintf("found 0 files in subfolders of %s, supported extensions are: %s",
		e.Root, strings.Join(e.Extensions, ","))
}
