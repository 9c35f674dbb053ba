package output

import "errors"

// ErrOutputNotFound is returned by Synced when an output name was
// requested and no discovered output matches it.
var ErrOutputNotFound = errors.New("output: requested output not found")
