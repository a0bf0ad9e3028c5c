package artifact

import "errors"

// ErrNotFound is returned when no artifact with the given name exists for
// the session.
var ErrNotFound = errors.New("artifact not found")
