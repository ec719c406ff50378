package history

import "errors"

// ErrNoHistory reports an undo with nothing left to restore. It is an
// expected outcome, not a failure of the history.
var ErrNoHistory = errors.New("history: no snapshot to restore")
