package corpus

import "errors"

// ErrNotFound marks a missing Corpus, in particular GetLatest on an
// empty table, which callers treat as a no-corpus condition.
var ErrNotFound = errors.New("corpus not found")
