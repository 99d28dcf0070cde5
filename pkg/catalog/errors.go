package catalog

import "errors"

// ErrNotOpen is returned by every database operation attempted before
// ConfigureDatabase has been called successfully. ScanRoot does not use the
// database and never returns it; Close on an unopened store returns nil.
var ErrNotOpen = errors.New("catalog: not open")

// ErrStoreFailure wraps any underlying storage error. Ingest transactions
// roll back entirely on this error.
var ErrStoreFailure = errors.New("catalog: store failure")
