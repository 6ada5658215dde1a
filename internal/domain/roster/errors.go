package roster

import "errors"

// ErrFetchProfiles wraps failures of the profile source during LoadBatch.
var ErrFetchProfiles = errors.New("fetch profiles failed")
