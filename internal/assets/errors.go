package assets

import "errors"

// ErrAssetWrite is returned when a downloaded asset cannot be stored.
var ErrAssetWrite = errors.New("failed to write asset")
