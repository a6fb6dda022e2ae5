package validate

import "errors"

// ErrInvalidManifest is returned when manifest.json cannot be read or an
// entry is incomplete or duplicated.
var ErrInvalidManifest = errors.New("invalid manifest")
