// ABOUTME: Error values exposed by the AAC decode stage
// ABOUTME: Distinguishes the unsupported-format start failure
package aacdec

import "errors"

// ErrUnsupportedFormat is returned by Start when the engine rejects the
// stream's codec configuration. The stage is left unusable; Read and
// Stop on it are programming errors.
var ErrUnsupportedFormat = errors.New("aacdec: unsupported format")
