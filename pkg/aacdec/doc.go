// ABOUTME: Package documentation for the AAC decode stage
// ABOUTME: Explains composition, ownership and the silence-substitution policy
// Package aacdec implements a pull-based AAC decode stage.
//
// The stage wraps an upstream media.Source producing compressed AAC
// access units and is itself a media.Source producing interleaved
// stereo 16-bit PCM, so pipelines compose by nesting:
//
//	stage := aacdec.New(extractor, faad.New)
//	if err := stage.Start(); err != nil { ... }
//	buf, err := stage.Read(nil)
//
// The bit-level codec lives behind the Engine interface; package faad
// provides the default implementation.
//
// Failure containment: when the engine rejects an access unit the
// stage does not fail the Read. It emits a silent buffer sized to the
// engine's reported frame count, discards the offending unit outright,
// and keeps the timestamp arithmetic intact, so one corrupt unit
// manifests as a brief dropout rather than a dead stream. Upstream
// end-of-stream and I/O errors propagate untouched.
package aacdec
