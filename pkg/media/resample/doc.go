// ABOUTME: Package documentation for sample rate conversion
// ABOUTME: Describes the resampler and its pipeline stage
// Package resample provides sample rate conversion for PCM pipelines.
//
// Uses linear interpolation, which trades fidelity for simplicity and
// zero latency. Stage wraps any PCM-emitting media.Source and re-emits
// it at a target rate:
//
//	stage := resample.NewStage(decoder, 48000)
package resample
