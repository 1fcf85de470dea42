// ABOUTME: Package documentation for the decoder collection
// ABOUTME: Lists supported codecs and the stage adapter
// Package decode provides packet-oriented audio decoders.
//
// Supports: PCM (16-bit and 24-bit) and Opus. Each Decode call
// consumes one self-contained unit of input, which is why stream
// codecs such as MP3 and FLAC live in internal/source as PCM sources
// instead.
//
// All decoders implement the Decoder interface and output interleaved
// int16 samples. Stage adapts a Decoder plus an upstream media.Source
// into a PCM-emitting media.Source for pipeline composition. AAC has
// its own stage in package aacdec with a richer failure-containment
// policy.
//
// Example:
//
//	decoder, err := decode.New(format)
//	samples, err := decoder.Decode(unitBytes)
package decode
