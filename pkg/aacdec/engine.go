// ABOUTME: Opaque decode engine contract consumed by the AAC stage
// ABOUTME: Splits immutable engine config from per-call request/result state
package aacdec

// EngineConfig is the immutable configuration an engine is built with.
// It is fixed for the lifetime of the engine instance.
type EngineConfig struct {
	// OutputChannels is the interleaved channel count the engine must
	// produce, regardless of the stream's channel count. The stage
	// always requests 2.
	OutputChannels int
}

// DecodeRequest carries the transient inputs of one decode step.
type DecodeRequest struct {
	// Input is the unconsumed remainder of the current access unit.
	Input []byte

	// Output receives interleaved 16-bit little-endian PCM.
	Output []byte
}

// DecodeResult reports the engine's bookkeeping after one decode step.
// The result is meaningful even when DecodeStep returns an error: the
// stage uses FramesProduced to size its silence substitution and
// SampleRate to keep its timestamp arithmetic on the true output rate.
type DecodeResult struct {
	// FramesProduced is the number of PCM samples per channel written
	// to (or, on failure, notionally occupying) the output.
	FramesProduced int

	// BytesConsumed is how much of Input the engine consumed. It may
	// be less than len(Input); the stage feeds the remainder on the
	// next step.
	BytesConsumed int

	// SampleRate is the engine-determined output rate in Hz, 0 when
	// the engine does not know yet.
	SampleRate int
}

// Engine is the opaque AAC decode capability. Implementations own all
// codec state; the stage never inspects it.
type Engine interface {
	// Configure primes the engine with a codec-specific configuration
	// blob (e.g. an MP4 AudioSpecificConfig) before any audio bytes.
	Configure(codecConfig []byte) error

	// DecodeStep runs one decode invocation. One access unit may need
	// several steps if the engine does not consume it whole.
	DecodeStep(req DecodeRequest) (DecodeResult, error)

	// Close frees engine state. The engine must not be used after.
	Close()
}

// EngineFactory builds an Engine for the given configuration. The stage
// calls it once per Start.
type EngineFactory func(cfg EngineConfig) (Engine, error)
