// ABOUTME: AAC decoder pipeline stage
// ABOUTME: Pulls compressed access units upstream and emits stereo PCM16 buffers
package aacdec

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/harperreed/soundstage-go/pkg/media"
)

const (
	// maxSamplesPerFrame is the largest frame an AAC engine produces
	// per channel (2048 with SBR upsampling, 1024 otherwise).
	maxSamplesPerFrame = 2048

	// outputChannels is forced to stereo. The engine contract does not
	// reliably support mono output on aacPlus streams, so the stage
	// always requests two channels.
	outputChannels = 2

	bytesPerSample = 2

	// maxFrameBytes sizes the single pooled output buffer.
	maxFrameBytes = maxSamplesPerFrame * outputChannels * bytesPerSample
)

// componentName tags formats produced by this stage.
const componentName = "aacdec.Decoder"

// Decoder is a pull-based AAC decode stage. It implements media.Source,
// so it composes with whatever consumes it exactly like the source it
// wraps.
//
// A Decoder is not internally synchronized: Start, Stop, Format and
// Read must be serialized by the caller, typically by construction
// since the stage lives on a single pipeline thread.
type Decoder struct {
	source    media.Source
	newEngine EngineFactory
	log       *zap.Logger

	started bool
	engine  Engine
	group   *media.Group

	// pending is the access unit currently being drained, nil when the
	// next Read must pull a fresh unit upstream.
	pending *media.Buffer

	// anchorTimeUs is the playback time of the first sample of the
	// current unbroken decode run; emitted counts samples produced
	// since the anchor was set.
	anchorTimeUs int64
	emitted      int64

	// sampleRate is the engine-reported output rate, seeded from the
	// source format so timestamps stay sane if the first decode fails
	// before the engine reports a rate.
	sampleRate int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger sets the stage logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(d *Decoder) {
		d.log = log
	}
}

// New creates a decode stage over source. newEngine is invoked once per
// Start to build the underlying codec engine.
func New(source media.Source, newEngine EngineFactory, opts ...Option) *Decoder {
	d := &Decoder{
		source:    source,
		newEngine: newEngine,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start allocates engine state and the output buffer group, primes the
// engine with the source's codec configuration if it carries one, and
// starts the upstream source.
//
// An engine the factory cannot construct is an unrecoverable
// construction error and panics. A codec configuration the engine
// rejects returns an error wrapping ErrUnsupportedFormat and leaves the
// stage unusable.
//
// Calling Start on a started stage panics.
func (d *Decoder) Start() error {
	if d.started {
		panic("aacdec: Start on a started decoder")
	}

	engine, err := d.newEngine(EngineConfig{OutputChannels: outputChannels})
	if err != nil {
		panic(fmt.Sprintf("aacdec: engine construction failed: %v", err))
	}

	format := d.source.Format()

	if len(format.CodecConfig) > 0 {
		if err := engine.Configure(format.CodecConfig); err != nil {
			engine.Close()
			return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
	}

	if err := d.source.Start(); err != nil {
		engine.Close()
		return fmt.Errorf("start source: %w", err)
	}

	d.engine = engine
	d.group = media.NewGroup(1, maxFrameBytes)
	d.sampleRate = format.SampleRate
	d.anchorTimeUs = 0
	d.emitted = 0
	d.started = true
	startedStages.Inc()

	return nil
}

// Stop releases the pending input unit, frees engine state, drops the
// buffer group and stops the upstream source. Calling Stop on a stage
// that is not started panics.
func (d *Decoder) Stop() error {
	if !d.started {
		panic("aacdec: Stop on a stopped decoder")
	}

	if d.pending != nil {
		d.pending.Release()
		d.pending = nil
	}

	d.engine.Close()
	d.engine = nil
	d.group = nil

	err := d.source.Stop()

	d.started = false
	startedStages.Dec()

	return err
}

// Format reports the output format: raw PCM, always two channels, at
// the source's sample rate, with the source's duration copied through
// when it exposes one. A source format without a sample rate is a
// contract breach and panics.
func (d *Decoder) Format() media.Format {
	src := d.source.Format()

	if src.SampleRate <= 0 {
		panic("aacdec: source format carries no sample rate")
	}

	return media.Format{
		MIME:       media.MIMEAudioRaw,
		SampleRate: src.SampleRate,
		Channels:   outputChannels,
		BitDepth:   16,
		DurationUs: src.DurationUs,
		Component:  componentName,
	}
}

// Read decodes and returns the next PCM buffer. See the package
// documentation for the failure-containment policy: a unit the engine
// rejects degrades to a silent, correctly timestamped buffer rather
// than an error.
func (d *Decoder) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	if !d.started {
		panic("aacdec: Read on a stopped decoder")
	}

	seekUs, seeking := opts.SeekTo()
	if seeking {
		if seekUs < 0 {
			panic(fmt.Sprintf("aacdec: negative seek target %d", seekUs))
		}
		d.emitted = 0
		if d.pending != nil {
			d.pending.Release()
			d.pending = nil
		}
		seeksTotal.Inc()
	}

	if d.pending == nil {
		unit, err := d.source.Read(opts)
		if err != nil {
			return nil, err
		}
		unitsPulled.Inc()
		d.pending = unit

		if ts, ok := unit.TimeUs(); ok {
			d.anchorTimeUs = ts
			d.emitted = 0
		} else if seeking {
			// The source is contractually required to stamp the
			// unit it lands on after a seek.
			panic("aacdec: unstamped access unit after seek")
		}
	}

	out, err := d.group.Acquire()
	if err != nil {
		return nil, fmt.Errorf("acquire output buffer: %w", err)
	}

	res, decErr := d.engine.DecodeStep(DecodeRequest{
		Input:  d.pending.Bytes(),
		Output: out.Data(),
	})

	if res.SampleRate > 0 {
		d.sampleRate = res.SampleRate
	}

	numOutBytes := res.FramesProduced * bytesPerSample * outputChannels

	if decErr != nil {
		d.log.Warn("decode failed, substituting silence",
			zap.Error(decErr),
			zap.Int("frames", res.FramesProduced))
		decodeErrors.Inc()

		zeroFill(out.Data()[:numOutBytes])

		// The unit is not retried at the byte level; discard it even
		// if bytes remain unconsumed.
		d.pending.Release()
		d.pending = nil
	}

	out.SetRange(0, numOutBytes)

	if d.pending != nil {
		d.pending.SetRange(
			d.pending.RangeOffset()+res.BytesConsumed,
			d.pending.RangeLength()-res.BytesConsumed)

		if d.pending.RangeLength() == 0 {
			d.pending.Release()
			d.pending = nil
		}
	}

	out.SetTimeUs(d.anchorTimeUs + d.emitted*1_000_000/int64(d.sampleRate))
	d.emitted += int64(res.FramesProduced)
	buffersEmitted.Inc()

	return out, nil
}

func zeroFill(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
