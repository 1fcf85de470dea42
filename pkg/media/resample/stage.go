// ABOUTME: Sample rate conversion pipeline stage
// ABOUTME: Wraps an upstream PCM source and re-emits at a target rate
package resample

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// Stage converts an upstream PCM source to a target sample rate. It
// implements media.Source and stamps output buffers in the output
// rate's time base, anchored at the upstream stream's timestamps.
type Stage struct {
	source     media.Source
	outputRate int
	log        *zap.Logger

	started bool

	r        *Resampler
	channels int

	anchorTimeUs int64
	emitted      int64
}

// Option configures a Stage.
type Option func(*Stage)

// WithLogger sets the stage logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Stage) {
		s.log = log
	}
}

// NewStage wraps source into a stage emitting PCM at outputRate.
func NewStage(source media.Source, outputRate int, opts ...Option) *Stage {
	s := &Stage{
		source:     source,
		outputRate: outputRate,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stage) Start() error {
	if s.started {
		panic("resample: Start on a started stage")
	}

	if err := s.source.Start(); err != nil {
		return fmt.Errorf("start source: %w", err)
	}

	format := s.source.Format()
	if format.SampleRate <= 0 {
		s.source.Stop()
		return fmt.Errorf("resample: upstream format has no sample rate")
	}
	s.channels = format.Channels
	if s.channels <= 0 {
		s.channels = 2
	}
	s.r = New(format.SampleRate, s.outputRate, s.channels)
	s.anchorTimeUs = 0
	s.emitted = 0
	s.started = true

	return nil
}

func (s *Stage) Stop() error {
	if !s.started {
		panic("resample: Stop on a stopped stage")
	}
	s.started = false
	s.r = nil
	return s.source.Stop()
}

func (s *Stage) Format() media.Format {
	src := s.source.Format()
	f := media.Format{
		MIME:       media.MIMEAudioRaw,
		SampleRate: s.outputRate,
		Channels:   src.Channels,
		BitDepth:   16,
		DurationUs: src.DurationUs,
		Component:  "resample.Stage",
	}
	if f.Channels <= 0 {
		f.Channels = 2
	}
	return f
}

func (s *Stage) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	if !s.started {
		panic("resample: Read on a stopped stage")
	}

	if seekUs, ok := opts.SeekTo(); ok {
		if seekUs < 0 {
			panic(fmt.Sprintf("resample: negative seek target %d", seekUs))
		}
		s.r.Reset()
		s.emitted = 0
	}

	// Short upstream buffers can resample to nothing; keep pulling
	// until the stage produces output or the stream ends.
	for {
		unit, err := s.source.Read(opts)
		if err != nil {
			return nil, err
		}
		opts = nil

		if ts, ok := unit.TimeUs(); ok {
			s.anchorTimeUs = ts
			s.emitted = 0
		}

		input := unpackSamples(unit.Bytes())
		unit.Release()

		out := make([]int16, s.r.OutputSamplesFor(len(input)))
		n := s.r.Resample(input, out)
		if n == 0 {
			continue
		}

		buf := media.NewBuffer(packSamples(out[:n]))
		buf.SetTimeUs(s.anchorTimeUs + s.emitted*1_000_000/int64(s.outputRate))
		s.emitted += int64(n / s.channels)
		return buf, nil
	}
}

func unpackSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*2:]))
	}
	return samples
}

func packSamples(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}
