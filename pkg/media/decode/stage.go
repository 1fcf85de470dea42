// ABOUTME: Generic decode pipeline stage
// ABOUTME: Adapts a unit Source plus a Decoder into a PCM-emitting Source
package decode

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// Stage pulls encoded units from an upstream source, runs them through
// a Decoder and emits timestamped PCM buffers. It implements
// media.Source, so decode stages nest like any other stage.
//
// Unlike the AAC stage, Stage has no failure-containment policy: a
// decode error fails the Read. Callers wanting silence substitution
// should use a codec-specific stage.
type Stage struct {
	source media.Source
	dec    Decoder
	log    *zap.Logger

	started bool

	anchorTimeUs int64
	emitted      int64
	sampleRate   int
	channels     int
}

// StageOption configures a Stage.
type StageOption func(*Stage)

// WithStageLogger sets the stage logger. The default is a no-op logger.
func WithStageLogger(log *zap.Logger) StageOption {
	return func(s *Stage) {
		s.log = log
	}
}

// NewStage wraps source and dec into a PCM-emitting stage.
func NewStage(source media.Source, dec Decoder, opts ...StageOption) *Stage {
	s := &Stage{
		source: source,
		dec:    dec,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Stage) Start() error {
	if s.started {
		panic("decode: Start on a started stage")
	}

	if err := s.source.Start(); err != nil {
		return fmt.Errorf("start source: %w", err)
	}

	format := s.source.Format()
	s.sampleRate = format.SampleRate
	s.channels = format.Channels
	if s.channels <= 0 {
		s.channels = 2
	}
	s.anchorTimeUs = 0
	s.emitted = 0
	s.started = true

	return nil
}

func (s *Stage) Stop() error {
	if !s.started {
		panic("decode: Stop on a stopped stage")
	}

	if err := s.dec.Close(); err != nil {
		s.log.Warn("decoder close failed", zap.Error(err))
	}

	err := s.source.Stop()
	s.started = false
	return err
}

func (s *Stage) Format() media.Format {
	src := s.source.Format()
	return media.Format{
		MIME:       media.MIMEAudioRaw,
		SampleRate: src.SampleRate,
		Channels:   s.outputChannels(src.Channels),
		BitDepth:   16,
		DurationUs: src.DurationUs,
		Component:  "decode.Stage",
	}
}

func (s *Stage) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	if !s.started {
		panic("decode: Read on a stopped stage")
	}

	if seekUs, ok := opts.SeekTo(); ok {
		if seekUs < 0 {
			panic(fmt.Sprintf("decode: negative seek target %d", seekUs))
		}
		s.emitted = 0
	}

	unit, err := s.source.Read(opts)
	if err != nil {
		return nil, err
	}
	defer unit.Release()

	if ts, ok := unit.TimeUs(); ok {
		s.anchorTimeUs = ts
		s.emitted = 0
	}

	samples, err := s.dec.Decode(unit.Bytes())
	if err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}

	out := media.NewBuffer(packSamples(samples))
	if s.sampleRate > 0 {
		out.SetTimeUs(s.anchorTimeUs + s.emitted*1_000_000/int64(s.sampleRate))
	}
	s.emitted += int64(len(samples) / s.channels)

	return out, nil
}

func (s *Stage) outputChannels(srcChannels int) int {
	if srcChannels > 0 {
		return srcChannels
	}
	return 2
}

func packSamples(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}
