// ABOUTME: WAV file sink
// ABOUTME: Drains a PCM pipeline into a RIFF/WAV file via go-audio
package sink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// WAVSink writes a pipeline's PCM output to a WAV file. The sink owns
// the pipeline lifecycle for the duration of Drain: it starts the
// source, pulls it dry and stops it.
type WAVSink struct {
	path string
	log  *zap.Logger
}

// NewWAV creates a sink writing to path.
func NewWAV(path string, log *zap.Logger) *WAVSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &WAVSink{path: path, log: log}
}

// Drain pulls src until end of stream and writes everything to the
// WAV file. The source must produce 16-bit interleaved PCM.
func (s *WAVSink) Drain(src media.Source) error {
	if err := src.Start(); err != nil {
		return fmt.Errorf("sink: start source: %w", err)
	}
	defer src.Stop()

	return s.drain(src, nil)
}

// DrainStarted writes an already running source, beginning with a
// buffer the caller has read from it. The caller keeps ownership of
// the source lifecycle; first is consumed and released here.
func (s *WAVSink) DrainStarted(src media.Source, first *media.Buffer) error {
	return s.drain(src, first)
}

func (s *WAVSink) drain(src media.Source, first *media.Buffer) error {
	format := src.Format()
	if format.MIME != media.MIMEAudioRaw {
		if first != nil {
			first.Release()
		}
		return fmt.Errorf("sink: cannot write %s to WAV, need %s", format.MIME, media.MIMEAudioRaw)
	}

	f, err := os.Create(s.path)
	if err != nil {
		if first != nil {
			first.Release()
		}
		return fmt.Errorf("sink: create wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, format.SampleRate, 16, format.Channels, 1)

	var buffers, samples int64
	for {
		var buf *media.Buffer
		if first != nil {
			buf, first = first, nil
		} else {
			var err error
			buf, err = src.Read(nil)
			if errors.Is(err, media.ErrEndOfStream) {
				break
			}
			if err != nil {
				return fmt.Errorf("sink: read source: %w", err)
			}
		}

		pcm := buf.Bytes()
		ints := make([]int, len(pcm)/2)
		for i := range ints {
			ints[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
		}
		buf.Release()

		if err := enc.Write(&audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			Data:           ints,
			SourceBitDepth: 16,
		}); err != nil {
			return fmt.Errorf("sink: write wav: %w", err)
		}

		buffers++
		samples += int64(len(ints))
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("sink: finalize wav: %w", err)
	}

	s.log.Info("wav written",
		zap.String("path", s.path),
		zap.Int64("buffers", buffers),
		zap.Int64("samples", samples))

	return nil
}
