// ABOUTME: MP3 file source emitting decoded PCM buffers
// ABOUTME: Wraps go-mp3 and stamps buffers by decoded frame count
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// mp3ReadSize is the PCM byte count pulled per Read. go-mp3 always
// outputs 16-bit stereo, so this is 2048 frames.
const mp3ReadSize = 8192

// MP3Source decodes an MP3 file into stamped 16-bit stereo PCM
// buffers. MP3 is a stream codec without self-contained units, so it
// is exposed as a PCM source rather than a packet decoder.
type MP3Source struct {
	path    string
	file    *os.File
	decoder *mp3.Decoder

	started bool
	emitted int64
}

// NewMP3File opens path and probes the MP3 stream header.
func NewMP3File(path string) (*MP3Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open mp3: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: parse mp3: %w", err)
	}

	return &MP3Source{path: path, file: f, decoder: decoder}, nil
}

func (s *MP3Source) Start() error {
	if s.started {
		panic("source: Start on a started mp3 source")
	}
	s.started = true
	s.emitted = 0
	return nil
}

func (s *MP3Source) Stop() error {
	if !s.started {
		panic("source: Stop on a stopped mp3 source")
	}
	s.started = false
	return s.file.Close()
}

func (s *MP3Source) Format() media.Format {
	f := media.Format{
		MIME:       media.MIMEAudioRaw,
		SampleRate: s.decoder.SampleRate(),
		Channels:   2, // go-mp3 always outputs stereo
		BitDepth:   16,
		Component:  "source.MP3Source",
	}
	if length := s.decoder.Length(); length > 0 {
		frames := length / 4
		f.DurationUs = frames * 1_000_000 / int64(s.decoder.SampleRate())
	}
	return f
}

func (s *MP3Source) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	if !s.started {
		panic("source: Read on a stopped mp3 source")
	}

	if seekUs, ok := opts.SeekTo(); ok {
		if err := s.seek(seekUs); err != nil {
			return nil, err
		}
	}

	pcm := make([]byte, mp3ReadSize)
	n, err := io.ReadFull(s.decoder, pcm)
	if n == 0 {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, media.ErrEndOfStream
		}
		return nil, fmt.Errorf("source: decode mp3: %w", err)
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("source: decode mp3: %w", err)
	}
	n -= n % 4 // whole stereo frames only

	buf := media.NewBuffer(pcm[:n])
	buf.SetTimeUs(s.emitted * 1_000_000 / int64(s.decoder.SampleRate()))
	s.emitted += int64(n / 4)
	return buf, nil
}

// seek positions the decoder at the frame containing timeUs. go-mp3
// exposes byte-accurate seeking over the decoded stream.
func (s *MP3Source) seek(timeUs int64) error {
	if timeUs < 0 {
		panic("source: negative seek target")
	}
	frame := timeUs * int64(s.decoder.SampleRate()) / 1_000_000
	if _, err := s.decoder.Seek(frame*4, io.SeekStart); err != nil {
		return fmt.Errorf("source: seek mp3: %w", err)
	}
	s.emitted = frame
	return nil
}
