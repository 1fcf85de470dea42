// ABOUTME: FLAC file source emitting decoded PCM buffers
// ABOUTME: Parses frames with mewkiz/flac and downconverts to 16-bit
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// FLACSource decodes a FLAC file one frame at a time into stamped
// 16-bit PCM buffers at the stream's native channel count. Samples
// wider than 16 bits are truncated to their top 16 bits.
type FLACSource struct {
	path   string
	file   *os.File
	stream *flac.Stream

	started bool
	emitted int64
}

// NewFLACFile opens path and reads the FLAC stream info block.
func NewFLACFile(path string) (*FLACSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: open flac: %w", err)
	}

	stream, err := flac.NewSeek(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("source: parse flac: %w", err)
	}

	return &FLACSource{path: path, file: f, stream: stream}, nil
}

func (s *FLACSource) Start() error {
	if s.started {
		panic("source: Start on a started flac source")
	}
	s.started = true
	s.emitted = 0
	return nil
}

func (s *FLACSource) Stop() error {
	if !s.started {
		panic("source: Stop on a stopped flac source")
	}
	s.started = false
	return s.file.Close()
}

func (s *FLACSource) Format() media.Format {
	info := s.stream.Info
	f := media.Format{
		MIME:       media.MIMEAudioRaw,
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
		BitDepth:   16,
		Component:  "source.FLACSource",
	}
	if info.NSamples > 0 {
		f.DurationUs = int64(info.NSamples) * 1_000_000 / int64(info.SampleRate)
	}
	return f
}

func (s *FLACSource) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	if !s.started {
		panic("source: Read on a stopped flac source")
	}

	if seekUs, ok := opts.SeekTo(); ok {
		if err := s.seek(seekUs); err != nil {
			return nil, err
		}
	}

	frame, err := s.stream.ParseNext()
	if err != nil {
		if err == io.EOF {
			return nil, media.ErrEndOfStream
		}
		return nil, fmt.Errorf("source: decode flac: %w", err)
	}

	channels := len(frame.Subframes)
	blockSize := int(frame.BlockSize)
	shift := int(frame.BitsPerSample) - 16

	pcm := make([]byte, blockSize*channels*2)
	for i := 0; i < blockSize; i++ {
		for ch := 0; ch < channels; ch++ {
			sample := frame.Subframes[ch].Samples[i]
			if shift > 0 {
				sample >>= uint(shift)
			} else if shift < 0 {
				sample <<= uint(-shift)
			}
			off := (i*channels + ch) * 2
			pcm[off] = byte(sample)
			pcm[off+1] = byte(sample >> 8)
		}
	}

	buf := media.NewBuffer(pcm)
	buf.SetTimeUs(s.emitted * 1_000_000 / int64(s.stream.Info.SampleRate))
	s.emitted += int64(blockSize)
	return buf, nil
}

// seek lands on the frame containing timeUs via the stream's seek
// table, falling back to a linear scan when the file has none.
func (s *FLACSource) seek(timeUs int64) error {
	if timeUs < 0 {
		panic("source: negative seek target")
	}
	target := uint64(timeUs) * uint64(s.stream.Info.SampleRate) / 1_000_000
	landed, err := s.stream.Seek(target)
	if err != nil {
		return fmt.Errorf("source: seek flac: %w", err)
	}
	s.emitted = int64(landed)
	return nil
}
