// ABOUTME: Fixed-size chunk source over an io.Reader
// ABOUTME: Feeds byte-run decoders such as headerless PCM
package source

import (
	"fmt"
	"io"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// DefaultChunkSize is the chunk length ChunkSource reads when none is
// given.
const DefaultChunkSize = 16 * 1024

// ChunkSource slices an io.Reader into fixed-size unstamped units.
// It carries no notion of media time and does not support seeking;
// downstream stages derive timestamps from their own sample counts.
type ChunkSource struct {
	r         io.Reader
	closer    io.Closer
	format    media.Format
	chunkSize int

	started bool
}

// NewChunk creates a chunk source over r. If r is an io.Closer it is
// closed on Stop. chunkSize <= 0 selects DefaultChunkSize.
func NewChunk(r io.Reader, format media.Format, chunkSize int) *ChunkSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	closer, _ := r.(io.Closer)
	return &ChunkSource{
		r:         r,
		closer:    closer,
		format:    format,
		chunkSize: chunkSize,
	}
}

func (s *ChunkSource) Start() error {
	if s.started {
		panic("source: Start on a started chunk source")
	}
	s.started = true
	return nil
}

func (s *ChunkSource) Stop() error {
	if !s.started {
		panic("source: Stop on a stopped chunk source")
	}
	s.started = false
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func (s *ChunkSource) Format() media.Format {
	return s.format
}

func (s *ChunkSource) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	if !s.started {
		panic("source: Read on a stopped chunk source")
	}

	if _, ok := opts.SeekTo(); ok {
		return nil, fmt.Errorf("source: chunk source does not support seeking")
	}

	chunk := make([]byte, s.chunkSize)
	n, err := io.ReadFull(s.r, chunk)
	if n == 0 {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, media.ErrEndOfStream
		}
		return nil, fmt.Errorf("source: read chunk: %w", err)
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("source: read chunk: %w", err)
	}

	return media.NewBuffer(chunk[:n]), nil
}
