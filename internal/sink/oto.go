// ABOUTME: Live playback sink using the oto library
// ABOUTME: Bridges a PCM pipeline to the OS audio device via an io.Reader
package sink

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// Player plays a pipeline's PCM output on the default audio device.
type Player struct {
	log *zap.Logger
}

// NewPlayer creates a playback sink.
func NewPlayer(log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	return &Player{log: log}
}

// Play starts src, streams it to the audio device until end of
// stream and stops it. Blocks for the duration of playback.
func (p *Player) Play(src media.Source) error {
	format := src.Format()
	if format.MIME != media.MIMEAudioRaw {
		return fmt.Errorf("sink: cannot play %s, need %s", format.MIME, media.MIMEAudioRaw)
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("sink: create audio context: %w", err)
	}
	<-ready

	if err := src.Start(); err != nil {
		return fmt.Errorf("sink: start source: %w", err)
	}
	defer src.Stop()

	p.log.Info("playback started",
		zap.Int("sampleRate", format.SampleRate),
		zap.Int("channels", format.Channels))

	reader := &sourceReader{src: src}
	player := ctx.NewPlayer(reader)
	player.Play()

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	if err := player.Close(); err != nil {
		return fmt.Errorf("sink: close player: %w", err)
	}
	if reader.err != nil {
		return fmt.Errorf("sink: playback read: %w", reader.err)
	}

	return nil
}

// sourceReader adapts the pull contract to io.Reader. It stashes the
// tail of each pipeline buffer so buffers can be released back to
// their pool immediately.
type sourceReader struct {
	src   media.Source
	stash []byte
	pos   int
	done  bool
	err   error
}

func (r *sourceReader) Read(p []byte) (int, error) {
	if r.done {
		return 0, io.EOF
	}

	for r.pos >= len(r.stash) {
		buf, err := r.src.Read(nil)
		if errors.Is(err, media.ErrEndOfStream) {
			r.done = true
			return 0, io.EOF
		}
		if err != nil {
			r.done = true
			r.err = err
			return 0, io.EOF
		}

		// Copy out before releasing: the pool recycles the backing
		// storage as soon as the buffer is released.
		r.stash = append(r.stash[:0], buf.Bytes()...)
		r.pos = 0
		buf.Release()
	}

	n := copy(p, r.stash[r.pos:])
	r.pos += n
	return n, nil
}
