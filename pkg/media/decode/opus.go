// ABOUTME: Opus audio decoder
// ABOUTME: Decodes Opus packets to int16 samples via libopus
package decode

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// maxOpusFrame is the largest Opus frame: 120 ms at 48 kHz.
const maxOpusFrame = 5760

// OpusDecoder decodes Opus packets.
type OpusDecoder struct {
	decoder  *opus.Decoder
	channels int
}

// NewOpus creates an Opus decoder for the format's rate and channel
// count. Each Decode call must carry exactly one Opus packet.
func NewOpus(format media.Format) (Decoder, error) {
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("opus decoder needs sample rate and channels, got %d/%d",
			format.SampleRate, format.Channels)
	}

	dec, err := opus.NewDecoder(format.SampleRate, format.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to create opus decoder: %w", err)
	}

	return &OpusDecoder{decoder: dec, channels: format.Channels}, nil
}

func (d *OpusDecoder) Decode(data []byte) ([]int16, error) {
	pcm := make([]int16, maxOpusFrame*d.channels)

	n, err := d.decoder.Decode(data, pcm)
	if err != nil {
		return nil, fmt.Errorf("opus decode failed: %w", err)
	}

	return pcm[:n*d.channels], nil
}

func (d *OpusDecoder) Close() error {
	return nil
}
