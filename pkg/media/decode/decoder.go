// ABOUTME: Decoder interface and codec dispatch
// ABOUTME: Common contract for packet-oriented PCM and Opus decoders
package decode

import (
	"fmt"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// Decoder converts encoded audio bytes to interleaved 16-bit PCM
// samples. Decoders are stateful and not safe for concurrent use.
type Decoder interface {
	// Decode converts one chunk of encoded data to PCM samples.
	Decode(data []byte) ([]int16, error)

	// Close releases decoder resources.
	Close() error
}

// New creates a decoder for the format's MIME type.
func New(format media.Format) (Decoder, error) {
	switch format.MIME {
	case media.MIMEAudioRaw:
		return NewPCM(format)
	case media.MIMEAudioOpus:
		return NewOpus(format)
	default:
		return nil, fmt.Errorf("unsupported codec: %s", format.MIME)
	}
}
