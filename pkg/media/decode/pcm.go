// ABOUTME: PCM passthrough decoder
// ABOUTME: Unpacks 16-bit and 24-bit little-endian PCM into int16 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// PCMDecoder unpacks raw little-endian PCM.
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a PCM decoder. Supported bit depths are 16 and 24;
// a zero bit depth defaults to 16.
func NewPCM(format media.Format) (Decoder, error) {
	depth := format.BitDepth
	if depth == 0 {
		depth = 16
	}
	if depth != 16 && depth != 24 {
		return nil, fmt.Errorf("unsupported PCM bit depth: %d", depth)
	}
	return &PCMDecoder{bitDepth: depth}, nil
}

func (d *PCMDecoder) Decode(data []byte) ([]int16, error) {
	if d.bitDepth == 24 {
		// 3 bytes per sample; keep the top 16 bits.
		numSamples := len(data) / 3
		samples := make([]int16, numSamples)
		for i := 0; i < numSamples; i++ {
			samples[i] = int16(data[i*3+1]) | int16(data[i*3+2])<<8
		}
		return samples, nil
	}

	numSamples := len(data) / 2
	samples := make([]int16, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples, nil
}

func (d *PCMDecoder) Close() error {
	return nil
}
