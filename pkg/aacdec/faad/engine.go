// ABOUTME: Default decode engine backed by the go-aac FAAD2 port
// ABOUTME: Maps the engine contract onto go-aac init/decode calls
package faad

import (
	"encoding/binary"
	"fmt"

	aac "github.com/llehouerou/go-aac"

	"github.com/harperreed/soundstage-go/pkg/aacdec"
)

// engine adapts a go-aac decoder to the aacdec.Engine contract. The
// library owns all codec state; this type only tracks initialization
// and the negotiated output rate.
type engine struct {
	dec      *aac.Decoder
	channels int

	initialized bool
	sampleRate  int
}

// New builds an engine for cfg. It satisfies aacdec.EngineFactory:
//
//	stage := aacdec.New(source, faad.New)
func New(cfg aacdec.EngineConfig) (aacdec.Engine, error) {
	dec := aac.NewDecoder()

	c := dec.Config()
	c.OutputFormat = aac.OutputFormat16Bit
	c.DownMatrix = true
	dec.SetConfiguration(c)

	channels := cfg.OutputChannels
	if channels <= 0 {
		channels = 2
	}

	return &engine{dec: dec, channels: channels}, nil
}

// Configure initializes the decoder from an MP4 AudioSpecificConfig
// blob. Streams without one (ADTS) initialize lazily from the first
// access unit instead.
func (e *engine) Configure(codecConfig []byte) error {
	res, err := e.dec.Init2(codecConfig)
	if err != nil {
		return fmt.Errorf("faad: init from codec config: %w", err)
	}
	e.sampleRate = int(res.SampleRate)
	e.initialized = true
	return nil
}

func (e *engine) DecodeStep(req aacdec.DecodeRequest) (aacdec.DecodeResult, error) {
	result := aacdec.DecodeResult{SampleRate: e.sampleRate}

	if !e.initialized {
		res, err := e.dec.Init(req.Input)
		if err != nil {
			return result, fmt.Errorf("faad: init from stream: %w", err)
		}
		e.sampleRate = int(res.SampleRate)
		result.SampleRate = e.sampleRate
		e.initialized = true

		// ADIF headers are consumed during init; report them so the
		// stage advances its input cursor past the header bytes.
		if res.BytesRead > 0 {
			result.BytesConsumed = int(res.BytesRead)
			return result, nil
		}
	}

	samples, info, err := e.dec.Decode(req.Input)
	if info != nil {
		result.BytesConsumed = int(info.BytesConsumed)
		if info.SampleRate > 0 {
			e.sampleRate = int(info.SampleRate)
			result.SampleRate = e.sampleRate
		}
	}
	if err != nil {
		return result, fmt.Errorf("faad: decode: %w", err)
	}

	pcm, _ := samples.([]int16)
	if info == nil || info.Channels == 0 || len(pcm) == 0 {
		// Header-only or empty frame: legal, produces no samples.
		return result, nil
	}

	inChannels := int(info.Channels)
	frames := len(pcm) / inChannels
	if max := len(req.Output) / (bytesPerSample * e.channels); frames > max {
		frames = max
	}

	interleave(req.Output, pcm, frames, inChannels, e.channels)
	result.FramesProduced = frames

	return result, nil
}

func (e *engine) Close() {
	e.dec.Close()
}

const bytesPerSample = 2

// interleave writes frames of PCM into dst as little-endian int16 with
// outChannels interleaved channels. Mono input is duplicated across
// output channels; inputs wider than the output rely on the library's
// down-matrix and take the leading channels.
func interleave(dst []byte, pcm []int16, frames, inChannels, outChannels int) {
	for f := 0; f < frames; f++ {
		for c := 0; c < outChannels; c++ {
			src := c
			if src >= inChannels {
				src = inChannels - 1
			}
			s := pcm[f*inChannels+src]
			binary.LittleEndian.PutUint16(dst[(f*outChannels+c)*bytesPerSample:], uint16(s))
		}
	}
}
