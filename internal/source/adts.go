// ABOUTME: ADTS elementary stream source
// ABOUTME: Frames an .aac byte stream into timestamped AAC access units
package source

import (
	"errors"
	"fmt"
	"os"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// samplesPerUnit is the PCM frame count one AAC access unit decodes to.
const samplesPerUnit = 1024

// adtsHeaderSize is the fixed+variable ADTS header length without CRC.
const adtsHeaderSize = 7

// ADTS sample rate index table, ISO/IEC 14496-3.
var adtsSampleRates = [16]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000,
	7350, 0, 0, 0,
}

var errNoSync = errors.New("source: no ADTS syncword found")

// ADTSSource serves access units from an ADTS elementary stream. Every
// unit keeps its ADTS header, so decoders can self-configure from the
// stream, and every unit is stamped from its frame index.
type ADTSSource struct {
	units      [][]byte
	sampleRate int
	channels   int

	started bool
	index   int
}

// NewADTS parses data as an ADTS stream. The whole stream is framed
// up front; a stream without a single valid frame is an error.
func NewADTS(data []byte) (*ADTSSource, error) {
	s := &ADTSSource{}

	pos := 0
	for pos+adtsHeaderSize <= len(data) {
		if data[pos] != 0xFF || data[pos+1]&0xF0 != 0xF0 {
			pos++
			continue
		}

		sfIndex := int(data[pos+2]>>2) & 0x0F
		rate := adtsSampleRates[sfIndex]
		if rate == 0 {
			pos++
			continue
		}
		channels := int(data[pos+2]&0x01)<<2 | int(data[pos+3]>>6)

		frameLen := int(data[pos+3]&0x03)<<11 |
			int(data[pos+4])<<3 |
			int(data[pos+5]>>5)
		if frameLen < adtsHeaderSize || pos+frameLen > len(data) {
			break
		}

		if s.sampleRate == 0 {
			s.sampleRate = rate
			s.channels = channels
		}
		s.units = append(s.units, data[pos:pos+frameLen])
		pos += frameLen
	}

	if len(s.units) == 0 {
		return nil, errNoSync
	}
	return s, nil
}

// NewADTSFile reads and frames an .aac file.
func NewADTSFile(path string) (*ADTSSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read adts file: %w", err)
	}
	src, err := NewADTS(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return src, nil
}

func (s *ADTSSource) Start() error {
	if s.started {
		panic("source: Start on a started ADTS source")
	}
	s.started = true
	s.index = 0
	return nil
}

func (s *ADTSSource) Stop() error {
	if !s.started {
		panic("source: Stop on a stopped ADTS source")
	}
	s.started = false
	return nil
}

func (s *ADTSSource) Format() media.Format {
	return media.Format{
		MIME:       media.MIMEAudioAAC,
		SampleRate: s.sampleRate,
		Channels:   s.channels,
		DurationUs: s.unitTimeUs(len(s.units)),
		Component:  "source.ADTSSource",
	}
}

func (s *ADTSSource) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	if !s.started {
		panic("source: Read on a stopped ADTS source")
	}

	if seekUs, ok := opts.SeekTo(); ok {
		s.index = s.unitIndexAt(seekUs)
	}

	if s.index >= len(s.units) {
		return nil, media.ErrEndOfStream
	}

	buf := media.NewBuffer(s.units[s.index])
	buf.SetTimeUs(s.unitTimeUs(s.index))
	s.index++

	return buf, nil
}

// UnitCount returns the number of access units in the stream.
func (s *ADTSSource) UnitCount() int {
	return len(s.units)
}

func (s *ADTSSource) unitTimeUs(index int) int64 {
	return int64(index) * samplesPerUnit * 1_000_000 / int64(s.sampleRate)
}

func (s *ADTSSource) unitIndexAt(timeUs int64) int {
	index := int(timeUs * int64(s.sampleRate) / 1_000_000 / samplesPerUnit)
	if index > len(s.units) {
		index = len(s.units)
	}
	return index
}
