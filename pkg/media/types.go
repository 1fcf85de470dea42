// ABOUTME: Core media type definitions
// ABOUTME: Defines Format, Source and the end-of-stream sentinel
package media

import "errors"

// MIME types used by pipeline stages.
const (
	MIMEAudioRaw  = "audio/raw"       // interleaved PCM
	MIMEAudioAAC  = "audio/mp4a-latm" // AAC access units
	MIMEAudioMPEG = "audio/mpeg"      // MP3
	MIMEAudioOpus = "audio/opus"
	MIMEAudioFLAC = "audio/flac"
)

// ErrEndOfStream is returned by Source.Read when the stream is exhausted.
// It is an expected terminal condition, not a failure.
var ErrEndOfStream = errors.New("media: end of stream")

// Format describes a media stream.
type Format struct {
	// MIME identifies the payload type (see the MIME constants).
	MIME string

	// SampleRate in Hz. Required for audio formats.
	SampleRate int

	// Channels is the interleaved channel count.
	Channels int

	// BitDepth is the bits per sample for PCM payloads (0 if not PCM).
	BitDepth int

	// DurationUs is the total stream duration in microseconds,
	// 0 when unknown.
	DurationUs int64

	// CodecConfig is the codec-specific configuration blob handed to
	// a decoder before the first access unit (e.g. an MP4
	// AudioSpecificConfig). Nil when the stream carries none.
	CodecConfig []byte

	// Component names the stage that produced this format, for
	// diagnostics only.
	Component string
}

// Source is the pull contract every pipeline stage speaks, on both its
// upstream and downstream side. Implementations are not internally
// synchronized; callers must serialize access to a single instance.
type Source interface {
	// Start transitions the source into the readable state.
	Start() error

	// Stop releases the source's resources. Calling Stop on a source
	// that was never started is a programming error.
	Stop() error

	// Format reports the format of the data Read will produce.
	// Callable any time after construction.
	Format() Format

	// Read returns the next buffer. Ownership of the returned buffer
	// passes to the caller, which must Release it. A nil options
	// value means a plain sequential read.
	Read(opts *ReadOptions) (*Buffer, error)
}
