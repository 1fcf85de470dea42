// ABOUTME: Per-read options passed down a pipeline
// ABOUTME: Carries an optional seek request from consumer to source
package media

// ReadOptions carries per-call options for Source.Read. A nil
// *ReadOptions is equivalent to the zero value: a plain sequential
// read.
//
// Options flow through composed stages unchanged, so a seek requested
// at the bottom of a pipeline is observed by the stage at the top.
type ReadOptions struct {
	seekUs  int64
	hasSeek bool
}

// SetSeekTo requests that the next Read land on the unit covering the
// given timestamp in microseconds.
func (o *ReadOptions) SetSeekTo(us int64) {
	o.seekUs = us
	o.hasSeek = true
}

// ClearSeekTo removes a pending seek request.
func (o *ReadOptions) ClearSeekTo() {
	o.seekUs = 0
	o.hasSeek = false
}

// SeekTo returns the requested seek target and whether one is set.
// Safe to call on a nil receiver.
func (o *ReadOptions) SeekTo() (int64, bool) {
	if o == nil {
		return 0, false
	}
	return o.seekUs, o.hasSeek
}
