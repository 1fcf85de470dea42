// ABOUTME: Linear-interpolation sample rate converter
// ABOUTME: Core rate conversion used by the resample stage
package resample

// Resampler converts interleaved 16-bit PCM between sample rates
// using linear interpolation. The fractional read position carries
// across calls so chunk boundaries do not drift.
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64
	position   float64
}

// New creates a resampler converting inputRate to outputRate.
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Resample converts interleaved input samples into output, returning
// the number of output samples written. Conversion stops when either
// the input is exhausted or the output is full.
func (r *Resampler) Resample(input, output []int16) int {
	if len(input) == 0 {
		return 0
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		inputIdx := int(r.position)
		if inputIdx >= inputFrames-1 {
			break
		}
		frac := r.position - float64(inputIdx)

		for ch := 0; ch < r.channels; ch++ {
			s1 := input[inputIdx*r.channels+ch]
			s2 := input[(inputIdx+1)*r.channels+ch]
			output[outIdx*r.channels+ch] = int16(float64(s1)*(1.0-frac) + float64(s2)*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	// Keep only the fractional part so the next chunk continues where
	// this one left off.
	r.position -= float64(int(r.position))

	return outIdx * r.channels
}

// Reset clears the fractional read position, for use after a seek.
func (r *Resampler) Reset() {
	r.position = 0.0
}

// OutputSamplesFor returns the output sample count produced from
// inputSamples, rounded up a frame to leave headroom.
func (r *Resampler) OutputSamplesFor(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 1
	return outputFrames * r.channels
}
