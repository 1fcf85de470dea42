// ABOUTME: Tests for the AAC decode stage
// ABOUTME: Drives lifecycle, timestamps, seeks and silence substitution with fakes
package aacdec

import (
	"errors"
	"testing"

	"github.com/harperreed/soundstage-go/pkg/media"
)

// fakeUnit is one scripted access unit served by fakeSource.
type fakeUnit struct {
	data    []byte
	timeUs  int64
	stamped bool
}

// fakeSource serves scripted access units and counts lifecycle calls.
type fakeSource struct {
	format media.Format
	units  []fakeUnit
	next   int

	startCalls int
	stopCalls  int
	readCalls  int
	startErr   error
}

func (s *fakeSource) Start() error {
	s.startCalls++
	return s.startErr
}

func (s *fakeSource) Stop() error {
	s.stopCalls++
	return nil
}

func (s *fakeSource) Format() media.Format {
	return s.format
}

func (s *fakeSource) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	s.readCalls++
	if s.next >= len(s.units) {
		return nil, media.ErrEndOfStream
	}
	u := s.units[s.next]
	s.next++
	buf := media.NewBuffer(u.data)
	if u.stamped {
		buf.SetTimeUs(u.timeUs)
	}
	return buf, nil
}

// engineStep scripts one DecodeStep outcome.
type engineStep struct {
	frames   int
	consumed int
	rate     int
	err      error
	// fill, when nonzero, is written over the produced output bytes
	// before returning, so tests can tell silence from stale data.
	fill byte
}

// fakeEngine replays scripted steps and counts lifecycle calls.
type fakeEngine struct {
	steps []engineStep
	calls int

	configureCalls int
	configureErr   error
	closeCalls     int
	lastConfig     []byte
}

func (e *fakeEngine) Configure(codecConfig []byte) error {
	e.configureCalls++
	e.lastConfig = codecConfig
	return e.configureErr
}

func (e *fakeEngine) DecodeStep(req DecodeRequest) (DecodeResult, error) {
	if e.calls >= len(e.steps) {
		return DecodeResult{}, errors.New("fakeEngine: no more scripted steps")
	}
	step := e.steps[e.calls]
	e.calls++

	n := step.frames * bytesPerSample * outputChannels
	if step.fill != 0 {
		for i := 0; i < n && i < len(req.Output); i++ {
			req.Output[i] = step.fill
		}
	}
	return DecodeResult{
		FramesProduced: step.frames,
		BytesConsumed:  step.consumed,
		SampleRate:     step.rate,
	}, step.err
}

func (e *fakeEngine) Close() {
	e.closeCalls++
}

func factoryFor(e *fakeEngine) EngineFactory {
	return func(cfg EngineConfig) (Engine, error) {
		return e, nil
	}
}

func stereoFormat(sampleRate int) media.Format {
	return media.Format{
		MIME:       media.MIMEAudioAAC,
		SampleRate: sampleRate,
		Channels:   2,
	}
}

func TestStartStopReleasesResources(t *testing.T) {
	src := &fakeSource{format: stereoFormat(44100)}
	eng := &fakeEngine{}
	d := New(src, factoryFor(eng))

	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := d.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if src.startCalls != 1 || src.stopCalls != 1 {
		t.Errorf("source start/stop = %d/%d, want 1/1", src.startCalls, src.stopCalls)
	}
	if eng.closeCalls != 1 {
		t.Errorf("engine close calls = %d, want 1", eng.closeCalls)
	}
	if eng.configureCalls != 0 {
		t.Errorf("engine configured %d times without a codec config", eng.configureCalls)
	}
}

func TestStartConfiguresEngineFromCodecConfig(t *testing.T) {
	format := stereoFormat(44100)
	format.CodecConfig = []byte{0x12, 0x10}
	src := &fakeSource{format: format}
	eng := &fakeEngine{}
	d := New(src, factoryFor(eng))

	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	if eng.configureCalls != 1 {
		t.Fatalf("engine configure calls = %d, want 1", eng.configureCalls)
	}
	if len(eng.lastConfig) != 2 || eng.lastConfig[0] != 0x12 {
		t.Errorf("engine saw codec config %x, want 1210", eng.lastConfig)
	}
}

func TestStartUnsupportedFormat(t *testing.T) {
	format := stereoFormat(44100)
	format.CodecConfig = []byte{0xde, 0xad}
	src := &fakeSource{format: format}
	eng := &fakeEngine{configureErr: errors.New("bad config")}
	d := New(src, factoryFor(eng))

	err := d.Start()
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("start error = %v, want ErrUnsupportedFormat", err)
	}
	if eng.closeCalls != 1 {
		t.Errorf("engine close calls = %d, want 1", eng.closeCalls)
	}
	if src.startCalls != 0 {
		t.Errorf("source started %d times despite config rejection", src.startCalls)
	}
}

func TestStartTwicePanics(t *testing.T) {
	src := &fakeSource{format: stereoFormat(44100)}
	d := New(src, factoryFor(&fakeEngine{}))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	defer func() {
		if recover() == nil {
			t.Error("second Start did not panic")
		}
	}()
	d.Start()
}

func TestStopWithoutStartPanics(t *testing.T) {
	d := New(&fakeSource{format: stereoFormat(44100)}, factoryFor(&fakeEngine{}))
	defer func() {
		if recover() == nil {
			t.Error("Stop on stopped decoder did not panic")
		}
	}()
	d.Stop()
}

func TestReadBeforeStartPanics(t *testing.T) {
	d := New(&fakeSource{format: stereoFormat(44100)}, factoryFor(&fakeEngine{}))
	defer func() {
		if recover() == nil {
			t.Error("Read before Start did not panic")
		}
	}()
	d.Read(nil)
}

func TestFormatAlwaysStereo(t *testing.T) {
	tests := []struct {
		name        string
		srcChannels int
	}{
		{"mono input", 1},
		{"stereo input", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format := stereoFormat(44100)
			format.Channels = tt.srcChannels
			format.DurationUs = 30_000_000
			d := New(&fakeSource{format: format}, factoryFor(&fakeEngine{}))

			out := d.Format()
			if out.Channels != 2 {
				t.Errorf("output channels = %d, want 2", out.Channels)
			}
			if out.MIME != media.MIMEAudioRaw {
				t.Errorf("output MIME = %q, want %q", out.MIME, media.MIMEAudioRaw)
			}
			if out.SampleRate != 44100 {
				t.Errorf("output sample rate = %d, want 44100", out.SampleRate)
			}
			if out.DurationUs != 30_000_000 {
				t.Errorf("output duration = %d, want 30000000", out.DurationUs)
			}
			if out.Component != componentName {
				t.Errorf("component = %q, want %q", out.Component, componentName)
			}
		})
	}
}

func TestFormatWithoutSampleRatePanics(t *testing.T) {
	d := New(&fakeSource{}, factoryFor(&fakeEngine{}))
	defer func() {
		if recover() == nil {
			t.Error("Format without source sample rate did not panic")
		}
	}()
	d.Format()
}

func TestReadDecodesFirstUnit(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(44100),
		units: []fakeUnit{
			{data: make([]byte, 10), timeUs: 0, stamped: true},
		},
	}
	eng := &fakeEngine{steps: []engineStep{
		{frames: 1024, consumed: 10, rate: 44100, fill: 0x5a},
	}}
	d := New(src, factoryFor(eng))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	buf, err := d.Read(nil)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	defer buf.Release()

	if buf.RangeLength() != 1024*2*2 {
		t.Errorf("output length = %d, want 4096", buf.RangeLength())
	}
	ts, ok := buf.TimeUs()
	if !ok || ts != 0 {
		t.Errorf("timestamp = (%d, %v), want (0, true)", ts, ok)
	}
	if buf.Bytes()[0] != 0x5a {
		t.Error("output does not carry decoded samples")
	}
	if d.pending != nil {
		t.Error("fully consumed unit should clear pending input")
	}
}

func TestDecodeFailureSubstitutesSilence(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(44100),
		units: []fakeUnit{
			{data: make([]byte, 10), timeUs: 0, stamped: true},
			{data: make([]byte, 12)},
			{data: make([]byte, 8)},
		},
	}
	eng := &fakeEngine{steps: []engineStep{
		{frames: 1024, consumed: 10, rate: 44100, fill: 0x5a},
		{frames: 1024, consumed: 0, rate: 44100, fill: 0xff, err: errors.New("bitstream error")},
		{frames: 1024, consumed: 8, rate: 44100},
	}}
	d := New(src, factoryFor(eng))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	first, err := d.Read(nil)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	first.Release()

	second, err := d.Read(nil)
	if err != nil {
		t.Fatalf("read after decode failure = %v, want contained silence", err)
	}

	if second.RangeLength() != 4096 {
		t.Errorf("silence length = %d, want 4096", second.RangeLength())
	}
	for i, v := range second.Bytes() {
		if v != 0 {
			t.Fatalf("silence buffer byte %d = %#x, want 0", i, v)
		}
	}
	// 1024 samples at 44100 Hz.
	ts, _ := second.TimeUs()
	if ts != 1024*1_000_000/44100 {
		t.Errorf("silence timestamp = %d, want %d", ts, int64(1024*1_000_000/44100))
	}
	second.Release()

	readsBefore := src.readCalls
	third, err := d.Read(nil)
	if err != nil {
		t.Fatalf("third read failed: %v", err)
	}
	third.Release()
	if src.readCalls != readsBefore+1 {
		t.Error("failed unit was not discarded: next read did not pull a fresh unit")
	}
}

func TestPartialUnitConsumption(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(48000),
		units: []fakeUnit{
			{data: make([]byte, 20), timeUs: 0, stamped: true},
		},
	}
	eng := &fakeEngine{steps: []engineStep{
		{frames: 1024, consumed: 12, rate: 48000},
		{frames: 1024, consumed: 8, rate: 48000},
	}}
	d := New(src, factoryFor(eng))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	first, err := d.Read(nil)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	first.Release()

	if d.pending == nil {
		t.Fatal("partially consumed unit was dropped")
	}
	if d.pending.RangeOffset() != 12 || d.pending.RangeLength() != 8 {
		t.Errorf("pending window = [%d,+%d), want [12,+8)",
			d.pending.RangeOffset(), d.pending.RangeLength())
	}

	second, err := d.Read(nil)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	second.Release()

	if src.readCalls != 1 {
		t.Errorf("source reads = %d, want 1 (unit drained over two calls)", src.readCalls)
	}
	if d.pending != nil {
		t.Error("drained unit should clear pending input")
	}
}

func TestTimestampsFollowSampleArithmetic(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(44100),
		units: []fakeUnit{
			{data: make([]byte, 4), timeUs: 0, stamped: true},
			{data: make([]byte, 4)},
			{data: make([]byte, 4)},
		},
	}
	eng := &fakeEngine{steps: []engineStep{
		{frames: 1024, consumed: 4, rate: 44100},
		{frames: 1024, consumed: 4, rate: 44100},
		{frames: 1024, consumed: 4, rate: 44100},
	}}
	d := New(src, factoryFor(eng))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	var prev int64 = -1
	for i := 0; i < 3; i++ {
		buf, err := d.Read(nil)
		if err != nil {
			t.Fatalf("read %d failed: %v", i, err)
		}
		ts, ok := buf.TimeUs()
		if !ok {
			t.Fatalf("read %d: buffer not timestamped", i)
		}
		want := int64(i) * 1024 * 1_000_000 / 44100
		if ts != want {
			t.Errorf("read %d timestamp = %d, want %d", i, ts, want)
		}
		if ts < prev {
			t.Errorf("read %d timestamp %d decreased from %d", i, ts, prev)
		}
		prev = ts
		buf.Release()
	}
}

func TestSeekResetsTimestampAccounting(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(44100),
		units: []fakeUnit{
			{data: make([]byte, 4), timeUs: 0, stamped: true},
			{data: make([]byte, 4), timeUs: 5_000_000, stamped: true},
			{data: make([]byte, 4)},
		},
	}
	eng := &fakeEngine{steps: []engineStep{
		{frames: 1024, consumed: 4, rate: 44100},
		{frames: 1024, consumed: 4, rate: 44100},
		{frames: 1024, consumed: 4, rate: 44100},
	}}
	d := New(src, factoryFor(eng))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	buf, err := d.Read(nil)
	if err != nil {
		t.Fatalf("pre-seek read failed: %v", err)
	}
	buf.Release()

	var opts media.ReadOptions
	opts.SetSeekTo(5_000_000)
	buf, err = d.Read(&opts)
	if err != nil {
		t.Fatalf("post-seek read failed: %v", err)
	}
	ts, _ := buf.TimeUs()
	if ts != 5_000_000 {
		t.Errorf("post-seek timestamp = %d, want 5000000", ts)
	}
	buf.Release()

	// Sample accounting restarts at the post-seek anchor.
	buf, err = d.Read(nil)
	if err != nil {
		t.Fatalf("read after seek failed: %v", err)
	}
	ts, _ = buf.TimeUs()
	want := int64(5_000_000) + 1024*1_000_000/44100
	if ts != want {
		t.Errorf("second post-seek timestamp = %d, want %d", ts, want)
	}
	buf.Release()
}

func TestSeekDiscardsPendingInput(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(44100),
		units: []fakeUnit{
			{data: make([]byte, 20), timeUs: 0, stamped: true},
			{data: make([]byte, 4), timeUs: 1_000_000, stamped: true},
		},
	}
	eng := &fakeEngine{steps: []engineStep{
		{frames: 1024, consumed: 5, rate: 44100}, // leaves 15 bytes pending
		{frames: 1024, consumed: 4, rate: 44100},
	}}
	d := New(src, factoryFor(eng))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	buf, err := d.Read(nil)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	buf.Release()
	if d.pending == nil {
		t.Fatal("expected pending input before seek")
	}

	var opts media.ReadOptions
	opts.SetSeekTo(1_000_000)
	buf, err = d.Read(&opts)
	if err != nil {
		t.Fatalf("post-seek read failed: %v", err)
	}
	buf.Release()

	if src.readCalls != 2 {
		t.Errorf("source reads = %d, want 2 (seek must pull a fresh unit)", src.readCalls)
	}
}

func TestSeekNegativePanics(t *testing.T) {
	src := &fakeSource{format: stereoFormat(44100)}
	d := New(src, factoryFor(&fakeEngine{}))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	defer func() {
		if recover() == nil {
			t.Error("negative seek did not panic")
		}
	}()
	var opts media.ReadOptions
	opts.SetSeekTo(-1)
	d.Read(&opts)
}

func TestUnstampedUnitAfterSeekPanics(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(44100),
		units:  []fakeUnit{{data: make([]byte, 4)}},
	}
	d := New(src, factoryFor(&fakeEngine{}))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	defer func() {
		if recover() == nil {
			t.Error("unstamped unit after seek did not panic")
		}
	}()
	var opts media.ReadOptions
	opts.SetSeekTo(0)
	d.Read(&opts)
}

func TestUnstampedUnitWithoutSeekInheritsAnchor(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(44100),
		units: []fakeUnit{
			{data: make([]byte, 4), timeUs: 7_000_000, stamped: true},
			{data: make([]byte, 4)}, // continuation of the same run
		},
	}
	eng := &fakeEngine{steps: []engineStep{
		{frames: 1024, consumed: 4, rate: 44100},
		{frames: 1024, consumed: 4, rate: 44100},
	}}
	d := New(src, factoryFor(eng))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	buf, err := d.Read(nil)
	if err != nil {
		t.Fatalf("first read failed: %v", err)
	}
	buf.Release()

	buf, err = d.Read(nil)
	if err != nil {
		t.Fatalf("second read failed: %v", err)
	}
	ts, _ := buf.TimeUs()
	want := int64(7_000_000) + 1024*1_000_000/44100
	if ts != want {
		t.Errorf("continuation timestamp = %d, want %d", ts, want)
	}
	buf.Release()
}

func TestUpstreamEndOfStreamPropagates(t *testing.T) {
	src := &fakeSource{format: stereoFormat(44100)}
	d := New(src, factoryFor(&fakeEngine{}))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	if _, err := d.Read(nil); !errors.Is(err, media.ErrEndOfStream) {
		t.Fatalf("read at EOS = %v, want ErrEndOfStream", err)
	}

	// The pool was not touched: its only buffer is still available.
	if _, err := d.group.Acquire(); err != nil {
		t.Errorf("pool buffer leaked across EOS read: %v", err)
	}
}

func TestZeroFrameDecode(t *testing.T) {
	src := &fakeSource{
		format: stereoFormat(44100),
		units:  []fakeUnit{{data: make([]byte, 6), timeUs: 0, stamped: true}},
	}
	eng := &fakeEngine{steps: []engineStep{
		{frames: 0, consumed: 6, rate: 44100},
	}}
	d := New(src, factoryFor(eng))
	if err := d.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer d.Stop()

	buf, err := d.Read(nil)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	defer buf.Release()

	if buf.RangeLength() != 0 {
		t.Errorf("zero-frame output length = %d, want 0", buf.RangeLength())
	}
	if _, ok := buf.TimeUs(); !ok {
		t.Error("zero-frame buffer should still be timestamped")
	}
}
