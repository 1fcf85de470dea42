// ABOUTME: Tests for the fixed-capacity buffer group
// ABOUTME: Covers acquire, exhaustion, release-recycle and double release
package media

import (
	"errors"
	"testing"
)

func TestGroupAcquireRelease(t *testing.T) {
	g := NewGroup(1, 8192)

	buf, err := g.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if len(buf.Data()) != 8192 {
		t.Errorf("buffer size = %d, want 8192", len(buf.Data()))
	}

	// Pool holds exactly one buffer, so a second acquire must fail.
	if _, err := g.Acquire(); !errors.Is(err, ErrExhausted) {
		t.Errorf("second acquire error = %v, want ErrExhausted", err)
	}

	buf.SetRange(0, 100)
	buf.SetTimeUs(42)
	buf.Release()

	again, err := g.Acquire()
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	if again.RangeOffset() != 0 || again.RangeLength() != 8192 {
		t.Errorf("recycled window = [%d,%d), want [0,8192)",
			again.RangeOffset(), again.RangeOffset()+again.RangeLength())
	}
	if _, ok := again.TimeUs(); ok {
		t.Error("recycled buffer still carries a timestamp")
	}
}

func TestGroupMultipleBuffers(t *testing.T) {
	g := NewGroup(3, 64)

	var bufs []*Buffer
	for i := 0; i < 3; i++ {
		b, err := g.Acquire()
		if err != nil {
			t.Fatalf("acquire %d failed: %v", i, err)
		}
		bufs = append(bufs, b)
	}

	if _, err := g.Acquire(); !errors.Is(err, ErrExhausted) {
		t.Errorf("acquire beyond capacity error = %v, want ErrExhausted", err)
	}

	for _, b := range bufs {
		b.Release()
	}

	if _, err := g.Acquire(); err != nil {
		t.Errorf("acquire after releases failed: %v", err)
	}
}

func TestGroupDoubleReleasePanics(t *testing.T) {
	g := NewGroup(1, 16)
	buf, err := g.Acquire()
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	buf.Release()

	defer func() {
		if recover() == nil {
			t.Error("double release did not panic")
		}
	}()
	buf.Release()
}

func TestReadOptionsSeek(t *testing.T) {
	var opts ReadOptions

	if _, ok := opts.SeekTo(); ok {
		t.Fatal("zero options should carry no seek")
	}

	opts.SetSeekTo(5_000_000)
	ts, ok := opts.SeekTo()
	if !ok || ts != 5_000_000 {
		t.Errorf("SeekTo() = (%d, %v), want (5000000, true)", ts, ok)
	}

	opts.ClearSeekTo()
	if _, ok := opts.SeekTo(); ok {
		t.Error("seek survived ClearSeekTo")
	}

	var nilOpts *ReadOptions
	if _, ok := nilOpts.SeekTo(); ok {
		t.Error("nil options should carry no seek")
	}
}
