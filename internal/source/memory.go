// ABOUTME: In-memory access unit source
// ABOUTME: Serves canned units for tests and hand-built pipelines
package source

import (
	"github.com/harperreed/soundstage-go/pkg/media"
)

// Unit is one canned access unit for a MemorySource.
type Unit struct {
	Data   []byte
	TimeUs int64
	// Stamped controls whether TimeUs is attached to the unit.
	Stamped bool
}

// MemorySource serves a fixed list of access units in order. On seek
// it jumps to the latest stamped unit at or before the target, so the
// unit landed on is always stamped.
type MemorySource struct {
	format media.Format
	units  []Unit

	started bool
	index   int
}

// NewMemory creates a source over canned units.
func NewMemory(format media.Format, units []Unit) *MemorySource {
	return &MemorySource{format: format, units: units}
}

func (s *MemorySource) Start() error {
	if s.started {
		panic("source: Start on a started memory source")
	}
	s.started = true
	s.index = 0
	return nil
}

func (s *MemorySource) Stop() error {
	if !s.started {
		panic("source: Stop on a stopped memory source")
	}
	s.started = false
	return nil
}

func (s *MemorySource) Format() media.Format {
	return s.format
}

func (s *MemorySource) Read(opts *media.ReadOptions) (*media.Buffer, error) {
	if !s.started {
		panic("source: Read on a stopped memory source")
	}

	if seekUs, ok := opts.SeekTo(); ok {
		s.index = s.seekIndex(seekUs)
	}

	if s.index >= len(s.units) {
		return nil, media.ErrEndOfStream
	}

	u := s.units[s.index]
	s.index++

	buf := media.NewBuffer(u.Data)
	if u.Stamped {
		buf.SetTimeUs(u.TimeUs)
	}
	return buf, nil
}

func (s *MemorySource) seekIndex(timeUs int64) int {
	best := 0
	for i, u := range s.units {
		if u.Stamped && u.TimeUs <= timeUs {
			best = i
		}
	}
	return best
}
