// ABOUTME: Tests for the PCM decoder
// ABOUTME: Covers 16-bit and 24-bit unpacking and codec dispatch
package decode

import (
	"testing"

	"github.com/harperreed/soundstage-go/pkg/media"
)

func TestNewDispatch(t *testing.T) {
	tests := []struct {
		name    string
		mime    string
		wantErr bool
	}{
		{"pcm", media.MIMEAudioRaw, false},
		{"mp3", media.MIMEAudioMPEG, true},
		{"unknown", "audio/xyzzy", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := New(media.Format{MIME: tt.mime, SampleRate: 48000, Channels: 2, BitDepth: 16})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected dispatch to fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("dispatch failed: %v", err)
			}
			if dec == nil {
				t.Fatal("expected a decoder")
			}
			dec.Close()
		})
	}
}

func TestPCM16Decode(t *testing.T) {
	dec, err := NewPCM(media.Format{BitDepth: 16})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 0x00,0x01 -> 0x0100 = 256; 0x02,0x03 -> 0x0302 = 770
	samples, err := dec.Decode([]byte{0x00, 0x01, 0x02, 0x03})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("sample count = %d, want 2", len(samples))
	}
	if samples[0] != 256 || samples[1] != 770 {
		t.Errorf("samples = %v, want [256 770]", samples)
	}
}

func TestPCM24Decode(t *testing.T) {
	dec, err := NewPCM(media.Format{BitDepth: 24})
	if err != nil {
		t.Fatalf("failed to create decoder: %v", err)
	}

	// 24-bit 0x010200 -> top 16 bits 0x0102 = 258
	samples, err := dec.Decode([]byte{0x00, 0x02, 0x01})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("sample count = %d, want 1", len(samples))
	}
	if samples[0] != 0x0102 {
		t.Errorf("sample = %d, want %d", samples[0], 0x0102)
	}
}

func TestPCMUnsupportedDepth(t *testing.T) {
	if _, err := NewPCM(media.Format{BitDepth: 8}); err == nil {
		t.Error("expected 8-bit PCM to be rejected")
	}
}
