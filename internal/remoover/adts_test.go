package remoover

import (
	"testing"

	"github.com/nareix/joy4/codec/aacparser"
)

func TestParseADTSHeader(t *testing.T) {
	cases := []struct {
		name     string
		profile  uint8
		sfi      uint8
		channels uint8
		payload  int
		wantRate int
	}{
		{name: "lc 44100 stereo", profile: 1, sfi: 4, channels: 2, payload: 10, wantRate: 44100},
		{name: "lc 48000 5.1", profile: 1, sfi: 3, channels: 6, payload: 400, wantRate: 48000},
		{name: "main 8000 mono", profile: 0, sfi: 11, channels: 1, payload: 1, wantRate: 8000},
		{name: "long frame", profile: 1, sfi: 3, channels: 2, payload: 8000, wantRate: 48000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame := adtsFrame(tc.profile, tc.sfi, tc.channels, tc.payload)
			if !isADTSSync(frame) {
				t.Fatalf("isADTSSync=false")
			}
			h := parseADTSHeader(frame)
			if h.ObjectType != tc.profile+1 {
				t.Fatalf("ObjectType=%d, want %d", h.ObjectType, tc.profile+1)
			}
			if h.SamplingFrequencyIndex != tc.sfi || h.SampleRate != tc.wantRate {
				t.Fatalf("sfi/rate=%d/%d, want %d/%d", h.SamplingFrequencyIndex, h.SampleRate, tc.sfi, tc.wantRate)
			}
			if h.ChannelConfig != tc.channels {
				t.Fatalf("ChannelConfig=%d, want %d", h.ChannelConfig, tc.channels)
			}
			if h.FrameLength != int64(len(frame)) {
				t.Fatalf("FrameLength=%d, want %d", h.FrameLength, len(frame))
			}
			if h.RawFrames != 1 {
				t.Fatalf("RawFrames=%d, want 1", h.RawFrames)
			}

			config, _, framelen, samples, err := aacparser.ParseADTSHeader(frame)
			if err != nil {
				t.Fatalf("aacparser.ParseADTSHeader err=%v", err)
			}
			if uint(h.ObjectType) != config.ObjectType || uint(h.SamplingFrequencyIndex) != config.SampleRateIndex || uint(h.ChannelConfig) != config.ChannelConfig {
				t.Fatalf("header=%+v, aacparser=%+v", h, config)
			}
			if int(h.FrameLength) != framelen {
				t.Fatalf("FrameLength=%d, aacparser=%d", h.FrameLength, framelen)
			}
			if h.RawFrames*adtsFrameSamples != samples {
				t.Fatalf("samples=%d, aacparser=%d", h.RawFrames*adtsFrameSamples, samples)
			}
		})
	}
}

func TestParseADTSHeaderRawFrames(t *testing.T) {
	frame := adtsFrame(1, 4, 2, 10)
	frame[6] = 0xFC | 0x02
	if got := parseADTSHeader(frame).RawFrames; got != 3 {
		t.Fatalf("RawFrames=%d, want 3", got)
	}
}

func TestIsADTSSync(t *testing.T) {
	cases := []struct {
		probe []byte
		want  bool
	}{
		{[]byte{0xFF, 0xF1}, true},
		{[]byte{0xFF, 0xF0}, true},
		{[]byte{0xFF, 0xF9}, false}, // MPEG-2 ID bit
		{[]byte{0xFF, 0xF3}, false}, // layer != 0
		{[]byte{0x00, 0x00}, false},
		{[]byte{0xFF}, false},
	}
	for _, tc := range cases {
		if got := isADTSSync(tc.probe); got != tc.want {
			t.Fatalf("isADTSSync(% x)=%v, want %v", tc.probe, got, tc.want)
		}
	}
}

func TestADTSFrameDuration(t *testing.T) {
	cases := []struct {
		name       string
		rate       int
		frames     int
		doubleRate bool
		want       int64
	}{
		{name: "44100", rate: 44100, frames: 1, want: 2322},
		{name: "48000", rate: 48000, frames: 1, want: 2133},
		{name: "48000 two raw frames", rate: 48000, frames: 2, want: 4267},
		{name: "24000 double rate", rate: 24000, frames: 1, doubleRate: true, want: 2133},
		{name: "reserved rate", rate: 0, frames: 1, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := adtsFrameDuration(tc.rate, tc.frames, DefaultTimescale, tc.doubleRate)
			if got != tc.want {
				t.Fatalf("adtsFrameDuration=%d, want %d", got, tc.want)
			}
		})
	}
}
