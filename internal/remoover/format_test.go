package remoover

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KiB"},
		{1536, "1.50 KiB"},
		{5 << 20, "5.00 MiB"},
		{3 << 30, "3.00 GiB"},
		{2 << 40, "2.00 TiB"},
	}
	for _, tc := range cases {
		if got := formatBytes(tc.size); got != tc.want {
			t.Fatalf("formatBytes(%d)=%q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestFormatTicks(t *testing.T) {
	cases := []struct {
		ticks int64
		want  string
	}{
		{0, "0 ms"},
		{4644, "46 ms"},
		{150000, "1 s 500 ms"},
		{DefaultTimescale * 75, "1 min 15 s"},
		{DefaultTimescale * 3725, "1 h 2 min 5 s"},
	}
	for _, tc := range cases {
		if got := formatTicks(tc.ticks, DefaultTimescale); got != tc.want {
			t.Fatalf("formatTicks(%d)=%q, want %q", tc.ticks, got, tc.want)
		}
	}
	if got := formatTicks(100, 0); got != "" {
		t.Fatalf("formatTicks with zero timescale=%q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(1500 * time.Microsecond); got != "1.500 ms" {
		t.Fatalf("formatElapsed=%q", got)
	}
}

func TestNormalizeOptions(t *testing.T) {
	opts, err := normalizeOptions(Options{})
	if err != nil {
		t.Fatalf("normalizeOptions err=%v", err)
	}
	if opts.Output != OutputText || opts.DebugDir != "." {
		t.Fatalf("defaults=%+v", opts)
	}

	opts, err = normalizeOptions(Options{Output: " json ", DebugDir: "/tmp/dumps"})
	if err != nil || opts.Output != OutputJSON || opts.DebugDir != "/tmp/dumps" {
		t.Fatalf("opts=%+v err=%v", opts, err)
	}

	if _, err := normalizeOptions(Options{Output: "xml"}); err == nil {
		t.Fatalf("expected an error for xml output")
	}
}

func TestFormatVersion(t *testing.T) {
	cases := map[string]string{
		"":       "dev",
		"dev":    "dev",
		"1.2.3":  "v1.2.3",
		"v0.4.0": "v0.4.0",
	}
	for in, want := range cases {
		if got := FormatVersion(in); got != want {
			t.Fatalf("FormatVersion(%q)=%q, want %q", in, got, want)
		}
	}
}
