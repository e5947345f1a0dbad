package remoover

import (
	"fmt"
	"strings"
)

const (
	OutputText = "TEXT"
	OutputJSON = "JSON"
)

type Options struct {
	// HEAAC halves ADTS frame durations for double-rate audio.
	HEAAC bool
	// Debug writes intermediate dumps to DebugDir.
	Debug    bool
	DebugDir string
	Progress ProgressFunc
	// Output selects the summary format, TEXT or JSON.
	Output string
}

func normalizeOptions(opts Options) (Options, error) {
	opts.Output = strings.ToUpper(strings.TrimSpace(opts.Output))
	switch opts.Output {
	case "":
		opts.Output = OutputText
	case OutputText, OutputJSON:
	default:
		return opts, fmt.Errorf("output format not implemented: %s", opts.Output)
	}
	if opts.DebugDir == "" {
		opts.DebugDir = "."
	}
	return opts, nil
}
