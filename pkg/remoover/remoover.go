package remoover

import (
	"io"

	"github.com/autobrr/go-remoover/internal/remoover"
)

// Types
type Options = remoover.Options
type Report = remoover.Report
type Reconstruction = remoover.Reconstruction
type ScanOptions = remoover.ScanOptions
type ProgressFunc = remoover.ProgressFunc
type VideoTrack = remoover.VideoTrack
type AudioTrack = remoover.AudioTrack
type IndexTables = remoover.IndexTables

// Errors
var (
	ErrInvalidSource       = remoover.ErrInvalidSource
	ErrMissingParameterSet = remoover.ErrMissingParameterSet
	ErrNoSamples           = remoover.ErrNoSamples
)

// Constants
const (
	OutputText       = remoover.OutputText
	OutputJSON       = remoover.OutputJSON
	DefaultTimescale = remoover.DefaultTimescale
)

// Functions
func Repair(src, dst string, opts Options) (Report, error) {
	return remoover.Repair(src, dst, opts)
}

func Reconstruct(r io.ReaderAt, size int64, opts ScanOptions) (*Reconstruction, error) {
	return remoover.Reconstruct(r, size, opts)
}

func DefaultOutputPath(src string) string {
	return remoover.DefaultOutputPath(src)
}

// Rendering
func RenderText(report Report) string {
	return remoover.RenderText(report)
}

func RenderJSON(report Report) string {
	return remoover.RenderJSON(report)
}

func FormatVersion(version string) string {
	return remoover.FormatVersion(version)
}

func SetAppVersion(version string) {
	remoover.SetAppVersion(version)
}
