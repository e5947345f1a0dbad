package remoover

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	ol "github.com/ossrs/go-oryx-lib/logger"
)

// Stage names, in pipeline order.
const (
	StageScan     = "Mdat mapping"
	StageSamples  = "Building samples"
	StageChunks   = "Building chunks"
	StageFileType = "Generating ftyp"
	StageCopy     = "Copying mdats"
	StageTables   = "Building sample table data"
	StageMovie    = "Generating moov"
)

const (
	outputNameSuffix = ".fixed"
	outputExtension  = ".mp4"
)

type stageClock struct {
	timings []StageTiming
}

func (c *stageClock) run(stage string, fn func() error) error {
	ol.T(nil, fmt.Sprintf("%s: start", stage))
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	c.timings = append(c.timings, StageTiming{Stage: stage, Elapsed: elapsed})
	if err != nil {
		ol.E(nil, fmt.Sprintf("%s: failed after %s: %v", stage, formatElapsed(elapsed), err))
		return err
	}
	ol.T(nil, fmt.Sprintf("%s: done in %s", stage, formatElapsed(elapsed)))
	return nil
}

// Reconstruction holds everything derived from the source before any output
// is written.
type Reconstruction struct {
	Scan    *ScanResult
	Samples []Sample
	// Chunks is the interleaved chunk sequence before duration spreading.
	Chunks []Chunk
	// VideoChunks and AudioChunks are split after duration spreading.
	VideoChunks     []Chunk
	AudioChunks     []Chunk
	DroppedNALUnits int
	UnassignedAudio int64
	Timings         []StageTiming
}

// Reconstruct scans the source and derives samples and per-track chunks.
func Reconstruct(r io.ReaderAt, size int64, opts ScanOptions) (*Reconstruction, error) {
	clock := &stageClock{}
	rec := &Reconstruction{}

	err := clock.run(StageScan, func() error {
		res, err := Scan(r, size, opts)
		if err != nil {
			return err
		}
		rec.Scan = res
		ol.T(nil, fmt.Sprintf("total of %d mdats found", len(res.Regions)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = clock.run(StageSamples, func() error {
		rec.Samples, rec.DroppedNALUnits = AssembleSamples(rec.Scan.Elements)
		if rec.DroppedNALUnits > 0 {
			ol.W(nil, fmt.Sprintf("dropped %d nal units found before any access unit delimiter", rec.DroppedNALUnits))
		}
		ol.T(nil, fmt.Sprintf("samples found: %d", len(rec.Samples)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = clock.run(StageChunks, func() error {
		rec.Chunks = GroupChunks(rec.Samples)
		spread, unassigned := SpreadAudioDuration(rec.Chunks)
		rec.UnassignedAudio = unassigned
		if unassigned > 0 {
			ol.W(nil, fmt.Sprintf("%d ticks of audio after the last video chunk are not assigned to any video sample", unassigned))
		}
		rec.VideoChunks, rec.AudioChunks = SplitChunks(spread)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rec.Timings = clock.timings
	return rec, nil
}

func (rec *Reconstruction) validate() error {
	if len(rec.Samples) == 0 {
		return ErrNoSamples
	}
	if len(rec.VideoChunks) > 0 && (rec.Scan.Video.SPS == nil || rec.Scan.Video.PPS == nil) {
		return ErrMissingParameterSet
	}
	return nil
}

// Relocate applies per-region offset shifts to both chunk sequences.
func (rec *Reconstruction) Relocate(shifts []int64) {
	ShiftChunkOffsets(shifts, rec.VideoChunks)
	ShiftChunkOffsets(shifts, rec.AudioChunks)
}

// BuildTracks fills the sample tables and durations of both tracks from the
// current chunk offsets. Audio is nil when the source had no audio frames.
func (rec *Reconstruction) BuildTracks() (*VideoTrack, *AudioTrack) {
	video := rec.Scan.Video
	video.Tables = BuildTables(rec.VideoChunks)
	video.Duration = ChunksDuration(rec.VideoChunks)
	if video.Tables.LargeOffsets {
		ol.T(nil, fmt.Sprintf("using 64-bit chunk offsets for video, highest at %d", MaxChunkOffset(rec.VideoChunks)))
	}

	audio := rec.Scan.Audio
	if audio != nil {
		audio.Tables = BuildTables(rec.AudioChunks)
		audio.Duration = ChunksDuration(rec.AudioChunks)
		if audio.Tables.LargeOffsets {
			ol.T(nil, fmt.Sprintf("using 64-bit chunk offsets for audio, highest at %d", MaxChunkOffset(rec.AudioChunks)))
		}
	}
	return video, audio
}

// Repair rebuilds src into dst. An empty dst picks a free name next to the
// working directory with DefaultOutputPath.
func Repair(src, dst string, opts Options) (Report, error) {
	opts, err := normalizeOptions(opts)
	if err != nil {
		return Report{}, err
	}

	stat, err := os.Stat(src)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	if !stat.Mode().IsRegular() {
		return Report{}, fmt.Errorf("%w: %s is not a regular file", ErrInvalidSource, src)
	}
	in, err := os.Open(src)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %v", ErrInvalidSource, err)
	}
	defer in.Close()

	if dst == "" {
		dst = DefaultOutputPath(src)
	}
	if samePath(src, dst) {
		return Report{}, fmt.Errorf("destination %s would overwrite the source", dst)
	}

	report := Report{
		Source:      src,
		Destination: dst,
		SourceSize:  stat.Size(),
		Timescale:   DefaultTimescale,
	}
	dump := debugDumper{enabled: opts.Debug, dir: opts.DebugDir}

	rec, err := Reconstruct(in, stat.Size(), ScanOptions{
		DoubleRateAudio: opts.HEAAC,
		Progress:        opts.Progress,
	})
	if err != nil {
		return report, err
	}
	report.Timings = append(report.Timings, rec.Timings...)
	report.DroppedNALUnits = rec.DroppedNALUnits
	report.UnassignedAudio = rec.UnassignedAudio

	dump.writeJSON(dumpElements, rec.Scan.Elements)
	dump.writeJSON(dumpSamples, rec.Samples)
	dump.writeJSON(dumpChunks, rec.Chunks)
	dump.writeJSON(dumpChunksDuration, splitChunksDump{Video: rec.VideoChunks, Audio: rec.AudioChunks})

	if err := rec.validate(); err != nil {
		ol.E(nil, fmt.Sprintf("cannot rebuild %s: %v", src, err))
		return report, err
	}

	out, err := os.Create(dst)
	if err != nil {
		return report, fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	clock := &stageClock{}
	var ftypEnd, regionsEnd, moovEnd int64
	var video *VideoTrack
	var audio *AudioTrack

	err = clock.run(StageFileType, func() error {
		if err := WriteFileType(out); err != nil {
			return fmt.Errorf("write ftyp: %w", err)
		}
		var err error
		ftypEnd, err = out.Seek(0, io.SeekCurrent)
		return err
	})
	if err == nil {
		err = clock.run(StageCopy, func() error {
			var err error
			regionsEnd, err = WriteRegions(out, in, stat.Size(), rec.Scan.Regions, ftypEnd)
			return err
		})
	}
	if err == nil {
		err = clock.run(StageTables, func() error {
			rec.Relocate(RegionShifts(rec.Scan.Regions))
			video, audio = rec.BuildTracks()
			return nil
		})
	}
	if err == nil {
		err = clock.run(StageMovie, func() error {
			if _, err := out.Seek(regionsEnd, io.SeekStart); err != nil {
				return err
			}
			if err := WriteMovie(out, video, audio); err != nil {
				return fmt.Errorf("write moov: %w", err)
			}
			var err error
			moovEnd, err = out.Seek(0, io.SeekCurrent)
			return err
		})
	}
	report.Timings = append(report.Timings, clock.timings...)
	if err != nil {
		return report, err
	}

	dump.writeJSON(dumpVideoTrack, video)
	dump.writeJSON(dumpAudioTrack, audio)
	dump.writeRange(dumpFileType, out, 0, ftypEnd)
	dump.writeRange(dumpMovie, out, regionsEnd, moovEnd-regionsEnd)

	if err := out.Close(); err != nil {
		return report, fmt.Errorf("close %s: %w", dst, err)
	}

	report.BytesWritten = moovEnd
	report.Regions = regionSpans(rec.Scan.Regions)
	if video.Tables.SampleCount() > 0 {
		report.Video = &VideoSummary{
			Samples:      video.Tables.SampleCount(),
			SyncSamples:  len(video.Tables.SyncSamples),
			Chunks:       len(rec.VideoChunks),
			Width:        video.Width,
			Height:       video.Height,
			ProfileIdc:   video.ProfileIdc,
			LevelIdc:     video.LevelIdc,
			Duration:     video.Duration,
			LargeOffsets: video.Tables.LargeOffsets,
		}
	}
	if audio != nil && audio.Tables.SampleCount() > 0 {
		report.Audio = &AudioSummary{
			Samples:         audio.Tables.SampleCount(),
			Chunks:          len(rec.AudioChunks),
			AudioObjectType: audio.AudioObjectType,
			SampleRate:      audio.SampleRate,
			ChannelCount:    audio.ChannelCount,
			Duration:        audio.Duration,
			LargeOffsets:    audio.Tables.LargeOffsets,
		}
	}
	return report, nil
}

func regionSpans(regions []Region) []RegionSpan {
	spans := make([]RegionSpan, len(regions))
	for i, r := range regions {
		spans[i] = RegionSpan{Start: r.Offset, End: r.Offset + r.Length, RelocatedOffset: r.RelocatedOffset}
	}
	return spans
}

// DefaultOutputPath returns "<name>.fixed.mp4" in the working directory, or
// the first free "<name>.fixed-N.mp4".
func DefaultOutputPath(src string) string {
	return OutputPath(src, fileExists)
}

func OutputPath(src string, exists func(string) bool) string {
	base := filepath.Base(src)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	candidate := name + outputNameSuffix + outputExtension
	for i := 1; exists(candidate); i++ {
		candidate = fmt.Sprintf("%s%s-%d%s", name, outputNameSuffix, i, outputExtension)
	}
	return candidate
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
