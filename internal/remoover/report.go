package remoover

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type StageTiming struct {
	Stage   string        `json:"stage"`
	Elapsed time.Duration `json:"elapsedNs"`
}

type RegionSpan struct {
	Start           int64 `json:"start"`
	End             int64 `json:"end"`
	RelocatedOffset int64 `json:"newOffset"`
}

type VideoSummary struct {
	Samples      int   `json:"samples"`
	SyncSamples  int   `json:"syncSamples"`
	Chunks       int   `json:"chunks"`
	Width        int   `json:"width"`
	Height       int   `json:"height"`
	ProfileIdc   uint8 `json:"profileIdc"`
	LevelIdc     uint8 `json:"levelIdc"`
	Duration     int64 `json:"duration"`
	LargeOffsets bool  `json:"co64"`
}

type AudioSummary struct {
	Samples         int   `json:"samples"`
	Chunks          int   `json:"chunks"`
	AudioObjectType uint8 `json:"audioObjectType"`
	SampleRate      int   `json:"sampleRate"`
	ChannelCount    uint8 `json:"channelCount"`
	Duration        int64 `json:"duration"`
	LargeOffsets    bool  `json:"co64"`
}

// Report summarizes one repair run.
type Report struct {
	Source       string        `json:"source"`
	Destination  string        `json:"destination"`
	SourceSize   int64         `json:"sourceSize"`
	BytesWritten int64         `json:"bytesWritten"`
	Timescale    uint32        `json:"timescale"`
	Regions      []RegionSpan  `json:"regions"`
	Video        *VideoSummary `json:"video,omitempty"`
	Audio        *AudioSummary `json:"audio,omitempty"`
	// DroppedNALUnits counts NAL units seen before any access unit delimiter.
	DroppedNALUnits int `json:"droppedNalUnits"`
	// UnassignedAudio is audio duration after the last video chunk.
	UnassignedAudio int64         `json:"unassignedAudioDuration"`
	Timings         []StageTiming `json:"timings"`
}

type reportField struct {
	Name  string
	Value string
}

type reportSection struct {
	Title  string
	Fields []reportField
}

func (r Report) sections() []reportSection {
	general := reportSection{Title: "General", Fields: []reportField{
		{Name: "Source", Value: r.Source},
		{Name: "Destination", Value: r.Destination},
		{Name: "Source size", Value: formatBytes(r.SourceSize)},
		{Name: "Bytes written", Value: formatBytes(r.BytesWritten)},
		{Name: "Mdat count", Value: fmt.Sprintf("%d", len(r.Regions))},
	}}
	for i, span := range r.Regions {
		general.Fields = append(general.Fields, reportField{
			Name:  fmt.Sprintf("Mdat #%d", i),
			Value: fmt.Sprintf("%d - %d (now at %d)", span.Start, span.End, span.RelocatedOffset),
		})
	}
	if r.DroppedNALUnits > 0 {
		general.Fields = append(general.Fields, reportField{Name: "Dropped NAL units", Value: fmt.Sprintf("%d", r.DroppedNALUnits)})
	}
	if r.UnassignedAudio > 0 {
		general.Fields = append(general.Fields, reportField{Name: "Unassigned audio", Value: formatTicks(r.UnassignedAudio, r.Timescale)})
	}
	sections := []reportSection{general}

	if v := r.Video; v != nil {
		sections = append(sections, reportSection{Title: "Video", Fields: []reportField{
			{Name: "Format", Value: "AVC"},
			{Name: "Format profile", Value: fmt.Sprintf("%d@L%d", v.ProfileIdc, v.LevelIdc)},
			{Name: "Width", Value: fmt.Sprintf("%d pixels", v.Width)},
			{Name: "Height", Value: fmt.Sprintf("%d pixels", v.Height)},
			{Name: "Duration", Value: formatTicks(v.Duration, r.Timescale)},
			{Name: "Samples", Value: fmt.Sprintf("%d", v.Samples)},
			{Name: "Sync samples", Value: fmt.Sprintf("%d", v.SyncSamples)},
			{Name: "Chunks", Value: fmt.Sprintf("%d", v.Chunks)},
			{Name: "Chunk offsets", Value: offsetWidth(v.LargeOffsets)},
		}})
	}
	if a := r.Audio; a != nil {
		sections = append(sections, reportSection{Title: "Audio", Fields: []reportField{
			{Name: "Format", Value: "AAC"},
			{Name: "Audio object type", Value: fmt.Sprintf("%d", a.AudioObjectType)},
			{Name: "Sampling rate", Value: fmt.Sprintf("%d Hz", a.SampleRate)},
			{Name: "Channel(s)", Value: fmt.Sprintf("%d", a.ChannelCount)},
			{Name: "Duration", Value: formatTicks(a.Duration, r.Timescale)},
			{Name: "Samples", Value: fmt.Sprintf("%d", a.Samples)},
			{Name: "Chunks", Value: fmt.Sprintf("%d", a.Chunks)},
			{Name: "Chunk offsets", Value: offsetWidth(a.LargeOffsets)},
		}})
	}

	timings := reportSection{Title: "Timings"}
	for _, t := range r.Timings {
		timings.Fields = append(timings.Fields, reportField{Name: t.Stage, Value: formatElapsed(t.Elapsed)})
	}
	return append(sections, timings)
}

func offsetWidth(large bool) string {
	if large {
		return "64-bit"
	}
	return "32-bit"
}

func RenderText(r Report) string {
	var buf bytes.Buffer
	for i, section := range r.sections() {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(section.Title)
		buf.WriteString("\n")
		for _, field := range section.Fields {
			buf.WriteString(padRight(field.Name, 24))
			buf.WriteString(": ")
			buf.WriteString(field.Value)
			buf.WriteString("\n")
		}
	}
	buf.WriteString("\n")
	buf.WriteString(fmt.Sprintf("ReportBy : %s - %s", AppName, FormatVersion(AppVersion)))
	return buf.String() + "\n"
}

func padRight(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return value + strings.Repeat(" ", width-len(value))
}

type jsonReport struct {
	CreatingLibrary jsonLibrary `json:"creatingLibrary"`
	Report
}

type jsonLibrary struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	URL     string `json:"url"`
}

func RenderJSON(r Report) string {
	out := jsonReport{
		CreatingLibrary: jsonLibrary{Name: AppName, Version: FormatVersion(AppVersion), URL: AppURL},
		Report:          r,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}\n", err.Error())
	}
	return string(data) + "\n"
}

// Render picks the renderer for a normalized output format.
func Render(r Report, format string) string {
	if strings.EqualFold(format, OutputJSON) {
		return RenderJSON(r)
	}
	return RenderText(r)
}
