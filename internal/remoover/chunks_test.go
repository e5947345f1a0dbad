package remoover

import "testing"

func TestGroupChunksContiguity(t *testing.T) {
	samples := []Sample{
		{Kind: TrackVideo, Offset: 0, Length: 10},
		{Kind: TrackVideo, Offset: 10, Length: 5},
		{Kind: TrackAudio, Offset: 20, Length: 8},
	}
	chunks := GroupChunks(samples)
	if len(chunks) != 2 {
		t.Fatalf("chunks=%d, want 2", len(chunks))
	}
	if chunks[0].Kind != TrackVideo || chunks[0].Length != 15 || len(chunks[0].Samples) != 2 {
		t.Fatalf("chunk 0=%+v", chunks[0])
	}
	if chunks[1].Kind != TrackAudio || chunks[1].Length != 8 || chunks[1].Offset != 20 {
		t.Fatalf("chunk 1=%+v", chunks[1])
	}
}

func TestGroupChunksBreaks(t *testing.T) {
	cases := []struct {
		name    string
		samples []Sample
		want    int
	}{
		{
			name: "gap",
			samples: []Sample{
				{Kind: TrackAudio, Offset: 0, Length: 10},
				{Kind: TrackAudio, Offset: 11, Length: 10},
			},
			want: 2,
		},
		{
			name: "kind change",
			samples: []Sample{
				{Kind: TrackAudio, Offset: 0, Length: 10},
				{Kind: TrackVideo, Offset: 10, Length: 10},
				{Kind: TrackAudio, Offset: 20, Length: 10},
			},
			want: 3,
		},
		{
			name: "region change",
			samples: []Sample{
				{Kind: TrackVideo, Offset: 0, Length: 10, Region: 0},
				{Kind: TrackVideo, Offset: 10, Length: 10, Region: 1},
			},
			want: 2,
		},
		{
			name: "contiguous",
			samples: []Sample{
				{Kind: TrackAudio, Offset: 0, Length: 10},
				{Kind: TrackAudio, Offset: 10, Length: 10},
				{Kind: TrackAudio, Offset: 20, Length: 10},
			},
			want: 1,
		},
		{name: "empty", want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := len(GroupChunks(tc.samples)); got != tc.want {
				t.Fatalf("chunks=%d, want %d", got, tc.want)
			}
		})
	}
}

func TestGroupChunksDurationOnlyFromAudio(t *testing.T) {
	chunks := GroupChunks([]Sample{
		{Kind: TrackAudio, Offset: 0, Length: 10, Duration: 100},
		{Kind: TrackAudio, Offset: 10, Length: 10, Duration: 150},
		{Kind: TrackVideo, Offset: 20, Length: 10, Duration: 999},
	})
	if chunks[0].Duration != 250 {
		t.Fatalf("audio chunk duration=%d, want 250", chunks[0].Duration)
	}
	if chunks[1].Duration != 0 {
		t.Fatalf("video chunk duration=%d, want 0", chunks[1].Duration)
	}
}

func videoChunk(n int) Chunk {
	c := Chunk{Kind: TrackVideo}
	for i := 0; i < n; i++ {
		c.Samples = append(c.Samples, Sample{Kind: TrackVideo})
	}
	return c
}

func TestSpreadAudioDuration(t *testing.T) {
	in := []Chunk{
		{Kind: TrackAudio, Duration: 1000},
		videoChunk(2),
		{Kind: TrackAudio, Duration: 500},
		videoChunk(1),
		{Kind: TrackAudio, Duration: 300},
	}
	out, unassigned := SpreadAudioDuration(in)
	if unassigned != 300 {
		t.Fatalf("unassigned=%d, want 300", unassigned)
	}
	if out[1].Duration != 1000 || out[1].Samples[0].Duration != 500 || out[1].Samples[1].Duration != 500 {
		t.Fatalf("first video chunk=%+v", out[1])
	}
	if out[3].Duration != 500 || out[3].Samples[0].Duration != 500 {
		t.Fatalf("second video chunk=%+v", out[3])
	}
	if in[1].Duration != 0 || in[1].Samples[0].Duration != 0 {
		t.Fatalf("input was modified: %+v", in[1])
	}

	video, audio := SplitChunks(out)
	if got := ChunksDuration(video); got != 1500 {
		t.Fatalf("video duration=%d, want 1500", got)
	}
	if got := ChunksDuration(audio); got != 1800 {
		t.Fatalf("audio duration=%d, want 1800", got)
	}
}

func TestSpreadAudioDurationRounding(t *testing.T) {
	out, _ := SpreadAudioDuration([]Chunk{
		{Kind: TrackAudio, Duration: 100},
		videoChunk(3),
	})
	// 100/3 rounds to 33 for every sample; no remainder correction.
	for i, s := range out[1].Samples {
		if s.Duration != 33 {
			t.Fatalf("sample %d duration=%d, want 33", i, s.Duration)
		}
	}
	out, _ = SpreadAudioDuration([]Chunk{
		{Kind: TrackAudio, Duration: 5},
		videoChunk(2),
	})
	if out[1].Samples[0].Duration != 3 {
		t.Fatalf("half rounds up: got %d, want 3", out[1].Samples[0].Duration)
	}
}

func TestSpreadAudioDurationLeadingVideo(t *testing.T) {
	out, _ := SpreadAudioDuration([]Chunk{videoChunk(2), {Kind: TrackAudio, Duration: 10}, videoChunk(1)})
	if out[0].Duration != 0 || out[0].Samples[0].Duration != 0 {
		t.Fatalf("leading video chunk=%+v", out[0])
	}
	if out[2].Duration != 10 {
		t.Fatalf("second video chunk duration=%d, want 10", out[2].Duration)
	}
}

func TestSplitChunksPreservesOrder(t *testing.T) {
	in := []Chunk{
		{Kind: TrackAudio, Offset: 0},
		{Kind: TrackVideo, Offset: 10},
		{Kind: TrackAudio, Offset: 20},
		{Kind: TrackVideo, Offset: 30},
	}
	video, audio := SplitChunks(in)
	if len(video) != 2 || video[0].Offset != 10 || video[1].Offset != 30 {
		t.Fatalf("video=%+v", video)
	}
	if len(audio) != 2 || audio[0].Offset != 0 || audio[1].Offset != 20 {
		t.Fatalf("audio=%+v", audio)
	}
}

func TestShiftChunkOffsets(t *testing.T) {
	chunks := []Chunk{
		{Offset: 100, Region: 0, Samples: []Sample{{Offset: 100, Region: 0}, {Offset: 110, Region: 0}}},
		{Offset: 5000, Region: 1, Samples: []Sample{{Offset: 5000, Region: 1}}},
	}
	ShiftChunkOffsets([]int64{-40, 1 << 32}, chunks)
	if chunks[0].Offset != 60 || chunks[0].Samples[1].Offset != 70 {
		t.Fatalf("chunk 0=%+v", chunks[0])
	}
	if chunks[1].Offset != 5000+1<<32 || chunks[1].Samples[0].Offset != 5000+1<<32 {
		t.Fatalf("chunk 1=%+v", chunks[1])
	}
}
