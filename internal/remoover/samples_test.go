package remoover

import "testing"

func nalElement(offset, length int64, nalType NALType) Element {
	return Element{Kind: ElementVideo, Offset: offset, Length: length, NALType: nalType}
}

func TestAssembleSamples(t *testing.T) {
	elements := []Element{
		{Kind: ElementBox, Offset: 0, Length: 8, BoxType: "mdat"},
		{Kind: ElementAudio, Offset: 8, Length: 17, Duration: 2322},
		nalElement(25, 6, NALDelimiter),
		nalElement(31, 12, NALSPS),
		nalElement(43, 8, NALPPS),
		nalElement(51, 28, NALOther),
		nalElement(79, 6, NALDelimiter),
		nalElement(85, 36, NALIDR),
		{Kind: ElementAudio, Offset: 121, Length: 17, Duration: 2322},
	}

	samples, dropped := AssembleSamples(elements)
	if dropped != 0 {
		t.Fatalf("dropped=%d, want 0", dropped)
	}
	want := []Sample{
		{Kind: TrackAudio, Offset: 8, Length: 17, Duration: 2322},
		{Kind: TrackVideo, Offset: 25, Length: 54},
		{Kind: TrackVideo, Offset: 79, Length: 42, IsSync: true},
		{Kind: TrackAudio, Offset: 121, Length: 17, Duration: 2322},
	}
	if len(samples) != len(want) {
		t.Fatalf("samples=%+v", samples)
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Fatalf("sample %d=%+v, want %+v", i, samples[i], want[i])
		}
	}
}

func TestAssembleSamplesDropsUndelimitedNALs(t *testing.T) {
	elements := []Element{
		nalElement(0, 12, NALSPS),
		nalElement(12, 20, NALIDR),
		nalElement(32, 6, NALDelimiter),
		nalElement(38, 20, NALOther),
		{Kind: ElementAudio, Offset: 58, Length: 17},
		// No open video sample after an audio frame.
		nalElement(75, 20, NALOther),
	}
	samples, dropped := AssembleSamples(elements)
	if dropped != 3 {
		t.Fatalf("dropped=%d, want 3", dropped)
	}
	if len(samples) != 2 || samples[0].Length != 26 || samples[0].IsSync {
		t.Fatalf("samples=%+v", samples)
	}
}

func TestAssembleSamplesSyncIsMonotonic(t *testing.T) {
	orders := [][]NALType{
		{NALDelimiter, NALIDR, NALOther, NALSEI},
		{NALDelimiter, NALOther, NALSEI, NALIDR},
		{NALDelimiter, NALSEI, NALIDR, NALIDR},
	}
	for _, order := range orders {
		var elements []Element
		var offset int64
		for _, nt := range order {
			elements = append(elements, nalElement(offset, 10, nt))
			offset += 10
		}
		samples, _ := AssembleSamples(elements)
		if len(samples) != 1 || !samples[0].IsSync || samples[0].Length != 40 {
			t.Fatalf("order %v: samples=%+v", order, samples)
		}
	}
}
