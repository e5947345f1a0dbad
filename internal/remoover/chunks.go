package remoover

// GroupChunks groups samples into chunks: runs of same-kind samples in the
// same region where each sample starts where the previous one ended.
// Only audio samples contribute to a chunk's duration here.
func GroupChunks(samples []Sample) []Chunk {
	var chunks []Chunk
	for _, s := range samples {
		if n := len(chunks); n > 0 {
			last := &chunks[n-1]
			if last.Kind == s.Kind && last.Region == s.Region && last.Offset+last.Length == s.Offset {
				last.Length += s.Length
				if s.Kind == TrackAudio {
					last.Duration += s.Duration
				}
				last.Samples = append(last.Samples, s)
				continue
			}
		}
		chunk := Chunk{
			Kind:    s.Kind,
			Offset:  s.Offset,
			Length:  s.Length,
			Region:  s.Region,
			Samples: []Sample{s},
		}
		if s.Kind == TrackAudio {
			chunk.Duration = s.Duration
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// SpreadAudioDuration gives every video chunk the audio duration accumulated
// since the previous video chunk, split evenly across its samples. Audio
// duration after the last video chunk is returned as unassigned. The input
// is left untouched.
func SpreadAudioDuration(chunks []Chunk) (out []Chunk, unassigned int64) {
	out = make([]Chunk, len(chunks))
	var pending int64
	for i, c := range chunks {
		if c.Kind == TrackAudio {
			pending += c.Duration
			c.Samples = append([]Sample(nil), c.Samples...)
			out[i] = c
			continue
		}
		c.Duration = pending
		perSample := roundDiv(pending, int64(len(c.Samples)))
		samples := make([]Sample, len(c.Samples))
		for j, s := range c.Samples {
			s.Duration = perSample
			samples[j] = s
		}
		c.Samples = samples
		out[i] = c
		pending = 0
	}
	return out, pending
}

// SplitChunks separates chunks by kind, keeping their relative order.
func SplitChunks(chunks []Chunk) (video, audio []Chunk) {
	for _, c := range chunks {
		switch c.Kind {
		case TrackVideo:
			video = append(video, c)
		case TrackAudio:
			audio = append(audio, c)
		}
	}
	return video, audio
}

// ShiftChunkOffsets moves every chunk and sample by the shift of the region
// it belongs to.
func ShiftChunkOffsets(shifts []int64, chunks []Chunk) {
	for i := range chunks {
		c := &chunks[i]
		for j := range c.Samples {
			c.Samples[j].Offset += shifts[c.Samples[j].Region]
		}
		c.Offset += shifts[c.Region]
	}
}

// roundDiv rounds a/b half up, matching Math.round for non-negative input.
func roundDiv(a, b int64) int64 {
	if b <= 0 {
		return 0
	}
	return (2*a + b) / (2 * b)
}
