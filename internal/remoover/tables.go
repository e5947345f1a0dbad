package remoover

import "math"

// BuildTables derives the sample table contents for one track from its
// chunks, in chunk and sample order.
func BuildTables(chunks []Chunk) IndexTables {
	var t IndexTables
	var sampleIndex uint32
	for i, c := range chunks {
		perChunk := uint32(len(c.Samples))
		if n := len(t.SampleToChunk); n == 0 || t.SampleToChunk[n-1].SamplesPerChunk != perChunk {
			t.SampleToChunk = append(t.SampleToChunk, SampleToChunkEntry{
				FirstChunk:      uint32(i + 1),
				SamplesPerChunk: perChunk,
			})
		}

		offset := uint64(c.Offset)
		t.ChunkOffsets = append(t.ChunkOffsets, offset)
		if offset > math.MaxUint32 {
			t.LargeOffsets = true
		}

		for _, s := range c.Samples {
			delta := uint32(s.Duration)
			if n := len(t.TimeToSample); n == 0 || t.TimeToSample[n-1].Delta != delta {
				t.TimeToSample = append(t.TimeToSample, TimeToSampleEntry{Count: 1, Delta: delta})
			} else {
				t.TimeToSample[n-1].Count++
			}
			t.SampleSizes = append(t.SampleSizes, uint32(s.Length))
			if s.IsSync {
				t.SyncSamples = append(t.SyncSamples, sampleIndex)
			}
			sampleIndex++
		}
	}
	return t
}

func ChunksDuration(chunks []Chunk) int64 {
	var total int64
	for _, c := range chunks {
		total += c.Duration
	}
	return total
}

func MaxChunkOffset(chunks []Chunk) int64 {
	var max int64
	for _, c := range chunks {
		if c.Offset > max {
			max = c.Offset
		}
	}
	return max
}
