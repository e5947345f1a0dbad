package remoover

// AssembleSamples turns classified elements into samples. ADTS frames map
// one to one. An access unit delimiter opens a new video sample and every
// following NAL unit is appended to it while it is the latest sample; NAL
// units with no open video sample are dropped and counted.
func AssembleSamples(elements []Element) (samples []Sample, dropped int) {
	samples = make([]Sample, 0, len(elements))
	for _, e := range elements {
		switch e.Kind {
		case ElementAudio:
			samples = append(samples, Sample{
				Kind:     TrackAudio,
				Offset:   e.Offset,
				Length:   e.Length,
				Region:   e.Region,
				Duration: e.Duration,
			})
		case ElementVideo:
			if e.NALType == NALDelimiter {
				samples = append(samples, Sample{
					Kind:   TrackVideo,
					Offset: e.Offset,
					Length: e.Length,
					Region: e.Region,
				})
				continue
			}
			if len(samples) == 0 || samples[len(samples)-1].Kind != TrackVideo {
				dropped++
				continue
			}
			last := &samples[len(samples)-1]
			last.Length += e.Length
			if e.NALType == NALIDR {
				last.IsSync = true
			}
		}
	}
	return samples, dropped
}
