package remoover

import "math"

const (
	adtsHeaderLength = 7
	adtsFrameSamples = 1024
)

var adtsSampleRates = [16]int{
	96000, 88200, 64000, 48000, 44100, 32000,
	24000, 22050, 16000, 12000, 11025, 8000, 7350,
	// 13-15 reserved
}

type adtsHeader struct {
	ObjectType             uint8
	SamplingFrequencyIndex uint8
	SampleRate             int
	ChannelConfig          uint8
	FrameLength            int64
	RawFrames              int
}

// isADTSSync matches the 12-bit ADTS syncword followed by MPEG-4, layer 0,
// with either value of protection_absent.
func isADTSSync(probe []byte) bool {
	return len(probe) >= 2 && probe[0] == 0xFF && (probe[1] == 0xF1 || probe[1] == 0xF0)
}

func parseADTSHeader(probe []byte) adtsHeader {
	sfi := (probe[2] >> 2) & 0x0F
	return adtsHeader{
		ObjectType:             ((probe[2] >> 6) & 0x03) + 1,
		SamplingFrequencyIndex: sfi,
		SampleRate:             adtsSampleRates[sfi],
		ChannelConfig:          ((probe[2] & 0x01) << 2) | ((probe[3] & 0xC0) >> 6),
		FrameLength:            int64(probe[3]&0x03)<<11 | int64(probe[4])<<3 | int64(probe[5]&0xE0)>>5,
		RawFrames:              int(probe[6]&0x03) + 1,
	}
}

// adtsFrameDuration returns the frame duration in timescale ticks. The
// double-rate correction halves it for streams whose header advertises the
// core sample rate only.
func adtsFrameDuration(sampleRate, rawFrames int, timescale uint32, doubleRate bool) int64 {
	if sampleRate <= 0 {
		return 0
	}
	div := 1.0
	if doubleRate {
		div = 2
	}
	return int64(math.Round(adtsFrameSamples / float64(sampleRate) * float64(rawFrames) * float64(timescale) / div))
}
