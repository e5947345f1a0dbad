package remoover

const (
	// DefaultTimescale is used for both tracks and the movie header.
	DefaultTimescale = 100000
	audioSampleSize  = 16
)

type ElementKind string

const (
	ElementBox   ElementKind = "box"
	ElementAudio ElementKind = "adts"
	ElementVideo ElementKind = "nal"
)

type NALType string

const (
	NALDelimiter NALType = "access_unit_delimiter_rbsp"
	NALSPS       NALType = "seq_parameter_set_rbsp"
	NALPPS       NALType = "pic_parameter_set_rbsp"
	NALIDR       NALType = "slice_layer_without_partitioning_rbsp_idr"
	NALSEI       NALType = "sei_rbsp"
	NALOther     NALType = "other"
)

// Element is one classified run of bytes from the source file.
type Element struct {
	Kind   ElementKind `json:"type"`
	Offset int64       `json:"offset"`
	Length int64       `json:"length"`
	// Region is -1 for box elements that close a region without opening one.
	Region   int     `json:"mdatIndex"`
	Duration int64   `json:"duration,omitempty"`
	NALType  NALType `json:"nalUnitType,omitempty"`
	NALByte  uint8   `json:"nalHeader,omitempty"`
	BoxType  string  `json:"boxType,omitempty"`
}

// Region is one contiguous run of media payload in the source.
// HeaderLength is the size of the source mdat header at Offset, or zero
// when the region was opened on raw elements.
type Region struct {
	Offset          int64 `json:"offset"`
	Length          int64 `json:"length"`
	HeaderLength    int64 `json:"headerLength"`
	RelocatedOffset int64 `json:"newOffset"`
	Shift           int64 `json:"shift"`
}

func (r Region) PayloadOffset() int64 {
	return r.Offset + r.HeaderLength
}

func (r Region) PayloadLength() int64 {
	return r.Length - r.HeaderLength
}

type TrackKind string

const (
	TrackVideo TrackKind = "video"
	TrackAudio TrackKind = "audio"
)

type Sample struct {
	Kind     TrackKind `json:"type"`
	Offset   int64     `json:"offset"`
	Length   int64     `json:"length"`
	Region   int       `json:"mdatIndex"`
	Duration int64     `json:"duration"`
	IsSync   bool      `json:"isSync,omitempty"`
}

type Chunk struct {
	Kind     TrackKind `json:"type"`
	Offset   int64     `json:"offset"`
	Length   int64     `json:"length"`
	Duration int64     `json:"duration"`
	Region   int       `json:"mdatIndex"`
	Samples  []Sample  `json:"samples"`
}

type TimeToSampleEntry struct {
	Count uint32 `json:"sampleCount"`
	Delta uint32 `json:"sampleDelta"`
}

type SampleToChunkEntry struct {
	FirstChunk      uint32 `json:"firstChunk"`
	SamplesPerChunk uint32 `json:"samplesPerChunk"`
}

type IndexTables struct {
	TimeToSample  []TimeToSampleEntry  `json:"stts"`
	SampleToChunk []SampleToChunkEntry `json:"stsc"`
	SampleSizes   []uint32             `json:"stsz"`
	ChunkOffsets  []uint64             `json:"stco"`
	LargeOffsets  bool                 `json:"co64"`
	// SyncSamples holds 0-based sample indices; video only.
	SyncSamples []uint32 `json:"stss,omitempty"`
}

func (t IndexTables) SampleCount() int {
	return len(t.SampleSizes)
}

type VideoTrack struct {
	Timescale uint32 `json:"timescale"`
	// SPS and PPS are complete NAL units, header byte included.
	SPS                  []byte      `json:"sps"`
	PPS                  []byte      `json:"pps"`
	ProfileIdc           uint8       `json:"profileIdc"`
	LevelIdc             uint8       `json:"levelIdc"`
	ProfileCompatibility uint8       `json:"profileCompatibility"`
	Width                int         `json:"width"`
	Height               int         `json:"height"`
	Duration             int64       `json:"duration"`
	Tables               IndexTables `json:"tables"`
}

func (t *VideoTrack) applySPS(info SPSInfo) {
	t.ProfileIdc = info.ProfileIdc
	t.LevelIdc = info.LevelIdc
	t.ProfileCompatibility = info.ProfileCompatibility
	t.Width = info.Width
	t.Height = info.Height
}

type AudioTrack struct {
	Timescale              uint32      `json:"timescale"`
	SampleCountPerFrame    int         `json:"sampleCount"`
	AudioObjectType        uint8       `json:"audioobjecttype"`
	ChannelCount           uint8       `json:"channelcount"`
	SampleRate             int         `json:"samplerate"`
	SamplingFrequencyIndex uint8       `json:"samplingfrequencyindex"`
	SampleSize             int         `json:"samplesize"`
	Duration               int64       `json:"duration"`
	Tables                 IndexTables `json:"tables"`
}

func newAudioTrack(h adtsHeader) *AudioTrack {
	return &AudioTrack{
		Timescale:              DefaultTimescale,
		SampleCountPerFrame:    h.RawFrames * adtsFrameSamples,
		AudioObjectType:        h.ObjectType,
		ChannelCount:           h.ChannelConfig,
		SampleRate:             h.SampleRate,
		SamplingFrequencyIndex: h.SamplingFrequencyIndex,
		SampleSize:             audioSampleSize,
	}
}
