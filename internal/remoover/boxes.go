package remoover

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/abema/go-mp4"
	"github.com/nareix/joy4/codec/aacparser"
)

const (
	videoTrackID = 1
	audioTrackID = 2

	// ISO 14496-1 object type indication and stream type for AAC.
	objectTypeIndicationAudioISO14496part3 = 0x40
	streamTypeAudioStream                  = 0x05
)

var unityMatrix = [9]int32{0x10000, 0, 0, 0, 0x10000, 0, 0, 0, 0x40000000}

type boxWriter struct {
	w *mp4.Writer
}

func newBoxWriter(w io.WriteSeeker) *boxWriter {
	return &boxWriter{w: mp4.NewWriter(w)}
}

func (w *boxWriter) writeBoxStart(box mp4.IImmutableBox) (int, error) {
	bi, err := w.w.StartBox(&mp4.BoxInfo{Type: box.GetType()})
	if err != nil {
		return 0, err
	}
	if _, err := mp4.Marshal(w.w, box, mp4.Context{}); err != nil {
		return 0, err
	}
	return int(bi.Offset), nil
}

func (w *boxWriter) writeBoxEnd() error {
	_, err := w.w.EndBox()
	return err
}

func (w *boxWriter) writeBox(box mp4.IImmutableBox) (int, error) {
	off, err := w.writeBoxStart(box)
	if err != nil {
		return 0, err
	}
	return off, w.writeBoxEnd()
}

func WriteFileType(w io.WriteSeeker) error {
	bw := newBoxWriter(w)
	_, err := bw.writeBox(&mp4.Ftyp{
		MajorBrand:   [4]byte{'i', 's', 'o', 'm'},
		MinorVersion: 512,
		CompatibleBrands: []mp4.CompatibleBrandElem{
			{CompatibleBrand: [4]byte{'i', 's', 'o', 'm'}},
			{CompatibleBrand: [4]byte{'i', 's', 'o', '2'}},
			{CompatibleBrand: [4]byte{'a', 'v', 'c', '1'}},
			{CompatibleBrand: [4]byte{'m', 'p', '4', '1'}},
		},
	})
	return err
}

func hasSamples(t *IndexTables) bool {
	return t != nil && t.SampleCount() > 0
}

// WriteMovie writes the moov box. A track with no samples is left out.
func WriteMovie(w io.WriteSeeker, video *VideoTrack, audio *AudioTrack) error {
	withVideo := video != nil && hasSamples(&video.Tables)
	withAudio := audio != nil && hasSamples(&audio.Tables)
	if !withVideo && !withAudio {
		return ErrNoSamples
	}
	if withVideo && (video.SPS == nil || video.PPS == nil) {
		return ErrMissingParameterSet
	}

	/*
		|moov|
		|    |mvhd|
		|    |trak| (video, audio)
	*/
	bw := newBoxWriter(w)
	if _, err := bw.writeBoxStart(&mp4.Moov{}); err != nil {
		return err
	}

	var movieDuration int64
	if withVideo {
		movieDuration = max(movieDuration, scaleDuration(video.Duration, video.Timescale))
	}
	if withAudio {
		movieDuration = max(movieDuration, scaleDuration(audio.Duration, audio.Timescale))
	}

	mvhd := &mp4.Mvhd{
		Timescale:   DefaultTimescale,
		Rate:        0x00010000,
		Volume:      0x0100,
		Matrix:      unityMatrix,
		NextTrackID: audioTrackID + 1,
	}
	if fitsUint32(movieDuration) {
		mvhd.DurationV0 = uint32(movieDuration)
	} else {
		mvhd.FullBox.Version = 1
		mvhd.DurationV1 = uint64(movieDuration)
	}
	if _, err := bw.writeBox(mvhd); err != nil {
		return err
	}

	if withVideo {
		if err := bw.writeVideoTrack(video); err != nil {
			return fmt.Errorf("video trak: %w", err)
		}
	}
	if withAudio {
		if err := bw.writeAudioTrack(audio); err != nil {
			return fmt.Errorf("audio trak: %w", err)
		}
	}
	return bw.writeBoxEnd() // </moov>
}

func (w *boxWriter) writeVideoTrack(t *VideoTrack) error {
	if _, err := w.writeBoxStart(&mp4.Trak{}); err != nil {
		return err
	}
	tkhd := newTkhd(videoTrackID, scaleDuration(t.Duration, t.Timescale))
	tkhd.Width = uint32(t.Width) << 16
	tkhd.Height = uint32(t.Height) << 16
	if _, err := w.writeBox(tkhd); err != nil {
		return err
	}

	if err := w.writeMediaStart(t.Timescale, t.Duration, [4]byte{'v', 'i', 'd', 'e'}, "VideoHandler"); err != nil {
		return err
	}
	if _, err := w.writeBox(&mp4.Vmhd{FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}}}); err != nil {
		return err
	}
	if err := w.writeDataInformation(); err != nil {
		return err
	}

	if _, err := w.writeBoxStart(&mp4.Stbl{}); err != nil {
		return err
	}
	if _, err := w.writeBoxStart(&mp4.Stsd{EntryCount: 1}); err != nil {
		return err
	}
	if _, err := w.writeBoxStart(&mp4.VisualSampleEntry{ // <avc1>
		SampleEntry: mp4.SampleEntry{
			AnyTypeBox:         mp4.AnyTypeBox{Type: mp4.BoxTypeAvc1()},
			DataReferenceIndex: 1,
		},
		Width:           uint16(t.Width),
		Height:          uint16(t.Height),
		Horizresolution: 4718592,
		Vertresolution:  4718592,
		FrameCount:      1,
		Depth:           24,
		PreDefined3:     -1,
	}); err != nil {
		return err
	}
	if _, err := w.writeBox(&mp4.AVCDecoderConfiguration{ // <avcC/>
		AnyTypeBox:                 mp4.AnyTypeBox{Type: mp4.BoxTypeAvcC()},
		ConfigurationVersion:       1,
		Profile:                    t.ProfileIdc,
		ProfileCompatibility:       t.ProfileCompatibility,
		Level:                      t.LevelIdc,
		LengthSizeMinusOne:         3,
		NumOfSequenceParameterSets: 1,
		SequenceParameterSets: []mp4.AVCParameterSet{
			{Length: uint16(len(t.SPS)), NALUnit: t.SPS},
		},
		NumOfPictureParameterSets: 1,
		PictureParameterSets: []mp4.AVCParameterSet{
			{Length: uint16(len(t.PPS)), NALUnit: t.PPS},
		},
	}); err != nil {
		return err
	}
	if err := w.writeBoxEnd(); err != nil { // </avc1>
		return err
	}
	if err := w.writeBoxEnd(); err != nil { // </stsd>
		return err
	}

	if err := w.writeSampleTables(&t.Tables, true); err != nil {
		return err
	}
	return w.writeTrackEnd()
}

func (w *boxWriter) writeAudioTrack(t *AudioTrack) error {
	if _, err := w.writeBoxStart(&mp4.Trak{}); err != nil {
		return err
	}
	tkhd := newTkhd(audioTrackID, scaleDuration(t.Duration, t.Timescale))
	tkhd.AlternateGroup = 1
	tkhd.Volume = 0x0100
	if _, err := w.writeBox(tkhd); err != nil {
		return err
	}

	if err := w.writeMediaStart(t.Timescale, t.Duration, [4]byte{'s', 'o', 'u', 'n'}, "SoundHandler"); err != nil {
		return err
	}
	if _, err := w.writeBox(&mp4.Smhd{}); err != nil {
		return err
	}
	if err := w.writeDataInformation(); err != nil {
		return err
	}

	if _, err := w.writeBoxStart(&mp4.Stbl{}); err != nil {
		return err
	}
	if _, err := w.writeBoxStart(&mp4.Stsd{EntryCount: 1}); err != nil {
		return err
	}
	if _, err := w.writeBoxStart(&mp4.AudioSampleEntry{ // <mp4a>
		SampleEntry: mp4.SampleEntry{
			AnyTypeBox:         mp4.AnyTypeBox{Type: mp4.BoxTypeMp4a()},
			DataReferenceIndex: 1,
		},
		ChannelCount: uint16(t.ChannelCount),
		SampleSize:   uint16(t.SampleSize),
		SampleRate:   uint32(t.SampleRate) << 16,
	}); err != nil {
		return err
	}

	asc, err := audioSpecificConfig(t)
	if err != nil {
		return err
	}
	bitrate := averageBitrate(&t.Tables, t.Duration, t.Timescale)
	if _, err := w.writeBox(&mp4.Esds{ // <esds/>
		Descriptors: []mp4.Descriptor{
			{
				Tag:          mp4.ESDescrTag,
				Size:         32 + uint32(len(asc)),
				ESDescriptor: &mp4.ESDescriptor{ESID: audioTrackID},
			},
			{
				Tag:  mp4.DecoderConfigDescrTag,
				Size: 18 + uint32(len(asc)),
				DecoderConfigDescriptor: &mp4.DecoderConfigDescriptor{
					ObjectTypeIndication: objectTypeIndicationAudioISO14496part3,
					StreamType:           streamTypeAudioStream,
					Reserved:             true,
					MaxBitrate:           bitrate,
					AvgBitrate:           bitrate,
				},
			},
			{
				Tag:  mp4.DecSpecificInfoTag,
				Size: uint32(len(asc)),
				Data: asc,
			},
			{
				Tag:  mp4.SLConfigDescrTag,
				Size: 1,
				Data: []byte{0x02},
			},
		},
	}); err != nil {
		return err
	}
	if err := w.writeBoxEnd(); err != nil { // </mp4a>
		return err
	}
	if err := w.writeBoxEnd(); err != nil { // </stsd>
		return err
	}

	if err := w.writeSampleTables(&t.Tables, false); err != nil {
		return err
	}
	return w.writeTrackEnd()
}

func newTkhd(trackID uint32, duration int64) *mp4.Tkhd {
	tkhd := &mp4.Tkhd{
		FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 3}},
		TrackID: trackID,
		Matrix:  unityMatrix,
	}
	if fitsUint32(duration) {
		tkhd.DurationV0 = uint32(duration)
	} else {
		tkhd.FullBox.Version = 1
		tkhd.DurationV1 = uint64(duration)
	}
	return tkhd
}

// writeMediaStart opens mdia, writes mdhd and hdlr, and opens minf.
func (w *boxWriter) writeMediaStart(timescale uint32, duration int64, handler [4]byte, name string) error {
	if _, err := w.writeBoxStart(&mp4.Mdia{}); err != nil {
		return err
	}
	mdhd := &mp4.Mdhd{
		Timescale: timescale,
		Language:  [3]byte{'u', 'n', 'd'},
	}
	if fitsUint32(duration) {
		mdhd.DurationV0 = uint32(duration)
	} else {
		mdhd.FullBox.Version = 1
		mdhd.DurationV1 = uint64(duration)
	}
	if _, err := w.writeBox(mdhd); err != nil {
		return err
	}
	if _, err := w.writeBox(&mp4.Hdlr{HandlerType: handler, Name: name}); err != nil {
		return err
	}
	_, err := w.writeBoxStart(&mp4.Minf{})
	return err
}

func (w *boxWriter) writeDataInformation() error {
	if _, err := w.writeBoxStart(&mp4.Dinf{}); err != nil {
		return err
	}
	if _, err := w.writeBoxStart(&mp4.Dref{EntryCount: 1}); err != nil {
		return err
	}
	if _, err := w.writeBox(&mp4.Url{FullBox: mp4.FullBox{Flags: [3]byte{0, 0, 1}}}); err != nil {
		return err
	}
	if err := w.writeBoxEnd(); err != nil { // </dref>
		return err
	}
	return w.writeBoxEnd() // </dinf>
}

// writeTrackEnd closes stbl, minf, mdia and trak.
func (w *boxWriter) writeTrackEnd() error {
	for i := 0; i < 4; i++ {
		if err := w.writeBoxEnd(); err != nil {
			return err
		}
	}
	return nil
}

func (w *boxWriter) writeSampleTables(t *IndexTables, withSync bool) error {
	stts := make([]mp4.SttsEntry, len(t.TimeToSample))
	for i, e := range t.TimeToSample {
		stts[i] = mp4.SttsEntry{SampleCount: e.Count, SampleDelta: e.Delta}
	}
	if _, err := w.writeBox(&mp4.Stts{EntryCount: uint32(len(stts)), Entries: stts}); err != nil {
		return err
	}

	if withSync {
		numbers := make([]uint32, len(t.SyncSamples))
		for i, idx := range t.SyncSamples {
			numbers[i] = idx + 1
		}
		if _, err := w.writeBox(&mp4.Stss{EntryCount: uint32(len(numbers)), SampleNumber: numbers}); err != nil {
			return err
		}
	}

	stsc := make([]mp4.StscEntry, len(t.SampleToChunk))
	for i, e := range t.SampleToChunk {
		stsc[i] = mp4.StscEntry{
			FirstChunk:             e.FirstChunk,
			SamplesPerChunk:        e.SamplesPerChunk,
			SampleDescriptionIndex: 1,
		}
	}
	if _, err := w.writeBox(&mp4.Stsc{EntryCount: uint32(len(stsc)), Entries: stsc}); err != nil {
		return err
	}

	if _, err := w.writeBox(&mp4.Stsz{
		SampleCount: uint32(len(t.SampleSizes)),
		EntrySize:   t.SampleSizes,
	}); err != nil {
		return err
	}

	if t.LargeOffsets {
		_, err := w.writeBox(&mp4.Co64{EntryCount: uint32(len(t.ChunkOffsets)), ChunkOffset: t.ChunkOffsets})
		return err
	}
	offsets := make([]uint32, len(t.ChunkOffsets))
	for i, off := range t.ChunkOffsets {
		offsets[i] = uint32(off)
	}
	_, err := w.writeBox(&mp4.Stco{EntryCount: uint32(len(offsets)), ChunkOffset: offsets})
	return err
}

func audioSpecificConfig(t *AudioTrack) ([]byte, error) {
	var buf bytes.Buffer
	err := aacparser.WriteMPEG4AudioConfig(&buf, aacparser.MPEG4AudioConfig{
		SampleRate:      t.SampleRate,
		ObjectType:      uint(t.AudioObjectType),
		SampleRateIndex: uint(t.SamplingFrequencyIndex),
		ChannelConfig:   uint(t.ChannelCount),
	})
	if err != nil {
		return nil, fmt.Errorf("audio specific config: %w", err)
	}
	return buf.Bytes(), nil
}

func averageBitrate(t *IndexTables, duration int64, timescale uint32) uint32 {
	if duration <= 0 || timescale == 0 {
		return 0
	}
	var total uint64
	for _, size := range t.SampleSizes {
		total += uint64(size)
	}
	bps := float64(total) * 8 * float64(timescale) / float64(duration)
	if bps > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(bps)
}

// scaleDuration converts a track duration to the movie timescale.
func scaleDuration(duration int64, timescale uint32) int64 {
	if timescale == 0 || timescale == DefaultTimescale {
		return duration
	}
	return duration * DefaultTimescale / int64(timescale)
}

func fitsUint32(v int64) bool {
	return v >= 0 && v <= math.MaxUint32
}
