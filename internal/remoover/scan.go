package remoover

import (
	"errors"
	"fmt"
	"io"

	"github.com/nareix/joy4/utils/bits/pio"
	ol "github.com/ossrs/go-oryx-lib/logger"
)

const (
	probeSize              = 8
	progressEveryElements  = 2000
	maxParameterSetNALSize = 0xFFFF
	payloadBoxType         = "mdat"
)

// Top-level boxes the scanner steps over. mdat opens a payload region.
var topLevelBoxes = map[string]bool{
	"mdat": true,
	"ftyp": true,
	"pdin": true,
	"moov": true,
	"moof": true,
	"mfra": true,
	"free": true,
	"skip": true,
	"meta": true,
	"meco": true,
	"styp": true,
	"sidx": true,
	"ssix": true,
	"prft": true,
}

// ProgressFunc receives the scan position and the total source size.
type ProgressFunc func(scanned, total int64)

type ScanOptions struct {
	// DoubleRateAudio halves every ADTS frame duration (HE-AAC streams whose
	// headers carry the core sample rate).
	DoubleRateAudio bool
	Progress        ProgressFunc
}

type ScanResult struct {
	Elements []Element
	Regions  []Region
	Video    *VideoTrack
	// Audio stays nil until the first ADTS frame is seen.
	Audio *AudioTrack
}

type probeClass int

const (
	probeAudio probeClass = iota
	probePayloadBox
	probeBox
	probeVideo
)

// Checked in order; the first match wins and anything else is a
// length-prefixed NAL unit.
var probeRules = []struct {
	class probeClass
	match func(probe []byte) bool
}{
	{probeAudio, isADTSSync},
	{probePayloadBox, isPayloadBoxHeader},
	{probeBox, isTopLevelBoxHeader},
}

func classifyProbe(probe []byte) probeClass {
	for _, rule := range probeRules {
		if rule.match(probe) {
			return rule.class
		}
	}
	return probeVideo
}

func isPayloadBoxHeader(probe []byte) bool {
	return len(probe) >= probeSize && string(probe[4:8]) == payloadBoxType
}

func isTopLevelBoxHeader(probe []byte) bool {
	return len(probe) >= probeSize && topLevelBoxes[string(probe[4:8])]
}

func classifyNAL(header uint8) NALType {
	switch header & 0x1F {
	case 5:
		return NALIDR
	case 6:
		return NALSEI
	case 7:
		return NALSPS
	case 8:
		return NALPPS
	case 9:
		return NALDelimiter
	default:
		return NALOther
	}
}

type scanner struct {
	r          io.ReaderAt
	size       int64
	opts       ScanOptions
	res        *ScanResult
	open       int
	probe      [probeSize]byte
	warnedRate bool
}

// Scan walks the source from offset 0 to the end, classifying every element
// and recording payload regions. It makes one forward pass and holds all
// results in memory.
func Scan(r io.ReaderAt, size int64, opts ScanOptions) (*ScanResult, error) {
	s := &scanner{
		r:    r,
		size: size,
		opts: opts,
		open: -1,
		res: &ScanResult{
			Video: &VideoTrack{Timescale: DefaultTimescale},
		},
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.res, nil
}

func (s *scanner) run() error {
	var offset int64
	for iterations := 1; ; iterations++ {
		n, err := readFullAt(s.r, s.probe[:], offset)
		if err != nil {
			return fmt.Errorf("scan at offset %d: %w", offset, err)
		}
		if n < probeSize {
			s.closeRegion(offset)
			s.reportProgress(s.size)
			return nil
		}

		var next int64
		switch classifyProbe(s.probe[:]) {
		case probeAudio:
			next, err = s.scanADTS(offset)
		case probePayloadBox:
			next, err = s.scanPayloadBox(offset)
		case probeBox:
			next, err = s.scanBox(offset)
		default:
			next, err = s.scanNAL(offset)
		}
		if err != nil {
			return err
		}

		if iterations%progressEveryElements == 0 {
			s.reportProgress(offset)
		}
		if next > s.size {
			next = s.size
		}
		offset = next
	}
}

func (s *scanner) reportProgress(offset int64) {
	if s.opts.Progress != nil {
		s.opts.Progress(offset, s.size)
	}
}

func (s *scanner) openRegion(offset, headerLength int64) {
	s.closeRegion(offset)
	s.res.Regions = append(s.res.Regions, Region{Offset: offset, HeaderLength: headerLength})
	s.open = len(s.res.Regions) - 1
	ol.T(nil, fmt.Sprintf("payload region #%d opened at offset %d", s.open, offset))
}

func (s *scanner) closeRegion(offset int64) {
	if s.open < 0 {
		return
	}
	region := &s.res.Regions[s.open]
	region.Length = offset - region.Offset
	s.open = -1
}

// ensureRegion opens an implicit region for media found outside any mdat,
// e.g. a raw stream with no container structure at all.
func (s *scanner) ensureRegion(offset int64) int {
	if s.open < 0 {
		s.openRegion(offset, 0)
	}
	return s.open
}

// clampLength trims an element that runs past the end of the file.
func (s *scanner) clampLength(offset, length int64, what string) int64 {
	if offset+length <= s.size {
		return length
	}
	ol.W(nil, fmt.Sprintf("%s at offset %d declares %d bytes but only %d remain; truncating", what, offset, length, s.size-offset))
	return s.size - offset
}

func (s *scanner) scanADTS(offset int64) (int64, error) {
	header := parseADTSHeader(s.probe[:])
	if s.res.Audio == nil {
		s.res.Audio = newAudioTrack(header)
		ol.T(nil, fmt.Sprintf("audio: object type %d, %d Hz, %d channels",
			header.ObjectType, header.SampleRate, header.ChannelConfig))
	}
	audio := s.res.Audio
	if audio.SampleRate == 0 && !s.warnedRate {
		s.warnedRate = true
		ol.W(nil, fmt.Sprintf("audio sampling frequency index %d is reserved; frames get zero duration", audio.SamplingFrequencyIndex))
	}

	length := header.FrameLength
	if length < adtsHeaderLength {
		length = adtsHeaderLength
	}
	length = s.clampLength(offset, length, "adts frame")

	region := s.ensureRegion(offset)
	s.res.Elements = append(s.res.Elements, Element{
		Kind:     ElementAudio,
		Offset:   offset,
		Length:   length,
		Region:   region,
		Duration: adtsFrameDuration(audio.SampleRate, header.RawFrames, audio.Timescale, s.opts.DoubleRateAudio),
	})
	return offset + length, nil
}

func (s *scanner) scanPayloadBox(offset int64) (int64, error) {
	headerLength := int64(probeSize)
	if pio.U32BE(s.probe[0:4]) == 1 && offset+16 <= s.size {
		headerLength = 16
	}
	s.openRegion(offset, headerLength)
	s.res.Elements = append(s.res.Elements, Element{
		Kind:    ElementBox,
		Offset:  offset,
		Length:  headerLength,
		Region:  s.open,
		BoxType: payloadBoxType,
	})
	return offset + headerLength, nil
}

func (s *scanner) scanBox(offset int64) (int64, error) {
	s.closeRegion(offset)
	boxType := string(s.probe[4:8])
	length, err := s.boxLength(offset)
	if err != nil {
		return 0, err
	}
	length = s.clampLength(offset, length, boxType+" box")
	s.res.Elements = append(s.res.Elements, Element{
		Kind:    ElementBox,
		Offset:  offset,
		Length:  length,
		Region:  -1,
		BoxType: boxType,
	})
	return offset + length, nil
}

func (s *scanner) boxLength(offset int64) (int64, error) {
	size32 := int64(pio.U32BE(s.probe[0:4]))
	switch {
	case size32 == 0:
		return s.size - offset, nil
	case size32 == 1:
		var large [8]byte
		n, err := readFullAt(s.r, large[:], offset+probeSize)
		if err != nil {
			return 0, fmt.Errorf("read large box size at offset %d: %w", offset, err)
		}
		if n < len(large) {
			return s.size - offset, nil
		}
		size64 := pio.U64BE(large[:])
		if size64 < 16 || size64 > uint64(s.size-offset) {
			return s.size - offset, nil
		}
		return int64(size64), nil
	case size32 < probeSize:
		return probeSize, nil
	default:
		return size32, nil
	}
}

func (s *scanner) scanNAL(offset int64) (int64, error) {
	length := int64(pio.U32BE(s.probe[0:4])) + 4
	header := s.probe[4]
	nalType := classifyNAL(header)

	switch nalType {
	case NALSPS:
		if s.res.Video.SPS == nil {
			if err := s.latchSPS(offset, length); err != nil {
				return 0, err
			}
		}
	case NALPPS:
		if s.res.Video.PPS == nil {
			nal, err := s.readParameterSet(offset, length)
			if err != nil {
				return 0, err
			}
			if nal != nil {
				s.res.Video.PPS = nal
				ol.T(nil, fmt.Sprintf("video: picture parameter set (%d bytes) at offset %d", len(nal), offset))
			}
		}
	}

	length = s.clampLength(offset, length, "nal unit")
	region := s.ensureRegion(offset)
	s.res.Elements = append(s.res.Elements, Element{
		Kind:    ElementVideo,
		Offset:  offset,
		Length:  length,
		Region:  region,
		NALType: nalType,
		NALByte: header,
	})
	return offset + length, nil
}

func (s *scanner) latchSPS(offset, length int64) error {
	nal, err := s.readParameterSet(offset, length)
	if err != nil || nal == nil {
		return err
	}
	info, err := ParseSPS(nal[1:])
	if err != nil {
		ol.W(nil, fmt.Sprintf("ignoring sequence parameter set at offset %d: %v", offset, err))
		return nil
	}
	s.res.Video.SPS = nal
	s.res.Video.applySPS(info)
	ol.T(nil, fmt.Sprintf("video: profile %d level %d, %dx%d", info.ProfileIdc, info.LevelIdc, info.Width, info.Height))
	return nil
}

// readParameterSet returns the whole NAL unit (header byte included) that
// follows the 4-byte length prefix at offset, or nil when it cannot be a
// parameter set.
func (s *scanner) readParameterSet(offset, length int64) ([]byte, error) {
	nalLength := length - 4
	if avail := s.size - offset - 4; nalLength > avail {
		nalLength = avail
	}
	if nalLength < 2 || nalLength > maxParameterSetNALSize {
		ol.W(nil, fmt.Sprintf("ignoring parameter set of %d bytes at offset %d", nalLength, offset))
		return nil, nil
	}
	nal := make([]byte, nalLength)
	n, err := readFullAt(s.r, nal, offset+4)
	if err != nil {
		return nil, fmt.Errorf("read parameter set at offset %d: %w", offset, err)
	}
	if n < 2 {
		return nil, nil
	}
	return nal[:n], nil
}

// readFullAt reads up to len(buf) bytes; reaching the end of the source is
// not an error.
func readFullAt(r io.ReaderAt, buf []byte, offset int64) (int, error) {
	n, err := r.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, err
	}
	return n, nil
}
