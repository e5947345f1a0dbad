package remoover

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

type bitWriter struct {
	buf   []byte
	nbits int
}

func (w *bitWriter) writeBits(value uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.nbits%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if (value>>uint(i))&1 == 1 {
			w.buf[len(w.buf)-1] |= 1 << (7 - uint(w.nbits%8))
		}
		w.nbits++
	}
}

func (w *bitWriter) writeUE(v uint32) {
	code := uint64(v) + 1
	length := 0
	for tmp := code; tmp > 1; tmp >>= 1 {
		length++
	}
	w.writeBits(0, length)
	w.writeBits(code, length+1)
}

func (w *bitWriter) writeSE(v int32) {
	if v > 0 {
		w.writeUE(uint32(2*v - 1))
		return
	}
	w.writeUE(uint32(-2 * v))
}

// trailing appends rbsp_stop_one_bit and zero alignment.
func (w *bitWriter) trailing() []byte {
	w.writeBits(1, 1)
	for w.nbits%8 != 0 {
		w.writeBits(0, 1)
	}
	return w.buf
}

type spsFields struct {
	profile, compat, level uint8
	chromaFormat           uint32
	pocType                uint32
	widthMbsMinus1         uint32
	heightMapUnitsMinus1   uint32
	frameMbsOnly           bool
	crop                   [4]uint32
	withCrop               bool
	sarIdc                 uint8
	sar                    [2]uint16
}

// buildSPS returns a sequence parameter set NAL unit, header byte included.
func buildSPS(f spsFields) []byte {
	w := &bitWriter{}
	w.writeBits(0x67, 8)
	w.writeBits(uint64(f.profile), 8)
	w.writeBits(uint64(f.compat), 8)
	w.writeBits(uint64(f.level), 8)
	w.writeUE(0) // seq_parameter_set_id
	if hasExtendedSPSFields(f.profile) {
		w.writeUE(f.chromaFormat)
		if f.chromaFormat == 3 {
			w.writeBits(0, 1)
		}
		w.writeUE(0)
		w.writeUE(0)
		w.writeBits(0, 1)
		w.writeBits(0, 1) // seq_scaling_matrix_present_flag
	}
	w.writeUE(0) // log2_max_frame_num_minus4
	w.writeUE(f.pocType)
	switch f.pocType {
	case 0:
		w.writeUE(2)
	case 1:
		w.writeBits(0, 1)
		w.writeSE(-1)
		w.writeSE(2)
		w.writeUE(2)
		w.writeSE(3)
		w.writeSE(-4)
	}
	w.writeUE(1)      // max_num_ref_frames
	w.writeBits(0, 1) // gaps_in_frame_num_value_allowed_flag
	w.writeUE(f.widthMbsMinus1)
	w.writeUE(f.heightMapUnitsMinus1)
	if f.frameMbsOnly {
		w.writeBits(1, 1)
	} else {
		w.writeBits(0, 1)
		w.writeBits(0, 1)
	}
	w.writeBits(1, 1) // direct_8x8_inference_flag
	if f.withCrop {
		w.writeBits(1, 1)
		for _, c := range f.crop {
			w.writeUE(c)
		}
	} else {
		w.writeBits(0, 1)
	}
	if f.sarIdc != 0 {
		w.writeBits(1, 1) // vui_parameters_present_flag
		w.writeBits(1, 1) // aspect_ratio_info_present_flag
		w.writeBits(uint64(f.sarIdc), 8)
		if f.sarIdc == aspectRatioExtendedSAR {
			w.writeBits(uint64(f.sar[0]), 16)
			w.writeBits(uint64(f.sar[1]), 16)
		}
		w.writeBits(0, 1) // overscan_info_present_flag
		w.writeBits(0, 1) // video_signal_type_present_flag
		w.writeBits(0, 1) // chroma_loc_info_present_flag
		w.writeBits(0, 1) // timing_info_present_flag
		w.writeBits(0, 1) // nal_hrd_parameters_present_flag
		w.writeBits(0, 1) // vcl_hrd_parameters_present_flag
		w.writeBits(0, 1) // pic_struct_present_flag
		w.writeBits(0, 1) // bitstream_restriction_flag
	} else {
		w.writeBits(0, 1)
	}
	return w.trailing()
}

// qvgaSPS describes a 320x240 baseline stream.
var qvgaSPS = spsFields{
	profile:              66,
	compat:               0xC0,
	level:                30,
	pocType:              2,
	widthMbsMinus1:       19,
	heightMapUnitsMinus1: 14,
	frameMbsOnly:         true,
}

var testPPS = []byte{0x68, 0xCE, 0x3C, 0x80}

// lengthPrefixed wraps a NAL unit in a 4-byte big-endian length.
func lengthPrefixed(nal []byte) []byte {
	out := make([]byte, 4+len(nal))
	binary.BigEndian.PutUint32(out, uint32(len(nal)))
	copy(out[4:], nal)
	return out
}

func accessUnitDelimiter() []byte {
	return lengthPrefixed([]byte{0x09, 0xF0})
}

func sliceNAL(header byte, size int) []byte {
	nal := make([]byte, size)
	nal[0] = header
	for i := 1; i < size; i++ {
		nal[i] = byte(0x80 | i)
	}
	return lengthPrefixed(nal)
}

// adtsFrame returns an ADTS frame without CRC carrying payload bytes.
func adtsFrame(profile, sfi, channels uint8, payload int) []byte {
	length := adtsHeaderLength + payload
	f := make([]byte, length)
	f[0] = 0xFF
	f[1] = 0xF1
	f[2] = (profile&0x03)<<6 | (sfi&0x0F)<<2 | (channels>>2)&0x01
	f[3] = (channels&0x03)<<6 | byte(length>>11)&0x03
	f[4] = byte(length >> 3)
	f[5] = byte(length&0x07)<<5 | 0x1F
	f[6] = 0xFC
	for i := adtsHeaderLength; i < length; i++ {
		f[i] = 0x21
	}
	return f
}

func box(boxType string, payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(out)))
	copy(out[4:8], boxType)
	copy(out[8:], payload)
	return out
}

func ftypBox() []byte {
	return box("ftyp", []byte("isom\x00\x00\x02\x00isomavc1"))
}

// sampleStream is the payload used by the end-to-end tests: two AAC frames,
// then [delimiter, SPS, PPS, slice] and [delimiter, IDR slice].
func sampleStream() []byte {
	var buf bytes.Buffer
	buf.Write(adtsFrame(1, 4, 2, 10))
	buf.Write(adtsFrame(1, 4, 2, 10))
	buf.Write(accessUnitDelimiter())
	buf.Write(lengthPrefixed(buildSPS(qvgaSPS)))
	buf.Write(lengthPrefixed(testPPS))
	buf.Write(sliceNAL(0x41, 24))
	buf.Write(accessUnitDelimiter())
	buf.Write(sliceNAL(0x65, 32))
	return buf.Bytes()
}

// brokenMP4 is an ftyp followed by an mdat holding sampleStream and no moov.
func brokenMP4() []byte {
	var buf bytes.Buffer
	buf.Write(ftypBox())
	buf.Write(box("mdat", sampleStream()))
	return buf.Bytes()
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
