package remoover

import "fmt"

type SPSInfo struct {
	ProfileIdc           uint8
	LevelIdc             uint8
	ProfileCompatibility uint8
	Width                int
	Height               int
}

var sarTable = [...][2]uint32{
	1:  {1, 1},
	2:  {12, 11},
	3:  {10, 11},
	4:  {16, 11},
	5:  {40, 33},
	6:  {24, 11},
	7:  {20, 11},
	8:  {32, 11},
	9:  {80, 33},
	10: {18, 11},
	11: {15, 11},
	12: {64, 33},
	13: {160, 99},
	14: {4, 3},
	15: {3, 2},
	16: {2, 1},
}

const aspectRatioExtendedSAR = 255

// ParseSPS decodes the fields of a sequence parameter set needed to describe
// the track. payload starts at profile_idc, i.e. after the one-byte NAL
// header. Emulation-prevention bytes are not removed.
func ParseSPS(payload []byte) (SPSInfo, error) {
	br := NewBitReader(payload)
	info := SPSInfo{}
	info.ProfileIdc = br.ReadUnsignedByte()
	info.ProfileCompatibility = br.ReadUnsignedByte()
	info.LevelIdc = br.ReadUnsignedByte()
	br.SkipUnsignedExpGolomb() // seq_parameter_set_id

	if hasExtendedSPSFields(info.ProfileIdc) {
		chromaFormat := br.ReadUnsignedExpGolomb()
		if chromaFormat == 3 {
			br.SkipBits(1) // separate_colour_plane_flag
		}
		br.SkipUnsignedExpGolomb() // bit_depth_luma_minus8
		br.SkipUnsignedExpGolomb() // bit_depth_chroma_minus8
		br.SkipBits(1)             // qpprime_y_zero_transform_bypass_flag
		if br.ReadBoolean() {
			lists := 8
			if chromaFormat == 3 {
				lists = 12
			}
			for i := 0; i < lists; i++ {
				if !br.ReadBoolean() {
					continue
				}
				if i < 6 {
					skipScalingList(br, 16)
				} else {
					skipScalingList(br, 64)
				}
			}
		}
	}

	br.SkipUnsignedExpGolomb() // log2_max_frame_num_minus4
	switch br.ReadUnsignedExpGolomb() {
	case 0:
		br.SkipUnsignedExpGolomb() // log2_max_pic_order_cnt_lsb_minus4
	case 1:
		br.SkipBits(1)     // delta_pic_order_always_zero_flag
		br.SkipExpGolomb() // offset_for_non_ref_pic
		br.SkipExpGolomb() // offset_for_top_to_bottom_field
		cycle := br.ReadUnsignedExpGolomb()
		for i := uint32(0); i < cycle && br.Err() == nil; i++ {
			br.SkipExpGolomb()
		}
	}

	br.SkipUnsignedExpGolomb() // max_num_ref_frames
	br.SkipBits(1)             // gaps_in_frame_num_value_allowed_flag
	widthInMbsMinus1 := int64(br.ReadUnsignedExpGolomb())
	heightInMapUnitsMinus1 := int64(br.ReadUnsignedExpGolomb())
	frameMbsOnly := int64(br.ReadBits(1))
	if frameMbsOnly == 0 {
		br.SkipBits(1) // mb_adaptive_frame_field_flag
	}
	br.SkipBits(1) // direct_8x8_inference_flag

	var cropLeft, cropRight, cropTop, cropBottom int64
	if br.ReadBoolean() {
		cropLeft = int64(br.ReadUnsignedExpGolomb())
		cropRight = int64(br.ReadUnsignedExpGolomb())
		cropTop = int64(br.ReadUnsignedExpGolomb())
		cropBottom = int64(br.ReadUnsignedExpGolomb())
	}

	sarNum, sarDen := uint32(1), uint32(1)
	if br.ReadBoolean() && br.ReadBoolean() { // vui_parameters_present_flag, aspect_ratio_info_present_flag
		idc := br.ReadUnsignedByte()
		var num, den uint32
		switch {
		case idc == aspectRatioExtendedSAR:
			num = br.ReadBits(16)
			den = br.ReadBits(16)
		case int(idc) < len(sarTable):
			num, den = sarTable[idc][0], sarTable[idc][1]
		}
		if num != 0 && den != 0 {
			sarNum, sarDen = num, den
		}
	}

	if err := br.Err(); err != nil {
		return SPSInfo{}, fmt.Errorf("parse sps: %w", err)
	}

	codedWidth := (widthInMbsMinus1+1)*16 - cropLeft*2 - cropRight*2
	info.Width = int(ceilDiv(codedWidth*int64(sarNum), int64(sarDen)))
	info.Height = int((2-frameMbsOnly)*(heightInMapUnitsMinus1+1)*16 - cropTop*2 - cropBottom*2)
	return info, nil
}

// ceilDiv rounds a/b up for positive a; b must be positive.
func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return a / b
	}
	return (a + b - 1) / b
}

func hasExtendedSPSFields(profileIdc uint8) bool {
	switch profileIdc {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134, 135, 144:
		return true
	default:
		return false
	}
}

func skipScalingList(br *BitReader, size int) {
	last := int32(8)
	next := int32(8)
	for i := 0; i < size; i++ {
		if next != 0 {
			next = (last + br.ReadExpGolomb() + 256) % 256
		}
		if next != 0 {
			last = next
		}
	}
}
