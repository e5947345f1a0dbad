package remoover

import "fmt"

// BitReader reads MSB-first bit fields and Exp-Golomb codes from a fixed
// buffer. The first read past the end of the buffer latches
// ErrBitReaderOutOfRange; every later read returns zero and Err keeps
// reporting the first failure.
type BitReader struct {
	data []byte
	pos  int
	bit  uint8
	err  error
}

func NewBitReader(data []byte) *BitReader {
	return &BitReader{data: data}
}

func (br *BitReader) Err() error {
	return br.err
}

// BitsLeft reports how many unread bits remain.
func (br *BitReader) BitsLeft() int {
	if br.pos >= len(br.data) {
		return 0
	}
	return (len(br.data)-br.pos)*8 - int(br.bit)
}

func (br *BitReader) fail(err error) {
	if br.err == nil {
		br.err = err
	}
}

func (br *BitReader) ReadBit() uint32 {
	if br.err != nil {
		return 0
	}
	if br.pos >= len(br.data) {
		br.fail(fmt.Errorf("%w: read at byte %d of %d", ErrBitReaderOutOfRange, br.pos, len(br.data)))
		return 0
	}
	bit := (br.data[br.pos] >> (7 - br.bit)) & 1
	br.bit++
	if br.bit == 8 {
		br.bit = 0
		br.pos++
	}
	return uint32(bit)
}

// ReadBits reads n (<= 32) bits.
func (br *BitReader) ReadBits(n int) uint32 {
	if n < 0 || n > 32 {
		br.fail(fmt.Errorf("%w: cannot read %d bits at once", ErrBitReaderOutOfRange, n))
		return 0
	}
	if n > br.BitsLeft() {
		br.fail(fmt.Errorf("%w: need %d bits, %d left", ErrBitReaderOutOfRange, n, br.BitsLeft()))
		return 0
	}
	var value uint32
	for i := 0; i < n; i++ {
		value = (value << 1) | br.ReadBit()
	}
	return value
}

func (br *BitReader) SkipBits(n int) {
	for n > 32 {
		br.ReadBits(32)
		n -= 32
	}
	br.ReadBits(n)
}

func (br *BitReader) ReadBoolean() bool {
	return br.ReadBits(1) != 0
}

// ReadUnsignedByte reads the next 8 bits. The three leading SPS fields sit
// on byte boundaries; aspect_ratio_idc does not, so no alignment is forced.
func (br *BitReader) ReadUnsignedByte() uint8 {
	return uint8(br.ReadBits(8))
}

func (br *BitReader) ReadUnsignedExpGolomb() uint32 {
	zeros := 0
	for br.err == nil && br.ReadBit() == 0 {
		zeros++
		if zeros > 31 {
			br.fail(fmt.Errorf("%w: exp-golomb prefix longer than 31 bits", ErrBitReaderOutOfRange))
		}
	}
	if br.err != nil {
		return 0
	}
	if zeros == 0 {
		return 0
	}
	suffix := br.ReadBits(zeros)
	return uint32((uint64(1)<<zeros)-1) + suffix
}

// ReadExpGolomb maps codeNum k to (k+1)/2 for odd k and -(k/2) for even k.
func (br *BitReader) ReadExpGolomb() int32 {
	k := br.ReadUnsignedExpGolomb()
	if k&1 == 1 {
		return int32((int64(k) + 1) / 2)
	}
	return -int32(k / 2)
}

func (br *BitReader) SkipUnsignedExpGolomb() {
	_ = br.ReadUnsignedExpGolomb()
}

func (br *BitReader) SkipExpGolomb() {
	_ = br.ReadExpGolomb()
}
