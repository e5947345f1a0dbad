package remoover

import (
	"fmt"
	"io"
	"math"

	"github.com/nareix/joy4/utils/bits/pio"
	ol "github.com/ossrs/go-oryx-lib/logger"
)

const (
	boxHeaderLength      = 8
	largeBoxHeaderLength = 16
)

// payloadBoxHeader returns a fresh mdat header for a payload of the given
// size, switching to the 64-bit large size form when needed.
func payloadBoxHeader(payload int64) []byte {
	if payload+boxHeaderLength <= math.MaxUint32 {
		b := make([]byte, boxHeaderLength)
		pio.PutU32BE(b[0:4], uint32(payload+boxHeaderLength))
		copy(b[4:8], payloadBoxType)
		return b
	}
	b := make([]byte, largeBoxHeaderLength)
	pio.PutU32BE(b[0:4], 1)
	copy(b[4:8], payloadBoxType)
	pio.PutU64BE(b[8:16], uint64(payload+largeBoxHeaderLength))
	return b
}

// WriteRegions copies every region's payload to dst starting at offset, each
// behind a new mdat header, and records where it landed. It returns the
// offset just past the last region.
func WriteRegions(dst io.WriterAt, src io.ReaderAt, srcSize int64, regions []Region, offset int64) (int64, error) {
	for i := range regions {
		r := &regions[i]
		payload := r.PayloadLength()
		if payload < 0 {
			payload = 0
		}
		header := payloadBoxHeader(payload)
		if _, err := dst.WriteAt(header, offset); err != nil {
			return offset, fmt.Errorf("write mdat header for region #%d: %w", i, err)
		}
		r.RelocatedOffset = offset
		payloadStart := offset + int64(len(header))
		r.Shift = payloadStart - r.PayloadOffset()

		n, err := CopyRange(dst, src, srcSize, r.PayloadOffset(), payload, payloadStart)
		if err != nil {
			return offset, fmt.Errorf("copy region #%d: %w", i, err)
		}
		if n != payload {
			return offset, fmt.Errorf("%w: region #%d copied %d of %d bytes", ErrShortCopy, i, n, payload)
		}
		ol.T(nil, fmt.Sprintf("region #%d: %d bytes from offset %d to %d", i, payload, r.Offset, r.RelocatedOffset))
		offset = payloadStart + n
	}
	return offset, nil
}

// RegionShifts returns the signed offset delta of every region, indexed by
// region number.
func RegionShifts(regions []Region) []int64 {
	shifts := make([]int64, len(regions))
	for i, r := range regions {
		shifts[i] = r.Shift
	}
	return shifts
}
