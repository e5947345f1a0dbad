package remoover

import (
	"fmt"
	"io"
)

// copyBlockSize is a common sector and cluster size.
const copyBlockSize = 4096

// CopyRange copies length bytes from src at srcOffset to dst at dstOffset in
// blocks of at most copyBlockSize. The first block is shortened so that the
// following reads start on a block-aligned source offset. The range is
// clamped to srcSize. It returns the number of bytes written.
func CopyRange(dst io.WriterAt, src io.ReaderAt, srcSize, srcOffset, length, dstOffset int64) (int64, error) {
	remaining := min(length, srcSize-srcOffset)
	if remaining <= 0 {
		return 0, nil
	}

	buf := make([]byte, copyBlockSize)
	var written int64
	block := int64(copyBlockSize)
	if rem := srcOffset % copyBlockSize; rem != 0 {
		block = copyBlockSize - rem
	}
	for remaining > 0 {
		block = min(block, remaining)
		n, err := readFullAt(src, buf[:block], srcOffset)
		if err != nil {
			return written, fmt.Errorf("read %d bytes at %d: %w", block, srcOffset, err)
		}
		if n == 0 {
			break
		}
		m, err := dst.WriteAt(buf[:n], dstOffset)
		written += int64(m)
		if err != nil {
			return written, fmt.Errorf("write %d bytes at %d: %w", n, dstOffset, err)
		}
		srcOffset += int64(n)
		dstOffset += int64(n)
		remaining -= int64(n)
		block = copyBlockSize
	}
	return written, nil
}
