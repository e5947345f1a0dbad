package remoover

import "errors"

var (
	ErrInvalidSource       = errors.New("invalid source")
	ErrBitReaderOutOfRange = errors.New("bit reader out of range")
	ErrMissingParameterSet = errors.New("no decodable sequence/picture parameter set found")
	ErrNoSamples           = errors.New("no audio or video samples found")
	ErrShortCopy           = errors.New("short copy")
)
