package bmp

import "errors"

// A FormatError reports that the input is not a valid BMP file.
type FormatError string

func (e FormatError) Error() string { return "bmp: invalid format: " + string(e) }

// An UnsupportedError reports that the input uses a valid but unimplemented
// BMP feature.
type UnsupportedError string

func (e UnsupportedError) Error() string { return "bmp: unsupported feature: " + string(e) }

var (
	// ErrInvalidDimensions width must be positive and height non-zero
	ErrInvalidDimensions = errors.New("bmp: invalid dimensions")
	// ErrPixelBufferSize pixel buffer does not match width, height and bit count
	ErrPixelBufferSize = errors.New("bmp: pixel buffer size mismatch")
	// ErrOutOfBounds pixel coordinates outside of the image
	ErrOutOfBounds = errors.New("bmp: pixel out of bounds")
)
