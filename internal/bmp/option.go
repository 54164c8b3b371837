package bmp

import (
	"os"

	"go.uber.org/zap"
)

// DefaultMaxResolution caps width*height accepted by the decoder.
const DefaultMaxResolution = 16384 * 16384

type options struct {
	logger         *zap.Logger
	compression    Compression
	compressionSet bool
	xDens, yDens   int32
	filePerm       os.FileMode
	maxResolution  int
}

// Option configures encoding, decoding and file creation.
type Option func(o *options)

func newOptions(opts []Option) *options {
	o := &options{
		logger:        zap.NewNop(),
		xDens:         DefaultResolution,
		yDens:         DefaultResolution,
		filePerm:      0666,
		maxResolution: DefaultMaxResolution,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger used by the image and the codec.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCompression sets the compression written by Create and FromImage.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
		o.compressionSet = true
	}
}

// compressionFor picks BI_BITFIELDS for 32 bit images and BI_RGB otherwise,
// unless a compression was set explicitly.
func (o *options) compressionFor(bitsPerPixel uint16) Compression {
	if o.compressionSet {
		return o.compression
	}
	if bitsPerPixel == 32 {
		return CompressionBitfields
	}
	return CompressionRGB
}

// WithResolution sets the density written to the info header, in pixels per meter.
func WithResolution(xDens, yDens int32) Option {
	return func(o *options) {
		if xDens > 0 && yDens > 0 {
			o.xDens, o.yDens = xDens, yDens
		}
	}
}

// WithFilePermission sets the permission of files made by Create.
func WithFilePermission(perm os.FileMode) Option {
	return func(o *options) {
		if perm != 0 {
			o.filePerm = perm
		}
	}
}

// WithMaxResolution sets the largest width*height the decoder accepts.
func WithMaxResolution(pixels int) Option {
	return func(o *options) {
		if pixels > 0 {
			o.maxResolution = pixels
		}
	}
}
