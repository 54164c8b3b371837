// bmp package implements a V4 bitmap encoder and decoder for 24 and 32 bit images
package bmp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"go.uber.org/zap"
)

// Color24 is a 24 bit pixel in storage order
type Color24 struct {
	B, G, R byte
}

// Color32 is a 32 bit pixel in storage order
type Color32 struct {
	B, G, R, A byte
}

// Returns the Pixels in bytes as BGR (Blue, Green, Red)
func (p Color24) BytesBGR() []byte {
	return []byte{p.B, p.G, p.R}
}

// Returns the Pixels in bytes as BGRA (Blue, Green, Red, Alpha)
func (p Color32) BytesBGRA() []byte {
	return []byte{p.B, p.G, p.R, p.A}
}

// Stream is the read/write handle Create leaves open on the image.
type Stream interface {
	io.ReadWriteSeeker
	io.Closer
}

// BitmapImage is a bitmap held in memory.
//
// Pixels holds Height() rows in the order they are stored in the file, each
// Stride bytes apart. Encoded images keep the on-disk row padding
// (Stride == RowSize), decoded images are packed (Stride == Width*PixelSize).
// In both cases len(Pixels) == BIHeader.SizeImage.
type BitmapImage struct {
	Filename string
	BFHeader *BitmapFileHeader
	BIHeader *BitmapV4Header
	Stride   int
	Padding  int
	Pixels   []byte

	stream Stream
	logger *zap.Logger
}

// Width of the image in pixels
func (b *BitmapImage) Width() int {
	return int(b.BIHeader.Width)
}

// Height of the image in pixels (always positive)
func (b *BitmapImage) Height() int {
	if b.BIHeader.Height < 0 {
		return -int(b.BIHeader.Height)
	}
	return int(b.BIHeader.Height)
}

// TopDown reports whether the first stored row is the top of the picture.
func (b *BitmapImage) TopDown() bool {
	return b.BIHeader.Height < 0
}

// PixelSize is the number of bytes per pixel (3 or 4)
func (b *BitmapImage) PixelSize() int {
	return int(b.BIHeader.BitCount / 8)
}

// HasAlpha reports whether the 4th byte of each pixel carries alpha.
func (b *BitmapImage) HasAlpha() bool {
	return b.BIHeader.BitCount == 32 && b.BIHeader.AlphaMask != 0
}

// Row returns the meaningful bytes (no padding) of stored row y.
func (b *BitmapImage) Row(y int) []byte {
	start := y * b.Stride
	return b.Pixels[start : start+b.Width()*b.PixelSize()]
}

// EachPixel calls fn with the bytes of every pixel, row by row.
// Padding bytes are never passed to fn.
func (b *BitmapImage) EachPixel(fn func(p []byte)) {
	pixelSize := b.PixelSize()
	for y := range b.Height() {
		row := b.Row(y)
		for i := 0; i+pixelSize <= len(row); i += pixelSize {
			fn(row[i : i+pixelSize])
		}
	}
}

// offset returns the index of pixel (x, y) in Pixels; y counts stored rows.
func (b *BitmapImage) offset(x, y int) (int, error) {
	if x < 0 || x >= b.Width() || y < 0 || y >= b.Height() {
		return 0, fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfBounds, x, y, b.Width(), b.Height())
	}
	i := y*b.Stride + x*b.PixelSize()
	if i+b.PixelSize() > len(b.Pixels) {
		return 0, fmt.Errorf("%w: (%d, %d) past pixel buffer", ErrOutOfBounds, x, y)
	}
	return i, nil
}

// At returns pixel (x, y). 24 bit pixels are reported as opaque.
func (b *BitmapImage) At(x, y int) (Color32, error) {
	i, err := b.offset(x, y)
	if err != nil {
		return Color32{}, err
	}
	c := Color32{B: b.Pixels[i], G: b.Pixels[i+1], R: b.Pixels[i+2], A: 0xFF}
	if b.PixelSize() == 4 {
		c.A = b.Pixels[i+3]
	}
	return c, nil
}

// SetPixel writes c at (x, y) in storage order. The alpha is dropped for
// 24 bit images.
func (b *BitmapImage) SetPixel(x, y int, c Color32) error {
	i, err := b.offset(x, y)
	if err != nil {
		return err
	}
	b.Pixels[i] = c.B
	b.Pixels[i+1] = c.G
	b.Pixels[i+2] = c.R
	if b.PixelSize() == 4 {
		b.Pixels[i+3] = c.A
	}
	return nil
}

// Stream returns the handle opened by Create, or nil.
func (b *BitmapImage) Stream() Stream {
	return b.stream
}

// Logger returns the logger the image was made with.
func (b *BitmapImage) Logger() *zap.Logger {
	if b.logger == nil {
		return zap.NewNop()
	}
	return b.logger
}

// Create encodes pixels, writes them to filename and returns the image with
// the file still open for reading and writing, positioned at its start.
//
// Compression defaults to BI_BITFIELDS for 32 bit images and BI_RGB for
// 24 bit ones. The caller must Release the image.
func Create(filename string, width, height int, bitsPerPixel uint16, pixels []byte, options ...Option) (*BitmapImage, error) {
	o := newOptions(options)
	b, err := encode(width, height, bitsPerPixel, pixels, o.compressionFor(bitsPerPixel), o)
	if err != nil {
		return nil, err
	}

	file, err := createFile(filename, o)
	if err != nil {
		return nil, err
	}
	if _, err = b.WriteTo(file); err != nil {
		_ = file.Close()
		return nil, err
	}
	if _, err = file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("bmp: rewind %s: %w", filename, err)
	}

	b.Filename = filename
	b.stream = file
	o.logger.Debug("create",
		zap.String("filename", filename),
		zap.Uint32("size", b.BFHeader.Size))
	return b, nil
}

func createFile(filename string, o *options) (*os.File, error) {
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, o.filePerm)
	if err != nil {
		return nil, fmt.Errorf("bmp: create %s: %w", filename, err)
	}
	return file, nil
}

// Release drops the pixel buffer and closes the stream opened by Create.
// A resource that is already absent is logged and skipped.
func (b *BitmapImage) Release() error {
	if b == nil {
		return nil
	}
	logger := b.Logger()
	if b.Pixels == nil {
		logger.Debug("release: no pixel buffer", zap.String("filename", b.Filename))
	} else {
		b.Pixels = nil
	}
	if b.stream == nil {
		logger.Debug("release: no open stream", zap.String("filename", b.Filename))
		return nil
	}
	err := b.stream.Close()
	b.stream = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("bmp: close %s: %w", b.Filename, err)
	}
	return nil
}

// Close implements io.Closer
func (b *BitmapImage) Close() error {
	return b.Release()
}

// Returns a Copy of the bitmap image (without the open stream)
func (b *BitmapImage) Copy() *BitmapImage {
	bfh := *b.BFHeader
	bih := *b.BIHeader
	return &BitmapImage{
		Filename: b.Filename,
		BFHeader: &bfh,
		BIHeader: &bih,
		Stride:   b.Stride,
		Padding:  b.Padding,
		Pixels:   slices.Clone(b.Pixels),
		logger:   b.logger,
	}
}

// Returns an image containing a single channel of the source image.
// channel can one of (`red`, `green`, and `blue`)
func (b *BitmapImage) GetChannel(channel string) (*BitmapImage, error) {
	var keep int
	switch channel {
	case "red":
		keep = 2
	case "green":
		keep = 1
	case "blue":
		keep = 0
	default:
		return nil, errors.New("invalid color channel: only red, green, and blue are supported")
	}

	newBitmap := b.Copy()
	newBitmap.EachPixel(func(p []byte) {
		for c := range 3 {
			if c != keep {
				p[c] = 0
			}
		}
	})
	return newBitmap, nil
}
