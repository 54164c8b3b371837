package bmp

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"go.uber.org/zap"
)

// Encode builds a bitmap from unpadded pixel rows.
//
// pixels must hold width*|height| pixels of bitsPerPixel/8 bytes each, in
// storage order (B, G, R[, A]) with rows in the order they will be stored:
// bottom row first when height is positive, top row first when negative.
// Every row is padded with zeros to a multiple of 4 bytes.
func Encode(width, height int, bitsPerPixel uint16, pixels []byte, compression Compression, options ...Option) (*BitmapImage, error) {
	return encode(width, height, bitsPerPixel, pixels, compression, newOptions(options))
}

func encode(width, height int, bitsPerPixel uint16, pixels []byte, compression Compression, o *options) (*BitmapImage, error) {
	absHeight := height
	if absHeight < 0 {
		absHeight = -absHeight
	}
	if width <= 0 || height == 0 || width > math.MaxInt32 || absHeight > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if bitsPerPixel != 24 && bitsPerPixel != 32 {
		return nil, UnsupportedError(fmt.Sprintf("%d bits per pixel", bitsPerPixel))
	}
	if !compression.Supported() {
		return nil, UnsupportedError("compression " + compression.String())
	}
	if compression == CompressionBitfields && bitsPerPixel != 32 {
		return nil, UnsupportedError("BI_BITFIELDS with 24 bits per pixel")
	}

	pixelSize := int(bitsPerPixel / 8)
	rowBytes := width * pixelSize
	rowSize := RowSize(int(bitsPerPixel), width)
	imageSize := ImageSize(rowSize, absHeight)
	if imageSize > math.MaxUint32-PixelArrayOffset {
		return nil, fmt.Errorf("%w: %dx%d does not fit a BMP file", ErrInvalidDimensions, width, height)
	}
	if want := rowBytes * absHeight; len(pixels) != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrPixelBufferSize, len(pixels), want)
	}

	bfh := BitmapFileHeader{
		Type:    [2]byte{'B', 'M'},
		Size:    uint32(PixelArrayOffset + imageSize),
		OffBits: PixelArrayOffset,
	}
	bih := BitmapV4Header{BitmapInfoHeader: BitmapInfoHeader{
		Size:        V4HeaderSize,
		Width:       int32(width),
		Height:      int32(height),
		Planes:      1,
		BitCount:    bitsPerPixel,
		Compression: compression,
		SizeImage:   uint32(imageSize),
		XPixelsPerM: o.xDens,
		YPixelsPerM: o.yDens,
	}}
	if bitsPerPixel == 32 {
		bih.RedMask = RedMask32
		bih.GreenMask = GreenMask32
		bih.BlueMask = BlueMask32
		bih.AlphaMask = AlphaMask32
		bih.CSType = LCSsRGB
	}

	// The tail of every row stays zero: that is the padding.
	buf := make([]byte, imageSize)
	for y := range absHeight {
		copy(buf[y*rowSize:y*rowSize+rowBytes], pixels[y*rowBytes:(y+1)*rowBytes])
	}

	o.logger.Debug("encode",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Uint16("bpp", bitsPerPixel),
		zap.Stringer("compression", compression),
		zap.Int("row_size", rowSize),
		zap.Int("image_size", imageSize))

	return &BitmapImage{
		BFHeader: &bfh,
		BIHeader: &bih,
		Stride:   rowSize,
		Padding:  rowSize - rowBytes,
		Pixels:   buf,
		logger:   o.logger,
	}, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteTo writes the file header, the V4 info header and the padded pixel
// rows to w. The headers are written as a V4 file with the pixel array
// directly after them, whatever the image was decoded from.
func (b *BitmapImage) WriteTo(w io.Writer) (int64, error) {
	if b.Pixels == nil {
		return 0, fmt.Errorf("%w: no pixel buffer", ErrPixelBufferSize)
	}
	rowSize := RowSize(int(b.BIHeader.BitCount), b.Width())
	imageSize := ImageSize(rowSize, b.Height())

	bfh := *b.BFHeader
	bfh.OffBits = PixelArrayOffset
	bfh.Size = uint32(PixelArrayOffset + imageSize)
	bih := *b.BIHeader
	bih.Size = V4HeaderSize
	bih.SizeImage = uint32(imageSize)

	// Create a buffer (to reduce syscalls)
	bw := bufio.NewWriter(w)
	cw := &countingWriter{w: bw}

	if err := bfh.Write(cw); err != nil {
		return cw.n, fmt.Errorf("bmp: write file header: %w", err)
	}
	if err := bih.Write(cw); err != nil {
		return cw.n, fmt.Errorf("bmp: write info header: %w", err)
	}

	paddingBytes := make([]byte, rowSize-b.Width()*b.PixelSize())
	for y := range b.Height() {
		if _, err := cw.Write(b.Row(y)); err != nil {
			return cw.n, fmt.Errorf("bmp: write pixel row %d: %w", y, err)
		}
		if _, err := cw.Write(paddingBytes); err != nil {
			return cw.n, fmt.Errorf("bmp: write pixel row %d: %w", y, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return cw.n, fmt.Errorf("bmp: flush: %w", err)
	}
	return cw.n, nil
}

// Saves the bitmap image onto local disk
func (b *BitmapImage) Save(filename string, options ...Option) (err error) {
	o := newOptions(options)
	file, err := createFile(filename, o)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("bmp: close %s: %w", filename, cerr)
		}
	}()
	_, err = b.WriteTo(file)
	return err
}
