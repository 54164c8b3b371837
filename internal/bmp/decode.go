package bmp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"go.uber.org/zap"
)

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// skipTo moves the stream forward to absolute offset off, seeking when the
// underlying reader can and discarding otherwise.
func (c *countingReader) skipTo(off int64) error {
	gap := off - c.n
	if gap <= 0 {
		return nil
	}
	if s, ok := c.r.(io.Seeker); ok {
		if _, err := s.Seek(gap, io.SeekCurrent); err != nil {
			return err
		}
	} else if _, err := io.CopyN(io.Discard, c.r, gap); err != nil {
		return err
	}
	c.n = off
	return nil
}

// Decode reads a 24 or 32 bit BI_RGB / BI_BITFIELDS bitmap from r.
//
// The returned image holds the rows in stream order with the padding
// removed, packed one after another from the start of Pixels.
func Decode(r io.Reader, options ...Option) (*BitmapImage, error) {
	o := newOptions(options)
	cr := &countingReader{r: r}

	// Read File Header
	var bfh BitmapFileHeader
	if err := bfh.Read(cr); err != nil {
		return nil, fmt.Errorf("bmp: read file header: %w", err)
	}
	if !bfh.Signature() {
		return nil, FormatError(fmt.Sprintf("signature %q", bfh.Type[:]))
	}

	// Read Info Header (V3, V4 or larger)
	var bih BitmapV4Header
	if err := bih.Read(cr); err != nil {
		var unsupported UnsupportedError
		if errors.As(err, &unsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("bmp: read info header: %w", err)
	}
	if err := validate(&bfh, &bih, o); err != nil {
		return nil, err
	}

	width := int(bih.Width)
	height := int(bih.Height)
	absHeight := height
	if absHeight < 0 {
		absHeight = -absHeight
	}
	pixelSize := int(bih.BitCount / 8)
	rowBytes := width * pixelSize
	rowSize := RowSize(int(bih.BitCount), width)
	imageSize := ImageSize(rowSize, absHeight)

	// Seek to Pixel Array (OffBits)
	if err := cr.skipTo(int64(bfh.OffBits)); err != nil {
		return nil, fmt.Errorf("bmp: seek to pixel array: %w", err)
	}

	// grown as rows arrive: never larger than what the stream really holds
	var buf bytes.Buffer
	buf.Grow(min(imageSize, 1<<20))
	for y := range absHeight {
		if err := readRow(&buf, cr, rowBytes, rowSize-rowBytes); err != nil {
			return nil, fmt.Errorf("bmp: read pixel row %d: %w", y, err)
		}
	}
	pixels := buf.Bytes()
	pixels = append(pixels, make([]byte, imageSize-len(pixels))...)

	if bih.SizeImage != uint32(imageSize) {
		o.logger.Debug("decode: image size corrected",
			zap.Uint32("header", bih.SizeImage),
			zap.Int("computed", imageSize))
		bih.SizeImage = uint32(imageSize)
	}
	o.logger.Debug("decode",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Uint16("bpp", bih.BitCount),
		zap.Stringer("compression", bih.Compression),
		zap.Uint32("header_size", bih.Size))

	return &BitmapImage{
		BFHeader: &bfh,
		BIHeader: &bih,
		Stride:   rowBytes,
		Padding:  rowSize - rowBytes,
		Pixels:   pixels,
		logger:   o.logger,
	}, nil
}

// readRow appends rowBytes pixel bytes from r to buf and skips the padding.
// Like io.ReadFull, a row that ends early is io.ErrUnexpectedEOF and a row
// with no bytes at all is io.EOF.
func readRow(buf *bytes.Buffer, r io.Reader, rowBytes, padding int) error {
	n, err := io.CopyN(buf, r, int64(rowBytes))
	if err != nil {
		if err == io.EOF && n > 0 {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	if _, err := io.CopyN(io.Discard, r, int64(padding)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}

func validate(bfh *BitmapFileHeader, bih *BitmapV4Header, o *options) error {
	if bih.Planes != 1 {
		return FormatError(fmt.Sprintf("%d color planes", bih.Planes))
	}
	switch bih.BitCount {
	case 24, 32:
	case 1, 2, 4, 8, 16, 64:
		return UnsupportedError(fmt.Sprintf("%d bits per pixel", bih.BitCount))
	default:
		return FormatError(fmt.Sprintf("%d bits per pixel", bih.BitCount))
	}
	if !bih.Compression.Supported() {
		return UnsupportedError("compression " + bih.Compression.String())
	}
	if bih.Compression == CompressionBitfields {
		if bih.BitCount != 32 {
			return UnsupportedError(fmt.Sprintf("BI_BITFIELDS with %d bits per pixel", bih.BitCount))
		}
		if bih.RedMask != RedMask32 || bih.GreenMask != GreenMask32 || bih.BlueMask != BlueMask32 ||
			(bih.AlphaMask != 0 && bih.AlphaMask != AlphaMask32) {
			return UnsupportedError(fmt.Sprintf("bitfield masks %08x/%08x/%08x/%08x",
				bih.RedMask, bih.GreenMask, bih.BlueMask, bih.AlphaMask))
		}
	}
	if bih.Width <= 0 || bih.Height == 0 {
		return FormatError(fmt.Sprintf("dimensions %dx%d", bih.Width, bih.Height))
	}
	height := int64(bih.Height)
	if height < 0 {
		height = -height
	}
	if int64(bih.Width)*height > int64(o.maxResolution) {
		return FormatError(fmt.Sprintf("resolution %dx%d exceeds %d pixels", bih.Width, height, o.maxResolution))
	}
	imageSize := int64(RowSize(int(bih.BitCount), int(bih.Width))) * height
	if imageSize > math.MaxUint32-PixelArrayOffset {
		return FormatError(fmt.Sprintf("pixel array of %d bytes does not fit a BMP file", imageSize))
	}
	if int(bfh.OffBits) < FileHeaderSize+bih.encodedLen() {
		return FormatError(fmt.Sprintf("pixel array offset %d overlaps the headers", bfh.OffBits))
	}
	return nil
}

// Reads a Bitmap file
func ReadBitmap(filename string, options ...Option) (*BitmapImage, error) {
	// Open the file
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("bmp: open %s: %w", filename, err)
	}
	defer file.Close()

	b, err := Decode(file, options...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	b.Filename = filename
	return b, nil
}
