package bmp

import (
	"fmt"
	"image"
	"image/color"
	"io"

	xbmp "golang.org/x/image/bmp"
)

// ToNRGBA converts the bitmap to an image.NRGBA with the top row first.
// Pixels without alpha are opaque.
func (b *BitmapImage) ToNRGBA() *image.NRGBA {
	width, height := b.Width(), b.Height()
	pixelSize := b.PixelSize()
	hasAlpha := b.HasAlpha()
	m := image.NewNRGBA(image.Rect(0, 0, width, height))

	for y := range height {
		dy := height - 1 - y // BottomUp: first stored row is the last picture row
		if b.TopDown() {
			dy = y
		}
		src := b.Row(y)
		dst := m.Pix[dy*m.Stride : dy*m.Stride+width*4]
		for x := range width {
			p := src[x*pixelSize:]
			dst[x*4+0] = p[2]
			dst[x*4+1] = p[1]
			dst[x*4+2] = p[0]
			dst[x*4+3] = 0xFF
			if hasAlpha {
				dst[x*4+3] = p[3]
			}
		}
	}
	return m
}

// FromImage encodes m as a bottom-up bitmap with the given bit count.
// The compression follows WithCompression (default: BI_BITFIELDS at 32 bit).
func FromImage(m image.Image, bitsPerPixel uint16, options ...Option) (*BitmapImage, error) {
	if bitsPerPixel != 24 && bitsPerPixel != 32 {
		return nil, UnsupportedError(fmt.Sprintf("%d bits per pixel", bitsPerPixel))
	}
	o := newOptions(options)
	bounds := m.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixelSize := int(bitsPerPixel / 8)

	pixels := make([]byte, width*height*pixelSize)
	i := 0
	for y := bounds.Max.Y - 1; y >= bounds.Min.Y; y-- {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			pixels[i+0] = c.B
			pixels[i+1] = c.G
			pixels[i+2] = c.R
			if pixelSize == 4 {
				pixels[i+3] = c.A
			}
			i += pixelSize
		}
	}
	return encode(width, height, bitsPerPixel, pixels, o.compressionFor(bitsPerPixel), o)
}

// FromReader decodes any bitmap golang.org/x/image/bmp understands
// (paletted and 8 bit ones included) and re-encodes it with FromImage.
func FromReader(r io.Reader, bitsPerPixel uint16, options ...Option) (*BitmapImage, error) {
	m, err := xbmp.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("bmp: import: %w", err)
	}
	return FromImage(m, bitsPerPixel, options...)
}
