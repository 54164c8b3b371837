// Adjusts image dimensions, orientation, or structure.
package adjustments

import (
	"errors"

	"github.com/anas-shakeel/go-bmp4/internal/bmp"
)

// Crops a region in the bitmap image (0,0  is at the top-left of the image)
func Crop(b *bmp.BitmapImage, x, y, width, height int) (*bmp.BitmapImage, error) {
	// Validate bounds
	if x < 0 || y < 0 || width <= 0 || height <= 0 {
		return nil, errors.New("invalid bounds: negative origin or empty region")
	} else if width+x > b.Width() {
		return nil, errors.New("invalid bounds: width out of bounds")
	} else if height+y > b.Height() {
		return nil, errors.New("invalid bounds: height out of bounds")
	}

	// First stored row of the region (BottomUp: stored rows run from the bottom)
	first := b.Height() - y - height
	if b.TopDown() {
		first = y
	}

	pixelSize := b.PixelSize()
	rowBytes := width * pixelSize
	pixels := make([]byte, 0, rowBytes*height)
	for row := first; row < first+height; row++ {
		src := b.Row(row)
		pixels = append(pixels, src[x*pixelSize:x*pixelSize+rowBytes]...)
	}

	signedHeight := height
	if b.TopDown() {
		signedHeight = -height
	}
	cropped, err := bmp.Encode(width, signedHeight, b.BIHeader.BitCount, pixels, b.BIHeader.Compression,
		bmp.WithLogger(b.Logger()),
		bmp.WithResolution(b.BIHeader.XPixelsPerM, b.BIHeader.YPixelsPerM))
	if err != nil {
		return nil, err
	}
	cropped.Filename = b.Filename
	return cropped, nil
}

// Flips the bitmap upside down in-place (swaps stored rows)
func FlipVertical(b *bmp.BitmapImage) {
	height := b.Height()
	tmp := make([]byte, b.Width()*b.PixelSize())
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		copy(tmp, b.Row(top))
		copy(b.Row(top), b.Row(bottom))
		copy(b.Row(bottom), tmp)
	}
}
