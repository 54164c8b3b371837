// Package filters implements in-place color operations on bitmaps.
package filters

import (
	"errors"
	"fmt"

	"github.com/anas-shakeel/go-bmp4/internal/bmp"
	"github.com/anas-shakeel/go-bmp4/internal/utils"
)

var (
	// ErrInvalidBuffer reports a pixel buffer that does not fit the requested walk
	ErrInvalidBuffer = errors.New("filters: invalid pixel buffer")
	// ErrUnknownMethod reports a brightness method other than add or multiply
	ErrUnknownMethod = errors.New("filters: unknown brightness method")
)

// InvertBuffer negates the first three bytes of every pixelSize step of
// pixels[:imageSize]. The 4th (alpha) byte of 32 bit pixels is left alone,
// and a trailing partial pixel is not touched.
//
// The walk covers all of pixels[:imageSize]. For a decoded image that
// includes the zero tail past the last row, which WriteTo never emits.
// The buffer must be packed: use Invert for images that keep row padding.
func InvertBuffer(pixels []byte, imageSize, pixelSize int) error {
	if pixelSize != 3 && pixelSize != 4 {
		return fmt.Errorf("%w: pixel size %d", ErrInvalidBuffer, pixelSize)
	}
	if imageSize < 0 || imageSize > len(pixels) {
		return fmt.Errorf("%w: image size %d for %d bytes", ErrInvalidBuffer, imageSize, len(pixels))
	}
	for i := 0; i+pixelSize <= imageSize; i += pixelSize {
		pixels[i] = 255 - pixels[i]     // Blue component
		pixels[i+1] = 255 - pixels[i+1] // Green component
		pixels[i+2] = 255 - pixels[i+2] // Red component
	}
	return nil
}

// Inverts (negates) the bitmap image
func Invert(b *bmp.BitmapImage) {
	b.EachPixel(func(p []byte) {
		p[0] = 255 - p[0]
		p[1] = 255 - p[1]
		p[2] = 255 - p[2]
	})
}

// SetPixel writes the color (r, g, bl, a) at (x, y), y counting stored rows.
// Coordinates outside the image return bmp.ErrOutOfBounds.
func SetPixel(b *bmp.BitmapImage, x, y int, r, g, bl, a byte) error {
	return b.SetPixel(x, y, bmp.Color32{B: bl, G: g, R: r, A: a})
}

// Grayscale sets every color channel to the plain average of the three.
func Grayscale(b *bmp.BitmapImage) {
	b.EachPixel(func(p []byte) {
		avg := byte(utils.Average(int(p[2]), int(p[1]), int(p[0])))
		p[0], p[1], p[2] = avg, avg, avg
	})
}

// GrayscaleLuma is Grayscale weighted with the ITU-R 601-2 luma transform.
func GrayscaleLuma(b *bmp.BitmapImage) {
	b.EachPixel(func(p []byte) {
		L := byte(int(p[2])*299/1000 + int(p[1])*587/1000 + int(p[0])*114/1000)
		p[0], p[1], p[2] = L, L, L
	})
}

var brightnessMethods = map[string]func(v, factor float64) float64{
	"add":      func(v, factor float64) float64 { return v + factor },
	"multiply": func(v, factor float64) float64 { return v * factor },
}

// Brightness shifts ("add") or scales ("multiply") the color channels of b
// in place. Results are clipped to [0, 255], alpha is left alone.
func Brightness(b *bmp.BitmapImage, factor float64, method string) error {
	apply, ok := brightnessMethods[method]
	if !ok {
		return fmt.Errorf("%w %q: want add or multiply", ErrUnknownMethod, method)
	}
	b.EachPixel(func(p []byte) {
		for c := range 3 {
			p[c] = utils.ClampByte(apply(float64(p[c]), factor))
		}
	})
	return nil
}

// Contrast pulls each color channel away from (factor > 1) or towards
// (factor < 1) its mean over the whole image.
func Contrast(b *bmp.BitmapImage, factor float64) {
	// per channel mean, in storage order
	var sum [3]int
	b.EachPixel(func(p []byte) {
		for c := range 3 {
			sum[c] += int(p[c])
		}
	})
	totalPixels := b.Width() * b.Height()
	if totalPixels == 0 {
		return
	}
	var mean [3]float64
	for c := range 3 {
		mean[c] = float64(sum[c] / totalPixels)
	}

	b.EachPixel(func(p []byte) {
		for c := range 3 {
			p[c] = utils.ClampByte(float64(p[c])*factor + (1-factor)*mean[c])
		}
	})
}
