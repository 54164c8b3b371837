package bmp

import (
	"fmt"
	"io"

	"github.com/anas-shakeel/go-bmp4/internal/utils"
)

// Metadata is a flat, read-only view of both headers.
type Metadata struct {
	Filename         string `yaml:"filename,omitempty"`
	Signature        string `yaml:"signature"`
	FileSize         uint32 `yaml:"file_size"`
	Reserved1        uint16 `yaml:"reserved1"`
	Reserved2        uint16 `yaml:"reserved2"`
	PixelOffset      uint32 `yaml:"pixel_offset"`
	HeaderSize       uint32 `yaml:"header_size"`
	Width            int32  `yaml:"width"`
	Height           int32  `yaml:"height"`
	Planes           uint16 `yaml:"planes"`
	BitCount         uint16 `yaml:"bit_count"`
	Compression      string `yaml:"compression"`
	ImageSize        uint32 `yaml:"image_size"`
	XPixelsPerM      int32  `yaml:"x_pixels_per_meter"`
	YPixelsPerM      int32  `yaml:"y_pixels_per_meter"`
	ColorsUsed       uint32 `yaml:"colors_used"`
	ColorsImportant  uint32 `yaml:"colors_important"`
	RedMask          string `yaml:"red_mask"`
	GreenMask        string `yaml:"green_mask"`
	BlueMask         string `yaml:"blue_mask"`
	AlphaMask        string `yaml:"alpha_mask"`
	ColorSpace       string `yaml:"color_space"`
	Stride           int    `yaml:"stride"`
	Padding          int    `yaml:"padding"`
	TopDown          bool   `yaml:"top_down"`
	PixelBufferBytes int    `yaml:"pixel_buffer_bytes"`
}

// Metadata collects the header fields of the bitmap.
func (b *BitmapImage) Metadata() Metadata {
	fh, ih := b.BFHeader, b.BIHeader
	return Metadata{
		Filename:         b.Filename,
		Signature:        string(fh.Type[:]),
		FileSize:         fh.Size,
		Reserved1:        fh.Reserved1,
		Reserved2:        fh.Reserved2,
		PixelOffset:      fh.OffBits,
		HeaderSize:       ih.Size,
		Width:            ih.Width,
		Height:           ih.Height,
		Planes:           ih.Planes,
		BitCount:         ih.BitCount,
		Compression:      ih.Compression.String(),
		ImageSize:        ih.SizeImage,
		XPixelsPerM:      ih.XPixelsPerM,
		YPixelsPerM:      ih.YPixelsPerM,
		ColorsUsed:       ih.ColorsUsed,
		ColorsImportant:  ih.ColorsImportant,
		RedMask:          fmt.Sprintf("0x%08X", ih.RedMask),
		GreenMask:        fmt.Sprintf("0x%08X", ih.GreenMask),
		BlueMask:         fmt.Sprintf("0x%08X", ih.BlueMask),
		AlphaMask:        fmt.Sprintf("0x%08X", ih.AlphaMask),
		ColorSpace:       colorSpaceName(ih.CSType),
		Stride:           b.Stride,
		Padding:          b.Padding,
		TopDown:          b.TopDown(),
		PixelBufferBytes: len(b.Pixels),
	}
}

func colorSpaceName(cs uint32) string {
	switch cs {
	case 0:
		return "LCS_CALIBRATED_RGB"
	case LCSsRGB:
		return "LCS_sRGB"
	case 0x57696E20: // "Win "
		return "LCS_WINDOWS_COLOR_SPACE"
	}
	return fmt.Sprintf("0x%08X", cs)
}

// Print the Metadata bitmap (in human-readable format)
func (b *BitmapImage) PrintMetadata(w io.Writer) {
	m := b.Metadata()
	fmt.Fprintf(w, "Filename: \t%v\n", m.Filename)
	fmt.Fprintf(w, "Signature: \t%v\n", m.Signature)
	fmt.Fprintf(w, "Filesize: \t%v bytes\n", m.FileSize)
	fmt.Fprintf(w, "Reserved: \t%v %v\n", m.Reserved1, m.Reserved2)
	fmt.Fprintf(w, "PixelOffset: \t%v bytes\n", m.PixelOffset)
	fmt.Fprintf(w, "HeaderSize: \t%v bytes\n", m.HeaderSize)
	fmt.Fprintf(w, "Width: \t\t%v px\n", m.Width)
	fmt.Fprintf(w, "Height: \t%v px\n", m.Height)
	fmt.Fprintf(w, "Planes: \t%v\n", m.Planes)
	fmt.Fprintf(w, "BitCount: \t%vbits\n", m.BitCount)
	fmt.Fprintf(w, "Compression: \t%v\n", m.Compression)
	fmt.Fprintf(w, "ImageSize: \t%v bytes\n", m.ImageSize)
	fmt.Fprintf(w, "Resolution: \t%vx%v px/m\n", m.XPixelsPerM, m.YPixelsPerM)
	fmt.Fprintf(w, "Palette: \t%v (%v important)\n", m.ColorsUsed, m.ColorsImportant)
	if b.BIHeader.BitCount == 32 {
		fmt.Fprintf(w, "Masks: \t\tR=%v G=%v B=%v A=%v\n", m.RedMask, m.GreenMask, m.BlueMask, m.AlphaMask)
		fmt.Fprintf(w, "ColorSpace: \t%v\n", m.ColorSpace)
	}
	fmt.Fprintf(w, "PixelCount: \t%v pixels\n", b.Width()*b.Height())
	fmt.Fprintf(w, "Stride: \t%v bytes\n", m.Stride)
	fmt.Fprintf(w, "Padding: \t%v bytes\n", m.Padding)
}

// Print the bitmap in terminal. Use for small images only
func (b *BitmapImage) PrintBitmap(w io.Writer) {
	m := b.ToNRGBA()
	bounds := m.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := m.NRGBAAt(x, y)
			fmt.Fprintf(w, "%s", utils.ColoredBlock("  ", int(c.R), int(c.G), int(c.B)))
		}
		fmt.Fprintf(w, "\n")
	}
}
