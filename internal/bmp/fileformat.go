// BMP-specific structs and types
package bmp

import (
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
)

// Sizes (in bytes) of the on-disk structures.
const (
	FileHeaderSize = 14  // BITMAPFILEHEADER
	InfoHeaderSize = 40  // BITMAPINFOHEADER
	V4HeaderSize   = 108 // BITMAPV4HEADER
	V5HeaderSize   = 124 // BITMAPV5HEADER

	// Offset of the pixel array in every file this package writes
	PixelArrayOffset = FileHeaderSize + V4HeaderSize
)

// Default header values used by the encoder.
const (
	DefaultResolution = 2835 // 72 DPI, in pixels-per-meter

	RedMask32   = 0x00FF0000
	GreenMask32 = 0x0000FF00
	BlueMask32  = 0x000000FF
	AlphaMask32 = 0xFF000000

	LCSsRGB = 0x73524742 // "sRGB" packed as a big-endian DWORD
)

// Compression is the biCompression field of the info header.
type Compression uint32

const (
	CompressionRGB            Compression = 0
	CompressionRLE8           Compression = 1
	CompressionRLE4           Compression = 2
	CompressionBitfields      Compression = 3
	CompressionJPEG           Compression = 4
	CompressionPNG            Compression = 5
	CompressionAlphaBitfields Compression = 6
	CompressionCMYK           Compression = 11
	CompressionCMYKRLE8       Compression = 12
	CompressionCMYKRLE4       Compression = 13
)

var compressionNames = map[Compression]string{
	CompressionRGB:            "BI_RGB",
	CompressionRLE8:           "BI_RLE8",
	CompressionRLE4:           "BI_RLE4",
	CompressionBitfields:      "BI_BITFIELDS",
	CompressionJPEG:           "BI_JPEG",
	CompressionPNG:            "BI_PNG",
	CompressionAlphaBitfields: "BI_ALPHABITFIELDS",
	CompressionCMYK:           "BI_CMYK",
	CompressionCMYKRLE8:       "BI_CMYKRLE8",
	CompressionCMYKRLE4:       "BI_CMYKRLE4",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return "BI_UNKNOWN(" + strconv.FormatUint(uint64(c), 10) + ")"
}

// Supported reports whether pixels stored with c can be encoded and decoded.
func (c Compression) Supported() bool {
	return c == CompressionRGB || c == CompressionBitfields
}

// The BitmapFileHeader structure contains information about the type, size,
// and layout of a file that contains a DIB [device-independent bitmap].
// https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapfileheader
type BitmapFileHeader struct {
	Type      [2]byte // The file type: must be 0x4d42 (ASCII string "BM").
	Size      uint32  // The size, in bytes, of the bitmap file.
	Reserved1 uint16  // Reserved; must be zero.
	Reserved2 uint16  // Reserved; must be zero.
	OffBits   uint32  // Bitmap File Offset (In bytes) to Pixel Arrays
}

// The BitmapInfoHeader structure contains information about the
// dimensions and color format of DIB [device-independent bitmap].
type BitmapInfoHeader struct {
	Size            uint32      // The number of bytes required by the structure.
	Width           int32       // The width of the bitmap, in pixels.
	Height          int32       // The height of the bitmap, in pixels (negative: top-down)
	Planes          uint16      // The number of planes for the target device.
	BitCount        uint16      // The number of bits-per-pixel.
	Compression     Compression // The type of compression
	SizeImage       uint32      // The size of the image (in bytes).
	XPixelsPerM     int32       // The horizontal resolution, in pixels-per-meter.
	YPixelsPerM     int32       // The vertical resolution, in pixels-per-meter.
	ColorsUsed      uint32      // Number of color indexes that are actually used by bitmap.
	ColorsImportant uint32      // Number of color indexes required for displaying the bitmap.
}

// BitmapV4Extension holds the fields BITMAPV4HEADER appends to BitmapInfoHeader.
// https://learn.microsoft.com/en-us/windows/win32/api/wingdi/ns-wingdi-bitmapv4header
type BitmapV4Extension struct {
	RedMask    uint32    // Color mask of the red component
	GreenMask  uint32    // Color mask of the green component
	BlueMask   uint32    // Color mask of the blue component
	AlphaMask  uint32    // Color mask of the alpha component
	CSType     uint32    // Color space of the DIB
	Endpoints  [9]uint32 // CIEXYZTRIPLE, only used with LCS_CALIBRATED_RGB
	GammaRed   uint32    // Tone response curve for red (16.16 fixed point)
	GammaGreen uint32    // Tone response curve for green
	GammaBlue  uint32    // Tone response curve for blue
}

// BitmapV4Header is the 108 byte info header written by this package.
type BitmapV4Header struct {
	BitmapInfoHeader
	BitmapV4Extension
}

// Signature reports whether the file header starts with "BM".
func (h *BitmapFileHeader) Signature() bool {
	return h.Type == [2]byte{'B', 'M'}
}

// Reads the 14 byte file header from r
func (h *BitmapFileHeader) Read(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, h)
}

// Writes the 14 byte file header to w
func (h *BitmapFileHeader) Write(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// Read reads an info header from r.
//
// A 40 byte BITMAPINFOHEADER is accepted (followed by three DWORD masks when
// the compression is BI_BITFIELDS), as well as BITMAPV4HEADER and anything
// larger. Bytes beyond the V4 layout are consumed from r and dropped.
func (h *BitmapV4Header) Read(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &h.BitmapInfoHeader); err != nil {
		return err
	}
	switch {
	case h.Size == InfoHeaderSize:
		h.BitmapV4Extension = BitmapV4Extension{}
		if h.Compression != CompressionBitfields {
			return nil
		}
		var masks [3]uint32
		if err := binary.Read(r, binary.LittleEndian, &masks); err != nil {
			return err
		}
		h.RedMask, h.GreenMask, h.BlueMask = masks[0], masks[1], masks[2]
		return nil
	case h.Size >= V4HeaderSize:
		if err := binary.Read(r, binary.LittleEndian, &h.BitmapV4Extension); err != nil {
			return err
		}
		// V5 intent and profile fields are read past, not kept
		extra := int64(h.Size) - V4HeaderSize
		if n, err := io.CopyN(io.Discard, r, extra); err != nil {
			if err == io.EOF && n < extra {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		return nil
	default:
		return UnsupportedError(fmt.Sprintf("info header size %d", h.Size))
	}
}

// Write writes the full 108 byte V4 layout to w, regardless of h.Size.
func (h *BitmapV4Header) Write(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// encodedLen is the number of bytes Read consumed for h.
func (h *BitmapV4Header) encodedLen() int {
	if h.Size == InfoHeaderSize {
		if h.Compression == CompressionBitfields {
			return InfoHeaderSize + 12
		}
		return InfoHeaderSize
	}
	return int(h.Size)
}

// RowSize calculates the size of a pixel row, including the padding that
// rounds it up to a multiple of 4 bytes.
func RowSize(bitsPerPixel, width int) int {
	return ((bitsPerPixel*width + 31) / 32) * 4
}

// ImageSize calculates the size of the pixel array (headers excluded).
// The sign of height is ignored.
func ImageSize(rowSize, height int) int {
	if height < 0 {
		height = -height
	}
	return rowSize * height
}
