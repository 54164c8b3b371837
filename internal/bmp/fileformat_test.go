package bmp

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowSize(t *testing.T) {
	tests := []struct {
		bpp, width, want int
	}{
		{24, 1, 4},
		{24, 2, 8},
		{24, 3, 12},
		{24, 4, 12},
		{24, 5, 16},
		{32, 1, 4},
		{32, 2, 8},
		{32, 3, 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RowSize(tt.bpp, tt.width), "bpp=%d width=%d", tt.bpp, tt.width)
	}
}

func TestRowSizeLaw(t *testing.T) {
	for _, bpp := range []int{24, 32} {
		for width := 1; width <= 257; width++ {
			rowSize := RowSize(bpp, width)
			assert.Zero(t, rowSize%4, "bpp=%d width=%d", bpp, width)
			assert.GreaterOrEqual(t, rowSize, width*bpp/8)
			assert.Less(t, rowSize, width*bpp/8+4)
		}
	}
}

func TestImageSize(t *testing.T) {
	assert.Equal(t, 16, ImageSize(8, 2))
	assert.Equal(t, 16, ImageSize(8, -2))
	assert.Equal(t, 4, ImageSize(RowSize(24, 1), 1))
}

func TestCompression(t *testing.T) {
	assert.Equal(t, "BI_RGB", CompressionRGB.String())
	assert.Equal(t, "BI_BITFIELDS", CompressionBitfields.String())
	assert.Equal(t, "BI_CMYKRLE4", CompressionCMYKRLE4.String())
	assert.Equal(t, "BI_UNKNOWN(9)", Compression(9).String())

	assert.True(t, CompressionRGB.Supported())
	assert.True(t, CompressionBitfields.Supported())
	for _, c := range []Compression{
		CompressionRLE8, CompressionRLE4, CompressionJPEG, CompressionPNG,
		CompressionAlphaBitfields, CompressionCMYK, CompressionCMYKRLE8, CompressionCMYKRLE4,
	} {
		assert.False(t, c.Supported(), c.String())
	}
}

func TestHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	fh := BitmapFileHeader{Type: [2]byte{'B', 'M'}, Size: 138, OffBits: PixelArrayOffset}
	require.NoError(t, fh.Write(&buf))
	assert.Equal(t, FileHeaderSize, buf.Len())

	ih := BitmapV4Header{BitmapInfoHeader: BitmapInfoHeader{Size: V4HeaderSize, Width: 2, Height: -2, Planes: 1, BitCount: 32}}
	ih.GammaBlue = 0x01020304
	require.NoError(t, ih.Write(&buf))
	assert.Equal(t, PixelArrayOffset, buf.Len())
	// GammaBlue is the last DWORD of the V4 header
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, buf.Bytes()[118:122])

	var gotFH BitmapFileHeader
	var gotIH BitmapV4Header
	r := bytes.NewReader(buf.Bytes())
	require.NoError(t, gotFH.Read(r))
	require.NoError(t, gotIH.Read(r))
	assert.True(t, gotFH.Signature())
	assert.Equal(t, fh, gotFH)
	assert.Equal(t, ih, gotIH)
	assert.Equal(t, V4HeaderSize, gotIH.encodedLen())
}

func TestInfoHeaderV3WithMasks(t *testing.T) {
	var buf bytes.Buffer
	ih := BitmapInfoHeader{Size: InfoHeaderSize, Width: 1, Height: 1, Planes: 1, BitCount: 32, Compression: CompressionBitfields}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, ih))
	buf.Write([]byte{0, 0, 0xFF, 0, 0, 0xFF, 0, 0, 0xFF, 0, 0, 0})

	var got BitmapV4Header
	require.NoError(t, got.Read(&buf))
	assert.Equal(t, ih, got.BitmapInfoHeader)
	assert.Equal(t, uint32(RedMask32), got.RedMask)
	assert.Equal(t, uint32(GreenMask32), got.GreenMask)
	assert.Equal(t, uint32(BlueMask32), got.BlueMask)
	assert.Zero(t, got.AlphaMask)
	assert.Equal(t, InfoHeaderSize+12, got.encodedLen())
}

func TestInfoHeaderUnsupportedSize(t *testing.T) {
	var buf bytes.Buffer
	ih := BitmapInfoHeader{Size: 12}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, ih))

	var got BitmapV4Header
	err := got.Read(&buf)
	var unsupported UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Contains(t, err.Error(), "info header size 12")
}
