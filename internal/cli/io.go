package cli

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/anas-shakeel/go-bmp4/internal/bmp"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// readInput returns the content of path, decompressed when it is a zstd frame.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(data, zstdMagic) {
		return data, nil
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	if data, err = dec.DecodeAll(data, nil); err != nil {
		return nil, fmt.Errorf("%s: zstd: %w", path, err)
	}
	return data, nil
}

// decodeFile decodes a 24/32 bit bitmap. With fallback set, bitmaps the
// codec does not support natively (paletted, 16 bit) are imported through
// golang.org/x/image/bmp and re-encoded at fallbackBpp.
func decodeFile(path string, logger *zap.Logger, fallback bool, fallbackBpp uint16) (*bmp.BitmapImage, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	b, err := bmp.Decode(bytes.NewReader(data), bmp.WithLogger(logger))
	var unsupported bmp.UnsupportedError
	if err != nil && fallback && errors.As(err, &unsupported) {
		logger.Debug("import", zap.String("path", path), zap.Error(err))
		b, err = bmp.FromReader(bytes.NewReader(data), fallbackBpp, bmp.WithLogger(logger))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	b.Filename = path
	return b, nil
}

// writeOutput stores b at path: PNG for a .png extension, otherwise BMP,
// zstd compressed when compress is set.
func writeOutput(b *bmp.BitmapImage, path string, compress bool) (err error) {
	if !compress && !strings.EqualFold(filepath.Ext(path), ".png") {
		return b.Save(path)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if strings.EqualFold(filepath.Ext(path), ".png") {
		return png.Encode(file, b.ToNRGBA())
	}

	zw, err := zstd.NewWriter(file)
	if err != nil {
		return err
	}
	if _, err = b.WriteTo(zw); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}

// outputName derives "<dir>/<name><suffix>.bmp" from an input path.
func outputName(path, suffix string) string {
	base := strings.TrimSuffix(path, ".zst")
	return strings.TrimSuffix(base, filepath.Ext(base)) + suffix + ".bmp"
}
