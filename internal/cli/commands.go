package cli

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/anas-shakeel/go-bmp4/internal/adjustments"
	"github.com/anas-shakeel/go-bmp4/internal/bmp"
	"github.com/anas-shakeel/go-bmp4/internal/filters"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v2"
)

var errUsage = errors.New("wrong number of arguments")

func (r *Root) infoCommand() *ffcli.Command {
	fs := flag.NewFlagSet("go-bmp info", flag.ContinueOnError)
	format := fs.String("format", "text", "Output format: text or yaml")

	return &ffcli.Command{
		Name:       "info",
		ShortUsage: "go-bmp info [-format text|yaml] <file>",
		ShortHelp:  "Print the file and info headers",
		FlagSet:    fs,
		Options:    subcommandOptions(),
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			logger, err := r.logger()
			if err != nil {
				return err
			}
			b, err := decodeFile(args[0], logger, false, 0)
			if err != nil {
				return err
			}
			defer b.Release()

			switch *format {
			case "text":
				b.PrintMetadata(r.Stdout)
				return nil
			case "yaml":
				out, err := yaml.Marshal(b.Metadata())
				if err != nil {
					return err
				}
				_, err = r.Stdout.Write(out)
				return err
			default:
				return fmt.Errorf("unknown format %q", *format)
			}
		},
	}
}

func (r *Root) viewCommand() *ffcli.Command {
	fs := flag.NewFlagSet("go-bmp view", flag.ContinueOnError)

	return &ffcli.Command{
		Name:       "view",
		ShortUsage: "go-bmp view <file>",
		ShortHelp:  "Print the bitmap in the terminal (small images only)",
		FlagSet:    fs,
		Options:    subcommandOptions(),
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			logger, err := r.logger()
			if err != nil {
				return err
			}
			b, err := decodeFile(args[0], logger, true, 32)
			if err != nil {
				return err
			}
			defer b.Release()
			b.PrintBitmap(r.Stdout)
			return nil
		},
	}
}

// parseColor parses RRGGBB or RRGGBBAA
func parseColor(s string) (bmp.Color32, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "#"))
	if err != nil || (len(raw) != 3 && len(raw) != 4) {
		return bmp.Color32{}, fmt.Errorf("invalid color %q: want RRGGBB or RRGGBBAA", s)
	}
	c := bmp.Color32{R: raw[0], G: raw[1], B: raw[2], A: 0xFF}
	if len(raw) == 4 {
		c.A = raw[3]
	}
	return c, nil
}

func (r *Root) createCommand() *ffcli.Command {
	fs := flag.NewFlagSet("go-bmp create", flag.ContinueOnError)
	width := fs.Int("width", 64, "Image width in pixels")
	height := fs.Int("height", 64, "Image height in pixels")
	bpp := fs.Uint("bpp", 32, "Bits per pixel: 24 or 32")
	color := fs.String("color", "FFFFFFFF", "Fill color as RRGGBB or RRGGBBAA")
	topDown := fs.Bool("top-down", false, "Store rows top to bottom (negative height)")

	return &ffcli.Command{
		Name:       "create",
		ShortUsage: "go-bmp create [flags] <file>",
		ShortHelp:  "Create a solid color bitmap and print its headers",
		FlagSet:    fs,
		Options:    subcommandOptions(),
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return errUsage
			}
			logger, err := r.logger()
			if err != nil {
				return err
			}
			c, err := parseColor(*color)
			if err != nil {
				return err
			}
			if *bpp != 24 && *bpp != 32 {
				return fmt.Errorf("unsupported bit count %d", *bpp)
			}
			if *width <= 0 || *height <= 0 {
				return fmt.Errorf("invalid size %dx%d", *width, *height)
			}

			pixel := c.BytesBGRA()[:*bpp/8]
			pixels := make([]byte, 0, *width * *height * len(pixel))
			for range *width * *height {
				pixels = append(pixels, pixel...)
			}
			h := *height
			if *topDown {
				h = -h
			}

			b, err := bmp.Create(args[0], *width, h, uint16(*bpp), pixels, bmp.WithLogger(logger))
			if err != nil {
				return err
			}
			defer b.Release()

			// Create leaves the file rewound: read back what was written.
			written, err := bmp.Decode(b.Stream(), bmp.WithLogger(logger))
			if err != nil {
				return err
			}
			written.Filename = args[0]
			written.PrintMetadata(r.Stdout)
			return nil
		},
	}
}

// batch applies fn to every file, at most concurrency files at a time, and
// saves each result next to its input with suffix appended to the name.
func (r *Root) batch(ctx context.Context, files []string, concurrency int, suffix string,
	fn func(b *bmp.BitmapImage) error) error {
	if len(files) == 0 {
		return errUsage
	}
	logger, err := r.logger()
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for _, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := decodeFile(path, logger, false, 0)
			if err != nil {
				return err
			}
			defer b.Release()
			if err := fn(b); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			out := outputName(path, suffix)
			if err := b.Save(out); err != nil {
				return err
			}
			logger.Info("saved", zap.String("input", path), zap.String("output", out))
			return nil
		})
	}
	return g.Wait()
}

func (r *Root) invertCommand() *ffcli.Command {
	fs := flag.NewFlagSet("go-bmp invert", flag.ContinueOnError)
	suffix := fs.String("suffix", "_inverted", "Suffix added to output file names")
	concurrency := fs.Int("concurrency", 4, "Files processed at the same time (0: no limit)")

	return &ffcli.Command{
		Name:       "invert",
		ShortUsage: "go-bmp invert [flags] <file>...",
		ShortHelp:  "Invert the colors of each file (alpha is kept)",
		FlagSet:    fs,
		Options:    subcommandOptions(),
		Exec: func(ctx context.Context, args []string) error {
			return r.batch(ctx, args, *concurrency, *suffix, func(b *bmp.BitmapImage) error {
				filters.Invert(b)
				return nil
			})
		},
	}
}

func (r *Root) filterCommand() *ffcli.Command {
	fs := flag.NewFlagSet("go-bmp filter", flag.ContinueOnError)
	op := fs.String("op", "grayscale", "Filter: grayscale, luma, brightness, contrast, red, green, blue or flip")
	factor := fs.Float64("factor", 1.0, "Factor for brightness and contrast")
	method := fs.String("method", "add", "Brightness method: add or multiply")
	suffix := fs.String("suffix", "", "Suffix added to output file names (default: _<op>)")
	concurrency := fs.Int("concurrency", 4, "Files processed at the same time (0: no limit)")

	return &ffcli.Command{
		Name:       "filter",
		ShortUsage: "go-bmp filter [flags] <file>...",
		ShortHelp:  "Apply a color filter to each file",
		FlagSet:    fs,
		Options:    subcommandOptions(),
		Exec: func(ctx context.Context, args []string) error {
			var fn func(b *bmp.BitmapImage) error
			switch *op {
			case "grayscale":
				fn = func(b *bmp.BitmapImage) error { filters.Grayscale(b); return nil }
			case "luma":
				fn = func(b *bmp.BitmapImage) error { filters.GrayscaleLuma(b); return nil }
			case "brightness":
				fn = func(b *bmp.BitmapImage) error { return filters.Brightness(b, *factor, *method) }
			case "contrast":
				fn = func(b *bmp.BitmapImage) error { filters.Contrast(b, *factor); return nil }
			case "red", "green", "blue":
				fn = func(b *bmp.BitmapImage) error {
					channel, err := b.GetChannel(*op)
					if err != nil {
						return err
					}
					copy(b.Pixels, channel.Pixels)
					return nil
				}
			case "flip":
				fn = func(b *bmp.BitmapImage) error { adjustments.FlipVertical(b); return nil }
			default:
				return fmt.Errorf("unknown filter %q", *op)
			}
			s := *suffix
			if s == "" {
				s = "_" + *op
			}
			return r.batch(ctx, args, *concurrency, s, fn)
		},
	}
}

func (r *Root) cropCommand() *ffcli.Command {
	fs := flag.NewFlagSet("go-bmp crop", flag.ContinueOnError)
	x := fs.Int("x", 0, "Left edge of the region")
	y := fs.Int("y", 0, "Top edge of the region")
	width := fs.Int("width", 0, "Region width")
	height := fs.Int("height", 0, "Region height")

	return &ffcli.Command{
		Name:       "crop",
		ShortUsage: "go-bmp crop -x X -y Y -width W -height H <in> <out>",
		ShortHelp:  "Crop a region (0,0 is the top-left corner)",
		FlagSet:    fs,
		Options:    subcommandOptions(),
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 2 {
				return errUsage
			}
			logger, err := r.logger()
			if err != nil {
				return err
			}
			b, err := decodeFile(args[0], logger, false, 0)
			if err != nil {
				return err
			}
			defer b.Release()
			cropped, err := adjustments.Crop(b, *x, *y, *width, *height)
			if err != nil {
				return err
			}
			defer cropped.Release()
			return writeOutput(cropped, args[1], false)
		},
	}
}

func (r *Root) convertCommand() *ffcli.Command {
	fs := flag.NewFlagSet("go-bmp convert", flag.ContinueOnError)
	bpp := fs.Uint("bpp", 0, "Output bits per pixel: 24 or 32 (0: keep the input's)")
	compress := fs.Bool("zstd", false, "Compress the output BMP with zstd")

	return &ffcli.Command{
		Name:       "convert",
		ShortUsage: "go-bmp convert [-bpp 24|32] [-zstd] <in> <out>",
		ShortHelp:  "Convert any BMP (optionally zstd compressed) to a V4 BMP or a PNG",
		FlagSet:    fs,
		Options:    subcommandOptions(),
		Exec: func(_ context.Context, args []string) error {
			if len(args) != 2 {
				return errUsage
			}
			if *bpp != 0 && *bpp != 24 && *bpp != 32 {
				return fmt.Errorf("unsupported bit count %d", *bpp)
			}
			logger, err := r.logger()
			if err != nil {
				return err
			}
			fallbackBpp := uint16(*bpp)
			if fallbackBpp == 0 {
				fallbackBpp = 32
			}
			b, err := decodeFile(args[0], logger, true, fallbackBpp)
			if err != nil {
				return err
			}
			defer b.Release()

			if *bpp != 0 && uint16(*bpp) != b.BIHeader.BitCount {
				converted, err := bmp.FromImage(b.ToNRGBA(), uint16(*bpp), bmp.WithLogger(logger))
				if err != nil {
					return err
				}
				defer converted.Release()
				b = converted
			}
			return writeOutput(b, args[1], *compress)
		},
	}
}
