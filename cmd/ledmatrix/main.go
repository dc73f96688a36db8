package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"libdb.so/ledmatrix"
	"libdb.so/ledmatrix/internal/memdev"
	"libdb.so/ledmatrix/led"
	"libdb.so/ledmatrix/serialdev"
)

var (
	config       = "ledmatrix.toml"
	verbose      = false
	dryRun       = false
	hold         = false
	reset        = false
	color        = "#ffffff"
	rect         = ""
	row          = -1
	brightness   = -1
	paletteIndex = -1
	adopt        = 0
)

func init() {
	pflag.StringVarP(&config, "config", "c", config, "configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose output")
	pflag.BoolVarP(&dryRun, "dry-run", "n", dryRun, "do not open the device, print the frame instead")
	pflag.BoolVar(&hold, "hold", hold, "keep the matrix lit until interrupted, then turn it off")
	pflag.BoolVar(&reset, "reset", reset, "turn off all LEDs and exit")
	pflag.StringVar(&color, "color", color, "fill color as #rrggbb")
	pflag.StringVar(&rect, "rect", rect, "fill only the rectangle x0,y0,x1,y1 (inclusive)")
	pflag.IntVar(&row, "row", row, "fill only this row")
	pflag.IntVar(&brightness, "brightness", brightness, "global brightness 0-255, overrides the config")
	pflag.IntVar(&paletteIndex, "palette-index", paletteIndex, "take the color from the configured palette at this index 0-255")
	pflag.IntVar(&adopt, "adopt", adopt, "brighten (or dim, if negative) the filled LEDs, needs dynamic_brightness")
}

func main() {
	pflag.Parse()

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := readConfig()
	if err != nil {
		return err
	}

	if brightness >= 0 {
		if brightness > 255 {
			return fmt.Errorf("invalid brightness %d", brightness)
		}
		cfg.Matrix.Brightness = uint8(brightness)
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var drv ledmatrix.Driver
	var mem *memdev.Driver
	if dryRun || cfg.Device == "" {
		mem = memdev.New(slog.Default())
		drv = mem
	} else {
		drv = serialdev.New(serialdev.Config{
			Device:     cfg.Device,
			Baud:       cfg.Baud,
			AckTimeout: time.Duration(cfg.AckTimeout),
		}, slog.Default())
	}

	m, err := ledmatrix.NewMatrix(drv, cfg.Matrix, slog.Default())
	if err != nil {
		return errors.Wrap(err, "failed to attach matrix")
	}
	defer m.Close()

	if reset {
		return m.Reset()
	}

	c, err := fillColor(cfg)
	if err != nil {
		return err
	}

	topLeft, bottomRight, err := fillArea(m)
	if err != nil {
		return err
	}

	if err := m.FillRect(topLeft, bottomRight, c, false); err != nil {
		return errors.Wrap(err, "failed to fill")
	}

	if cfg.DynamicBrightness && adopt != 0 {
		if err := adoptArea(m, topLeft, bottomRight, int16(adopt)); err != nil {
			return err
		}
	}

	if err := m.Show(); err != nil {
		return errors.Wrap(err, "failed to show")
	}

	if mem != nil {
		printFrame(m, mem.Handle(cfg.Matrix.Pin).Emitted())
	}

	if hold {
		<-ctx.Done()
		if err := m.Reset(); err != nil {
			return errors.Wrap(err, "failed to turn off")
		}
	}

	return nil
}

func readConfig() (*ledmatrix.Config, error) {
	f, err := os.Open(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	return ledmatrix.ParseConfig(f)
}

func fillColor(cfg *ledmatrix.Config) (led.RGBColor, error) {
	if paletteIndex < 0 {
		c, err := led.ParseRGBColor(color)
		if err != nil {
			return led.RGBColor{}, errors.Wrap(err, "invalid --color")
		}
		return c, nil
	}

	if paletteIndex > 255 {
		return led.RGBColor{}, fmt.Errorf("invalid palette index %d", paletteIndex)
	}
	if cfg.PaletteImage == "" {
		return led.RGBColor{}, errors.New("--palette-index needs palette_image in the config")
	}

	palette, err := loadPalette(cfg.PaletteImage)
	if err != nil {
		return led.RGBColor{}, err
	}

	return led.ColorFromPalette(&palette, uint8(paletteIndex), 255, led.LinearBlend), nil
}

func loadPalette(path string) (led.Palette16, error) {
	f, err := os.Open(path)
	if err != nil {
		return led.Palette16{}, errors.Wrap(err, "failed to open palette image")
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return led.Palette16{}, errors.Wrap(err, "failed to decode palette image")
	}

	slog.Debug("loaded palette image", "path", path, "format", format, "bounds", img.Bounds())
	return led.PaletteFromImage(img), nil
}

func fillArea(m *ledmatrix.Matrix) (topLeft, bottomRight ledmatrix.Dot, err error) {
	topLeft = ledmatrix.Dot{X: 0, Y: 0}
	bottomRight = ledmatrix.Dot{X: m.Width() - 1, Y: m.Height() - 1}

	switch {
	case rect != "" && row >= 0:
		return topLeft, bottomRight, errors.New("--rect and --row are mutually exclusive")
	case rect != "":
		return parseRect(rect)
	case row >= 0:
		topLeft.Y = row
		bottomRight.Y = row
	}

	return topLeft, bottomRight, nil
}

func parseRect(s string) (topLeft, bottomRight ledmatrix.Dot, err error) {
	var x0, y0, x1, y1 int
	if _, err := fmt.Sscanf(s, "%d,%d,%d,%d", &x0, &y0, &x1, &y1); err != nil {
		return topLeft, bottomRight, errors.Wrapf(err, "invalid rectangle %q", s)
	}
	return ledmatrix.Dot{X: x0, Y: y0}, ledmatrix.Dot{X: x1, Y: y1}, nil
}

func adoptArea(m *ledmatrix.Matrix, topLeft, bottomRight ledmatrix.Dot, diff int16) error {
	a := ledmatrix.NewBrightnessAdopter(m.Strip())
	a.Enable()

	for y := min(topLeft.Y, bottomRight.Y); y <= max(topLeft.Y, bottomRight.Y); y++ {
		for x := min(topLeft.X, bottomRight.X); x <= max(topLeft.X, bottomRight.X); x++ {
			i, err := m.IndexOf(ledmatrix.Dot{X: x, Y: y})
			if err != nil {
				// Clipped like the fill.
				continue
			}
			if err := a.AdoptPixel(diff, i); err != nil {
				return err
			}
		}
	}

	return nil
}

func printFrame(m *ledmatrix.Matrix, frame led.LEDs) {
	var sb strings.Builder
	for y := 0; y < m.Height(); y++ {
		for x := 0; x < m.Width(); x++ {
			i, _ := m.IndexOf(ledmatrix.Dot{X: x, Y: y})
			if x > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(frame[i].String())
		}
		sb.WriteByte('\n')
	}
	fmt.Print(sb.String())
}
