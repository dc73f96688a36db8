package ledmatrix

import (
	"encoding"
	"fmt"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"libdb.so/ledmatrix/led"
	"libdb.so/ledmatrix/ledserial"
)

// MaxLEDs is the largest strip the serial protocol can address.
const MaxLEDs = 1<<16 - 1

// Config is the configuration for a matrix attached to a controller board.
type Config struct {
	// Device is the path to the serial device of the controller board.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0. If empty, the matrix is
	// kept in memory only.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
	// AckTimeout is how long to wait for the board to acknowledge a packet.
	AckTimeout TOMLDuration `toml:"ack_timeout"`
	// Matrix describes the LED matrix.
	Matrix MatrixConfig `toml:"matrix"`
	// DynamicBrightness enables per-LED brightness adoption.
	DynamicBrightness bool `toml:"dynamic_brightness"`
	// PaletteImage is an optional image file to derive a colour palette from.
	PaletteImage string `toml:"palette_image"`
}

// Default configuration values, used for keys missing from the TOML file.
const (
	DefaultBaud       = 115200
	DefaultAckTimeout = time.Second
	DefaultBrightness = 255
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Device != "" && c.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Baud)
	}
	if c.AckTimeout < 0 {
		return fmt.Errorf("invalid ack timeout %v", time.Duration(c.AckTimeout))
	}
	return c.Matrix.Validate()
}

// StripConfig configures a single LED strip.
type StripConfig struct {
	// Pin is the data pin the strip is connected to.
	Pin int `toml:"pin"`
	// Count is the number of LEDs on the strip.
	Count int `toml:"count"`
	// Order is the colour channel order of the LEDs, such as "GRB" or
	// "RGB". The zero value is GRB.
	Order ledserial.ColorOrder `toml:"order"`
	// Brightness is the initial global brightness.
	Brightness uint8 `toml:"brightness"`
	// Correction is the colour correction profile. The zero value selects
	// led.TypicalPixelString.
	Correction led.Correction `toml:"correction"`
	// Temperature is the colour temperature. The zero value selects
	// led.UncorrectedTemperature.
	Temperature led.Temperature `toml:"temperature"`
}

// Validate validates the configuration.
func (c *StripConfig) Validate() error {
	if c.Pin < 0 || c.Pin > 255 {
		return fmt.Errorf("invalid pin %d", c.Pin)
	}
	if c.Count < 1 {
		return errors.New("no LEDs configured")
	}
	if c.Count > MaxLEDs {
		return fmt.Errorf("too many LEDs: %d > %d", c.Count, MaxLEDs)
	}
	if !c.Order.Valid() {
		return fmt.Errorf("invalid color order %v", c.Order)
	}
	return nil
}

func (c *StripConfig) correction() led.Correction {
	if c.Correction == (led.Correction{}) {
		return led.TypicalPixelString
	}
	return c.Correction
}

func (c *StripConfig) temperature() led.Temperature {
	if c.Temperature == (led.Temperature{}) {
		return led.UncorrectedTemperature
	}
	return c.Temperature
}

// MatrixConfig configures a matrix made from a single serpentine strip.
type MatrixConfig struct {
	// Pin is the data pin the strip is connected to.
	Pin int `toml:"pin"`
	// Width is the number of dots per row.
	Width int `toml:"width"`
	// Height is the number of rows.
	Height int `toml:"height"`
	// Start is the corner the strip begins in.
	Start Corner `toml:"start"`
	// Order is the colour channel order of the LEDs. The zero value is GRB.
	Order ledserial.ColorOrder `toml:"order"`
	// Brightness is the initial global brightness.
	Brightness uint8 `toml:"brightness"`
	// Correction is the colour correction profile. The zero value selects
	// led.TypicalPixelString.
	Correction led.Correction `toml:"correction"`
	// Temperature is the colour temperature. The zero value selects
	// led.Tungsten40W.
	Temperature led.Temperature `toml:"temperature"`
}

// Validate validates the configuration.
func (c *MatrixConfig) Validate() error {
	if c.Width < 1 || c.Height < 1 {
		return fmt.Errorf("invalid matrix size %dx%d", c.Width, c.Height)
	}
	if c.Start > BottomRight {
		return fmt.Errorf("invalid start corner %v", c.Start)
	}
	strip := c.StripConfig()
	return strip.Validate()
}

// StripConfig returns the configuration of the strip forming the matrix.
func (c *MatrixConfig) StripConfig() StripConfig {
	temperature := c.Temperature
	if temperature == (led.Temperature{}) {
		temperature = led.Tungsten40W
	}
	return StripConfig{
		Pin:         c.Pin,
		Count:       c.Width * c.Height,
		Order:       c.Order,
		Brightness:  c.Brightness,
		Correction:  c.Correction,
		Temperature: temperature,
	}
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Missing keys are set to
// their defaults.
func ParseConfig(r io.Reader) (*Config, error) {
	tree, err := toml.LoadReader(r)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := tree.Unmarshal(&config); err != nil {
		return nil, err
	}

	if !tree.Has("baud") {
		config.Baud = DefaultBaud
	}
	if !tree.Has("ack_timeout") {
		config.AckTimeout = TOMLDuration(DefaultAckTimeout)
	}
	if !tree.Has("matrix.brightness") {
		config.Matrix.Brightness = DefaultBrightness
	}

	return &config, nil
}
