package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/ledsync/model"
	"github.com/coreman2200/ledsync/pattern"
	"github.com/coreman2200/ledsync/ws2812"
)

type Clock struct {
	FrequencyHz int64  `yaml:"frequency_hz"` // e.g. 24000000
	Divisor     uint16 `yaml:"divisor"`      // e.g. 5
}

type SPI struct {
	Port     string `yaml:"port"`      // "" picks the first spireg port
	LatchPin string `yaml:"latch_pin"` // e.g. GPIO10; "" leaves MOSI idle
	NRZKHz   int64  `yaml:"nrz_khz"`   // nrz backend only
}

type Monitor struct {
	Addr string `yaml:"addr"` // "" disables the monitor
}

type Config struct {
	Backend       string  `yaml:"backend"` // "symbol" | "nrz" | "console"
	LEDs          int     `yaml:"leds"`
	FPS           int     `yaml:"fps"`
	Brightness    float64 `yaml:"brightness"`
	MaxBrightness uint8   `yaml:"max_brightness"` // alpha cap on the wire; 255 is none
	WhiteCap      float64 `yaml:"white_cap"`
	BudgetMA      float64 `yaml:"budget_ma"` // 0 disables
	Pattern       string  `yaml:"pattern"`
	Color         string  `yaml:"color"`

	Clock      Clock `yaml:"clock"`
	LatchUs    int   `yaml:"latch_us"`
	ReadyPolls int   `yaml:"ready_polls"`

	SPI     SPI     `yaml:"spi,omitempty"`
	Monitor Monitor `yaml:"monitor,omitempty"`
}

// Default is the MSP432 reference setup driving a 150 LED strip.
func Default() *Config {
	return &Config{
		Backend:       "symbol",
		LEDs:          150,
		FPS:           30,
		Brightness:    0.8,
		MaxBrightness: 255,
		WhiteCap:      0.85,
		Pattern:       string(pattern.Rainbow),
		Color:         "#FFFFFF",
		Clock: Clock{
			FrequencyHz: int64(ws2812.DefaultClockFrequency / physic.Hertz),
			Divisor:     ws2812.DefaultDivisor,
		},
		LatchUs:    int(ws2812.DefaultLatchHold / time.Microsecond),
		ReadyPolls: ws2812.DefaultReadyPolls,
		SPI:        SPI{NRZKHz: 2500},
		Monitor:    Monitor{Addr: ":8080"},
	}
}

// Load reads path over the defaults, so a file only needs the keys it
// changes.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.Backend {
	case "symbol", "nrz", "console":
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.LEDs <= 0 {
		return fmt.Errorf("leds must be positive, got %d", c.LEDs)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	}
	if c.Brightness < 0 || c.Brightness > 1 {
		return fmt.Errorf("brightness %v outside 0..1", c.Brightness)
	}
	if c.MaxBrightness == 0 {
		return fmt.Errorf("max_brightness must be positive")
	}
	if _, err := pattern.ParseKind(c.Pattern); err != nil {
		return err
	}
	if _, err := model.ParseHex(c.Color); err != nil {
		return err
	}
	if c.Clock.FrequencyHz <= 0 {
		return fmt.Errorf("clock frequency must be positive, got %d", c.Clock.FrequencyHz)
	}
	if c.BudgetMA < 0 {
		return fmt.Errorf("budget_ma must not be negative, got %v", c.BudgetMA)
	}
	if c.LatchUs < 0 {
		return fmt.Errorf("latch_us must not be negative, got %d", c.LatchUs)
	}
	return nil
}

// Driver converts the clock section into an encoder configuration.
func (c *Config) Driver() ws2812.Config {
	return ws2812.Config{
		ClockFrequency: physic.Frequency(c.Clock.FrequencyHz) * physic.Hertz,
		Divisor:        c.Clock.Divisor,
		LatchHold:      time.Duration(c.LatchUs) * time.Microsecond,
		ReadyPolls:     c.ReadyPolls,
	}
}

// Plan builds the pattern the config selects.
func (c *Config) Plan() (pattern.Plan, error) {
	k, err := pattern.ParseKind(c.Pattern)
	if err != nil {
		return pattern.Plan{}, err
	}
	col, err := model.ParseHex(c.Color)
	if err != nil {
		return pattern.Plan{}, err
	}
	return pattern.Plan{Kind: k, Color: col, Loop: true}, nil
}

// NRZFreq is the SPI clock for the nrz backend.
func (c *Config) NRZFreq() physic.Frequency {
	return physic.Frequency(c.SPI.NRZKHz) * physic.KiloHertz
}
