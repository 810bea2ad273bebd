package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-stoneboard/internal/classify"
	"github.com/coreman2200/funtimes-stoneboard/internal/mqtt"
	"github.com/coreman2200/funtimes-stoneboard/internal/report"
	"github.com/coreman2200/funtimes-stoneboard/model"
)

type Pins struct {
	Rows []string `yaml:"rows"` // row bank S0..S3, e.g. GPIO10
	Cols []string `yaml:"cols"` // column bank M0..M3, e.g. GPIO4
}

type ADC struct {
	I2CBus    string `yaml:"i2c_bus"`
	Address   uint16 `yaml:"address"`
	Channel   int    `yaml:"channel"`
	MaxMilliV int    `yaml:"max_mv"`
	RateHz    int    `yaml:"rate_hz"`
}

type Scan struct {
	SettleUs int `yaml:"settle_us"`
	CycleMs  int `yaml:"cycle_ms"`
}

type Serial struct {
	Dev                string `yaml:"dev"` // e.g. /dev/ttyUSB0; empty disables
	report.PortOptions `yaml:",inline"`
}

type LED struct {
	Enabled      bool   `yaml:"enabled"`
	Port         string `yaml:"port"`
	FreqKHz      int    `yaml:"freq_khz"`
	FlipEveryRow bool   `yaml:"flip_every_row"`
	Brightness   uint8  `yaml:"brightness"` // 0-255, capped at model.MAX_BRIGHTNESS
}

type Record struct {
	Path string `yaml:"path"` // sqlite file; empty disables
}

type Config struct {
	Driver string `yaml:"driver"` // "hw" | "sim"
	Addr   string `yaml:"addr"`

	Pins        Pins                `yaml:"pins"`
	ADC         ADC                 `yaml:"adc"`
	Scan        Scan                `yaml:"scan"`
	Thresholds  classify.Thresholds `yaml:"thresholds"`
	Orientation model.Orientation   `yaml:"orientation"`

	Serial Serial       `yaml:"serial,omitempty"`
	LED    LED          `yaml:"led,omitempty"`
	MQTT   mqtt.Options `yaml:"mqtt,omitempty"` // empty broker disables
	Record Record       `yaml:"record,omitempty"`
}

// Default returns the reference board setup.
func Default() *Config {
	return &Config{
		Driver: "hw",
		Addr:   ":8080",
		Pins: Pins{
			Rows: []string{"GPIO10", "GPIO11", "GPIO12", "GPIO13"},
			Cols: []string{"GPIO4", "GPIO5", "GPIO6", "GPIO7"},
		},
		ADC:        ADC{Address: 0x48, MaxMilliV: 3300, RateHz: 860},
		Scan:       Scan{SettleUs: 10, CycleMs: 100},
		Thresholds: classify.DefaultThresholds,
		LED:        LED{FreqKHz: 2500, FlipEveryRow: true, Brightness: model.MAX_BRIGHTNESS},
		MQTT:       mqtt.Options{ClientID: "stoneboard", Topic: "stoneboard", Timeout: time.Second},
	}
}

func (c *Config) Settle() time.Duration { return time.Duration(c.Scan.SettleUs) * time.Microsecond }
func (c *Config) Cycle() time.Duration  { return time.Duration(c.Scan.CycleMs) * time.Millisecond }

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Driver {
	case "hw", "sim":
	default:
		return fmt.Errorf("driver %q: want hw or sim", c.Driver)
	}
	if len(c.Pins.Rows) != 4 || len(c.Pins.Cols) != 4 {
		return fmt.Errorf("pins: need 4 row and 4 column address pins, got %d and %d", len(c.Pins.Rows), len(c.Pins.Cols))
	}
	if c.ADC.Channel < 0 || c.ADC.Channel > 3 {
		return fmt.Errorf("adc.channel %d: want 0-3", c.ADC.Channel)
	}
	if c.Scan.SettleUs < 0 || c.Scan.CycleMs < 0 {
		return fmt.Errorf("scan: settle_us and cycle_ms must not be negative")
	}
	if c.Thresholds.Black < 0 || c.Thresholds.White < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	if c.Orientation.Rotation < 0 || c.Orientation.Rotation > 3 {
		return fmt.Errorf("orientation.rotation %d: want 0-3", c.Orientation.Rotation)
	}
	return nil
}

// Load reads path over the defaults, so a partial file only changes what it
// names.
func Load(path string) (*Config, error) {
	c := Default()
	if err := Merge(c, path); err != nil {
		return nil, err
	}
	return c, nil
}

// Merge reads path over c. Every key present in the file replaces the value
// in c, even when it equals the default; keys the file leaves out keep what c
// already holds. c is validated afterwards and is left unchanged on error.
func Merge(c *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	merged := *c
	merged.Pins = Pins{
		Rows: append([]string(nil), c.Pins.Rows...),
		Cols: append([]string(nil), c.Pins.Cols...),
	}
	if err := yaml.Unmarshal(b, &merged); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	*c = merged
	return nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
