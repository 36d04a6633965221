// Package config handles stlxform configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Faultbox/stlxform/pkg/stl"
)

// Angle units accepted by transform.angle_unit.
const (
	AngleRadians = "radians"
	AngleDegrees = "degrees"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all tool settings.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Output    OutputConfig    `yaml:"output"`
	Transform TransformConfig `yaml:"transform"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutputConfig controls how the transformed mesh is encoded.
type OutputConfig struct {
	Format    string `yaml:"format"`     // auto, binary or ascii
	SolidName string `yaml:"solid_name"` // empty keeps the input's name
}

// TransformConfig controls how transform arguments are interpreted.
type TransformConfig struct {
	AngleUnit string `yaml:"angle_unit"` // radians or degrees
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Output: OutputConfig{
			Format: stl.FormatAuto.String(),
		},
		Transform: TransformConfig{
			AngleUnit: AngleRadians,
		},
	}
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if _, err := stl.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("%w: output.format: %v", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.Transform.AngleUnit) {
	case AngleRadians, AngleDegrees:
	default:
		return fmt.Errorf("%w: transform.angle_unit must be %q or %q, got %q",
			ErrInvalidConfig, AngleRadians, AngleDegrees, c.Transform.AngleUnit)
	}
	return nil
}

// OutputFormat returns the parsed output format. Call Validate first.
func (c *Config) OutputFormat() stl.Format {
	f, _ := stl.ParseFormat(c.Output.Format)
	return f
}

// Degrees reports whether rotation arguments are given in degrees.
func (c *Config) Degrees() bool {
	return strings.EqualFold(c.Transform.AngleUnit, AngleDegrees)
}
