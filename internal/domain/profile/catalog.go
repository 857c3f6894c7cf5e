package profile

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/command"
)

// ErrInvalidProfile wraps every catalog validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Patch overrides the fields it sets and leaves the rest alone.
type Patch struct {
	MaxSize       *int           `json:"max_size,omitempty" yaml:"max_size,omitempty" toml:"max_size,omitempty"`
	BitrateMbps   *int           `json:"bitrate,omitempty" yaml:"bitrate,omitempty" toml:"bitrate,omitempty"`
	MaxFPS        *int           `json:"max_fps,omitempty" yaml:"max_fps,omitempty" toml:"max_fps,omitempty"`
	Codec         *command.Codec `json:"codec,omitempty" yaml:"codec,omitempty" toml:"codec,omitempty"`
	TurnScreenOff *bool          `json:"turn_screen_off,omitempty" yaml:"turn_screen_off,omitempty" toml:"turn_screen_off,omitempty"`
	StayAwake     *bool          `json:"stay_awake,omitempty" yaml:"stay_awake,omitempty" toml:"stay_awake,omitempty"`
	AlwaysOnTop   *bool          `json:"always_on_top,omitempty" yaml:"always_on_top,omitempty" toml:"always_on_top,omitempty"`
	Fullscreen    *bool          `json:"fullscreen,omitempty" yaml:"fullscreen,omitempty" toml:"fullscreen,omitempty"`
	AspectLock    *bool          `json:"aspect_lock,omitempty" yaml:"aspect_lock,omitempty" toml:"aspect_lock,omitempty"`
}

// Apply returns o with every set field of p written over it.
func (p Patch) Apply(o command.Options) command.Options {
	if p.MaxSize != nil {
		o.MaxSize = *p.MaxSize
	}
	if p.BitrateMbps != nil {
		o.BitrateMbps = *p.BitrateMbps
	}
	if p.MaxFPS != nil {
		o.MaxFPS = *p.MaxFPS
	}
	if p.Codec != nil {
		o.Codec = *p.Codec
	}
	if p.TurnScreenOff != nil {
		o.TurnScreenOff = *p.TurnScreenOff
	}
	if p.StayAwake != nil {
		o.StayAwake = *p.StayAwake
	}
	if p.AlwaysOnTop != nil {
		o.AlwaysOnTop = *p.AlwaysOnTop
	}
	if p.Fullscreen != nil {
		o.Fullscreen = *p.Fullscreen
	}
	if p.AspectLock != nil {
		o.AspectLock = *p.AspectLock
	}
	return o
}

// Override applies Options to every serial matching the Match pattern,
// e.g. "192.168.*:5555" for wireless devices on one subnet.
type Override struct {
	Match   string `json:"match" yaml:"match" toml:"match"`
	Options Patch  `json:"options" yaml:"options" toml:"options"`
}

// Matches reports whether serial is selected by the override.
func (o Override) Matches(serial string) bool {
	ok, err := doublestar.Match(o.Match, serial)
	return err == nil && ok
}

// Catalog is a decoded profile file: a preset, a global patch on top of
// it, and per-device overrides applied in declaration order.
type Catalog struct {
	Preset  string     `json:"preset,omitempty" yaml:"preset,omitempty" toml:"preset,omitempty"`
	Global  Patch      `json:"global" yaml:"global" toml:"global"`
	Devices []Override `json:"devices,omitempty" yaml:"devices,omitempty" toml:"devices,omitempty"`

	// Source and Digest identify the file the catalog was read from.
	Source string `json:"-" yaml:"-" toml:"-"`
	Digest string `json:"-" yaml:"-" toml:"-"`
}

// Builtin returns a catalog holding only the named preset.
func Builtin(preset string) (*Catalog, error) {
	c := &Catalog{Preset: preset}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Options returns the global options: the preset with the global patch.
func (c *Catalog) Options() command.Options {
	base, err := command.Preset(c.Preset)
	if err != nil {
		base = command.Default()
	}
	return c.Global.Apply(base)
}

// ApplyOverrides writes every override matching serial over base.
func (c *Catalog) ApplyOverrides(base command.Options, serial string) command.Options {
	for _, o := range c.Devices {
		if o.Matches(serial) {
			base = o.Options.Apply(base)
		}
	}
	return base
}

// Resolve returns the options a session for serial starts with.
func (c *Catalog) Resolve(serial string) command.Options {
	return c.ApplyOverrides(c.Options(), serial)
}

// Validate checks the preset name, every selector pattern and that the
// global options and each override on top of them are acceptable.
func (c *Catalog) Validate() error {
	if _, err := command.Preset(c.Preset); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	global := c.Options()
	if err := global.Validate(); err != nil {
		return fmt.Errorf("%w: global: %v", ErrInvalidProfile, err)
	}
	for i, o := range c.Devices {
		if o.Match == "" || !doublestar.ValidatePattern(o.Match) {
			return fmt.Errorf("%w: devices[%d]: bad match pattern %q", ErrInvalidProfile, i, o.Match)
		}
		if err := o.Options.Apply(global).Validate(); err != nil {
			return fmt.Errorf("%w: devices[%d] (%s): %v", ErrInvalidProfile, i, o.Match, err)
		}
	}
	return nil
}
