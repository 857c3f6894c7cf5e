package command

import (
	"errors"
	"fmt"
	"slices"
)

// Codec is a video codec accepted by --video-codec.
type Codec string

const (
	CodecH264 Codec = "h264"
	CodecH265 Codec = "h265"
	CodecAV1  Codec = "av1"
)

// Accepted option values. Zero means native size or uncapped frame rate.
var (
	MaxSizes   = []int{0, 1920, 1600, 1280, 1024, 800}
	FrameRates = []int{0, 30, 60, 90, 120}
	Codecs     = []Codec{CodecH264, CodecH265, CodecAV1}
)

const (
	MinBitrate = 1
	MaxBitrate = 50
)

// ErrInvalidOptions wraps every validation failure.
var ErrInvalidOptions = errors.New("invalid mirroring options")

// Options is an immutable snapshot of the mirroring configuration.
type Options struct {
	MaxSize       int   `json:"max_size" yaml:"max_size" toml:"max_size"`
	BitrateMbps   int   `json:"bitrate" yaml:"bitrate" toml:"bitrate"`
	MaxFPS        int   `json:"max_fps" yaml:"max_fps" toml:"max_fps"`
	Codec         Codec `json:"codec" yaml:"codec" toml:"codec"`
	TurnScreenOff bool  `json:"turn_screen_off" yaml:"turn_screen_off" toml:"turn_screen_off"`
	StayAwake     bool  `json:"stay_awake" yaml:"stay_awake" toml:"stay_awake"`
	AlwaysOnTop   bool  `json:"always_on_top" yaml:"always_on_top" toml:"always_on_top"`
	Fullscreen    bool  `json:"fullscreen" yaml:"fullscreen" toml:"fullscreen"`
	// AspectLock is enforced by the supervisor and produces no flag.
	AspectLock bool `json:"aspect_lock" yaml:"aspect_lock" toml:"aspect_lock"`
}

// Validate checks every field against the accepted values.
func (o Options) Validate() error {
	if !slices.Contains(MaxSizes, o.MaxSize) {
		return fmt.Errorf("%w: max_size %d not in %v", ErrInvalidOptions, o.MaxSize, MaxSizes)
	}
	if o.BitrateMbps < MinBitrate || o.BitrateMbps > MaxBitrate {
		return fmt.Errorf("%w: bitrate %d outside %d..%d", ErrInvalidOptions, o.BitrateMbps, MinBitrate, MaxBitrate)
	}
	if !slices.Contains(FrameRates, o.MaxFPS) {
		return fmt.Errorf("%w: max_fps %d not in %v", ErrInvalidOptions, o.MaxFPS, FrameRates)
	}
	if !slices.Contains(Codecs, o.Codec) {
		return fmt.Errorf("%w: codec %q not in %v", ErrInvalidOptions, o.Codec, Codecs)
	}
	return nil
}

// Preset names.
const (
	PresetFast        = "fast"
	PresetHighQuality = "high-quality"
	PresetCustom      = "custom"
)

var presets = map[string]Options{
	PresetFast: {
		MaxSize:     1024,
		BitrateMbps: 4,
		MaxFPS:      60,
		Codec:       CodecH264,
	},
	PresetHighQuality: {
		BitrateMbps: 8,
		Codec:       CodecH264,
	},
}

// Default returns the high-quality preset.
func Default() Options {
	return presets[PresetHighQuality]
}

// Preset returns the named preset. "custom" and "" return Default, which
// callers then overlay with explicit values.
func Preset(name string) (Options, error) {
	switch name {
	case "", PresetCustom:
		return Default(), nil
	}
	o, ok := presets[name]
	if !ok {
		return Options{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidOptions, name)
	}
	return o, nil
}

// PresetNames lists the selectable preset names.
func PresetNames() []string {
	return []string{PresetFast, PresetHighQuality, PresetCustom}
}
