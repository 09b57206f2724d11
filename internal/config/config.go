package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Audio  AudioConfig  `mapstructure:"audio" yaml:"audio"`
	Output OutputConfig `mapstructure:"output" yaml:"output"`
	Tags   TagsConfig   `mapstructure:"tags" yaml:"tags"`
}

type AudioConfig struct {
	SampleRate  int `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels    int `mapstructure:"channels" yaml:"channels"`
	DeviceIndex int `mapstructure:"device_index" yaml:"device_index"` // stale indices fall back to device 0
	FadeSeconds int `mapstructure:"fade_seconds" yaml:"fade_seconds"`
}

type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
	Format    string `mapstructure:"format" yaml:"format"` // "mp3", "wav"
	Bitrate   int    `mapstructure:"bitrate" yaml:"bitrate"`
}

type TagsConfig struct {
	Title string `mapstructure:"title" yaml:"title"`
	Album string `mapstructure:"album" yaml:"album"`
	Track string `mapstructure:"track" yaml:"track"`
	Genre string `mapstructure:"genre" yaml:"genre"`
	Year  string `mapstructure:"year" yaml:"year"`
}

// supportedBitrates are the MP3 bitrates (kbit/s) the encoder accepts.
var supportedBitrates = []int{64, 96, 128, 160, 192, 256, 320}

var defaultConfig = Config{
	Audio: AudioConfig{
		SampleRate:  44100,
		Channels:    2,
		DeviceIndex: 0,
		FadeSeconds: 10,
	},
	Output: OutputConfig{
		Directory: filepath.Join(os.Getenv("HOME"), "Audio", "MicTape"),
		Format:    "mp3",
		Bitrate:   128,
	},
	Tags: TagsConfig{
		Album: "MicTape",
		Genre: "Speech",
	},
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Load reads the configuration file and merges it over the defaults.
// Environment variables with the MICTAPE prefix override file values.
func Load(configFile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified, use --config flag")
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetEnvPrefix("MICTAPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Output.Directory = expandPath(cfg.Output.Directory)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", defaultConfig.Audio.SampleRate)
	v.SetDefault("audio.channels", defaultConfig.Audio.Channels)
	v.SetDefault("audio.device_index", defaultConfig.Audio.DeviceIndex)
	v.SetDefault("audio.fade_seconds", defaultConfig.Audio.FadeSeconds)
	v.SetDefault("output.directory", defaultConfig.Output.Directory)
	v.SetDefault("output.format", defaultConfig.Output.Format)
	v.SetDefault("output.bitrate", defaultConfig.Output.Bitrate)
	v.SetDefault("tags.album", defaultConfig.Tags.Album)
	v.SetDefault("tags.genre", defaultConfig.Tags.Genre)
}

// Validate checks the configuration for values the recording pipeline
// cannot work with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0, got: %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got: %d", c.Audio.Channels)
	}
	if c.Audio.FadeSeconds <= 0 {
		return fmt.Errorf("audio.fade_seconds must be > 0, got: %d", c.Audio.FadeSeconds)
	}
	if c.Output.Directory == "" {
		return fmt.Errorf("output.directory is required")
	}

	switch c.Output.Format {
	case "mp3":
		if !isSupportedBitrate(c.Output.Bitrate) {
			return fmt.Errorf("output.bitrate must be one of %v, got: %d", supportedBitrates, c.Output.Bitrate)
		}
	case "wav":
		// Bitrate does not apply to PCM output.
	default:
		return fmt.Errorf("output.format must be 'mp3' or 'wav', got: %s", c.Output.Format)
	}

	return nil
}

func isSupportedBitrate(bitrate int) bool {
	for _, b := range supportedBitrates {
		if b == bitrate {
			return true
		}
	}
	return false
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
