package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Device    DeviceConfig    `yaml:"device"`
	Narration NarrationConfig `yaml:"narration"`
	Client    ClientConfig    `yaml:"client"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	PicturesDir    string        `yaml:"pictures_dir"`
	StaticDir      string        `yaml:"static_dir"`
	GazeThrottle   time.Duration `yaml:"gaze_throttle"`
	MaxWSClients   int           `yaml:"max_ws_clients"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type DeviceConfig struct {
	ScreenWidth  float64 `yaml:"screen_width"`
	ScreenHeight float64 `yaml:"screen_height"`
	SampleRate   int     `yaml:"sample_rate"`
	BufferSize   int     `yaml:"buffer_size"`
	BlinkChance  float64 `yaml:"blink_chance"`
	Seed         int64   `yaml:"seed"`
}

type NarrationConfig struct {
	Provider    string            `yaml:"provider"`
	Model       string            `yaml:"model"`
	TTSProvider string            `yaml:"tts_provider"`
	TTSModel    string            `yaml:"tts_model"`
	Voices      map[string]string `yaml:"voices"`
	MaxImages   int               `yaml:"max_images"`
}

type ClientConfig struct {
	ControllerURL    string        `yaml:"controller_url"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	LifecycleTimeout time.Duration `yaml:"lifecycle_timeout"`
	Age              int           `yaml:"age"`
	Language         string        `yaml:"language"`
	Player           []string      `yaml:"player"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			PicturesDir:  "pictures",
			StaticDir:    "static",
			GazeThrottle: 50 * time.Millisecond,
		},
		Device: DeviceConfig{
			ScreenWidth:  1920,
			ScreenHeight: 1080,
			SampleRate:   60,
			BufferSize:   100,
			BlinkChance:  0.05,
		},
		Narration: NarrationConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			TTSProvider: "openai",
			TTSModel:    "tts-1",
			Voices: map[string]string{
				"en-US": "nova",
				"es-ES": "shimmer",
				"fr-FR": "alloy",
			},
			MaxImages: 4,
		},
		Client: ClientConfig{
			ControllerURL:    "http://127.0.0.1:8000",
			PollInterval:     50 * time.Millisecond,
			LifecycleTimeout: 5 * time.Second,
			Age:              5,
			Language:         "en-US",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Load reads a YAML file over the defaults, so a config file only needs
// the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Voice maps a reader language onto a synthesis voice, falling back to
// the en-US voice and then to "nova".
func (c *Config) Voice(language string) string {
	if v, ok := c.Narration.Voices[language]; ok {
		return v
	}
	if v, ok := c.Narration.Voices["en-US"]; ok {
		return v
	}
	return "nova"
}
