package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName   = "config.toml"
	DefaultDBName           = "korobochka.db"
	DefaultFallbackFileName = "korobochka-fallback.json"
	DefaultLogFileName      = "korobochka.log"
	DefaultTimerMinutes     = 15
)

type Keymap struct {
	Quit       string `toml:"quit"`
	Add        string `toml:"add"`
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	Toggle     string `toml:"toggle"`
	Complete   string `toml:"complete"`
	Delete     string `toml:"delete"`
	Random     string `toml:"random"`
	Daily      string `toml:"daily"`
	Collapse   string `toml:"collapse"`
	Export     string `toml:"export"`
	Import     string `toml:"import"`
	Confirm    string `toml:"confirm"`
	Cancel     string `toml:"cancel"`
	Edit       string `toml:"edit"`
	ToggleSub  string `toml:"toggle_subcategory"`
	ReturnTask string `toml:"return_task"`
}

type Config struct {
	DBPath       string `toml:"db_path"`
	FallbackPath string `toml:"fallback_path"`
	LogPath      string `toml:"log_path"`
	TimerMinutes int    `toml:"timer_minutes"`
	Keys         Keymap `toml:"keys"`
}

// ResolveConfigPath places the config under $XDG_CONFIG_HOME/korobochka
// (or ~/.config/korobochka), falling back to the working directory when
// no home directory is known.
func ResolveConfigPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfigFileName
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "korobochka", DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	dir := filepath.Dir(path)
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(dir, DefaultDBName)
	}
	if cfg.FallbackPath == "" {
		cfg.FallbackPath = filepath.Join(dir, DefaultFallbackFileName)
	}
	if cfg.LogPath == "" {
		cfg.LogPath = filepath.Join(dir, DefaultLogFileName)
	}
	if cfg.TimerMinutes <= 0 {
		cfg.TimerMinutes = DefaultTimerMinutes
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		DBPath:       filepath.Join(dir, DefaultDBName),
		FallbackPath: filepath.Join(dir, DefaultFallbackFileName),
		LogPath:      filepath.Join(dir, DefaultLogFileName),
		TimerMinutes: DefaultTimerMinutes,
		Keys: Keymap{
			Quit:       "q",
			Add:        "a",
			Up:         "k",
			Down:       "j",
			Toggle:     " ",
			Complete:   "c",
			Delete:     "d",
			Random:     "r",
			Daily:      "v",
			Collapse:   "z",
			Export:     "E",
			Import:     "I",
			Confirm:    "enter",
			Cancel:     "esc",
			Edit:       "e",
			ToggleSub:  "s",
			ReturnTask: "u",
		},
	}
}
