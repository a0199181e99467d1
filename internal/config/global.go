package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Global holds operator preferences from ~/.config/apchkout/config.toml.
// Every field is optional; zero values fall back to the defaults below.
type Global struct {
	AdminDB      string `toml:"admin_db"`      // maintenance database for admin queries
	Python       string `toml:"python"`        // python interpreter
	ManageScript string `toml:"manage_script"` // Django management script, relative to repo root
	SeedCommand  string `toml:"seed_command"`  // management command that loads dev seed data
}

// DefaultGlobal returns the default global configuration.
func DefaultGlobal() Global {
	return Global{
		AdminDB:      "postgres",
		Python:       "python",
		ManageScript: "manage.py",
		SeedCommand:  "populate_dev_data",
	}
}

// globalPath returns the path to the global config file.
func globalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "apchkout", "config.toml"), nil
}

// LoadGlobal reads the global config, filling unset fields with defaults.
// A missing file is not an error.
func LoadGlobal() (Global, error) {
	path, err := globalPath()
	if err != nil {
		return DefaultGlobal(), nil
	}
	return loadGlobalFrom(path)
}

func loadGlobalFrom(path string) (Global, error) {
	cfg := DefaultGlobal()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	var loaded Global
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if loaded.AdminDB != "" {
		cfg.AdminDB = loaded.AdminDB
	}
	if loaded.Python != "" {
		cfg.Python = loaded.Python
	}
	if loaded.ManageScript != "" {
		cfg.ManageScript = loaded.ManageScript
	}
	if loaded.SeedCommand != "" {
		cfg.SeedCommand = loaded.SeedCommand
	}
	return cfg, nil
}
