package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFileName is the project config file, relative to the repo root.
const EnvFileName = ".env"

// Keys apchkout reads or writes in the project env file.
const (
	KeyDBName         = "DB_NAME"
	KeyDBUser         = "DB_USER"
	KeyDBPassword     = "DB_PASSWORD"
	KeyDBHost         = "DB_HOST"
	KeyDBPort         = "DB_PORT"
	KeyDjangoSettings = "DJANGO_SETTINGS_MODULE"
	KeyDBNameBase     = "DEV_APCHKOUT_DB_NAME_BASE"
)

// Defaults for optional keys.
const (
	DefaultDBHost = "localhost"
	DefaultDBPort = "5432"
)

// ErrNotFound indicates the project env file does not exist.
var ErrNotFound = errors.New("project config not found")

// ErrMissingSetting indicates a required key is absent from the env file.
var ErrMissingSetting = errors.New("missing setting")

// Env is the project env file, loaded once per run and saved at most once
// per mutating operation. Raw lines are retained so unrelated content is
// written back untouched.
type Env struct {
	path  string
	lines []string
	vals  map[string]string
}

// LoadEnv reads the env file at path.
// Returns an error wrapping [ErrNotFound] if the file does not exist.
func LoadEnv(path string) (*Env, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	vals, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}

	return &Env{path: path, lines: lines, vals: vals}, nil
}

// NewEnv returns an empty env file bound to path, for first-time creation.
func NewEnv(path string) *Env {
	return &Env{path: path, vals: map[string]string{}}
}

// Path returns the file path this env is bound to.
func (e *Env) Path() string {
	return e.path
}

// Get returns the value for key, or def if the key is absent.
func (e *Env) Get(key, def string) string {
	if v, ok := e.vals[key]; ok {
		return v
	}
	return def
}

// Lookup returns the value for key and whether it is present.
func (e *Env) Lookup(key string) (string, bool) {
	v, ok := e.vals[key]
	return v, ok
}

// Set updates key to value. An existing KEY= line is rewritten in place,
// keeping its position; otherwise a new line is appended.
func (e *Env) Set(key, value string) {
	e.vals[key] = value
	for i, line := range e.lines {
		if keyOfLine(line) == key {
			e.lines[i] = key + "=" + value
			return
		}
	}
	e.lines = append(e.lines, key+"="+value)
}

// Save writes the file back, via a temp file in the same directory and a
// rename, so an interrupted write never leaves a truncated config behind.
func (e *Env) Save() error {
	content := strings.Join(e.lines, "\n") + "\n"

	dir := filepath.Dir(e.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(e.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, e.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", e.path, err)
	}
	return nil
}

// BaseName resolves the base database name: the pinned
// DEV_APCHKOUT_DB_NAME_BASE if present, otherwise the current DB_NAME.
// The pin keeps "base" stable across branch switches.
func (e *Env) BaseName() string {
	if base, ok := e.vals[KeyDBNameBase]; ok && base != "" {
		return base
	}
	return e.vals[KeyDBName]
}

// EnsureBase pins the base name if it is not pinned yet. Reports whether the
// file was modified. An existing pin is never overwritten.
func (e *Env) EnsureBase(base string) bool {
	if v, ok := e.vals[KeyDBNameBase]; ok && v != "" {
		return false
	}
	e.Set(KeyDBNameBase, base)
	return true
}

// Validate checks the keys every database operation depends on:
// DB_USER, and either DB_NAME or the pinned base name.
func (e *Env) Validate() error {
	if e.Get(KeyDBUser, "") == "" {
		return fmt.Errorf("%w: %s in %s", ErrMissingSetting, KeyDBUser, e.path)
	}
	if e.BaseName() == "" {
		return fmt.Errorf("%w: %s or %s in %s", ErrMissingSetting, KeyDBName, KeyDBNameBase, e.path)
	}
	return nil
}

// keyOfLine extracts the key of a KEY=VALUE line.
// Returns "" for comments, blank lines, and lines without a '='.
func keyOfLine(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	key, _, found := strings.Cut(trimmed, "=")
	if !found {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(key), "export "))
}
