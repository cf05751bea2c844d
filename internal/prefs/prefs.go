// Package prefs persists the user's UI choices between runs.
// Preferences are stored in ~/.config/beerstore/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme         string `toml:"theme"`
	FavoritesOnly bool   `toml:"favorites_only"`
	Username      string `toml:"username,omitempty"` // prefilled on the login form
}

const (
	defaultPrefsPath = "~/.config/beerstore/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Defaults returns the preferences used when no file exists.
func Defaults() Prefs {
	return Prefs{Theme: defaultTheme}
}

func (p Prefs) normalized() Prefs {
	p.Theme = strings.TrimSpace(p.Theme)
	if p.Theme == "" {
		p.Theme = defaultTheme
	}
	p.Username = strings.TrimSpace(p.Username)
	return p
}

// Load reads preferences from path on the local filesystem. See LoadFs.
func Load(path string) (Prefs, error) {
	return LoadFs(afero.NewOsFs(), path)
}

// LoadFs reads preferences from path on fsys. A missing file yields the
// defaults with no error. An unreadable or malformed file also yields the
// defaults, together with the error so the caller can report it; the UI keeps
// working either way.
func LoadFs(fsys afero.Fs, path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Defaults(), err
	}

	data, err := afero.ReadFile(fsys, resolved)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Defaults(), nil
	case err != nil:
		return Defaults(), fmt.Errorf("read prefs: %w", err)
	}

	var p Prefs
	if err := toml.Unmarshal(data, &p); err != nil {
		return Defaults(), fmt.Errorf("parse prefs %s: %w", resolved, err)
	}
	return p.normalized(), nil
}

// Save writes preferences to path on the local filesystem. See SaveFs.
func Save(path string, p Prefs) error {
	return SaveFs(afero.NewOsFs(), path, p)
}

// SaveFs writes preferences to path on fsys, creating directories as needed.
// The file is replaced atomically so a crash never leaves it half written.
func SaveFs(fsys afero.Fs, path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p.normalized())
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := afero.TempFile(fsys, dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("create temp prefs: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := fsys.Rename(tmpName, resolved); err != nil {
		_ = fsys.Remove(tmpName)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	trimmed := strings.TrimSpace(path)
	if rest, ok := strings.CutPrefix(trimmed, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, rest)
	}
	return filepath.Abs(trimmed)
}
