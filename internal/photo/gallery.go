// Package photo stores item photos on the device and keeps an index of them
// in the settings table.
//
// Photos are written as JPEG files named <uuid>.jpeg inside the gallery
// directory. The index (settings key "photos") lists their file paths, newest
// first. WebviewPath is never persisted; it is rebuilt from the file as a
// data URI when the gallery loads.
package photo

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/soniadragulescu/beerstore/internal/beer"
	"github.com/soniadragulescu/beerstore/internal/cache"
)

const dataURIPrefix = "data:image/jpeg;base64,"

// Camera produces raw image bytes.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// FileCamera reads a picture from a file. It stands in for the device camera
// on a terminal.
type FileCamera struct {
	Fs   afero.Fs
	Path string
}

func (c FileCamera) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.Path == "" {
		return nil, errors.New("no picture selected")
	}
	fs := c.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	data, err := afero.ReadFile(fs, c.Path)
	if err != nil {
		return nil, fmt.Errorf("read picture: %w", err)
	}
	return data, nil
}

// Gallery is safe for concurrent use.
type Gallery struct {
	fs       afero.Fs
	dir      string
	settings cache.Settings
	logger   *slog.Logger
	newName  func() string

	mu     sync.Mutex
	photos []beer.Photo
}

// NewGallery returns a gallery rooted at dir on fs. Call Load to read the
// existing index.
func NewGallery(fs afero.Fs, dir string, settings cache.Settings, logger *slog.Logger) *Gallery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gallery{
		fs:       fs,
		dir:      dir,
		settings: settings,
		logger:   logger.With("component", "photo"),
		newName:  func() string { return uuid.NewString() + ".jpeg" },
	}
}

// Photos returns the indexed photos, newest first.
func (g *Gallery) Photos() []beer.Photo {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]beer.Photo(nil), g.photos...)
}

// Take captures a picture from camera, stores it and prepends it to the index.
func (g *Gallery) Take(ctx context.Context, camera Camera) (beer.Photo, error) {
	raw, err := camera.Capture(ctx)
	if err != nil {
		return beer.Photo{}, fmt.Errorf("capture: %w", err)
	}
	data, err := Normalize(raw)
	if err != nil {
		return beer.Photo{}, err
	}

	name := g.newName()
	if err := g.write(name, data); err != nil {
		return beer.Photo{}, err
	}
	p := beer.Photo{Filepath: name, WebviewPath: dataURI(data)}

	g.mu.Lock()
	g.photos = append([]beer.Photo{p}, g.photos...)
	err = g.persistLocked(ctx)
	g.mu.Unlock()
	if err != nil {
		return beer.Photo{}, err
	}
	g.logger.Info("photo saved", "file", name, "bytes", len(data))
	return p, nil
}

// Load reads the index and rebuilds every WebviewPath from disk. Entries whose
// file is missing are kept without a preview.
func (g *Gallery) Load(ctx context.Context) ([]beer.Photo, error) {
	raw, ok, err := g.settings.GetSetting(ctx, cache.KeyPhotos)
	if err != nil {
		return nil, fmt.Errorf("load photo index: %w", err)
	}
	var photos []beer.Photo
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &photos); err != nil {
			return nil, fmt.Errorf("decode photo index: %w", err)
		}
	}
	for i := range photos {
		data, err := afero.ReadFile(g.fs, g.filePath(photos[i].Filepath))
		if err != nil {
			g.logger.Warn("photo file unreadable", "file", photos[i].Filepath, "error", err)
			photos[i].WebviewPath = ""
			continue
		}
		photos[i].WebviewPath = dataURI(data)
	}

	g.mu.Lock()
	g.photos = photos
	g.mu.Unlock()
	g.logger.Debug("photos loaded", "count", len(photos))
	return append([]beer.Photo(nil), photos...), nil
}

// Delete drops p from the index and removes its file. A file that is already
// gone is not an error.
func (g *Gallery) Delete(ctx context.Context, p beer.Photo) error {
	g.mu.Lock()
	kept := g.photos[:0:0]
	for _, existing := range g.photos {
		if existing.Filepath != p.Filepath {
			kept = append(kept, existing)
		}
	}
	g.photos = kept
	err := g.persistLocked(ctx)
	g.mu.Unlock()
	if err != nil {
		return err
	}

	if err := g.fs.Remove(g.filePath(p.Filepath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove photo: %w", err)
	}
	g.logger.Info("photo deleted", "file", p.Filepath)
	return nil
}

// WriteFromServer stores a photo received with an item so it is available
// offline. Photos without a WebviewPath carry no data and are skipped.
func (g *Gallery) WriteFromServer(ctx context.Context, p beer.Photo) error {
	if p.WebviewPath == "" || p.Filepath == "" {
		return nil
	}
	encoded := p.WebviewPath
	if strings.HasPrefix(encoded, "data:") {
		if i := strings.IndexByte(encoded, ','); i >= 0 {
			encoded = encoded[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode server photo: %w", err)
	}
	if err := g.write(p.Filepath, data); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, existing := range g.photos {
		if existing.Filepath == p.Filepath {
			return g.persistLocked(ctx)
		}
	}
	g.photos = append(g.photos, p)
	return g.persistLocked(ctx)
}

func (g *Gallery) write(name string, data []byte) error {
	if err := g.fs.MkdirAll(g.dir, 0o755); err != nil {
		return fmt.Errorf("create photo dir: %w", err)
	}
	if err := afero.WriteFile(g.fs, g.filePath(name), data, 0o644); err != nil {
		return fmt.Errorf("write photo: %w", err)
	}
	return nil
}

// filePath maps an index entry to its location, keeping only the base name.
func (g *Gallery) filePath(name string) string {
	return filepath.Join(g.dir, filepath.Base(name))
}

func (g *Gallery) persistLocked(ctx context.Context) error {
	index := make([]beer.Photo, len(g.photos))
	for i, p := range g.photos {
		index[i] = beer.Photo{Filepath: p.Filepath}
	}
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode photo index: %w", err)
	}
	if err := g.settings.SetSetting(ctx, cache.KeyPhotos, string(data)); err != nil {
		return fmt.Errorf("store photo index: %w", err)
	}
	return nil
}

func dataURI(data []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(data)
}
