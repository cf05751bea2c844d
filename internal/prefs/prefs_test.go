package prefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

func TestLoad_DefaultPathUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p != Defaults() {
		t.Fatalf("Load = %+v, want defaults", p)
	}

	dir := filepath.Join(home, ".config", "beerstore")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prefs.toml"), []byte("theme = \"Hops\"\nfavorites_only = true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	p, _ = Load("")
	if p.Theme != "Hops" || !p.FavoritesOnly {
		t.Fatalf("Load = %+v, want Hops with favorites only", p)
	}
}

func TestLoadFs_Contents(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Prefs
		wantErr bool
	}{
		{"all fields", "theme = \"Stout\"\nfavorites_only = true\nusername = \" sonia \"\n", Prefs{Theme: "Stout", FavoritesOnly: true, Username: "sonia"}, false},
		{"empty theme", "theme = \"  \"\n", Defaults(), false},
		{"invalid toml", "not valid toml {{{\n", Defaults(), true},
		{"wrong type", "favorites_only = \"yes\"\n", Defaults(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := afero.NewMemMapFs()
			if err := afero.WriteFile(fsys, "/cfg/prefs.toml", []byte(tt.content), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			got, err := LoadFs(fsys, "/cfg/prefs.toml")
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadFs error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("LoadFs = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadFs_Missing(t *testing.T) {
	got, err := LoadFs(afero.NewMemMapFs(), "/nope/prefs.toml")
	if err != nil {
		t.Fatalf("LoadFs returned error: %v", err)
	}
	if got != Defaults() {
		t.Fatalf("LoadFs = %+v, want defaults", got)
	}
}

func TestSave_RoundTripCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "prefs.toml")
	want := Prefs{Theme: "Hops", FavoritesOnly: true, Username: "ana"}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got != want {
		t.Fatalf("Load after Save = %+v, want %+v", got, want)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("dir holds %d entries, want only prefs.toml", len(entries))
	}
}

func TestSaveFs_Overwrites(t *testing.T) {
	fsys := afero.NewMemMapFs()
	if err := SaveFs(fsys, "/cfg/prefs.toml", Prefs{Theme: "Slate"}); err != nil {
		t.Fatalf("SaveFs: %v", err)
	}
	if err := SaveFs(fsys, "/cfg/prefs.toml", Prefs{Theme: "Kanagawa", Username: " ana "}); err != nil {
		t.Fatalf("SaveFs: %v", err)
	}
	got, err := LoadFs(fsys, "/cfg/prefs.toml")
	if err != nil {
		t.Fatalf("LoadFs: %v", err)
	}
	if got != (Prefs{Theme: "Kanagawa", Username: "ana"}) {
		t.Fatalf("LoadFs = %+v, want Kanagawa/ana", got)
	}
}
