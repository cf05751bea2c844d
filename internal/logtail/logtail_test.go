package logtail

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func writeLog(t *testing.T, fsys afero.Fs, path string, lines []string) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func TestRead(t *testing.T) {
	fsys := afero.NewMemMapFs()
	logPath := "/data/test.log"

	var all []string
	for i := 1; i <= 10; i++ {
		all = append(all, fmt.Sprintf("Line %d", i))
	}
	writeLog(t, fsys, logPath, all)

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"zero", 0, nil},
		{"negative", -1, nil},
		{"partial", 5, all[5:]},
		{"exactly all", 10, all},
		{"more than exists", 20, all},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(fsys, logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	got, err := Read(afero.NewMemMapFs(), "/nope.log", 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		level string
		msg   string
		attrs string
	}{
		{
			name:  "slog text",
			line:  `time=2026-10-18T12:00:00.000Z level=WARN msg="fetch failed" component=sync error="dial tcp: refused"`,
			level: "WARN",
			msg:   "fetch failed",
			attrs: `component=sync error="dial tcp: refused"`,
		},
		{
			name:  "escaped quote",
			line:  `level=ERROR msg="bad \"frame\""`,
			level: "ERROR",
			msg:   `bad "frame"`,
		},
		{
			name:  "bare value",
			line:  `level=INFO msg=started`,
			level: "INFO",
			msg:   "started",
		},
		{
			name: "free text",
			line: "panic: something broke",
			msg:  "panic: something broke",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Parse(tt.line)
			if e.Level != tt.level || e.Message != tt.msg || e.Attrs != tt.attrs {
				t.Fatalf("Parse() = level %q msg %q attrs %q, want %q %q %q",
					e.Level, e.Message, e.Attrs, tt.level, tt.msg, tt.attrs)
			}
			if e.Raw != tt.line {
				t.Fatalf("Raw = %q, want %q", e.Raw, tt.line)
			}
		})
	}
}

func TestProblems(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeLog(t, fsys, "/app.log", []string{
		`level=INFO msg="session started" component=sync`,
		`level=WARN msg="fetch failed" component=sync`,
		`level=DEBUG msg="push merged"`,
		`level=ERROR msg="cache write failed"`,
		`level=WARN msg="save failed"`,
	})

	got, err := Problems(fsys, "/app.log", 100, 2)
	if err != nil {
		t.Fatalf("Problems() error = %v", err)
	}
	if len(got) != 2 || got[0].Message != "cache write failed" || got[1].Message != "save failed" {
		t.Fatalf("Problems() = %+v, want last two problems", got)
	}

	all, _ := Problems(fsys, "/app.log", 100, 0)
	if len(all) != 3 {
		t.Fatalf("Problems() unlimited = %d entries, want 3", len(all))
	}
}
