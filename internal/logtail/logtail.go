package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/afero"
)

// Entry is one parsed line of the application log.
type Entry struct {
	Time    string
	Level   string
	Message string
	Attrs   string // remaining key=value pairs, unparsed
	Raw     string
}

// Problem reports whether the entry is a warning or an error.
func (e Entry) Problem() bool {
	return e.Level == "WARN" || e.Level == "ERROR"
}

// Read returns the last maxLines lines of the file at path on fsys. A missing
// file yields no lines. maxLines <= 0 returns nothing.
func Read(fsys afero.Fs, path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return nil, nil
	}
	file, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Problems returns up to limit warning and error entries from the last scan
// lines of the log, oldest first.
func Problems(fsys afero.Fs, path string, scan, limit int) ([]Entry, error) {
	lines, err := Read(fsys, path, scan)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, line := range lines {
		if e := Parse(line); e.Problem() {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Parse splits a slog text handler line into its well-known fields. Lines in
// another format come back with only Raw and Message set.
func Parse(line string) Entry {
	e := Entry{Raw: line}
	rest := strings.TrimSpace(line)
	var attrs []string
	for rest != "" {
		key, value, remainder, ok := nextPair(rest)
		if !ok {
			break
		}
		rest = remainder
		switch key {
		case "time":
			e.Time = value
		case "level":
			e.Level = strings.ToUpper(value)
		case "msg":
			e.Message = value
		default:
			attrs = append(attrs, key+"="+quoteIfNeeded(value))
		}
	}
	if e.Level == "" && e.Message == "" {
		e.Message = line
		return e
	}
	e.Attrs = strings.Join(attrs, " ")
	return e
}

// nextPair consumes one key=value pair. Quoted values may contain spaces and
// escaped quotes.
func nextPair(s string) (key, value, rest string, ok bool) {
	eq := strings.IndexByte(s, '=')
	if eq <= 0 || strings.ContainsAny(s[:eq], " \t") {
		return "", "", "", false
	}
	key = s[:eq]
	s = s[eq+1:]

	if strings.HasPrefix(s, `"`) {
		var b strings.Builder
		i := 1
		for ; i < len(s); i++ {
			c := s[i]
			if c == '\\' && i+1 < len(s) {
				i++
				b.WriteByte(s[i])
				continue
			}
			if c == '"' {
				break
			}
			b.WriteByte(c)
		}
		if i >= len(s) {
			return key, b.String(), "", true
		}
		return key, b.String(), strings.TrimLeft(s[i+1:], " \t"), true
	}

	end := strings.IndexAny(s, " \t")
	if end < 0 {
		return key, s, "", true
	}
	return key, s[:end], strings.TrimLeft(s[end:], " \t"), true
}

func quoteIfNeeded(v string) string {
	if strings.ContainsAny(v, " \t\"=") {
		return fmt.Sprintf("%q", v)
	}
	return v
}
