// Package logtail reads the tail of the BeerStore log file.
//
// # Overview
//
// The application writes slog text lines to a log file because the terminal
// belongs to the UI. This package reads the last lines of that file and picks
// out warnings and errors so the UI can show recent sync problems without the
// user leaving the app.
//
// # Reading
//
// Read keeps a ring buffer of maxLines strings while scanning the file once,
// so memory stays O(maxLines) whatever the file size:
//
//	lines, err := logtail.Read(afero.NewOsFs(), cfg.LogFile, 400)
//
// A missing file is not an error; it yields no lines.
//
// # Parsing
//
// Parse understands the key=value layout of slog.TextHandler. The time, level
// and msg keys fill Entry fields and the remaining pairs are kept as Attrs.
// Quoted values may contain spaces and escaped quotes. Anything else is kept
// whole as the Message.
//
// # Problems
//
// Problems scans the last scan lines and returns the newest limit WARN and
// ERROR entries in file order.
package logtail
