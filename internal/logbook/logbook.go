// internal/logbook/logbook.go
//
// The logbook is the session's activity record: mode transitions, searches,
// bridge status. One line per entry, "<RFC3339> <LEVEL> <message>", so the
// file stays greppable and the TUI can read its own tail back.

package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is one line of the logbook.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// String renders the entry in its on-disk form.
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.Time.UTC().Format(time.RFC3339), e.Level, e.Message)
}

// parseEntry reads a line written by Entry.String. Lines written by hand
// or truncated mid-write come back as INFO with the raw text.
func parseEntry(line string) Entry {
	fields := strings.Fields(line)
	if len(fields) >= 2 {
		if ts, err := time.Parse(time.RFC3339, fields[0]); err == nil {
			switch lvl := Level(fields[1]); lvl {
			case LevelInfo, LevelWarn, LevelError:
				return Entry{Time: ts, Level: lvl, Message: strings.Join(fields[2:], " ")}
			}
		}
	}
	return Entry{Level: LevelInfo, Message: strings.TrimSpace(line)}
}

// Logbook appends entries to a text file. It is safe to share between the
// UI goroutine, engine queries and the bridge server.
type Logbook struct {
	path  string
	clock func() time.Time
	mu    sync.Mutex
}

// New creates a logbook at path, making its directory if needed.
func New(path string) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logbook: ensure dir: %w", err)
	}
	return &Logbook{path: path, clock: time.Now}, nil
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append records message at level. Whitespace, newlines included, is
// folded so every entry stays on one line.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	entry := Entry{
		Time:    l.clock(),
		Level:   level,
		Message: strings.Join(strings.Fields(message), " "),
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = fmt.Fprintln(file, entry.String())
}

// Tail returns the last n entries, oldest first, and how many entries the
// file holds in total.
func (l *Logbook) Tail(n int) ([]Entry, int) {
	if l == nil || n <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	file, err := os.Open(l.path)
	if err != nil {
		return nil, 0
	}
	defer file.Close()

	// ring holds the last n raw lines; parsing waits until the scan is done.
	ring := make([]string, n)
	total := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			continue
		}
		ring[total%n] = scanner.Text()
		total++
	}
	if total == 0 {
		return nil, 0
	}
	count := min(total, n)
	out := make([]Entry, 0, count)
	for i := total - count; i < total; i++ {
		out = append(out, parseEntry(ring[i%n]))
	}
	return out, total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}

// Printf lets the logbook serve as a bridge.Logger.
func (l *Logbook) Printf(format string, args ...any) {
	l.Info(format, args...)
}
