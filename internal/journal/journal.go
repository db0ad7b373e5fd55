// Package journal keeps the markdown log of every signal raised (signals.md).
package journal

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/wonny/fundwatch/pkg/logger"
)

// Header is written when the journal file does not exist yet
const Header = "# 信号日记\n\n| 日期 | 基金 | 信号 | 详情 | 操作 |\n|---|---|---|---|---|\n"

// Entry is one journal row
type Entry struct {
	Date   string
	Fund   string
	Signal string
	Detail string
	Action string
}

// Row renders the entry as a markdown table row
func (e Entry) Row() string {
	cells := []string{e.Date, e.Fund, e.Signal, e.Detail, e.Action}
	for i, c := range cells {
		cells[i] = strings.ReplaceAll(strings.ReplaceAll(c, "|", `\|`), "\n", " ")
	}
	return "| " + strings.Join(cells, " | ") + " |"
}

// Journal appends entries to a markdown file, newest rows first
type Journal struct {
	mu     sync.Mutex
	path   string
	logger *logger.Logger
}

// New creates a journal over path
func New(path string, log *logger.Logger) *Journal {
	return &Journal{path: path, logger: log}
}

// Path returns the journal file path
func (j *Journal) Path() string {
	return j.path
}

// Append inserts entries directly below the table separator, keeping their order
func (j *Journal) Append(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	content, err := j.read()
	if err != nil {
		return err
	}

	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.Row())
	}

	if err := os.WriteFile(j.path, []byte(Insert(content, rows)), 0o644); err != nil {
		return fmt.Errorf("failed to write journal: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"path": j.path,
		"rows": len(rows),
	}).Info("Journal updated")

	return nil
}

// Read returns the journal markdown; a missing file reads as the bare header
func (j *Journal) Read() (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.read()
}

func (j *Journal) read() (string, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Header, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read journal: %w", err)
	}
	return string(data), nil
}

// Insert places rows below the first "|---" line of content. Content without
// a table gets the header table appended first.
func Insert(content string, rows []string) string {
	lines := strings.SplitAfter(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	at := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|---") {
			at = i + 1
			break
		}
	}

	if at < 0 {
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if content != "" {
			content += "\n"
		}
		return content + Header[strings.Index(Header, "|"):] + strings.Join(rows, "\n") + "\n"
	}

	if !strings.HasSuffix(lines[at-1], "\n") {
		lines[at-1] += "\n"
	}

	var b strings.Builder
	for _, line := range lines[:at] {
		b.WriteString(line)
	}
	for _, row := range rows {
		b.WriteString(row)
		b.WriteString("\n")
	}
	for _, line := range lines[at:] {
		b.WriteString(line)
	}
	return b.String()
}

// Render formats markdown for a terminal. style is a glamour standard style
// ("dark", "light", "notty", ...) or "auto".
func Render(markdown, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render journal: %w", err)
	}
	return out, nil
}
