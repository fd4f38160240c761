package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxLineSize bounds a single script line; generated INSERT scripts can be long
const maxLineSize = 16 * 1024 * 1024

// ParseScript splits a SQL script into statements. Lines are trimmed,
// anything after "--" is dropped, and lines accumulate until one ends
// with ";". Text left over at the end without a terminator becomes the
// final statement.
func ParseScript(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	statements := make([]string, 0)
	var current []string

	flush := func() {
		stmt := strings.TrimSpace(strings.Join(current, " "))
		if stmt != "" {
			statements = append(statements, stmt)
		}
		current = current[:0]
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if idx := strings.Index(line, "--"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ";") {
			current = append(current, strings.TrimSuffix(line, ";"))
			flush()
			continue
		}
		current = append(current, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}

	if len(current) > 0 {
		flush()
	}
	return statements, nil
}

// LoadScript reads and parses the SQL script at path
func LoadScript(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	statements, err := ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return statements, nil
}

// FromStatements returns a copy of an in-memory statement list
func FromStatements(statements []string) []string {
	out := make([]string, len(statements))
	copy(out, statements)
	return out
}
