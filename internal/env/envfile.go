package env

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// ParseFile reads a KEY=VALUE file and returns its assignments.
// Blank lines, # comments, and lines without '=' are skipped; keys and
// values are trimmed. A missing file is reported with an error wrapping
// fs.ErrNotExist.
func ParseFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	values, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return values, nil
}

// Parse parses .env content line by line. Each KEY=VALUE line goes through
// godotenv on its own; a line godotenv rejects (a hyphenated key, an
// unterminated quote) is split on its first '=' and trimmed instead, so
// stray text does not fail the load.
func Parse(data []byte) (map[string]string, error) {
	values := make(map[string]string)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.Contains(line, "=") {
			continue
		}

		parsed, err := godotenv.Unmarshal(line)
		if err != nil || len(parsed) == 0 {
			key, value, _ := strings.Cut(line, "=")
			if key = strings.TrimSpace(key); key != "" {
				values[key] = strings.TrimSpace(value)
			}
			continue
		}
		for k, v := range parsed {
			values[k] = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return values, nil
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	m := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		m[k] = v
	}
	return m
}

// IsPlaceholder checks if a value is empty or a placeholder copied from
// .env.example (e.g. "your-token-here").
func IsPlaceholder(value string) bool {
	return value == "" || strings.HasPrefix(value, "your-") || strings.HasPrefix(value, "your_")
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
