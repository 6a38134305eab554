package gsql

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var includePattern = regexp.MustCompile(`^@[^@]*[^;,]`)

// LoadScript reads a GSQL script and replaces every "@<path>" line with the
// recursively loaded content of that file. Lines are trimmed. Missing files
// contribute nothing and are logged; a file seen twice in one load returns a
// *RecursiveIncludeError.
func LoadScript(path string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &scriptLoader{logger: logger, visited: make(map[string]struct{})}
	return l.load(path)
}

type scriptLoader struct {
	logger  *slog.Logger
	visited map[string]struct{}
}

func (l *scriptLoader) load(path string) (string, error) {
	if path == "" || !isRegularFile(path) {
		l.logger.Warn("include file does not exist", "path", path)
		return "", nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, seen := l.visited[abs]; seen {
		l.logger.Error("recursive include detected", "path", abs)
		return "", &RecursiveIncludeError{Path: abs}
	}
	l.visited[abs] = struct{}{}

	f, err := os.Open(abs)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", abs, err)
	}
	defer f.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if includePattern.MatchString(line) {
			content, err := l.load(line[1:])
			if err != nil {
				return "", err
			}
			b.WriteString(content)
			b.WriteByte('\n')
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", abs, err)
	}
	return b.String(), nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
