package importer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var remoteSchemes = []string{"http://", "https://", "ftp://", "s3://", "gs://", "azb://"}

// ErrNoHeader is returned when a file is empty.
var ErrNoHeader = errors.New("file has no header line")

func isRemote(path string) bool {
	lower := strings.ToLower(path)
	for _, scheme := range remoteSchemes {
		if strings.HasPrefix(lower, scheme) {
			return true
		}
	}
	return false
}

// SourceURL returns the reference LOAD CSV uses for path. URLs are kept as
// they are; file paths become file:/// URLs relative to the server's import
// directory.
func SourceURL(path string) string {
	if isRemote(path) || strings.HasPrefix(strings.ToLower(path), "file://") {
		return path
	}
	return "file:///" + strings.TrimLeft(filepath.ToSlash(path), "/")
}

// Resolve maps a configured path to the local file read for the header and
// row count, and to the URL embedded in the program. local is empty for
// remote sources.
func Resolve(importDir, path string) (local, url string) {
	if isRemote(path) {
		return "", path
	}
	if rest, ok := cutPrefixFold(path, "file://"); ok {
		path = strings.TrimPrefix(rest, "/")
		if importDir == "" {
			return "/" + path, "file:///" + path
		}
	}

	rel := path
	if filepath.IsAbs(path) && importDir != "" {
		if r, err := filepath.Rel(importDir, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
		}
	}

	local = path
	if !filepath.IsAbs(path) && importDir != "" {
		local = filepath.Join(importDir, path)
	}
	return local, SourceURL(rel)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}

// newTextReader decodes r as UTF-8, dropping a UTF-8 byte order mark and
// converting UTF-16 input that starts with one.
func newTextReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadHeader returns the first line of the file without its line ending.
func ReadHeader(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := ReadLines(f, 1)
	if err != nil {
		return "", fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%s: %w", path, ErrNoHeader)
	}
	return lines[0], nil
}

// MaxLineBytes caps the length of a line read by ReadLines.
const MaxLineBytes = 1 << 20

// ErrLineTooLong is returned when a line exceeds MaxLineBytes.
var ErrLineTooLong = fmt.Errorf("line longer than %d bytes", MaxLineBytes)

// ReadLines returns up to n lines of r without their line endings. The
// input is decoded the way ReadHeader decodes files.
func ReadLines(r io.Reader, n int) ([]string, error) {
	scanner := bufio.NewScanner(newTextReader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	lines := make([]string, 0, n)
	for len(lines) < n && scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d: %w", len(lines)+1, ErrLineTooLong)
		}
		return nil, err
	}
	return lines, nil
}

// CountLines counts the lines of a file. A final line without a line ending
// is counted. Quoted values spanning lines are counted once per line.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	count := 0
	last := byte('\n')
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	if last != '\n' {
		count++
	}
	return count, nil
}
