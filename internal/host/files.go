package host

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LanguageForPath guesses a language identifier from a file extension.
func LanguageForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".jsonc", ".code-workspace":
		return "jsonc"
	}
	return "plaintext"
}

// FileURI returns the file URI of path, made absolute.
func FileURI(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// OpenFile reads path into ws and makes it the active editor. The buffer's
// URI is returned.
func OpenFile(ws *Workspace, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	uri, err := FileURI(path)
	if err != nil {
		return "", err
	}
	ws.Open(uri, LanguageForPath(path), string(data))
	if err := ws.Activate(uri); err != nil {
		return "", err
	}
	return uri, nil
}

// SaveFile writes the buffer at uri back to path.
func SaveFile(ws *Workspace, uri, path string) error {
	buf, ok := ws.Buffer(uri)
	if !ok {
		return fmt.Errorf("save %s: %w", uri, ErrUnknownDocument)
	}
	if err := os.WriteFile(path, []byte(buf.Text()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
