package secret

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileProviderName is the provider name used in "secretref:file:<path>".
const FileProviderName = "file"

// maxSecretFileSize bounds how much of a secret file is read.
const maxSecretFileSize = 64 << 10

// FileProvider resolves a reference as a file path, as used for mounted
// secrets. Relative references are joined to Dir and may not escape it.
// Trailing newlines are trimmed.
type FileProvider struct {
	Dir string
}

// NewFileProvider creates a file provider rooted at dir. An empty dir
// accepts only absolute references.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{Dir: dir}
}

func newFileProviderFromConfig(cfg map[string]any) (Provider, error) {
	dir, _ := cfg["dir"].(string)
	return NewFileProvider(dir), nil
}

func (p *FileProvider) Name() string { return FileProviderName }

func (p *FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path, err := p.path(ref)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
		}
		return "", fmt.Errorf("secret: stat %s: %w", ref, err)
	}
	if info.IsDir() || info.Size() > maxSecretFileSize {
		return "", fmt.Errorf("%w: %s is not a regular secret file", ErrInvalidRef, ref)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func (p *FileProvider) path(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrInvalidRef
	}
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref), nil
	}
	if p.Dir == "" {
		return "", fmt.Errorf("%w: relative path %q without a base directory", ErrInvalidRef, ref)
	}
	if !filepath.IsLocal(ref) {
		return "", fmt.Errorf("%w: %q escapes the base directory", ErrInvalidRef, ref)
	}
	return filepath.Join(p.Dir, ref), nil
}

func (p *FileProvider) Close() error { return nil }

var _ Provider = (*FileProvider)(nil)
