// Package blob implements path-addressed object storage on the local
// filesystem and on Google Cloud Storage.
package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/MrJamesThe3rd/reclaim/internal/apperr"
)

const metaSuffix = ".meta.json"

type objectMeta struct {
	ContentType string            `json:"contentType"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// FS stores objects under a base directory. Each object gets a sidecar file
// holding its content type and metadata.
type FS struct {
	baseDir string
}

func NewFS(baseDir string) *FS {
	return &FS{baseDir: baseDir}
}

func (f *FS) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" || strings.HasSuffix(clean, metaSuffix) {
		return "", apperr.InvalidArgument("invalid object path %q", path)
	}

	return filepath.Join(f.baseDir, clean), nil
}

// Put writes data through a temporary file and renames it into place, so
// readers never see a partial object.
func (f *FS) Put(_ context.Context, path string, data []byte, contentType string, metadata map[string]string) error {
	file, err := f.resolve(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	meta, err := json.Marshal(objectMeta{ContentType: contentType, Metadata: metadata})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := writeAtomic(file+metaSuffix, meta); err != nil {
		return err
	}

	return writeAtomic(file, data)
}

func (f *FS) Get(_ context.Context, path string) ([]byte, error) {
	file, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperr.NotFound("object %s not found", path)
		}

		return nil, fmt.Errorf("read object: %w", err)
	}

	return data, nil
}

// Metadata returns the content type and metadata recorded by Put.
func (f *FS) Metadata(_ context.Context, path string) (string, map[string]string, error) {
	file, err := f.resolve(path)
	if err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(file + metaSuffix)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, apperr.NotFound("object %s not found", path)
		}

		return "", nil, fmt.Errorf("read metadata: %w", err)
	}

	var m objectMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return "", nil, fmt.Errorf("decode metadata: %w", err)
	}

	return m.ContentType, m.Metadata, nil
}

func writeAtomic(file string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(file), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("write: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmp.Name(), file); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}
