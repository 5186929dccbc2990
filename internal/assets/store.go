// Package assets persists generated QR images and hands back the URL they
// are served from.
package assets

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidKey = errors.New("invalid asset key")

type Store interface {
	// Put stores data under key and returns its public URL.
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Delete removes the asset previously returned by Put. Missing assets are not an error.
	Delete(ctx context.Context, url string) error
}

// FileStore keeps assets in a local directory that the HTTP server exposes
// under baseURL.
type FileStore struct {
	dir     string
	baseURL string
}

func NewFileStore(dir, baseURL string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(err, "create asset dir %s", dir)
	}
	return &FileStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *FileStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target, err := s.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", errors.Wrap(err, "create asset folder")
	}

	// write then rename so readers never see a partial image
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp asset")
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, "write asset")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, "close asset")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, "chmod asset")
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(err, "move asset into place")
	}

	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(filepath.Clean("/"+key)), "/"), nil
}

func (s *FileStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if url == "" {
		return nil
	}
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == url {
		return errors.Wrapf(ErrInvalidKey, "url %s is not served by this store", url)
	}
	target, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove asset")
	}
	return nil
}

// ProductKey and ItemKey name the image of one issuing attempt. Two attempts
// for the same code never share a file, so a failed attempt only removes its
// own image.
func ProductKey(code string) string {
	return "products/" + code + "-" + attemptToken() + ".png"
}

func ItemKey(code string) string {
	return "items/" + code + "-" + attemptToken() + ".png"
}

func attemptToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
