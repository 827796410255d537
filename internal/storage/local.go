package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// LocalStorage keeps objects as files under one directory.
// Writes go to a temporary file in the same directory and are renamed into place.
type LocalStorage struct {
	dir string
}

var _ StorageInterface = (*LocalStorage)(nil)

// NewLocalStorage creates the directory if needed
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create storage directory %s", dir)
	}
	return &LocalStorage{dir: dir}, nil
}

// Path returns the file path used for name
func (s *LocalStorage) Path(name string) string {
	return filepath.Join(s.dir, filepath.Clean("/"+name))
}

func (s *LocalStorage) Store(_ context.Context, name string, data []byte) error {
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", name)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return errors.Wrapf(err, "failed to create temporary file for %s", name)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to write %s", name)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to sync %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to close %s", name)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "failed to replace %s", name)
	}

	logrus.Debugf("Stored %s (%d bytes)", path, len(data))
	return nil
}

func (s *LocalStorage) Retrieve(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}
	return data, nil
}

func (s *LocalStorage) Stat(_ context.Context, name string) (ObjectInfo, error) {
	fi, err := os.Stat(s.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ObjectInfo{}, ErrNotFound
		}
		return ObjectInfo{}, errors.Wrapf(err, "failed to stat %s", name)
	}
	return ObjectInfo{Name: name, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// List returns names relative to the storage directory, skipping in-flight temporary files
func (s *LocalStorage) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list storage directory")
	}
	sort.Strings(names)
	return names, nil
}

func (s *LocalStorage) Delete(_ context.Context, name string) error {
	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return errors.Wrapf(err, "failed to delete %s", name)
	}
	return nil
}
