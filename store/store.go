// Package store keeps pipeline artifacts as flat files in one directory.
//
// Every artifact is a payload clip <id> (always ending in .wav) plus an
// optional result text <id>.txt written by the same pipeline run. Files are
// only created, never edited; the directory listing is the only index.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	PayloadExt   = ".wav"
	ResultSuffix = ".txt"

	// IDLayout has a 24-hour clock so lexical order is chronological.
	IDLayout = "20060102-150405"

	maxCollisions = 1000
)

var (
	ErrNotFound  = errors.New("artifact not found")
	ErrInvalidID = errors.New("invalid artifact id")
)

type Store struct {
	dir string
}

// New opens the artifact directory, creating it when missing.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("store: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// IsPayloadName reports whether name carries the payload extension,
// ignoring case.
func IsPayloadName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), PayloadExt)
}

// ResultName is the result-text file name paired with payload id.
func ResultName(id string) string { return id + ResultSuffix }

// List returns payload ids, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !IsPayloadName(e.Name()) {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Stable(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}

// Create stores payload under a fresh id derived from prefix and t at second
// granularity. When that id is taken a _2, _3, ... suffix is tried, so two
// runs in the same second never overwrite each other.
func (s *Store) Create(prefix string, t time.Time, payload []byte) (string, error) {
	base := prefix + t.Format(IDLayout)
	for n := 1; n <= maxCollisions; n++ {
		id := base + PayloadExt
		if n > 1 {
			id = base + "_" + strconv.Itoa(n) + PayloadExt
		}

		f, err := os.OpenFile(s.path(id), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create payload %s: %w", id, err)
		}
		if _, err := f.Write(payload); err != nil {
			f.Close()
			return "", fmt.Errorf("write payload %s: %w", id, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close payload %s: %w", id, err)
		}
		return id, nil
	}
	return "", fmt.Errorf("no free id for %s after %d attempts", base, maxCollisions)
}

// WritePayload creates or replaces the payload file for id.
func (s *Store) WritePayload(id string, payload []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.WriteFile(s.path(id), payload, 0o644); err != nil {
		return fmt.Errorf("write payload %s: %w", id, err)
	}
	return nil
}

// WriteResultText creates or replaces the result text paired with id.
func (s *Store) WriteResultText(id, text string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := os.WriteFile(s.path(ResultName(id)), []byte(text), 0o644); err != nil {
		return fmt.Errorf("write result %s: %w", id, err)
	}
	return nil
}

// Remove deletes the payload of id and its result text, if any.
func (s *Store) Remove(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	for _, name := range []string{ResultName(id), id} {
		if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) ReadPayload(id string) ([]byte, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.read(id)
}

func (s *Store) ReadResultText(id string) (string, error) {
	if err := checkID(id); err != nil {
		return "", err
	}
	b, err := s.read(ResultName(id))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Open returns the path of a stored file, either a payload or a result
// text, for serving it as is.
func (s *Store) Open(name string) (string, error) {
	id := strings.TrimSuffix(name, ResultSuffix)
	if err := checkID(id); err != nil {
		return "", err
	}
	p := s.path(name)
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", name, err)
	}
	return p, nil
}

func (s *Store) read(name string) ([]byte, error) {
	b, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return b, nil
}

func (s *Store) path(name string) string { return filepath.Join(s.dir, name) }

// checkID accepts plain payload file names only.
func checkID(id string) error {
	if id == "" || id != filepath.Base(id) || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if !IsPayloadName(id) {
		return fmt.Errorf("%w: %q has no %s extension", ErrInvalidID, id, PayloadExt)
	}
	return nil
}
