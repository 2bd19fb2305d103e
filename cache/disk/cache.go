// Package disk provides the on-disk store behind the video cache.
//
// Each entry lives at {dir}/{id}{ext}. Entries are written atomically, so a
// reader never observes a partially downloaded file at an entry path. The
// store takes an advisory lock on {dir}/.lock for its lifetime; a second
// process opening the same directory fails with ErrLocked.
package disk

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"
)

const (
	defaultDirPerm   = 0o700
	defaultExtension = ".mp4"
	lockFileName     = ".lock"
)

var (
	// ErrLocked is returned when another process holds the cache directory lock.
	ErrLocked = errors.New("cache dir is locked by another process")

	// ErrInvalidID is returned when an id cannot be used as a file name stem.
	ErrInvalidID = errors.New("invalid cache id")
)

// Entry describes one cached file.
type Entry struct {
	ID        string    // file name stem
	Path      string    // absolute or dir-relative path to the file
	Size      int64     // size in bytes as reported by the filesystem
	CreatedAt time.Time // commit time, stamped as the file's modification time
}

// Store is an exclusively owned cache directory.
// Store methods are safe for concurrent use; callers coordinate higher level
// bookkeeping such as in-flight downloads themselves.
type Store struct {
	dir     string      // root directory for cached files
	ext     string      // entry file extension, including the dot
	dirPerm os.FileMode // permissions for the created directory
	lock    *flock.Flock
}

// Option configures a disk store.
type Option func(*Store)

// WithExtension sets the entry file extension. Defaults to ".mp4".
func WithExtension(ext string) Option {
	return func(s *Store) {
		s.ext = ext
	}
}

// WithDirPerm sets the directory permissions used for the cache directory.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *Store) {
		s.dirPerm = mode
	}
}

// New opens a disk store rooted at dir, creating the directory if needed and
// acquiring its lock.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	s := &Store{
		dir:     dir,
		ext:     defaultExtension,
		dirPerm: defaultDirPerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ext == "" || s.ext == "." {
		return nil, errors.New("extension is empty")
	}
	if !strings.HasPrefix(s.ext, ".") {
		s.ext = "." + s.ext
	}
	if strings.ContainsAny(s.ext, `/\`) {
		return nil, fmt.Errorf("extension %q contains a path separator", s.ext)
	}
	if err := os.MkdirAll(dir, s.dirPerm); err != nil {
		return nil, err
	}

	s.lock = flock.New(filepath.Join(dir, lockFileName))
	ok, err := s.lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock cache dir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return s, nil
}

// Close releases the directory lock. Cached files are left in place.
func (s *Store) Close() error {
	return s.lock.Unlock()
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Extension returns the entry file extension.
func (s *Store) Extension() string {
	return s.ext
}

// Path returns the deterministic location of the entry for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+s.ext)
}

// Stat reports the entry for id if its file exists.
func (s *Store) Stat(id string) (Entry, bool) {
	if validateID(id) != nil {
		return Entry{}, false
	}
	path := s.Path(id)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return Entry{}, false
	}
	return newEntry(id, path, info), true
}

// Put atomically writes the content of r as the entry for id.
// An existing entry is replaced only if the write fully succeeds.
//
// The entry's creation time is the moment the write is committed, not when
// reading r began, so a slow download is younger than entries that finished
// while it was streaming.
func (s *Store) Put(id string, r io.Reader) (Entry, error) {
	if err := validateID(id); err != nil {
		return Entry{}, err
	}
	path := s.Path(id)
	if err := atomic.WriteFile(path, r); err != nil {
		return Entry{}, err
	}
	committed := time.Now()
	if err := os.Chtimes(path, committed, committed); err != nil {
		return Entry{}, err
	}
	if err := syncDir(s.dir); err != nil {
		return Entry{}, fmt.Errorf("sync cache dir: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, err
	}
	return newEntry(id, path, info), nil
}

// Remove deletes the entry for id. Removing a missing entry is not an error.
func (s *Store) Remove(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := os.Remove(s.Path(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every entry, continuing past individual failures.
// onRemove, if non-nil, is called for each entry after its file is deleted.
// The returned error joins all removal failures.
func (s *Store) Clear(onRemove func(Entry)) (int, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	var (
		removed int
		errs    []error
	)
	for _, entry := range entries {
		if err := os.Remove(entry.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
		if onRemove != nil {
			onRemove(entry)
		}
	}
	return removed, errors.Join(errs...)
}

func validateID(id string) error {
	switch {
	case id == "", id == ".", id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("%w: %q is hidden", ErrInvalidID, id)
	case strings.ContainsAny(id, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidID, id)
	}
	return nil
}

func newEntry(id, path string, info os.FileInfo) Entry {
	return Entry{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}
}
