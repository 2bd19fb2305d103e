package disk

import (
	"errors"
	"os"
	"sort"
	"strings"
)

// Entries lists cached entries ordered oldest first by creation time.
// Entries with equal timestamps are ordered by id. The lock file and
// in-progress temporary files are not entries.
func (s *Store) Entries() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		if !d.Type().IsRegular() {
			continue
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, s.ext) {
			continue
		}
		id := strings.TrimSuffix(name, s.ext)
		if validateID(id) != nil {
			continue
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		entries = append(entries, newEntry(id, s.Path(id), info))
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// SizeBytes sums the sizes of all entries. It scans the directory on every call.
func (s *Store) SizeBytes() (int64, error) {
	entries, err := s.Entries()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		total += entry.Size
	}
	return total, nil
}

// Prune removes entries oldest first until the total size is at or below
// targetBytes. onEvict, if non-nil, is called for each entry after its file is
// deleted.
func (s *Store) Prune(targetBytes int64, onEvict func(Entry)) (freed int64, remaining int64, err error) {
	if targetBytes < 0 {
		targetBytes = 0
	}

	entries, err := s.Entries()
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range entries {
		remaining += entry.Size
	}
	if remaining <= targetBytes {
		return 0, remaining, nil
	}

	for _, entry := range entries {
		if remaining <= targetBytes {
			break
		}
		if err := os.Remove(entry.Path); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return freed, remaining, err
			}
			// Already gone; stop counting it but do not report it as freed.
			remaining -= entry.Size
			if onEvict != nil {
				onEvict(entry)
			}
			continue
		}
		remaining -= entry.Size
		freed += entry.Size
		if onEvict != nil {
			onEvict(entry)
		}
	}

	return freed, remaining, nil
}
