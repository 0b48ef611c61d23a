package asset

import (
	"encoding/json"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/meshpipe/lodviewer/utils"
	"github.com/meshpipe/lodviewer/vfs"
)

const metaSuffix = ".meta.json"

// Store keeps uploaded sources, produced variants and per-asset
// metadata sidecars in a single flat directory.
type Store struct {
	dir vfs.Directory

	mu    sync.Mutex
	names utils.RandomNameGenerator
}

func NewStore(dir vfs.Directory) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() vfs.Directory {
	return s.dir
}

// AbsPath maps a stored file name to an OS path for external tools.
func (s *Store) AbsPath(name string) (string, error) {
	type pather interface{ Path() string }
	if p, ok := s.dir.(pather); ok {
		return filepath.Join(p.Path(), name), nil
	}
	return "", errors.Errorf("Store directory %q does not expose OS paths", s.dir.Name())
}

// CreateAsset validates the container format, derives an identifier and
// persists the raw bytes. Nothing is stored when validation fails.
func (s *Store) CreateAsset(originalName string, size int64, src io.Reader) (*Asset, error) {
	if err := CheckExtension(originalName); err != nil {
		return nil, err
	}

	a := &Asset{
		Id:           NewId(time.Now(), originalName),
		OriginalName: originalName,
		Size:         size,
		Uploaded:     time.Now().UTC(),
	}

	s.mu.Lock()
	a.DisplayName = s.names.RandomName()
	s.mu.Unlock()

	if err := vfs.CreateFileAndCopy(s.dir, a.SourceFileName(), src); err != nil {
		return nil, errors.Wrapf(err, "Failed to store source of %q", a.Id)
	}
	return a, nil
}

// SaveSet writes the metadata sidecar. Variant retrieval paths are not
// part of it, they are re-derived from the id and index on every read.
func (s *Store) SaveSet(set *VariantSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal meta of %q", set.Asset.Id)
	}
	name := string(set.Asset.Id) + metaSuffix
	if err := vfs.CreateFileAndCopy(s.dir, name, strings.NewReader(string(data))); err != nil {
		return errors.Wrapf(err, "Failed to write meta of %q", set.Asset.Id)
	}
	return nil
}

func (s *Store) Get(id Id) (*VariantSet, error) {
	f, err := s.dir.GetFile(string(id) + metaSuffix)
	if err != nil {
		return nil, errors.Wrapf(err, "Unknown asset %q", id)
	}
	r, err := vfs.OpenFileAndGetReader(f, true)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var set VariantSet
	if err := json.NewDecoder(r).Decode(&set); err != nil {
		return nil, errors.Wrapf(err, "Corrupted meta of %q", id)
	}
	return &set, nil
}

// List returns every stored variant set, newest upload first.
func (s *Store) List() ([]*VariantSet, error) {
	files, err := s.dir.List()
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list store directory")
	}

	sets := make([]*VariantSet, 0, len(files))
	for _, name := range files {
		if !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		id := Id(strings.TrimSuffix(name, metaSuffix))
		set, err := s.Get(id)
		if err != nil {
			// skip broken sidecars, the rest of the listing still works
			continue
		}
		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].Asset.Uploaded.After(sets[j].Asset.Uploaded)
	})
	return sets, nil
}

// Remove deletes the sidecar, the source and every variant file.
func (s *Store) Remove(id Id) error {
	set, err := s.Get(id)
	if err != nil {
		return err
	}

	var firstErr error
	remove := func(name string) {
		if err := s.dir.Remove(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for i := range set.Variants {
		remove(VariantFileName(id, set.Variants[i].Index))
	}
	remove(set.Asset.SourceFileName())
	remove(string(id) + metaSuffix)
	return firstErr
}
