package vector

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// IndexFileName is the file holding one manual's index inside its directory.
const IndexFileName = "index.vdb"

// ErrInvalidManual is returned for manual names that cannot be used as a directory name.
var ErrInvalidManual = errors.New("invalid manual name")

// Store maps manual names to index files laid out as <root>/<manual>/index.vdb.
type Store struct {
	root string
}

// NewStore returns a store rooted at dir. The directory is created on first Save.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the directory holding all manual indexes.
func (s *Store) Root() string {
	return s.root
}

// Path returns the index file path for manual.
func (s *Store) Path(manual string) (string, error) {
	if err := ValidateManual(manual); err != nil {
		return "", err
	}
	return filepath.Join(s.root, manual, IndexFileName), nil
}

// Save persists idx as manual's index and returns the file path.
func (s *Store) Save(manual string, idx *FlatIndex) (string, error) {
	path, err := s.Path(manual)
	if err != nil {
		return "", err
	}
	if err := idx.Save(path); err != nil {
		return "", fmt.Errorf("save index for %s: %w", manual, err)
	}
	return path, nil
}

// Load reads manual's index. A missing file wraps os.ErrNotExist; an unreadable one wraps
// ErrCorruptIndex.
func (s *Store) Load(manual string) (*FlatIndex, error) {
	path, err := s.Path(manual)
	if err != nil {
		return nil, err
	}
	return LoadFlatIndex(path)
}

// Manuals returns the sorted names of manuals that have an index file.
func (s *Store) Manuals() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read index dir: %w", err)
	}
	var manuals []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(s.root, e.Name(), IndexFileName))
		if err == nil && info.Mode().IsRegular() {
			manuals = append(manuals, e.Name())
		}
	}
	sort.Strings(manuals)
	return manuals, nil
}

// ManualForPath returns the manual whose index file is path, or "" when path is not an
// index file directly under this store.
func (s *Store) ManualForPath(path string) string {
	if filepath.Base(path) != IndexFileName {
		return ""
	}
	dir := filepath.Dir(path)
	if filepath.Clean(filepath.Dir(dir)) != filepath.Clean(s.root) {
		return ""
	}
	return filepath.Base(dir)
}

// ValidateManual rejects names that are empty, hidden, or would escape the store directory.
func ValidateManual(manual string) error {
	if manual == "" || manual == "." || manual == ".." || strings.HasPrefix(manual, ".") ||
		strings.ContainsAny(manual, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidManual, manual)
	}
	return nil
}
