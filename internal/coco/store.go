package coco

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Iron-Ham/cocoprune/internal/errors"
)

const defaultPerm os.FileMode = 0644

// maxLinkDepth bounds symlink resolution in Save.
const maxLinkDepth = 40

// Store reads and writes annotation documents on an afero filesystem.
type Store struct {
	fs     afero.Fs
	atomic bool
}

// NewStore creates a Store over fs. When atomic is true, Save writes to a
// temporary file in the destination directory and renames it into place.
func NewStore(fs afero.Fs, atomic bool) *Store {
	return &Store{fs: fs, atomic: atomic}
}

// Exists reports whether path exists.
func (s *Store) Exists(path string) (bool, error) {
	return afero.Exists(s.fs, path)
}

// Load reads and parses the document at path.
func (s *Store) Load(path string) (*Document, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrapf(err, "failed to read annotation file %s", path)
	}

	doc, err := Parse(data)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr.WithPath(path)
		}
		var missingErr *errors.MissingFieldError
		if errors.As(err, &missingErr) {
			return nil, missingErr.WithPath(path)
		}
		return nil, err
	}
	return doc, nil
}

// Save encodes doc with the given indent (empty for compact) and writes it
// to path. An existing destination keeps its permissions. When path is a
// symlink the file it points to is replaced and the link is left in place.
func (s *Store) Save(doc *Document, path, indent string) error {
	data, err := doc.Encode(indent)
	if err != nil {
		return errors.NewWriteError(path, err)
	}

	target, err := s.resolveLinks(path)
	if err != nil {
		return errors.NewWriteError(path, err)
	}

	perm := defaultPerm
	if info, err := s.fs.Stat(target); err == nil {
		if info.IsDir() {
			return errors.NewWriteError(path, fmt.Errorf("destination is a directory"))
		}
		perm = info.Mode().Perm()
	}

	if !s.atomic {
		if err := afero.WriteFile(s.fs, target, data, perm); err != nil {
			return errors.NewWriteError(path, err)
		}
		return nil
	}

	if err := s.atomicWriteFile(target, data, perm); err != nil {
		return errors.NewWriteError(path, err)
	}
	return nil
}

// resolveLinks follows path through any chain of symlinks and returns the
// final target, which need not exist yet. Filesystems that cannot read links
// return path unchanged.
func (s *Store) resolveLinks(path string) (string, error) {
	lstater, ok := s.fs.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, ok := s.fs.(afero.LinkReader)
	if !ok {
		return path, nil
	}

	for range maxLinkDepth {
		info, _, err := lstater.LstatIfPossible(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return path, nil
			}
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}

		link, err := reader.ReadlinkIfPossible(path)
		if err != nil {
			return "", fmt.Errorf("failed to read symlink %s: %w", path, err)
		}
		if !filepath.IsAbs(link) {
			link = filepath.Join(filepath.Dir(path), link)
		}
		path = link
	}
	return "", fmt.Errorf("too many levels of symbolic links: %s", path)
}

// atomicWriteFile writes data to a temporary file in the destination
// directory, then renames it over path. The destination is never left
// partially written.
func (s *Store) atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := afero.TempFile(s.fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = s.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := s.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := s.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
