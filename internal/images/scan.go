// Package images finds the photos of an item in a directory and encodes them
// for inclusion in a vision request.
package images

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

var (
	ErrDirectoryNotFound = errors.New("directory does not exist")
	ErrNotADirectory     = errors.New("path is not a directory")
	ErrNoImagesFound     = errors.New("no image files found")
	ErrIO                = errors.New("i/o error")
)

// imageExtensions are the lowercase file extensions treated as images.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// IsDirectoryError reports whether err is one of the directory validation
// failures the user can fix by pointing at another directory.
func IsDirectoryError(err error) bool {
	return errors.Is(err, ErrDirectoryNotFound) ||
		errors.Is(err, ErrNotADirectory) ||
		errors.Is(err, ErrNoImagesFound)
}

// IsImageFile reports whether name has one of the supported image extensions.
// The comparison is case-insensitive.
// A dotfile such as ".jpg" has no extension and does not count.
func IsImageFile(name string) bool {
	base := path.Base(filepath.ToSlash(name))
	ext := path.Ext(base)
	if ext == base {
		return false
	}
	return imageExtensions[strings.ToLower(ext)]
}

// NewOSFilesystem returns a filesystem over the host OS rooted at root, as
// returned by ResolvePath.
func NewOSFilesystem(root string) billy.Filesystem {
	return osfs.New(root)
}

// ResolvePath turns user input into an absolute path and splits it into the
// filesystem root ("/" or a Windows volume such as `C:\`) and the remainder
// relative to it.
func ResolvePath(dir string) (root, rel string, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", fmt.Errorf("%w: failed to resolve %s: %w", ErrIO, dir, err)
	}
	root = filepath.VolumeName(abs) + string(filepath.Separator)
	rel = strings.TrimLeft(strings.TrimPrefix(abs, filepath.VolumeName(abs)), `/\`)
	if rel == "" {
		rel = "."
	}
	return root, rel, nil
}

// displayPath renders dir as the user knows it, including the root of fs.
func displayPath(fs billy.Filesystem, dir string) string {
	return fs.Join(fs.Root(), dir)
}

// Scan returns the image files directly inside dir, sorted by name.
// Subdirectories are not descended into.
func Scan(fs billy.Filesystem, dir string) ([]string, error) {
	info, err := fs.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, displayPath(fs, dir))
		}
		return nil, fmt.Errorf("%w: failed to stat %s: %w", ErrIO, displayPath(fs, dir), err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, displayPath(fs, dir))
	}

	entries, err := fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list %s: %w", ErrIO, displayPath(fs, dir), err)
	}

	var files []string
	for _, entry := range entries {
		if !IsImageFile(entry.Name()) {
			continue
		}
		p := fs.Join(dir, entry.Name())
		if !isRegularFile(fs, p, entry) {
			continue
		}
		files = append(files, p)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in directory %s", ErrNoImagesFound, displayPath(fs, dir))
	}

	sort.Strings(files)
	return files, nil
}

// isRegularFile follows symlinks so that a link to a photo counts as a photo.
func isRegularFile(fs billy.Filesystem, p string, entry os.FileInfo) bool {
	if entry.Mode()&os.ModeSymlink == 0 {
		return entry.Mode().IsRegular()
	}
	target, err := fs.Stat(p)
	if err != nil {
		return false
	}
	return target.Mode().IsRegular()
}
