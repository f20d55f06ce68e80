package os

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/backend"
	"github.com/stitchfs/stitchfs/utils"
)

// Scheme defines the filesystem type.
const Scheme = "file"

const name = "os"

// FileSystem implements stitchfs.FileSystem over a directory of the host filesystem. Every
// path a FileSystem sees, relative or absolute, is interpreted beneath its root directory,
// so a FileSystem mounted into a namespace exposes only the tree under its root.
type FileSystem struct {
	root string
}

// NewFileSystem returns a FileSystem rooted at the given host directory. A leading "~" is
// expanded to the current user's home directory; an empty root means the host root "/".
func NewFileSystem(root string) *FileSystem {
	if root == "" {
		root = "/"
	}
	if expanded, err := homedir.Expand(root); err == nil {
		root = expanded
	}
	return &FileSystem{root: filepath.Clean(root)}
}

// Name returns "os"
func (fs *FileSystem) Name() string {
	return name
}

// Scheme returns "file" as the initial part of a file URI ie: file://
func (fs *FileSystem) Scheme() string {
	return Scheme
}

// Root returns the host directory serving as this backend's root.
func (fs *FileSystem) Root() string {
	return fs.root
}

// Close is a no-op; the os backend holds no resources.
func (fs *FileSystem) Close() error {
	return nil
}

// Exists returns whether an entry exists at the path.
func (fs *FileSystem) Exists(name string) (bool, error) {
	if _, err := os.Stat(fs.sysPath(name)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stat returns the Info of the entry at the path.
func (fs *FileSystem) Stat(name string) (stitchfs.Info, error) {
	fi, err := os.Stat(fs.sysPath(name))
	if err != nil {
		return stitchfs.Info{}, err
	}
	return fileInfo(fi), nil
}

// SetStat updates the modification time of the entry at the path.
func (fs *FileSystem) SetStat(name string, info stitchfs.Info) error {
	return os.Chtimes(fs.sysPath(name), info.ModTime, info.ModTime)
}

// List returns the base names of the entries in the directory, sorted by name.
func (fs *FileSystem) List(name string) ([]string, error) {
	entries, err := os.ReadDir(fs.sysPath(name))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// Scan returns the Infos of the entries in the directory, sorted by name.
func (fs *FileSystem) Scan(name string) ([]stitchfs.Info, error) {
	entries, err := os.ReadDir(fs.sysPath(name))
	if err != nil {
		return nil, err
	}
	infos := make([]stitchfs.Info, 0, len(entries))
	for _, entry := range entries {
		fi, err := entry.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, fileInfo(fi))
	}
	return infos, nil
}

// Mkdir creates a single directory. The parent must already exist.
func (fs *FileSystem) Mkdir(name string) error {
	return os.Mkdir(fs.sysPath(name), 0755)
}

// MkdirAll creates a directory along with any missing parents. With recreate set, an
// already-existing directory is not an error.
func (fs *FileSystem) MkdirAll(name string, recreate bool) error {
	p := fs.sysPath(name)
	if !recreate {
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			return fmt.Errorf("mkdir %s: %w", name, stitchfs.ErrExists)
		}
	}
	return os.MkdirAll(p, 0755)
}

// Open opens a file with the given mode.
func (fs *FileSystem) Open(name, mode string) (stitchfs.File, error) {
	flag, err := utils.OpenFlag(mode)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(fs.sysPath(name), flag, 0644)
	if err != nil {
		return nil, err
	}
	return &File{File: f, name: path.Base(utils.NormalizePath(name))}, nil
}

// OpenText opens a file in text mode, which on the os backend is identical to Open.
func (fs *FileSystem) OpenText(name, mode string) (stitchfs.File, error) {
	return fs.Open(name, mode)
}

// Remove deletes the file at the path.
func (fs *FileSystem) Remove(name string) error {
	fi, err := os.Stat(fs.sysPath(name))
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("remove %s: %w", name, stitchfs.ErrNotAFile)
	}
	return os.Remove(fs.sysPath(name))
}

// RemoveDir deletes the empty directory at the path. The backend root may not be removed.
func (fs *FileSystem) RemoveDir(name string) error {
	if utils.NormalizePath(name) == "/" {
		return stitchfs.ErrRemoveRoot
	}
	fi, err := os.Stat(fs.sysPath(name))
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("removedir %s: %w", name, stitchfs.ErrNotADirectory)
	}
	return os.Remove(fs.sysPath(name))
}

// Size returns the size in bytes of the file at the path.
func (fs *FileSystem) Size(name string) (uint64, error) {
	fi, err := os.Stat(fs.sysPath(name))
	if err != nil {
		return 0, err
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("size %s: %w", name, stitchfs.ErrNotAFile)
	}
	return uint64(fi.Size()), nil
}

// SysPath returns the host-system path of the entry.
func (fs *FileSystem) SysPath(name string) (string, error) {
	return fs.sysPath(name), nil
}

// Type returns the EntryType of the entry at the path.
func (fs *FileSystem) Type(name string) (stitchfs.EntryType, error) {
	fi, err := os.Stat(fs.sysPath(name))
	if err != nil {
		return stitchfs.TypeUnknown, err
	}
	if fi.IsDir() {
		return stitchfs.TypeDirectory, nil
	}
	return stitchfs.TypeFile, nil
}

// URL returns the file:// URI of the entry, ie file:///srv/data/reports/jan.csv.
func (fs *FileSystem) URL(name string) (string, error) {
	return "file://" + filepath.ToSlash(fs.sysPath(name)), nil
}

// HasURL returns true; every os entry has a file:// URI.
func (fs *FileSystem) HasURL(name string) (bool, error) {
	return true, nil
}

// IsDir returns true if the path exists and is a directory.
func (fs *FileSystem) IsDir(name string) (bool, error) {
	fi, err := os.Stat(fs.sysPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return fi.IsDir(), nil
}

// IsFile returns true if the path exists and is a regular file.
func (fs *FileSystem) IsFile(name string) (bool, error) {
	fi, err := os.Stat(fs.sysPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}

// ValidatePath returns an error when the path is empty or contains a NUL byte.
func (fs *FileSystem) ValidatePath(name string) error {
	return utils.ValidatePath(utils.EnsureLeadingSlash(name))
}

// ReadBytes returns the full contents of the file at the path.
func (fs *FileSystem) ReadBytes(name string) ([]byte, error) {
	return os.ReadFile(fs.sysPath(name))
}

// WriteBytes replaces the full contents of the file at the path, creating it if necessary.
func (fs *FileSystem) WriteBytes(name string, data []byte) error {
	return os.WriteFile(fs.sysPath(name), data, 0644)
}

// ReadText returns the full contents of the file at the path as a string.
func (fs *FileSystem) ReadText(name string) (string, error) {
	data, err := fs.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText replaces the full contents of the file at the path with the given string.
func (fs *FileSystem) WriteText(name, text string) error {
	return fs.WriteBytes(name, []byte(text))
}

// sysPath maps a backend path onto the host filesystem. Normalization collapses any ".."
// segments before joining, so a path can never escape the root.
func (fs *FileSystem) sysPath(name string) string {
	return filepath.Join(fs.root, filepath.FromSlash(utils.NormalizePath(name)))
}

// fileInfo converts an os.FileInfo to a stitchfs.Info.
func fileInfo(fi os.FileInfo) stitchfs.Info {
	entryType := stitchfs.TypeUnknown
	var size int64
	switch {
	case fi.IsDir():
		entryType = stitchfs.TypeDirectory
	case fi.Mode().IsRegular():
		entryType = stitchfs.TypeFile
		size = fi.Size()
	}
	return stitchfs.Info{
		Name:    fi.Name(),
		Size:    size,
		ModTime: fi.ModTime(),
		Type:    entryType,
	}
}

func init() {
	backend.Register(Scheme, NewFileSystem("/"))
}
