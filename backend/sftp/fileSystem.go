package sftp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	_sftp "github.com/pkg/sftp"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/backend"
	"github.com/stitchfs/stitchfs/utils"
)

// Scheme defines the filesystem type.
const Scheme = "sftp"

const name = "Secure File Transfer Protocol"

// Client is the subset of *sftp.Client the backend uses, narrowed for mockability.
type Client interface {
	Chtimes(path string, atime, mtime time.Time) error
	Close() error
	Mkdir(path string) error
	MkdirAll(path string) error
	OpenFile(path string, f int) (*_sftp.File, error)
	ReadDir(p string) ([]os.FileInfo, error)
	Remove(path string) error
	RemoveDirectory(path string) error
	Stat(p string) (os.FileInfo, error)
}

// FileSystem implements stitchfs.FileSystem over an SFTP connection. The connection is
// dialed lazily on first use; see Options for authentication resolution. Paths are
// interpreted beneath Options.BasePath on the remote host, "/" when unset.
type FileSystem struct {
	authority utils.Authority
	options   Options
	client    Client
}

// NewFileSystem returns a FileSystem for the given authority ([user@]host[:port]).
func NewFileSystem(authority string) (*FileSystem, error) {
	auth, err := utils.NewAuthority(authority)
	if err != nil {
		return nil, err
	}
	return &FileSystem{authority: auth}, nil
}

// WithOptions sets options for client and returns the filesystem (chainable)
func (fs *FileSystem) WithOptions(opts Options) *FileSystem {
	fs.options = opts
	// we set client to nil to ensure that a new client is created using the new options when Client() is called
	fs.client = nil
	return fs
}

// WithClient sets the client to be used directly, bypassing dialing, and returns the
// filesystem (chainable)
func (fs *FileSystem) WithClient(client Client) *FileSystem {
	fs.client = client
	return fs
}

// Client returns the underlying sftp client, creating it, if necessary
// See Overview for authentication resolution
func (fs *FileSystem) Client() (Client, error) {
	if fs.client == nil {
		client, err := getClient(fs.authority, fs.options)
		if err != nil {
			return nil, fmt.Errorf("unable to create sftp client: %w", err)
		}
		fs.client = client
	}
	return fs.client, nil
}

// Name returns "Secure File Transfer Protocol"
func (fs *FileSystem) Name() string {
	return name
}

// Scheme returns "sftp" as the initial part of a file URI ie: sftp://
func (fs *FileSystem) Scheme() string {
	return Scheme
}

// Close closes the underlying sftp connection, if one was ever dialed.
func (fs *FileSystem) Close() error {
	if fs.client == nil {
		return nil
	}
	client := fs.client
	fs.client = nil
	return client.Close()
}

// Exists returns whether an entry exists at the path.
func (fs *FileSystem) Exists(name string) (bool, error) {
	client, err := fs.Client()
	if err != nil {
		return false, err
	}
	if _, err := client.Stat(fs.remotePath(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stat returns the Info of the entry at the path.
func (fs *FileSystem) Stat(name string) (stitchfs.Info, error) {
	client, err := fs.Client()
	if err != nil {
		return stitchfs.Info{}, err
	}
	fi, err := client.Stat(fs.remotePath(name))
	if err != nil {
		return stitchfs.Info{}, err
	}
	return fileInfo(fi), nil
}

// SetStat updates the modification time of the entry at the path.
func (fs *FileSystem) SetStat(name string, info stitchfs.Info) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	return client.Chtimes(fs.remotePath(name), info.ModTime, info.ModTime)
}

// List returns the base names of the entries in the directory.
func (fs *FileSystem) List(name string) ([]string, error) {
	infos, err := fs.Scan(name)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name)
	}
	return names, nil
}

// Scan returns the Infos of the entries in the directory.
func (fs *FileSystem) Scan(name string) ([]stitchfs.Info, error) {
	client, err := fs.Client()
	if err != nil {
		return nil, err
	}
	entries, err := client.ReadDir(fs.remotePath(name))
	if err != nil {
		return nil, err
	}
	infos := make([]stitchfs.Info, 0, len(entries))
	for _, fi := range entries {
		infos = append(infos, fileInfo(fi))
	}
	return infos, nil
}

// Mkdir creates a single directory. The parent must already exist.
func (fs *FileSystem) Mkdir(name string) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	return client.Mkdir(fs.remotePath(name))
}

// MkdirAll creates a directory along with any missing parents. With recreate set, an
// already-existing directory is not an error.
func (fs *FileSystem) MkdirAll(name string, recreate bool) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	if !recreate {
		if fi, statErr := client.Stat(fs.remotePath(name)); statErr == nil && fi.IsDir() {
			return fmt.Errorf("mkdir %s: %w", name, stitchfs.ErrExists)
		}
	}
	return client.MkdirAll(fs.remotePath(name))
}

// Open opens a remote file with the given mode.
func (fs *FileSystem) Open(name, mode string) (stitchfs.File, error) {
	flag, err := utils.OpenFlag(mode)
	if err != nil {
		return nil, err
	}
	client, err := fs.Client()
	if err != nil {
		return nil, err
	}
	f, err := client.OpenFile(fs.remotePath(name), flag)
	if err != nil {
		return nil, err
	}
	return &File{File: f, name: path.Base(utils.NormalizePath(name))}, nil
}

// OpenText opens a file in text mode, which over sftp is identical to Open.
func (fs *FileSystem) OpenText(name, mode string) (stitchfs.File, error) {
	return fs.Open(name, mode)
}

// Remove deletes the file at the path.
func (fs *FileSystem) Remove(name string) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	return client.Remove(fs.remotePath(name))
}

// RemoveDir deletes the empty directory at the path. The backend root may not be removed.
func (fs *FileSystem) RemoveDir(name string) error {
	if utils.NormalizePath(name) == "/" {
		return stitchfs.ErrRemoveRoot
	}
	client, err := fs.Client()
	if err != nil {
		return err
	}
	return client.RemoveDirectory(fs.remotePath(name))
}

// Size returns the size in bytes of the file at the path.
func (fs *FileSystem) Size(name string) (uint64, error) {
	info, err := fs.Stat(name)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("size %s: %w", name, stitchfs.ErrNotAFile)
	}
	return uint64(info.Size), nil
}

// SysPath always fails; remote entries have no host-system path.
func (fs *FileSystem) SysPath(name string) (string, error) {
	return "", stitchfs.ErrNoSysPath
}

// Type returns the EntryType of the entry at the path.
func (fs *FileSystem) Type(name string) (stitchfs.EntryType, error) {
	info, err := fs.Stat(name)
	if err != nil {
		return stitchfs.TypeUnknown, err
	}
	return info.Type, nil
}

// URL returns the sftp:// URI of the entry, ie sftp://user@host:22/path/to/file.txt.
func (fs *FileSystem) URL(name string) (string, error) {
	return fmt.Sprintf("%s://%s%s", Scheme, fs.authority.String(), fs.remotePath(name)), nil
}

// HasURL returns true; every sftp entry has an sftp:// URI.
func (fs *FileSystem) HasURL(name string) (bool, error) {
	return true, nil
}

// IsDir returns true if the path exists and is a directory.
func (fs *FileSystem) IsDir(name string) (bool, error) {
	client, err := fs.Client()
	if err != nil {
		return false, err
	}
	fi, err := client.Stat(fs.remotePath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return fi.IsDir(), nil
}

// IsFile returns true if the path exists and is a regular file.
func (fs *FileSystem) IsFile(name string) (bool, error) {
	client, err := fs.Client()
	if err != nil {
		return false, err
	}
	fi, err := client.Stat(fs.remotePath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
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
	f, err := fs.Open(name, "r")
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// WriteBytes replaces the full contents of the file at the path, creating it if necessary.
func (fs *FileSystem) WriteBytes(name string, data []byte) error {
	f, err := fs.Open(name, "w")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
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

// remotePath maps a backend path onto the remote host beneath Options.BasePath.
func (fs *FileSystem) remotePath(name string) string {
	base := fs.options.BasePath
	if base == "" {
		base = "/"
	}
	return path.Join(utils.NormalizePath(base), utils.NormalizePath(name))
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
	backend.Register(Scheme, &FileSystem{})
}
