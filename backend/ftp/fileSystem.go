package ftp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"path"
	"strings"
	"time"

	_ftp "github.com/jlaffaye/ftp"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/backend"
	"github.com/stitchfs/stitchfs/utils"
)

// Scheme defines the filesystem type.
const Scheme = "ftp"

const name = "File Transfer Protocol"

// Client is an interface over *ftp.ServerConn to make it easier to test
type Client interface {
	Delete(path string) error
	GetEntry(p string) (*_ftp.Entry, error)
	List(p string) ([]*_ftp.Entry, error)
	MakeDir(path string) error
	Quit() error
	RemoveDir(path string) error
	Retr(path string) (*_ftp.Response, error)
	Stor(path string, r io.Reader) error
	SetTime(path string, t time.Time) error
	IsSetTimeSupported() bool
}

// FileSystem implements stitchfs.FileSystem over FTP. The control connection is dialed
// lazily on first use. Paths are interpreted beneath Options.BasePath on the remote host,
// "/" when unset.
//
// FTP data connections do not seek, so files are staged in memory: reads download the file
// on open, writes buffer and upload on close.
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

// Client returns the underlying ftp client, creating and logging it in, if necessary
func (fs *FileSystem) Client() (Client, error) {
	if fs.client == nil {
		client, err := getClient(fs.authority, fs.options)
		if err != nil {
			return nil, fmt.Errorf("unable to create ftp client: %w", err)
		}
		fs.client = client
	}
	return fs.client, nil
}

// Name returns "File Transfer Protocol"
func (fs *FileSystem) Name() string {
	return name
}

// Scheme returns "ftp" as the initial part of a file URI ie: ftp://
func (fs *FileSystem) Scheme() string {
	return Scheme
}

// Close quits the underlying ftp connection, if one was ever dialed.
func (fs *FileSystem) Close() error {
	if fs.client == nil {
		return nil
	}
	client := fs.client
	fs.client = nil
	return client.Quit()
}

// Exists returns whether an entry exists at the path.
func (fs *FileSystem) Exists(name string) (bool, error) {
	if _, err := fs.entry(name); err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stat returns the Info of the entry at the path.
func (fs *FileSystem) Stat(name string) (stitchfs.Info, error) {
	entry, err := fs.entry(name)
	if err != nil {
		return stitchfs.Info{}, err
	}
	return entryInfo(entry), nil
}

// SetStat updates the modification time of the entry at the path, when the server supports
// MFMT; otherwise it fails with stitchfs.ErrNotSupported.
func (fs *FileSystem) SetStat(name string, info stitchfs.Info) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	if !client.IsSetTimeSupported() {
		return fmt.Errorf("setstat %s: %w", name, stitchfs.ErrNotSupported)
	}
	return client.SetTime(fs.remotePath(name), info.ModTime)
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
	entries, err := client.List(fs.remotePath(name))
	if err != nil {
		return nil, err
	}
	infos := make([]stitchfs.Info, 0, len(entries))
	for _, entry := range entries {
		if entry.Name == "." || entry.Name == ".." {
			continue
		}
		infos = append(infos, entryInfo(entry))
	}
	return infos, nil
}

// Mkdir creates a single directory. The parent must already exist.
func (fs *FileSystem) Mkdir(name string) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	return client.MakeDir(fs.remotePath(name))
}

// MkdirAll creates a directory along with any missing parents. With recreate set, an
// already-existing directory is not an error.
func (fs *FileSystem) MkdirAll(name string, recreate bool) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}

	p := fs.remotePath(name)
	if entry, entryErr := client.GetEntry(p); entryErr == nil && entry.Type == _ftp.EntryTypeFolder {
		if recreate {
			return nil
		}
		return fmt.Errorf("mkdir %s: %w", name, stitchfs.ErrExists)
	}

	// create each missing ancestor, root first
	segments := strings.Split(strings.Trim(p, "/"), "/")
	current := ""
	for _, segment := range segments {
		current = current + "/" + segment
		if _, entryErr := client.GetEntry(current); entryErr == nil {
			continue
		}
		if mkErr := client.MakeDir(current); mkErr != nil {
			return mkErr
		}
	}
	return nil
}

// Open opens a remote file with the given mode. Reads download the file up front; writes
// are buffered in memory and uploaded when the file is closed.
func (fs *FileSystem) Open(name, mode string) (stitchfs.File, error) {
	if _, err := utils.OpenFlag(mode); err != nil {
		return nil, err
	}

	var data []byte
	if !utils.ModeTruncates(mode) {
		existing, err := fs.ReadBytes(name)
		switch {
		case err == nil:
			data = existing
		case isNotExist(err) && utils.ModeCreates(mode):
			// writable modes start from an empty file
		default:
			return nil, err
		}
	}

	f := &File{
		fileSystem: fs,
		path:       fs.remotePath(name),
		name:       path.Base(utils.NormalizePath(name)),
		mode:       mode,
		data:       data,
	}
	if utils.ModeAppends(mode) {
		f.cursor = int64(len(data))
	}
	return f, nil
}

// OpenText opens a file in text mode, which over ftp is identical to Open.
func (fs *FileSystem) OpenText(name, mode string) (stitchfs.File, error) {
	return fs.Open(name, mode)
}

// Remove deletes the file at the path.
func (fs *FileSystem) Remove(name string) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	return client.Delete(fs.remotePath(name))
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
	return client.RemoveDir(fs.remotePath(name))
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

// URL returns the ftp:// URI of the entry, ie ftp://user@host:21/path/to/file.txt.
func (fs *FileSystem) URL(name string) (string, error) {
	return fmt.Sprintf("%s://%s%s", Scheme, fs.authority.String(), fs.remotePath(name)), nil
}

// HasURL returns true; every ftp entry has an ftp:// URI.
func (fs *FileSystem) HasURL(name string) (bool, error) {
	return true, nil
}

// IsDir returns true if the path exists and is a directory.
func (fs *FileSystem) IsDir(name string) (bool, error) {
	entry, err := fs.entry(name)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return entry.Type == _ftp.EntryTypeFolder, nil
}

// IsFile returns true if the path exists and is a regular file.
func (fs *FileSystem) IsFile(name string) (bool, error) {
	entry, err := fs.entry(name)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return entry.Type == _ftp.EntryTypeFile, nil
}

// ValidatePath returns an error when the path is empty or contains a NUL byte.
func (fs *FileSystem) ValidatePath(name string) error {
	return utils.ValidatePath(utils.EnsureLeadingSlash(name))
}

// ReadBytes returns the full contents of the file at the path.
func (fs *FileSystem) ReadBytes(name string) ([]byte, error) {
	client, err := fs.Client()
	if err != nil {
		return nil, err
	}
	resp, err := client.Retr(fs.remotePath(name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Close() }()
	return io.ReadAll(resp)
}

// WriteBytes replaces the full contents of the file at the path, creating it if necessary.
func (fs *FileSystem) WriteBytes(name string, data []byte) error {
	client, err := fs.Client()
	if err != nil {
		return err
	}
	return client.Stor(fs.remotePath(name), bytes.NewReader(data))
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

// entry fetches the remote entry for a path, treating the remote root as an always-present
// directory since many servers refuse MLST on "/".
func (fs *FileSystem) entry(name string) (*_ftp.Entry, error) {
	p := fs.remotePath(name)
	if p == "/" {
		return &_ftp.Entry{Name: "/", Type: _ftp.EntryTypeFolder}, nil
	}
	client, err := fs.Client()
	if err != nil {
		return nil, err
	}
	return client.GetEntry(p)
}

// remotePath maps a backend path onto the remote host beneath Options.BasePath.
func (fs *FileSystem) remotePath(name string) string {
	base := fs.options.BasePath
	if base == "" {
		base = "/"
	}
	return path.Join(utils.NormalizePath(base), utils.NormalizePath(name))
}

// isNotExist reports whether an ftp error means "no such file or directory" (reply 550).
func isNotExist(err error) bool {
	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code == _ftp.StatusFileUnavailable
}

// entryInfo converts an *ftp.Entry to a stitchfs.Info.
func entryInfo(entry *_ftp.Entry) stitchfs.Info {
	entryType := stitchfs.TypeUnknown
	var size int64
	switch entry.Type {
	case _ftp.EntryTypeFolder:
		entryType = stitchfs.TypeDirectory
	case _ftp.EntryTypeFile:
		entryType = stitchfs.TypeFile
		size = int64(entry.Size)
	}
	return stitchfs.Info{
		Name:    entry.Name,
		Size:    size,
		ModTime: entry.Time,
		Type:    entryType,
	}
}

func init() {
	backend.Register(Scheme, &FileSystem{})
}
