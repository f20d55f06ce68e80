// Package stitchfs provides a virtual filesystem that composes independent
// backend filesystems into a single logical namespace by mapping path
// prefixes ("mount points") onto those backends.
package stitchfs

import (
	"io"
	"time"
)

// EntryType describes what kind of resource a path refers to.
type EntryType int

const (
	// TypeUnknown is returned when a backend cannot classify an entry.
	TypeUnknown EntryType = iota
	// TypeFile is a regular file.
	TypeFile
	// TypeDirectory is a directory.
	TypeDirectory
)

// String returns a human-readable name for the entry type.
func (t EntryType) String() string {
	switch t {
	case TypeFile:
		return "file"
	case TypeDirectory:
		return "directory"
	default:
		return "unknown"
	}
}

// Info describes a filesystem entry. It is returned by Stat and Scan and
// accepted by SetStat, in which case only ModTime is honored by backends that
// support modification-time updates.
type Info struct {
	Name    string
	Size    int64
	ModTime time.Time
	Type    EntryType
}

// IsDir returns true if the entry is a directory.
func (i Info) IsDir() bool {
	return i.Type == TypeDirectory
}

// File represents an open file on a backend filesystem.
type File interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer

	// Name returns the base name of the file.
	Name() string
}

// FileSystem is the capability set required of a backend. All paths are
// interpreted by the backend relative to its own root: a mounted backend only
// ever sees paths relative to its mount point, never the absolute path of the
// composed namespace.
//
// Open modes are the usual "r", "r+", "w", "w+", "a" and "a+" strings and are
// assumed to be validated before a backend sees them; utils.OpenFlag maps
// them to os-style flags.
type FileSystem interface {
	io.Closer

	// Name returns the human-readable name of the filesystem, ie: "os",
	// "In-Memory Filesystem", etc...
	Name() string

	// Scheme returns the uri scheme used by the filesystem: file, mem,
	// sftp, etc...
	Scheme() string

	// Exists returns whether the path refers to an existing entry.
	Exists(name string) (bool, error)

	// Stat returns the Info for the entry at the path.
	Stat(name string) (Info, error)

	// SetStat updates entry metadata. Backends that cannot update
	// metadata return ErrNotSupported.
	SetStat(name string, info Info) error

	// List returns the base names of the entries in the directory.
	List(name string) ([]string, error)

	// Scan returns the full Info of the entries in the directory.
	Scan(name string) ([]Info, error)

	// Mkdir creates a single directory.
	Mkdir(name string) error

	// MkdirAll creates a directory and any missing parents. When recreate
	// is true an already-existing directory is not an error.
	MkdirAll(name string, recreate bool) error

	// Open opens a file in binary mode.
	Open(name, mode string) (File, error)

	// OpenText opens a file in text mode. Backends where the distinction
	// is meaningless return the same file Open would.
	OpenText(name, mode string) (File, error)

	// Remove deletes a file.
	Remove(name string) error

	// RemoveDir deletes an empty directory.
	RemoveDir(name string) error

	// Size returns the size of a file in bytes.
	Size(name string) (uint64, error)

	// SysPath returns the path of the entry on the host system. Backends
	// without a host-system representation return ErrNoSysPath.
	SysPath(name string) (string, error)

	// Type returns the EntryType of the entry at the path.
	Type(name string) (EntryType, error)

	// URL returns a fully qualified URI for the path, ie
	// sftp://host/path/to/file.txt. Backends without an addressable URL
	// return ErrNoURL.
	URL(name string) (string, error)

	// HasURL returns whether the backend can produce URLs for its paths.
	HasURL(name string) (bool, error)

	// IsDir returns true if the path exists and is a directory.
	IsDir(name string) (bool, error)

	// IsFile returns true if the path exists and is a regular file.
	IsFile(name string) (bool, error)

	// ValidatePath returns an error if the path is not acceptable to the
	// backend.
	ValidatePath(name string) error

	// ReadBytes returns the full contents of a file.
	ReadBytes(name string) ([]byte, error)

	// WriteBytes replaces the full contents of a file, creating it if
	// necessary.
	WriteBytes(name string, data []byte) error

	// ReadText returns the full contents of a file as a string.
	ReadText(name string) (string, error)

	// WriteText replaces the full contents of a file with the given
	// string, creating the file if necessary.
	WriteText(name, text string) error
}
