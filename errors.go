package stitchfs

// Error is a type that allows for error constants below
type Error string

// Error returns a string representation of the error
func (e Error) Error() string { return string(e) }

const (
	// ErrClosed - the filesystem has been closed; no further operations are possible
	ErrClosed = Error("filesystem is closed")

	// ErrMountConflict - a mount point overlaps an existing mount (one path is a prefix of the other)
	ErrMountConflict = Error("mount point overlaps existing mount")

	// ErrSelfMount - a filesystem may not be mounted onto itself
	ErrSelfMount = Error("unable to mount self")

	// ErrRemoveRoot - the root directory of a namespace may not be removed
	ErrRemoveRoot = Error("root directory may not be removed")

	// ErrNotExist - the entry does not exist
	ErrNotExist = Error("resource not found")

	// ErrNotSupported - the backend does not support the operation
	ErrNotSupported = Error("operation not supported by filesystem")

	// ErrNoSysPath - the backend has no host-system path for its entries
	ErrNoSysPath = Error("filesystem has no system path")

	// ErrNoURL - the backend cannot produce URLs for its entries
	ErrNoURL = Error("filesystem has no url")

	// ErrExists - the entry already exists
	ErrExists = Error("resource already exists")

	// ErrNotADirectory - the entry exists but is not a directory
	ErrNotADirectory = Error("not a directory")

	// ErrNotAFile - the entry exists but is not a regular file
	ErrNotAFile = Error("not a file")

	// ErrDirNotEmpty - the directory is not empty
	ErrDirNotEmpty = Error("directory not empty")

	// ErrSeekInvalidOffset - Offset is invalid. Must be greater than or equal to 0
	ErrSeekInvalidOffset = Error("seek: invalid offset")

	// ErrSeekInvalidWhence - Whence is invalid.  Must be one of the following: 0 (io.SeekStart), 1 (io.SeekCurrent), or 2 (io.SeekEnd)
	ErrSeekInvalidWhence = Error("seek: invalid whence")
)
