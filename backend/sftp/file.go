package sftp

import (
	_sftp "github.com/pkg/sftp"
)

// File implements stitchfs.File over an *sftp.File, reporting the base name within the
// backend's namespace rather than the remote path.
type File struct {
	*_sftp.File
	name string
}

// Name returns the base name of the file.
func (f *File) Name() string {
	return f.name
}
