package os

import "os"

// File implements stitchfs.File over an *os.File, reporting the base name within the
// backend's namespace rather than the host path.
type File struct {
	*os.File
	name string
}

// Name returns the base name of the file.
func (f *File) Name() string {
	return f.name
}
