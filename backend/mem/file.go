package mem

import (
	"fmt"
	"io"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/utils"
)

// File implements stitchfs.File for the in-memory filesystem. Each open file carries its
// own cursor over the shared node contents, so two files opened on the same path read and
// write the same bytes but seek independently.
type File struct {
	fileSystem *FileSystem
	key        string
	name       string
	mode       string
	cursor     int64
	closed     bool
}

// Name returns the base name of the file.
func (f *File) Name() string {
	return f.name
}

// Read reads from the current cursor position and advances the cursor.
func (f *File) Read(p []byte) (n int, err error) {
	if f.closed {
		return 0, fmt.Errorf("read %s: %w", f.name, stitchfs.ErrClosed)
	}
	if !utils.ModeReads(f.mode) {
		return 0, fmt.Errorf("read %s: file opened %q: %w", f.name, f.mode, stitchfs.ErrNotSupported)
	}

	f.fileSystem.mu.RLock()
	defer f.fileSystem.mu.RUnlock()
	node, err := f.fileSystem.node(f.key)
	if err != nil {
		return 0, err
	}
	if f.cursor >= int64(len(node.data)) {
		return 0, io.EOF
	}
	n = copy(p, node.data[f.cursor:])
	f.cursor += int64(n)
	return n, nil
}

// Write writes at the current cursor position and advances the cursor. In append mode the
// cursor is forced to the end of the file before every write.
func (f *File) Write(p []byte) (n int, err error) {
	if f.closed {
		return 0, fmt.Errorf("write %s: %w", f.name, stitchfs.ErrClosed)
	}
	if !utils.ModeWrites(f.mode) {
		return 0, fmt.Errorf("write %s: file opened %q: %w", f.name, f.mode, stitchfs.ErrNotSupported)
	}

	f.fileSystem.mu.Lock()
	defer f.fileSystem.mu.Unlock()
	node, err := f.fileSystem.node(f.key)
	if err != nil {
		return 0, err
	}
	if utils.ModeAppends(f.mode) {
		f.cursor = int64(len(node.data))
	}
	if gap := f.cursor - int64(len(node.data)); gap > 0 {
		// seeking past the end then writing zero-fills the gap
		node.data = append(node.data, make([]byte, gap)...)
	}

	end := f.cursor + int64(len(p))
	if end <= int64(len(node.data)) {
		copy(node.data[f.cursor:end], p)
	} else {
		node.data = append(node.data[:f.cursor], p...)
	}
	node.modTime = timeNow()
	f.cursor = end
	return len(p), nil
}

// Seek sets the cursor position.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fmt.Errorf("seek %s: %w", f.name, stitchfs.ErrClosed)
	}

	f.fileSystem.mu.RLock()
	defer f.fileSystem.mu.RUnlock()
	node, err := f.fileSystem.node(f.key)
	if err != nil {
		return 0, err
	}
	position, err := utils.SeekTo(int64(len(node.data)), f.cursor, offset, whence)
	if err != nil {
		return 0, err
	}
	f.cursor = position
	return position, nil
}

// Close resets the cursor and marks the file closed. A closed file may not be reused.
func (f *File) Close() error {
	f.cursor = 0
	f.closed = true
	return nil
}
