package ftp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/utils"
)

// File implements stitchfs.File for the ftp backend. Contents are staged in memory: read
// modes hold the downloaded file, write modes buffer locally and upload the full contents
// on Close.
type File struct {
	fileSystem *FileSystem
	path       string
	name       string
	mode       string
	data       []byte
	cursor     int64
	dirty      bool
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
	if f.cursor >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n = copy(p, f.data[f.cursor:])
	f.cursor += int64(n)
	return n, nil
}

// Write writes at the current cursor position and advances the cursor. In append mode the
// cursor is forced to the end of the buffer before every write.
func (f *File) Write(p []byte) (n int, err error) {
	if f.closed {
		return 0, fmt.Errorf("write %s: %w", f.name, stitchfs.ErrClosed)
	}
	if !utils.ModeWrites(f.mode) {
		return 0, fmt.Errorf("write %s: file opened %q: %w", f.name, f.mode, stitchfs.ErrNotSupported)
	}
	if utils.ModeAppends(f.mode) {
		f.cursor = int64(len(f.data))
	}
	if gap := f.cursor - int64(len(f.data)); gap > 0 {
		// seeking past the end then writing zero-fills the gap
		f.data = append(f.data, make([]byte, gap)...)
	}

	end := f.cursor + int64(len(p))
	if end <= int64(len(f.data)) {
		copy(f.data[f.cursor:end], p)
	} else {
		f.data = append(f.data[:f.cursor], p...)
	}
	f.cursor = end
	f.dirty = true
	return len(p), nil
}

// Seek sets the cursor position.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fmt.Errorf("seek %s: %w", f.name, stitchfs.ErrClosed)
	}
	position, err := utils.SeekTo(int64(len(f.data)), f.cursor, offset, whence)
	if err != nil {
		return 0, err
	}
	f.cursor = position
	return position, nil
}

// Close uploads the buffered contents when the file was written to, then marks the file
// closed.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if !f.dirty {
		return nil
	}

	client, err := f.fileSystem.Client()
	if err != nil {
		return err
	}
	return client.Stor(f.path, bytes.NewReader(f.data))
}
