package utils

import (
	"errors"
	"io"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/stitchfs/stitchfs"
)

const (
	// ErrBadOpenMode constant is returned when an open mode string is not one of r, r+, w, w+, a, a+
	ErrBadOpenMode = "open mode is invalid - must be one of r, r+, w, w+, a, a+ with an optional b or t suffix"
	// ErrBadPath constant is returned when a namespace path contains characters no backend accepts
	ErrBadPath = "path is invalid - may not be empty or contain a NUL byte"
)

// regex to test whether the last character is a '/'
var hasTrailingSlash = regexp.MustCompile("/$")

// regex to test whether the first character is a '/'
var hasLeadingSlash = regexp.MustCompile("^/")

// RemoveTrailingSlash removes trailing slash, if any
func RemoveTrailingSlash(path string) string {
	return strings.TrimRight(path, "/")
}

// RemoveLeadingSlash removes leading slash, if any
func RemoveLeadingSlash(path string) string {
	return strings.TrimLeft(path, "/")
}

// EnsureTrailingSlash adds a trailing slash if needed. It only ever uses / since it's used for namespace paths,
// never a Windows OS path.
func EnsureTrailingSlash(dir string) string {
	if hasTrailingSlash.MatchString(dir) {
		return dir
	}
	return dir + "/"
}

// EnsureLeadingSlash is like EnsureTrailingSlash except that it adds the leading slash if needed.
func EnsureLeadingSlash(dir string) string {
	if hasLeadingSlash.MatchString(dir) {
		return dir
	}
	return "/" + dir
}

// NormalizePath makes a namespace path absolute and canonical: a leading slash is added if missing, "." and ".."
// segments are collapsed, repeated and trailing separators are dropped. The empty string normalizes to "/".
// ".." segments that would climb above the root are collapsed into the root rather than rejected.
func NormalizePath(name string) string {
	return path.Clean(EnsureLeadingSlash(name))
}

// ForceDir normalizes a path to the separator-terminated form used for mount points and directory keys, ie
// "a/b" -> "/a/b/". The root normalizes to "/".
func ForceDir(name string) string {
	return EnsureTrailingSlash(NormalizePath(name))
}

// ValidatePath ensures a namespace path is non-empty and contains no NUL byte, the only character no backend accepts.
func ValidatePath(name string) error {
	if name == "" || strings.ContainsRune(name, '\x00') {
		return errors.New(ErrBadPath)
	}
	return nil
}

// OpenFlag maps an open mode string onto os-style open flags. Mode strings follow the usual convention: "r", "r+",
// "w", "w+", "a", "a+", each optionally suffixed with "b" (binary) or "t" (text), which carry no meaning here.
// Modes are expected to be pre-validated; an unrecognized mode still returns an error rather than guessing.
func OpenFlag(mode string) (int, error) {
	switch trimModeSuffix(mode) {
	case "r":
		return os.O_RDONLY, nil
	case "r+":
		return os.O_RDWR, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, nil
	case "w+":
		return os.O_RDWR | os.O_CREATE | os.O_TRUNC, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, nil
	case "a+":
		return os.O_RDWR | os.O_CREATE | os.O_APPEND, nil
	}
	return 0, errors.New(ErrBadOpenMode)
}

// ModeReads reports whether a file opened with the given mode can be read from.
func ModeReads(mode string) bool {
	m := trimModeSuffix(mode)
	return m == "r" || strings.HasSuffix(m, "+")
}

// ModeWrites reports whether a file opened with the given mode can be written to.
func ModeWrites(mode string) bool {
	return trimModeSuffix(mode) != "r"
}

// ModeTruncates reports whether opening with the given mode discards existing contents.
func ModeTruncates(mode string) bool {
	return strings.HasPrefix(mode, "w")
}

// ModeAppends reports whether a file opened with the given mode positions writes at the end of the file.
func ModeAppends(mode string) bool {
	return strings.HasPrefix(mode, "a")
}

// ModeCreates reports whether opening with the given mode may create a missing file.
func ModeCreates(mode string) bool {
	return !strings.HasPrefix(mode, "r")
}

// SeekTo is a helper function for Seek. It takes the current position, offset, whence, and length of the file
// and returns the new position. It also checks for invalid offsets and returns an error if one is found.
func SeekTo(length, position, offset int64, whence int) (int64, error) {
	switch whence {
	default:
		return 0, stitchfs.ErrSeekInvalidWhence
	case io.SeekStart:
		// this actually does nothing since the new position just becomes the offset but is here for completeness
	case io.SeekCurrent:
		offset += position
	case io.SeekEnd:
		offset += length
	}
	if offset < 0 {
		return 0, stitchfs.ErrSeekInvalidOffset
	}

	return offset, nil
}

// trimModeSuffix drops the optional b/t suffix, preserving a trailing +, ie "rb+" -> "r+".
func trimModeSuffix(mode string) string {
	plus := strings.Contains(mode, "+")
	m := strings.TrimRight(mode, "bt+")
	if plus {
		return m + "+"
	}
	return m
}
