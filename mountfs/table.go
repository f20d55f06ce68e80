package mountfs

import (
	"fmt"
	"strings"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/utils"
)

// mountEntry pairs a normalized, separator-terminated mount path with the backend serving it.
// Entries are created only by a successful Mount call and never modified afterwards.
type mountEntry struct {
	mountPath string
	fs        stitchfs.FileSystem
}

// mountTable is the ordered set of mount entries plus the default backend serving every path
// outside them. It is owned by exactly one MountFS, whose lock guards all access.
type mountTable struct {
	entries   []mountEntry
	defaultFS stitchfs.FileSystem
}

// add registers a backend under the given mount path and returns the normalized,
// separator-terminated mount path. Registration fails when the new path and an existing mount
// path overlap in either direction, since a nested mount would be shadowed or would shadow
// its parent depending on insertion order.
func (t *mountTable) add(mountPath string, fs stitchfs.FileSystem) (string, error) {
	mp := utils.ForceDir(mountPath)
	for _, entry := range t.entries {
		if strings.HasPrefix(mp, entry.mountPath) || strings.HasPrefix(entry.mountPath, mp) {
			return "", fmt.Errorf("mount %q overlaps %q: %w", mp, entry.mountPath, stitchfs.ErrMountConflict)
		}
	}
	t.entries = append(t.entries, mountEntry{mountPath: mp, fs: fs})
	return mp, nil
}

// resolve maps a namespace path onto a (backend, backend-relative path) pair. The first
// entry in mount order whose mount path prefixes the normalized path wins; under the overlap
// rule in add there is never more than one candidate. The relative path has the mount prefix
// and any trailing separator stripped, so the mount root itself resolves to "". Paths under
// no mount resolve to the default backend with the caller's path passed through unchanged.
func (t *mountTable) resolve(name string) (stitchfs.FileSystem, string) {
	p := utils.ForceDir(name)
	for _, entry := range t.entries {
		if strings.HasPrefix(p, entry.mountPath) {
			return entry.fs, strings.TrimRight(p[len(entry.mountPath):], "/")
		}
	}
	return t.defaultFS, name
}

// clear drops every mount entry.
func (t *mountTable) clear() {
	t.entries = nil
}

// mountPaths returns the mount paths in mount order.
func (t *mountTable) mountPaths() []string {
	paths := make([]string, 0, len(t.entries))
	for _, entry := range t.entries {
		paths = append(paths, entry.mountPath)
	}
	return paths
}
