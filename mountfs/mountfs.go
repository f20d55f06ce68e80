package mountfs

import (
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/backend/mem"
	"github.com/stitchfs/stitchfs/utils"
)

// Scheme defines the filesystem type.
const Scheme = "mount"

const name = "Mount Filesystem"

// MountFS composes backend filesystems into one namespace by delegating every operation to
// the backend mounted over the operation's path. It implements stitchfs.FileSystem, so a
// composed namespace can be used anywhere a plain backend can, including as a backend of
// another MountFS.
//
// Mounts are expected to be registered during a setup phase; afterwards the table is a pure
// read and proxied operations may run concurrently. A RWMutex makes interleaved Mount/Close
// calls safe as well.
type MountFS struct {
	mu        sync.RWMutex
	table     mountTable
	autoClose bool
	closed    bool
}

// Option alters the construction of a MountFS.
type Option func(*MountFS)

// WithAutoClose controls whether Close also closes every mounted backend. It defaults to
// true; pass false when mounted backends are owned (and closed) elsewhere. The default
// backend is constructed and closed by the MountFS regardless.
func WithAutoClose(autoClose bool) Option {
	return func(m *MountFS) {
		m.autoClose = autoClose
	}
}

// WithDefaultFileSystem replaces the in-memory default backend serving paths outside every
// mount. The given backend must support MkdirAll with recreate, which is used to materialize
// mount points as directories. Ownership of the backend passes to the MountFS.
func WithDefaultFileSystem(fs stitchfs.FileSystem) Option {
	return func(m *MountFS) {
		m.table.defaultFS = fs
	}
}

// New returns an empty namespace backed by an in-memory default backend.
func New(opts ...Option) *MountFS {
	m := &MountFS{autoClose: true}
	for _, opt := range opts {
		opt(m)
	}
	if m.table.defaultFS == nil {
		m.table.defaultFS = mem.NewFileSystem()
	}
	return m
}

// Mount registers a backend under a path prefix. The path is normalized to its absolute,
// separator-terminated form, so "/data", "data" and "/data/" all name the same mount point.
// Mounting the MountFS onto itself fails with ErrSelfMount, and a path overlapping an
// existing mount (in either direction) fails with ErrMountConflict. On success the mount
// point is created as a directory in the default backend so that listing its parent in the
// default namespace shows the mount point as an ordinary directory.
func (m *MountFS) Mount(mountPath string, fs stitchfs.FileSystem) error {
	if other, ok := fs.(*MountFS); ok && other == m {
		return stitchfs.ErrSelfMount
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return stitchfs.ErrClosed
	}

	mp, err := m.table.add(mountPath, fs)
	if err != nil {
		return err
	}
	return m.table.defaultFS.MkdirAll(mp, true)
}

// Mounts returns the registered mount paths in mount order.
func (m *MountFS) Mounts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.table.mountPaths()
}

// Describe returns a human-readable "path on backend" description of where a path resolves,
// ie "reports on os". It fails with ErrNotExist when the path does not exist.
func (m *MountFS) Describe(name string) (string, error) {
	found, err := m.Exists(name)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%s: %w", name, stitchfs.ErrNotExist)
	}

	fs, rel, err := m.delegate(name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s on %s", rel, fs.Name()), nil
}

// Close closes the namespace. When autoClose is enabled every mounted backend is closed in
// mount order and the mount table is cleared. The default backend is always attempted to be
// closed and the MountFS always ends up marked closed, even when individual backends fail;
// their failures are aggregated into the returned error. A second Close is a no-op.
func (m *MountFS) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	defer func() {
		m.closed = true
	}()

	var errs *multierror.Error
	if m.autoClose {
		for _, entry := range m.table.entries {
			if err := entry.fs.Close(); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("close mount %q: %w", entry.mountPath, err))
			}
		}
		m.table.clear()
	}
	if err := m.table.defaultFS.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("close default filesystem: %w", err))
	}
	return errs.ErrorOrNil()
}

// Name returns "Mount Filesystem"
func (m *MountFS) Name() string {
	return name
}

// Scheme returns "mount" as the initial part of a file URI ie: mount://
func (m *MountFS) Scheme() string {
	return Scheme
}

// delegate resolves a namespace path to the backend owning it and the path relative to that
// backend's root, failing when the namespace is closed.
func (m *MountFS) delegate(name string) (stitchfs.FileSystem, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, "", stitchfs.ErrClosed
	}
	fs, rel := m.table.resolve(name)
	return fs, rel, nil
}

// Exists delegates to the backend owning the path.
func (m *MountFS) Exists(name string) (bool, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return false, err
	}
	return fs.Exists(rel)
}

// Stat delegates to the backend owning the path.
func (m *MountFS) Stat(name string) (stitchfs.Info, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return stitchfs.Info{}, err
	}
	return fs.Stat(rel)
}

// SetStat delegates to the backend owning the path.
func (m *MountFS) SetStat(name string, info stitchfs.Info) error {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return err
	}
	return fs.SetStat(rel, info)
}

// List delegates to the backend owning the path.
func (m *MountFS) List(name string) ([]string, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return nil, err
	}
	return fs.List(rel)
}

// Scan delegates to the backend owning the path.
func (m *MountFS) Scan(name string) ([]stitchfs.Info, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return nil, err
	}
	return fs.Scan(rel)
}

// Mkdir delegates to the backend owning the path.
func (m *MountFS) Mkdir(name string) error {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return err
	}
	return fs.Mkdir(rel)
}

// MkdirAll delegates to the backend owning the path.
func (m *MountFS) MkdirAll(name string, recreate bool) error {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return err
	}
	return fs.MkdirAll(rel, recreate)
}

// Open delegates to the backend owning the path. Mode strings are passed through as-is and
// are assumed to be pre-validated.
func (m *MountFS) Open(name, mode string) (stitchfs.File, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return nil, err
	}
	return fs.Open(rel, mode)
}

// OpenText delegates to the backend owning the path.
func (m *MountFS) OpenText(name, mode string) (stitchfs.File, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return nil, err
	}
	return fs.OpenText(rel, mode)
}

// Remove delegates to the backend owning the path.
func (m *MountFS) Remove(name string) error {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return err
	}
	return fs.Remove(rel)
}

// RemoveDir delegates to the backend owning the path, except for the namespace root, which
// may never be removed and fails with ErrRemoveRoot before any backend is consulted. A
// closed namespace fails with ErrClosed like every other operation.
func (m *MountFS) RemoveDir(name string) error {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return err
	}
	// both "" and "/" normalize to "/"
	if utils.NormalizePath(name) == "/" {
		return stitchfs.ErrRemoveRoot
	}
	return fs.RemoveDir(rel)
}

// Size delegates to the backend owning the path.
func (m *MountFS) Size(name string) (uint64, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return 0, err
	}
	return fs.Size(rel)
}

// SysPath delegates to the backend owning the path.
func (m *MountFS) SysPath(name string) (string, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return "", err
	}
	return fs.SysPath(rel)
}

// Type delegates to the backend owning the path.
func (m *MountFS) Type(name string) (stitchfs.EntryType, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return stitchfs.TypeUnknown, err
	}
	return fs.Type(rel)
}

// URL delegates to the backend owning the path.
func (m *MountFS) URL(name string) (string, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return "", err
	}
	return fs.URL(rel)
}

// HasURL delegates to the backend owning the path.
func (m *MountFS) HasURL(name string) (bool, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return false, err
	}
	return fs.HasURL(rel)
}

// IsDir delegates to the backend owning the path.
func (m *MountFS) IsDir(name string) (bool, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return false, err
	}
	return fs.IsDir(rel)
}

// IsFile delegates to the backend owning the path.
func (m *MountFS) IsFile(name string) (bool, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return false, err
	}
	return fs.IsFile(rel)
}

// ValidatePath delegates to the backend owning the path.
func (m *MountFS) ValidatePath(name string) error {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return err
	}
	return fs.ValidatePath(rel)
}

// ReadBytes delegates to the backend owning the path.
func (m *MountFS) ReadBytes(name string) ([]byte, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadBytes(rel)
}

// WriteBytes delegates to the backend owning the path.
func (m *MountFS) WriteBytes(name string, data []byte) error {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return err
	}
	return fs.WriteBytes(rel, data)
}

// ReadText delegates to the backend owning the path.
func (m *MountFS) ReadText(name string) (string, error) {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return "", err
	}
	return fs.ReadText(rel)
}

// WriteText delegates to the backend owning the path.
func (m *MountFS) WriteText(name, text string) error {
	fs, rel, err := m.delegate(name)
	if err != nil {
		return err
	}
	return fs.WriteText(rel, text)
}
