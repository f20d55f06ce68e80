package mem

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/backend"
	"github.com/stitchfs/stitchfs/utils"
)

// Scheme defines the filesystem type.
const Scheme = "mem"

const name = "In-Memory Filesystem"

// swappable for tests
var timeNow = time.Now

// node is a single entry in the filesystem map. Directories carry no data; files carry
// their full contents.
type node struct {
	isDir   bool
	data    []byte
	modTime time.Time
}

// FileSystem implements stitchfs.FileSystem in memory. Entries are kept in a flat map keyed
// by normalized absolute path; the root directory always exists. The zero value is not
// usable; construct with NewFileSystem.
//
// All entry access is guarded by a RWMutex, so a FileSystem may serve concurrent callers.
type FileSystem struct {
	mu     sync.RWMutex
	nodes  map[string]*node
	closed bool
}

// NewFileSystem returns an empty in-memory filesystem containing only the root directory.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		nodes: map[string]*node{
			"/": {isDir: true, modTime: timeNow()},
		},
	}
}

// Name returns "In-Memory Filesystem"
func (fs *FileSystem) Name() string {
	return name
}

// Scheme returns "mem" as the initial part of a file URI ie: mem://
func (fs *FileSystem) Scheme() string {
	return Scheme
}

// Close discards every entry. Operations after Close fail with stitchfs.ErrClosed.
func (fs *FileSystem) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.nodes = nil
	fs.closed = true
	return nil
}

// Exists returns whether an entry exists at the path.
func (fs *FileSystem) Exists(name string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.closed {
		return false, stitchfs.ErrClosed
	}
	_, found := fs.nodes[nodeKey(name)]
	return found, nil
}

// Stat returns the Info of the entry at the path.
func (fs *FileSystem) Stat(name string) (stitchfs.Info, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.node(name)
	if err != nil {
		return stitchfs.Info{}, err
	}
	return fs.info(nodeKey(name), n), nil
}

// SetStat updates the modification time of the entry at the path.
func (fs *FileSystem) SetStat(name string, info stitchfs.Info) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := fs.node(name)
	if err != nil {
		return err
	}
	n.modTime = info.ModTime
	return nil
}

// List returns the sorted base names of the entries in the directory.
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

// Scan returns the Infos of the entries in the directory, sorted by name.
func (fs *FileSystem) Scan(name string) ([]stitchfs.Info, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.node(name)
	if err != nil {
		return nil, err
	}
	if !n.isDir {
		return nil, fmt.Errorf("scan %s: %w", name, stitchfs.ErrNotADirectory)
	}

	key := nodeKey(name)
	infos := make([]stitchfs.Info, 0)
	for k, child := range fs.nodes {
		if k != "/" && path.Dir(k) == key {
			infos = append(infos, fs.info(k, child))
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Mkdir creates a single directory. The parent must already exist.
func (fs *FileSystem) Mkdir(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return stitchfs.ErrClosed
	}
	return fs.mkdir(nodeKey(name), false)
}

// MkdirAll creates a directory along with any missing parents. With recreate set, an
// already-existing directory is not an error.
func (fs *FileSystem) MkdirAll(name string, recreate bool) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return stitchfs.ErrClosed
	}

	key := nodeKey(name)
	for _, parent := range parentKeys(key) {
		if err := fs.mkdir(parent, true); err != nil {
			return err
		}
	}
	return fs.mkdir(key, recreate)
}

// Open opens a file with the given mode. Writable modes create the file if it is missing,
// though its parent directory must already exist.
func (fs *FileSystem) Open(name, mode string) (stitchfs.File, error) {
	if _, err := utils.OpenFlag(mode); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return nil, stitchfs.ErrClosed
	}

	key := nodeKey(name)
	n, found := fs.nodes[key]
	switch {
	case found && n.isDir:
		return nil, fmt.Errorf("open %s: %w", name, stitchfs.ErrNotAFile)
	case !found && !utils.ModeCreates(mode):
		return nil, fmt.Errorf("open %s: %w", name, stitchfs.ErrNotExist)
	case !found:
		parent, ok := fs.nodes[parentKey(key)]
		if !ok || !parent.isDir {
			return nil, fmt.Errorf("open %s: parent: %w", name, stitchfs.ErrNotExist)
		}
		n = &node{modTime: timeNow()}
		fs.nodes[key] = n
	}

	if utils.ModeTruncates(mode) {
		n.data = nil
		n.modTime = timeNow()
	}

	f := &File{fileSystem: fs, key: key, name: path.Base(key), mode: mode}
	if utils.ModeAppends(mode) {
		f.cursor = int64(len(n.data))
	}
	return f, nil
}

// OpenText opens a file in text mode, which in memory is identical to Open.
func (fs *FileSystem) OpenText(name, mode string) (stitchfs.File, error) {
	return fs.Open(name, mode)
}

// Remove deletes the file at the path.
func (fs *FileSystem) Remove(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n, err := fs.node(name)
	if err != nil {
		return err
	}
	if n.isDir {
		return fmt.Errorf("remove %s: %w", name, stitchfs.ErrNotAFile)
	}
	delete(fs.nodes, nodeKey(name))
	return nil
}

// RemoveDir deletes the empty directory at the path. The root directory may not be removed.
func (fs *FileSystem) RemoveDir(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	key := nodeKey(name)
	if key == "/" {
		return stitchfs.ErrRemoveRoot
	}
	n, err := fs.node(name)
	if err != nil {
		return err
	}
	if !n.isDir {
		return fmt.Errorf("removedir %s: %w", name, stitchfs.ErrNotADirectory)
	}
	for k := range fs.nodes {
		if path.Dir(k) == key {
			return fmt.Errorf("removedir %s: %w", name, stitchfs.ErrDirNotEmpty)
		}
	}
	delete(fs.nodes, key)
	return nil
}

// Size returns the size in bytes of the file at the path.
func (fs *FileSystem) Size(name string) (uint64, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.node(name)
	if err != nil {
		return 0, err
	}
	if n.isDir {
		return 0, fmt.Errorf("size %s: %w", name, stitchfs.ErrNotAFile)
	}
	return uint64(len(n.data)), nil
}

// SysPath always fails; in-memory entries have no host-system path.
func (fs *FileSystem) SysPath(name string) (string, error) {
	return "", stitchfs.ErrNoSysPath
}

// Type returns the EntryType of the entry at the path.
func (fs *FileSystem) Type(name string) (stitchfs.EntryType, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.node(name)
	if err != nil {
		return stitchfs.TypeUnknown, err
	}
	if n.isDir {
		return stitchfs.TypeDirectory, nil
	}
	return stitchfs.TypeFile, nil
}

// URL always fails; in-memory entries are not addressable outside the process.
func (fs *FileSystem) URL(name string) (string, error) {
	return "", stitchfs.ErrNoURL
}

// HasURL returns false; see URL.
func (fs *FileSystem) HasURL(name string) (bool, error) {
	return false, nil
}

// IsDir returns true if the path exists and is a directory.
func (fs *FileSystem) IsDir(name string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.closed {
		return false, stitchfs.ErrClosed
	}
	n, found := fs.nodes[nodeKey(name)]
	return found && n.isDir, nil
}

// IsFile returns true if the path exists and is a regular file.
func (fs *FileSystem) IsFile(name string) (bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.closed {
		return false, stitchfs.ErrClosed
	}
	n, found := fs.nodes[nodeKey(name)]
	return found && !n.isDir, nil
}

// ValidatePath returns an error when the path is empty or contains a NUL byte.
func (fs *FileSystem) ValidatePath(name string) error {
	return utils.ValidatePath(utils.EnsureLeadingSlash(name))
}

// ReadBytes returns a copy of the file's contents.
func (fs *FileSystem) ReadBytes(name string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	n, err := fs.node(name)
	if err != nil {
		return nil, err
	}
	if n.isDir {
		return nil, fmt.Errorf("read %s: %w", name, stitchfs.ErrNotAFile)
	}
	data := make([]byte, len(n.data))
	copy(data, n.data)
	return data, nil
}

// WriteBytes replaces the file's contents, creating the file if necessary. The parent
// directory must already exist.
func (fs *FileSystem) WriteBytes(name string, data []byte) error {
	f, err := fs.Open(name, "w")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return f.Close()
}

// ReadText returns the file's contents as a string.
func (fs *FileSystem) ReadText(name string) (string, error) {
	data, err := fs.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteText replaces the file's contents with the given string, creating the file if
// necessary.
func (fs *FileSystem) WriteText(name, text string) error {
	return fs.WriteBytes(name, []byte(text))
}

// node returns the entry at the path. Callers hold fs.mu.
func (fs *FileSystem) node(name string) (*node, error) {
	if fs.closed {
		return nil, stitchfs.ErrClosed
	}
	n, found := fs.nodes[nodeKey(name)]
	if !found {
		return nil, fmt.Errorf("%s: %w", name, stitchfs.ErrNotExist)
	}
	return n, nil
}

// mkdir creates a single directory node. Callers hold fs.mu.
func (fs *FileSystem) mkdir(key string, recreate bool) error {
	if n, found := fs.nodes[key]; found {
		if !n.isDir {
			return fmt.Errorf("mkdir %s: %w", key, stitchfs.ErrNotADirectory)
		}
		if !recreate {
			return fmt.Errorf("mkdir %s: %w", key, stitchfs.ErrExists)
		}
		return nil
	}
	parent, found := fs.nodes[parentKey(key)]
	if !found {
		return fmt.Errorf("mkdir %s: parent: %w", key, stitchfs.ErrNotExist)
	}
	if !parent.isDir {
		return fmt.Errorf("mkdir %s: parent: %w", key, stitchfs.ErrNotADirectory)
	}
	fs.nodes[key] = &node{isDir: true, modTime: timeNow()}
	return nil
}

// info builds the Info for a node. Callers hold fs.mu.
func (fs *FileSystem) info(key string, n *node) stitchfs.Info {
	entryType := stitchfs.TypeFile
	var size int64
	if n.isDir {
		entryType = stitchfs.TypeDirectory
	} else {
		size = int64(len(n.data))
	}
	return stitchfs.Info{
		Name:    path.Base(key),
		Size:    size,
		ModTime: n.modTime,
		Type:    entryType,
	}
}

// nodeKey normalizes any incoming path, relative or absolute, to the map key form: an
// absolute path with no trailing separator, the root being "/".
func nodeKey(name string) string {
	return utils.NormalizePath(name)
}

// parentKey returns the key of the path's parent directory.
func parentKey(key string) string {
	return path.Dir(key)
}

// parentKeys returns the keys of every ancestor of the path, root first, the path itself
// excluded.
func parentKeys(key string) []string {
	if key == "/" {
		return nil
	}
	segments := strings.Split(strings.Trim(key, "/"), "/")
	keys := make([]string, 0, len(segments))
	current := ""
	for _, segment := range segments[:len(segments)-1] {
		current = current + "/" + segment
		keys = append(keys, current)
	}
	return append([]string{"/"}, keys...)
}

func init() {
	backend.Register(Scheme, NewFileSystem())
}
