package backend

import (
	"sort"
	"sync"

	"github.com/stitchfs/stitchfs"
)

// registry maps scheme names onto shared backend instances. Backends add themselves from
// their package init, so the set of available schemes is decided by which backend packages
// a program imports (see backend/all).
var registry = struct {
	sync.RWMutex
	backends map[string]stitchfs.FileSystem
}{
	backends: make(map[string]stitchfs.FileSystem),
}

// Register adds a filesystem under the given scheme name. Registering a name twice replaces
// the earlier filesystem, which lets a program swap a bundled backend for a configured
// instance, ie an os backend rooted somewhere other than "/".
func Register(name string, fs stitchfs.FileSystem) {
	registry.Lock()
	defer registry.Unlock()
	registry.backends[name] = fs
}

// Unregister removes the filesystem registered under the given scheme name, if any.
func Unregister(name string) {
	registry.Lock()
	defer registry.Unlock()
	delete(registry.backends, name)
}

// UnregisterAll removes every registered filesystem. Mainly for tests.
func UnregisterAll() {
	registry.Lock()
	defer registry.Unlock()
	registry.backends = make(map[string]stitchfs.FileSystem)
}

// Backend returns the filesystem registered under the given scheme name, or nil when the
// scheme is unknown.
func Backend(name string) stitchfs.FileSystem {
	registry.RLock()
	defer registry.RUnlock()
	return registry.backends[name]
}

// Registered returns whether a filesystem is registered under the given scheme name.
func Registered(name string) bool {
	registry.RLock()
	defer registry.RUnlock()
	_, found := registry.backends[name]
	return found
}

// RegisteredBackends returns the registered scheme names, sorted.
func RegisteredBackends() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.backends))
	for name := range registry.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
