/*
Package mountfs implements the composed namespace at the heart of stitchfs: a mount table
mapping path prefixes onto backend filesystems, and a façade that implements the full
stitchfs.FileSystem interface by delegating each operation through that table.

# Delegation

Every operation follows the same contract:

 1. fail with stitchfs.ErrClosed if the namespace has been closed
 2. resolve the path through the mount table
 3. forward the operation to the resolved backend using the backend-relative path
 4. propagate the backend's result or error verbatim

Resolution normalizes the path to its absolute, separator-terminated form and scans mounts
in registration order; a path under no mount is served by the default backend with the
caller's original path passed through unchanged, so a namespace with no mounts behaves
exactly like its default backend.

	ns := mountfs.New()
	_ = ns.Mount("/data", dataFS)

	names, _ := ns.List("/data/x") // forwarded to dataFS as List("x")
	ok, _ := ns.IsFile("/readme.txt") // forwarded to the default backend unchanged

# Overlap rule

Mount registration rejects a mount path when it extends an existing mount path or when an
existing mount path extends it. Both directions are rejected so that resolution never
depends on registration order; a tree of nested mounts can instead be built by using a
second MountFS as the backend of the outer mount.

# Lifecycle

Close marks the namespace closed exactly once; a second Close is a no-op. With auto-close
enabled (the default) mounted backends are closed in mount order and the table is cleared.
Failures closing one backend never skip the remaining backends or the default backend, and
the namespace is marked closed regardless.
*/
package mountfs
