/*
Package stitchfs provides a virtual filesystem that stitches any number of
independent backend filesystems into one logical namespace. Backends are
mounted under path prefixes and every operation on the composed namespace is
delegated to the backend owning that prefix, with the path rewritten relative
to the mount point.

# Philosophy

Tooling that assembles a working tree from heterogeneous sources (fixtures in
memory, artifacts on disk, archives on a remote host) tends to accumulate code
to the effect of

	if strings.HasPrefix(p, "/cache/") {
		// talk to the cache store with a trimmed path
	} else if strings.HasPrefix(p, "/data/") {
		// talk to the data store with a trimmed path
	} else {
		// fall back to local files
	}

which is both ugly and subtly wrong in different ways at each call site: some
branches forget to trim the prefix, some forget the fallback, and none agree
on what happens when prefixes overlap. stitchfs centralizes the routing
decision in one mount table with one set of rules:

  - mounts may not overlap; registration fails rather than shadowing
  - the first (and, given the overlap rule, only) matching mount wins
  - a backend only ever sees paths relative to its own root
  - anything outside every mount is served by a default in-memory backend,
    which also materializes mount points as plain directories so parent
    listings look ordinary

What you get:

  - a single FileSystem interface for the whole composed namespace
  - pluggable backends (mem, os, sftp, ftp, s3 are bundled) and a registry so
    third-party backends can self-register by scheme
  - mockable filesystems for testing delegation behavior

# Usage

	ns := mountfs.New()
	defer ns.Close()

	if err := ns.Mount("/data", osfs.NewFileSystem("/srv/data")); err != nil {
		// handle overlap/self-mount
	}

	names, err := ns.List("/data/reports") // delegated as List("reports")

See package mountfs for the mount table and delegation rules, package backend
for registration, and the backend subpackages for each bundled backend.
*/
package stitchfs
