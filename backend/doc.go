/*
Package backend provides a means of allowing backend filesystems to self-register on load
via an init() call to backend.Register("scheme", fs).

In this way, a caller can load only the backends it intends to compose and then assemble a
namespace from them:

	package main

	// import backend and each backend you intend to use
	import (
	    "github.com/stitchfs/stitchfs/backend"
	    "github.com/stitchfs/stitchfs/backend/mem"
	    osfs "github.com/stitchfs/stitchfs/backend/os"
	    "github.com/stitchfs/stitchfs/mountfs"
	)

	func main() {
	    ns := mountfs.New()
	    defer ns.Close()

	    // THEN begin composing the namespace
	    if err := ns.Mount("/scratch", backend.Backend(mem.Scheme)); err != nil {
	        panic(err)
	    }
	    if err := ns.Mount("/data", backend.Backend(osfs.Scheme)); err != nil {
	        panic(err)
	    }
	}

Note that registered backends are shared instances: mounting the same registered backend
into two namespaces shares its state between them. Construct a fresh backend (ie
mem.NewFileSystem, osfs.NewFileSystem) when isolation matters.

# Development

To create your own backend, implement stitchfs.FileSystem over paths relative to your
backend's root and ensure it registers itself on load:

	func init() {
	    backend.Register(Scheme, NewFileSystem())
	}
*/
package backend
