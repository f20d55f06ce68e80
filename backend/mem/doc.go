/*
Package mem implements an in-memory stitchfs backend. It is the default backend of a
mountfs namespace: any path outside every mount is served from memory, and mount points are
materialized here as empty directories so that parent listings show them as ordinary
entries.

Entries live in a flat map keyed by normalized absolute path. The root directory always
exists; everything else is created through Mkdir/MkdirAll or by opening a file with a
writable mode. Contents are discarded on Close.

A shared instance registers itself under the "mem" scheme on load. Construct isolated
instances with NewFileSystem.
*/
package mem
