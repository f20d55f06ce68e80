/*
Package os implements a stitchfs backend over a directory of the host filesystem. The
backend is rooted: every path it receives is joined beneath the root directory given at
construction, and normalization collapses ".." segments first, so mounted callers cannot
reach outside the root.

It is the only bundled backend whose entries have a real SysPath. URLs are file:// URIs of
the host path.

A shared instance rooted at "/" registers itself under the "file" scheme on load. Construct
rooted instances with NewFileSystem; "~" is expanded to the user's home directory.
*/
package os
