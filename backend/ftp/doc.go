/*
Package ftp implements a stitchfs backend over FTP. A backend is constructed against a
single authority ([user@]host[:port]) and dials lazily on first use; Options.BasePath
scopes every backend path beneath a remote directory.

FTP data connections cannot seek, so file access is staged: opening a file for read
downloads it, and written contents are buffered in memory and uploaded with STOR when the
file is closed. This makes the backend best suited to the whole-file operations (ReadBytes,
WriteBytes, ReadText, WriteText) that tooling over a composed namespace mostly performs.

Credentials resolve from the authority userinfo, then Options, then the
STITCHFS_FTP_USERNAME/STITCHFS_FTP_PASSWORD environment variables, falling back to
anonymous login.
*/
package ftp
