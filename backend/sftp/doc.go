/*
Package sftp implements a stitchfs backend over SFTP. A backend is constructed against a
single authority ([user@]host[:port]) and dials lazily on first use; Options.BasePath
scopes every backend path beneath a remote directory, which makes an sftp backend a natural
mount target for a remote subtree:

	fs, err := sftp.NewFileSystem("deploy@build-host:22")
	if err != nil { ... }
	fs.WithOptions(sftp.Options{BasePath: "/srv/artifacts"})
	_ = ns.Mount("/artifacts", fs)

# Authentication resolution

Passwords and key files come from Options first and fall back to environment variables
(STITCHFS_SFTP_PASSWORD, STITCHFS_SFTP_KEYFILE, STITCHFS_SFTP_KEYFILE_PASSPHRASE). Host key
verification resolves, in order: an explicit Options callback, a pinned
Options.KnownHostsString, Options.KnownHostsFile, the STITCHFS_SFTP_KNOWN_HOSTS_FILE env
var, the STITCHFS_SFTP_INSECURE_KNOWN_HOSTS escape hatch, and finally the usual OpenSSH
known_hosts locations.

Closing the backend closes the underlying connection; a mountfs namespace with auto-close
enabled does this for every mounted sftp backend on Close.
*/
package sftp
