/*
Package s3 implements a stitchfs backend over an S3 bucket (or any S3-compatible store via
Options.Endpoint, ie minio). Backend paths map to object keys beneath Options.Prefix, so a
bucket subtree can be mounted into a namespace:

	fs := s3.NewFileSystem("build-artifacts").
		WithOptions(s3.Options{Prefix: "releases/v2", Region: "us-east-1"})
	_ = ns.Mount("/releases", fs)

Directories are zero-byte "dir/" marker objects plus whatever common prefixes listing
reveals; Mkdir and MkdirAll write markers so that empty directories survive. Objects cannot
be rewritten in place, so file access is staged: reads download the object through
manager.Downloader on open, and written contents are buffered in memory and uploaded
through manager.Uploader when the file is closed.

Credentials resolve through the usual AWS default chain; static credentials, region and
endpoint may be pinned in Options.
*/
package s3
