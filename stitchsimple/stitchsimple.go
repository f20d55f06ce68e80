// Package stitchsimple provides a convenience layer for instantiating configured backends
// from uri strings, which is how the stitchcp tool assembles namespaces from the command
// line.
package stitchsimple

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/stitchfs/stitchfs"
	"github.com/stitchfs/stitchfs/backend/ftp"
	"github.com/stitchfs/stitchfs/backend/mem"
	osfs "github.com/stitchfs/stitchfs/backend/os"
	"github.com/stitchfs/stitchfs/backend/s3"
	"github.com/stitchfs/stitchfs/backend/sftp"
)

var (
	ErrBlankURI          = errors.New("uri is blank")
	ErrMissingScheme     = errors.New("unable to determine uri scheme")
	ErrMissingAuthority  = errors.New("unable to determine uri authority ([user@]host[:port]) for network-based scheme")
	ErrUnsupportedScheme = errors.New("no matching backend found for uri scheme")
)

// NewFileSystem instantiates a backend from a uri string. The path portion of the uri
// scopes the backend: file:///srv/data roots an os backend at /srv/data, s3://bucket/pre
// keys objects beneath "pre", and sftp://user@host/base serves the remote tree under
// /base. Any backend so constructed is freshly built and owned by the caller (or by the
// namespace it is mounted into, when auto-close is on).
func NewFileSystem(uri string) (stitchfs.FileSystem, error) {
	u, err := parseSupportedURI(uri)
	if err != nil {
		return nil, fmt.Errorf("unable to create filesystem for uri %q: %w", uri, err)
	}

	switch u.Scheme {
	case mem.Scheme:
		return mem.NewFileSystem(), nil

	case osfs.Scheme:
		return osfs.NewFileSystem(u.Path), nil

	case sftp.Scheme:
		fs, err := sftp.NewFileSystem(authorityStr(u))
		if err != nil {
			return nil, err
		}
		return fs.WithOptions(sftp.Options{BasePath: u.Path}), nil

	case ftp.Scheme:
		fs, err := ftp.NewFileSystem(authorityStr(u))
		if err != nil {
			return nil, err
		}
		return fs.WithOptions(ftp.Options{BasePath: u.Path}), nil

	case s3.Scheme:
		return s3.NewFileSystem(u.Host).WithOptions(s3.Options{Prefix: u.Path}), nil
	}

	// unreachable given parseSupportedURI, but keeps the compiler honest
	return nil, ErrUnsupportedScheme
}

// parseSupportedURI parses a uri and validates that it names a supported backend.
func parseSupportedURI(uri string) (*url.URL, error) {
	if uri == "" {
		return nil, ErrBlankURI
	}

	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("unknown url.Parse error: %w", err)
	}
	if u.Scheme == "" {
		return nil, ErrMissingScheme
	}

	switch u.Scheme {
	case mem.Scheme, osfs.Scheme:
		// local schemes need no authority
	case sftp.Scheme, ftp.Scheme, s3.Scheme:
		if u.Host == "" {
			return nil, ErrMissingAuthority
		}
	default:
		return nil, ErrUnsupportedScheme
	}
	return u, nil
}

// authorityStr rebuilds the [user@]host[:port] portion of a parsed uri.
func authorityStr(u *url.URL) string {
	if u.User.String() != "" {
		return fmt.Sprintf("%s@%s", u.User, u.Host)
	}
	return u.Host
}
