package ftp

import (
	"fmt"
	"os"
	"time"

	_ftp "github.com/jlaffaye/ftp"

	"github.com/stitchfs/stitchfs/utils"
)

const defaultDialTimeout = 5 * time.Second

// Options holds ftp-specific options.
type Options struct {
	// BasePath scopes the backend to a remote directory; every backend path is joined
	// beneath it. Defaults to "/".
	BasePath string `json:"basePath,omitempty"`
	// Username defaults to the authority userinfo, then "anonymous".
	Username string `json:"username,omitempty"` // env var STITCHFS_FTP_USERNAME
	Password string `json:"password,omitempty"` // env var STITCHFS_FTP_PASSWORD
	// DisableEPSV forces active-mode fallbacks on servers with broken extended passive
	// mode support.
	DisableEPSV bool          `json:"disableEPSV,omitempty"`
	DialTimeout time.Duration `json:"dialTimeout,omitempty"`
}

func getClient(authority utils.Authority, opts Options) (*_ftp.ServerConn, error) {
	timeout := opts.DialTimeout
	if timeout == 0 {
		timeout = defaultDialTimeout
	}

	// default to port 21
	host := authority.HostPortStr()
	if authority.Port() == 0 {
		host = fmt.Sprintf("%s:21", authority.Host())
	}

	client, err := _ftp.Dial(host,
		_ftp.DialWithTimeout(timeout),
		_ftp.DialWithDisabledEPSV(opts.DisableEPSV),
	)
	if err != nil {
		return nil, err
	}

	username := authority.UserInfo().Username()
	if opts.Username != "" {
		username = opts.Username
	}
	if env := os.Getenv("STITCHFS_FTP_USERNAME"); username == "" && env != "" {
		username = env
	}
	if username == "" {
		username = "anonymous"
	}

	password := authority.UserInfo().Password()
	if opts.Password != "" {
		password = opts.Password
	}
	if env := os.Getenv("STITCHFS_FTP_PASSWORD"); password == "" && env != "" {
		password = env
	}
	if password == "" && username == "anonymous" {
		password = "anonymous"
	}

	if err := client.Login(username, password); err != nil {
		_ = client.Quit()
		return nil, err
	}
	return client, nil
}
