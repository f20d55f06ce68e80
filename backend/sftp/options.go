package sftp

import (
	"fmt"
	"os"
	"path"
	"runtime"

	"github.com/mitchellh/go-homedir"
	_sftp "github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/stitchfs/stitchfs/utils"
)

const systemWideKnownHosts = "/etc/ssh/ssh_known_hosts"

// Options holds sftp-specific options.
type Options struct {
	// BasePath scopes the backend to a remote directory; every backend path is joined
	// beneath it. Defaults to "/".
	BasePath           string              `json:"basePath,omitempty"`
	Password           string              `json:"password,omitempty"`       // env var STITCHFS_SFTP_PASSWORD
	KeyFilePath        string              `json:"keyFilePath,omitempty"`    // env var STITCHFS_SFTP_KEYFILE
	KeyPassphrase      string              `json:"keyPassphrase,omitempty"`  // env var STITCHFS_SFTP_KEYFILE_PASSPHRASE
	KnownHostsFile     string              `json:"knownHostsFile,omitempty"` // env var STITCHFS_SFTP_KNOWN_HOSTS_FILE
	KnownHostsString   string              `json:"knownHostsString,omitempty"`
	KnownHostsCallback ssh.HostKeyCallback // env var STITCHFS_SFTP_INSECURE_KNOWN_HOSTS
}

func getClient(authority utils.Authority, opts Options) (*_sftp.Client, error) {
	// setup Authentication
	authMethods, err := getAuthMethods(opts)
	if err != nil {
		return nil, err
	}

	// get callback for handling known_hosts man-in-the-middle checks
	hostKeyCallback, err := getHostKeyCallback(opts)
	if err != nil {
		return nil, err
	}

	config := &ssh.ClientConfig{
		User:            authority.UserInfo().Username(),
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
	}

	// default to port 22
	host := authority.HostPortStr()
	if authority.Port() == 0 {
		host = fmt.Sprintf("%s:22", authority.Host())
	}

	sshClient, err := ssh.Dial("tcp", host, config)
	if err != nil {
		return nil, err
	}

	client, err := _sftp.NewClient(sshClient)
	if err != nil {
		return nil, err
	}

	return client, nil
}

// getHostKeyCallback gets host key callback for all known_hosts files
func getHostKeyCallback(opts Options) (ssh.HostKeyCallback, error) {
	var knownHostsFiles []string
	switch {

	// use explicit callback in Options
	case opts.KnownHostsCallback != nil:
		return opts.KnownHostsCallback, nil

	case opts.KnownHostsString != "":
		hostKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(opts.KnownHostsString))
		if err != nil {
			return nil, err
		}
		return ssh.FixedHostKey(hostKey), nil

	// use explicit known_hosts file path, ie, /home/bob/.ssh/known_hosts
	case opts.KnownHostsFile != "":
		// check first to prevent auto-vivification of file
		found, err := foundFile(opts.KnownHostsFile)
		if err != nil {
			return nil, err
		}
		if found {
			knownHostsFiles = append(knownHostsFiles, opts.KnownHostsFile)
			break
		}
		// use env var if explicit file wasn't found
		fallthrough

	// use env var known_hosts file path, ie, /home/bob/.ssh/known_hosts
	case os.Getenv("STITCHFS_SFTP_KNOWN_HOSTS_FILE") != "":
		// check first to prevent auto-vivification of file
		found, err := foundFile(os.Getenv("STITCHFS_SFTP_KNOWN_HOSTS_FILE"))
		if err != nil {
			return nil, err
		}
		if found {
			knownHostsFiles = append(knownHostsFiles, os.Getenv("STITCHFS_SFTP_KNOWN_HOSTS_FILE"))
			break
		}
		fallthrough

	case os.Getenv("STITCHFS_SFTP_INSECURE_KNOWN_HOSTS") != "":
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // intentional opt-in escape hatch

	// use user/system-wide known_hosts paths (as defined by OpenSSH https://man.openbsd.org/ssh)
	default:
		var err error
		knownHostsFiles, err = findHomeSystemKnownHosts(knownHostsFiles)
		if err != nil {
			return nil, err
		}
	}

	// get host key callback for all known_hosts files
	return knownhosts.New(knownHostsFiles...)
}

func findHomeSystemKnownHosts(knownHostsFiles []string) ([]string, error) {
	// add ~/.ssh/known_hosts
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}
	homeKnownHostsPath := utils.EnsureLeadingSlash(path.Join(home, ".ssh/known_hosts"))

	// check file existence first to prevent auto-vivification of file
	found, err := foundFile(homeKnownHostsPath)
	if err != nil {
		return nil, err
	}
	if found {
		knownHostsFiles = append(knownHostsFiles, homeKnownHostsPath)
	}

	// add /etc/ssh/ssh_known_hosts for unix-like systems.  SSH doesn't exist natively on Windows and each
	// implementation has a different location for known_hosts. Better to specify in KnownHostsFile for Windows
	if runtime.GOOS != "windows" {
		found, err := foundFile(systemWideKnownHosts)
		if err != nil {
			return nil, err
		}
		if found {
			knownHostsFiles = append(knownHostsFiles, systemWideKnownHosts)
		}
	}
	return knownHostsFiles, nil
}

func foundFile(file string) (bool, error) {
	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) {
			// file does not exist
			return false, nil
		}
		// other error
		return false, err
	}
	return true, nil
}

func getAuthMethods(opts Options) ([]ssh.AuthMethod, error) {
	auth := make([]ssh.AuthMethod, 0)

	// explicitly set password from opts, then from env if any
	pw := os.Getenv("STITCHFS_SFTP_PASSWORD")
	if opts.Password != "" {
		pw = opts.Password
	}
	if pw != "" {
		auth = append(auth, ssh.Password(pw))
	}

	// setup key-based auth from opts, then from env if any
	keyfile := os.Getenv("STITCHFS_SFTP_KEYFILE")
	if opts.KeyFilePath != "" {
		keyfile = opts.KeyFilePath
	}
	passphrase := os.Getenv("STITCHFS_SFTP_KEYFILE_PASSPHRASE")
	if opts.KeyPassphrase != "" {
		passphrase = opts.KeyPassphrase
	}
	if keyfile != "" {
		secretKey, err := getKeyFile(keyfile, passphrase)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(secretKey))
	}

	return auth, nil
}

// getKeyFile parses a private key file, decrypting it with the passphrase when one is given.
// Note that as of Go 1.12, OPENSSH private key format is not supported when encrypted (with passphrase).
// See https://github.com/golang/go/issues/18692
// To force creation of PEM format (instead of OPENSSH format), use ssh-keygen -m PEM
func getKeyFile(file, passphrase string) (ssh.Signer, error) {
	buf, err := os.ReadFile(file) //nolint:gosec // key location is caller-provided
	if err != nil {
		return nil, err
	}
	if passphrase != "" {
		return ssh.ParsePrivateKeyWithPassphrase(buf, []byte(passphrase))
	}
	return ssh.ParsePrivateKey(buf)
}
