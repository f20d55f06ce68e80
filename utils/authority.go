package utils

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

/*
   URI parlance (see https://www.rfc-editor.org/rfc/rfc3986.html#section-3.2):

       foo://example.com:8042/over/there?name=ferret#nose
       \_/   \______________/\_________/ \_________/ \__/
        |           |            |            |        |
     scheme     authority       path        query   fragment

   Where:
     authority   = [ userinfo "@" ] host [ ":" port ]
*/

// Authority represents host, port and userinfo (user/pass) in a URI
type Authority struct {
	host string
	port uint16
	url  *url.URL
}

// UserInfo represents user/pass portion of a URI
type UserInfo struct {
	url *url.URL
}

// Username returns the username of a URI UserInfo.  May be an empty string.
func (u UserInfo) Username() string {
	return u.url.User.Username()
}

// Password returns the password of a URI UserInfo.  May be an empty string.
func (u UserInfo) Password() string {
	p, _ := u.url.User.Password()
	return p
}

// NewAuthority initializes Authority struct by parsing an authority string of the form
// [userinfo@]host[:port]. Host is required; userinfo and port are optional.
func NewAuthority(authority string) (Authority, error) {
	if authority == "" {
		return Authority{}, errors.New("authority string may not be empty")
	}

	u, err := url.Parse("scheme://" + authority)
	if err != nil {
		return Authority{}, err
	}

	host := u.Hostname()
	if host == "" {
		return Authority{}, errors.New("authority requires a host")
	}

	var port uint16
	if p := u.Port(); p != "" {
		val, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Authority{}, err
		}
		port = uint16(val)
	}

	return Authority{
		host: host,
		port: port,
		url:  u,
	}, nil
}

// String returns a string representation of authority.  It does not include password per
// https://tools.ietf.org/html/rfc3986#section-3.2.1
//
//	Applications should not render as clear text any data after the first colon (":") character found within a userinfo
//	subcomponent unless the data after the colon is the empty string (indicating no password).
func (a Authority) String() string {
	authority := a.HostPortStr()
	if a.UserInfo().Username() != "" {
		authority = fmt.Sprintf("%s@%s", a.UserInfo().Username(), authority)
	}
	return authority
}

// UserInfo returns the userinfo section of authority.  userinfo is username and password(deprecated).
func (a Authority) UserInfo() UserInfo {
	return UserInfo{
		url: a.url,
	}
}

// Host returns the host portion of an authority
func (a Authority) Host() string {
	return a.host
}

// Port returns the port portion of an authority
func (a Authority) Port() uint16 {
	return a.port
}

// HostPortStr returns a concatenated string of host and port from authority, separated by a colon, ie "host.com:1234"
func (a Authority) HostPortStr() string {
	if a.Port() != 0 {
		return fmt.Sprintf("%s:%d", a.Host(), a.Port())
	}
	return a.Host()
}
