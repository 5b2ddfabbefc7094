// Copyright (c) Gatehouse, Inc.
// SPDX-License-Identifier: BUSL-1.1

package masking

import "strings"

// Connection uris are rewritten with plain string surgery instead of net/url:
// multi-host authorities ("mongodb://u:p@host1,host2/db") are not valid urls
// and net/url either rejects or mangles them.  Only the password segment of
// the userinfo is ever touched; scheme, username, hosts (including ipv6
// literals), path and query pass through byte for byte.

// splitURI splits a uri into the part before the userinfo, the userinfo
// itself, and the part after it (starting at the "@").  hasUserinfo is false
// when the uri has no authority or the authority carries no userinfo.
func splitURI(uri string) (prefix, userinfo, suffix string, hasUserinfo bool) {
	schemeEnd := strings.Index(uri, "://")
	if schemeEnd < 0 {
		return uri, "", "", false
	}
	authStart := schemeEnd + len("://")
	authEnd := len(uri)
	for i := authStart; i < len(uri); i++ {
		if c := uri[i]; c == '/' || c == '?' || c == '#' {
			authEnd = i
			break
		}
	}
	authority := uri[authStart:authEnd]
	at := strings.LastIndex(authority, "@")
	if at < 0 {
		return uri, "", "", false
	}
	return uri[:authStart], authority[:at], uri[authStart+at:], true
}

// uriPassword extracts the password segment of a uri's userinfo.  ok is false
// when the uri carries no userinfo or the userinfo has no password segment.
func uriPassword(uri string) (password string, ok bool) {
	_, userinfo, _, hasUserinfo := splitURI(uri)
	if !hasUserinfo {
		return "", false
	}
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return "", false
	}
	return userinfo[colon+1:], true
}

// replaceURIPassword returns the uri with its password segment replaced.  A
// uri with no password segment, or no userinfo at all, is returned unchanged.
func replaceURIPassword(uri, password string) string {
	prefix, userinfo, suffix, hasUserinfo := splitURI(uri)
	if !hasUserinfo {
		return uri
	}
	colon := strings.Index(userinfo, ":")
	if colon < 0 {
		return uri
	}
	return prefix + userinfo[:colon] + ":" + password + suffix
}
