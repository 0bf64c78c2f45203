package helper

import (
	"net/url"
	"regexp"
)

var ipfsHash = regexp.MustCompile("(Qm[1-9A-HJ-NP-Za-km-z]{44}.*$)")

func IsUrl(uri string) bool {
	u, err := url.Parse(uri)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func IsIpfs(uri string) bool {
	parts := ipfsHash.FindStringSubmatch(uri)
	if len(parts) == 2 {
		return true
	}

	if !IsUrl(uri) {
		return false
	}

	u, _ := url.Parse(uri)
	return u.Scheme == "ipfs"
}

// IsTokenUri reports whether uri can be stored as item metadata.
func IsTokenUri(uri string) bool {
	return IsUrl(uri) || IsIpfs(uri)
}
