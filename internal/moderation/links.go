package moderation

import (
	"net/url"
	"regexp"
	"strings"
)

// Two independent patterns: explicit scheme URLs and bare www tokens. A
// message like "check www.evil.com" carries no scheme, so the second pattern
// is needed to catch it.
var (
	schemeURLPattern = regexp.MustCompile(`(?i)https?://[^\s]+`)
	bareWWWPattern   = regexp.MustCompile(`(?i)www\.[^\s]+`)
)

// ExtractHostnames pulls every URL-looking token out of content and returns
// the lower-cased hostnames. Tokens that fail to parse are skipped. The same
// host may appear more than once; callers only care whether any hostname is
// disallowed.
func ExtractHostnames(content string) []string {
	var hosts []string

	for _, raw := range schemeURLPattern.FindAllString(content, -1) {
		u, err := url.Parse(raw)
		if err != nil || u.Hostname() == "" {
			continue
		}
		hosts = append(hosts, strings.ToLower(u.Hostname()))
	}

	for _, raw := range bareWWWPattern.FindAllString(content, -1) {
		host := strings.TrimPrefix(strings.ToLower(raw), "www.")
		if i := strings.IndexByte(host, '/'); i >= 0 {
			host = host[:i]
		}
		if host != "" {
			hosts = append(hosts, host)
		}
	}

	return hosts
}

// HostAllowed reports whether host matches an allow-list entry exactly or as
// a subdomain. An empty allow-list denies every host.
func HostAllowed(host string, allowDomains []string) bool {
	if len(allowDomains) == 0 {
		return false
	}
	for _, entry := range allowDomains {
		entry = strings.ToLower(entry)
		if entry == "" {
			continue
		}
		if host == entry || strings.HasSuffix(host, "."+entry) {
			return true
		}
	}
	return false
}
