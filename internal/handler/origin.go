package handler

import (
	"net/url"
	"strings"
)

var loopbackHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// OriginAllowed reports whether a browser Origin header may use the service.
// An empty allow-list admits every origin. Loopback origins are always
// admitted. Entries match the full origin, or its host[:port] when written
// without a scheme.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}

	if len(allowed) == 0 {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}

	if loopbackHosts[strings.ToLower(u.Hostname())] {
		return true
	}

	full := strings.ToLower(u.Scheme + "://" + u.Host)
	host := strings.ToLower(u.Host)

	for _, entry := range allowed {
		candidate := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(entry), "/"))
		if candidate == "" {
			continue
		}

		if strings.Contains(candidate, "://") {
			if candidate == full {
				return true
			}
			continue
		}

		if candidate == host {
			return true
		}
	}

	return false
}
