package middleware

import (
	"net"
	"net/http"
	"strings"
)

// LegacyHostRedirect permanently redirects requests for a legacy host to the
// same path and query on canonicalURL.
func LegacyHostRedirect(legacyHosts []string, canonicalURL string) func(http.Handler) http.Handler {
	hosts := make(map[string]bool, len(legacyHosts))
	for _, h := range legacyHosts {
		if h = normalizeHost(h); h != "" {
			hosts[h] = true
		}
	}
	canonicalURL = strings.TrimRight(canonicalURL, "/")

	return func(next http.Handler) http.Handler {
		if len(hosts) == 0 || canonicalURL == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hosts[normalizeHost(r.Host)] {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, canonicalURL+r.URL.RequestURI(), http.StatusPermanentRedirect)
		})
	}
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.TrimSuffix(host, ".")
}
