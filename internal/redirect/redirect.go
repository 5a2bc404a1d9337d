// Package redirect sends visitors of the naked domain to its www host.
package redirect

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// CanonicalURL returns the www URL for rawURL when its host is the naked
// domain. The returned URL is lower-cased, the port is kept.
func CanonicalURL(rawURL, domain string) (string, bool) {
	domain = strings.ToLower(domain)
	if domain == "" {
		return "", false
	}
	u, err := url.Parse(strings.ToLower(rawURL))
	if err != nil || u.Hostname() != domain {
		return "", false
	}
	host := "www." + domain
	if port := u.Port(); port != "" {
		host = net.JoinHostPort(host, port)
	}
	u.Host = host
	return u.String(), true
}

// Middleware answers requests for the naked domain with a permanent
// redirect. An empty domain disables it.
func Middleware(domain string, next http.Handler) http.Handler {
	if domain == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		if target, ok := CanonicalURL(scheme+"://"+r.Host+r.URL.RequestURI(), domain); ok {
			http.Redirect(w, r, target, http.StatusMovedPermanently)
			return
		}
		next.ServeHTTP(w, r)
	})
}
