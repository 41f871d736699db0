// Package privacy redacts caller data (phone numbers, credentials embedded in
// URLs) before it reaches logs, telemetry or error messages.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// URLs that may carry credentials or internal hostnames
	urlPattern = regexp.MustCompile(`\b(?:https?|tcp|ssl|tls|mqtts?|wss?)://\S+`)

	// Runs of at least seven digits, optionally with a leading plus and
	// common separators, the shape of a dialable number
	phonePattern = regexp.MustCompile(`\+?\d[\d\- ]{5,}\d`)

	ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
)

// visibleDigits is how many trailing digits MaskPhone leaves readable.
const visibleDigits = 4

// ScrubMessage masks phone numbers and anonymizes URLs found in message.
func ScrubMessage(message string) string {
	message = urlPattern.ReplaceAllStringFunc(message, AnonymizeURL)
	return phonePattern.ReplaceAllStringFunc(message, MaskPhone)
}

// MaskPhone replaces every digit of phone except the last four with '*'.
// A leading '+' and separators are kept so the shape stays recognizable.
// Numbers with four digits or fewer are fully masked.
func MaskPhone(phone string) string {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	keep := 0
	if digits > visibleDigits {
		keep = visibleDigits
	}

	var b strings.Builder
	b.Grow(len(phone))
	seen := 0
	for _, r := range phone {
		if r < '0' || r > '9' {
			b.WriteRune(r)
			continue
		}
		seen++
		if seen > digits-keep {
			b.WriteRune(r)
		} else {
			b.WriteByte('*')
		}
	}
	return b.String()
}

// RedactURL strips user info from rawURL and keeps scheme, host and path.
// Unparseable input is replaced by a hash.
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return hashed("url-hash", rawURL)
	}
	if u.User != nil {
		u.User = url.User("redacted")
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}

// AnonymizeURL converts rawURL to a stable opaque token that still tells the
// scheme and host category apart, so repeated failures can be correlated
// without revealing the endpoint.
func AnonymizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return hashed("url-hash", rawURL)
	}

	var parts []string
	if u.Scheme != "" {
		parts = append(parts, u.Scheme)
	}
	if host := u.Hostname(); host != "" {
		parts = append(parts, categorizeHost(host))
	}
	if port := u.Port(); port != "" {
		parts = append(parts, "port-"+port)
	}
	if u.Path != "" && u.Path != "/" {
		parts = append(parts, anonymizePath(u.Path))
	}

	h := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return fmt.Sprintf("url-%x", h[:12])
}

func hashed(prefix, s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%s-%x", prefix, h[:8])
}

func categorizeHost(host string) string {
	switch {
	case host == "localhost" || host == "127.0.0.1" || host == "::1":
		return "localhost"
	case isPrivateIP(host):
		return "private-ip"
	case ipv4Pattern.MatchString(host) || strings.Contains(host, ":"):
		return "public-ip"
	}
	if i := strings.LastIndexByte(host, '.'); i >= 0 && i < len(host)-1 {
		return "domain-" + host[i+1:]
	}
	return "unknown-host"
}

func anonymizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}
	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch {
		case seg == "":
			continue
		case isNumeric(seg):
			out = append(out, "numeric")
		default:
			h := sha256.Sum256([]byte(seg))
			out = append(out, fmt.Sprintf("seg-%x", h[:4]))
		}
	}
	return strings.Join(out, "/")
}

var privatePrefixes = []string{
	"10.", "192.168.", "169.254.",
	"172.16.", "172.17.", "172.18.", "172.19.", "172.20.", "172.21.", "172.22.", "172.23.",
	"172.24.", "172.25.", "172.26.", "172.27.", "172.28.", "172.29.", "172.30.", "172.31.",
	"fc00:", "fd00:", "fe80:",
}

func isPrivateIP(host string) bool {
	host = strings.ToLower(host)
	for _, p := range privatePrefixes {
		if strings.HasPrefix(host, p) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
