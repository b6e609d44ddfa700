package redact

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// Hidden replaces any credential material.
const Hidden = "[HIDDEN]"

var detectors = []*regexp.Regexp{
	// OpenAI keys, including the partially masked form echoed in provider errors
	regexp.MustCompile(`(?i)\bsk-[a-z0-9_\-*]{8,}`),
	// Google API keys
	regexp.MustCompile(`AIza[0-9A-Za-z\-_]{35}`),
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9\-._~+/]+=*`),
}

var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
	"X-Api-Key":           true,
	"X-Goog-Api-Key":      true,
}

// String masks every occurrence of secrets and of well-known key formats in s.
func String(s string, secrets ...string) string {
	for _, secret := range secrets {
		if strings.TrimSpace(secret) == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, Hidden)
	}
	for _, re := range detectors {
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			if strings.HasPrefix(strings.ToLower(m), "bearer") {
				return "Bearer " + Hidden
			}
			return Hidden
		})
	}
	return s
}

// Headers flattens h for logging with credentials hidden.
func Headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		canon := http.CanonicalHeaderKey(k)
		if sensitiveHeaders[canon] {
			if canon == "Authorization" {
				out[canon] = "Bearer " + Hidden
			} else {
				out[canon] = Hidden
			}
			continue
		}
		out[canon] = strings.Join(h[k], ", ")
	}
	return out
}
