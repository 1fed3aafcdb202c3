package utils

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeLink validates an external song link. Tidal track links get the
// "/u" suffix so they open in the web player instead of the app.
func NormalizeLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported link scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("link has no host: %s", link)
	}

	host := strings.ToLower(u.Host)
	if (host == "tidal.com" || strings.HasSuffix(host, ".tidal.com")) && !strings.HasSuffix(u.Path, "/u") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/u"
	}
	return u.String(), nil
}

// SplitList splits a comma separated list and trims each entry, dropping empties.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
