package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	ytURLRe = regexp.MustCompile(`(?:https?://)?(?:www\.|m\.)?(?:youtube|youtu|youtube-nocookie)\.(?:com|be)/(?:watch\?v=|embed/|v/|live/|.+\?v=|shorts/)?([^&=%\?/]{11})`)
	ytIDRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
)

// ExtractVideoID pulls the 11-character YouTube video ID out of the usual
// URL spellings (watch, shorts, embed, youtu.be), or validates a bare ID.
// Returns "" when the input is not recognizably YouTube.
func ExtractVideoID(input string) string {
	matches := ytURLRe.FindStringSubmatch(input)
	if len(matches) >= 2 {
		return matches[1]
	}

	if ytIDRe.MatchString(input) {
		return input
	}

	return ""
}

// CacheKey derives the canonical resolution-cache key for a source URL.
// YouTube URLs collapse to "yt:<id>" so every spelling of the same video
// shares one entry. For other platforms the normalized URL string is the
// key; alias URLs of the same video then miss each other, which is an
// accepted cache-miss risk, not a defect.
func CacheKey(rawURL string) string {
	if id := ExtractVideoID(rawURL); id != "" {
		return "yt:" + id
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return strings.TrimSpace(rawURL)
	}

	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	if u.Scheme == "" {
		u.Scheme = "https"
	} else {
		u.Scheme = strings.ToLower(u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
