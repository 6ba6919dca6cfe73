package addressing

import (
	"fmt"
	"net/url"
	"strings"
)

// URLMode selects how URLs are rooted.
type URLMode int

const (
	// ModeAuto lets the addresser choose; it currently produces relative URLs.
	ModeAuto URLMode = iota
	// ModeAbsolute produces scheme://host/contextPath/... URLs.
	ModeAbsolute
	// ModeRelative produces /contextPath/... URLs.
	ModeRelative
)

// ParseURLMode parses "auto", "absolute" or "relative".
func ParseURLMode(s string) (URLMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ModeAuto, nil
	case "absolute":
		return ModeAbsolute, nil
	case "relative":
		return ModeRelative, nil
	}
	return ModeAuto, fmt.Errorf("invalid url mode %q", s)
}

// Addresser formats resource URLs against a base URL.
type Addresser struct {
	origin      string
	contextPath string
	devMode     bool
}

// New creates an Addresser. baseURL may be empty (relative URLs rooted at
// "/"), a bare context path ("/jira"), or an absolute URL
// ("https://example.com/jira"). Absolute mode requires an absolute baseURL.
func New(baseURL string, devMode bool) (*Addresser, error) {
	a := &Addresser{devMode: devMode}
	if baseURL == "" {
		return a, nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("invalid base url %q: query and fragment not allowed", baseURL)
	}
	if (u.Scheme == "") != (u.Host == "") {
		return nil, fmt.Errorf("invalid base url %q: need both scheme and host, or neither", baseURL)
	}
	if u.Scheme != "" {
		a.origin = u.Scheme + "://" + u.Host
	}
	a.contextPath = strings.TrimSuffix(u.EscapedPath(), "/")
	return a, nil
}

// DevMode reports whether hashing is disabled.
func (a *Addresser) DevMode() bool {
	return a.devMode
}

// URL returns the full URL for r in the given mode.
func (a *Addresser) URL(r Resource, mode URLMode) string {
	var b strings.Builder
	if mode == ModeAbsolute {
		b.WriteString(a.origin)
	}
	b.WriteString(a.contextPath)
	if r.hashedPrefix(a.devMode) {
		b.WriteString(staticMarker)
		b.WriteString(url.PathEscape(r.Hash))
		b.WriteString(staticSuffix)
	}
	b.WriteString(r.Path(a.devMode))
	if q := r.Query(); q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	return b.String()
}
