package config

import (
	"maps"
	"net/http"
	"strings"
)

// SiteConfig holds request overrides for one host.
type SiteConfig struct {
	// Cookie is sent as the Cookie header, e.g. "name=value; other=value".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent replaces the default User-Agent for this host.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File is the structure of the configuration file.
type File struct {
	// Defaults apply to every host.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps host names (without scheme, "www." optional) to overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the defaults merged with the overrides for host.
// Host lookup is case-insensitive and ignores a leading "www.".
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}
	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	bare := strings.TrimPrefix(host, "www.")
	for key, site := range cf.Sites {
		key = strings.ToLower(key)
		if key == host || strings.TrimPrefix(key, "www.") == bare {
			return site, true
		}
	}
	return SiteConfig{}, false
}

// Headers returns the request headers for host. Its signature matches
// fetcher.HeaderFunc. A nil File yields no headers.
func (cf *File) Headers(host string) http.Header {
	if cf == nil {
		return nil
	}
	site := cf.GetSiteConfig(host)
	h := make(http.Header, len(site.Headers)+2)
	for key, value := range site.Headers {
		h.Set(key, value)
	}
	if site.Cookie != "" {
		h.Set("Cookie", site.Cookie)
	}
	if site.UserAgent != "" {
		h.Set("User-Agent", site.UserAgent)
	}
	return h
}
