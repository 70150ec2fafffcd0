// Package links defines the known social platform keys a profile may
// carry and validation for user-supplied link URLs.
package links

import (
	"fmt"
	"net/url"
	"strings"
)

// Core platform keys available to every profile
const (
	PlatformGitHub   = "github"
	PlatformLinkedIn = "linkedin"
	PlatformTelegram = "telegram"
	PlatformWebsite  = "website"
)

// corePlatforms are the link keys every profile may set.
// telegram holds a handle rather than a URL.
var corePlatforms = map[string]bool{
	PlatformGitHub:   true,
	PlatformLinkedIn: true,
	PlatformTelegram: true,
	PlatformWebsite:  true,
}

// premiumPlatforms are the extended social keys available to premium
// profiles. Values are handles or URLs; the presentation layer decides
// how to render each platform.
var premiumPlatforms = map[string]bool{
	"instagram":     true,
	"tiktok":        true,
	"discord":       true,
	"twitter":       true,
	"facebook":      true,
	"youtube":       true,
	"snapchat":      true,
	"pinterest":     true,
	"behance":       true,
	"dribbble":      true,
	"spotify":       true,
	"soundcloud":    true,
	"twitch":        true,
	"medium":        true,
	"dev":           true,
	"stackoverflow": true,
	"reddit":        true,
	"whatsapp":      true,
	"viber":         true,
	"skype":         true,
	"zoom":          true,
	"calendly":      true,
}

// IsCorePlatform reports whether key is a core link platform
func IsCorePlatform(key string) bool {
	return corePlatforms[key]
}

// IsPremiumPlatform reports whether key is a premium social platform
func IsPremiumPlatform(key string) bool {
	return premiumPlatforms[key]
}

// NormalizeCore trims values and drops unknown keys and empty entries
// from a core links map. Returns nil if nothing meaningful remains.
func NormalizeCore(m map[string]string) map[string]string {
	return normalize(m, IsCorePlatform)
}

// NormalizePremium trims values and drops unknown keys and empty
// entries from a premium socials map. Returns nil if nothing
// meaningful remains.
func NormalizePremium(m map[string]string) map[string]string {
	return normalize(m, IsPremiumPlatform)
}

func normalize(m map[string]string, allowed func(string) bool) map[string]string {
	if len(m) == 0 {
		return nil
	}

	out := make(map[string]string, len(m))
	for key, value := range m {
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == "" || !allowed(key) {
			continue
		}
		out[key] = value
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidateURL checks that a user-supplied link is an absolute
// http/https URL without embedded credentials. Links are rendered on
// public pages, so anything else is rejected.
func ValidateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL is empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	if parsed.User != nil {
		return fmt.Errorf("URL must not contain credentials")
	}

	return nil
}

// ValidateCore validates the URL-valued entries of a normalized core
// links map. The telegram entry is a handle and is not URL-checked.
func ValidateCore(m map[string]string) error {
	for key, value := range m {
		if key == PlatformTelegram {
			continue
		}
		if err := ValidateURL(value); err != nil {
			return fmt.Errorf("invalid %s link: %w", key, err)
		}
	}
	return nil
}
