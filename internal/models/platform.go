package models

import (
	"fmt"
	"strings"
)

// Platform is a social platform content is imported from or published to.
type Platform string

const (
	Instagram Platform = "Instagram"
	YouTube   Platform = "YouTube"
	TikTok    Platform = "TikTok"
)

// Destinations are the platforms a transformation can target.
var Destinations = []Platform{YouTube, TikTok}

// ParsePlatform maps user input such as "yt" or "tiktok" to a [Platform].
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instagram", "ig", "insta":
		return Instagram, nil
	case "youtube", "yt", "youtube-shorts", "shorts":
		return YouTube, nil
	case "tiktok", "tt":
		return TikTok, nil
	default:
		return "", fmt.Errorf("unknown platform %q", s)
	}
}

// Slug is the lowercase form used in connect event types ("youtube-auth-success").
func (p Platform) Slug() string {
	return strings.ToLower(string(p))
}

// ConnectPath is the path segment of the platform's connect endpoint.
func (p Platform) ConnectPath() string {
	if p == YouTube {
		return "Youtube"
	}
	return string(p)
}

// IsDestination reports whether jobs may target p.
func (p Platform) IsDestination() bool {
	return p == YouTube || p == TikTok
}
